package bridging

import (
	"strconv"
	"strings"

	"github.com/adisantoso/klinika-platform/internal/encounter"
)

// hearingLossCodes is the fixed mapping from the locally recorded hearing
// loss category to SNOMED CT.
var hearingLossCodes = map[string]FHIRCoding{
	"conductive":    {System: systemSNOMED, Code: "44057004", Display: "Conductive hearing loss"},
	"sensorineural": {System: systemSNOMED, Code: "60700002", Display: "Sensorineural hearing loss"},
	"mixed":         {System: systemSNOMED, Code: "77507001", Display: "Mixed conductive AND sensorineural hearing loss"},
}

var (
	rightEarSite = codeable(systemSNOMED, "25577004", "Right ear structure")
	leftEarSite  = codeable(systemSNOMED, "89644007", "Left ear structure")
)

func baseObservation(rc RunContext, category string) FHIRObservation {
	return FHIRObservation{
		ResourceType:      "Observation",
		Status:            "final",
		Category:          []FHIRCodeableConcept{codeable(systemObsCat, category, "")},
		Subject:           rc.patientRef(),
		Encounter:         rc.encounterRef(),
		EffectiveDateTime: fhirTime(rc.Now),
		Performer:         []FHIRReference{rc.practitionerRef()},
	}
}

// BloodPressureObservation builds the paired systolic/diastolic panel from
// the recorded "120/80" string. Returns false when no parseable reading was
// recorded, in which case no resource is sent at all.
func BloodPressureObservation(rc RunContext, reading string) (FHIRObservation, bool) {
	parts := strings.SplitN(strings.TrimSpace(reading), "/", 2)
	if len(parts) != 2 {
		return FHIRObservation{}, false
	}
	systolic, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	diastolic, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return FHIRObservation{}, false
	}

	obs := baseObservation(rc, "vital-signs")
	obs.Code = codeable(systemLOINC, "85354-9", "Blood pressure panel with all children optional")
	obs.Component = []FHIRObservationComponent{
		{
			Code:          codeable(systemLOINC, "8480-6", "Systolic blood pressure"),
			ValueQuantity: &FHIRQuantity{Value: systolic, Unit: "mmHg", System: systemUCUM, Code: "mm[Hg]"},
		},
		{
			Code:          codeable(systemLOINC, "8462-4", "Diastolic blood pressure"),
			ValueQuantity: &FHIRQuantity{Value: diastolic, Unit: "mmHg", System: systemUCUM, Code: "mm[Hg]"},
		},
	}
	return obs, true
}

// TemperatureObservation builds the body temperature observation. Returns
// false when no parseable reading was recorded.
func TemperatureObservation(rc RunContext, reading string) (FHIRObservation, bool) {
	value, err := strconv.ParseFloat(strings.TrimSpace(reading), 64)
	if err != nil {
		return FHIRObservation{}, false
	}

	obs := baseObservation(rc, "vital-signs")
	obs.Code = codeable(systemLOINC, "8310-5", "Body temperature")
	obs.ValueQuantity = &FHIRQuantity{Value: value, Unit: "Cel", System: systemUCUM, Code: "Cel"}
	return obs, true
}

// AudiologyObservations builds the audiometry findings: one quantitative
// threshold observation per measured ear and one categorical hearing-loss
// observation per classified ear. Ears without findings are omitted.
func AudiologyObservations(rc RunContext, exam encounter.AudiologyExam) []FHIRObservation {
	var out []FHIRObservation

	if exam.RightEarThresholdDB != nil {
		out = append(out, thresholdObservation(rc, rightEarSite, *exam.RightEarThresholdDB))
	}
	if exam.LeftEarThresholdDB != nil {
		out = append(out, thresholdObservation(rc, leftEarSite, *exam.LeftEarThresholdDB))
	}
	if coding, ok := hearingLossCodes[exam.RightEarLossType]; ok {
		out = append(out, lossTypeObservation(rc, rightEarSite, coding))
	}
	if coding, ok := hearingLossCodes[exam.LeftEarLossType]; ok {
		out = append(out, lossTypeObservation(rc, leftEarSite, coding))
	}
	return out
}

// AnatomyNoteObservation builds the free-text ear anatomy/function survey
// note. Returns false when the exam carried no note.
func AnatomyNoteObservation(rc RunContext, note string) (FHIRObservation, bool) {
	note = strings.TrimSpace(note)
	if note == "" {
		return FHIRObservation{}, false
	}

	obs := baseObservation(rc, "exam")
	obs.Code = codeable(systemSNOMED, "300196000", "Ear, nose and throat examination finding")
	obs.ValueString = note
	return obs, true
}

func thresholdObservation(rc RunContext, site FHIRCodeableConcept, db float64) FHIRObservation {
	obs := baseObservation(rc, "exam")
	obs.Code = codeable(systemLOINC, "89022-0", "Hearing threshold level")
	obs.BodySite = &site
	obs.ValueQuantity = &FHIRQuantity{Value: db, Unit: "dB", System: systemUCUM, Code: "dB"}
	return obs
}

func lossTypeObservation(rc RunContext, site FHIRCodeableConcept, coding FHIRCoding) FHIRObservation {
	obs := baseObservation(rc, "exam")
	obs.Code = codeable(systemSNOMED, "15188001", "Hearing loss")
	obs.BodySite = &site
	value := FHIRCodeableConcept{Coding: []FHIRCoding{coding}}
	obs.ValueCodeableConcept = &value
	return obs
}
