package bridging

import "time"

// Code systems used across the payload builders.
const (
	systemLOINC      = "http://loinc.org"
	systemSNOMED     = "http://snomed.info/sct"
	systemICD10      = "http://hl7.org/fhir/sid/icd-10"
	systemICD9CM     = "http://hl7.org/fhir/sid/icd-9-cm"
	systemActCode    = "http://terminology.hl7.org/CodeSystem/v3-ActCode"
	systemUCUM       = "http://unitsofmeasure.org"
	systemObsCat     = "http://terminology.hl7.org/CodeSystem/observation-category"
	systemCondCat    = "http://terminology.hl7.org/CodeSystem/condition-category"
	systemCondStatus = "http://terminology.hl7.org/CodeSystem/condition-clinical"
	systemDischarge  = "http://terminology.hl7.org/CodeSystem/discharge-disposition"
)

// RunContext carries the identities and times resolved for one bridging
// run. Builders are pure functions of a local record and this context.
type RunContext struct {
	VisitID        string
	PatientID      string
	PractitionerID string
	LocationID     string
	OrgID          string
	EncounterID    string
	EpisodeID      string
	RegisteredAt   time.Time
	Now            time.Time
}

func (rc RunContext) patientRef() FHIRReference {
	return FHIRReference{Reference: "Patient/" + rc.PatientID}
}

func (rc RunContext) practitionerRef() FHIRReference {
	return FHIRReference{Reference: "Practitioner/" + rc.PractitionerID}
}

func (rc RunContext) encounterRef() *FHIRReference {
	return &FHIRReference{Reference: "Encounter/" + rc.EncounterID}
}

func (rc RunContext) orgRef() *FHIRReference {
	return &FHIRReference{Reference: "Organization/" + rc.OrgID}
}

func fhirTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func codeable(system, code, display string) FHIRCodeableConcept {
	return FHIRCodeableConcept{Coding: []FHIRCoding{{System: system, Code: code, Display: display}}}
}
