package bridging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adisantoso/klinika-platform/internal/encounter"
)

func testRunContext() RunContext {
	return RunContext{
		VisitID:        "2024/05/01/000007",
		PatientID:      "P02478375538",
		PractitionerID: "N10000001",
		LocationID:     "loc-tht-01",
		OrgID:          "org-100026824",
		EncounterID:    "enc-1",
		RegisteredAt:   time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC),
		Now:            time.Date(2024, 5, 1, 11, 45, 0, 0, time.UTC),
	}
}

func TestNewEncounterPayload(t *testing.T) {
	enc := NewEncounter(testRunContext())

	assert.Equal(t, "arrived", enc.Status)
	assert.Equal(t, "AMB", enc.Class.Code)
	assert.Equal(t, "Patient/P02478375538", enc.Subject.Reference)
	require.Len(t, enc.Identifier, 1)
	assert.Equal(t, "http://sys-ids.kemkes.go.id/encounter/org-100026824", enc.Identifier[0].System)
	assert.Equal(t, "2024/05/01/000007", enc.Identifier[0].Value)
	require.Len(t, enc.Participant, 1)
	assert.Equal(t, "ATND", enc.Participant[0].Type[0].Coding[0].Code)
	assert.Equal(t, "Practitioner/N10000001", enc.Participant[0].Individual.Reference)
	assert.Equal(t, "Location/loc-tht-01", enc.Location[0].Location.Reference)
	assert.Equal(t, "Organization/org-100026824", enc.ServiceProvider.Reference)
}

func TestEpisodeActivatePatchShiftsRegistration(t *testing.T) {
	rc := testRunContext()
	ops := EpisodeActivatePatch(rc)

	require.Len(t, ops, 2)
	assert.Equal(t, "replace", ops[0].Op)
	assert.Equal(t, "/status", ops[0].Path)
	assert.Equal(t, "active", ops[0].Value)

	history := ops[1].Value.(FHIRStatusHistory)
	assert.Equal(t, "2024-05-01T08:35:00Z", history.Period.Start, "activation is five minutes after registration")
}

func TestEpisodeFinishPatchSetsPeriodEnd(t *testing.T) {
	ops := EpisodeFinishPatch(testRunContext())

	require.Len(t, ops, 3)
	assert.Equal(t, "/period/end", ops[2].Path)
	assert.Equal(t, "2024-05-01T11:45:00Z", ops[2].Value)
}

func TestEncounterFinishPatchDischargesHome(t *testing.T) {
	ops := EncounterFinishPatch(testRunContext())

	require.Len(t, ops, 4)
	hosp := ops[3].Value.(FHIRHospitalization)
	assert.Equal(t, "home", hosp.DischargeDisposition.Coding[0].Code)
}

func TestBloodPressureObservationUnparseable(t *testing.T) {
	for _, reading := range []string{"", "120", "abc/def", "/80"} {
		_, ok := BloodPressureObservation(testRunContext(), reading)
		assert.False(t, ok, "reading %q must be skipped, not sent", reading)
	}
}

func TestAudiologyObservationsPerEar(t *testing.T) {
	right := 45.0
	exam := encounter.AudiologyExam{
		RightEarThresholdDB: &right,
		RightEarLossType:    "conductive",
		LeftEarLossType:     "unknown-category",
	}

	out := AudiologyObservations(testRunContext(), exam)
	require.Len(t, out, 2, "one threshold and one classified loss; the unknown category is dropped")

	assert.Equal(t, 45.0, out[0].ValueQuantity.Value)
	assert.Equal(t, "25577004", out[0].BodySite.Coding[0].Code)
	assert.Equal(t, "44057004", out[1].ValueCodeableConcept.Coding[0].Code)
}

func TestDiagnosisConditionUsesICD10(t *testing.T) {
	cond := DiagnosisCondition(testRunContext(), encounter.Diagnosis{Code: "H60.9", Name: "Otitis externa, unspecified"})

	assert.Equal(t, systemICD10, cond.Code.Coding[0].System)
	assert.Equal(t, "H60.9", cond.Code.Coding[0].Code)
	assert.Equal(t, "active", cond.ClinicalStatus.Coding[0].Code)
}

func TestDischargeConditionFixedCoding(t *testing.T) {
	cond := DischargeCondition(testRunContext())

	assert.Equal(t, "268910001", cond.Code.Coding[0].Code)
	assert.Equal(t, "resolved", cond.ClinicalStatus.Coding[0].Code)
}

func TestMedicationRoundTripIdentifier(t *testing.T) {
	line := encounter.PrescriptionLine{
		PrescriptionID: "RX-2024-0001",
		ItemCode:       "AMOX500",
		ItemName:       "Amoxicillin 500 mg",
		Quantity:       10,
		Unit:           "tablet",
	}

	req := MedicationRequestResource(testRunContext(), line)
	dispense := MedicationDispenseResource(testRunContext(), line, "2024-05-01T13:00:00Z")

	require.Len(t, req.Identifier, 1)
	require.Len(t, dispense.AuthorizingPrescription, 1)
	assert.Equal(t, req.Identifier[0].Value, dispense.AuthorizingPrescription[0].Identifier.Value,
		"the dispense must reference the request through the shared business identifier")
	assert.Equal(t, "RX-2024-0001/AMOX500", req.Identifier[0].Value)
}
