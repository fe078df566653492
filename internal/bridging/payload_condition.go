package bridging

import "github.com/adisantoso/klinika-platform/internal/encounter"

// DiagnosisCondition builds one Condition per ICD-10 coded diagnosis.
func DiagnosisCondition(rc RunContext, d encounter.Diagnosis) FHIRCondition {
	active := codeable(systemCondStatus, "active", "Active")
	code := codeable(systemICD10, d.Code, d.Name)
	return FHIRCondition{
		ResourceType:   "Condition",
		ClinicalStatus: &active,
		Category: []FHIRCodeableConcept{
			codeable(systemCondCat, "encounter-diagnosis", "Encounter Diagnosis"),
		},
		Code:         &code,
		Subject:      rc.patientRef(),
		Encounter:    rc.encounterRef(),
		RecordedDate: fhirTime(rc.Now),
	}
}

// DischargeCondition builds the fixed condition-at-discharge record sent
// with every completed visit.
func DischargeCondition(rc RunContext) FHIRCondition {
	resolved := codeable(systemCondStatus, "resolved", "Resolved")
	code := codeable(systemSNOMED, "268910001", "Patient's condition improved")
	return FHIRCondition{
		ResourceType:   "Condition",
		ClinicalStatus: &resolved,
		Category: []FHIRCodeableConcept{
			codeable(systemCondCat, "encounter-diagnosis", "Encounter Diagnosis"),
		},
		Code:         &code,
		Subject:      rc.patientRef(),
		Encounter:    rc.encounterRef(),
		RecordedDate: fhirTime(rc.Now),
	}
}
