package bridging

import "github.com/adisantoso/klinika-platform/internal/encounter"

// ProcedureResource builds one Procedure per performed ICD-9-CM coded
// procedure.
func ProcedureResource(rc RunContext, p encounter.ProcedureRecord) FHIRProcedure {
	code := codeable(systemICD9CM, p.Code, p.Name)
	return FHIRProcedure{
		ResourceType: "Procedure",
		Status:       "completed",
		Code:         &code,
		Subject:      rc.patientRef(),
		Encounter:    rc.encounterRef(),
		PerformedPeriod: &FHIRPeriod{
			Start: fhirTime(p.PerformedAt),
			End:   fhirTime(p.PerformedAt),
		},
		Performer: []FHIRProcedurePerformer{{Actor: rc.practitionerRef()}},
	}
}
