package bridging

import (
	"github.com/adisantoso/klinika-platform/internal/satusehat"
)

// NewEncounter builds the create payload for an ambulatory encounter in
// status "arrived". The visit id travels as the business identifier so the
// platform record can be traced back to the local one.
func NewEncounter(rc RunContext) FHIREncounter {
	return FHIREncounter{
		ResourceType: "Encounter",
		Identifier: []FHIRIdentifier{
			{System: "http://sys-ids.kemkes.go.id/encounter/" + rc.OrgID, Value: rc.VisitID},
		},
		Status: "arrived",
		StatusHistory: []FHIRStatusHistory{
			{Status: "arrived", Period: FHIRPeriod{Start: fhirTime(rc.RegisteredAt)}},
		},
		Class:   FHIRCoding{System: systemActCode, Code: "AMB", Display: "ambulatory"},
		Subject: rc.patientRef(),
		Participant: []FHIREncounterParticipant{
			{
				Type: []FHIRCodeableConcept{
					codeable("http://terminology.hl7.org/CodeSystem/v3-ParticipationType", "ATND", "attender"),
				},
				Individual: &FHIRReference{Reference: "Practitioner/" + rc.PractitionerID},
			},
		},
		Period:          &FHIRPeriod{Start: fhirTime(rc.RegisteredAt)},
		Location:        []FHIREncounterLocation{{Location: FHIRReference{Reference: "Location/" + rc.LocationID}}},
		ServiceProvider: rc.orgRef(),
	}
}

// EncounterStatusPatch moves the encounter to the given status, appending
// the matching status history entry.
func EncounterStatusPatch(status string, at string) []satusehat.PatchOp {
	return []satusehat.PatchOp{
		satusehat.ReplaceOp("/status", status),
		satusehat.AddOp("/statusHistory/-", FHIRStatusHistory{
			Status: status,
			Period: FHIRPeriod{Start: at},
		}),
	}
}

// EncounterEpisodeLinkPatch attaches the created episode to the encounter.
func EncounterEpisodeLinkPatch(episodeID string) []satusehat.PatchOp {
	return []satusehat.PatchOp{
		satusehat.AddOp("/episodeOfCare", []FHIRReference{
			{Reference: "EpisodeOfCare/" + episodeID},
		}),
	}
}

// EncounterFinishPatch closes the encounter: end timestamp, final history
// entry and the discharge disposition block.
func EncounterFinishPatch(rc RunContext) []satusehat.PatchOp {
	disposition := codeable(systemDischarge, "home", "Home")
	return []satusehat.PatchOp{
		satusehat.ReplaceOp("/status", "finished"),
		satusehat.AddOp("/statusHistory/-", FHIRStatusHistory{
			Status: "finished",
			Period: FHIRPeriod{Start: fhirTime(rc.Now)},
		}),
		satusehat.AddOp("/period/end", fhirTime(rc.Now)),
		satusehat.AddOp("/hospitalization", FHIRHospitalization{DischargeDisposition: &disposition}),
	}
}
