package bridging

import (
	"time"

	"github.com/adisantoso/klinika-platform/internal/satusehat"
)

// episodeActivationDelay approximates when care actually began. Registration
// only records the desk timestamp, so activation is pegged five minutes
// after it. A heuristic, not a clinical event.
const episodeActivationDelay = 5 * time.Minute

// NewEpisodeOfCare builds the create payload with status "waitlist".
func NewEpisodeOfCare(rc RunContext) FHIREpisodeOfCare {
	return FHIREpisodeOfCare{
		ResourceType: "EpisodeOfCare",
		Status:       "waitlist",
		StatusHistory: []FHIRStatusHistory{
			{Status: "waitlist", Period: FHIRPeriod{Start: fhirTime(rc.RegisteredAt)}},
		},
		Patient:              rc.patientRef(),
		ManagingOrganization: rc.orgRef(),
		Period:               &FHIRPeriod{Start: fhirTime(rc.RegisteredAt)},
	}
}

// EpisodeActivatePatch moves the episode to "active", appending the status
// history entry with the computed activation timestamp.
func EpisodeActivatePatch(rc RunContext) []satusehat.PatchOp {
	activatedAt := rc.RegisteredAt.Add(episodeActivationDelay)
	return []satusehat.PatchOp{
		satusehat.ReplaceOp("/status", "active"),
		satusehat.AddOp("/statusHistory/-", FHIRStatusHistory{
			Status: "active",
			Period: FHIRPeriod{Start: fhirTime(activatedAt)},
		}),
	}
}

// EpisodeFinishPatch closes the episode with an end timestamp.
func EpisodeFinishPatch(rc RunContext) []satusehat.PatchOp {
	return []satusehat.PatchOp{
		satusehat.ReplaceOp("/status", "finished"),
		satusehat.AddOp("/statusHistory/-", FHIRStatusHistory{
			Status: "finished",
			Period: FHIRPeriod{Start: fhirTime(rc.Now)},
		}),
		satusehat.AddOp("/period/end", fhirTime(rc.Now)),
	}
}
