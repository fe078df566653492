package bridging

import "fmt"

// MappingError means a required platform id has no local mapping. It aborts
// a run before any remote write.
type MappingError struct {
	Kind     string // "patient", "practitioner", "location"
	LocalKey string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("bridging: no platform %s mapping for %q", e.Kind, e.LocalKey)
}

// CredentialError means the gateway could not authenticate: no token could
// be obtained, or the platform rejected ours.
type CredentialError struct {
	Detail string
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("bridging: platform credentials rejected: %s", e.Detail)
}

// RemoteWriteError means one specific resource write failed. Transport
// failures surface here too, carrying the gateway's 500-class envelope.
type RemoteWriteError struct {
	Resource   string
	StatusCode int
	Body       string
}

func (e *RemoteWriteError) Error() string {
	return fmt.Sprintf("bridging: %s write failed (status %d): %s", e.Resource, e.StatusCode, e.Body)
}
