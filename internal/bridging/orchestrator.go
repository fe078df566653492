// Package bridging synchronizes locally recorded clinical encounters into
// the SATUSEHAT exchange, resource by resource, and keeps the local link
// record consistent with what the platform has seen.
package bridging

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/adisantoso/klinika-platform/internal/encounter"
	"github.com/adisantoso/klinika-platform/internal/observability/metrics"
	"github.com/adisantoso/klinika-platform/internal/satusehat"
	"github.com/adisantoso/klinika-platform/pkg/logging"
)

// Gateway is the slice of the platform client the orchestrator uses.
type Gateway interface {
	Post(ctx context.Context, resourceType string, payload any) satusehat.Response
	Patch(ctx context.Context, resourceType, id string, ops []satusehat.PatchOp) satusehat.Response
}

// VisitReader loads local encounter aggregates.
type VisitReader interface {
	GetVisit(ctx context.Context, visitID string) (*encounter.Visit, error)
	GetPrescription(ctx context.Context, prescriptionID string) (*encounter.Prescription, error)
}

// Mappings resolves local keys to platform ids.
type Mappings interface {
	PatientID(ctx context.Context, medRecordNo, nik string) (string, error)
	PractitionerID(ctx context.Context, code string) (string, error)
	LocationID(ctx context.Context, code string) (string, error)
}

// Links persists per-visit bridging state.
type Links interface {
	Get(ctx context.Context, visitID string) (*EncounterLink, error)
	Upsert(ctx context.Context, link *EncounterLink) error
}

// ResourceError reports one skipped sub-resource from the best-effort
// fan-out.
type ResourceError struct {
	Resource string `json:"resource"`
	Reason   string `json:"reason"`
}

// Result is the uniform outcome shape handed back to the calling UI layer.
type Result struct {
	Success     bool            `json:"success"`
	Message     string          `json:"message"`
	EncounterID string          `json:"encounter_id,omitempty"`
	Skipped     []ResourceError `json:"skipped,omitempty"`
}

// Config wires the orchestrator's dependencies.
type Config struct {
	Gateway  Gateway
	Visits   VisitReader
	Mappings Mappings
	Links    Links
	OrgID    string
	Logger   *logging.Logger
	Metrics  *metrics.BridgeMetrics
}

// Bridger drives the per-visit state machine:
// NOT_STARTED -> CALLED -> BRIDGED, with FAILED terminal for a run and
// retryable by re-invocation. All remote calls inside one run are
// sequential; runs for the same visit are serialized by a keyed mutex.
type Bridger struct {
	gateway  Gateway
	visits   VisitReader
	mappings Mappings
	links    Links
	orgID    string
	logger   *logging.Logger
	metrics  *metrics.BridgeMetrics
	tracer   trace.Tracer
	now      func() time.Time

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// New creates the orchestrator. All dependencies are explicit; nothing is
// resolved through package state.
func New(cfg Config) (*Bridger, error) {
	if cfg.Gateway == nil {
		return nil, fmt.Errorf("bridging: Gateway is required")
	}
	if cfg.Visits == nil {
		return nil, fmt.Errorf("bridging: Visits is required")
	}
	if cfg.Mappings == nil {
		return nil, fmt.Errorf("bridging: Mappings is required")
	}
	if cfg.Links == nil {
		return nil, fmt.Errorf("bridging: Links is required")
	}
	if cfg.OrgID == "" {
		return nil, fmt.Errorf("bridging: OrgID is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Bridger{
		gateway:  cfg.Gateway,
		visits:   cfg.Visits,
		mappings: cfg.Mappings,
		links:    cfg.Links,
		orgID:    cfg.OrgID,
		logger:   logger,
		metrics:  cfg.Metrics,
		tracer:   otel.Tracer("bridging"),
		now:      time.Now,
		locks:    map[string]*sync.Mutex{},
	}, nil
}

// LinkStatus reports the bridging state of a visit for the front-office
// status badge. Returns nil when the visit has never been bridged.
func (b *Bridger) LinkStatus(ctx context.Context, visitID string) (*EncounterLink, error) {
	return b.links.Get(ctx, visitID)
}

// visitLock serializes runs per visit key. The multi-step sequence is not
// safe to interleave: a concurrent second run could create a duplicate
// EpisodeOfCare.
func (b *Bridger) visitLock(visitID string) *sync.Mutex {
	b.locksMu.Lock()
	defer b.locksMu.Unlock()
	mu, ok := b.locks[visitID]
	if !ok {
		mu = &sync.Mutex{}
		b.locks[visitID] = mu
	}
	return mu
}

// StartEncounter is triggered when the patient is called at the desk. It is
// idempotent: a visit already called or bridged returns success with zero
// remote calls. Otherwise the platform Encounter is created (status
// "arrived") and moved to "in-progress".
func (b *Bridger) StartEncounter(ctx context.Context, visitID string) Result {
	mu := b.visitLock(visitID)
	mu.Lock()
	defer mu.Unlock()

	started := b.now()
	ctx, span := b.tracer.Start(ctx, "bridging.start_encounter",
		trace.WithAttributes(attribute.String("visit.id", visitID)))
	defer span.End()

	link, err := b.links.Get(ctx, visitID)
	if err != nil {
		return b.finishRun("start_encounter", started, Result{Success: false, Message: "could not read bridging status"}, err)
	}
	if link != nil && (link.Status == StatusInProgress || link.Status == StatusSent) {
		b.logger.Info("encounter already started", "visit_id", visitID, "status", link.Status)
		return b.finishRun("start_encounter", started, Result{
			Success:     true,
			Message:     "encounter already started",
			EncounterID: link.EncounterID,
		}, nil)
	}

	visit, err := b.visits.GetVisit(ctx, visitID)
	if err != nil {
		return b.finishRun("start_encounter", started, Result{Success: false, Message: "visit not found"}, err)
	}

	rc, err := b.resolveContext(ctx, visit)
	if err != nil {
		b.persistFailed(ctx, visitID, link, nil)
		return b.finishRun("start_encounter", started, Result{Success: false, Message: userMessage(err)}, err)
	}

	encounterID, resp, err := b.ensureRemoteEncounter(ctx, rc, link)
	if err != nil {
		b.persistFailed(ctx, visitID, link, resp.Body)
		return b.finishRun("start_encounter", started, Result{Success: false, Message: userMessage(err)}, err)
	}

	sentAt := b.now()
	if err := b.links.Upsert(ctx, &EncounterLink{
		VisitID:      visitID,
		EncounterID:  encounterID,
		EpisodeID:    episodeID(link),
		Status:       StatusInProgress,
		LastResponse: resp.Body,
		LastSentAt:   &sentAt,
	}); err != nil {
		return b.finishRun("start_encounter", started, Result{Success: false, Message: "could not persist bridging status"}, err)
	}

	b.logger.Info("encounter started on platform", "visit_id", visitID, "encounter_id", encounterID)
	return b.finishRun("start_encounter", started, Result{
		Success:     true,
		Message:     "encounter started",
		EncounterID: encounterID,
	}, nil)
}

// BridgeEncounter runs the full pipeline for a finalized clinical note. The
// idempotency guard lives here, not in callers: an already-sent visit
// short-circuits without remote calls.
func (b *Bridger) BridgeEncounter(ctx context.Context, visitID string) Result {
	mu := b.visitLock(visitID)
	mu.Lock()
	defer mu.Unlock()

	started := b.now()
	ctx, span := b.tracer.Start(ctx, "bridging.bridge_encounter",
		trace.WithAttributes(attribute.String("visit.id", visitID)))
	defer span.End()

	link, err := b.links.Get(ctx, visitID)
	if err != nil {
		return b.finishRun("bridge_encounter", started, Result{Success: false, Message: "could not read bridging status"}, err)
	}
	if link != nil && link.Status == StatusSent {
		b.logger.Info("encounter already bridged", "visit_id", visitID)
		return b.finishRun("bridge_encounter", started, Result{
			Success:     true,
			Message:     "encounter already bridged",
			EncounterID: link.EncounterID,
		}, nil)
	}

	visit, err := b.visits.GetVisit(ctx, visitID)
	if err != nil {
		return b.finishRun("bridge_encounter", started, Result{Success: false, Message: "visit not found"}, err)
	}

	rc, err := b.resolveContext(ctx, visit)
	if err != nil {
		b.persistFailed(ctx, visitID, link, nil)
		return b.finishRun("bridge_encounter", started, Result{Success: false, Message: userMessage(err)}, err)
	}

	// The desk flow normally created the encounter already; a visit
	// finalized without being called gets one now.
	encounterID, resp, err := b.ensureRemoteEncounter(ctx, rc, link)
	if err != nil {
		b.persistFailed(ctx, visitID, link, resp.Body)
		return b.finishRun("bridge_encounter", started, Result{Success: false, Message: userMessage(err)}, err)
	}
	rc.EncounterID = encounterID

	episodeID, resp, err := b.ensureEpisode(ctx, rc, link)
	if err != nil {
		b.persistFailed(ctx, visitID, &EncounterLink{VisitID: visitID, EncounterID: encounterID, EpisodeID: episodeID}, resp.Body)
		return b.finishRun("bridge_encounter", started, Result{Success: false, Message: userMessage(err), EncounterID: encounterID}, err)
	}
	rc.EpisodeID = episodeID

	// The episode id is written down before anything references it, so a
	// crashed run can resume without minting a duplicate episode.
	if err := b.links.Upsert(ctx, &EncounterLink{
		VisitID:     visitID,
		EncounterID: encounterID,
		EpisodeID:   episodeID,
		Status:      StatusInProgress,
	}); err != nil {
		return b.finishRun("bridge_encounter", started, Result{Success: false, Message: "could not persist bridging status"}, err)
	}

	var skipped []ResourceError

	// Activation is best-effort: a rejected activation patch must not block
	// the clinical record from syncing.
	if resp := b.gateway.Patch(ctx, "EpisodeOfCare", episodeID, EpisodeActivatePatch(rc)); !resp.Success {
		skipped = b.recordSkip(skipped, "EpisodeOfCare:activate", resp)
	}

	if resp := b.gateway.Patch(ctx, "Encounter", encounterID, EncounterEpisodeLinkPatch(episodeID)); !resp.Success {
		err := classifyWrite("Encounter", resp)
		b.persistFailed(ctx, visitID, &EncounterLink{VisitID: visitID, EncounterID: encounterID, EpisodeID: episodeID}, resp.Body)
		return b.finishRun("bridge_encounter", started, Result{Success: false, Message: userMessage(err), EncounterID: encounterID}, err)
	}

	skipped = b.emitClinicalResources(ctx, rc, visit, skipped)

	if resp := b.gateway.Patch(ctx, "Encounter", encounterID, EncounterFinishPatch(rc)); !resp.Success {
		err := classifyWrite("Encounter", resp)
		b.persistFailed(ctx, visitID, &EncounterLink{VisitID: visitID, EncounterID: encounterID, EpisodeID: episodeID}, resp.Body)
		return b.finishRun("bridge_encounter", started, Result{Success: false, Message: userMessage(err), EncounterID: encounterID, Skipped: skipped}, err)
	}

	finishResp := b.gateway.Patch(ctx, "EpisodeOfCare", episodeID, EpisodeFinishPatch(rc))
	if !finishResp.Success {
		err := classifyWrite("EpisodeOfCare", finishResp)
		b.persistFailed(ctx, visitID, &EncounterLink{VisitID: visitID, EncounterID: encounterID, EpisodeID: episodeID}, finishResp.Body)
		return b.finishRun("bridge_encounter", started, Result{Success: false, Message: userMessage(err), EncounterID: encounterID, Skipped: skipped}, err)
	}

	sentAt := b.now()
	if err := b.links.Upsert(ctx, &EncounterLink{
		VisitID:      visitID,
		EncounterID:  encounterID,
		EpisodeID:    episodeID,
		Status:       StatusSent,
		LastResponse: finishResp.Body,
		LastSentAt:   &sentAt,
	}); err != nil {
		return b.finishRun("bridge_encounter", started, Result{Success: false, Message: "could not persist bridging status"}, err)
	}

	b.logger.Info("encounter bridged", "visit_id", visitID, "encounter_id", encounterID, "skipped", len(skipped))
	return b.finishRun("bridge_encounter", started, Result{
		Success:     true,
		Message:     "encounter bridged",
		EncounterID: encounterID,
		Skipped:     skipped,
	}, nil)
}

// BridgeMedicationDispense is triggered when the pharmacy hands a
// prescription over. Both an existing patient mapping and a bridged
// encounter link are hard preconditions.
func (b *Bridger) BridgeMedicationDispense(ctx context.Context, prescriptionID string) Result {
	started := b.now()
	ctx, span := b.tracer.Start(ctx, "bridging.bridge_dispense",
		trace.WithAttributes(attribute.String("prescription.id", prescriptionID)))
	defer span.End()

	prescription, err := b.visits.GetPrescription(ctx, prescriptionID)
	if err != nil {
		return b.finishRun("bridge_dispense", started, Result{Success: false, Message: "prescription not found"}, err)
	}

	mu := b.visitLock(prescription.VisitID)
	mu.Lock()
	defer mu.Unlock()

	link, err := b.links.Get(ctx, prescription.VisitID)
	if err != nil {
		return b.finishRun("bridge_dispense", started, Result{Success: false, Message: "could not read bridging status"}, err)
	}
	if link == nil || link.EncounterID == "" {
		err := fmt.Errorf("bridging: visit %s has no platform encounter; bridge the encounter before dispensing", prescription.VisitID)
		return b.finishRun("bridge_dispense", started, Result{Success: false, Message: err.Error()}, err)
	}

	visit, err := b.visits.GetVisit(ctx, prescription.VisitID)
	if err != nil {
		return b.finishRun("bridge_dispense", started, Result{Success: false, Message: "visit not found"}, err)
	}

	// Local-only resolution here: the mapping must already exist from the
	// encounter bridge, so no directory search is attempted.
	patientID, err := b.mappings.PatientID(ctx, visit.MedRecordNo, "")
	if err != nil {
		return b.finishRun("bridge_dispense", started, Result{Success: false, Message: userMessage(err)}, err)
	}

	rc := RunContext{
		VisitID:     prescription.VisitID,
		PatientID:   patientID,
		OrgID:       b.orgID,
		EncounterID: link.EncounterID,
		Now:         b.now(),
	}

	handedOver := fhirTime(rc.Now)
	if prescription.DispensedAt != nil {
		handedOver = fhirTime(*prescription.DispensedAt)
	}

	var skipped []ResourceError
	for _, line := range prescription.Lines {
		payload := MedicationDispenseResource(rc, line, handedOver)
		if resp := b.gateway.Post(ctx, "MedicationDispense", payload); !resp.Success {
			skipped = b.recordSkip(skipped, "MedicationDispense:"+line.ItemCode, resp)
		} else {
			b.metrics.ObserveResource("MedicationDispense", "ok")
		}
	}

	if len(skipped) > 0 {
		err := fmt.Errorf("bridging: %d of %d dispense lines failed", len(skipped), len(prescription.Lines))
		return b.finishRun("bridge_dispense", started, Result{
			Success:     false,
			Message:     err.Error(),
			EncounterID: link.EncounterID,
			Skipped:     skipped,
		}, err)
	}

	b.logger.Info("prescription dispense bridged", "prescription_id", prescriptionID, "lines", len(prescription.Lines))
	return b.finishRun("bridge_dispense", started, Result{
		Success:     true,
		Message:     "dispense bridged",
		EncounterID: link.EncounterID,
	}, nil)
}

// emitClinicalResources is the best-effort fan-out of step 5: every present
// local record becomes one POST; each failure is collected, none aborts.
func (b *Bridger) emitClinicalResources(ctx context.Context, rc RunContext, visit *encounter.Visit, skipped []ResourceError) []ResourceError {
	post := func(kind, resourceType string, payload any) {
		resp := b.gateway.Post(ctx, resourceType, payload)
		if !resp.Success {
			skipped = b.recordSkip(skipped, kind, resp)
			return
		}
		b.metrics.ObserveResource(resourceType, "ok")
	}

	if visit.Vitals != nil {
		if obs, ok := BloodPressureObservation(rc, visit.Vitals.BloodPressure); ok {
			post("Observation:blood-pressure", "Observation", obs)
		}
		if obs, ok := TemperatureObservation(rc, visit.Vitals.Temperature); ok {
			post("Observation:body-temperature", "Observation", obs)
		}
	}

	if visit.Audiology != nil {
		for _, obs := range AudiologyObservations(rc, *visit.Audiology) {
			post("Observation:audiology", "Observation", obs)
		}
		if obs, ok := AnatomyNoteObservation(rc, visit.Audiology.AnatomyNotes); ok {
			post("Observation:ent-exam", "Observation", obs)
		}
	}

	for _, d := range visit.Diagnoses {
		post("Condition:"+d.Code, "Condition", DiagnosisCondition(rc, d))
	}

	for _, p := range visit.Procedures {
		post("Procedure:"+p.Code, "Procedure", ProcedureResource(rc, p))
	}

	post("ClinicalImpression", "ClinicalImpression", ClinicalImpressionResource(rc))
	post("Condition:discharge", "Condition", DischargeCondition(rc))
	post("CarePlan", "CarePlan", CarePlanResource(rc))

	for _, line := range visit.Prescriptions {
		post("MedicationRequest:"+line.ItemCode, "MedicationRequest", MedicationRequestResource(rc, line))
	}

	return skipped
}

// resolveContext resolves all platform ids the run needs up front; a
// missing mapping aborts before any remote write.
func (b *Bridger) resolveContext(ctx context.Context, visit *encounter.Visit) (RunContext, error) {
	patientID, err := b.mappings.PatientID(ctx, visit.MedRecordNo, visit.NIK)
	if err != nil {
		return RunContext{}, err
	}
	practitionerID, err := b.mappings.PractitionerID(ctx, visit.PractitionerCode)
	if err != nil {
		return RunContext{}, err
	}
	locationID, err := b.mappings.LocationID(ctx, visit.LocationCode)
	if err != nil {
		return RunContext{}, err
	}
	return RunContext{
		VisitID:        visit.VisitID,
		PatientID:      patientID,
		PractitionerID: practitionerID,
		LocationID:     locationID,
		OrgID:          b.orgID,
		RegisteredAt:   visit.RegisteredAt,
		Now:            b.now(),
	}, nil
}

// ensureRemoteEncounter creates the platform Encounter when the visit does
// not have one yet and moves it to in-progress. An encounter the desk flow
// already moved to in-progress is left alone; a second status patch would
// append a duplicate history entry.
func (b *Bridger) ensureRemoteEncounter(ctx context.Context, rc RunContext, link *EncounterLink) (string, satusehat.Response, error) {
	encounterID := ""
	if link != nil {
		encounterID = link.EncounterID
		if encounterID != "" && link.Status == StatusInProgress {
			return encounterID, satusehat.Response{Success: true}, nil
		}
	}

	var lastResp satusehat.Response
	if encounterID == "" {
		lastResp = b.gateway.Post(ctx, "Encounter", NewEncounter(rc))
		if !lastResp.Success {
			b.metrics.ObserveResource("Encounter", "failed")
			return "", lastResp, classifyWrite("Encounter", lastResp)
		}
		encounterID = lastResp.ResourceID()
		if encounterID == "" {
			return "", lastResp, &RemoteWriteError{Resource: "Encounter", StatusCode: lastResp.StatusCode, Body: "created without id"}
		}
		b.metrics.ObserveResource("Encounter", "ok")
	}

	lastResp = b.gateway.Patch(ctx, "Encounter", encounterID, EncounterStatusPatch("in-progress", fhirTime(b.now())))
	if !lastResp.Success {
		b.metrics.ObserveResource("Encounter", "failed")
		return encounterID, lastResp, classifyWrite("Encounter", lastResp)
	}
	return encounterID, lastResp, nil
}

// ensureEpisode reuses the persisted episode id when a previous run already
// created one; otherwise it creates the EpisodeOfCare. A creation without
// an id in the response is a hard failure.
func (b *Bridger) ensureEpisode(ctx context.Context, rc RunContext, link *EncounterLink) (string, satusehat.Response, error) {
	if id := episodeID(link); id != "" {
		return id, satusehat.Response{Success: true}, nil
	}

	resp := b.gateway.Post(ctx, "EpisodeOfCare", NewEpisodeOfCare(rc))
	if !resp.Success {
		b.metrics.ObserveResource("EpisodeOfCare", "failed")
		return "", resp, classifyWrite("EpisodeOfCare", resp)
	}
	id := resp.ResourceID()
	if id == "" {
		return "", resp, &RemoteWriteError{Resource: "EpisodeOfCare", StatusCode: resp.StatusCode, Body: "created without id"}
	}
	b.metrics.ObserveResource("EpisodeOfCare", "ok")
	return id, resp, nil
}

func (b *Bridger) recordSkip(skipped []ResourceError, kind string, resp satusehat.Response) []ResourceError {
	b.logger.Warn("sub-resource send failed", "resource", kind, "status", resp.StatusCode, "body", string(resp.Body))
	b.metrics.ObserveResource(resourceType(kind), "failed")
	return append(skipped, ResourceError{
		Resource: kind,
		Reason:   fmt.Sprintf("status %d", resp.StatusCode),
	})
}

func (b *Bridger) persistFailed(ctx context.Context, visitID string, link *EncounterLink, lastResponse []byte) {
	failed := &EncounterLink{VisitID: visitID, Status: StatusFailed, LastResponse: lastResponse}
	if link != nil {
		failed.EncounterID = link.EncounterID
		failed.EpisodeID = link.EpisodeID
	}
	sentAt := b.now()
	failed.LastSentAt = &sentAt
	if err := b.links.Upsert(ctx, failed); err != nil {
		b.logger.Error("could not persist failed bridging status", "visit_id", visitID, "error", err)
	}
}

func (b *Bridger) finishRun(operation string, started time.Time, result Result, err error) Result {
	outcome := "sent"
	if !result.Success {
		outcome = "failed"
	}
	b.metrics.ObserveRun(operation, outcome, b.now().Sub(started).Seconds())
	if err != nil {
		b.logger.Error("bridging run failed", "operation", operation, "error", err)
	}
	return result
}

func classifyWrite(resource string, resp satusehat.Response) error {
	if resp.StatusCode == http.StatusUnauthorized {
		return &CredentialError{Detail: string(resp.Body)}
	}
	return &RemoteWriteError{Resource: resource, StatusCode: resp.StatusCode, Body: string(resp.Body)}
}

// userMessage maps the error taxonomy onto the single human-readable line
// shown in the UI; technical detail stays in the operator log. Taxonomy
// errors are matched through any wrapping layers.
func userMessage(err error) string {
	var mapErr *MappingError
	if errors.As(err, &mapErr) {
		return fmt.Sprintf("no platform mapping configured for %s %q", mapErr.Kind, mapErr.LocalKey)
	}
	var credErr *CredentialError
	if errors.As(err, &credErr) || errors.Is(err, satusehat.ErrUnauthorized) {
		return "could not authenticate with the health platform"
	}
	var writeErr *RemoteWriteError
	if errors.As(err, &writeErr) {
		return fmt.Sprintf("the health platform rejected the %s record", writeErr.Resource)
	}
	return "bridging failed, see operator log"
}

func episodeID(link *EncounterLink) string {
	if link == nil {
		return ""
	}
	return link.EpisodeID
}

func resourceType(kind string) string {
	for i := 0; i < len(kind); i++ {
		if kind[i] == ':' {
			return kind[:i]
		}
	}
	return kind
}
