package bridging

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/adisantoso/klinika-platform/pkg/logging"
)

// Handler handles HTTP requests for the bridging flows.
type Handler struct {
	bridger *Bridger
	logger  *logging.Logger
}

// NewHandler creates a new bridging handler.
func NewHandler(bridger *Bridger, logger *logging.Logger) *Handler {
	return &Handler{bridger: bridger, logger: logger}
}

// Routes mounts the bridging endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/encounters/{visitID}/start", h.StartEncounter)
	r.Post("/encounters/{visitID}", h.BridgeEncounter)
	r.Get("/encounters/{visitID}/status", h.EncounterStatus)
	r.Post("/dispenses/{prescriptionID}", h.BridgeDispense)
	return r
}

// StatusResponse is the per-visit badge shown in the front-office visit
// list.
type StatusResponse struct {
	VisitID     string     `json:"visit_id"`
	Status      string     `json:"status"`
	EncounterID string     `json:"encounter_id,omitempty"`
	LastSentAt  *time.Time `json:"last_sent_at,omitempty"`
}

// EncounterStatus handles GET /bridge/encounters/{visitID}/status.
func (h *Handler) EncounterStatus(w http.ResponseWriter, r *http.Request) {
	visitID := pathParam(r, "visitID")
	if visitID == "" {
		http.Error(w, "missing visit id", http.StatusBadRequest)
		return
	}

	link, err := h.bridger.LinkStatus(r.Context(), visitID)
	if err != nil {
		h.logger.Error("failed to load bridging status", "visit_id", visitID, "error", err)
		http.Error(w, "could not load bridging status", http.StatusInternalServerError)
		return
	}

	res := StatusResponse{VisitID: visitID, Status: StatusNotSent}
	if link != nil {
		res.Status = link.Status
		res.EncounterID = link.EncounterID
		res.LastSentAt = link.LastSentAt
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		h.logger.Error("failed to encode bridging status", "error", err)
	}
}

// StartEncounter handles POST /bridge/encounters/{visitID}/start, fired when
// the front desk calls the patient in.
func (h *Handler) StartEncounter(w http.ResponseWriter, r *http.Request) {
	visitID := pathParam(r, "visitID")
	if visitID == "" {
		http.Error(w, "missing visit id", http.StatusBadRequest)
		return
	}

	res := h.bridger.StartEncounter(r.Context(), visitID)
	h.writeResult(w, res)
}

// BridgeEncounter handles POST /bridge/encounters/{visitID}, fired when the
// clinical note is finalized.
func (h *Handler) BridgeEncounter(w http.ResponseWriter, r *http.Request) {
	visitID := pathParam(r, "visitID")
	if visitID == "" {
		http.Error(w, "missing visit id", http.StatusBadRequest)
		return
	}

	res := h.bridger.BridgeEncounter(r.Context(), visitID)
	h.writeResult(w, res)
}

// BridgeDispense handles POST /bridge/dispenses/{prescriptionID}, fired when
// the pharmacy hands the prescription over.
func (h *Handler) BridgeDispense(w http.ResponseWriter, r *http.Request) {
	prescriptionID := pathParam(r, "prescriptionID")
	if prescriptionID == "" {
		http.Error(w, "missing prescription id", http.StatusBadRequest)
		return
	}

	res := h.bridger.BridgeMedicationDispense(r.Context(), prescriptionID)
	h.writeResult(w, res)
}

// pathParam reads a chi URL parameter, unescaping it. Visit ids contain
// slashes, so callers send them percent-encoded.
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

// writeResult renders the uniform result envelope. The HTTP status mirrors
// the run outcome so the caller does not need to parse the body to branch.
func (h *Handler) writeResult(w http.ResponseWriter, res Result) {
	status := http.StatusOK
	if !res.Success {
		status = http.StatusBadGateway
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(res); err != nil {
		h.logger.Error("failed to encode bridging result", "error", err)
	}
}
