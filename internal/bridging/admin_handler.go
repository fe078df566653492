package bridging

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adisantoso/klinika-platform/pkg/logging"
)

// AdminHandler exposes the operator endpoints for maintaining the identity
// mapping tables. Mounted behind admin JWT auth.
type AdminHandler struct {
	mappings *MappingStore
	logger   *logging.Logger
}

// NewAdminHandler creates the admin mapping handler.
func NewAdminHandler(mappings *MappingStore, logger *logging.Logger) *AdminHandler {
	return &AdminHandler{mappings: mappings, logger: logger}
}

// Routes mounts the mapping maintenance endpoints.
func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Put("/mappings/patients/{medRecordNo}", h.PutPatientMapping)
	r.Put("/mappings/practitioners/{code}", h.PutPractitionerMapping)
	r.Put("/mappings/locations/{code}", h.PutLocationMapping)
	return r
}

type putMappingRequest struct {
	SatuSehatID string `json:"satusehat_id"`
}

// PutPatientMapping handles PUT /admin/mappings/patients/{medRecordNo}.
func (h *AdminHandler) PutPatientMapping(w http.ResponseWriter, r *http.Request) {
	h.putMapping(w, r, "medRecordNo", h.mappings.UpsertPatient)
}

// PutPractitionerMapping handles PUT /admin/mappings/practitioners/{code}.
func (h *AdminHandler) PutPractitionerMapping(w http.ResponseWriter, r *http.Request) {
	h.putMapping(w, r, "code", h.mappings.UpsertPractitioner)
}

// PutLocationMapping handles PUT /admin/mappings/locations/{code}.
func (h *AdminHandler) PutLocationMapping(w http.ResponseWriter, r *http.Request) {
	h.putMapping(w, r, "code", h.mappings.UpsertLocation)
}

func (h *AdminHandler) putMapping(w http.ResponseWriter, r *http.Request, paramKey string, upsert func(ctx context.Context, localKey, satusehatID string) error) {
	localKey := pathParam(r, paramKey)
	if localKey == "" {
		http.Error(w, "missing local key", http.StatusBadRequest)
		return
	}

	var req putMappingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SatuSehatID == "" {
		http.Error(w, "satusehat_id is required", http.StatusBadRequest)
		return
	}

	if err := upsert(r.Context(), localKey, req.SatuSehatID); err != nil {
		h.logger.Error("failed to record mapping", "local_key", localKey, "error", err)
		http.Error(w, "could not record mapping", http.StatusInternalServerError)
		return
	}

	h.logger.Info("mapping recorded", "local_key", localKey, "satusehat_id", req.SatuSehatID)
	w.WriteHeader(http.StatusNoContent)
}
