package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/ayusman/silexa/internal/dataset"
	"github.com/ayusman/silexa/internal/features"
	"github.com/ayusman/silexa/internal/metrics"
)

// DatasetHandler records labeled examples and reports dataset statistics.
type DatasetHandler struct {
	store   *dataset.Store
	metrics *metrics.Metrics
}

// NewDatasetHandler creates a DatasetHandler. m may be nil.
func NewDatasetHandler(s *dataset.Store, m *metrics.Metrics) *DatasetHandler {
	return &DatasetHandler{store: s, metrics: m}
}

type saveGestureRequest struct {
	Landmarks []float64 `json:"landmarks"`
	Label     string    `json:"label"`
}

type saveGestureResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Label   string `json:"label"`
}

type statsResponse struct {
	Success bool           `json:"success"`
	Total   int            `json:"total"`
	Labels  map[string]int `json:"labels"`
}

// SaveGesture handles POST /api/save_gesture.
func (h *DatasetHandler) SaveGesture(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req saveGestureRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}

	err := h.store.Append(dataset.Example{Vector: req.Landmarks, Label: req.Label})
	switch {
	case err == nil:
	case errors.Is(err, features.ErrShape), errors.Is(err, features.ErrNonFinite):
		writeError(w, http.StatusBadRequest, CodeShape, err.Error())
		return
	case errors.Is(err, dataset.ErrInvalidLabel):
		writeError(w, http.StatusBadRequest, CodeInvalidLabel, err.Error())
		return
	default:
		log.Error().Err(err).Str("label", req.Label).Msg("saving gesture failed")
		writeError(w, http.StatusInternalServerError, CodeInternal, "saving gesture failed")
		return
	}

	h.metrics.Appended()
	log.Info().Str("label", req.Label).Msg("gesture saved")
	writeJSON(w, http.StatusOK, saveGestureResponse{
		Success: true,
		Message: fmt.Sprintf("Gesture %q saved", req.Label),
		Label:   req.Label,
	})
}

// Stats handles GET /api/dataset/stats. A store with no rows reports zero.
func (h *DatasetHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	ds, err := h.store.LoadAll()
	if err != nil && !errors.Is(err, dataset.ErrStoreMissing) {
		log.Error().Err(err).Msg("loading dataset failed")
		writeError(w, http.StatusInternalServerError, CodeInternal, err.Error())
		return
	}

	counts := map[string]int{}
	if ds != nil {
		counts = ds.Counts()
	}
	writeJSON(w, http.StatusOK, statsResponse{Success: true, Total: ds.Len(), Labels: counts})
}
