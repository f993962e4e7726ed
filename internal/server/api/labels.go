package api

import (
	"errors"
	"net/http"

	"github.com/ayusman/silexa/internal/classifier"
	"github.com/ayusman/silexa/internal/dataset"
)

// LabelsHandler lists the labels the active model knows and those in the dataset.
type LabelsHandler struct {
	handle *classifier.Handle
	store  *dataset.Store
}

// NewLabelsHandler creates a LabelsHandler. s may be nil.
func NewLabelsHandler(h *classifier.Handle, s *dataset.Store) *LabelsHandler {
	return &LabelsHandler{handle: h, store: s}
}

type labelsResponse struct {
	Success       bool     `json:"success"`
	ModelLoaded   bool     `json:"model_loaded"`
	Labels        []string `json:"labels"`
	DatasetLabels []string `json:"dataset_labels"`
}

// ServeHTTP handles GET /api/labels.
func (h *LabelsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	resp := labelsResponse{
		Success:       true,
		ModelLoaded:   h.handle.Ready(),
		Labels:        h.handle.Labels(),
		DatasetLabels: []string{},
	}
	if resp.Labels == nil {
		resp.Labels = []string{}
	}
	if h.store != nil {
		labels, err := h.store.Labels()
		switch {
		case err == nil:
			resp.DatasetLabels = labels
		case errors.Is(err, dataset.ErrStoreMissing):
		default:
			writeError(w, http.StatusInternalServerError, CodeInternal, err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
