package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/ayusman/silexa/internal/classifier"
	"github.com/ayusman/silexa/internal/dataset"
	"github.com/ayusman/silexa/internal/training"
)

// RetrainHandler starts and cancels training runs.
type RetrainHandler struct {
	pipeline *training.Pipeline
}

// NewRetrainHandler creates a RetrainHandler for p.
func NewRetrainHandler(p *training.Pipeline) *RetrainHandler {
	return &RetrainHandler{pipeline: p}
}

type retrainResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	*training.Result
}

type cancelResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ServeHTTP handles POST (run) and DELETE (cancel) on /api/retrain.
func (h *RetrainHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.run(w, r)
	case http.MethodDelete:
		h.cancel(w)
	default:
		methodNotAllowed(w, http.MethodPost, http.MethodDelete)
	}
}

// run trains synchronously. The run is detached from the request so a client
// disconnect does not abort it; DELETE /api/retrain does.
func (h *RetrainHandler) run(w http.ResponseWriter, r *http.Request) {
	res, err := h.pipeline.Run(context.WithoutCancel(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, training.ErrRunInProgress):
			writeError(w, http.StatusConflict, CodeRunInProgress, err.Error())
		case errors.Is(err, classifier.ErrInsufficientData), errors.Is(err, dataset.ErrStoreMissing):
			writeError(w, http.StatusUnprocessableEntity, CodeInsufficientData, err.Error())
		case errors.Is(err, context.Canceled):
			writeError(w, http.StatusConflict, CodeCanceled, "training run was canceled")
		default:
			log.Error().Err(err).Msg("retrain failed")
			writeError(w, http.StatusInternalServerError, CodeInternal, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, retrainResponse{
		Success: true,
		Message: "Model retrained successfully",
		Result:  res,
	})
}

func (h *RetrainHandler) cancel(w http.ResponseWriter) {
	if !h.pipeline.Cancel() {
		writeError(w, http.StatusConflict, CodeNoRun, "no training run in progress")
		return
	}
	writeJSON(w, http.StatusAccepted, cancelResponse{Success: true, Message: "cancellation requested"})
}
