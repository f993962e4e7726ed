package api

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ayusman/silexa/internal/app"
	"github.com/ayusman/silexa/internal/features"
)

// WebSession is the stabilizer session shared by predict calls that name no session.
const WebSession = "web"

// PredictHandler classifies landmark vectors sent by browser clients.
type PredictHandler struct {
	recognizer *app.Recognizer
}

// NewPredictHandler creates a PredictHandler backed by r.
func NewPredictHandler(r *app.Recognizer) *PredictHandler {
	return &PredictHandler{recognizer: r}
}

type predictRequest struct {
	Landmarks []float64 `json:"landmarks"`
	Session   string    `json:"session"`
}

type predictResponse struct {
	Success bool `json:"success"`
	*app.Outcome
}

// ServeHTTP handles POST /api/predict.
func (h *PredictHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req predictRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}
	if req.Session == "" {
		req.Session = WebSession
	}

	out, err := h.recognizer.Recognize(r.Context(), req.Session, features.Vector(req.Landmarks), time.Now())
	if err != nil {
		switch code := app.ErrorCode(err); code {
		case app.CodeShape:
			writeError(w, http.StatusBadRequest, CodeShape, err.Error())
		case app.CodeModelUnavailable:
			writeError(w, http.StatusServiceUnavailable, CodeModelUnavailable, "no model loaded, train one first")
		default:
			log.Error().Err(err).Str("session", req.Session).Msg("prediction failed")
			writeError(w, http.StatusInternalServerError, CodeInternal, "prediction failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, predictResponse{Success: true, Outcome: out})
}
