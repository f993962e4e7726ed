// Package server provides the HTTP server of the gesture service.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ayusman/silexa/internal/announce"
	"github.com/ayusman/silexa/internal/app"
	"github.com/ayusman/silexa/internal/dataset"
	"github.com/ayusman/silexa/internal/metrics"
	"github.com/ayusman/silexa/internal/server/api"
	"github.com/ayusman/silexa/internal/store"
	"github.com/ayusman/silexa/internal/training"
)

// Config holds the server configuration. Routes are only registered for the
// collaborators that are set.
type Config struct {
	StaticDir  string
	Recognizer *app.Recognizer
	Dataset    *dataset.Store
	Pipeline   *training.Pipeline
	History    *store.Store
	Hub        *announce.Hub
	Metrics    *metrics.Metrics
	// MetricsHandler serves /metrics when non-nil.
	MetricsHandler http.Handler
}

// Server represents the HTTP server of the gesture service.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Recognizer != nil {
		s.mux.Handle("/api/predict", api.NewPredictHandler(s.config.Recognizer))
		s.mux.Handle("/api/labels", api.NewLabelsHandler(s.config.Recognizer.Handle(), s.config.Dataset))
	}

	if s.config.Dataset != nil {
		datasetHandler := api.NewDatasetHandler(s.config.Dataset, s.config.Metrics)
		s.mux.HandleFunc("/api/save_gesture", datasetHandler.SaveGesture)
		s.mux.HandleFunc("/api/dataset/stats", datasetHandler.Stats)
	}

	if s.config.Pipeline != nil {
		s.mux.Handle("/api/retrain", api.NewRetrainHandler(s.config.Pipeline))
	}

	if s.config.History != nil {
		history := api.NewHistoryHandler(s.config.History.Runs(), s.config.History.Announcements())
		s.mux.HandleFunc("/api/runs", history.Runs)
		s.mux.HandleFunc("/api/announcements", history.Announcements)
	}

	if s.config.Hub != nil {
		s.mux.Handle("/api/ws", NewAnnouncementsHandler(s.config.Hub))
	}

	if s.config.MetricsHandler != nil {
		s.mux.Handle("/metrics", s.config.MetricsHandler)
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status":       "ok",
		"uptime":       time.Since(s.start).Round(time.Second).String(),
		"model_loaded": false,
		"labels_count": 0,
	}
	if s.config.Recognizer != nil {
		if snap := s.config.Recognizer.Handle().Current(); snap != nil {
			response["model_loaded"] = true
			response["labels_count"] = len(snap.Labels)
			response["model_source"] = snap.Source
			response["model_kind"] = snap.Model.Kind()
		}
		response["sessions"] = s.config.Recognizer.Sessions().Len()
	}
	if s.config.Pipeline != nil {
		response["training"] = s.config.Pipeline.Running()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
