// Package training rebuilds the gesture model from the dataset and installs
// it without restarting the service.
package training

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ayusman/silexa/internal/classifier"
	"github.com/ayusman/silexa/internal/dataset"
	"github.com/ayusman/silexa/internal/metrics"
	"github.com/ayusman/silexa/internal/store"
)

// ErrRunInProgress is returned by Run while another run is active.
var ErrRunInProgress = errors.New("training run already in progress")

// RunRecorder persists the history of runs. *store.RunRepository implements it.
type RunRecorder interface {
	Create(run *store.Run) error
	Finish(run *store.Run) error
}

// Config wires the pipeline to its collaborators. Runs and Metrics are optional.
type Config struct {
	Dataset      *dataset.Store
	Handle       *classifier.Handle
	ArtifactPath string
	Params       classifier.Params
	Runs         RunRecorder
	Metrics      *metrics.Metrics
}

// Result describes a successful run.
type Result struct {
	RunID        string            `json:"run_id"`
	Kind         string            `json:"model_kind"`
	Accuracy     float64           `json:"accuracy"`
	TotalSamples int               `json:"total_samples"`
	TrainRows    int               `json:"train_samples"`
	TestRows     int               `json:"test_samples"`
	Labels       []string          `json:"labels"`
	Report       classifier.Report `json:"report"`
	Duration     time.Duration     `json:"duration"`
}

// Pipeline runs at most one training job at a time.
type Pipeline struct {
	cfg Config

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	last    *Result
}

// New returns a pipeline for cfg.
func New(cfg Config) *Pipeline {
	return &Pipeline{cfg: cfg}
}

// Run loads the dataset, trains, persists the artifact and swaps the handle,
// in that order. Any failure leaves the artifact on disk and the active model
// exactly as they were.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil, ErrRunInProgress
	}
	p.running = true
	p.cancel = cancel
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.running = false
		p.cancel = nil
		p.mu.Unlock()
	}()

	start := time.Now()
	run := &store.Run{ID: uuid.NewString(), ArtifactPath: p.cfg.ArtifactPath, ModelKind: p.kind()}
	p.record(run, (RunRecorder).Create)

	logger := log.With().Str("run", run.ID).Logger()
	logger.Info().Str("kind", run.ModelKind).Msg("training started")

	res, err := p.train(ctx, run.ID)
	elapsed := time.Since(start)

	if err != nil {
		run.Status = store.RunFailed
		if errors.Is(err, context.Canceled) {
			run.Status = store.RunCanceled
		}
		run.Error = err.Error()
		p.record(run, (RunRecorder).Finish)
		p.cfg.Metrics.TrainingFinished(string(run.Status), elapsed, 0)
		logger.Warn().Err(err).Str("status", string(run.Status)).Dur("duration", elapsed).Msg("training did not complete")
		return nil, err
	}

	res.Duration = elapsed
	run.Status = store.RunSucceeded
	run.Accuracy = res.Accuracy
	run.TotalSamples = res.TotalSamples
	run.Labels = res.Labels
	p.record(run, (RunRecorder).Finish)
	p.cfg.Metrics.TrainingFinished(string(run.Status), elapsed, res.Accuracy)
	p.cfg.Metrics.SetModelLoaded(true)

	p.mu.Lock()
	p.last = res
	p.mu.Unlock()

	logger.Info().
		Float64("accuracy", res.Accuracy).
		Int("samples", res.TotalSamples).
		Strs("labels", res.Labels).
		Dur("duration", elapsed).
		Msg("training finished")
	return res, nil
}

func (p *Pipeline) train(ctx context.Context, runID string) (*Result, error) {
	ds, err := p.cfg.Dataset.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}

	fit, err := classifier.Fit(ctx, ds, p.cfg.Params)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}

	// Persisting is the last step that can fail before the swap.
	if err := classifier.Save(p.cfg.ArtifactPath, fit.Model); err != nil {
		return nil, fmt.Errorf("save model: %w", err)
	}
	p.cfg.Handle.Swap(fit.Model, fit.Labels, runID)

	return &Result{
		RunID:        runID,
		Kind:         fit.Model.Kind(),
		Accuracy:     fit.Accuracy,
		TotalSamples: ds.Len(),
		TrainRows:    fit.TrainRows,
		TestRows:     fit.TestRows,
		Labels:       fit.Labels,
		Report:       fit.Report,
	}, nil
}

// record writes run history. History is best effort and never fails a run.
func (p *Pipeline) record(run *store.Run, op func(RunRecorder, *store.Run) error) {
	if p.cfg.Runs == nil {
		return
	}
	if err := op(p.cfg.Runs, run); err != nil {
		log.Error().Err(err).Str("run", run.ID).Msg("failed to record training run")
	}
}

func (p *Pipeline) kind() string {
	if p.cfg.Params.Kind == "" {
		return classifier.KindForest
	}
	return p.cfg.Params.Kind
}

// Cancel aborts the active run and reports whether one was active.
func (p *Pipeline) Cancel() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel == nil {
		return false
	}
	p.cancel()
	return true
}

// Running reports whether a run is active.
func (p *Pipeline) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Last returns the most recent successful result, or nil.
func (p *Pipeline) Last() *Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}
