package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle state of a training run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
	RunCanceled  RunStatus = "canceled"
)

// Run records one training pipeline execution.
type Run struct {
	ID           string     `json:"id"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	Status       RunStatus  `json:"status"`
	Error        string     `json:"error,omitempty"`
	Accuracy     float64    `json:"accuracy"`
	TotalSamples int        `json:"total_samples"`
	Labels       []string   `json:"labels"`
	ArtifactPath string     `json:"artifact_path,omitempty"`
	ModelKind    string     `json:"model_kind,omitempty"`
}

// RunRepository provides access to the training run history.
type RunRepository struct {
	db *sql.DB
}

// Runs returns the training run repository for this store.
func (s *Store) Runs() *RunRepository {
	return &RunRepository{db: s.db}
}

// Create inserts r as a running run. An empty ID is replaced with a new UUID.
func (r *RunRepository) Create(run *Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	run.Status = RunRunning

	labels, err := json.Marshal(nonNil(run.Labels))
	if err != nil {
		return err
	}
	_, err = r.db.Exec(
		`INSERT INTO training_runs (id, started_at, status, labels, artifact_path, model_kind)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt, string(run.Status), string(labels), run.ArtifactPath, run.ModelKind,
	)
	return err
}

// Finish stores the outcome of run and stamps its finish time.
func (r *RunRepository) Finish(run *Run) error {
	now := time.Now().UTC()
	run.FinishedAt = &now

	labels, err := json.Marshal(nonNil(run.Labels))
	if err != nil {
		return err
	}
	result, err := r.db.Exec(
		`UPDATE training_runs
		 SET finished_at = ?, status = ?, error = ?, accuracy = ?, total_samples = ?, labels = ?
		 WHERE id = ?`,
		now, string(run.Status), run.Error, run.Accuracy, run.TotalSamples, string(labels), run.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

const runColumns = `id, started_at, finished_at, status, error, accuracy, total_samples, labels, artifact_path, model_kind`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	run := &Run{}
	var (
		finished sql.NullTime
		status   string
		labels   string
	)
	err := row.Scan(&run.ID, &run.StartedAt, &finished, &status, &run.Error,
		&run.Accuracy, &run.TotalSamples, &labels, &run.ArtifactPath, &run.ModelKind)
	if err != nil {
		return nil, err
	}
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	run.Status = RunStatus(status)
	if err := json.Unmarshal([]byte(labels), &run.Labels); err != nil {
		return nil, err
	}
	return run, nil
}

// GetByID retrieves a run by its ID.
func (r *RunRepository) GetByID(id string) (*Run, error) {
	run, err := scanRun(r.db.QueryRow(`SELECT `+runColumns+` FROM training_runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return run, err
}

// Latest returns the most recently started run.
func (r *RunRepository) Latest() (*Run, error) {
	run, err := scanRun(r.db.QueryRow(`SELECT ` + runColumns + ` FROM training_runs ORDER BY rowid DESC LIMIT 1`))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return run, err
}

// List returns up to limit runs, newest first. A non-positive limit returns all runs.
func (r *RunRepository) List(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.Query(`SELECT `+runColumns+` FROM training_runs ORDER BY rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

func nonNil(labels []string) []string {
	if labels == nil {
		return []string{}
	}
	return labels
}
