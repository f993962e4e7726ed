// Package client is a Go client for the gesture service HTTP API.
package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ayusman/silexa/internal/app"
	"github.com/ayusman/silexa/internal/store"
	"github.com/ayusman/silexa/internal/training"
)

// DefaultTimeout bounds requests other than retrain.
const DefaultTimeout = 10 * time.Second

// APIError is a non-2xx answer of the service.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("silexa: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("silexa: %s: %s", e.Code, e.Message)
}

// Labels is the answer of GET /api/labels.
type Labels struct {
	ModelLoaded   bool     `json:"model_loaded"`
	Labels        []string `json:"labels"`
	DatasetLabels []string `json:"dataset_labels"`
}

// Stats is the answer of GET /api/dataset/stats.
type Stats struct {
	Total  int            `json:"total"`
	Labels map[string]int `json:"labels"`
}

// Health is the answer of GET /api/health.
type Health struct {
	Status      string `json:"status"`
	Uptime      string `json:"uptime"`
	ModelLoaded bool   `json:"model_loaded"`
	LabelsCount int    `json:"labels_count"`
	ModelSource string `json:"model_source"`
	ModelKind   string `json:"model_kind"`
	Sessions    int    `json:"sessions"`
	Training    bool   `json:"training"`
}

// Client talks to one service instance.
type Client struct {
	base string
	rest *resty.Client
}

// New returns a client for the service at base, e.g. "http://localhost:8080".
// A non-positive timeout uses DefaultTimeout.
func New(base string, timeout time.Duration) *Client {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(DefaultTimeout)
	}
	r.SetHeader("Accept", "application/json")
	return &Client{base: base, rest: r}
}

// WithHTTPClient makes the client send requests through hc, e.g. an httptest server's client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.rest = resty.NewWithClient(hc).SetHeader("Accept", "application/json")
	return c
}

// Health reports the service status.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	out := &Health{}
	return out, c.do(ctx, http.MethodGet, "/api/health", nil, out)
}

// Predict classifies one landmark vector within session. An empty session lets the server pick one.
func (c *Client) Predict(ctx context.Context, session string, landmarks []float64) (*app.Outcome, error) {
	body := map[string]any{"landmarks": landmarks}
	if session != "" {
		body["session"] = session
	}
	out := &app.Outcome{}
	return out, c.do(ctx, http.MethodPost, "/api/predict", body, out)
}

// SaveGesture appends a labeled example to the dataset.
func (c *Client) SaveGesture(ctx context.Context, label string, landmarks []float64) error {
	body := map[string]any{"label": label, "landmarks": landmarks}
	return c.do(ctx, http.MethodPost, "/api/save_gesture", body, nil)
}

// Stats returns the per-label dataset counts.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	out := &Stats{}
	return out, c.do(ctx, http.MethodGet, "/api/dataset/stats", nil, out)
}

// Labels returns the labels of the active model and of the dataset.
func (c *Client) Labels(ctx context.Context) (*Labels, error) {
	out := &Labels{}
	return out, c.do(ctx, http.MethodGet, "/api/labels", nil, out)
}

// Retrain trains a new model and waits for the run to finish. Bound the wait with ctx.
func (c *Client) Retrain(ctx context.Context) (*training.Result, error) {
	out := &training.Result{}
	return out, c.do(ctx, http.MethodPost, "/api/retrain", nil, out)
}

// CancelRetrain asks the active training run to stop.
func (c *Client) CancelRetrain(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/retrain", nil, nil)
}

// Runs lists the most recent training runs.
func (c *Client) Runs(ctx context.Context, limit int) ([]*store.Run, error) {
	var out struct {
		Runs []*store.Run `json:"runs"`
	}
	err := c.do(ctx, http.MethodGet, "/api/runs"+limitQuery(limit), nil, &out)
	return out.Runs, err
}

// Announcements lists the most recent announcements.
func (c *Client) Announcements(ctx context.Context, limit int) ([]*store.Announcement, error) {
	var out struct {
		Announcements []*store.Announcement `json:"announcements"`
	}
	err := c.do(ctx, http.MethodGet, "/api/announcements"+limitQuery(limit), nil, &out)
	return out.Announcements, err
}

func limitQuery(limit int) string {
	if limit <= 0 {
		return ""
	}
	return "?limit=" + strconv.Itoa(limit)
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	apiErr := &APIError{}
	req := c.rest.R().SetContext(ctx).SetError(apiErr)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Execute(method, c.base+path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		apiErr.Status = resp.StatusCode()
		if apiErr.Message == "" {
			apiErr.Message = resp.Status()
		}
		return apiErr
	}
	return nil
}
