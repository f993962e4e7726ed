package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/silexa/internal/announce"
	"github.com/ayusman/silexa/internal/capture"
	"github.com/ayusman/silexa/internal/classifier"
	"github.com/ayusman/silexa/internal/features"
	"github.com/ayusman/silexa/internal/landmark"
	"github.com/ayusman/silexa/internal/metrics"
	"github.com/ayusman/silexa/internal/stabilizer"
	"github.com/ayusman/silexa/testdata"
)

// fakeSource replays a fixed script of frames, then reports hold (usually no hand).
type fakeSource struct {
	mu     sync.Mutex
	frames [][]landmark.Hand
	hold   []landmark.Hand
	err    error
	opened int
	closed int
}

func (s *fakeSource) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened++
	return nil
}

func (s *fakeSource) Next(context.Context) ([]landmark.Hand, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if len(s.frames) == 0 {
		return s.hold, nil
	}
	f := s.frames[0]
	s.frames = s.frames[1:]
	return f, nil
}

func (s *fakeSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

type recordingAnnouncer struct {
	mu     sync.Mutex
	events []announce.Event
}

func (r *recordingAnnouncer) Announce(_ context.Context, e announce.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingAnnouncer) Labels() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		out = append(out, e.Label)
	}
	return out
}

func trainedHandle(t *testing.T) *classifier.Handle {
	t.Helper()
	p := classifier.DefaultParams()
	p.Kind = classifier.KindCentroid
	m, _, labels, err := classifier.Train(context.Background(), testdata.Dataset(20, 7), p)
	require.NoError(t, err)

	h := classifier.NewHandle()
	h.Swap(m, labels, "test")
	return h
}

func newRecognizer(t *testing.T, h *classifier.Handle, policy stabilizer.Policy) (*Recognizer, *recordingAnnouncer, *metrics.Metrics) {
	t.Helper()
	ann := &recordingAnnouncer{}
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	return NewRecognizer(h, stabilizer.NewRegistry(2*time.Second, policy), ann, m), ann, m
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, CodeShape, ErrorCode(features.Validate(make([]float64, 3))))
	assert.Equal(t, CodeShape, ErrorCode(features.ErrNonFinite))
	assert.Equal(t, CodeModelUnavailable, ErrorCode(classifier.ErrModelUnavailable))
	assert.Equal(t, CodeInternal, ErrorCode(errors.New("boom")))
}

func TestRecognizer_AnnouncesOncePerHeldGesture(t *testing.T) {
	r, ann, m := newRecognizer(t, trainedHandle(t), stabilizer.PolicyBoth)
	ctx := context.Background()
	t0 := time.Unix(1000, 0)

	for i := 0; i < 10; i++ {
		out, err := r.Recognize(ctx, "s1", testdata.Vector("fist"), t0.Add(time.Duration(i)*500*time.Millisecond))
		require.NoError(t, err)
		assert.Equal(t, "fist", out.Label)
		assert.Equal(t, "s1", out.Session)
		assert.Equal(t, i == 0, out.Announce, "frame %d", i)
	}
	assert.Equal(t, []string{"fist"}, ann.Labels())

	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, "fist", last.Label)
	assert.False(t, last.Probabilistic, "centroid models are hard-decision")
	assert.Equal(t, classifier.FallbackConfidence, last.Confidence)

	assert.Equal(t, 10.0, testutil.ToFloat64(m.Predictions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Announcements))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveSessions))
}

func TestRecognizer_ChangeNeedsCooldown(t *testing.T) {
	r, ann, _ := newRecognizer(t, trainedHandle(t), stabilizer.PolicyBoth)
	ctx := context.Background()
	t0 := time.Unix(1000, 0)

	steps := []struct {
		label string
		at    time.Duration
		want  bool
	}{
		{"fist", 0, true},
		{"open_palm", time.Second, false},
		{"open_palm", 3 * time.Second, true},
		{"thumbs_up", 4 * time.Second, false},
		{"thumbs_up", 5500 * time.Millisecond, true},
	}
	for _, s := range steps {
		out, err := r.Recognize(ctx, "s1", testdata.Vector(s.label), t0.Add(s.at))
		require.NoError(t, err)
		assert.Equal(t, s.want, out.Announce, "%s at %s", s.label, s.at)
	}
	assert.Equal(t, []string{"fist", "open_palm", "thumbs_up"}, ann.Labels())
}

func TestRecognizer_SessionsAreIndependent(t *testing.T) {
	r, ann, _ := newRecognizer(t, trainedHandle(t), stabilizer.PolicyBoth)
	ctx := context.Background()
	now := time.Unix(1000, 0)

	for _, s := range []string{"a", "b"} {
		out, err := r.Recognize(ctx, s, testdata.Vector("fist"), now)
		require.NoError(t, err)
		assert.True(t, out.Announce, s)
	}
	assert.Len(t, ann.Labels(), 2)
	assert.Equal(t, 2, r.Sweep(now.Add(time.Hour), time.Minute))
	assert.Equal(t, 0, r.Sessions().Len())
}

func TestRecognizer_Errors(t *testing.T) {
	r, ann, m := newRecognizer(t, classifier.NewHandle(), stabilizer.PolicyBoth)
	ctx := context.Background()

	_, err := r.Recognize(ctx, "s1", make(features.Vector, 10), time.Now())
	assert.ErrorIs(t, err, features.ErrShape)

	_, err = r.Recognize(ctx, "s1", testdata.Vector("fist"), time.Now())
	assert.ErrorIs(t, err, classifier.ErrModelUnavailable)

	assert.Empty(t, ann.Labels())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PredictionFailures.WithLabelValues(CodeShape)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PredictionFailures.WithLabelValues(CodeModelUnavailable)))
	_, ok := r.Last()
	assert.False(t, ok)
}

func TestApp_Step(t *testing.T) {
	r, ann, _ := newRecognizer(t, trainedHandle(t), stabilizer.PolicyBoth)
	src := &fakeSource{frames: [][]landmark.Hand{
		nil,
		{landmark.ThumbsUp(), landmark.Fist()},
		{landmark.ThumbsUp()},
	}}
	a := New(Config{Source: src, Recognizer: r})
	assert.Equal(t, DefaultSession, a.Session())

	out, err := a.Step(context.Background())
	require.NoError(t, err)
	assert.Nil(t, out, "no hand")

	out, err = a.Step(context.Background())
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "thumbs_up", out.Label, "first hand wins")
	assert.True(t, out.Announce)

	out, err = a.Step(context.Background())
	require.NoError(t, err)
	assert.False(t, out.Announce)

	assert.Equal(t, []string{"thumbs_up"}, ann.Labels())
}

func TestApp_StepSourceError(t *testing.T) {
	r, _, _ := newRecognizer(t, trainedHandle(t), stabilizer.PolicyBoth)
	a := New(Config{Source: &fakeSource{err: capture.ErrNoFrame}, Recognizer: r})

	_, err := a.Step(context.Background())
	assert.ErrorIs(t, err, capture.ErrNoFrame)
}

func TestApp_ReopensLostSource(t *testing.T) {
	r, _, _ := newRecognizer(t, trainedHandle(t), stabilizer.PolicyBoth)
	src := &fakeSource{err: capture.ErrDeviceLost}
	a := New(Config{Source: src, Recognizer: r, Interval: 5 * time.Millisecond})

	require.NoError(t, a.Start(context.Background()))
	require.Eventually(t, func() bool {
		src.mu.Lock()
		defer src.mu.Unlock()
		return src.opened >= 2 && src.closed >= 1
	}, 2*time.Second, 5*time.Millisecond)
	a.Stop()
}

func TestApp_StepWhileRunning(t *testing.T) {
	h := classifier.NewHandle()
	r, ann, _ := newRecognizer(t, h, stabilizer.PolicyBoth)
	src := &fakeSource{hold: []landmark.Hand{landmark.Fist()}}
	a := New(Config{Source: src, Recognizer: r, Interval: time.Millisecond})

	require.NoError(t, a.Start(context.Background()))
	defer a.Stop()

	trained := trainedHandle(t).Current()
	for i := 0; i < 50; i++ {
		if i == 25 {
			h.Swap(trained.Model, trained.Labels, "test")
		}
		_, err := a.Step(context.Background())
		if i < 25 {
			assert.ErrorIs(t, err, classifier.ErrModelUnavailable)
		} else {
			assert.NoError(t, err)
		}
		time.Sleep(time.Millisecond)
	}

	assert.Equal(t, []string{"fist"}, ann.Labels())
}

func TestApp_StartStop(t *testing.T) {
	r, ann, _ := newRecognizer(t, trainedHandle(t), stabilizer.PolicyBoth)
	src := &fakeSource{frames: [][]landmark.Hand{{landmark.OpenPalm()}, {landmark.OpenPalm()}}}
	a := New(Config{Source: src, Recognizer: r, Session: "cam-0", Interval: 5 * time.Millisecond})

	require.NoError(t, a.Start(context.Background()))
	require.NoError(t, a.Start(context.Background()), "second Start is a no-op")
	assert.True(t, a.Running())

	require.Eventually(t, func() bool { return len(ann.Labels()) == 1 }, 2*time.Second, 5*time.Millisecond)

	a.Stop()
	a.Stop()
	assert.False(t, a.Running())
	assert.Equal(t, 1, src.opened)
	assert.Equal(t, 1, src.closed)

	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, "cam-0", last.Session)
	assert.Equal(t, "open_palm", last.Label)
}

func TestApp_Disabled(t *testing.T) {
	r, ann, _ := newRecognizer(t, trainedHandle(t), stabilizer.PolicyBoth)
	src := &fakeSource{frames: [][]landmark.Hand{{landmark.Fist()}}}
	a := New(Config{Source: src, Recognizer: r, Interval: 2 * time.Millisecond})
	a.SetEnabled(false)
	assert.False(t, a.IsEnabled())

	require.NoError(t, a.Start(context.Background()))
	time.Sleep(30 * time.Millisecond)
	a.Stop()

	assert.Empty(t, ann.Labels())
	src.mu.Lock()
	assert.Len(t, src.frames, 1, "disabled session must not consume frames")
	src.mu.Unlock()
}
