package capture

import (
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

const (
	// analysisWidth is the width frames are shrunk to before differencing.
	analysisWidth = 160
	// blurKernel smooths sensor noise out of the shrunken frame.
	blurKernel = 5
	// pixelDelta is the grey-level change that marks a pixel as moved.
	pixelDelta = 25
)

// MotionDetector scores how much of the picture changed since the previous frame.
// Working buffers are kept between calls; Close releases them.
type MotionDetector struct {
	threshold float64

	mu       sync.Mutex
	gray     gocv.Mat
	small    gocv.Mat
	current  gocv.Mat
	baseline gocv.Mat
	diff     gocv.Mat
	ready    bool
	hasBase  bool
}

// NewMotionDetector returns a detector that reports motion when more than
// threshold percent of the pixels changed.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{threshold: threshold}
}

func (m *MotionDetector) alloc() {
	if m.ready {
		return
	}
	m.gray, m.small, m.current = gocv.NewMat(), gocv.NewMat(), gocv.NewMat()
	m.baseline, m.diff = gocv.NewMat(), gocv.NewMat()
	m.ready = true
}

// Detect compares frame with the previous one and returns whether it moved
// and the changed share in percent. The first frame, and any frame whose
// size differs from the baseline, only sets a new baseline.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	if frame == nil || frame.Empty() {
		return false, 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.alloc()

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &m.gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&m.gray)
	}

	src := m.gray
	if w := m.gray.Cols(); w > analysisWidth {
		h := m.gray.Rows() * analysisWidth / w
		gocv.Resize(m.gray, &m.small, image.Pt(analysisWidth, max(h, 1)), 0, 0, gocv.InterpolationArea)
		src = m.small
	}
	gocv.GaussianBlur(src, &m.current, image.Pt(blurKernel, blurKernel), 0, 0, gocv.BorderDefault)

	if !m.hasBase || m.baseline.Rows() != m.current.Rows() || m.baseline.Cols() != m.current.Cols() {
		m.current.CopyTo(&m.baseline)
		m.hasBase = true
		return false, 0
	}

	gocv.AbsDiff(m.current, m.baseline, &m.diff)
	gocv.Threshold(m.diff, &m.diff, pixelDelta, 255, gocv.ThresholdBinary)
	changed := 100 * float64(gocv.CountNonZero(m.diff)) / float64(m.diff.Rows()*m.diff.Cols())

	m.current.CopyTo(&m.baseline)
	return changed > m.threshold, changed
}

// Reset forgets the baseline, so the next frame starts a new comparison.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hasBase = false
}

// Close releases the working buffers. The detector can be used again afterwards.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ready {
		return
	}
	for _, mat := range []*gocv.Mat{&m.gray, &m.small, &m.current, &m.baseline, &m.diff} {
		mat.Close()
	}
	m.ready = false
	m.hasBase = false
}

// SetThreshold changes the motion threshold. Non-positive values are ignored.
func (m *MotionDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threshold = threshold
}

// Gate decides whether a frame should go to the hand detector.
//
// A sign is often held still, so after any motion the gate stays open for
// the hold period instead of closing on the next static frame.
type Gate struct {
	motion     *MotionDetector
	hold       time.Duration
	lastMotion time.Time
}

// NewGate returns a gate with the given motion threshold and hold period.
// A non-positive threshold disables gating: every frame passes.
func NewGate(threshold float64, hold time.Duration) *Gate {
	g := &Gate{hold: hold}
	if threshold > 0 {
		g.motion = NewMotionDetector(threshold)
	}
	return g
}

// Allow reports whether frame, captured at now, should be analyzed.
func (g *Gate) Allow(frame *gocv.Mat, now time.Time) bool {
	if g.motion == nil {
		return true
	}
	if moved, _ := g.motion.Detect(frame); moved {
		g.lastMotion = now
		return true
	}
	return !g.lastMotion.IsZero() && now.Sub(g.lastMotion) <= g.hold
}

// Close releases the gate's motion detector.
func (g *Gate) Close() {
	if g.motion != nil {
		g.motion.Close()
	}
}
