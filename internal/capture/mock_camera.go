package capture

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockCamera replays fixed frames in place of a device.
type MockCamera struct {
	frames []*gocv.Mat
	loop   bool
	cfg    Config

	mu     sync.Mutex
	open   bool
	next   int
	reads  int
	failAt int
	err    error
}

// NewMockCamera plays frames once, or forever when loop is set.
// The frames stay owned by the caller; ReadFrame hands out clones.
func NewMockCamera(frames []*gocv.Mat, loop bool) *MockCamera {
	cfg := Config{}
	if len(frames) > 0 && frames[0] != nil {
		cfg.Width, cfg.Height = frames[0].Cols(), frames[0].Rows()
	}
	return &MockCamera{frames: frames, loop: loop, cfg: cfg.withDefaults()}
}

// FailAfter makes every read after the first n return err.
func (c *MockCamera) FailAfter(n int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failAt, c.err = n, err
}

// Reads returns how many frames have been requested since creation.
func (c *MockCamera) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = true
	c.next = 0
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	return nil
}

func (c *MockCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return nil, ErrCameraNotOpen
	}
	c.reads++
	if c.err != nil && c.reads > c.failAt {
		return nil, c.err
	}

	if c.next >= len(c.frames) {
		if !c.loop || len(c.frames) == 0 {
			return nil, ErrNoFrame
		}
		c.next = 0
	}
	frame := c.frames[c.next].Clone()
	c.next++
	return &frame, nil
}

func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *MockCamera) Config() Config {
	return c.cfg
}
