// Package capture reads frames from a camera and decides which ones are worth running the detector on.
package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Default camera settings. The detector downsizes frames anyway, so a
// modest resolution keeps JPEG encoding cheap.
const (
	DefaultFPS    = 15
	DefaultWidth  = 640
	DefaultHeight = 480
)

// maxEmptyReads is how many empty frames in a row are tolerated before
// ReadFrame reports the device as lost.
const maxEmptyReads = 30

var (
	// ErrCameraNotOpen is returned when trying to read from a camera that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrNoFrame is returned when the device delivered no usable frame.
	ErrNoFrame = errors.New("no frame available")
	// ErrDeviceLost is returned once the device has stopped delivering frames.
	ErrDeviceLost = errors.New("camera stopped delivering frames")
)

// Camera is a source of video frames.
type Camera interface {
	Open() error
	Close() error
	// ReadFrame returns the next frame. The caller closes it.
	ReadFrame() (*gocv.Mat, error)
	IsOpen() bool
	Config() Config
}

// Config selects the capture device and how frames are delivered.
type Config struct {
	Device int
	FPS    int
	Width  int
	Height int
	// Mirror flips frames horizontally so the preview matches the user's movements.
	Mirror bool
}

func (c Config) withDefaults() Config {
	if c.FPS <= 0 {
		c.FPS = DefaultFPS
	}
	if c.Width <= 0 {
		c.Width = DefaultWidth
	}
	if c.Height <= 0 {
		c.Height = DefaultHeight
	}
	return c
}

// deviceCamera reads from a local capture device through OpenCV.
type deviceCamera struct {
	cfg     Config
	capture *gocv.VideoCapture
	empty   int
	mu      sync.Mutex
}

// NewCamera creates a Camera for cfg. Zero FPS, width and height take the defaults.
func NewCamera(cfg Config) Camera {
	return &deviceCamera{cfg: cfg.withDefaults()}
}

// Open opens the device and requests the configured resolution and frame rate.
// Opening an open camera is a no-op.
func (c *deviceCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture != nil {
		return nil
	}

	vc, err := gocv.OpenVideoCapture(c.cfg.Device)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", c.cfg.Device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return fmt.Errorf("open camera %d: device unavailable", c.cfg.Device)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(c.cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(c.cfg.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(c.cfg.FPS))

	c.capture = vc
	c.empty = 0
	return nil
}

// Close releases the device.
func (c *deviceCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil
	}
	err := c.capture.Close()
	c.capture = nil
	return err
}

// ReadFrame reads one frame, mirrored when configured. Sporadic empty reads
// yield ErrNoFrame; a long run of them yields ErrDeviceLost.
func (c *deviceCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		c.empty++
		if c.empty >= maxEmptyReads {
			return nil, fmt.Errorf("camera %d: %w", c.cfg.Device, ErrDeviceLost)
		}
		return nil, ErrNoFrame
	}
	c.empty = 0

	if c.cfg.Mirror {
		Mirror(&mat)
	}
	return &mat, nil
}

func (c *deviceCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capture != nil
}

func (c *deviceCamera) Config() Config {
	return c.cfg
}

// Mirror flips m around the vertical axis in place.
func Mirror(m *gocv.Mat) {
	gocv.Flip(*m, m, 1)
}
