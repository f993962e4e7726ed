package app

import (
	"context"
	"errors"
	"time"

	"github.com/ayusman/silexa/internal/capture"
	"github.com/ayusman/silexa/internal/detector"
	"github.com/ayusman/silexa/internal/landmark"
)

// HandSource produces the hands visible in the live feed, one call per frame.
// Next returns an empty slice when there is no hand or the frame was skipped.
type HandSource interface {
	Open() error
	Next(ctx context.Context) ([]landmark.Hand, error)
	Close() error
}

// CameraSource reads camera frames, drops the ones the motion gate rejects and
// runs the detector on the rest.
type CameraSource struct {
	camera   capture.Camera
	gate     *capture.Gate
	detector detector.Detector
}

// NewCameraSource combines a camera, a motion gate and a detector.
func NewCameraSource(camera capture.Camera, gate *capture.Gate, d detector.Detector) *CameraSource {
	return &CameraSource{camera: camera, gate: gate, detector: d}
}

// Open opens the camera.
func (s *CameraSource) Open() error {
	return s.camera.Open()
}

// Next captures and analyzes one frame.
func (s *CameraSource) Next(ctx context.Context) ([]landmark.Hand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	frame, err := s.camera.ReadFrame()
	if err != nil {
		return nil, err
	}
	defer frame.Close()

	if !s.gate.Allow(frame, time.Now()) {
		return nil, nil
	}
	return s.detector.Detect(frame)
}

// Close releases the camera, the gate and the detector.
func (s *CameraSource) Close() error {
	s.gate.Close()
	return errors.Join(s.camera.Close(), s.detector.Close())
}
