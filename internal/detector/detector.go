// Package detector finds hand skeletons in camera frames.
package detector

import (
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/silexa/internal/landmark"
)

// Detector defines the interface for hand detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns detected hand landmarks.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]landmark.Hand, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// Script is the path of the landmark service script. Empty searches the usual locations.
	Script string

	// Python is the interpreter used to run Script. Empty prefers a local venv, then python3.
	Python string

	// MaxHands is the maximum number of hands to detect.
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// IdleTimeout stops the service after this long without frames. Zero keeps it running.
	IdleTimeout time.Duration
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        1,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
		IdleTimeout:     30 * time.Second,
	}
}

// Primary returns the hand the classifier should look at: the first one reported.
func Primary(hands []landmark.Hand) (landmark.Hand, bool) {
	if len(hands) == 0 {
		return landmark.Hand{}, false
	}
	return hands[0], true
}
