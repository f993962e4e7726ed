// Package landmark defines the hand keypoint types shared by the detector and the feature pipeline.
package landmark

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist     = 0
	ThumbCMC  = 1
	ThumbMCP  = 2
	ThumbIP   = 3
	ThumbTip  = 4
	IndexMCP  = 5
	IndexPIP  = 6
	IndexDIP  = 7
	IndexTip  = 8
	MiddleMCP = 9
	MiddlePIP = 10
	MiddleDIP = 11
	MiddleTip = 12
	RingMCP   = 13
	RingPIP   = 14
	RingDIP   = 15
	RingTip   = 16
	PinkyMCP  = 17
	PinkyPIP  = 18
	PinkyDIP  = 19
	PinkyTip  = 20

	// Count is the number of keypoints in one hand skeleton.
	Count = 21
)

// Point is a detected keypoint. X and Y are normalized image coordinates
// (usually within [0,1] but never range-checked); Z is relative depth.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Hand is the full skeleton of one detected hand in one frame.
type Hand struct {
	Points     [Count]Point `json:"points"`
	Handedness string       `json:"handedness"` // "Left" or "Right"
	Score      float64      `json:"score"`
}

// Slice returns the points as a slice in landmark index order.
func (h *Hand) Slice() []Point {
	if h == nil {
		return nil
	}
	out := make([]Point, Count)
	copy(out, h.Points[:])
	return out
}

// Shift returns a copy of the hand translated by (dx, dy) in image space.
func (h Hand) Shift(dx, dy float64) Hand {
	for i := range h.Points {
		h.Points[i].X += dx
		h.Points[i].Y += dy
	}
	return h
}
