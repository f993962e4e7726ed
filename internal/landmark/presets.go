package landmark

// Preset hands are hand-tuned right-hand skeletons used by the mock detector
// and by synthetic training fixtures.

// ThumbsUp returns a hand with the thumb extended upward and the other fingers curled.
func ThumbsUp() Hand {
	return preset([Count][3]float64{
		{0.50, 0.80, 0.00},
		{0.55, 0.75, 0.00}, {0.58, 0.65, 0.00}, {0.58, 0.50, 0.00}, {0.58, 0.35, 0.00},
		{0.55, 0.70, -0.02}, {0.55, 0.68, -0.05}, {0.52, 0.70, -0.04}, {0.50, 0.72, -0.02},
		{0.50, 0.68, -0.02}, {0.50, 0.66, -0.05}, {0.47, 0.68, -0.04}, {0.45, 0.70, -0.02},
		{0.45, 0.70, -0.02}, {0.45, 0.68, -0.05}, {0.42, 0.70, -0.04}, {0.40, 0.72, -0.02},
		{0.40, 0.72, -0.02}, {0.40, 0.70, -0.05}, {0.37, 0.72, -0.04}, {0.35, 0.74, -0.02},
	})
}

// OpenPalm returns a hand with all five fingers extended.
func OpenPalm() Hand {
	return preset([Count][3]float64{
		{0.50, 0.80, 0.00},
		{0.55, 0.75, 0.02}, {0.62, 0.70, 0.03}, {0.68, 0.65, 0.03}, {0.73, 0.60, 0.03},
		{0.55, 0.68, 0.00}, {0.57, 0.55, 0.00}, {0.58, 0.45, 0.00}, {0.58, 0.35, 0.00},
		{0.50, 0.66, 0.00}, {0.50, 0.52, 0.00}, {0.50, 0.40, 0.00}, {0.50, 0.28, 0.00},
		{0.45, 0.68, 0.00}, {0.43, 0.55, 0.00}, {0.42, 0.45, 0.00}, {0.42, 0.35, 0.00},
		{0.40, 0.70, 0.00}, {0.37, 0.60, 0.00}, {0.35, 0.50, 0.00}, {0.34, 0.42, 0.00},
	})
}

// Fist returns a closed hand with the thumb folded across the fingers.
func Fist() Hand {
	return preset([Count][3]float64{
		{0.50, 0.80, 0.00},
		{0.55, 0.76, 0.00}, {0.57, 0.71, -0.01}, {0.54, 0.68, -0.03}, {0.50, 0.67, -0.04},
		{0.55, 0.68, -0.02}, {0.56, 0.63, -0.05}, {0.54, 0.66, -0.06}, {0.53, 0.69, -0.05},
		{0.50, 0.67, -0.02}, {0.51, 0.62, -0.05}, {0.49, 0.65, -0.06}, {0.48, 0.68, -0.05},
		{0.45, 0.68, -0.02}, {0.46, 0.63, -0.05}, {0.44, 0.66, -0.06}, {0.44, 0.69, -0.05},
		{0.41, 0.70, -0.02}, {0.41, 0.66, -0.04}, {0.40, 0.68, -0.05}, {0.40, 0.71, -0.04},
	})
}

func preset(pts [Count][3]float64) Hand {
	h := Hand{Handedness: "Right", Score: 0.95}
	for i, p := range pts {
		h.Points[i] = Point{X: p[0], Y: p[1], Z: p[2]}
	}
	return h
}
