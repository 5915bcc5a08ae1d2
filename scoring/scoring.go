// Package scoring turns aggregated model outputs into bounded scores and
// the one-line verdicts printed by the CLIs.
package scoring

// Vocal thresholds: a mean below the limit flags the dimension.
const (
	LowArousal   = 0.3
	LowValence   = 0.3
	LowDominance = 0.4
)

// Posture thresholds.
const (
	MaxShoulderVariance = 0.4 // above: too much sway
	MinWristMovement    = 0.4 // below: too few gestures
)

// DefaultLowPitch is the mean head pitch (degrees) under which the head is
// considered lowered.
const DefaultLowPitch = 4.0

// MaxScore is the top of every 1..5 facial score.
const MaxScore = 5

// Vocal holds the per-label means of the speech emotion model.
type Vocal struct {
	Arousal   float64 `json:"arousal"`
	Valence   float64 `json:"valence"`
	Dominance float64 `json:"dominance"`
	Segments  int     `json:"segments"`
}

// Facial holds the facial aggregates and their derived scores.
type Facial struct {
	Pitch     float64 `json:"pitch"`
	Affinity  int     `json:"affinity"`
	Tension   int     `json:"tension"`
	Stability int     `json:"stability"`
	Emotion   string  `json:"emotion"`
	Frames    int     `json:"frames"`
	Fallback  bool    `json:"fallback,omitempty"`
}

// Posture holds the body-tracking aggregates.
type Posture struct {
	ShoulderVariance float64 `json:"shoulder_variance"`
	WristMovement    float64 `json:"wrist_movement"`
	Frames           int     `json:"frames"`
}

// MapScore buckets an AU intensity into 1..5.
func MapScore(v float64) int {
	switch {
	case v > 0.75:
		return 5
	case v > 0.5:
		return 4
	case v > 0.3:
		return 3
	case v > 0.1:
		return 2
	default:
		return 1
	}
}

// MapVarianceScore buckets AU variance into 1..5, 5 being the calmest.
// NaN (too few frames for a variance) lands in the lowest bucket.
func MapVarianceScore(v float64) int {
	switch {
	case v < 0.01:
		return 5
	case v < 0.03:
		return 4
	case v < 0.06:
		return 3
	case v < 0.1:
		return 2
	default:
		return 1
	}
}

// ScoreAffinity rates smile-related units (cheek raiser, lip corner puller).
func ScoreAffinity(auMeans map[string]float64) int {
	return MapScore((auMeans["AU06"] + auMeans["AU12"]) / 2)
}

// ScoreTension rates brow lowerer and lid tightener; more tension scores lower.
func ScoreTension(auMeans map[string]float64) int {
	return MaxScore - MapScore((auMeans["AU04"]+auMeans["AU07"])/2)
}

// ScoreStability rates the mean per-unit variance; more fluctuation scores lower.
func ScoreStability(meanVariance float64) int {
	return MaxScore - MapVarianceScore(meanVariance)
}
