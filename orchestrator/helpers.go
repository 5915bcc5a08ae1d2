package orchestrator

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/interview-coach/behavior-pipeline/clients"
	"github.com/interview-coach/behavior-pipeline/scoring"
)

// Landmark indices of the 33-point body model.
const (
	leftShoulder  = 11
	rightShoulder = 12
	leftWrist     = 15
	rightWrist    = 16
)

// emotionOrder breaks ties between equal emotion means.
var emotionOrder = []string{"anger", "disgust", "fear", "happiness", "sadness", "surprise", "neutral"}

func round4(v float64) float64 { return math.Round(v*1e4) / 1e4 }

func (p *Pipeline) aggregateVocal(scores map[string][]float64, segments int) (scoring.Vocal, error) {
	means := map[string]float64{}
	for _, label := range []string{"arousal", "valence", "dominance"} {
		vals := scores[label]
		if len(vals) == 0 {
			return scoring.Vocal{}, fmt.Errorf("speech emotion: no %s scores", label)
		}
		means[label] = round4(stat.Mean(vals, nil))
	}
	return scoring.Vocal{
		Arousal:   means["arousal"],
		Valence:   means["valence"],
		Dominance: means["dominance"],
		Segments:  segments,
	}, nil
}

// columns gathers values per key across frames, skipping absent keys.
func columns(frames []clients.FaceFrame, pick func(clients.FaceFrame) map[string]float64) map[string][]float64 {
	out := map[string][]float64{}
	for _, f := range frames {
		for k, v := range pick(f) {
			if math.IsNaN(v) {
				continue
			}
			out[k] = append(out[k], v)
		}
	}
	return out
}

func means(cols map[string][]float64) map[string]float64 {
	out := make(map[string]float64, len(cols))
	for k, vals := range cols {
		out[k] = stat.Mean(vals, nil)
	}
	return out
}

// meanVariance averages the per-column sample variances. Columns with fewer
// than two values have no variance and are left out; NaN when none remain.
func meanVariance(cols map[string][]float64) float64 {
	var vars []float64
	for _, vals := range cols {
		if len(vals) < 2 {
			continue
		}
		vars = append(vars, stat.Variance(vals, nil))
	}
	if len(vars) == 0 {
		return math.NaN()
	}
	return stat.Mean(vars, nil)
}

func dominantEmotion(m map[string]float64) string {
	keys := make([]string, 0, len(m))
	seen := map[string]bool{}
	for _, k := range emotionOrder {
		if _, ok := m[k]; ok {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	var rest []string
	for k := range m {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	keys = append(keys, rest...)

	best := ""
	for _, k := range keys {
		if best == "" || m[k] > m[best] {
			best = k
		}
	}
	return best
}

// aggregateFacial reduces detector frames. ok is false when no frame had
// both action units and a head pitch.
func (p *Pipeline) aggregateFacial(frames []clients.FaceFrame) (f scoring.Facial, ok bool) {
	aus := columns(frames, func(fr clients.FaceFrame) map[string]float64 { return fr.AUs })
	poses := columns(frames, func(fr clients.FaceFrame) map[string]float64 { return fr.Poses })
	if len(aus) == 0 || len(poses["Pitch"]) == 0 {
		return scoring.Facial{}, false
	}
	auMeans := means(aus)
	emotions := means(columns(frames, func(fr clients.FaceFrame) map[string]float64 { return fr.Emotions }))

	counted := 0
	for _, fr := range frames {
		if len(fr.AUs) > 0 {
			counted++
		}
	}

	return scoring.Facial{
		Pitch:     stat.Mean(poses["Pitch"], nil),
		Affinity:  scoring.ScoreAffinity(auMeans),
		Tension:   scoring.ScoreTension(auMeans),
		Stability: scoring.ScoreStability(meanVariance(aus)),
		Emotion:   dominantEmotion(emotions),
		Frames:    counted,
	}, true
}

func midpoint(a, b clients.Landmark) Point {
	return Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

// track extracts shoulder and wrist midpoints; ok is false when the frame
// has no full body model.
func track(lms []clients.Landmark) (shoulder, wrist Point, ok bool) {
	if len(lms) <= rightWrist {
		return Point{}, Point{}, false
	}
	return midpoint(lms[leftShoulder], lms[rightShoulder]), midpoint(lms[leftWrist], lms[rightWrist]), true
}

// aggregatePosture computes the mean of the x and y population variances of
// the shoulder midpoint and the mean step length of the wrist midpoint.
func (p *Pipeline) aggregatePosture(shoulders, wrists []Point) (scoring.Posture, error) {
	if len(shoulders) < 2 || len(wrists) < 2 {
		return scoring.Posture{}, fmt.Errorf("%w: %d", ErrNoPose, len(shoulders))
	}
	xs := make([]float64, len(shoulders))
	ys := make([]float64, len(shoulders))
	for i, s := range shoulders {
		xs[i], ys[i] = s.X, s.Y
	}
	shoulderVar := (stat.PopVariance(xs, nil) + stat.PopVariance(ys, nil)) / 2

	steps := make([]float64, 0, len(wrists)-1)
	for i := 1; i < len(wrists); i++ {
		steps = append(steps, math.Hypot(wrists[i].X-wrists[i-1].X, wrists[i].Y-wrists[i-1].Y))
	}

	return scoring.Posture{
		ShoulderVariance: round4(shoulderVar),
		WristMovement:    round4(stat.Mean(steps, nil)),
		Frames:           len(shoulders),
	}, nil
}
