package orchestrator

import (
	"errors"
	"time"

	"github.com/interview-coach/behavior-pipeline/scoring"
)

type Modality string

const (
	ModalityVocal   Modality = "vocal"
	ModalityFacial  Modality = "facial"
	ModalityPosture Modality = "posture"
	ModalityAll     Modality = "all"
)

var (
	ErrFileNotFound = errors.New("input file not found")
	ErrNoSegments   = errors.New("no audio to analyze")
	ErrNoPose       = errors.New("too few frames with a tracked body")
)

// Point is a normalized image coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Result is one pipeline invocation. Only the aggregates of the modalities
// that ran are set.
type Result struct {
	RunID      string           `json:"run_id"`
	Modality   Modality         `json:"modality"`
	Input      string           `json:"input"`
	Verdict    string           `json:"verdict"`
	Vocal      *scoring.Vocal   `json:"vocal,omitempty"`
	Facial     *scoring.Facial  `json:"facial,omitempty"`
	Posture    *scoring.Posture `json:"posture,omitempty"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
}
