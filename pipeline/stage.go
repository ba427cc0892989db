package pipeline

import (
	"time"

	finErrors "github.com/ezoic/finml/pkg/errors"
)

// Stage is a state of the session's workflow. Stages are ordered: a session
// in stage S has completed every stage before S.
type Stage int

const (
	Unloaded Stage = iota
	Loaded
	Preprocessed
	FeaturesSelected
	Split
	Trained
	Evaluated
)

var stageNames = [...]string{
	Unloaded:         "unloaded",
	Loaded:           "loaded",
	Preprocessed:     "preprocessed",
	FeaturesSelected: "features_selected",
	Split:            "split",
	Trained:          "trained",
	Evaluated:        "evaluated",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

var stageActions = [...]string{
	Unloaded:         "start",
	Loaded:           "load",
	Preprocessed:     "preprocess",
	FeaturesSelected: "feature selection",
	Split:            "split",
	Trained:          "train",
	Evaluated:        "evaluate",
}

// action names the handler that completes the stage.
func (s Stage) action() string {
	if s < 0 || int(s) >= len(stageActions) {
		return "unknown"
	}
	return stageActions[s]
}

// MarshalText encodes the stage by name.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a stage name.
func (s *Stage) UnmarshalText(text []byte) error {
	for i, name := range stageNames {
		if name == string(text) {
			*s = Stage(i)
			return nil
		}
	}
	return finErrors.NewValidationError("stage", "unknown stage", string(text))
}

// Requires returns the stage that must be complete before s can run.
// Loading has no prerequisite and returns Unloaded.
func (s Stage) Requires() Stage {
	if s <= Loaded {
		return Unloaded
	}
	return s - 1
}

// Stages lists every stage in workflow order.
func Stages() []Stage {
	return []Stage{Unloaded, Loaded, Preprocessed, FeaturesSelected, Split, Trained, Evaluated}
}

// Observer is notified after every stage handler returns, including handlers
// that were refused or failed.
type Observer interface {
	StageCompleted(stage Stage, elapsed time.Duration, err error)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(stage Stage, elapsed time.Duration, err error)

// StageCompleted calls f.
func (f ObserverFunc) StageCompleted(stage Stage, elapsed time.Duration, err error) {
	f(stage, elapsed, err)
}
