// Package model provides the state tracking shared by finml estimators.
//
// Estimators hold a StateManager by composition. It records whether the
// estimator has been fitted and the shape of the data it was fitted on, so
// Predict can reject unfitted use and inputs with the wrong number of
// features:
//
//	type MyModel struct {
//		State *model.StateManager
//	}
//
//	func (m *MyModel) Fit(X, y mat.Matrix) error {
//		// training logic
//		m.State.SetFitted()
//		m.State.SetDimensions(nFeatures, nSamples)
//		return nil
//	}
package model

// EstimatorState represents the learning state of a model
type EstimatorState int

const (
	// NotFitted indicates the model is not yet trained
	NotFitted EstimatorState = iota
	// Fitted indicates the model has been trained
	Fitted
)

func (s EstimatorState) String() string {
	if s == Fitted {
		return "fitted"
	}
	return "not_fitted"
}

// StateManager tracks the fitted state and training shape of an estimator.
// A refit overwrites both.
type StateManager struct {
	State     EstimatorState
	NFeatures int
	NSamples  int
}

// NewStateManager returns a manager in the NotFitted state.
func NewStateManager() *StateManager {
	return &StateManager{State: NotFitted}
}

// IsFitted returns whether the model has been fitted with training data.
func (s *StateManager) IsFitted() bool {
	return s != nil && s.State == Fitted
}

// SetFitted marks the estimator as fitted (trained).
func (s *StateManager) SetFitted() {
	s.State = Fitted
}

// SetDimensions records the training shape.
func (s *StateManager) SetDimensions(nFeatures, nSamples int) {
	s.NFeatures = nFeatures
	s.NSamples = nSamples
}

// GetDimensions returns the recorded training shape.
func (s *StateManager) GetDimensions() (nFeatures, nSamples int) {
	return s.NFeatures, s.NSamples
}
