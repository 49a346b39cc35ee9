// Package model は Fit/Adapt を持つコンポーネントの学習済み状態を管理する。
package model

import (
	"sync"

	"github.com/YuminosukeSato/autoscigo/pkg/errors"
)

// StateManager manages the fitted state of a component in a thread-safe manner.
// Preprocessors and layers embed it by composition; Fit is allowed at most once.
type StateManager struct {
	mu sync.RWMutex

	fitted   bool
	fitting  bool
	nSamples int
	nColumns int
}

// NewStateManager creates a new StateManager instance.
func NewStateManager() *StateManager {
	return &StateManager{}
}

// IsFitted returns whether the component has been fitted.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fitted
}

// BeginFit reserves the single allowed Fit. While a Fit is in progress or
// after it succeeded, BeginFit returns errors.ErrAlreadyFitted wrapped with
// the component name. Every successful BeginFit must be paired with EndFit:
//
//	if err := s.BeginFit("Normalization"); err != nil {
//	    return err
//	}
//	defer s.EndFit()
func (s *StateManager) BeginFit(component string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fitted {
		return errors.Wrapf(errors.ErrAlreadyFitted, "%s", component)
	}
	if s.fitting {
		return errors.Wrapf(errors.ErrAlreadyFitted, "%s: fit in progress", component)
	}
	s.fitting = true
	return nil
}

// EndFit releases the reservation taken by BeginFit. If SetFitted was not
// called in between, the component may be fitted again.
func (s *StateManager) EndFit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitting = false
}

// SetFitted marks the component as fitted.
func (s *StateManager) SetFitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitted = true
}

// SetDimensions sets the number of columns and samples seen during fitting.
func (s *StateManager) SetDimensions(nColumns, nSamples int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nColumns = nColumns
	s.nSamples = nSamples
}

// GetDimensions returns the number of columns and samples seen during fitting.
func (s *StateManager) GetDimensions() (nColumns, nSamples int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nColumns, s.nSamples
}

// RequireFitted returns a NotFittedError naming component and method if
// the component has not been fitted.
func (s *StateManager) RequireFitted(component, method string) error {
	if !s.IsFitted() {
		return errors.NewNotFittedError(component, method)
	}
	return nil
}

// State represents the persisted fitted state. Preprocessors write it into
// their Config and restore it with SetState.
type State struct {
	Fitted   bool `json:"fitted"`
	NColumns int  `json:"n_columns,omitempty"`
	NSamples int  `json:"n_samples,omitempty"`
}

// GetState returns the current state.
func (s *StateManager) GetState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{Fitted: s.fitted, NColumns: s.nColumns, NSamples: s.nSamples}
}

// SetState restores a state produced by GetState.
func (s *StateManager) SetState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitted = state.Fitted
	s.nColumns = state.NColumns
	s.nSamples = state.NSamples
}
