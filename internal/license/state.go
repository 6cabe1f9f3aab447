package license

import "sync/atomic"

// ActivationState records whether licensed functionality is enabled. It is
// safe for concurrent use.
type ActivationState struct {
	deactivated atomic.Bool
}

// NewActivationState returns an activated state.
func NewActivationState() *ActivationState {
	return &ActivationState{}
}

// Activated reports the current value.
func (s *ActivationState) Activated() bool {
	return !s.deactivated.Load()
}

// SetActivated stores v. The write is visible to every later Activated call.
func (s *ActivationState) SetActivated(v bool) {
	s.deactivated.Store(!v)
}

// swap stores v and returns the previous value.
func (s *ActivationState) swap(v bool) bool {
	return !s.deactivated.Swap(!v)
}

// DefaultActivation is the process-wide activation state.
var DefaultActivation = NewActivationState()

// Activated reports the process-wide activation state.
func Activated() bool {
	return DefaultActivation.Activated()
}

// SetActivated updates the process-wide activation state.
func SetActivated(v bool) {
	DefaultActivation.SetActivated(v)
}
