// Package state defines the session phase machine.
package state

import "fmt"

// Phase is the position of a session record in the login -> OTP -> cart lifecycle.
type Phase string

const (
	// PhaseCreated is the phase of a record that has a phone number but no captured identity.
	PhaseCreated Phase = "CREATED"
	// PhaseOtpPending means the login capture is stored and an OTP was dispatched.
	PhaseOtpPending Phase = "OTP_PENDING"
	// PhaseAuthenticated means the cookies from the OTP capture are stored.
	PhaseAuthenticated Phase = "AUTHENTICATED"
	// PhaseCartPopulated is reached after the first successful cart run.
	PhaseCartPopulated Phase = "CART_POPULATED"
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	if p == "" {
		return "UNKNOWN"
	}
	return string(p)
}

// validTransitions defines the allowed phase transitions.
// Self transitions cover repeated OTP submission and repeated cart runs.
var validTransitions = map[Phase][]Phase{
	PhaseCreated:       {PhaseOtpPending},
	PhaseOtpPending:    {PhaseAuthenticated},
	PhaseAuthenticated: {PhaseAuthenticated, PhaseCartPopulated},
	PhaseCartPopulated: {PhaseCartPopulated},
}

// IsValid reports whether p is one of the known phases.
func (p Phase) IsValid() bool {
	_, ok := validTransitions[p]
	return ok
}

// CanTransitionTo checks if moving from the current phase to the target phase is valid.
func (p Phase) CanTransitionTo(target Phase) bool {
	for _, t := range validTransitions[p] {
		if t == target {
			return true
		}
	}
	return false
}

// CanSubmitOtp returns true if an OTP may be submitted for a record in this phase.
func (p Phase) CanSubmitOtp() bool {
	return p == PhaseOtpPending || p == PhaseAuthenticated
}

// CanPopulateCart returns true if products may be added for a record in this phase.
func (p Phase) CanPopulateCart() bool {
	return p == PhaseAuthenticated || p == PhaseCartPopulated
}

// OtpTarget returns the phase a successful OTP submission moves to.
func (p Phase) OtpTarget() Phase {
	return PhaseAuthenticated
}

// CartTarget returns the phase a successful cart run moves to.
func (p Phase) CartTarget() Phase {
	return PhaseCartPopulated
}

// TransitionError represents an invalid phase transition attempt.
type TransitionError struct {
	From   Phase
	To     Phase
	Reason string
}

func (e *TransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid phase transition from %s to %s: %s", e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("invalid phase transition from %s to %s", e.From, e.To)
}

// NewTransitionError creates a new TransitionError.
func NewTransitionError(from, to Phase, reason string) *TransitionError {
	return &TransitionError{From: from, To: to, Reason: reason}
}
