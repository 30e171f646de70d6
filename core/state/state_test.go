package state

import (
	"errors"
	"testing"
)

func TestPhase_String(t *testing.T) {
	tests := []struct {
		phase    Phase
		expected string
	}{
		{PhaseCreated, "CREATED"},
		{PhaseOtpPending, "OTP_PENDING"},
		{PhaseAuthenticated, "AUTHENTICATED"},
		{PhaseCartPopulated, "CART_POPULATED"},
		{Phase(""), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.phase.String(); got != tt.expected {
				t.Errorf("Phase.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestPhase_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name     string
		from     Phase
		to       Phase
		expected bool
	}{
		{"Created -> OtpPending", PhaseCreated, PhaseOtpPending, true},
		{"Created -> Authenticated (invalid)", PhaseCreated, PhaseAuthenticated, false},

		{"OtpPending -> Authenticated", PhaseOtpPending, PhaseAuthenticated, true},
		{"OtpPending -> CartPopulated (invalid)", PhaseOtpPending, PhaseCartPopulated, false},
		{"OtpPending -> Created (invalid)", PhaseOtpPending, PhaseCreated, false},

		{"Authenticated -> Authenticated", PhaseAuthenticated, PhaseAuthenticated, true},
		{"Authenticated -> CartPopulated", PhaseAuthenticated, PhaseCartPopulated, true},
		{"Authenticated -> OtpPending (invalid)", PhaseAuthenticated, PhaseOtpPending, false},

		{"CartPopulated -> CartPopulated", PhaseCartPopulated, PhaseCartPopulated, true},
		{"CartPopulated -> Authenticated (invalid)", PhaseCartPopulated, PhaseAuthenticated, false},

		{"unknown -> Created (invalid)", Phase("BOGUS"), PhaseCreated, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.expected {
				t.Errorf("CanTransitionTo() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestPhase_Guards(t *testing.T) {
	tests := []struct {
		phase   Phase
		otp     bool
		cart    bool
		isValid bool
	}{
		{PhaseCreated, false, false, true},
		{PhaseOtpPending, true, false, true},
		{PhaseAuthenticated, true, true, true},
		{PhaseCartPopulated, false, true, true},
		{Phase("BOGUS"), false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.phase.String(), func(t *testing.T) {
			if got := tt.phase.CanSubmitOtp(); got != tt.otp {
				t.Errorf("CanSubmitOtp() = %v, want %v", got, tt.otp)
			}
			if got := tt.phase.CanPopulateCart(); got != tt.cart {
				t.Errorf("CanPopulateCart() = %v, want %v", got, tt.cart)
			}
			if got := tt.phase.IsValid(); got != tt.isValid {
				t.Errorf("IsValid() = %v, want %v", got, tt.isValid)
			}
		})
	}
}

func TestPhase_TargetsAreReachable(t *testing.T) {
	for _, from := range []Phase{PhaseOtpPending, PhaseAuthenticated} {
		if !from.CanTransitionTo(from.OtpTarget()) {
			t.Errorf("%s cannot reach OTP target %s", from, from.OtpTarget())
		}
	}
	for _, from := range []Phase{PhaseAuthenticated, PhaseCartPopulated} {
		if !from.CanTransitionTo(from.CartTarget()) {
			t.Errorf("%s cannot reach cart target %s", from, from.CartTarget())
		}
	}
}

func TestTransitionError(t *testing.T) {
	err := NewTransitionError(PhaseCreated, PhaseCartPopulated, "")
	want := "invalid phase transition from CREATED to CART_POPULATED"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	withReason := NewTransitionError(PhaseOtpPending, PhaseCartPopulated, "otp not submitted")
	if withReason.Error() != "invalid phase transition from OTP_PENDING to CART_POPULATED: otp not submitted" {
		t.Errorf("Error() = %q", withReason.Error())
	}

	var target *TransitionError
	if !errors.As(error(withReason), &target) {
		t.Fatal("errors.As did not match *TransitionError")
	}
	if target.From != PhaseOtpPending {
		t.Errorf("From = %v, want %v", target.From, PhaseOtpPending)
	}
}
