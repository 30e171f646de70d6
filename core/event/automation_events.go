package event

import "grocer-go/domain/platform"

// LoginSucceeded is published when an OTP has been requested and the session saved.
type LoginSucceeded struct {
	baseSessionEvent
	Platform platform.ID
}

func NewLoginSucceeded(sessionID string, p platform.ID) *LoginSucceeded {
	return &LoginSucceeded{
		baseSessionEvent: baseSessionEvent{sessionID: sessionID},
		Platform:         p,
	}
}

func (e *LoginSucceeded) EventName() string {
	return "LoginSucceeded"
}

// OtpSubmitted is published when an OTP was accepted and the refreshed identity stored.
type OtpSubmitted struct {
	baseSessionEvent
}

func NewOtpSubmitted(sessionID string) *OtpSubmitted {
	return &OtpSubmitted{
		baseSessionEvent: baseSessionEvent{sessionID: sessionID},
	}
}

func (e *OtpSubmitted) EventName() string {
	return "OtpSubmitted"
}

// CartPopulated is published after a cart batch completes.
type CartPopulated struct {
	baseSessionEvent
	Products   int
	FinalPrice float64
}

func NewCartPopulated(sessionID string, products int, finalPrice float64) *CartPopulated {
	return &CartPopulated{
		baseSessionEvent: baseSessionEvent{sessionID: sessionID},
		Products:         products,
		FinalPrice:       finalPrice,
	}
}

func (e *CartPopulated) EventName() string {
	return "CartPopulated"
}

// VariantSkipped is published when best-effort variant selection failed for a product.
type VariantSkipped struct {
	baseSessionEvent
	ProductURL string
	Variant    string
	Reason     string
}

func NewVariantSkipped(sessionID, productURL, variant, reason string) *VariantSkipped {
	return &VariantSkipped{
		baseSessionEvent: baseSessionEvent{sessionID: sessionID},
		ProductURL:       productURL,
		Variant:          variant,
		Reason:           reason,
	}
}

func (e *VariantSkipped) EventName() string {
	return "VariantSkipped"
}

// AutomationFailed is published when an automation call fails.
// SessionID is empty for a login that never produced a record.
type AutomationFailed struct {
	baseSessionEvent
	Operation string
	Error     error
}

func NewAutomationFailed(sessionID, operation string, err error) *AutomationFailed {
	return &AutomationFailed{
		baseSessionEvent: baseSessionEvent{sessionID: sessionID},
		Operation:        operation,
		Error:            err,
	}
}

func (e *AutomationFailed) EventName() string {
	return "AutomationFailed"
}
