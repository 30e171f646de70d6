package command

import (
	"fmt"
	"strings"

	"grocer-go/domain/platform"
)

// Login starts a new session by requesting an OTP for a phone number.
type Login struct {
	Platform    platform.ID
	PhoneNumber string
}

func (c *Login) CommandName() string {
	return "Login"
}

func (c *Login) Validate() error {
	if c.Platform == "" {
		return fmt.Errorf("%w: platform is required", ErrInvalidCommand)
	}
	if strings.TrimSpace(c.PhoneNumber) == "" {
		return fmt.Errorf("%w: phone_number is required", ErrInvalidCommand)
	}
	return nil
}

// SubmitOtp completes the login of an existing session.
type SubmitOtp struct {
	baseSessionCommand
	Otp string
}

func NewSubmitOtp(sessionID, otp string) *SubmitOtp {
	return &SubmitOtp{baseSessionCommand: baseSessionCommand{sessionID: sessionID}, Otp: otp}
}

func (c *SubmitOtp) CommandName() string {
	return "SubmitOtp"
}

func (c *SubmitOtp) Validate() error {
	if c.sessionID == "" {
		return fmt.Errorf("%w: session_id is required", ErrInvalidCommand)
	}
	if strings.TrimSpace(c.Otp) == "" {
		return fmt.Errorf("%w: otp is required", ErrInvalidCommand)
	}
	return nil
}

// AddProducts populates the cart of an authenticated session.
type AddProducts struct {
	baseSessionCommand
	ProductURLs []string
	// Variants maps a product URL to the desired variant text.
	Variants map[string]string
}

func NewAddProducts(sessionID string, productURLs []string, variants map[string]string) *AddProducts {
	return &AddProducts{
		baseSessionCommand: baseSessionCommand{sessionID: sessionID},
		ProductURLs:        productURLs,
		Variants:           variants,
	}
}

func (c *AddProducts) CommandName() string {
	return "AddProducts"
}

func (c *AddProducts) Validate() error {
	if c.sessionID == "" {
		return fmt.Errorf("%w: session_id is required", ErrInvalidCommand)
	}
	for i, u := range c.ProductURLs {
		if strings.TrimSpace(u) == "" {
			return fmt.Errorf("%w: product_urls[%d] is empty", ErrInvalidCommand, i)
		}
	}
	return nil
}
