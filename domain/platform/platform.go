// Package platform defines the static catalog of supported grocery front-ends
// and the UI selectors used to drive each of them.
package platform

import (
	"errors"
	"fmt"
)

// Common errors for catalog lookups. Both are configuration errors: they are
// raised before any browser is launched.
var (
	ErrUnknownPlatform = errors.New("unknown platform")
	ErrMissingSelector = errors.New("missing selector")
)

// ID identifies a platform in the catalog.
type ID string

// Identifiers shipped in the embedded catalog.
const (
	Blinkit   ID = "blinkit"
	Zepto     ID = "zepto"
	Instamart ID = "instamart"
)

// Config is the immutable per-platform entry.
type Config struct {
	ID        ID
	Name      string
	BaseURL   string
	Selectors Selectors
}

// Selectors holds the CSS selectors needed for each automation phase.
// Variant fields are optional; a platform without VariantSelector does not
// support variant picking.
type Selectors struct {
	LoginButton      string
	PhoneInput       string
	SubmitButton     string
	OtpInput         string
	VariantSelector  string
	VariantContainer string
	VariantOption    string
	AddToCartButton  string
	CartPage         string
	PriceDetails     string
}

// SupportsVariants reports whether the platform exposes a variant picker.
func (s Selectors) SupportsVariants() bool {
	return s.VariantSelector != "" && s.VariantContainer != "" && s.VariantOption != ""
}

// Validate checks that every required selector is present.
func (c *Config) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: empty platform id", ErrUnknownPlatform)
	}
	if c.BaseURL == "" {
		return fmt.Errorf("%w: %s has no base url", ErrMissingSelector, c.ID)
	}

	required := []struct {
		name  string
		value string
	}{
		{"login_button", c.Selectors.LoginButton},
		{"phone_input", c.Selectors.PhoneInput},
		{"submit_button", c.Selectors.SubmitButton},
		{"otp_input", c.Selectors.OtpInput},
		{"add_to_cart_button", c.Selectors.AddToCartButton},
		{"cart_page", c.Selectors.CartPage},
		{"price_details", c.Selectors.PriceDetails},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%w: %s.%s", ErrMissingSelector, c.ID, r.name)
		}
	}

	// A partially configured picker is a catalog mistake, not an unsupported platform.
	v := c.Selectors
	if (v.VariantSelector != "" || v.VariantContainer != "" || v.VariantOption != "") && !v.SupportsVariants() {
		return fmt.Errorf("%w: %s variant selectors are incomplete", ErrMissingSelector, c.ID)
	}
	return nil
}
