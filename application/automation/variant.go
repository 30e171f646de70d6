package automation

import (
	"errors"
	"strings"

	"grocer-go/infrastructure/browser"
)

// VariantStatus is the outcome of the best-effort variant step for one product.
type VariantStatus string

const (
	// VariantNotRequested means no variant text was supplied for the product.
	VariantNotRequested VariantStatus = "not_requested"
	// VariantUnsupported means a variant was requested but the platform has no variant controls.
	VariantUnsupported VariantStatus = "unsupported"
	// VariantSelected means a matching option was clicked.
	VariantSelected VariantStatus = "selected"
	// VariantSkipped means selection failed and the product was added with its default variant.
	VariantSkipped VariantStatus = "skipped"
)

var errNoVariantMatch = errors.New("no visible option matches")

// ProductOutcome reports what happened to one product of a cart batch.
type ProductOutcome struct {
	URL           string        `json:"url"`
	Variant       string        `json:"variant,omitempty"`
	VariantStatus VariantStatus `json:"variant_status"`
	Reason        string        `json:"reason,omitempty"`
	Added         bool          `json:"added"`
}

// MatchVariant returns the position in options of the first visible option whose
// text contains desired. Matching is a case-sensitive substring test.
func MatchVariant(options []browser.Option, desired string) (int, bool) {
	for i, opt := range options {
		if opt.Visible && strings.Contains(opt.Text, desired) {
			return i, true
		}
	}
	return -1, false
}
