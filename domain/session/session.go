// Package session defines the durable session record that carries a user's
// identity between independent automation calls.
package session

import (
	"strings"
	"time"

	"grocer-go/core/state"
	"grocer-go/domain/platform"
)

// Record is the durable cross-call state of one login flow.
type Record struct {
	// ID is the opaque identifier generated on first save.
	ID string

	// Platform is immutable after creation.
	Platform platform.ID

	// PhoneNumber is set at creation.
	PhoneNumber string

	// Cookies are the sole mechanism of identity continuity across browser processes.
	Cookies []Cookie

	// DOMSnapshot is the last captured page markup, kept for diagnostics.
	DOMSnapshot string

	// URL is the last known page location, used as the next phase's navigation anchor.
	URL string

	// OtpInputSelector and SubmitButtonSelector are cached at OTP time.
	OtpInputSelector     string
	SubmitButtonSelector string

	Phase state.Phase

	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt time.Time
}

// Cookie represents a browser cookie for session persistence.
type Cookie struct {
	Name         string
	Value        string
	Domain       string
	Path         string
	Expires      float64 // seconds since epoch, -1 for session cookies
	HTTPOnly     bool
	Secure       bool
	Session      bool
	SameSite     string
	Priority     string
	SourceScheme string
	SourcePort   int
}

// Snapshot is the identity captured from a page: cookies, markup and location.
// It is everything a fresh browser needs to resume a logged-in context.
type Snapshot struct {
	Cookies []Cookie
	DOM     string
	URL     string
}

// New creates a record in the CREATED phase.
func New(p platform.ID, phoneNumber string, now time.Time) *Record {
	return &Record{
		Platform:    p,
		PhoneNumber: phoneNumber,
		Phase:       state.PhaseCreated,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsExpired reports whether the record is past its expiry. A zero ExpiresAt never expires.
func (r *Record) IsExpired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}

// Snapshot returns the identity currently stored on the record.
func (r *Record) Snapshot() Snapshot {
	return Snapshot{
		Cookies: cloneCookies(r.Cookies),
		DOM:     r.DOMSnapshot,
		URL:     r.URL,
	}
}

// Apply merges a successful capture into the record and moves it to the given phase.
// Callers validate the transition; Apply only records it.
func (r *Record) Apply(snap Snapshot, phase state.Phase, now time.Time, ttl time.Duration) {
	r.Cookies = cloneCookies(snap.Cookies)
	r.DOMSnapshot = snap.DOM
	r.URL = snap.URL
	r.Touch(phase, now, ttl)
}

// Touch updates the phase and timestamps without replacing the identity.
func (r *Record) Touch(phase state.Phase, now time.Time, ttl time.Duration) {
	r.Phase = phase
	r.UpdatedAt = now
	if ttl > 0 {
		r.ExpiresAt = now.Add(ttl)
	}
}

// MaskedPhone returns the phone number with all but the last four digits hidden.
func (r *Record) MaskedPhone() string {
	return MaskPhone(r.PhoneNumber)
}

// MaskPhone hides all but the last four characters of a phone number.
func MaskPhone(phone string) string {
	if len(phone) <= 4 {
		return strings.Repeat("*", len(phone))
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}

// Clone creates a deep copy of the record.
func (r *Record) Clone() *Record {
	clone := *r
	clone.Cookies = cloneCookies(r.Cookies)
	return &clone
}

func cloneCookies(cookies []Cookie) []Cookie {
	if len(cookies) == 0 {
		return nil
	}
	out := make([]Cookie, len(cookies))
	copy(out, cookies)
	return out
}
