package automation

import (
	"context"
	"time"
)

// SettleKind names a point where the automators wait for client-side work
// that has no DOM completion signal.
type SettleKind string

const (
	SettleAfterOtp       SettleKind = "after_otp"
	SettleVariantOpen    SettleKind = "variant_open"
	SettleVariantSelect  SettleKind = "variant_select"
	SettleAfterAddToCart SettleKind = "after_add_to_cart"
)

// Settler waits until the page is considered settled.
type Settler interface {
	Settle(ctx context.Context, kind SettleKind) error
}

// FixedSettler waits a fixed interval per kind.
type FixedSettler struct {
	Durations map[SettleKind]time.Duration
}

// DefaultSettleDurations returns the stock intervals.
func DefaultSettleDurations() map[SettleKind]time.Duration {
	return map[SettleKind]time.Duration{
		SettleAfterOtp:       2 * time.Second,
		SettleVariantOpen:    500 * time.Millisecond,
		SettleVariantSelect:  500 * time.Millisecond,
		SettleAfterAddToCart: time.Second,
	}
}

// NewFixedSettler creates a settler; kinds missing from durations use the defaults.
func NewFixedSettler(durations map[SettleKind]time.Duration) *FixedSettler {
	merged := DefaultSettleDurations()
	for k, d := range durations {
		merged[k] = d
	}
	return &FixedSettler{Durations: merged}
}

// Settle sleeps for the kind's interval or until ctx is done.
func (s *FixedSettler) Settle(ctx context.Context, kind SettleKind) error {
	d := s.Durations[kind]
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
