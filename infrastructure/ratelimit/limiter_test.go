package ratelimit

import (
	"testing"
	"time"
)

func TestLimiter_Allow(t *testing.T) {
	l := NewLimiter(60, 2)

	if !l.Allow("1.2.3.4") || !l.Allow("1.2.3.4") {
		t.Fatal("first two requests should fit the burst")
	}
	if l.Allow("1.2.3.4") {
		t.Error("third immediate request should be rejected")
	}
	if !l.Allow("5.6.7.8") {
		t.Error("other keys have their own bucket")
	}
}

func TestLimiter_Disabled(t *testing.T) {
	l := NewLimiter(0, 0)

	for i := 0; i < 100; i++ {
		if !l.Allow("k") {
			t.Fatalf("request %d rejected with limiting disabled", i)
		}
	}
	if l.Burst() != 1 {
		t.Errorf("Burst() = %d, want 1", l.Burst())
	}
}

func TestLimiter_Prune(t *testing.T) {
	l := NewLimiter(60, 1)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Allow("old")
	now = now.Add(time.Hour)
	l.Allow("fresh")

	if removed := l.Prune(30 * time.Minute); removed != 1 {
		t.Errorf("Prune() = %d, want 1", removed)
	}
	if l.Len() != 1 {
		t.Errorf("Len() = %d, want 1", l.Len())
	}
}
