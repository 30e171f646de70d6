package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{" error ", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestContextLogger(t *testing.T) {
	if From(context.Background()) != L() {
		t.Error("From() without a logger should return L()")
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := With(context.Background(), logger)
	if From(ctx) != logger {
		t.Error("From() should return the logger stored by With()")
	}

	enriched := WithAttrs(ctx, "session_id", "s1")
	if From(enriched) == logger {
		t.Error("WithAttrs() should store a derived logger")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Level != slog.LevelInfo {
		t.Errorf("Level = %v, want INFO", cfg.Level)
	}
	if cfg.MaxSizeMB <= 0 || cfg.MaxBackups <= 0 || cfg.MaxAgeDays <= 0 {
		t.Errorf("rotation limits must be positive: %+v", cfg)
	}
}

func TestRedaction(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{"phone masked", "phone", "9876543210", "******3210"},
		{"phone_number masked", "phone_number", "+919876543210", "*********3210"},
		{"short phone", "phone", "123", "***"},
		{"already masked", "phone", "******3210", "******3210"},
		{"otp dropped", "otp", "123456", "[redacted]"},
		{"other untouched", "session_id", "abc", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(&buf, &Config{Level: slog.LevelInfo, JSON: true})
			logger.Info("x", tt.key, tt.val)

			var rec map[string]any
			if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
				t.Fatalf("invalid JSON %q: %v", buf.String(), err)
			}
			if rec[tt.key] != tt.want {
				t.Errorf("%s = %v, want %v", tt.key, rec[tt.key], tt.want)
			}
		})
	}
}

func TestNewLogger_ServiceAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &Config{Level: slog.LevelWarn, JSON: true, Service: "grocer"})

	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("INFO should be filtered at WARN: %q", buf.String())
	}

	logger.With("phone", "9876543210").Warn("kept")
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}
	if rec["service"] != "grocer" {
		t.Errorf("service = %v, want grocer", rec["service"])
	}
	if rec["phone"] != "******3210" {
		t.Errorf("phone = %v, want masked", rec["phone"])
	}
}
