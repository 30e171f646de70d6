package repository

import (
	"context"
	"testing"
	"time"

	"grocer-go/core/state"
	"grocer-go/domain/session"
)

func TestDefaultMongoDBConfig(t *testing.T) {
	config := DefaultMongoDBConfig()

	if config == nil {
		t.Fatal("DefaultMongoDBConfig returned nil")
	}

	if config.URI != "mongodb://localhost:27017" {
		t.Errorf("URI = %v, want mongodb://localhost:27017", config.URI)
	}

	if config.Database != "grocer-auth-wizard" {
		t.Errorf("Database = %v, want grocer-auth-wizard", config.Database)
	}

	if config.Collection != "sessions" {
		t.Errorf("Collection = %v, want sessions", config.Collection)
	}

	if config.ConnectTimeout != 10*time.Second {
		t.Errorf("ConnectTimeout = %v, want 10s", config.ConnectTimeout)
	}

	if config.PingTimeout != 5*time.Second {
		t.Errorf("PingTimeout = %v, want 5s", config.PingTimeout)
	}

	if config.OperationTimeout != 5*time.Second {
		t.Errorf("OperationTimeout = %v, want 5s", config.OperationTimeout)
	}
}

func TestMongoDB_OpContext(t *testing.T) {
	parent := context.Background()

	unbounded := &MongoDB{}
	ctx, cancel := unbounded.opContext(parent)
	defer cancel()
	if _, ok := ctx.Deadline(); ok {
		t.Error("zero timeout should not set a deadline")
	}

	bounded := &MongoDB{opTimeout: time.Second}
	ctx, cancel = bounded.opContext(parent)
	defer cancel()
	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatal("expected a deadline")
	}
	if remaining := time.Until(deadline); remaining <= 0 || remaining > time.Second {
		t.Errorf("remaining = %v, want within 1s", remaining)
	}
}

func testRecord() *session.Record {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	r := session.New("blinkit", "9876543210", now)
	r.ID = "3f1c0a52-0000-4000-8000-000000000001"
	r.URL = "https://www.blinkit.com/"
	r.DOMSnapshot = "<html></html>"
	r.OtpInputSelector = "#otp"
	r.SubmitButtonSelector = "#submit"
	r.Phase = state.PhaseOtpPending
	r.ExpiresAt = now.Add(24 * time.Hour)
	r.Cookies = []session.Cookie{{
		Name:         "session",
		Value:        "abc123",
		Domain:       ".blinkit.com",
		Path:         "/",
		Expires:      1772359200.5,
		HTTPOnly:     true,
		Secure:       true,
		SameSite:     "Lax",
		Priority:     "Medium",
		SourceScheme: "Secure",
		SourcePort:   443,
	}}
	return r
}

func TestSessionDocument_Conversion(t *testing.T) {
	record := testRecord()

	doc := recordToDocument(record)
	if doc.ID != record.ID {
		t.Errorf("ID = %v, want %v", doc.ID, record.ID)
	}
	if doc.Platform != "blinkit" {
		t.Errorf("Platform = %v, want blinkit", doc.Platform)
	}
	if doc.Phase != "OTP_PENDING" {
		t.Errorf("Phase = %v, want OTP_PENDING", doc.Phase)
	}
	if doc.ExpiresAt == nil || !doc.ExpiresAt.Equal(record.ExpiresAt) {
		t.Errorf("ExpiresAt = %v, want %v", doc.ExpiresAt, record.ExpiresAt)
	}
	if len(doc.Cookies) != 1 || doc.Cookies[0].SourcePort != 443 {
		t.Errorf("Cookies = %+v, want one cookie on port 443", doc.Cookies)
	}

	back, err := documentToRecord(doc)
	if err != nil {
		t.Fatalf("documentToRecord() error = %v", err)
	}
	if back.Platform != record.Platform {
		t.Errorf("Platform = %v, want %v", back.Platform, record.Platform)
	}
	if back.Phase != state.PhaseOtpPending {
		t.Errorf("Phase = %v, want OTP_PENDING", back.Phase)
	}
	if back.OtpInputSelector != "#otp" || back.SubmitButtonSelector != "#submit" {
		t.Errorf("selectors = %q/%q, want #otp/#submit", back.OtpInputSelector, back.SubmitButtonSelector)
	}
	if back.Cookies[0] != record.Cookies[0] {
		t.Errorf("Cookie = %+v, want %+v", back.Cookies[0], record.Cookies[0])
	}
	if !back.ExpiresAt.Equal(record.ExpiresAt) {
		t.Errorf("ExpiresAt = %v, want %v", back.ExpiresAt, record.ExpiresAt)
	}
}

func TestSessionDocument_NoExpiry(t *testing.T) {
	record := testRecord()
	record.ExpiresAt = time.Time{}
	record.Cookies = nil

	doc := recordToDocument(record)
	// A zero date would be collected by the TTL index immediately.
	if doc.ExpiresAt != nil {
		t.Errorf("ExpiresAt = %v, want nil", doc.ExpiresAt)
	}
	if doc.Cookies != nil {
		t.Errorf("Cookies = %v, want nil", doc.Cookies)
	}

	back, err := documentToRecord(doc)
	if err != nil {
		t.Fatalf("documentToRecord() error = %v", err)
	}
	if !back.ExpiresAt.IsZero() {
		t.Errorf("ExpiresAt = %v, want zero", back.ExpiresAt)
	}
	if len(back.Cookies) != 0 {
		t.Error("record should have no cookies")
	}
}

func TestSessionDocument_PhaseValidation(t *testing.T) {
	tests := []struct {
		name    string
		phase   string
		wantErr bool
	}{
		{"known phase", "AUTHENTICATED", false},
		{"unknown phase", "LOGGED_OUT", true},
		{"empty phase", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := recordToDocument(testRecord())
			doc.Phase = tt.phase

			record, err := documentToRecord(doc)
			if (err != nil) != tt.wantErr {
				t.Fatalf("documentToRecord() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && record.Phase != state.Phase(tt.phase) {
				t.Errorf("Phase = %v, want %v", record.Phase, tt.phase)
			}
		})
	}
}

func TestMemorySessionRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository()

	record := testRecord()
	record.ID = ""

	id, err := repo.Save(ctx, record)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if id == "" {
		t.Fatal("Save() should generate an ID")
	}

	record.ID = id
	record.Phase = state.PhaseAuthenticated
	id2, err := repo.Save(ctx, record)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if id2 != id {
		t.Errorf("second Save() id = %v, want overwrite of %v", id2, id)
	}
	if repo.Len() != 1 {
		t.Errorf("Len() = %d, want 1", repo.Len())
	}

	got, err := repo.FindByID(ctx, id)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if got.Phase != state.PhaseAuthenticated {
		t.Errorf("Phase = %v, want AUTHENTICATED", got.Phase)
	}

	// Mutating the returned copy must not touch the stored record.
	got.Cookies[0].Value = "changed"
	again, _ := repo.FindByID(ctx, id)
	if again.Cookies[0].Value != "abc123" {
		t.Errorf("stored cookie = %v, want abc123", again.Cookies[0].Value)
	}

	missing, err := repo.FindByID(ctx, "nope")
	if err != nil || missing != nil {
		t.Errorf("FindByID(unknown) = %v, %v, want nil, nil", missing, err)
	}
}
