package command

import (
	"errors"
	"testing"
)

func TestCommand_Names(t *testing.T) {
	tests := []struct {
		cmd      Command
		expected string
	}{
		{&Login{}, "Login"},
		{NewSubmitOtp("s1", "1234"), "SubmitOtp"},
		{NewAddProducts("s1", nil, nil), "AddProducts"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.cmd.CommandName(); got != tt.expected {
				t.Errorf("CommandName() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSessionCommand_SessionID(t *testing.T) {
	tests := []struct {
		name     string
		cmd      SessionCommand
		expected string
	}{
		{"SubmitOtp", NewSubmitOtp("session-123", "1234"), "session-123"},
		{"AddProducts", NewAddProducts("session-456", []string{"u"}, nil), "session-456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cmd.SessionID(); got != tt.expected {
				t.Errorf("SessionID() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCommand_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cmd     Command
		wantErr bool
	}{
		{"login ok", &Login{Platform: "blinkit", PhoneNumber: "9876543210"}, false},
		{"login missing platform", &Login{PhoneNumber: "9876543210"}, true},
		{"login blank phone", &Login{Platform: "blinkit", PhoneNumber: "  "}, true},
		{"otp ok", NewSubmitOtp("s1", "123456"), false},
		{"otp missing session", NewSubmitOtp("", "123456"), true},
		{"otp missing code", NewSubmitOtp("s1", ""), true},
		{"cart ok", NewAddProducts("s1", []string{"https://x/p/1"}, map[string]string{"https://x/p/1": "1 kg"}), false},
		{"cart no variants", NewAddProducts("s1", []string{"https://x/p/1"}, nil), false},
		{"cart missing session", NewAddProducts("", []string{"https://x/p/1"}, nil), true},
		{"cart no products", NewAddProducts("s1", nil, nil), false},
		{"cart blank product", NewAddProducts("s1", []string{"https://x/p/1", ""}, nil), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidCommand) {
				t.Errorf("Validate() error = %v, want ErrInvalidCommand", err)
			}
		})
	}
}
