package httpapi

import (
	"time"

	"grocer-go/application/automation"
)

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	PhoneNumber string `json:"phone_number"`
	Platform    string `json:"platform"`
}

// LoginResponse is returned once an OTP has been sent.
type LoginResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// SubmitOtpRequest is the body of POST /submit-otp.
type SubmitOtpRequest struct {
	Otp       string `json:"otp"`
	SessionID string `json:"session_id"`
}

// SubmitOtpResponse is returned once the OTP was accepted.
type SubmitOtpResponse struct {
	Status      string      `json:"status"`
	Message     string      `json:"message"`
	SessionID   string      `json:"session_id"`
	SessionData SessionData `json:"session_data"`
}

// SessionData is the identity captured after OTP submission.
type SessionData struct {
	Cookies []CookieData `json:"cookies"`
	DOM     string       `json:"dom"`
	URL     string       `json:"url"`
}

// CookieData is the wire form of a cookie.
type CookieData struct {
	Name         string  `json:"name"`
	Value        string  `json:"value"`
	Domain       string  `json:"domain"`
	Path         string  `json:"path"`
	Expires      float64 `json:"expires"`
	HTTPOnly     bool    `json:"httpOnly"`
	Secure       bool    `json:"secure"`
	Session      bool    `json:"session"`
	SameSite     string  `json:"sameSite,omitempty"`
	Priority     string  `json:"priority,omitempty"`
	SourceScheme string  `json:"sourceScheme,omitempty"`
	SourcePort   int     `json:"sourcePort,omitempty"`
}

// AddProductsRequest is the body of POST /add-products.
type AddProductsRequest struct {
	SessionID   string            `json:"session_id"`
	ProductURLs []string          `json:"product_urls"`
	Variants    map[string]string `json:"variants"`
}

// AddProductsResponse carries the cart text, the parsed total and per-product outcomes.
type AddProductsResponse struct {
	CartDetails string                      `json:"cart_details"`
	FinalPrice  float64                     `json:"final_price"`
	Products    []automation.ProductOutcome `json:"products"`
}

// SessionView is the public projection of a session record.
type SessionView struct {
	SessionID string    `json:"session_id"`
	Platform  string    `json:"platform"`
	Phone     string    `json:"phone_number"`
	Phase     string    `json:"phase"`
	URL       string    `json:"url,omitempty"`
	Cookies   int       `json:"cookie_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// PlatformView is one catalog entry.
type PlatformView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	BaseURL  string `json:"base_url"`
	Variants bool   `json:"variants"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
