package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"grocer-go/application"
	"grocer-go/application/automation"
	"grocer-go/core/command"
	"grocer-go/core/state"
	"grocer-go/domain/platform"
	"grocer-go/domain/session"
	"grocer-go/infrastructure/logging"
)

const (
	statusError   = "ERROR"
	statusOtpSent = "OTP_SENT"
	statusSuccess = "SUCCESS"
)

// Health handles GET /.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("Grocer automation service is running"))
}

// Login handles POST /login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	record, err := h.svc.Login(r.Context(), &command.Login{
		Platform:    platform.ID(req.Platform),
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Status:    statusOtpSent,
		Message:   "OTP has been sent to the provided phone number.",
		SessionID: record.ID,
	})
}

// SubmitOtp handles POST /submit-otp.
func (h *Handler) SubmitOtp(w http.ResponseWriter, r *http.Request) {
	var req SubmitOtpRequest
	if !h.decode(w, r, &req) {
		return
	}

	record, err := h.svc.SubmitOtp(r.Context(), command.NewSubmitOtp(req.SessionID, req.Otp))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, SubmitOtpResponse{
		Status:      statusSuccess,
		Message:     "User authenticated and session saved.",
		SessionID:   record.ID,
		SessionData: toSessionData(record.Snapshot()),
	})
}

// AddProducts handles POST /add-products.
func (h *Handler) AddProducts(w http.ResponseWriter, r *http.Request) {
	var req AddProductsRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.svc.AddProducts(r.Context(), command.NewAddProducts(req.SessionID, req.ProductURLs, req.Variants))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	products := result.Products
	if products == nil {
		products = []automation.ProductOutcome{}
	}
	writeJSON(w, http.StatusOK, AddProductsResponse{
		CartDetails: result.CartDetails,
		FinalPrice:  result.FinalPrice,
		Products:    products,
	})
}

// GetSession handles GET /sessions/{id}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	record, err := h.svc.GetSession(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, SessionView{
		SessionID: record.ID,
		Platform:  string(record.Platform),
		Phone:     record.MaskedPhone(),
		Phase:     record.Phase.String(),
		URL:       record.URL,
		Cookies:   len(record.Cookies),
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
		ExpiresAt: record.ExpiresAt,
	})
}

// ListPlatforms handles GET /platforms.
func (h *Handler) ListPlatforms(w http.ResponseWriter, r *http.Request) {
	configs := h.svc.Platforms()
	views := make([]PlatformView, len(configs))
	for i, cfg := range configs {
		views[i] = PlatformView{
			ID:       string(cfg.ID),
			Name:     cfg.Name,
			BaseURL:  cfg.BaseURL,
			Variants: cfg.Selectors.SupportsVariants(),
		}
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Status:  statusError,
			Message: "Invalid request body: " + err.Error(),
		})
		return false
	}
	return true
}

// writeError maps application errors onto status codes.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := classify(err)
	if status >= http.StatusInternalServerError {
		logging.From(r.Context()).Error("Request failed", "error", err)
	}
	writeJSON(w, status, ErrorResponse{Status: statusError, Message: message})
}

func classify(err error) (int, string) {
	var te *state.TransitionError
	switch {
	case errors.Is(err, command.ErrInvalidCommand):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, platform.ErrUnknownPlatform):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound, "Session not found"
	case errors.Is(err, session.ErrSessionExpired):
		return http.StatusNotFound, "Session expired"
	case errors.As(err, &te):
		return http.StatusConflict, err.Error()
	case errors.Is(err, application.ErrSessionBusy):
		return http.StatusConflict, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

func toSessionData(snap session.Snapshot) SessionData {
	cookies := make([]CookieData, len(snap.Cookies))
	for i, c := range snap.Cookies {
		cookies[i] = CookieData(c)
	}
	return SessionData{Cookies: cookies, DOM: snap.DOM, URL: snap.URL}
}
