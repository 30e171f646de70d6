// Package application orchestrates the load-mutate-store cycle around each automation call.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"

	"grocer-go/application/automation"
	"grocer-go/core/command"
	"grocer-go/core/event"
	"grocer-go/core/eventbus"
	"grocer-go/core/state"
	"grocer-go/domain/platform"
	"grocer-go/domain/session"
	"grocer-go/infrastructure/logging"
)

// ErrSessionBusy is returned when another call holds the session past the lock timeout.
var ErrSessionBusy = errors.New("session is busy")

// LoginAutomator requests an OTP in a fresh browser.
type LoginAutomator interface {
	Login(ctx context.Context, id platform.ID, phoneNumber string) (session.Snapshot, error)
}

// OtpAutomator submits an OTP in a fresh browser seeded from a record.
type OtpAutomator interface {
	SubmitOtp(ctx context.Context, record *session.Record, otp string) (session.Snapshot, error)
}

// CartAutomator fills the cart in a fresh browser seeded from a record.
type CartAutomator interface {
	AddProducts(ctx context.Context, record *session.Record, productURLs []string, variants map[string]string) (*automation.CartResult, error)
}

// Coordinator runs each automation against a working copy of the session record
// and stores the copy back only when the automation succeeded.
type Coordinator struct {
	// Dependencies
	sessions  *session.Service
	platforms *platform.Registry
	login     LoginAutomator
	otp       OtpAutomator
	cart      CartAutomator
	eventBus  eventbus.Bus
	logger    *slog.Logger

	// Concurrency
	locker      *SessionLocker
	lockTimeout time.Duration
	browsers    *semaphore.Weighted

	subscriptionID string
}

// CoordinatorConfig holds configuration for the Coordinator.
type CoordinatorConfig struct {
	Sessions  *session.Service
	Platforms *platform.Registry
	Login     LoginAutomator
	Otp       OtpAutomator
	Cart      CartAutomator
	EventBus  eventbus.Bus
	Logger    *slog.Logger

	// MaxConcurrentBrowsers caps browsers running at once across all sessions.
	MaxConcurrentBrowsers int
	// LockTimeout bounds the wait for a session that another call is using.
	LockTimeout time.Duration
}

// NewCoordinator creates a new session coordinator.
func NewCoordinator(cfg *CoordinatorConfig) *Coordinator {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxConcurrentBrowsers <= 0 {
		cfg.MaxConcurrentBrowsers = 4
	}
	if cfg.Platforms == nil {
		cfg.Platforms = platform.NewRegistry()
	}

	c := &Coordinator{
		sessions:    cfg.Sessions,
		platforms:   cfg.Platforms,
		login:       cfg.Login,
		otp:         cfg.Otp,
		cart:        cfg.Cart,
		eventBus:    cfg.EventBus,
		logger:      cfg.Logger,
		locker:      NewSessionLocker(),
		lockTimeout: cfg.LockTimeout,
		browsers:    semaphore.NewWeighted(int64(cfg.MaxConcurrentBrowsers)),
	}

	if c.eventBus != nil {
		c.subscriptionID = c.eventBus.Subscribe(c.handleEvent, eventbus.ForEvents(auditedEvents...))
	}

	return c
}

// Stop detaches the coordinator from the event bus.
func (c *Coordinator) Stop() {
	if c.eventBus != nil && c.subscriptionID != "" {
		c.eventBus.Unsubscribe(c.subscriptionID)
	}
	c.logger.Info("Coordinator stopped")
}

// Platforms returns the catalog entries in id order.
func (c *Coordinator) Platforms() []*platform.Config {
	ids := c.platforms.List()
	out := make([]*platform.Config, 0, len(ids))
	for _, id := range ids {
		if cfg, err := c.platforms.Lookup(id); err == nil {
			out = append(out, cfg)
		}
	}
	return out
}

// GetSession returns a live record.
func (c *Coordinator) GetSession(ctx context.Context, id string) (*session.Record, error) {
	return c.sessions.GetSession(ctx, id)
}

// Login requests an OTP and stores a new record in OTP_PENDING.
func (c *Coordinator) Login(ctx context.Context, cmd *command.Login) (*session.Record, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if !c.platforms.Has(cmd.Platform) {
		return nil, fmt.Errorf("%w: %q", platform.ErrUnknownPlatform, cmd.Platform)
	}

	logger := logging.From(ctx).With("command", cmd.CommandName(), "platform", cmd.Platform, "phone", session.MaskPhone(cmd.PhoneNumber))
	record := session.New(cmd.Platform, cmd.PhoneNumber, c.sessions.Now())

	var snap session.Snapshot
	err := c.withBrowser(ctx, func() error {
		var err error
		snap, err = c.login.Login(ctx, cmd.Platform, cmd.PhoneNumber)
		return err
	})
	if err != nil {
		logger.Error("Login failed", "error", err)
		c.publishEvent(event.NewAutomationFailed("", cmd.CommandName(), err))
		return nil, err
	}

	if err := c.transition(record, state.PhaseOtpPending); err != nil {
		return nil, err
	}
	record.Apply(snap, state.PhaseOtpPending, c.sessions.Now(), c.sessions.TTL())
	id, err := c.sessions.SaveSession(ctx, record)
	if err != nil {
		logger.Error("Failed to save session", "error", err)
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	logger.Info("OTP sent", "session_id", id)
	c.publishEvent(event.NewLoginSucceeded(id, cmd.Platform))
	c.publishEvent(event.NewPhaseChanged(id, state.PhaseCreated, state.PhaseOtpPending))
	return record, nil
}

// SubmitOtp submits the OTP for an existing record and stores the refreshed identity.
func (c *Coordinator) SubmitOtp(ctx context.Context, cmd *command.SubmitOtp) (*session.Record, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	unlock, err := c.lock(ctx, cmd.SessionID())
	if err != nil {
		return nil, err
	}
	defer unlock()

	record, err := c.sessions.GetSession(ctx, cmd.SessionID())
	if err != nil {
		return nil, err
	}
	if !record.Phase.CanSubmitOtp() {
		return nil, state.NewTransitionError(record.Phase, state.PhaseAuthenticated, "no OTP has been requested")
	}
	selectors, err := c.platforms.Selectors(record.Platform)
	if err != nil {
		return nil, err
	}

	logger := logging.From(ctx).With("command", cmd.CommandName(), "session_id", record.ID, "platform", record.Platform)

	working := record.Clone()
	working.OtpInputSelector = selectors.OtpInput
	working.SubmitButtonSelector = selectors.SubmitButton

	var snap session.Snapshot
	err = c.withBrowser(ctx, func() error {
		var err error
		snap, err = c.otp.SubmitOtp(ctx, working, cmd.Otp)
		return err
	})
	if err != nil {
		logger.Error("OTP submission failed", "error", err)
		c.publishEvent(event.NewAutomationFailed(record.ID, cmd.CommandName(), err))
		return nil, err
	}

	target := record.Phase.OtpTarget()
	if err := c.transition(record, target); err != nil {
		return nil, err
	}
	working.Apply(snap, target, c.sessions.Now(), c.sessions.TTL())
	if _, err := c.sessions.SaveSession(ctx, working); err != nil {
		logger.Error("Failed to save session", "error", err)
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	logger.Info("OTP accepted", "phase", target)
	c.publishEvent(event.NewOtpSubmitted(record.ID))
	if target != record.Phase {
		c.publishEvent(event.NewPhaseChanged(record.ID, record.Phase, target))
	}
	return working, nil
}

// AddProducts fills the cart of an authenticated record. An empty batch only
// reads the cart. An unknown session is reported before the product list is checked.
func (c *Coordinator) AddProducts(ctx context.Context, cmd *command.AddProducts) (*automation.CartResult, error) {
	if cmd.SessionID() == "" {
		return nil, cmd.Validate()
	}

	unlock, err := c.lock(ctx, cmd.SessionID())
	if err != nil {
		return nil, err
	}
	defer unlock()

	record, err := c.sessions.GetSession(ctx, cmd.SessionID())
	if err != nil {
		return nil, err
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if !record.Phase.CanPopulateCart() {
		return nil, state.NewTransitionError(record.Phase, state.PhaseCartPopulated, "session is not authenticated")
	}

	logger := logging.From(ctx).With("command", cmd.CommandName(), "session_id", record.ID, "platform", record.Platform)
	working := record.Clone()

	var result *automation.CartResult
	err = c.withBrowser(ctx, func() error {
		var err error
		result, err = c.cart.AddProducts(ctx, working, cmd.ProductURLs, cmd.Variants)
		return err
	})
	if err != nil {
		logger.Error("Cart population failed", "error", err)
		c.publishEvent(event.NewAutomationFailed(record.ID, cmd.CommandName(), err))
		return nil, err
	}

	for _, p := range result.Products {
		if p.VariantStatus == automation.VariantSkipped {
			c.publishEvent(event.NewVariantSkipped(record.ID, p.URL, p.Variant, p.Reason))
		}
	}

	target := record.Phase.CartTarget()
	if err := c.transition(record, target); err != nil {
		return nil, err
	}
	working.Apply(result.Snapshot, target, c.sessions.Now(), c.sessions.TTL())
	if _, err := c.sessions.SaveSession(ctx, working); err != nil {
		logger.Error("Failed to save session", "error", err)
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	logger.Info("Cart populated", "products", len(result.Products), "final_price", result.FinalPrice)
	c.publishEvent(event.NewCartPopulated(record.ID, len(result.Products), result.FinalPrice))
	if target != record.Phase {
		c.publishEvent(event.NewPhaseChanged(record.ID, record.Phase, target))
	}
	return result, nil
}

func (c *Coordinator) lock(ctx context.Context, id string) (func(), error) {
	lockCtx := ctx
	if c.lockTimeout > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, c.lockTimeout)
		defer cancel()
	}

	unlock, err := c.locker.Lock(lockCtx, id)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s", ErrSessionBusy, id)
	}
	return unlock, nil
}

// withBrowser runs fn while holding one of the global browser slots.
func (c *Coordinator) withBrowser(ctx context.Context, fn func() error) error {
	if err := c.browsers.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.browsers.Release(1)
	return fn()
}

func (c *Coordinator) transition(record *session.Record, target state.Phase) error {
	if !record.Phase.CanTransitionTo(target) {
		return state.NewTransitionError(record.Phase, target, "")
	}
	return nil
}

func (c *Coordinator) publishEvent(e event.Event) {
	if c.eventBus != nil {
		c.eventBus.Publish(e)
	}
}

// auditedEvents are the lifecycle events the coordinator writes to the audit log.
var auditedEvents = []string{
	"LoginSucceeded",
	"OtpSubmitted",
	"PhaseChanged",
	"CartPopulated",
	"VariantSkipped",
	"AutomationFailed",
}

// handleEvent writes an audit line for a lifecycle event.
func (c *Coordinator) handleEvent(e event.Event) {
	logger := c.logger.With("event", e.EventName())
	if se, ok := e.(event.SessionEvent); ok && se.SessionID() != "" {
		logger = logger.With("session_id", se.SessionID())
	}

	switch evt := e.(type) {
	case *event.LoginSucceeded:
		logger.Info("Audit", "platform", evt.Platform)
	case *event.PhaseChanged:
		logger.Info("Audit", "from", evt.OldPhase, "to", evt.NewPhase)
	case *event.CartPopulated:
		logger.Info("Audit", "products", evt.Products, "final_price", evt.FinalPrice)
	case *event.VariantSkipped:
		logger.Warn("Audit", "url", evt.ProductURL, "variant", evt.Variant, "reason", evt.Reason)
	case *event.AutomationFailed:
		logger.Warn("Audit", "operation", evt.Operation, "error", evt.Error)
	default:
		logger.Info("Audit")
	}
}
