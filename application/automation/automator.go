// Package automation drives the platform front-ends through disposable browser sessions.
// Each call launches its own browser, acts, captures the resulting identity and closes the
// browser on every exit path.
package automation

import (
	"log/slog"
	"time"

	"grocer-go/domain/platform"
	"grocer-go/infrastructure/browser"
)

// DriverFactory creates browser drivers.
type DriverFactory func() browser.Driver

// Options holds what every automator needs.
type Options struct {
	Platforms         *platform.Registry
	NewDriver         DriverFactory
	Settler           Settler
	StepTimeout       time.Duration
	NavigationTimeout time.Duration
	Logger            *slog.Logger
}

// Default step bounds.
const (
	DefaultStepTimeout       = 20 * time.Second
	DefaultNavigationTimeout = 45 * time.Second
)

func (o *Options) withDefaults() *Options {
	opts := *o
	if opts.NewDriver == nil {
		opts.NewDriver = func() browser.Driver { return browser.New(nil) }
	}
	if opts.Settler == nil {
		opts.Settler = NewFixedSettler(nil)
	}
	if opts.StepTimeout <= 0 {
		opts.StepTimeout = DefaultStepTimeout
	}
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = DefaultNavigationTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Platforms == nil {
		opts.Platforms = platform.NewRegistry()
	}
	return &opts
}

// Automators bundles the three phase automators built from one Options.
type Automators struct {
	Login *LoginAutomator
	Otp   *OtpAutomator
	Cart  *CartAutomator
}

// New builds all three automators.
func New(opts *Options) *Automators {
	o := opts.withDefaults()
	return &Automators{
		Login: &LoginAutomator{opts: o},
		Otp:   &OtpAutomator{opts: o},
		Cart:  &CartAutomator{opts: o},
	}
}
