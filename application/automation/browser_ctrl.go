package automation

import (
	"context"
	"log/slog"
	"time"

	"grocer-go/domain/session"
	"grocer-go/infrastructure/browser"
)

// BrowserSession wraps one disposable browser process for a single automation call.
// Every primitive runs under its own step deadline so a missing selector fails instead of hanging.
type BrowserSession struct {
	driver      browser.Driver
	phase       string
	stepTimeout time.Duration
	navTimeout  time.Duration
	logger      *slog.Logger
}

// openBrowserSession starts a fresh driver within the navigation timeout.
// On error the driver has been stopped, or will be once a hung launch returns.
func openBrowserSession(ctx context.Context, opts *Options, phase string) (*BrowserSession, error) {
	driver := opts.NewDriver()

	launchCtx, cancel := context.WithTimeout(ctx, opts.NavigationTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- driver.Start(launchCtx) }()

	select {
	case err := <-done:
		if err != nil {
			_ = driver.Stop()
			return nil, newStepError(phase, "launch", "", err)
		}
	case <-launchCtx.Done():
		go func() {
			<-done
			_ = driver.Stop()
		}()
		return nil, newStepError(phase, "launch", "", launchCtx.Err())
	}

	return &BrowserSession{
		driver:      driver,
		phase:       phase,
		stepTimeout: opts.StepTimeout,
		navTimeout:  opts.NavigationTimeout,
		logger:      opts.Logger,
	}, nil
}

// Close stops the browser. It is safe to call more than once.
func (s *BrowserSession) Close() {
	if err := s.driver.Stop(); err != nil {
		s.logger.Error("Failed to stop browser", "phase", s.phase, "error", err)
	}
}

func (s *BrowserSession) step(ctx context.Context, name, selector string, timeout time.Duration, fn func(ctx context.Context) error) error {
	stepCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := fn(stepCtx); err != nil {
		return newStepError(s.phase, name, selector, err)
	}
	return nil
}

// Navigate loads url and waits for the load event.
func (s *BrowserSession) Navigate(ctx context.Context, url string) error {
	return s.step(ctx, "navigate", url, s.navTimeout, func(ctx context.Context) error {
		return s.driver.Navigate(ctx, url)
	})
}

// WaitVisible waits for selector to become visible.
func (s *BrowserSession) WaitVisible(ctx context.Context, selector string) error {
	return s.step(ctx, "wait", selector, s.stepTimeout, func(ctx context.Context) error {
		return s.driver.WaitVisible(ctx, selector)
	})
}

// WaitPresent waits for selector to be attached to the DOM.
func (s *BrowserSession) WaitPresent(ctx context.Context, selector string) error {
	return s.step(ctx, "wait", selector, s.stepTimeout, func(ctx context.Context) error {
		return s.driver.WaitPresent(ctx, selector)
	})
}

// Type sends text to selector.
func (s *BrowserSession) Type(ctx context.Context, selector, text string) error {
	return s.step(ctx, "type", selector, s.stepTimeout, func(ctx context.Context) error {
		return s.driver.SendKeys(ctx, selector, text)
	})
}

// Click clicks the first element matching selector.
func (s *BrowserSession) Click(ctx context.Context, selector string) error {
	return s.step(ctx, "click", selector, s.stepTimeout, func(ctx context.Context) error {
		return s.driver.ClickElement(ctx, selector)
	})
}

// Options lists the elements matching selector.
func (s *BrowserSession) Options(ctx context.Context, selector string) ([]browser.Option, error) {
	var options []browser.Option
	err := s.step(ctx, "list", selector, s.stepTimeout, func(ctx context.Context) error {
		var err error
		options, err = s.driver.Options(ctx, selector)
		return err
	})
	return options, err
}

// ClickNth clicks the index-th element matching selector.
func (s *BrowserSession) ClickNth(ctx context.Context, selector string, index int) error {
	return s.step(ctx, "click", selector, s.stepTimeout, func(ctx context.Context) error {
		return s.driver.ClickNth(ctx, selector, index)
	})
}

// Text returns the visible text of selector.
func (s *BrowserSession) Text(ctx context.Context, selector string) (string, error) {
	var text string
	err := s.step(ctx, "extract", selector, s.stepTimeout, func(ctx context.Context) error {
		var err error
		text, err = s.driver.InnerText(ctx, selector)
		return err
	})
	return text, err
}

// Restore replays cookies into the browser before the first navigation.
func (s *BrowserSession) Restore(ctx context.Context, cookies []session.Cookie) error {
	if len(cookies) == 0 {
		return nil
	}
	return s.step(ctx, "restore cookies", "", s.stepTimeout, func(ctx context.Context) error {
		return s.driver.SetCookies(ctx, toBrowserCookies(cookies))
	})
}

// Capture reads the current cookies, markup and location.
func (s *BrowserSession) Capture(ctx context.Context) (session.Snapshot, error) {
	var snap session.Snapshot
	err := s.step(ctx, "capture", "", s.stepTimeout, func(ctx context.Context) error {
		cookies, err := s.driver.GetCookies(ctx)
		if err != nil {
			return err
		}
		dom, err := s.driver.OuterHTML(ctx)
		if err != nil {
			return err
		}
		url, err := s.driver.Location(ctx)
		if err != nil {
			return err
		}
		snap = session.Snapshot{Cookies: fromBrowserCookies(cookies), DOM: dom, URL: url}
		return nil
	})
	return snap, err
}

func toBrowserCookies(cookies []session.Cookie) []browser.Cookie {
	out := make([]browser.Cookie, len(cookies))
	for i, c := range cookies {
		out[i] = browser.Cookie(c)
	}
	return out
}

func fromBrowserCookies(cookies []browser.Cookie) []session.Cookie {
	out := make([]session.Cookie, len(cookies))
	for i, c := range cookies {
		out[i] = session.Cookie(c)
	}
	return out
}
