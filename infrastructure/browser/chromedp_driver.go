package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
)

// ChromeDPDriver implements Driver using chromedp.
type ChromeDPDriver struct {
	config      *DriverConfig
	allocCtx    context.Context
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
	mu          sync.Mutex
	running     bool
}

// NewChromeDPDriver creates a new ChromeDP-based browser driver.
func NewChromeDPDriver(config *DriverConfig) *ChromeDPDriver {
	if config == nil {
		config = DefaultDriverConfig()
	}
	return &ChromeDPDriver{
		config: config,
	}
}

// buildExecAllocatorOptions builds chromedp options from config.
func (d *ChromeDPDriver) buildExecAllocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", d.config.Headless),
		chromedp.Flag("hide-scrollbars", d.config.HideScrollbars),
		chromedp.Flag("mute-audio", d.config.MuteAudio),
		chromedp.Flag("disable-gpu", d.config.DisableGPU),
		chromedp.Flag("disable-web-security", d.config.DisableWebSecurity),
		chromedp.Flag("disable-features", "IsolateOrigins,site-per-process"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("enable-automation", false),
		chromedp.WindowSize(d.config.WindowWidth, d.config.WindowHeight),
	)

	if d.config.NoSandbox {
		opts = append(opts, chromedp.NoSandbox, chromedp.Flag("disable-setuid-sandbox", true))
	}
	if d.config.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(d.config.ExecPath))
	}
	if d.config.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(d.config.UserDataDir))
	}

	return opts
}

// blockPatterns pauses only the blocked resource types; everything else is never intercepted.
func (d *ChromeDPDriver) blockPatterns() []*fetch.RequestPattern {
	patterns := make([]*fetch.RequestPattern, 0, len(d.config.BlockedResourceTypes))
	for _, t := range d.config.BlockedResourceTypes {
		patterns = append(patterns, &fetch.RequestPattern{
			URLPattern:   "*",
			ResourceType: network.ResourceType(t),
			RequestStage: fetch.RequestStageRequest,
		})
	}
	return patterns
}

// Start launches the browser process and prepares the page.
func (d *ChromeDPDriver) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return fmt.Errorf("browser already running")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// The allocator is rooted at context.Background() so the browser lifecycle
	// is owned by Stop, not by the caller's context.
	d.allocCtx, d.allocCancel = chromedp.NewExecAllocator(
		context.Background(),
		d.buildExecAllocatorOptions()...,
	)
	d.ctx, d.cancel = chromedp.NewContext(d.allocCtx)

	var setup []chromedp.Action
	if len(d.config.BlockedResourceTypes) > 0 {
		browserCtx := d.ctx
		chromedp.ListenTarget(browserCtx, func(ev interface{}) {
			e, ok := ev.(*fetch.EventRequestPaused)
			if !ok {
				return
			}
			go d.resolvePaused(browserCtx, e)
		})
		setup = append(setup, fetch.Enable().WithPatterns(d.blockPatterns()))
	}
	if d.config.BypassCSP {
		setup = append(setup, page.SetBypassCSP(true))
	}

	// The first Run allocates the browser and binds the process to the context
	// it is given, so it must be the browser context itself and not a derived one.
	if err := chromedp.Run(d.ctx, setup...); err != nil {
		d.cleanup()
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	d.running = true
	return nil
}

// resolvePaused aborts blocked resource types and lets anything else through.
func (d *ChromeDPDriver) resolvePaused(browserCtx context.Context, e *fetch.EventRequestPaused) {
	c := chromedp.FromContext(browserCtx)
	if c == nil || c.Target == nil {
		return
	}
	execCtx := cdp.WithExecutor(browserCtx, c.Target)

	if d.config.ShouldBlock(string(e.ResourceType)) {
		_ = fetch.FailRequest(e.RequestID, network.ErrorReasonBlockedByClient).Do(execCtx)
		return
	}
	_ = fetch.ContinueRequest(e.RequestID).Do(execCtx)
}

// Stop closes the browser and releases resources.
func (d *ChromeDPDriver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return nil
	}

	d.cleanup()
	return nil
}

func (d *ChromeDPDriver) cleanup() {
	d.running = false
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.allocCancel != nil {
		d.allocCancel()
		d.allocCancel = nil
	}
	d.ctx = nil
	d.allocCtx = nil
}

// IsRunning returns true if the browser is active.
func (d *ChromeDPDriver) IsRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// run executes actions against the browser context while honouring the
// caller's deadline and cancellation.
func (d *ChromeDPDriver) run(ctx context.Context, actions ...chromedp.Action) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	d.mu.Lock()
	browserCtx := d.ctx
	running := d.running
	d.mu.Unlock()

	if !running || browserCtx == nil {
		return ErrNotRunning
	}

	execCtx, cancel := context.WithCancel(browserCtx)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		if time.Until(deadline) <= 0 {
			return context.DeadlineExceeded
		}
		var cancelDeadline context.CancelFunc
		execCtx, cancelDeadline = context.WithDeadline(execCtx, deadline)
		defer cancelDeadline()
	}

	done := make(chan error, 1)
	go func() {
		done <- chromedp.Run(execCtx, actions...)
	}()

	select {
	case err := <-done:
		if err != nil && execCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
		}
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Navigate navigates to the specified URL.
func (d *ChromeDPDriver) Navigate(ctx context.Context, url string) error {
	return d.run(ctx, chromedp.Navigate(url))
}

// WaitVisible waits for an element to become visible.
func (d *ChromeDPDriver) WaitVisible(ctx context.Context, selector string) error {
	return d.run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

// WaitPresent waits for an element to be attached to the DOM.
func (d *ChromeDPDriver) WaitPresent(ctx context.Context, selector string) error {
	return d.run(ctx, chromedp.WaitReady(selector, chromedp.ByQuery))
}

// SendKeys sends keystrokes to an element.
func (d *ChromeDPDriver) SendKeys(ctx context.Context, selector, text string) error {
	return d.run(ctx, chromedp.SendKeys(selector, text, chromedp.ByQuery))
}

// ClickElement clicks on an element by selector.
func (d *ChromeDPDriver) ClickElement(ctx context.Context, selector string) error {
	return d.run(ctx, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible))
}

// Options lists every element matching selector.
func (d *ChromeDPDriver) Options(ctx context.Context, selector string) ([]Option, error) {
	var options []Option
	expr := fmt.Sprintf(optionsScript, jsString(selector))
	if err := d.run(ctx, chromedp.Evaluate(expr, &options)); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", selector, err)
	}
	return options, nil
}

// ClickNth clicks the index-th element matching selector.
func (d *ChromeDPDriver) ClickNth(ctx context.Context, selector string, index int) error {
	var clicked bool
	expr := fmt.Sprintf(clickNthScript, jsString(selector), index)
	if err := d.run(ctx, chromedp.Evaluate(expr, &clicked)); err != nil {
		return err
	}
	if !clicked {
		return fmt.Errorf("no element %d for %s", index, selector)
	}
	return nil
}

// InnerText returns the rendered text of the first element matching selector.
func (d *ChromeDPDriver) InnerText(ctx context.Context, selector string) (string, error) {
	var text string
	if err := d.run(ctx, chromedp.Text(selector, &text, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return text, nil
}

// OuterHTML returns the full document markup.
func (d *ChromeDPDriver) OuterHTML(ctx context.Context) (string, error) {
	var html string
	if err := d.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}
	return html, nil
}

// Location returns the current page URL.
func (d *ChromeDPDriver) Location(ctx context.Context) (string, error) {
	var url string
	if err := d.run(ctx, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

// GetCookies retrieves all browser cookies.
func (d *ChromeDPDriver) GetCookies(ctx context.Context) ([]Cookie, error) {
	var networkCookies []*network.Cookie
	if err := d.run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			networkCookies, err = storage.GetCookies().Do(ctx)
			return err
		}),
	); err != nil {
		return nil, fmt.Errorf("failed to get cookies: %w", err)
	}

	cookies := make([]Cookie, len(networkCookies))
	for i, nc := range networkCookies {
		cookies[i] = Cookie{
			Name:         nc.Name,
			Value:        nc.Value,
			Domain:       nc.Domain,
			Path:         nc.Path,
			Expires:      nc.Expires,
			HTTPOnly:     nc.HTTPOnly,
			Secure:       nc.Secure,
			Session:      nc.Session,
			SameSite:     string(nc.SameSite),
			Priority:     string(nc.Priority),
			SourceScheme: string(nc.SourceScheme),
			SourcePort:   int(nc.SourcePort),
		}
	}

	return cookies, nil
}

// SetCookies sets browser cookies.
func (d *ChromeDPDriver) SetCookies(ctx context.Context, cookies []Cookie) error {
	actions := make([]chromedp.Action, len(cookies))
	for i, c := range cookies {
		cookie := c
		actions[i] = chromedp.ActionFunc(func(ctx context.Context) error {
			setCookie := network.SetCookie(cookie.Name, cookie.Value).
				WithDomain(cookie.Domain).
				WithPath(cookie.Path).
				WithHTTPOnly(cookie.HTTPOnly).
				WithSecure(cookie.Secure)

			if !cookie.Session && cookie.Expires > 0 {
				sec, frac := math.Modf(cookie.Expires)
				expires := cdp.TimeSinceEpoch(time.Unix(int64(sec), int64(frac*1e9)))
				setCookie = setCookie.WithExpires(&expires)
			}
			if cookie.SameSite != "" {
				setCookie = setCookie.WithSameSite(network.CookieSameSite(cookie.SameSite))
			}
			if cookie.Priority != "" {
				setCookie = setCookie.WithPriority(network.CookiePriority(cookie.Priority))
			}
			if cookie.SourceScheme != "" {
				setCookie = setCookie.WithSourceScheme(network.CookieSourceScheme(cookie.SourceScheme))
			}
			if cookie.SourcePort > 0 {
				setCookie = setCookie.WithSourcePort(int64(cookie.SourcePort))
			}

			return setCookie.Do(ctx)
		})
	}

	if err := d.run(ctx, actions...); err != nil {
		return fmt.Errorf("failed to set cookies: %w", err)
	}
	return nil
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// Ensure ChromeDPDriver implements Driver
var _ Driver = (*ChromeDPDriver)(nil)
