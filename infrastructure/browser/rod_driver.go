package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// RodDriver implements Driver using go-rod.
type RodDriver struct {
	config   *DriverConfig
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	router   *rod.HijackRouter
	mu       sync.Mutex
	running  bool
}

// NewRodDriver creates a new rod-based browser driver.
func NewRodDriver(config *DriverConfig) *RodDriver {
	if config == nil {
		config = DefaultDriverConfig()
	}
	return &RodDriver{config: config}
}

func (d *RodDriver) buildLauncher() *launcher.Launcher {
	l := launcher.New().
		Headless(d.config.Headless).
		NoSandbox(d.config.NoSandbox).
		Set("window-size", fmt.Sprintf("%d,%d", d.config.WindowWidth, d.config.WindowHeight)).
		Set("disable-features", "IsolateOrigins,site-per-process")

	if d.config.DisableWebSecurity {
		l = l.Set("disable-web-security")
	}
	if d.config.MuteAudio {
		l = l.Set("mute-audio")
	}
	if d.config.DisableGPU {
		l = l.Set("disable-gpu")
	}
	if d.config.HideScrollbars {
		l = l.Set("hide-scrollbars")
	}
	if d.config.ExecPath != "" {
		l = l.Bin(d.config.ExecPath)
	}
	if d.config.UserDataDir != "" {
		l = l.UserDataDir(d.config.UserDataDir)
	}
	return l
}

// Start launches the browser process and prepares the page.
func (d *RodDriver) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return fmt.Errorf("browser already running")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	d.launcher = d.buildLauncher()
	controlURL, err := d.launcher.Launch()
	if err != nil {
		d.cleanup()
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	d.browser = rod.New().ControlURL(controlURL)
	if err := d.browser.Connect(); err != nil {
		d.cleanup()
		return fmt.Errorf("failed to connect to browser: %w", err)
	}

	d.page, err = d.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		d.cleanup()
		return fmt.Errorf("failed to open page: %w", err)
	}

	if d.config.BypassCSP {
		if err := (proto.PageSetBypassCSP{Enabled: true}).Call(d.page); err != nil {
			d.cleanup()
			return fmt.Errorf("failed to bypass CSP: %w", err)
		}
	}

	if len(d.config.BlockedResourceTypes) > 0 {
		d.router = d.page.HijackRequests()
		for _, t := range d.config.BlockedResourceTypes {
			if err := d.router.Add("*", proto.NetworkResourceType(t), func(h *rod.Hijack) {
				h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			}); err != nil {
				d.cleanup()
				return fmt.Errorf("failed to block %s requests: %w", t, err)
			}
		}
		go d.router.Run()
	}

	d.running = true
	return nil
}

// Stop closes the browser and releases resources.
func (d *RodDriver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return nil
	}

	d.cleanup()
	return nil
}

func (d *RodDriver) cleanup() {
	d.running = false
	if d.router != nil {
		_ = d.router.Stop()
		d.router = nil
	}
	if d.browser != nil {
		_ = d.browser.Close()
		d.browser = nil
	}
	if d.launcher != nil {
		d.launcher.Kill()
		d.launcher.Cleanup()
		d.launcher = nil
	}
	d.page = nil
}

// IsRunning returns true if the browser is active.
func (d *RodDriver) IsRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// pageFor returns the page bound to the caller's context.
func (d *RodDriver) pageFor(ctx context.Context) (*rod.Page, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	d.mu.Lock()
	p := d.page
	running := d.running
	d.mu.Unlock()

	if !running || p == nil {
		return nil, ErrNotRunning
	}
	return p.Context(ctx), nil
}

// Navigate navigates to the specified URL.
func (d *RodDriver) Navigate(ctx context.Context, url string) error {
	p, err := d.pageFor(ctx)
	if err != nil {
		return err
	}
	if err := p.Navigate(url); err != nil {
		return err
	}
	return p.WaitLoad()
}

// WaitVisible waits for an element to become visible.
func (d *RodDriver) WaitVisible(ctx context.Context, selector string) error {
	p, err := d.pageFor(ctx)
	if err != nil {
		return err
	}
	el, err := p.Element(selector)
	if err != nil {
		return err
	}
	return el.WaitVisible()
}

// WaitPresent waits for an element to be attached to the DOM.
func (d *RodDriver) WaitPresent(ctx context.Context, selector string) error {
	p, err := d.pageFor(ctx)
	if err != nil {
		return err
	}
	_, err = p.Element(selector)
	return err
}

// SendKeys sends keystrokes to an element.
func (d *RodDriver) SendKeys(ctx context.Context, selector, text string) error {
	p, err := d.pageFor(ctx)
	if err != nil {
		return err
	}
	el, err := p.Element(selector)
	if err != nil {
		return err
	}
	return el.Input(text)
}

// ClickElement clicks on an element by selector.
func (d *RodDriver) ClickElement(ctx context.Context, selector string) error {
	p, err := d.pageFor(ctx)
	if err != nil {
		return err
	}
	el, err := p.Element(selector)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

// Options lists every element matching selector.
func (d *RodDriver) Options(ctx context.Context, selector string) ([]Option, error) {
	p, err := d.pageFor(ctx)
	if err != nil {
		return nil, err
	}
	els, err := p.Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", selector, err)
	}

	options := make([]Option, len(els))
	for i, el := range els {
		text, err := el.Text()
		if err != nil {
			return nil, err
		}
		visible, err := el.Visible()
		if err != nil {
			return nil, err
		}
		options[i] = Option{Index: i, Text: text, Visible: visible}
	}
	return options, nil
}

// ClickNth clicks the index-th element matching selector.
func (d *RodDriver) ClickNth(ctx context.Context, selector string, index int) error {
	p, err := d.pageFor(ctx)
	if err != nil {
		return err
	}
	els, err := p.Elements(selector)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(els) {
		return fmt.Errorf("no element %d for %s", index, selector)
	}
	_, err = els[index].Eval(`() => this.click()`)
	return err
}

// InnerText returns the rendered text of the first element matching selector.
func (d *RodDriver) InnerText(ctx context.Context, selector string) (string, error) {
	p, err := d.pageFor(ctx)
	if err != nil {
		return "", err
	}
	el, err := p.Element(selector)
	if err != nil {
		return "", err
	}
	return el.Text()
}

// OuterHTML returns the full document markup.
func (d *RodDriver) OuterHTML(ctx context.Context) (string, error) {
	p, err := d.pageFor(ctx)
	if err != nil {
		return "", err
	}
	html, err := p.HTML()
	if err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}
	return html, nil
}

// Location returns the current page URL.
func (d *RodDriver) Location(ctx context.Context) (string, error) {
	p, err := d.pageFor(ctx)
	if err != nil {
		return "", err
	}
	info, err := p.Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

// GetCookies retrieves all browser cookies.
func (d *RodDriver) GetCookies(ctx context.Context) ([]Cookie, error) {
	p, err := d.pageFor(ctx)
	if err != nil {
		return nil, err
	}
	networkCookies, err := p.Cookies(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get cookies: %w", err)
	}

	cookies := make([]Cookie, len(networkCookies))
	for i, nc := range networkCookies {
		cookies[i] = Cookie{
			Name:         nc.Name,
			Value:        nc.Value,
			Domain:       nc.Domain,
			Path:         nc.Path,
			Expires:      float64(nc.Expires),
			HTTPOnly:     nc.HTTPOnly,
			Secure:       nc.Secure,
			Session:      nc.Session,
			SameSite:     string(nc.SameSite),
			Priority:     string(nc.Priority),
			SourceScheme: string(nc.SourceScheme),
			SourcePort:   nc.SourcePort,
		}
	}
	return cookies, nil
}

// SetCookies sets browser cookies.
func (d *RodDriver) SetCookies(ctx context.Context, cookies []Cookie) error {
	p, err := d.pageFor(ctx)
	if err != nil {
		return err
	}

	params := make([]*proto.NetworkCookieParam, len(cookies))
	for i, c := range cookies {
		param := &proto.NetworkCookieParam{
			Name:         c.Name,
			Value:        c.Value,
			Domain:       c.Domain,
			Path:         c.Path,
			HTTPOnly:     c.HTTPOnly,
			Secure:       c.Secure,
			SameSite:     proto.NetworkCookieSameSite(c.SameSite),
			Priority:     proto.NetworkCookiePriority(c.Priority),
			SourceScheme: proto.NetworkCookieSourceScheme(c.SourceScheme),
		}
		if !c.Session && c.Expires > 0 {
			param.Expires = proto.TimeSinceEpoch(c.Expires)
		}
		params[i] = param
	}

	if err := p.SetCookies(params); err != nil {
		return fmt.Errorf("failed to set cookies: %w", err)
	}
	return nil
}

// Ensure RodDriver implements Driver
var _ Driver = (*RodDriver)(nil)
