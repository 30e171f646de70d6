// Package browser provides browser automation infrastructure.
package browser

import (
	"context"
	"errors"
	"strings"
)

// ErrNotRunning is returned by every primitive called outside Start/Stop.
var ErrNotRunning = errors.New("browser not running")

// Driver defines the interface for browser automation.
// This abstraction allows for different browser engines (ChromeDP, Rod).
// A Driver is disposable: one automation call starts it, uses it, and stops it.
type Driver interface {
	// Start launches the browser with interception and CSP bypass applied.
	Start(ctx context.Context) error

	// Stop closes the browser and releases the process.
	Stop() error

	// IsRunning returns true if the browser is active.
	IsRunning() bool

	// Navigate navigates to the specified URL and waits for the load event.
	Navigate(ctx context.Context, url string) error

	// WaitVisible waits for an element to become visible.
	WaitVisible(ctx context.Context, selector string) error

	// WaitPresent waits for an element to be attached to the DOM.
	WaitPresent(ctx context.Context, selector string) error

	// SendKeys types text into an element.
	SendKeys(ctx context.Context, selector, text string) error

	// ClickElement clicks on an element by selector.
	ClickElement(ctx context.Context, selector string) error

	// Options lists every element matching selector with its text and visibility.
	Options(ctx context.Context, selector string) ([]Option, error)

	// ClickNth clicks the index-th element matching selector.
	ClickNth(ctx context.Context, selector string, index int) error

	// InnerText returns the rendered text of the first element matching selector.
	InnerText(ctx context.Context, selector string) (string, error)

	// OuterHTML returns the full document markup.
	OuterHTML(ctx context.Context) (string, error)

	// Location returns the current page URL.
	Location(ctx context.Context) (string, error)

	// GetCookies retrieves all browser cookies.
	GetCookies(ctx context.Context) ([]Cookie, error)

	// SetCookies sets browser cookies.
	SetCookies(ctx context.Context, cookies []Cookie) error
}

// Option is one element found by Options.
type Option struct {
	Index   int    `json:"index"`
	Text    string `json:"text"`
	Visible bool   `json:"visible"`
}

// Cookie represents a browser cookie.
type Cookie struct {
	Name         string
	Value        string
	Domain       string
	Path         string
	Expires      float64
	HTTPOnly     bool
	Secure       bool
	Session      bool
	SameSite     string
	Priority     string
	SourceScheme string
	SourcePort   int
}

// Engine selects the Driver implementation.
type Engine string

const (
	EngineChromeDP Engine = "chromedp"
	EngineRod      Engine = "rod"
)

// Resource types as reported by the DevTools protocol.
const (
	ResourceStylesheet = "Stylesheet"
	ResourceImage      = "Image"
	ResourceFont       = "Font"
	ResourceDocument   = "Document"
	ResourceScript     = "Script"
	ResourceXHR        = "XHR"
	ResourceFetch      = "Fetch"
)

// DefaultBlockedResourceTypes are aborted by request interception.
// Blocking them only saves bandwidth; none of them carries a selector.
var DefaultBlockedResourceTypes = []string{ResourceStylesheet, ResourceFont, ResourceImage}

// DriverConfig holds configuration for browser drivers.
type DriverConfig struct {
	// Engine picks the implementation returned by New.
	Engine Engine

	// Headless runs the browser without a visible window.
	Headless bool

	// WindowWidth is the browser window width.
	WindowWidth int

	// WindowHeight is the browser window height.
	WindowHeight int

	// DisableGPU disables GPU acceleration.
	DisableGPU bool

	// MuteAudio mutes browser audio.
	MuteAudio bool

	// HideScrollbars hides scrollbars.
	HideScrollbars bool

	// DisableWebSecurity disables web security (allows cross-origin).
	DisableWebSecurity bool

	// NoSandbox disables the Chrome sandbox, needed in most containers.
	NoSandbox bool

	// BypassCSP disables Content-Security-Policy enforcement on the page.
	BypassCSP bool

	// BlockedResourceTypes are aborted before they hit the network.
	BlockedResourceTypes []string

	// ExecPath overrides the browser binary.
	ExecPath string

	// UserDataDir specifies a custom user data directory.
	UserDataDir string
}

// DefaultDriverConfig returns default browser configuration.
func DefaultDriverConfig() *DriverConfig {
	return &DriverConfig{
		Engine:               EngineChromeDP,
		Headless:             true,
		WindowWidth:          1280,
		WindowHeight:         900,
		DisableGPU:           true,
		MuteAudio:            true,
		HideScrollbars:       true,
		DisableWebSecurity:   true,
		NoSandbox:            true,
		BypassCSP:            true,
		BlockedResourceTypes: append([]string(nil), DefaultBlockedResourceTypes...),
	}
}

// ShouldBlock reports whether requests of the given resource type are aborted.
func (c *DriverConfig) ShouldBlock(resourceType string) bool {
	for _, t := range c.BlockedResourceTypes {
		if strings.EqualFold(t, resourceType) {
			return true
		}
	}
	return false
}

// New returns a Driver for the configured engine.
func New(config *DriverConfig) Driver {
	if config == nil {
		config = DefaultDriverConfig()
	}
	if config.Engine == EngineRod {
		return NewRodDriver(config)
	}
	return NewChromeDPDriver(config)
}

// optionsScript lists the elements matching a selector for Options.
const optionsScript = `Array.from(document.querySelectorAll(%s)).map((n, i) => ({
	index: i,
	text: n.textContent || "",
	visible: !!(n.offsetWidth || n.offsetHeight || n.getClientRects().length)
}))`

// clickNthScript clicks one element by index and reports whether it existed.
const clickNthScript = `(() => {
	const n = document.querySelectorAll(%s)[%d];
	if (!n) return false;
	n.click();
	return true;
})()`
