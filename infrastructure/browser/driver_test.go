package browser

import (
	"context"
	"errors"
	"testing"
)

func TestDefaultDriverConfig(t *testing.T) {
	config := DefaultDriverConfig()

	if config == nil {
		t.Fatal("DefaultDriverConfig returned nil")
	}

	if config.Engine != EngineChromeDP {
		t.Errorf("Engine = %v, want %v", config.Engine, EngineChromeDP)
	}

	if config.Headless != true {
		t.Errorf("Headless = %v, want true", config.Headless)
	}

	if config.BypassCSP != true {
		t.Errorf("BypassCSP = %v, want true", config.BypassCSP)
	}

	if config.DisableWebSecurity != true {
		t.Errorf("DisableWebSecurity = %v, want true", config.DisableWebSecurity)
	}

	if len(config.BlockedResourceTypes) != 3 {
		t.Errorf("BlockedResourceTypes = %v, want stylesheet/font/image", config.BlockedResourceTypes)
	}

	// The default list must not alias the package-level slice.
	config.BlockedResourceTypes[0] = "Document"
	if DefaultBlockedResourceTypes[0] != ResourceStylesheet {
		t.Error("DefaultDriverConfig aliases DefaultBlockedResourceTypes")
	}
}

func TestDriverConfig_ShouldBlock(t *testing.T) {
	config := DefaultDriverConfig()

	tests := []struct {
		resourceType string
		expected     bool
	}{
		{ResourceStylesheet, true},
		{ResourceFont, true},
		{ResourceImage, true},
		{"image", true},
		// Anything that can carry markup, script or data the selectors depend on
		// must never be blocked.
		{ResourceDocument, false},
		{ResourceScript, false},
		{ResourceXHR, false},
		{ResourceFetch, false},
		{"Other", false},
	}

	for _, tt := range tests {
		t.Run(tt.resourceType, func(t *testing.T) {
			if got := config.ShouldBlock(tt.resourceType); got != tt.expected {
				t.Errorf("ShouldBlock(%q) = %v, want %v", tt.resourceType, got, tt.expected)
			}
		})
	}

	none := &DriverConfig{}
	if none.ShouldBlock(ResourceImage) {
		t.Error("empty block list should not block anything")
	}
}

func TestNew(t *testing.T) {
	t.Run("default engine", func(t *testing.T) {
		if _, ok := New(nil).(*ChromeDPDriver); !ok {
			t.Error("New(nil) should return a ChromeDPDriver")
		}
	})

	t.Run("rod engine", func(t *testing.T) {
		config := DefaultDriverConfig()
		config.Engine = EngineRod
		if _, ok := New(config).(*RodDriver); !ok {
			t.Error("New(rod) should return a RodDriver")
		}
	})
}

func TestNewChromeDPDriver(t *testing.T) {
	t.Run("with nil config", func(t *testing.T) {
		driver := NewChromeDPDriver(nil)
		if driver == nil {
			t.Fatal("NewChromeDPDriver returned nil")
		}
		if driver.config == nil {
			t.Fatal("driver.config is nil")
		}
	})

	t.Run("with custom config", func(t *testing.T) {
		config := &DriverConfig{
			Headless:    false,
			WindowWidth: 1920,
		}
		driver := NewChromeDPDriver(config)
		if driver.config.Headless != false {
			t.Error("Custom config not applied")
		}
		if driver.config.WindowWidth != 1920 {
			t.Error("Custom config not applied")
		}
	})
}

func TestChromeDPDriver_BlockPatterns(t *testing.T) {
	driver := NewChromeDPDriver(DefaultDriverConfig())
	patterns := driver.blockPatterns()

	if len(patterns) != 3 {
		t.Fatalf("patterns = %d, want 3", len(patterns))
	}
	for _, p := range patterns {
		if p.URLPattern != "*" {
			t.Errorf("URLPattern = %q, want *", p.URLPattern)
		}
		if !driver.config.ShouldBlock(string(p.ResourceType)) {
			t.Errorf("pattern for %s intercepts a resource type that is not blocked", p.ResourceType)
		}
	}
}

func TestDrivers_NotStarted(t *testing.T) {
	drivers := map[string]Driver{
		"chromedp": NewChromeDPDriver(nil),
		"rod":      NewRodDriver(nil),
	}

	for name, driver := range drivers {
		t.Run(name, func(t *testing.T) {
			if driver.IsRunning() {
				t.Error("IsRunning() should return false before Start()")
			}

			// Should not panic or error when stopping a driver that was never started
			if err := driver.Stop(); err != nil {
				t.Errorf("Stop() returned error: %v", err)
			}

			ctx := context.Background()
			if err := driver.Navigate(ctx, "https://example.com"); !errors.Is(err, ErrNotRunning) {
				t.Errorf("Navigate() error = %v, want ErrNotRunning", err)
			}
			if _, err := driver.GetCookies(ctx); !errors.Is(err, ErrNotRunning) {
				t.Errorf("GetCookies() error = %v, want ErrNotRunning", err)
			}
		})
	}
}

func TestJSString(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"div.tw-text-300", `"div.tw-text-300"`},
		{`a[href="x"]`, `"a[href=\"x\"]"`},
	}
	for _, tt := range tests {
		if got := jsString(tt.in); got != tt.want {
			t.Errorf("jsString(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
