package platform

import (
	"errors"
	"testing"
	"testing/fstest"

	"grocer-go/resources"
)

const testEntry = `
id: testmart
name: Test Mart
base_url: https://shop.example.com
selectors:
  login_button: "#login"
  phone_input: "#phone"
  submit_button: "#submit"
  otp_input: "#otp"
  variant_selector: "#variants"
  variant_container: "#variant-list"
  variant_option: ".variant"
  add_to_cart_button: "#add"
  cart_page: https://shop.example.com/cart
  price_details: "#total"
`

func TestLoader_LoadBytes(t *testing.T) {
	registry := NewRegistry()
	cfg, err := NewLoader(registry).LoadBytes([]byte(testEntry))
	if err != nil {
		t.Fatalf("LoadBytes() error = %v", err)
	}

	if cfg.ID != "testmart" {
		t.Errorf("ID = %v, want testmart", cfg.ID)
	}
	if cfg.BaseURL != "https://shop.example.com" {
		t.Errorf("BaseURL = %v, want https://shop.example.com", cfg.BaseURL)
	}
	if cfg.Selectors.VariantOption != ".variant" {
		t.Errorf("VariantOption = %v, want .variant", cfg.Selectors.VariantOption)
	}
	if !cfg.Selectors.SupportsVariants() {
		t.Error("SupportsVariants() = false, want true")
	}
	if !registry.Has("testmart") {
		t.Error("entry was not registered")
	}
}

func TestLoader_LoadFromFS(t *testing.T) {
	fsys := fstest.MapFS{
		"platforms/testmart.yaml": {Data: []byte(testEntry)},
		"platforms/README.md":     {Data: []byte("ignored")},
	}

	registry := NewRegistry()
	if err := NewLoader(registry).LoadFromFS(fsys); err != nil {
		t.Fatalf("LoadFromFS() error = %v", err)
	}
	if registry.Count() != 1 {
		t.Errorf("Count() = %d, want 1", registry.Count())
	}
}

func TestLoader_RejectsIncompleteEntry(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "missing otp input",
			yaml: "id: x\nbase_url: https://x\nselectors:\n  login_button: a\n  phone_input: b\n  submit_button: c\n  add_to_cart_button: d\n  cart_page: e\n  price_details: f\n",
		},
		{
			name: "missing base url",
			yaml: "id: x\nselectors:\n  login_button: a\n",
		},
		{
			name: "partial variant picker",
			yaml: "id: x\nbase_url: https://x\nselectors:\n  login_button: a\n  phone_input: b\n  submit_button: c\n  otp_input: o\n  add_to_cart_button: d\n  cart_page: e\n  price_details: f\n  variant_selector: v\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewRegistry()
			_, err := NewLoader(registry).LoadBytes([]byte(tt.yaml))
			if !errors.Is(err, ErrMissingSelector) {
				t.Errorf("LoadBytes() error = %v, want ErrMissingSelector", err)
			}
			if registry.Count() != 0 {
				t.Error("invalid entry was registered")
			}
		})
	}
}

func TestRegistry_Lookup_Unknown(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Lookup("nowhere")
	if !errors.Is(err, ErrUnknownPlatform) {
		t.Errorf("Lookup() error = %v, want ErrUnknownPlatform", err)
	}

	_, err = registry.Selectors("nowhere")
	if !errors.Is(err, ErrUnknownPlatform) {
		t.Errorf("Selectors() error = %v, want ErrUnknownPlatform", err)
	}
}

func TestEmbeddedCatalog(t *testing.T) {
	registry := NewRegistry()
	if err := NewLoader(registry).LoadFromFS(resources.PlatformFiles); err != nil {
		t.Fatalf("LoadFromFS() error = %v", err)
	}

	ids := registry.List()
	want := []ID{Blinkit, Instamart, Zepto}
	if len(ids) != len(want) {
		t.Fatalf("List() = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("List()[%d] = %v, want %v", i, ids[i], want[i])
		}
	}

	blinkit, err := registry.Lookup(Blinkit)
	if err != nil {
		t.Fatalf("Lookup(blinkit) error = %v", err)
	}
	if blinkit.BaseURL != "https://www.blinkit.com" {
		t.Errorf("blinkit BaseURL = %v", blinkit.BaseURL)
	}
	if blinkit.Selectors.VariantOption != "div.tw-text-300" {
		t.Errorf("blinkit VariantOption = %v, want div.tw-text-300", blinkit.Selectors.VariantOption)
	}

	zepto, _ := registry.Lookup(Zepto)
	if zepto.Selectors.SupportsVariants() {
		t.Error("zepto should not support variants")
	}
}
