package platform

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// yamlPlatform is the YAML structure of one catalog entry.
type yamlPlatform struct {
	ID        string        `yaml:"id"`
	Name      string        `yaml:"name"`
	BaseURL   string        `yaml:"base_url"`
	Selectors yamlSelectors `yaml:"selectors"`
}

type yamlSelectors struct {
	LoginButton      string `yaml:"login_button"`
	PhoneInput       string `yaml:"phone_input"`
	SubmitButton     string `yaml:"submit_button"`
	OtpInput         string `yaml:"otp_input"`
	VariantSelector  string `yaml:"variant_selector"`
	VariantContainer string `yaml:"variant_container"`
	VariantOption    string `yaml:"variant_option"`
	AddToCartButton  string `yaml:"add_to_cart_button"`
	CartPage         string `yaml:"cart_page"`
	PriceDetails     string `yaml:"price_details"`
}

// Loader reads catalog entries into a registry.
type Loader struct {
	registry *Registry
}

// NewLoader creates a new catalog loader that populates the given registry.
func NewLoader(registry *Registry) *Loader {
	return &Loader{registry: registry}
}

// LoadFromFS loads catalog entries from an embedded or real filesystem.
// It expects one YAML file per platform in a "platforms" subdirectory.
func (l *Loader) LoadFromFS(fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, "platforms")
	if err != nil {
		return fmt.Errorf("failed to read platforms directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		if err := l.loadFile(fsys, "platforms/"+entry.Name()); err != nil {
			return err
		}
	}

	return nil
}

// LoadBytes parses a single catalog entry and registers it.
func (l *Loader) LoadBytes(data []byte) (*Config, error) {
	var yp yamlPlatform
	if err := yaml.Unmarshal(data, &yp); err != nil {
		return nil, err
	}

	cfg := convertYAMLPlatform(&yp)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	l.registry.Register(cfg)
	return cfg, nil
}

func (l *Loader) loadFile(fsys fs.FS, path string) error {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return fmt.Errorf("failed to read platform file %s: %w", path, err)
	}

	if _, err := l.LoadBytes(data); err != nil {
		return fmt.Errorf("failed to load platform file %s: %w", path, err)
	}
	return nil
}

func convertYAMLPlatform(yp *yamlPlatform) *Config {
	return &Config{
		ID:      ID(yp.ID),
		Name:    yp.Name,
		BaseURL: yp.BaseURL,
		Selectors: Selectors{
			LoginButton:      yp.Selectors.LoginButton,
			PhoneInput:       yp.Selectors.PhoneInput,
			SubmitButton:     yp.Selectors.SubmitButton,
			OtpInput:         yp.Selectors.OtpInput,
			VariantSelector:  yp.Selectors.VariantSelector,
			VariantContainer: yp.Selectors.VariantContainer,
			VariantOption:    yp.Selectors.VariantOption,
			AddToCartButton:  yp.Selectors.AddToCartButton,
			CartPage:         yp.Selectors.CartPage,
			PriceDetails:     yp.Selectors.PriceDetails,
		},
	}
}
