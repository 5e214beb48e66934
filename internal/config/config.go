// internal/config/config.go
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/valpere/PageProbe/internal/browser"
	"github.com/valpere/PageProbe/internal/utils"
)

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(filename string) (*SuiteConfig, error) {
	if filename == "" {
		return nil, invalid("configuration filename cannot be empty")
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, invalid("configuration file not found: %s", filename)
		}
		return nil, utils.NewError(utils.ErrCodeInvalidConfig, "failed to read configuration file").
			WithContext("file", filename).WithCause(err).Build()
	}

	return LoadFromBytes(data)
}

// LoadFromBytes loads configuration from YAML bytes. Keys missing from the
// document keep the values of Default.
func LoadFromBytes(data []byte) (*SuiteConfig, error) {
	if len(data) == 0 {
		return nil, invalid("configuration data cannot be empty")
	}

	expanded := expandEnvironmentVariables(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, utils.NewError(utils.ErrCodeInvalidConfig, "failed to parse YAML configuration").
			WithCause(err).Build()
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromReader loads configuration from an io.Reader
func LoadFromReader(reader io.Reader) (*SuiteConfig, error) {
	if reader == nil {
		return nil, invalid("reader cannot be nil")
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, utils.NewError(utils.ErrCodeInvalidConfig, "failed to read from reader").WithCause(err).Build()
	}

	return LoadFromBytes(data)
}

// SaveToFile saves configuration to a YAML file
func SaveToFile(cfg *SuiteConfig, filename string) error {
	if cfg == nil {
		return invalid("configuration cannot be nil")
	}

	if filename == "" {
		return invalid("filename cannot be empty")
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration to YAML: %w", err)
	}

	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	return nil
}

// Default returns the configuration of the xkcd About page suite.
func Default() *SuiteConfig {
	return &SuiteConfig{
		Name:        "xkcd-about",
		HomeURL:     "https://xkcd.com/",
		AboutURL:    "https://xkcd.com/about",
		WaitTimeout: 10 * time.Second,
		Browser:     *browser.DefaultConfig(),
		Expectations: Expectations{
			Title: "xkcd - A webcomic",
			NavigationLink: LinkExpectation{
				Text:        "About",
				Destination: "https://xkcd.com/about/",
				Containers:  []string{"#topContainer", "#topLeft"},
			},
			Styles: []StyleCheck{
				{
					Name:     "background",
					Selector: "body",
					Properties: []PropertyValue{
						{Property: "background-color", Value: "rgb(150, 168, 200)", Message: "Wrong background color"},
					},
				},
				{
					Name:     "background_textbox",
					Selector: "body",
					Properties: []PropertyValue{
						{Property: "background-color", Value: "rgb(150, 168, 200)", Message: "Wrong background color"},
					},
				},
				{
					Name:       "css",
					Selector:   "div",
					Properties: boxProperties(),
				},
			},
			Tables:          []int{0, 1},
			ScrollTolerance: 1,
			BackLinkHref:    "/",
		},
		Log: utils.LogConfig{Level: "info"},
	}
}

func boxProperties() []PropertyValue {
	var props []PropertyValue
	for _, side := range []string{"left", "right", "top", "bottom"} {
		props = append(props, PropertyValue{Property: "border-" + side + "-width", Value: "1px"})
	}
	for _, side := range []string{"left", "right", "top", "bottom"} {
		props = append(props, PropertyValue{Property: "border-" + side + "-color", Value: "rgb(0, 0, 0)"})
	}
	for _, side := range []string{"left", "right", "top", "bottom"} {
		props = append(props, PropertyValue{Property: "padding-" + side, Value: "10px"})
	}
	for _, side := range []string{"left", "right", "bottom"} {
		props = append(props, PropertyValue{Property: "margin-" + side, Value: "5px"})
	}
	return props
}

// Local returns a configuration pointing at the replica served on addr
// (for example "127.0.0.1:8080").
func Local(addr string) *SuiteConfig {
	cfg := Default()
	cfg.Name = "xkcd-about-local"
	cfg.UseReplica(addr)
	return cfg
}

// UseReplica points the page URLs at the replica served on addr and drops
// the navigation interval, which only matters for the public site.
func (sc *SuiteConfig) UseReplica(addr string) {
	base := "http://" + addr
	sc.HomeURL = base + "/"
	sc.AboutURL = base + "/about"
	sc.Expectations.NavigationLink.Destination = base + "/about/"
	sc.Browser.NavigationInterval = 0
}

// GenerateTemplate generates a template configuration for the specified type
func GenerateTemplate(templateType string) SuiteConfig {
	switch strings.ToLower(templateType) {
	case "local":
		return *Local("127.0.0.1:8080")
	case "reports":
		cfg := Default()
		cfg.Outputs = []OutputConfig{
			{Format: FormatJSON, File: "results.json"},
			{Format: FormatJUnit, File: "results.xml"},
			{Format: FormatSQLite, DSN: "pageprobe.db", Table: "suite_results"},
		}
		cfg.Metrics.File = "pageprobe.prom"
		return *cfg
	default:
		return *Default()
	}
}

// Helper functions

// expandEnvironmentVariables substitutes environment variables in the configuration
func expandEnvironmentVariables(content string) string {
	return os.ExpandEnv(content)
}

// applyDefaults fills values that were explicitly zeroed in the document.
func applyDefaults(cfg *SuiteConfig) {
	if cfg.WaitTimeout == 0 {
		cfg.WaitTimeout = 10 * time.Second
	}

	defaults := browser.DefaultConfig()
	if cfg.Browser.Timeout == 0 {
		cfg.Browser.Timeout = defaults.Timeout
	}
	if cfg.Browser.ViewportWidth == 0 {
		cfg.Browser.ViewportWidth = defaults.ViewportWidth
	}
	if cfg.Browser.ViewportHeight == 0 {
		cfg.Browser.ViewportHeight = defaults.ViewportHeight
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	for i := range cfg.Outputs {
		cfg.Outputs[i].Format = strings.ToLower(cfg.Outputs[i].Format)
		if cfg.Outputs[i].Table == "" {
			cfg.Outputs[i].Table = "suite_results"
		}
	}
}

func invalid(format string, args ...interface{}) error {
	return utils.NewErrorf(utils.ErrCodeInvalidConfig, format, args...).Build()
}
