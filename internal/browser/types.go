// internal/browser/types.go
package browser

import (
	"context"
	"time"
)

// Config defines browser automation configuration
type Config struct {
	Headless       bool          `yaml:"headless" json:"headless"`
	ChromePath     string        `yaml:"chrome_path,omitempty" json:"chrome_path,omitempty"`
	UserDataDir    string        `yaml:"user_data_dir,omitempty" json:"user_data_dir,omitempty"`
	Timeout        time.Duration `yaml:"timeout" json:"timeout"`
	ViewportWidth  int           `yaml:"viewport_width" json:"viewport_width"`
	ViewportHeight int           `yaml:"viewport_height" json:"viewport_height"`
	UserAgent      string        `yaml:"user_agent,omitempty" json:"user_agent,omitempty"`
	// NavigationInterval is the minimum time between two navigations, so a
	// full run stays polite towards the site under test. Zero disables it.
	NavigationInterval time.Duration `yaml:"navigation_interval" json:"navigation_interval"`
	NoSandbox          bool          `yaml:"no_sandbox" json:"no_sandbox"`
}

// DefaultConfig returns default browser configuration
func DefaultConfig() *Config {
	return &Config{
		Headless:           true,
		Timeout:            30 * time.Second,
		ViewportWidth:      1280,
		ViewportHeight:     800,
		NavigationInterval: 500 * time.Millisecond,
		NoSandbox:          true, // Required for Docker environments
	}
}

// Size is the rendered border-box size of an element in CSS pixels.
type Size struct {
	Width  int64
	Height int64
}

// Session is a controllable browser instance. Element lookups address the
// index-th match of a CSS selector in document order.
type Session interface {
	// Navigate loads url and waits for the document body
	Navigate(ctx context.Context, url string) error

	// Location returns the current document URL
	Location(ctx context.Context) (string, error)

	// Title returns the current document title
	Title(ctx context.Context) (string, error)

	// HTML returns the current page source
	HTML(ctx context.Context) (string, error)

	// Count returns how many elements match selector
	Count(ctx context.Context, selector string) (int, error)

	// ComputedStyle resolves every computed CSS property of one element
	ComputedStyle(ctx context.Context, selector string, index int) (map[string]string, error)

	// Size returns the rendered size of one element
	Size(ctx context.Context, selector string, index int) (Size, error)

	// Texts returns the visible text of every element matching selector
	Texts(ctx context.Context, selector string) ([]string, error)

	// Click clicks one element
	Click(ctx context.Context, selector string, index int) error

	// Evaluate runs a script and decodes its result into res (which may be nil)
	Evaluate(ctx context.Context, script string, res interface{}) error

	// WaitLoad waits up to timeout for the location to move away from
	// previous (ignored when empty) and the document to finish loading.
	// It never fails; false means the wait elapsed.
	WaitLoad(ctx context.Context, previous string, timeout time.Duration) bool

	// Close releases the browser
	Close() error
}

// Opener creates a session. The runner calls it exactly once per run.
type Opener func(ctx context.Context) (Session, error)

// Stats contains browser automation statistics
type Stats struct {
	Navigations     int           `json:"navigations"`
	AverageLoadTime time.Duration `json:"average_load_time"`
	Errors          int           `json:"errors"`
	ScriptErrors    int           `json:"script_errors"`
	WaitsElapsed    int           `json:"waits_elapsed"`
}
