// internal/config/types.go
package config

import (
	"time"

	"github.com/valpere/PageProbe/internal/browser"
	"github.com/valpere/PageProbe/internal/utils"
)

// SuiteConfig is the top-level configuration of one verification suite.
type SuiteConfig struct {
	Name         string          `yaml:"name" json:"name"`
	HomeURL      string          `yaml:"home_url" json:"home_url"`
	AboutURL     string          `yaml:"about_url" json:"about_url"`
	WaitTimeout  time.Duration   `yaml:"wait_timeout" json:"wait_timeout"`
	Browser      browser.Config  `yaml:"browser" json:"browser"`
	Expectations Expectations    `yaml:"expectations" json:"expectations"`
	Outputs      []OutputConfig  `yaml:"outputs,omitempty" json:"outputs,omitempty"`
	Log          utils.LogConfig `yaml:"log" json:"log"`
	Metrics      MetricsConfig   `yaml:"metrics" json:"metrics"`
}

// Expectations lists what the pages must look like.
type Expectations struct {
	Title           string          `yaml:"title" json:"title"`
	NavigationLink  LinkExpectation `yaml:"navigation_link" json:"navigation_link"`
	Styles          []StyleCheck    `yaml:"styles" json:"styles"`
	Tables          []int           `yaml:"tables" json:"tables"`
	ScrollTolerance float64         `yaml:"scroll_tolerance" json:"scroll_tolerance"`
	BackLinkHref    string          `yaml:"back_link_href" json:"back_link_href"`
}

// LinkExpectation describes the home page link that leads to the about page.
type LinkExpectation struct {
	Text        string `yaml:"text" json:"text"`
	Destination string `yaml:"destination" json:"destination"`
	// Containers is the chain of nested selectors the link lives in,
	// outermost first.
	Containers []string `yaml:"containers" json:"containers"`
}

// StyleCheck is one named computed-style verification.
type StyleCheck struct {
	Name       string          `yaml:"name" json:"name"`
	Selector   string          `yaml:"selector" json:"selector"`
	Properties []PropertyValue `yaml:"properties" json:"properties"`
}

// PropertyValue is one expected computed value.
type PropertyValue struct {
	Property string `yaml:"property" json:"property"`
	Value    string `yaml:"value" json:"value"`
	Message  string `yaml:"message,omitempty" json:"message,omitempty"`
}

// OutputConfig selects one report sink.
type OutputConfig struct {
	Format string `yaml:"format" json:"format"`
	File   string `yaml:"file,omitempty" json:"file,omitempty"`
	// DSN is the connection string of database sinks.
	DSN        string `yaml:"dsn,omitempty" json:"dsn,omitempty"`
	Table      string `yaml:"table,omitempty" json:"table,omitempty"`
	Database   string `yaml:"database,omitempty" json:"database,omitempty"`
	Collection string `yaml:"collection,omitempty" json:"collection,omitempty"`
}

// MetricsConfig controls the Prometheus textfile written after a run.
type MetricsConfig struct {
	File      string            `yaml:"file,omitempty" json:"file,omitempty"`
	Namespace string            `yaml:"namespace,omitempty" json:"namespace,omitempty"`
	Labels    map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"`
}

// Output formats understood by the report writers.
const (
	FormatJSON       = "json"
	FormatYAML       = "yaml"
	FormatCSV        = "csv"
	FormatJUnit      = "junit"
	FormatExcel      = "excel"
	FormatSQLite     = "sqlite"
	FormatPostgreSQL = "postgresql"
	FormatMySQL      = "mysql"
	FormatMongoDB    = "mongodb"
)

// ValidOutputFormats returns all valid output format values
func ValidOutputFormats() []string {
	return []string{
		FormatJSON, FormatYAML, FormatCSV, FormatJUnit, FormatExcel,
		FormatSQLite, FormatPostgreSQL, FormatMySQL, FormatMongoDB,
	}
}

// IsFileFormat reports whether format writes to a file rather than a database.
func IsFileFormat(format string) bool {
	switch format {
	case FormatJSON, FormatYAML, FormatCSV, FormatJUnit, FormatExcel:
		return true
	}
	return false
}
