// internal/config/validation.go
package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/andybalholm/cascadia"

	"github.com/valpere/PageProbe/internal/utils"
	"github.com/valpere/PageProbe/internal/verifier"
)

// ValidationError represents a detailed validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
}

// Validate checks the configuration and reports every problem at once.
func (sc *SuiteConfig) Validate() error {
	errs := sc.ValidationErrors()
	if len(errs) == 0 {
		return nil
	}

	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		messages = append(messages, e.Error())
	}
	return utils.NewError(utils.ErrCodeInvalidConfig, "invalid configuration: "+strings.Join(messages, "; ")).
		WithContext("problems", len(errs)).
		Build()
}

// ValidationErrors returns every validation problem.
func (sc *SuiteConfig) ValidationErrors() []ValidationError {
	var errs []ValidationError
	add := func(field, format string, args ...interface{}) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(sc.Name) == "" {
		add("name", "name is required")
	}
	if err := validateURL(sc.HomeURL); err != nil {
		add("home_url", "%v", err)
	}
	if err := validateURL(sc.AboutURL); err != nil {
		add("about_url", "%v", err)
	}
	if sc.WaitTimeout < 0 {
		add("wait_timeout", "must not be negative")
	}

	if sc.Browser.Timeout < 0 {
		add("browser.timeout", "must not be negative")
	}
	if sc.Browser.ViewportWidth < 0 || sc.Browser.ViewportHeight < 0 {
		add("browser.viewport", "dimensions must not be negative")
	}
	if sc.Browser.NavigationInterval < 0 {
		add("browser.navigation_interval", "must not be negative")
	}

	sc.validateExpectations(add)

	for i, out := range sc.Outputs {
		field := fmt.Sprintf("outputs[%d]", i)
		if !isValidFormat(out.Format) {
			add(field+".format", "unsupported format %q (valid: %s)", out.Format, strings.Join(ValidOutputFormats(), ", "))
			continue
		}
		if IsFileFormat(out.Format) && out.File == "" {
			add(field+".file", "file is required for %s output", out.Format)
		}
		if !IsFileFormat(out.Format) && out.DSN == "" {
			add(field+".dsn", "dsn is required for %s output", out.Format)
		}
		if out.Format == FormatMongoDB && (out.Database == "" || out.Collection == "") {
			add(field, "database and collection are required for mongodb output")
		}
	}

	if _, err := utils.ParseLevel(sc.Log.Level); err != nil {
		add("log.level", "%v", err)
	}

	return errs
}

func (sc *SuiteConfig) validateExpectations(add func(field, format string, args ...interface{})) {
	exp := sc.Expectations

	link := exp.NavigationLink
	if link.Text != "" {
		if err := validateURL(link.Destination); err != nil {
			add("expectations.navigation_link.destination", "%v", err)
		}
		for i, c := range link.Containers {
			if err := validateSelector(c); err != nil {
				add(fmt.Sprintf("expectations.navigation_link.containers[%d]", i), "%v", err)
			}
		}
	}

	seen := make(map[string]bool)
	for i, check := range exp.Styles {
		field := fmt.Sprintf("expectations.styles[%d]", i)
		if check.Name == "" {
			add(field+".name", "name is required")
		} else if seen[check.Name] {
			add(field+".name", "duplicate style check %q", check.Name)
		}
		seen[check.Name] = true

		if err := validateSelector(check.Selector); err != nil {
			add(field+".selector", "%v", err)
		}
		if len(check.Properties) == 0 {
			add(field+".properties", "at least one property is required")
		}
		for j, p := range check.Properties {
			if _, err := verifier.ParseStyleProperty(p.Property); err != nil {
				add(fmt.Sprintf("%s.properties[%d]", field, j), "%v", err)
			}
		}
	}

	for i, idx := range exp.Tables {
		if idx < 0 {
			add(fmt.Sprintf("expectations.tables[%d]", i), "table index must not be negative")
		}
	}
	if exp.ScrollTolerance < 0 {
		add("expectations.scroll_tolerance", "must not be negative")
	}
}

// validateSelector rejects selectors the browser would not accept.
func validateSelector(selector string) error {
	if strings.TrimSpace(selector) == "" {
		return fmt.Errorf("selector must not be empty")
	}
	if _, err := cascadia.Compile(selector); err != nil {
		return fmt.Errorf("invalid selector %q: %v", selector, err)
	}
	return nil
}

func validateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %v", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL %q must use http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("URL %q has no host", raw)
	}
	return nil
}

func isValidFormat(format string) bool {
	for _, f := range ValidOutputFormats() {
		if f == format {
			return true
		}
	}
	return false
}
