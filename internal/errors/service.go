// internal/errors/service.go - User-facing error reporting for the CLI
package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/valpere/PageProbe/internal/utils"
)

// Exit codes returned by the CLI
const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitConfigError   = 2
	ExitBrowserFailed = 3
)

// ErrCasesFailed is returned by a run in which at least one case did not pass.
var ErrCasesFailed = errors.New("one or more cases did not pass")

// Service turns errors into CLI messages and exit codes
type Service struct {
	messageHandler *MessageHandler
}

// MessageHandler converts technical errors to user-friendly messages
type MessageHandler struct {
	showTechnical bool
}

// NewService creates a new error reporting service
func NewService() *Service {
	return &Service{
		messageHandler: &MessageHandler{showTechnical: false},
	}
}

// WithVerbose enables technical error details
func (s *Service) WithVerbose(verbose bool) *Service {
	s.messageHandler.showTechnical = verbose
	return s
}

// Verbose reports whether technical details are shown
func (s *Service) Verbose() bool {
	return s.messageHandler.showTechnical
}

// GetUserFriendlyError describes err for a person running the suite
func (s *Service) GetUserFriendlyError(err error) (title, message string, suggestions []string) {
	if err == nil {
		return "", "", nil
	}

	if errors.Is(err, ErrCasesFailed) {
		return "Suite Failed",
			"At least one case failed or errored.",
			[]string{
				"Run with --verbose to see each failure message",
				"Check the JUnit or JSON report for per-case details",
			}
	}

	switch utils.CodeOf(err) {
	case utils.ErrCodeInvalidConfig:
		return "Configuration Error",
			"The suite configuration could not be loaded.",
			[]string{
				"Run 'pageprobe validate <config>' to list every problem",
				"Check YAML indentation (use spaces, not tabs)",
				"Generate a starting point with 'pageprobe template'",
			}
	case utils.ErrCodeBrowserFailed:
		return "Browser Unavailable",
			"Could not start or talk to the Chrome browser.",
			[]string{
				"Install Chrome or Chromium, or set browser.chrome_path",
				"Inside containers keep browser.no_sandbox enabled",
				"Increase browser.timeout if the machine is slow",
			}
	case utils.ErrCodeNavigationFailed:
		return "Navigation Failed",
			"The browser could not load the target page.",
			[]string{
				"Check that home_url and about_url are reachable",
				"Try 'pageprobe run --local' to test against the bundled fixture",
			}
	case utils.ErrCodeOutputFailed:
		return "Report Not Written",
			"One or more report outputs could not be written.",
			[]string{
				"Check output file paths and permissions",
				"Verify database connection strings",
			}
	case utils.ErrCodeAssertionFailed:
		return "Check Failed",
			"The page did not match an expectation.",
			[]string{"The site might have changed; review the expectations in the configuration"}
	}

	return "Unexpected Error",
		"An unexpected error occurred during the operation.",
		[]string{
			"Try running the command again",
			"Run with --verbose for technical details",
		}
}

// GetExitCode maps err to the process exit code
func (s *Service) GetExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	switch utils.CodeOf(err) {
	case utils.ErrCodeInvalidConfig:
		return ExitConfigError
	case utils.ErrCodeBrowserFailed:
		return ExitBrowserFailed
	default:
		return ExitFailure
	}
}

// FormatErrorForCLI renders err with suggestions, adding the raw error text
// in verbose mode.
func (s *Service) FormatErrorForCLI(err error) string {
	title, message, suggestions := s.GetUserFriendlyError(err)

	var b strings.Builder
	fmt.Fprintf(&b, "❌ %s\n%s\n", title, message)

	if s.messageHandler.showTechnical {
		fmt.Fprintf(&b, "\nTechnical details: %s\n", err.Error())
	}

	if len(suggestions) > 0 {
		b.WriteString("\n💡 Suggestions:\n")
		for _, suggestion := range suggestions {
			fmt.Fprintf(&b, "  • %s\n", suggestion)
		}
	}

	return b.String()
}
