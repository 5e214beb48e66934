// internal/errors/service_test.go
package errors

import (
	"fmt"
	"strings"
	"testing"

	"github.com/valpere/PageProbe/internal/utils"
)

func TestService_GetExitCode(t *testing.T) {
	service := NewService()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"cases failed", ErrCasesFailed, ExitFailure},
		{"wrapped cases failed", fmt.Errorf("suite xkcd: %w", ErrCasesFailed), ExitFailure},
		{"config", utils.NewError(utils.ErrCodeInvalidConfig, "bad yaml").Build(), ExitConfigError},
		{"wrapped config", fmt.Errorf("load: %w", utils.NewError(utils.ErrCodeInvalidConfig, "bad").Build()), ExitConfigError},
		{"browser", utils.NewError(utils.ErrCodeBrowserFailed, "no chrome").Build(), ExitBrowserFailed},
		{"navigation", utils.NewError(utils.ErrCodeNavigationFailed, "dns").Build(), ExitFailure},
		{"plain", fmt.Errorf("boom"), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := service.GetExitCode(tt.err); got != tt.want {
				t.Errorf("GetExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestService_GetUserFriendlyError(t *testing.T) {
	service := NewService()

	tests := []struct {
		err   error
		title string
	}{
		{ErrCasesFailed, "Suite Failed"},
		{utils.NewError(utils.ErrCodeInvalidConfig, "x").Build(), "Configuration Error"},
		{utils.NewError(utils.ErrCodeBrowserFailed, "x").Build(), "Browser Unavailable"},
		{utils.NewError(utils.ErrCodeNavigationFailed, "x").Build(), "Navigation Failed"},
		{utils.NewError(utils.ErrCodeOutputFailed, "x").Build(), "Report Not Written"},
		{utils.NewError(utils.ErrCodeAssertionFailed, "x").Build(), "Check Failed"},
		{fmt.Errorf("something odd"), "Unexpected Error"},
	}

	for _, tt := range tests {
		title, message, suggestions := service.GetUserFriendlyError(tt.err)
		if title != tt.title {
			t.Errorf("expected title %q for %v, got %q", tt.title, tt.err, title)
		}
		if message == "" || len(suggestions) == 0 {
			t.Errorf("expected message and suggestions for %v", tt.err)
		}
	}

	if title, _, _ := service.GetUserFriendlyError(nil); title != "" {
		t.Errorf("expected empty title for nil error, got %q", title)
	}
}

func TestService_FormatErrorForCLI(t *testing.T) {
	err := utils.NewError(utils.ErrCodeBrowserFailed, "chrome not found").Build()

	quiet := NewService().FormatErrorForCLI(err)
	if !strings.Contains(quiet, "Browser Unavailable") {
		t.Errorf("expected title in output: %s", quiet)
	}
	if !strings.Contains(quiet, "Suggestions") {
		t.Errorf("expected suggestions in output: %s", quiet)
	}
	if strings.Contains(quiet, "Technical details") {
		t.Error("technical details should be hidden without verbose")
	}

	service := NewService().WithVerbose(true)
	if !service.Verbose() {
		t.Fatal("expected verbose service")
	}
	verbose := service.FormatErrorForCLI(err)
	if !strings.Contains(verbose, "Technical details: BROWSER_FAILED: chrome not found") {
		t.Errorf("expected technical details in verbose output: %s", verbose)
	}
}
