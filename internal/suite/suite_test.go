package suite

import (
	"context"
	"errors"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/valpere/PageProbe/internal/browser"
	"github.com/valpere/PageProbe/internal/config"
	"github.com/valpere/PageProbe/internal/fixture"
	"github.com/valpere/PageProbe/internal/monitoring"
	"github.com/valpere/PageProbe/internal/utils"
	"github.com/valpere/PageProbe/internal/verifier"
)

// stubSession fails every navigation and counts closes. Any other call
// panics through the nil embedded interface.
type stubSession struct {
	browser.Session
	navigateErr error
	navigations int
	closed      int
}

func (s *stubSession) Navigate(ctx context.Context, url string) error {
	s.navigations++
	return s.navigateErr
}

func (s *stubSession) Close() error {
	s.closed++
	return nil
}

func openerFor(s browser.Session) browser.Opener {
	opened := 0
	return func(ctx context.Context) (browser.Session, error) {
		opened++
		if opened > 1 {
			return nil, errors.New("session opened twice")
		}
		return s, nil
	}
}

func newTestSuite(cases ...Case) *Suite {
	return &Suite{
		name:   "unit",
		cases:  cases,
		logger: zap.NewNop(),
	}
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, OutcomePass, OutcomeOf(nil))
	assert.Equal(t, OutcomeFail, OutcomeOf(utils.NewError(utils.ErrCodeAssertionFailed, "Wrong page title").Build()))
	assert.Equal(t, OutcomeError, OutcomeOf(utils.NewError(utils.ErrCodeElementNotFound, "no table").Build()))
	assert.Equal(t, OutcomeError, OutcomeOf(utils.NewError(utils.ErrCodePreconditionNotMet, "no container").Build()))
	assert.Equal(t, OutcomeError, OutcomeOf(errors.New("plain")))
}

func TestNewOrdersDefaultCases(t *testing.T) {
	s, err := New(config.Default(), nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "xkcd-about", s.Name())
	assert.Equal(t, []string{
		"main", "title", "background", "background_textbox",
		"table_width", "css", "scrolling", "link_back",
	}, s.Cases())
}

func TestNewPlacesCustomStylesWithCSS(t *testing.T) {
	cfg := config.Default()
	cfg.Expectations.Styles = append([]config.StyleCheck{{
		Name:       "heading",
		Selector:   "h1",
		Properties: []config.PropertyValue{{Property: "display", Value: "block"}},
	}}, cfg.Expectations.Styles...)

	s, err := New(cfg, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"main", "title", "background", "background_textbox",
		"table_width", "heading", "css", "scrolling", "link_back",
	}, s.Cases())
}

func TestNewSkipsUnconfiguredCases(t *testing.T) {
	cfg := config.Default()
	cfg.Expectations = config.Expectations{Title: "x"}

	s, err := New(cfg, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"title", "scrolling"}, s.Cases())
}

func TestNewRejectsUnknownProperty(t *testing.T) {
	cfg := config.Default()
	cfg.Expectations.Styles[0].Properties[0].Property = "colour"

	_, err := New(cfg, nil, nil)
	require.Error(t, err)
	assert.True(t, utils.HasCode(err, utils.ErrCodeUnknownProperty))
}

func TestRunRecordsEveryCaseInOrder(t *testing.T) {
	session := &stubSession{}
	var order []string
	record := func(name string, err error) Case {
		return Case{Name: name, Run: func(ctx context.Context, v *verifier.Verifier) error {
			order = append(order, name)
			return err
		}}
	}

	s := newTestSuite(
		record("main", nil),
		record("title", utils.NewError(utils.ErrCodeAssertionFailed, "Wrong page title").Build()),
		record("table_width", utils.NewError(utils.ErrCodeElementNotFound, "table 1 not found").Build()),
		record("link_back", nil),
	)

	report, err := s.Run(context.Background(), openerFor(session))
	require.NoError(t, err)

	assert.Equal(t, []string{"main", "title", "table_width", "link_back"}, order)
	require.Len(t, report.Results, 4)
	assert.Equal(t, 2, report.Count(OutcomePass))
	assert.Equal(t, 1, report.Count(OutcomeFail))
	assert.Equal(t, 1, report.Count(OutcomeError))
	assert.Equal(t, 2, report.Failed())
	assert.Equal(t, 1, session.closed)
	assert.NotEmpty(t, report.RunID)

	res, ok := report.Result("title")
	require.True(t, ok)
	assert.Equal(t, OutcomeFail, res.Outcome)
	assert.Contains(t, res.Message(), "Wrong page title")

	_, ok = report.Result("missing")
	assert.False(t, ok)
}

func TestRunRecoversPanics(t *testing.T) {
	session := &stubSession{}
	ran := false
	s := newTestSuite(
		Case{Name: "boom", Run: func(ctx context.Context, v *verifier.Verifier) error {
			var m map[string]int
			m["x"] = 1
			return nil
		}},
		Case{Name: "after", Run: func(ctx context.Context, v *verifier.Verifier) error {
			ran = true
			return nil
		}},
	)

	report, err := s.Run(context.Background(), openerFor(session))
	require.NoError(t, err)

	assert.True(t, ran, "cases after a panic still run")
	boom, _ := report.Result("boom")
	assert.Equal(t, OutcomeError, boom.Outcome)
	assert.True(t, utils.HasCode(boom.Err, utils.ErrCodeInternal))
	assert.Contains(t, boom.Message(), "case panicked")
	assert.Equal(t, 1, session.closed)
}

func TestRunOpenFailure(t *testing.T) {
	s := newTestSuite(Case{Name: "never", Run: func(ctx context.Context, v *verifier.Verifier) error {
		t.Fatal("case must not run without a session")
		return nil
	}})

	_, err := s.Run(context.Background(), func(ctx context.Context) (browser.Session, error) {
		return nil, errors.New("exec: chrome not found")
	})
	require.Error(t, err)
	assert.True(t, utils.HasCode(err, utils.ErrCodeBrowserFailed))

	structured := utils.NewError(utils.ErrCodeInvalidConfig, "bad browser config").Build()
	_, err = s.Run(context.Background(), func(ctx context.Context) (browser.Session, error) {
		return nil, structured
	})
	assert.True(t, utils.HasCode(err, utils.ErrCodeInvalidConfig))
}

func TestRunDefaultSuiteWithFailingNavigation(t *testing.T) {
	session := &stubSession{
		navigateErr: utils.NewError(utils.ErrCodeNavigationFailed, "net::ERR_NAME_NOT_RESOLVED").Build(),
	}
	metrics := monitoring.NewMetricsManager(monitoring.MetricsConfig{})

	s, err := New(config.Default(), zap.NewNop(), metrics)
	require.NoError(t, err)

	report, err := s.Run(context.Background(), openerFor(session))
	require.NoError(t, err)

	require.Len(t, report.Results, 8)
	for _, res := range report.Results {
		assert.Equal(t, OutcomeError, res.Outcome, res.Case)
		assert.True(t, utils.HasCode(res.Err, utils.ErrCodeNavigationFailed), res.Case)
	}
	assert.Equal(t, 8, session.navigations)
	assert.Equal(t, 1, session.closed)
	assert.Equal(t, 0, report.Fetches)

	series, err := testutil.GatherAndCount(metrics.Registry(), "pageprobe_suite_cases_total")
	require.NoError(t, err)
	assert.Equal(t, 8, series)

	records := report.Records()
	require.Len(t, records, 8)
	assert.Equal(t, "NAVIGATION_FAILED", records[0].Code)
	assert.Equal(t, report.RunID, records[7].RunID)
	assert.Equal(t, "xkcd-about", records[7].Suite)
	assert.Equal(t, "link_back", records[7].Case)
}

func TestRecordsOfPassingCaseHaveNoCode(t *testing.T) {
	report := &Report{
		RunID: "run-1",
		Suite: "unit",
		Results: []Result{
			{Case: "title", Outcome: OutcomePass, Duration: time.Second},
		},
	}
	records := report.Records()
	require.Len(t, records, 1)
	assert.Empty(t, records[0].Code)
	assert.Empty(t, records[0].Message)
	assert.Equal(t, int64(1000), records[0].DurationMS())
}

// TestRunAgainstFixture drives a real Chrome against the local replica.
func TestRunAgainstFixture(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}

	server := httptest.NewServer(fixture.NewRouter(zap.NewNop()))
	defer server.Close()
	u, err := url.Parse(server.URL)
	require.NoError(t, err)

	cfg := config.Local(u.Host)
	cfg.WaitTimeout = 5 * time.Second
	metrics := monitoring.NewMetricsManager(monitoring.MetricsConfig{})

	s, err := New(cfg, zap.NewNop(), metrics)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	report, err := s.Run(ctx, browser.ChromeOpener(&cfg.Browser, zap.NewNop()))
	if utils.HasCode(err, utils.ErrCodeBrowserFailed) {
		t.Skipf("Chrome not available: %v", err)
	}
	require.NoError(t, err)

	for _, res := range report.Results {
		assert.Equal(t, OutcomePass, res.Outcome, "%s: %s", res.Case, res.Message())
	}
	// Home for the link check, then the about page once; the page reached by
	// the click is refetched because its snapshot belongs to the home page.
	assert.Equal(t, 2, report.Fetches)

	series, err := testutil.GatherAndCount(metrics.Registry(), "pageprobe_suite_cases_total")
	require.NoError(t, err)
	assert.Equal(t, 8, series)
}
