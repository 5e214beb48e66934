// Package suite runs the ordered page checks of one configuration against a
// single browser session and collects per-case results.
package suite

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/valpere/PageProbe/internal/browser"
	"github.com/valpere/PageProbe/internal/config"
	"github.com/valpere/PageProbe/internal/monitoring"
	"github.com/valpere/PageProbe/internal/output"
	"github.com/valpere/PageProbe/internal/utils"
	"github.com/valpere/PageProbe/internal/verifier"
)

// Case names of the built-in checks.
const (
	CaseMain       = "main"
	CaseTitle      = "title"
	CaseTableWidth = "table_width"
	CaseScrolling  = "scrolling"
	CaseLinkBack   = "link_back"
)

// caseOrder fixes where named cases run. Style checks with other names run
// in the slot of "css".
var caseOrder = map[string]int{
	CaseMain:             0,
	CaseTitle:            1,
	"background":         2,
	"background_textbox": 3,
	CaseTableWidth:       4,
	"css":                5,
	CaseScrolling:        6,
	CaseLinkBack:         7,
}

// Outcome of one case.
type Outcome string

const (
	OutcomePass  Outcome = output.OutcomePass
	OutcomeFail  Outcome = output.OutcomeFail
	OutcomeError Outcome = output.OutcomeError
)

// OutcomeOf maps a case error to its outcome: nil passes, a failed
// assertion fails, anything else is an error.
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomePass
	case utils.HasCode(err, utils.ErrCodeAssertionFailed):
		return OutcomeFail
	default:
		return OutcomeError
	}
}

// Case is one named check.
type Case struct {
	Name string
	Run  func(ctx context.Context, v *verifier.Verifier) error
}

// Result is the outcome of one case.
type Result struct {
	Case      string
	Outcome   Outcome
	Err       error
	Duration  time.Duration
	StartedAt time.Time
}

// Message is the error text of a failing case, empty on pass.
func (r Result) Message() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Report collects the results of one run.
type Report struct {
	RunID     string
	Suite     string
	StartedAt time.Time
	Duration  time.Duration
	Results   []Result
	// Fetches is how many times a page was loaded and parsed.
	Fetches int
}

// Count returns how many results have outcome o.
func (r *Report) Count(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}

// Failed returns the number of cases that did not pass.
func (r *Report) Failed() int {
	return len(r.Results) - r.Count(OutcomePass)
}

// Result returns the result of the named case.
func (r *Report) Result(name string) (Result, bool) {
	for _, res := range r.Results {
		if res.Case == name {
			return res, true
		}
	}
	return Result{}, false
}

// Records converts the report for the output sinks.
func (r *Report) Records() []output.Record {
	records := make([]output.Record, 0, len(r.Results))
	for _, res := range r.Results {
		rec := output.Record{
			RunID:     r.RunID,
			Suite:     r.Suite,
			Case:      res.Case,
			Outcome:   string(res.Outcome),
			Message:   res.Message(),
			Duration:  res.Duration,
			StartedAt: res.StartedAt,
		}
		if res.Err != nil {
			rec.Code = string(utils.CodeOf(res.Err))
		}
		records = append(records, rec)
	}
	return records
}

// Suite is an ordered list of cases sharing one verifier.
type Suite struct {
	name    string
	cases   []Case
	options verifier.Options
	logger  *zap.Logger
	metrics *monitoring.MetricsManager
}

// New builds the cases described by cfg.
func New(cfg *config.SuiteConfig, logger *zap.Logger, metrics *monitoring.MetricsManager) (*Suite, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	exp := cfg.Expectations
	var cases []Case

	if exp.NavigationLink.Text != "" {
		link := exp.NavigationLink
		destination := link.Destination
		if destination == "" {
			destination = cfg.AboutURL
		}
		cases = append(cases, Case{Name: CaseMain, Run: func(ctx context.Context, v *verifier.Verifier) error {
			return v.VerifyNavigationLink(ctx, link.Text, destination)
		}})
	}

	if exp.Title != "" {
		title := exp.Title
		cases = append(cases, Case{Name: CaseTitle, Run: func(ctx context.Context, v *verifier.Verifier) error {
			return v.VerifyTitle(ctx, title)
		}})
	}

	for _, check := range exp.Styles {
		expectations := make([]verifier.StyleExpectation, 0, len(check.Properties))
		for _, pv := range check.Properties {
			prop, err := verifier.ParseStyleProperty(pv.Property)
			if err != nil {
				return nil, fmt.Errorf("style check %s: %w", check.Name, err)
			}
			expectations = append(expectations, verifier.StyleExpectation{
				Property: prop,
				Value:    pv.Value,
				Message:  pv.Message,
			})
		}
		selector := check.Selector
		cases = append(cases, Case{Name: check.Name, Run: func(ctx context.Context, v *verifier.Verifier) error {
			return v.VerifyComputedStyle(ctx, selector, expectations)
		}})
	}

	if len(exp.Tables) > 0 {
		tables := append([]int(nil), exp.Tables...)
		cases = append(cases, Case{Name: CaseTableWidth, Run: func(ctx context.Context, v *verifier.Verifier) error {
			return v.VerifyTableWidths(ctx, tables)
		}})
	}

	tolerance := exp.ScrollTolerance
	cases = append(cases, Case{Name: CaseScrolling, Run: func(ctx context.Context, v *verifier.Verifier) error {
		return v.VerifyScrollable(ctx, tolerance)
	}})

	if exp.BackLinkHref != "" {
		href := exp.BackLinkHref
		cases = append(cases, Case{Name: CaseLinkBack, Run: func(ctx context.Context, v *verifier.Verifier) error {
			return v.VerifyBackLink(ctx, href)
		}})
	}

	sort.SliceStable(cases, func(i, j int) bool {
		return rank(cases[i].Name) < rank(cases[j].Name)
	})

	return &Suite{
		name:  cfg.Name,
		cases: cases,
		options: verifier.Options{
			Targets:     verifier.Targets{Home: cfg.HomeURL, About: cfg.AboutURL},
			WaitTimeout: cfg.WaitTimeout,
			Containers:  exp.NavigationLink.Containers,
			Logger:      logger,
			Metrics:     metrics,
		},
		logger:  logger.Named("suite"),
		metrics: metrics,
	}, nil
}

func rank(name string) int {
	if r, ok := caseOrder[name]; ok {
		return r
	}
	return caseOrder["css"]
}

// Name returns the suite name.
func (s *Suite) Name() string {
	return s.name
}

// Cases returns the case names in run order.
func (s *Suite) Cases() []string {
	names := make([]string, len(s.cases))
	for i, c := range s.cases {
		names[i] = c.Name
	}
	return names
}

// Add appends a case to the end of the run.
func (s *Suite) Add(c Case) {
	s.cases = append(s.cases, c)
}

// Run opens one session, runs every case in order to completion and closes
// the session. Case failures are reported in the Report; the returned error
// is only set when the session could not be opened.
func (s *Suite) Run(ctx context.Context, open browser.Opener) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		Suite:     s.name,
		StartedAt: time.Now(),
	}
	logger := s.logger.With(zap.String("run_id", report.RunID), zap.String("suite", s.name))

	session, err := open(ctx)
	if err != nil {
		var se *utils.StructuredError
		if !errors.As(err, &se) {
			err = utils.NewError(utils.ErrCodeBrowserFailed, "failed to open browser session").WithCause(err).Build()
		}
		logger.Error("session setup failed", utils.ErrorFields(err)...)
		return nil, err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			logger.Warn("failed to close session", zap.Error(cerr))
		}
	}()

	v := verifier.New(session, s.options)
	logger.Info("suite started", zap.Int("cases", len(s.cases)))

	for _, c := range s.cases {
		res := s.runCase(ctx, v, c)
		report.Results = append(report.Results, res)
		s.metrics.RecordCase(res.Case, string(res.Outcome), res.Duration)

		fields := []zap.Field{
			zap.String("case", res.Case),
			zap.String("outcome", string(res.Outcome)),
			zap.Duration("duration", res.Duration),
		}
		if res.Err != nil {
			logger.Warn("case did not pass", append(fields, utils.ErrorFields(res.Err)...)...)
		} else {
			logger.Info("case passed", fields...)
		}
	}

	report.Duration = time.Since(report.StartedAt)
	report.Fetches = v.Fetches()
	s.metrics.RecordRunComplete(report.Failed())

	logger.Info("suite finished",
		zap.Int("passed", report.Count(OutcomePass)),
		zap.Int("failed", report.Count(OutcomeFail)),
		zap.Int("errors", report.Count(OutcomeError)),
		zap.Int("fetches", report.Fetches),
		zap.Duration("duration", report.Duration))

	return report, nil
}

func (s *Suite) runCase(ctx context.Context, v *verifier.Verifier, c Case) (res Result) {
	res = Result{Case: c.Name, StartedAt: time.Now()}
	defer func() {
		if r := recover(); r != nil {
			res.Err = utils.NewErrorf(utils.ErrCodeInternal, "case panicked: %v", r).Build()
			s.logger.Error("case panicked",
				zap.String("case", c.Name),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
		}
		res.Duration = time.Since(res.StartedAt)
		res.Outcome = OutcomeOf(res.Err)
	}()

	res.Err = c.Run(ctx, v)
	return res
}
