// Package verifier loads the pages under test and checks their rendered and
// declared properties against a live browser session.
package verifier

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/valpere/PageProbe/internal/browser"
	"github.com/valpere/PageProbe/internal/monitoring"
	"github.com/valpere/PageProbe/internal/snapshot"
	"github.com/valpere/PageProbe/internal/utils"
)

// DefaultWaitTimeout bounds the wait for a page load after a click.
const DefaultWaitTimeout = 10 * time.Second

// PageState is the result of the last fetch. Snapshot belongs to Identity
// and is replaced only by the next fetch.
type PageState struct {
	Identity PageIdentity
	URL      string
	Snapshot *snapshot.Snapshot
}

// Options configures a Verifier.
type Options struct {
	Targets     Targets
	WaitTimeout time.Duration
	// Containers is the chain of nested selectors holding the home page
	// navigation links, outermost first.
	Containers []string
	Logger     *zap.Logger
	Metrics    *monitoring.MetricsManager
}

// Verifier runs checks against one shared session. It is not safe for
// concurrent use; checks run one after another.
type Verifier struct {
	session     browser.Session
	targets     Targets
	waitTimeout time.Duration
	containers  []string
	logger      *zap.Logger
	metrics     *monitoring.MetricsManager

	state   PageState
	fetches int
}

// New creates a verifier over session.
func New(session browser.Session, opts Options) *Verifier {
	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = DefaultWaitTimeout
	}
	if len(opts.Containers) == 0 {
		opts.Containers = []string{"#topContainer", "#topLeft"}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Verifier{
		session:     session,
		targets:     opts.Targets,
		waitTimeout: opts.WaitTimeout,
		containers:  opts.Containers,
		logger:      opts.Logger.Named("verifier"),
		metrics:     opts.Metrics,
	}
}

// State returns the current page state.
func (v *Verifier) State() PageState {
	return v.state
}

// Fetches returns how many times a page was navigated to and re-parsed.
func (v *Verifier) Fetches() int {
	return v.fetches
}

// EnsurePage makes page the loaded page and returns its snapshot. The
// cached snapshot is reused when it was fetched for page and the session is
// still showing page; otherwise the page is navigated to and re-parsed.
func (v *Verifier) EnsurePage(ctx context.Context, page PageIdentity) (*snapshot.Snapshot, error) {
	target, ok := v.targets.URL(page)
	if !ok {
		return nil, utils.NewErrorf(utils.ErrCodeInternal, "no target URL for page %s", page).Build()
	}

	if v.state.Snapshot != nil && v.state.Identity == page {
		location, err := v.session.Location(ctx)
		if err != nil {
			return nil, err
		}
		if v.targets.Classify(location) == page {
			v.metrics.RecordPageReuse(page.String())
			return v.state.Snapshot, nil
		}
		v.logger.Debug("session moved away from cached page",
			zap.Stringer("page", page), zap.String("location", location))
	}

	return v.fetch(ctx, page, target)
}

func (v *Verifier) fetch(ctx context.Context, page PageIdentity, target string) (*snapshot.Snapshot, error) {
	start := time.Now()

	if err := v.session.Navigate(ctx, target); err != nil {
		return nil, err
	}
	location, err := v.session.Location(ctx)
	if err != nil {
		return nil, err
	}
	html, err := v.session.HTML(ctx)
	if err != nil {
		return nil, err
	}
	snap, err := snapshot.Parse(location, html)
	if err != nil {
		return nil, utils.NewError(utils.ErrCodeParsingError, "failed to parse page source").
			WithContext("url", location).WithCause(err).Build()
	}

	v.state = PageState{Identity: page, URL: location, Snapshot: snap}
	v.fetches++
	v.metrics.RecordPageFetch(page.String(), time.Since(start))

	// A redirect elsewhere is not an error here; the checks that follow
	// will fail on the unexpected content.
	if got := v.targets.Classify(location); got != page {
		v.logger.Warn("navigation landed on a different page",
			zap.Stringer("page", page),
			zap.String("target", target),
			zap.String("location", location))
	} else {
		v.logger.Debug("page fetched",
			zap.Stringer("page", page),
			zap.String("location", location),
			zap.Duration("duration", time.Since(start)))
	}
	return snap, nil
}
