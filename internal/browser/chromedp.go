// internal/browser/chromedp.go
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/css"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/valpere/PageProbe/internal/utils"
)

const waitPollInterval = 100 * time.Millisecond

// ChromeSession implements Session using chromedp
type ChromeSession struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	config      *Config
	limiter     *rate.Limiter
	logger      *zap.Logger

	mu    sync.Mutex
	stats Stats
	once  sync.Once
}

// NewChromeSession starts a Chrome instance and opens a blank tab.
func NewChromeSession(config *Config, logger *zap.Logger) (*ChromeSession, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// Set up Chrome options
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
		chromedp.WindowSize(config.ViewportWidth, config.ViewportHeight),
	}

	if config.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}

	if config.Headless {
		opts = append(opts, chromedp.Headless)
	}

	if config.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(config.ChromePath))
	}

	if config.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(config.UserDataDir))
	}

	if config.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(config.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	limit := rate.Inf
	if config.NavigationInterval > 0 {
		limit = rate.Every(config.NavigationInterval)
	}

	s := &ChromeSession{
		ctx:         ctx,
		cancel:      cancel,
		allocCancel: allocCancel,
		config:      config,
		limiter:     rate.NewLimiter(limit, 1),
		logger:      logger.Named("browser"),
	}

	// The first Run allocates the browser and must not carry a deadline,
	// otherwise the deadline would end the whole browser.
	if err := chromedp.Run(s.ctx,
		chromedp.EmulateViewport(int64(config.ViewportWidth), int64(config.ViewportHeight)),
	); err != nil {
		s.Close()
		return nil, utils.NewError(utils.ErrCodeBrowserFailed, "failed to start browser").WithCause(err).Build()
	}

	s.logger.Debug("browser started",
		zap.Bool("headless", config.Headless),
		zap.Int("viewport_width", config.ViewportWidth),
		zap.Int("viewport_height", config.ViewportHeight))

	return s, nil
}

// ChromeOpener returns an Opener that starts a ChromeSession.
func ChromeOpener(config *Config, logger *zap.Logger) Opener {
	return func(ctx context.Context) (Session, error) {
		return NewChromeSession(config, logger)
	}
}

// run executes actions on the tab, bounded by the configured timeout and
// by the caller's context.
func (s *ChromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	if s.config.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(runCtx, s.config.Timeout)
		defer cancel()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

// Navigate navigates to a URL and waits for page load
func (s *ChromeSession) Navigate(ctx context.Context, url string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return utils.NewError(utils.ErrCodeNavigationFailed, "navigation cancelled").
			WithContext("url", url).WithCause(err).Build()
	}

	start := time.Now()
	err := s.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	loadTime := time.Since(start)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.stats.Errors++
		return utils.NewError(utils.ErrCodeNavigationFailed, "navigation failed").
			WithContext("url", url).WithCause(err).Build()
	}

	s.stats.Navigations++
	if s.stats.Navigations == 1 {
		s.stats.AverageLoadTime = loadTime
	} else {
		s.stats.AverageLoadTime = (s.stats.AverageLoadTime + loadTime) / 2
	}
	s.logger.Debug("navigated", zap.String("url", url), zap.Duration("load_time", loadTime))
	return nil
}

// Location returns the current document URL
func (s *ChromeSession) Location(ctx context.Context) (string, error) {
	var location string
	if err := s.run(ctx, chromedp.Location(&location)); err != nil {
		return "", s.browserError("failed to read location", err)
	}
	return location, nil
}

// Title returns the current document title
func (s *ChromeSession) Title(ctx context.Context) (string, error) {
	var title string
	if err := s.run(ctx, chromedp.Title(&title)); err != nil {
		return "", s.browserError("failed to read title", err)
	}
	return title, nil
}

// HTML returns the current page source
func (s *ChromeSession) HTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", s.browserError("failed to get HTML", err)
	}
	return html, nil
}

// Count returns how many elements match selector
func (s *ChromeSession) Count(ctx context.Context, selector string) (int, error) {
	var count int
	script := fmt.Sprintf(`document.querySelectorAll(%s).length`, jsString(selector))
	if err := s.Evaluate(ctx, script, &count); err != nil {
		return 0, err
	}
	return count, nil
}

// node resolves the index-th element matching selector.
func (s *ChromeSession) node(ctx context.Context, selector string, index int) (*cdp.Node, error) {
	var nodes []*cdp.Node
	if err := s.run(ctx, chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0))); err != nil {
		return nil, s.browserError("failed to query elements", err)
	}
	if index < 0 || index >= len(nodes) {
		return nil, utils.NewErrorf(utils.ErrCodeElementNotFound, "no element %q at index %d", selector, index).
			WithContext("found", len(nodes)).Build()
	}
	return nodes[index], nil
}

// ComputedStyle resolves every computed CSS property of one element
func (s *ChromeSession) ComputedStyle(ctx context.Context, selector string, index int) (map[string]string, error) {
	node, err := s.node(ctx, selector, index)
	if err != nil {
		return nil, err
	}

	var props []*css.ComputedStyleProperty
	if err := s.run(ctx, chromedp.ComputedStyle([]cdp.NodeID{node.NodeID}, &props, chromedp.ByNodeID)); err != nil {
		return nil, s.browserError("failed to compute style", err)
	}

	style := make(map[string]string, len(props))
	for _, p := range props {
		style[p.Name] = p.Value
	}
	return style, nil
}

// Size returns the rendered border-box size of one element
func (s *ChromeSession) Size(ctx context.Context, selector string, index int) (Size, error) {
	node, err := s.node(ctx, selector, index)
	if err != nil {
		return Size{}, err
	}

	var box *dom.BoxModel
	if err := s.run(ctx, chromedp.Dimensions([]cdp.NodeID{node.NodeID}, &box, chromedp.ByNodeID)); err != nil {
		return Size{}, s.browserError("failed to measure element", err)
	}
	return Size{Width: box.Width, Height: box.Height}, nil
}

// Texts returns the visible text of every element matching selector
func (s *ChromeSession) Texts(ctx context.Context, selector string) ([]string, error) {
	var texts []string
	script := fmt.Sprintf(`Array.from(document.querySelectorAll(%s)).map(e => e.innerText)`, jsString(selector))
	if err := s.Evaluate(ctx, script, &texts); err != nil {
		return nil, err
	}
	return texts, nil
}

// Click clicks one element
func (s *ChromeSession) Click(ctx context.Context, selector string, index int) error {
	node, err := s.node(ctx, selector, index)
	if err != nil {
		return err
	}
	if err := s.run(ctx, chromedp.Click([]cdp.NodeID{node.NodeID}, chromedp.ByNodeID)); err != nil {
		return s.browserError("click failed", err)
	}
	return nil
}

// Evaluate runs JavaScript code
func (s *ChromeSession) Evaluate(ctx context.Context, script string, res interface{}) error {
	if err := s.run(ctx, chromedp.Evaluate(script, res)); err != nil {
		s.mu.Lock()
		s.stats.ScriptErrors++
		s.mu.Unlock()
		return utils.NewError(utils.ErrCodeScriptFailed, "script execution failed").
			WithContext("script", script).WithCause(err).Build()
	}
	return nil
}

// WaitLoad polls until the page left previous and finished loading.
func (s *ChromeSession) WaitLoad(ctx context.Context, previous string, timeout time.Duration) bool {
	script := `document.readyState === "complete"`
	if previous != "" {
		script = fmt.Sprintf(`location.href !== %s && document.readyState === "complete"`, jsString(previous))
	}

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(waitPollInterval)
	defer ticker.Stop()

	for {
		var done bool
		if err := s.run(ctx, chromedp.Evaluate(script, &done)); err == nil && done {
			return true
		}
		if time.Now().After(deadline) {
			break
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}

	s.mu.Lock()
	s.stats.WaitsElapsed++
	s.mu.Unlock()
	s.logger.Warn("page load wait elapsed", zap.Duration("timeout", timeout), zap.String("previous", previous))
	return false
}

// Stats returns browser statistics
func (s *ChromeSession) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Close closes the browser. It is safe to call more than once.
func (s *ChromeSession) Close() error {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		if s.allocCancel != nil {
			s.allocCancel()
		}
		s.logger.Debug("browser closed")
	})
	return nil
}

func (s *ChromeSession) browserError(message string, err error) error {
	s.mu.Lock()
	s.stats.Errors++
	s.mu.Unlock()
	return utils.NewError(utils.ErrCodeBrowserFailed, message).WithCause(err).Build()
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
