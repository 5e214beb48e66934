// internal/monitoring/health.go
package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"sort"
	"sync"
	"time"
)

// HealthStatus represents the health status of a component
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
	HealthStatusDegraded  HealthStatus = "degraded"
)

// HealthCheck is a named probe run on every health request.
type HealthCheck struct {
	Name      string
	Critical  bool
	Timeout   time.Duration
	CheckFunc func(ctx context.Context) error
}

// CheckResult is the outcome of one probe.
type CheckResult struct {
	Name     string        `json:"name"`
	Status   HealthStatus  `json:"status"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
	Critical bool          `json:"critical"`
}

// SystemHealth is the body of the health endpoint.
type SystemHealth struct {
	Status    HealthStatus  `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Uptime    time.Duration `json:"uptime"`
	Checks    []CheckResult `json:"checks"`
}

// HealthManager runs registered checks on demand.
type HealthManager struct {
	mu             sync.RWMutex
	checks         map[string]*HealthCheck
	defaultTimeout time.Duration
	started        time.Time
}

// NewHealthManager creates a new health manager
func NewHealthManager(defaultTimeout time.Duration) *HealthManager {
	if defaultTimeout == 0 {
		defaultTimeout = 5 * time.Second
	}
	return &HealthManager{
		checks:         make(map[string]*HealthCheck),
		defaultTimeout: defaultTimeout,
		started:        time.Now(),
	}
}

// RegisterCheck adds or replaces a check
func (hm *HealthManager) RegisterCheck(check *HealthCheck) {
	if check.Timeout == 0 {
		check.Timeout = hm.defaultTimeout
	}
	hm.mu.Lock()
	hm.checks[check.Name] = check
	hm.mu.Unlock()
}

// GetHealth runs every check and folds the results. A failing critical
// check makes the whole system unhealthy; any other failure degrades it.
func (hm *HealthManager) GetHealth(ctx context.Context) SystemHealth {
	hm.mu.RLock()
	checks := make([]*HealthCheck, 0, len(hm.checks))
	for _, c := range hm.checks {
		checks = append(checks, c)
	}
	hm.mu.RUnlock()
	sort.Slice(checks, func(i, j int) bool { return checks[i].Name < checks[j].Name })

	health := SystemHealth{
		Status:    HealthStatusHealthy,
		Timestamp: time.Now(),
		Uptime:    time.Since(hm.started),
	}

	for _, check := range checks {
		res := runCheck(ctx, check)
		health.Checks = append(health.Checks, res)
		if res.Status == HealthStatusHealthy {
			continue
		}
		if check.Critical {
			health.Status = HealthStatusUnhealthy
		} else if health.Status == HealthStatusHealthy {
			health.Status = HealthStatusDegraded
		}
	}
	return health
}

func runCheck(ctx context.Context, check *HealthCheck) CheckResult {
	checkCtx, cancel := context.WithTimeout(ctx, check.Timeout)
	defer cancel()

	start := time.Now()
	res := CheckResult{Name: check.Name, Status: HealthStatusHealthy, Critical: check.Critical}
	if err := check.CheckFunc(checkCtx); err != nil {
		res.Status = HealthStatusUnhealthy
		res.Error = err.Error()
	}
	res.Duration = time.Since(start)
	return res
}

// HealthHandler returns the HTTP handler for the health endpoint
func (hm *HealthManager) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := hm.GetHealth(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if health.Status == HealthStatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}

		json.NewEncoder(w).Encode(health)
	}
}

// HTTPHealthCheck probes url and expects a 2xx response
func HTTPHealthCheck(name, url string, critical bool) *HealthCheck {
	return &HealthCheck{
		Name:     name,
		Critical: critical,
		CheckFunc: func(ctx context.Context) error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return fmt.Errorf("failed to create request: %w", err)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return fmt.Errorf("HTTP request failed: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				return fmt.Errorf("HTTP check failed (%d)", resp.StatusCode)
			}
			return nil
		},
	}
}

// GoroutineHealthCheck fails when more than maxGoroutines are running
func GoroutineHealthCheck(maxGoroutines int) *HealthCheck {
	return &HealthCheck{
		Name: "goroutines",
		CheckFunc: func(ctx context.Context) error {
			if n := runtime.NumGoroutine(); n > maxGoroutines {
				return fmt.Errorf("%d goroutines running (max %d)", n, maxGoroutines)
			}
			return nil
		},
	}
}
