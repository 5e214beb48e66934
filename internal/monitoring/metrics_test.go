package monitoring

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsManager_RecordCase(t *testing.T) {
	mm := NewMetricsManager(MetricsConfig{})

	mm.RecordCase("title", "pass", 20*time.Millisecond)
	mm.RecordCase("title", "pass", 30*time.Millisecond)
	mm.RecordCase("css", "fail", 10*time.Millisecond)

	if got := testutil.ToFloat64(mm.casesTotal.WithLabelValues("title", "pass")); got != 2 {
		t.Errorf("expected 2 passing title cases, got %v", got)
	}
	if got := testutil.ToFloat64(mm.casesTotal.WithLabelValues("css", "fail")); got != 1 {
		t.Errorf("expected 1 failing css case, got %v", got)
	}
}

func TestMetricsManager_PageState(t *testing.T) {
	mm := NewMetricsManager(MetricsConfig{Namespace: "test"})

	mm.RecordPageFetch("about", time.Second)
	mm.RecordPageReuse("about")
	mm.RecordPageReuse("about")
	mm.RecordWaitElapsed()

	if got := testutil.ToFloat64(mm.pageFetches.WithLabelValues("about")); got != 1 {
		t.Errorf("expected 1 fetch, got %v", got)
	}
	if got := testutil.ToFloat64(mm.pageReuses.WithLabelValues("about")); got != 2 {
		t.Errorf("expected 2 reuses, got %v", got)
	}
	if got := testutil.ToFloat64(mm.waitsElapsed); got != 1 {
		t.Errorf("expected 1 elapsed wait, got %v", got)
	}
}

func TestMetricsManager_NilSafe(t *testing.T) {
	var mm *MetricsManager
	mm.RecordCase("title", "pass", time.Second)
	mm.RecordPageFetch("home", time.Second)
	mm.RecordPageReuse("home")
	mm.RecordWaitElapsed()
	mm.RecordRunComplete(0)
	if err := mm.WriteTextfile("ignored.prom"); err != nil {
		t.Errorf("expected nil manager to ignore textfile writes, got %v", err)
	}
}

func TestMetricsManager_WriteTextfile(t *testing.T) {
	mm := NewMetricsManager(MetricsConfig{Labels: map[string]string{"site": "replica"}})
	mm.RecordCase("link_back", "pass", time.Millisecond)
	mm.RecordRunComplete(0)

	path := filepath.Join(t.TempDir(), "pageprobe.prom")
	if err := mm.WriteTextfile(path); err != nil {
		t.Fatalf("failed to write textfile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read textfile: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, `pageprobe_suite_cases_total{case="link_back",outcome="pass",site="replica"} 1`) {
		t.Errorf("textfile missing case counter:\n%s", content)
	}
	if !strings.Contains(content, "pageprobe_suite_last_run_failed_cases") {
		t.Errorf("textfile missing run gauge:\n%s", content)
	}
}

func TestMetricsManager_Handler(t *testing.T) {
	mm := NewMetricsManager(MetricsConfig{})
	mm.RecordPageFetch("home", time.Millisecond)

	rec := httptest.NewRecorder()
	mm.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "pageprobe_page_fetches_total") {
		t.Error("expected fetch counter in exposition")
	}
}
