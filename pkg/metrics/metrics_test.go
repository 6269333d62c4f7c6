package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegistryObserve(t *testing.T) {
	r := NewRegistry()
	r.ObserveLoad(1.5, 10, 40)
	r.ObserveRun("dijkstra", "custom", 0.25, 1024)
	r.ObserveRun("dijkstra", "custom", 0.5, 2048)
	r.ObserveMismatches("betweenness", 3)

	if got := testutil.ToFloat64(r.vertices); got != 10 {
		t.Errorf("Expected 10 vertices, got %v", got)
	}
	if got := testutil.ToFloat64(r.runs.WithLabelValues("dijkstra", "custom")); got != 2 {
		t.Errorf("Expected 2 runs, got %v", got)
	}
	if got := testutil.ToFloat64(r.lastTime.WithLabelValues("dijkstra", "custom")); got != 0.5 {
		t.Errorf("Expected last duration 0.5, got %v", got)
	}
	if got := testutil.ToFloat64(r.mismatches.WithLabelValues("betweenness")); got != 3 {
		t.Errorf("Expected 3 mismatches, got %v", got)
	}
}

func TestRegistryHandler(t *testing.T) {
	r := NewRegistry()
	r.ObserveRun("matching", "custom", 0.1, 0)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `graphbench_algorithm_runs_total{algorithm="matching",impl="custom"} 1`) {
		t.Errorf("Metrics output missing run counter:\n%s", body)
	}
}

func TestNopRecorder(t *testing.T) {
	var rec Recorder = Nop{}
	rec.ObserveLoad(1, 2, 3)
	rec.ObserveRun("a", "b", 1, 2)
	rec.ObserveMismatches("a", 1)
}
