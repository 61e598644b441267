package debugmux

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/decof-project/decofd/internal/access"
	"github.com/decof-project/decofd/internal/dictionary"
	"github.com/decof-project/decofd/internal/object"
)

func newTestDictionary(t *testing.T) *dictionary.Dictionary {
	t.Helper()
	dict := dictionary.New("test", nil)
	node := object.NewNode("scalars", access.Normal)
	if err := dict.Root().AddChild(node); err != nil {
		t.Fatalf("AddChild: %v", err)
	}
	return dict
}

func TestStatsReportsObjectCount(t *testing.T) {
	dict := newTestDictionary(t)
	mux := New(dict)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Objects           int `json:"objects"`
		ConnectedContexts int `json:"connectedContexts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// root + "scalars" node
	if body.Objects != 2 {
		t.Errorf("Objects = %d, want 2", body.Objects)
	}
	if body.ConnectedContexts != 0 {
		t.Errorf("ConnectedContexts = %d, want 0", body.ConnectedContexts)
	}
}

func TestLogLevelGetAndPut(t *testing.T) {
	dict := newTestDictionary(t)
	mux := New(dict)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/debug/loglevel", strings.NewReader("warn"))
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("PUT status = %d, want 204", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/loglevel", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "warn" {
		t.Errorf("log level = %q, want %q", got, "warn")
	}
}

func TestMetricsServesPrometheusExposition(t *testing.T) {
	dict := newTestDictionary(t)
	mux := New(dict)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "decof_objects") {
		t.Error("expected decof_objects gauge in /metrics output")
	}
}
