package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/ykarpov/procnode/internal/checks"
	"github.com/ykarpov/procnode/internal/probes"
	"github.com/ykarpov/procnode/internal/probes/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, opts *Options) *Server {
	t.Helper()
	if opts == nil {
		opts = &Options{}
	}
	if opts.Probes == nil {
		st := store.NewTOML(filepath.Join(t.TempDir(), "probes.toml"))
		if err := st.Load(); err != nil {
			t.Fatalf("store load: %v", err)
		}
		svc := probes.NewService(st, nil, testLogger())
		t.Cleanup(svc.StopAll)
		opts.Probes = svc
	}
	if opts.Checks == nil {
		opts.Checks = checks.NewRunner(testLogger(), nil)
	}
	return NewServer(opts)
}

func doJSON(t *testing.T, srv *Server, method, path string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reqBody)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.GetMux().ServeHTTP(rec, req)

	if out != nil && rec.Code < 300 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("unmarshal response (%d): %v\n%s", rec.Code, err, rec.Body.String())
		}
	}
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	var health struct {
		Status string `json:"status"`
	}
	rec := doJSON(t, srv, http.MethodGet, "/api/health", nil, &health)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if health.Status != "ok" {
		t.Errorf("expected status ok, got %q", health.Status)
	}
}

func TestVersionEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	var info struct {
		Version   string `json:"version"`
		GoVersion string `json:"go_version"`
	}
	rec := doJSON(t, srv, http.MethodGet, "/api/version", nil, &info)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if info.Version == "" {
		t.Error("version should not be empty")
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("expected go version %s, got %s", runtime.Version(), info.GoVersion)
	}
}

func TestPollEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	var poll struct {
		Kind     string `json:"kind"`
		Sentinel int    `json:"sentinel"`
	}
	rec := doJSON(t, srv, http.MethodGet, "/api/poll", nil, &poll)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	switch poll.Kind {
	case "no_children":
		if poll.Sentinel != -1 {
			t.Errorf("no_children should map to sentinel -1, got %d", poll.Sentinel)
		}
	case "none_pending":
		if poll.Sentinel != 0 {
			t.Errorf("none_pending should map to sentinel 0, got %d", poll.Sentinel)
		}
	case "pending":
		if poll.Sentinel <= 0 {
			t.Errorf("pending should map to a pid, got %d", poll.Sentinel)
		}
	default:
		t.Errorf("unexpected kind %q", poll.Kind)
	}
}

func TestChecksEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	var run struct {
		Passed  bool  `json:"passed"`
		Results []any `json:"results"`
	}
	rec := doJSON(t, srv, http.MethodPost, "/api/checks/run", nil, &run)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	// Empty runner: vacuously passing
	if !run.Passed {
		t.Error("empty check suite should pass")
	}
}

func TestProbeCRUD(t *testing.T) {
	srv := newTestServer(t, nil)

	// Create
	var created probes.Status
	rec := doJSON(t, srv, http.MethodPost, "/api/probes", ProbeInput{
		ID:      "cpu",
		Command: "vmstat 1",
	}, &created)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if created.ID != "cpu" || created.State != "idle" {
		t.Errorf("unexpected created probe: %+v", created)
	}
	if created.Name != "cpu" {
		t.Errorf("name should default to ID, got %q", created.Name)
	}

	// Duplicate create
	rec = doJSON(t, srv, http.MethodPost, "/api/probes", ProbeInput{
		ID:      "cpu",
		Command: "vmstat 1",
	}, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 on duplicate, got %d", rec.Code)
	}

	// Missing command
	rec = doJSON(t, srv, http.MethodPost, "/api/probes", ProbeInput{ID: "bad"}, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for missing command, got %d", rec.Code)
	}

	// List
	var list struct {
		Probes []probes.Status `json:"probes"`
	}
	rec = doJSON(t, srv, http.MethodGet, "/api/probes", nil, &list)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(list.Probes) != 1 {
		t.Fatalf("expected 1 probe, got %d", len(list.Probes))
	}

	// Update
	var updated probes.Status
	rec = doJSON(t, srv, http.MethodPut, "/api/probes/cpu", ProbeInput{
		Command: "vmstat 5",
		Enabled: true,
	}, &updated)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if updated.Command != "vmstat 5" || !updated.Enabled {
		t.Errorf("unexpected updated probe: %+v", updated)
	}

	// Delete
	rec = doJSON(t, srv, http.MethodDelete, "/api/probes/cpu", nil, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodGet, "/api/probes/cpu", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestProbeLifecycleNotFound(t *testing.T) {
	srv := newTestServer(t, nil)

	for _, path := range []string{
		"/api/probes/ghost/start",
		"/api/probes/ghost/stop",
		"/api/probes/ghost/restart",
	} {
		rec := doJSON(t, srv, http.MethodPost, path, nil, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, rec.Code)
		}
	}
}

func TestBasicAuth(t *testing.T) {
	srv := newTestServer(t, &Options{
		AuthUsername: "admin",
		AuthPassword: "secret",
	})

	// Protected endpoint without credentials
	rec := doJSON(t, srv, http.MethodGet, "/api/poll", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without credentials, got %d", rec.Code)
	}
	if got := rec.Header().Get("WWW-Authenticate"); got == "" {
		t.Error("expected WWW-Authenticate header")
	}

	// Wrong credentials
	req := httptest.NewRequest(http.MethodGet, "/api/poll", nil)
	req.SetBasicAuth("admin", "wrong")
	rec = httptest.NewRecorder()
	srv.GetMux().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with wrong password, got %d", rec.Code)
	}

	// Correct credentials
	req = httptest.NewRequest(http.MethodGet, "/api/poll", nil)
	req.SetBasicAuth("admin", "secret")
	rec = httptest.NewRecorder()
	srv.GetMux().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with credentials, got %d", rec.Code)
	}

	// Query parameter fallback for SSE clients
	auth := base64.StdEncoding.EncodeToString([]byte("admin:secret"))
	req = httptest.NewRequest(http.MethodGet, "/api/poll?auth="+auth, nil)
	rec = httptest.NewRecorder()
	srv.GetMux().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with query auth, got %d", rec.Code)
	}

	// Health stays open
	rec = doJSON(t, srv, http.MethodGet, "/api/health", nil, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("health should not require auth, got %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/probes", nil)
	rec := httptest.NewRecorder()
	srv.GetMux().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard origin, got %q", got)
	}
}
