package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackzampolin/pagefit/internal/config"
	"github.com/jackzampolin/pagefit/internal/measure"
	"github.com/jackzampolin/pagefit/internal/paginate"
	"github.com/jackzampolin/pagefit/internal/preview"
	"github.com/jackzampolin/pagefit/internal/server/endpoints"
	"github.com/jackzampolin/pagefit/internal/surface"
)

const resumeJSON = `{
  "id": "jane",
  "sections": [
    {"id": "header", "type": "header", "content": "# Jane Doe"},
    {"id": "exp", "type": "section", "content": "## Experience"},
    {"id": "skills", "type": "section", "content": "Go, Rust"}
  ]
}`

func newTestServer(t *testing.T, mock *surface.Mock) (*Server, *httptest.Server) {
	t.Helper()

	mopts := measure.DefaultOptions()
	mopts.Debounce = 5 * time.Millisecond
	mopts.Throttle = 0
	mopts.RetryDelay = 5 * time.Millisecond

	opts := paginate.DefaultOptions()
	opts.PageHeight = 1080

	svc := preview.New(preview.Config{
		Surface:     func() (surface.RenderSurface, error) { return mock, nil },
		Pagination:  opts,
		Measurement: mopts,
		CacheSize:   64,
	})
	t.Cleanup(func() { _ = svc.Close() })

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := config.WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}
	cm, err := config.NewManager(path)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	srv, err := New(Config{Preview: svc, ConfigManager: cm})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func doJSON(t *testing.T, method, url, body string, out any) int {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("failed to decode %s %s: %v", method, url, err)
		}
	}
	return resp.StatusCode
}

func waitForMeasurements(t *testing.T, base string, n int) endpoints.MeasurementsResponse {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		var resp endpoints.MeasurementsResponse
		if doJSON(t, "GET", base+"/api/measurements", "", &resp) == http.StatusOK && len(resp.Measurements) == n {
			return resp
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("measurements for %d sections were never published", n)
	return endpoints.MeasurementsResponse{}
}

func TestNew_RequiresPreview(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("New() without a preview service should fail")
	}
}

func TestServer_Health(t *testing.T) {
	_, ts := newTestServer(t, surface.NewMock(100))

	var health endpoints.HealthResponse
	if code := doJSON(t, "GET", ts.URL+"/health", "", &health); code != http.StatusOK {
		t.Fatalf("health status = %d, want %d", code, http.StatusOK)
	}
	if health.Status != "ok" {
		t.Errorf("health.Status = %q, want %q", health.Status, "ok")
	}
}

func TestServer_RequiresDocument(t *testing.T) {
	_, ts := newTestServer(t, surface.NewMock(100))

	for _, path := range []string{"/api/measurements", "/api/pagination", "/api/document"} {
		var errResp endpoints.ErrorResponse
		if code := doJSON(t, "GET", ts.URL+path, "", &errResp); code != http.StatusConflict {
			t.Errorf("GET %s status = %d, want %d", path, code, http.StatusConflict)
		}
		if errResp.Error == "" {
			t.Errorf("GET %s returned no error message", path)
		}
	}
}

func TestServer_DocumentFlow(t *testing.T) {
	mock := surface.NewMock(100)
	mock.Heights["exp"] = 900
	_, ts := newTestServer(t, mock)

	t.Run("invalid_document", func(t *testing.T) {
		code := doJSON(t, "PUT", ts.URL+"/api/document", `{"sections":[{"type":"sidebar"}]}`, nil)
		if code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", code, http.StatusBadRequest)
		}
	})

	var submitted endpoints.SubmitDocumentResponse
	if code := doJSON(t, "PUT", ts.URL+"/api/document", resumeJSON, &submitted); code != http.StatusAccepted {
		t.Fatalf("submit status = %d, want %d", code, http.StatusAccepted)
	}
	if submitted.ID != "jane" || submitted.Sections != 3 || submitted.Revision != 1 {
		t.Errorf("submit response = %+v", submitted)
	}
	if submitted.Fingerprint == "" {
		t.Error("submit response has no fingerprint")
	}

	ms := waitForMeasurements(t, ts.URL, 3)
	if ms.TotalHeight != 1100 {
		t.Errorf("TotalHeight = %v, want 1100", ms.TotalHeight)
	}

	t.Run("pagination", func(t *testing.T) {
		var r preview.Result
		if code := doJSON(t, "GET", ts.URL+"/api/pagination", "", &r); code != http.StatusOK {
			t.Fatalf("status = %d", code)
		}
		if r.TotalPages != 2 {
			t.Errorf("TotalPages = %d, want 2", r.TotalPages)
		}
		if r.Alternative != nil {
			t.Error("Alternative should be absent without optimize")
		}
	})

	t.Run("pagination_optimized", func(t *testing.T) {
		var r preview.Result
		if code := doJSON(t, "GET", ts.URL+"/api/pagination?optimize=true", "", &r); code != http.StatusOK {
			t.Fatalf("status = %d", code)
		}
		if !r.Optimized || r.Alternative == nil {
			t.Errorf("optimized result = %+v", r)
		}
	})

	t.Run("pagination_bad_query", func(t *testing.T) {
		if code := doJSON(t, "GET", ts.URL+"/api/pagination?optimize=maybe", "", nil); code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", code, http.StatusBadRequest)
		}
	})

	t.Run("status", func(t *testing.T) {
		var st endpoints.StatusResponse
		if code := doJSON(t, "GET", ts.URL+"/api/status", "", &st); code != http.StatusOK {
			t.Fatalf("status = %d", code)
		}
		if st.Document == nil || st.Document.ID != "jane" {
			t.Errorf("status document = %+v", st.Document)
		}
		if st.Preview.Orchestrator.PassesPublished < 1 {
			t.Errorf("PassesPublished = %d, want >= 1", st.Preview.Orchestrator.PassesPublished)
		}
		if st.ConfigFile == "" {
			t.Error("status should report the config file")
		}
	})

	t.Run("refresh", func(t *testing.T) {
		if code := doJSON(t, "POST", ts.URL+"/api/refresh", "", nil); code != http.StatusAccepted {
			t.Errorf("refresh status = %d, want %d", code, http.StatusAccepted)
		}
	})
}

func TestServer_PaginateOneShot(t *testing.T) {
	mock := surface.NewMock(600)
	_, ts := newTestServer(t, mock)

	body := fmt.Sprintf(`{"document": %s, "options": {"page_height": 1080, "margin_top": 40, "margin_bottom": 40, "optimize": true}}`, resumeJSON)
	var r preview.Result
	if code := doJSON(t, "POST", ts.URL+"/api/paginate", body, &r); code != http.StatusOK {
		t.Fatalf("status = %d, want %d", code, http.StatusOK)
	}
	if r.TotalPages != 3 {
		t.Errorf("TotalPages = %d, want 3", r.TotalPages)
	}
	if r.Alternative == nil {
		t.Error("Alternative missing with optimize set")
	}

	t.Run("measurements_only", func(t *testing.T) {
		body := `{"measurements": [{"section_id": "a", "height": 300, "type": "section"}]}`
		var r preview.Result
		if code := doJSON(t, "POST", ts.URL+"/api/paginate", body, &r); code != http.StatusOK {
			t.Fatalf("status = %d", code)
		}
		if r.TotalPages != 1 {
			t.Errorf("TotalPages = %d, want 1", r.TotalPages)
		}
	})

	t.Run("partial_options_keep_server_geometry", func(t *testing.T) {
		body := `{"measurements": [{"section_id": "a", "height": 300, "type": "section"}], "options": {"optimize": true}}`
		var r preview.Result
		if code := doJSON(t, "POST", ts.URL+"/api/paginate", body, &r); code != http.StatusOK {
			t.Fatalf("status = %d", code)
		}
		if r.TotalPages != 1 || r.HasOverflow {
			t.Fatalf("pages = %d, overflow = %v; want 1 page without overflow", r.TotalPages, r.HasOverflow)
		}
		if got := r.Pages[0].RemainingSpace; got != 700 {
			t.Errorf("RemainingSpace = %v, want 700 on a 1000 unit budget", got)
		}
		if r.Alternative == nil {
			t.Error("Alternative missing with optimize set")
		}
	})

	t.Run("malformed", func(t *testing.T) {
		if code := doJSON(t, "POST", ts.URL+"/api/paginate", `{`, nil); code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", code, http.StatusBadRequest)
		}
	})
}

func TestServer_Settings(t *testing.T) {
	_, ts := newTestServer(t, surface.NewMock(100))

	var list endpoints.SettingsResponse
	if code := doJSON(t, "GET", ts.URL+"/api/settings?prefix=measurement.", "", &list); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if len(list.Settings) == 0 {
		t.Fatal("no measurement settings listed")
	}
	for _, s := range list.Settings {
		if len(s.Key) < len("measurement.") || s.Key[:len("measurement.")] != "measurement." {
			t.Errorf("setting %q does not match prefix", s.Key)
		}
	}

	var one config.Setting
	if code := doJSON(t, "GET", ts.URL+"/api/settings/measurement.debounce_ms", "", &one); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if one.Key != "measurement.debounce_ms" {
		t.Errorf("Key = %q", one.Key)
	}

	if code := doJSON(t, "GET", ts.URL+"/api/settings/nope", "", nil); code != http.StatusNotFound {
		t.Errorf("unknown key status = %d, want %d", code, http.StatusNotFound)
	}

	var papers endpoints.PapersResponse
	if code := doJSON(t, "GET", ts.URL+"/api/papers", "", &papers); code != http.StatusOK {
		t.Fatalf("papers status = %d", code)
	}
	if len(papers.Papers) == 0 {
		t.Error("no paper sizes listed")
	}
}

func TestServer_Lifecycle(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := fmt.Sprint(l.Addr().(*net.TCPAddr).Port)
	l.Close()

	svc := preview.New(preview.Config{Surface: func() (surface.RenderSurface, error) { return surface.NewMock(1), nil }})
	defer svc.Close()

	srv, err := New(Config{Port: port, Preview: svc})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	serverErr := make(chan error, 1)
	go func() { serverErr <- srv.Start(ctx) }()

	base := "http://" + srv.Addr()
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get(base + "/health")
		if err == nil {
			resp.Body.Close()
			break
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("server did not start: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	if !srv.IsRunning() {
		t.Error("IsRunning() = false, want true")
	}
	if err := srv.Start(ctx); err == nil {
		t.Error("second Start() should fail while running")
	}

	cancel()
	select {
	case err := <-serverErr:
		if err != nil {
			t.Errorf("Start() returned %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down within timeout")
	}
	if srv.IsRunning() {
		t.Error("IsRunning() = true after shutdown, want false")
	}
}
