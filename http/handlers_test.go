package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"churnguard/cache"
	"churnguard/db"
	"churnguard/ml"
	"churnguard/monitoring"
	"churnguard/service"
)

func newTestService(t *testing.T, audit bool) *service.PredictionService {
	t.Helper()
	artifacts, err := ml.LoadArtifacts(ml.DefaultPaths("../ml/testdata"))
	if err != nil {
		t.Fatal(err)
	}
	lru, err := cache.NewLRU(8)
	if err != nil {
		t.Fatal(err)
	}
	opts := service.Options{
		Strict:  true,
		Cache:   lru,
		Metrics: monitoring.NewMetrics(),
		Logger:  zaptest.NewLogger(t),
	}
	if audit {
		store, err := db.Open(filepath.Join(t.TempDir(), "audit.db"))
		if err != nil {
			t.Fatal(err)
		}
		opts.Store = store
	}
	svc, err := service.New(artifacts, opts)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { svc.Close() })
	return svc
}

func newTestRouter(t *testing.T, audit bool) http.Handler {
	t.Helper()
	router, err := NewRouter(DefaultServerConfig(), newTestService(t, audit), zaptest.NewLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	return router
}

func TestHealthHandler(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/health", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	newTestRouter(t, false).ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if payload["status"] != "ok" {
		t.Errorf("unexpected status: %v", payload["status"])
	}
	if v, _ := payload["version"].(string); len(v) != 16 {
		t.Errorf("unexpected version: %v", payload["version"])
	}
}

func TestIndexPage(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter(t, false).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		"<title>Customer Churn Prediction App</title>",
		"Enter Customer Details",
		"Account Info",
		"Service Details",
		"Contract &amp; Payment",
		`name="tenure" min="0" max="72" step="1" value="12"`,
		`value="70.00"`,
		`value="1500.00"`,
		`<option value="No phone service">`,
		"Predict Churn",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	// Nothing is predicted until the form is submitted.
	if strings.Contains(body, "Prediction Result") {
		t.Error("index page must not contain a prediction")
	}
	if rr.Header().Get("Content-Security-Policy") == "" {
		t.Error("security headers not applied")
	}
	if rr.Header().Get(RequestIDHeader) == "" {
		t.Error("request id header not set")
	}
}

func TestUnknownPathIsNotFound(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter(t, false).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
}

func TestStaticAssets(t *testing.T) {
	router := newTestRouter(t, false)
	for _, path := range []string{"/static/form.js", "/static/style.css"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rr.Code)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, false)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "churnguard_artifact_info") {
		t.Error("artifact_info metric not exported")
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := RecoveryMiddleware(zaptest.NewLogger(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rr.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/predict", nil)
	req.Header.Set("Origin", "https://crm.example.com")

	rr := httptest.NewRecorder()
	newTestRouter(t, false).ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://crm.example.com" {
		t.Errorf("unexpected allow origin %q", got)
	}
}

func TestRequestIDIsPropagated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(RequestIDHeader, "upstream-42")

	rr := httptest.NewRecorder()
	newTestRouter(t, false).ServeHTTP(rr, req)
	if got := rr.Header().Get(RequestIDHeader); got != "upstream-42" {
		t.Errorf("expected upstream id, got %q", got)
	}
}
