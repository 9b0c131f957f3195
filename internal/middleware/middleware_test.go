package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	io.WriteString(w, GetClientFromContext(r.Context()))
})

func TestAPIKeyAuth(t *testing.T) {
	h := APIKeyAuth(map[string]string{"ci": "secret-key"})(okHandler)

	tests := []struct {
		name   string
		path   string
		header map[string]string
		status int
		body   string
	}{
		{"public path", "/health", nil, http.StatusOK, ""},
		{"missing", "/v1/tools", nil, http.StatusUnauthorized, ""},
		{"bearer", "/v1/tools", map[string]string{"Authorization": "Bearer secret-key"}, http.StatusOK, "ci"},
		{"bare", "/v1/tools", map[string]string{"Authorization": "secret-key"}, http.StatusOK, "ci"},
		{"x-api-key", "/v1/tools", map[string]string{"X-API-Key": "secret-key"}, http.StatusOK, "ci"},
		{"wrong", "/v1/tools", map[string]string{"Authorization": "Bearer nope"}, http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.status == http.StatusOK && rec.Body.String() != tt.body {
				t.Errorf("client = %q, want %q", rec.Body.String(), tt.body)
			}
		})
	}
}

func TestAPIKeyAuthDisabled(t *testing.T) {
	h := APIKeyAuth(nil)(okHandler)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/tools", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestTokenBucket(t *testing.T) {
	tb := NewTokenBucket(2, 1)
	now := tb.lastRefill
	if !tb.allowAt(now) || !tb.allowAt(now) {
		t.Fatal("first two requests should pass")
	}
	if tb.allowAt(now) {
		t.Fatal("third request should be limited")
	}
	if !tb.allowAt(now.Add(1500 * time.Millisecond)) {
		t.Fatal("bucket should refill")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := NewRateLimiter(1, 0)
	defer limiter.Stop()
	h := RateLimit(limiter)(okHandler)

	do := func(path, addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}
	if rec := do("/v1/tools", "10.0.0.1:1111"); rec.Code != http.StatusOK {
		t.Fatalf("first = %d", rec.Code)
	}
	rec := do("/v1/tools", "10.0.0.1:2222")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("same host other port = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("retry-after = %q", rec.Header().Get("Retry-After"))
	}
	if rec := do("/v1/tools", "10.0.0.2:1111"); rec.Code != http.StatusOK {
		t.Errorf("other host = %d", rec.Code)
	}
	if rec := do("/health", "10.0.0.1:1111"); rec.Code != http.StatusOK {
		t.Errorf("health = %d", rec.Code)
	}
}

func TestRateLimiterEvict(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	defer limiter.Stop()
	limiter.Allow("a")
	limiter.evict(time.Now().Add(time.Hour), 10*time.Minute)
	if len(limiter.buckets) != 0 {
		t.Errorf("buckets = %d", len(limiter.buckets))
	}
}

func TestMetrics(t *testing.T) {
	m := NewMetrics()
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/fail" {
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))

	done := m.BatchStarted()
	m.FileDone(false)
	m.FileDone(true)
	if m.BatchesRunning.Load() != 1 {
		t.Errorf("running = %d", m.BatchesRunning.Load())
	}
	done()

	rec := httptest.NewRecorder()
	m.Handler(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	var snap map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	want := map[string]float64{
		"requests_total":   2,
		"requests_success": 1,
		"requests_failed":  1,
		"batches_total":    1,
		"batches_running":  0,
		"files_analyzed":   2,
		"files_failed":     1,
	}
	for k, v := range want {
		if snap[k] != v {
			t.Errorf("%s = %v, want %v", k, snap[k], v)
		}
	}
}

func TestHealthHandler(t *testing.T) {
	checks := map[string]HealthChecker{
		"tools": CheckFunc(func(context.Context) error { return errors.New("bandit missing") }),
		"db":    CheckFunc(func(context.Context) error { return nil }),
	}
	rec := httptest.NewRecorder()
	HealthHandler(checks)(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
	var hs HealthStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &hs); err != nil {
		t.Fatal(err)
	}
	if hs.Checks["tools"].Message != "bandit missing" || hs.Checks["db"].Status != "healthy" {
		t.Errorf("checks = %+v", hs.Checks)
	}
}

func TestRunChecksConcurrent(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 2)
	wait := CheckFunc(func(ctx context.Context) error {
		started <- struct{}{}
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan HealthStatus, 1)
	go func() { done <- RunChecks(ctx, map[string]HealthChecker{"a": wait, "b": wait}) }()

	// both checks must be in flight before either is released
	<-started
	<-started
	close(release)

	hs := <-done
	if hs.Status != "healthy" || len(hs.Checks) != 2 {
		t.Errorf("status = %+v", hs)
	}
}

func TestRunChecksRecordsEveryFailure(t *testing.T) {
	fail := func(msg string) HealthChecker {
		return CheckFunc(func(context.Context) error { return errors.New(msg) })
	}
	checks := map[string]HealthChecker{
		"tools":    fail("flake8 missing"),
		"database": fail("connection refused"),
		"storage":  CheckFunc(func(context.Context) error { return nil }),
	}
	hs := RunChecks(context.Background(), checks)
	if hs.Status != "unhealthy" {
		t.Errorf("status = %q", hs.Status)
	}
	if hs.Checks["tools"].Message != "flake8 missing" || hs.Checks["database"].Message != "connection refused" {
		t.Errorf("checks = %+v", hs.Checks)
	}
	if hs.Checks["storage"].Status != "healthy" {
		t.Errorf("storage = %+v", hs.Checks["storage"])
	}
}

func TestRequestLogger(t *testing.T) {
	var buf strings.Builder
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.JSONFormatter{})

	h := RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		io.WriteString(w, "hi")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/analyze", nil))

	var entry map[string]any
	if err := json.Unmarshal([]byte(buf.String()), &entry); err != nil {
		t.Fatalf("log line %q: %v", buf.String(), err)
	}
	if entry["path"] != "/v1/analyze" || entry["status"] != float64(418) || entry["bytes"] != float64(2) || entry["level"] != "warning" {
		t.Errorf("entry = %v", entry)
	}
}

func TestValidateFileName(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{"app.py", true},
		{"APP.PY", true},
		{"my module.py", true},
		{"", false},
		{"app.txt", false},
		{"app", false},
		{"dir/app.py", false},
		{`dir\app.py`, false},
		{"a\x00.py", false},
		{strings.Repeat("a", 300) + ".py", false},
	}
	for _, tt := range tests {
		if err := ValidateFileName(tt.name); (err == nil) != tt.ok {
			t.Errorf("ValidateFileName(%q) = %v, ok want %v", tt.name, err, tt.ok)
		}
	}
}

func TestValidateContent(t *testing.T) {
	if s, err := ValidateContent("a.py", []byte("print('é')\n")); err != nil || s != "print('é')\n" {
		t.Errorf("valid content = %q, %v", s, err)
	}
	if _, err := ValidateContent("a.py", []byte{0xff, 0xfe}); err == nil {
		t.Error("invalid UTF-8 accepted")
	}
	if _, err := ValidateContent("a.py", []byte("x\x00")); err == nil {
		t.Error("NUL accepted")
	}
}

func TestValidateParams(t *testing.T) {
	if err := ValidateReportID("0b6f53f6-4a77-4c43-9a3e-8f0c2a1d9e10"); err != nil {
		t.Error(err)
	}
	if err := ValidateReportID("../etc"); err == nil {
		t.Error("bad id accepted")
	}
	if got := ValidateLimit(500); got != 100 {
		t.Errorf("limit = %d", got)
	}
	if p, s := ValidatePage(-1, 0); p != 1 || s != 20 {
		t.Errorf("page = %d,%d", p, s)
	}
	if got := ValidateDays(0); got != 7 {
		t.Errorf("days = %d", got)
	}
}
