package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dd0wney/cluso-genremap/pkg/logging"
)

// --- PanicRecovery Tests ---

func TestPanicRecovery_HandlesNormalRequest(t *testing.T) {
	handler := PanicRecovery(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	}))

	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if rr.Body.String() != "OK" {
		t.Errorf("Expected body 'OK', got '%s'", rr.Body.String())
	}
}

func TestPanicRecovery_RecoversPanic(t *testing.T) {
	var logs bytes.Buffer
	logger := logging.NewJSONLogger(&logs, logging.DebugLevel)

	handler := PanicRecovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("test panic")
	}))

	req := httptest.NewRequest("GET", "/api/genre/1", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Expected status %d, got %d", http.StatusInternalServerError, rr.Code)
	}
	if strings.Contains(rr.Body.String(), "test panic") {
		t.Error("Response should not contain panic message")
	}
	if !strings.Contains(logs.String(), "test panic") {
		t.Errorf("Panic should be logged, got %q", logs.String())
	}
}

func TestPanicRecovery_RepanicsAbortHandler(t *testing.T) {
	handler := PanicRecovery(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Errorf("Expected ErrAbortHandler to propagate, got %v", rec)
		}
	}()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
}

// --- Logging Tests ---

func TestLogging_IncludesRequestFields(t *testing.T) {
	var logs bytes.Buffer
	logger := logging.NewJSONLogger(&logs, logging.DebugLevel)

	getRequestID := func(r *http.Request) string {
		return "test-id-123"
	}
	handler := Logging(logger, getRequestID)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Errorf("Expected status %d, got %d", http.StatusTeapot, rr.Code)
	}
	out := logs.String()
	for _, want := range []string{`"request_id":"test-id-123"`, `"status":418`, `"path":"/test"`} {
		if !strings.Contains(out, want) {
			t.Errorf("Log output missing %s: %s", want, out)
		}
	}
}

func TestLogging_ServerErrorsAtWarn(t *testing.T) {
	var logs bytes.Buffer
	logger := logging.NewJSONLogger(&logs, logging.WarnLevel)

	ok := Logging(logger, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ok.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	if logs.Len() != 0 {
		t.Errorf("Successful request should log below warn, got %q", logs.String())
	}

	failing := Logging(logger, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	failing.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	if !strings.Contains(logs.String(), `"status":503`) {
		t.Errorf("5xx should be logged at warn, got %q", logs.String())
	}
}

func TestLogging_NilLogger(t *testing.T) {
	handler := Logging(nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/test", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, rr.Code)
	}
}

// --- RequestID Tests ---

func TestRequestID_GeneratesNew(t *testing.T) {
	var capturedID string
	handler := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedID = GetRequestID(r)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if len(capturedID) != 36 {
		t.Errorf("Expected a generated UUID, got %q", capturedID)
	}
	if rr.Header().Get(RequestIDHeader) != capturedID {
		t.Errorf("Response header should contain request ID")
	}
}

func TestRequestID_ClientProvided(t *testing.T) {
	tests := []struct {
		name   string
		header string
		check  func(t *testing.T, id string)
	}{
		{
			name:   "used as is",
			header: "client-provided-id",
			check: func(t *testing.T, id string) {
				if id != "client-provided-id" {
					t.Errorf("Expected 'client-provided-id', got '%s'", id)
				}
			},
		},
		{
			name:   "sanitized",
			header: "id<script>alert('xss')</script>",
			check: func(t *testing.T, id string) {
				if strings.ContainsAny(id, "<>'\"()") {
					t.Errorf("Request ID should be sanitized, got '%s'", id)
				}
			},
		},
		{
			name:   "truncated",
			header: strings.Repeat("a", 200),
			check: func(t *testing.T, id string) {
				if len(id) != maxRequestIDLength {
					t.Errorf("Request ID should be truncated to %d chars, got %d", maxRequestIDLength, len(id))
				}
			},
		},
		{
			name:   "nothing left after sanitizing",
			header: "<<<>>>",
			check: func(t *testing.T, id string) {
				if len(id) != 36 {
					t.Errorf("Expected a generated UUID, got %q", id)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var capturedID string
			handler := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				capturedID = GetRequestID(r)
			}))

			req := httptest.NewRequest("GET", "/", nil)
			req.Header.Set(RequestIDHeader, tt.header)
			handler.ServeHTTP(httptest.NewRecorder(), req)

			tt.check(t, capturedID)
		})
	}
}

func TestGetRequestID_NoContext(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if id := GetRequestID(req); id != "" {
		t.Errorf("Expected empty string for request without ID, got '%s'", id)
	}
}

func TestSanitizeRequestID(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"abc123", "abc123"},
		{"abc-123_456.xyz", "abc-123_456.xyz"},
		{"<script>", "script"},
		{"foo bar", "foobar"},
		{"test@email.com", "testemail.com"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := sanitizeRequestID(tt.input)
			if result != tt.expected {
				t.Errorf("sanitizeRequestID(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

// --- SecurityHeaders Tests ---

func TestSecurityHeaders(t *testing.T) {
	tests := []struct {
		name     string
		config   *SecurityHeadersConfig
		wantHSTS bool
	}{
		{"tls", &SecurityHeadersConfig{TLSEnabled: true}, true},
		{"plain", &SecurityHeadersConfig{TLSEnabled: false}, false},
		{"nil config", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := SecurityHeaders(tt.config)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

			expected := map[string]string{
				"X-Frame-Options":        "DENY",
				"X-Content-Type-Options": "nosniff",
				"Referrer-Policy":        "strict-origin-when-cross-origin",
			}
			for header, want := range expected {
				if got := rr.Header().Get(header); got != want {
					t.Errorf("Header %s: expected '%s', got '%s'", header, want, got)
				}
			}
			if !strings.Contains(rr.Header().Get("Content-Security-Policy"), "default-src 'self'") {
				t.Errorf("Unexpected CSP: %q", rr.Header().Get("Content-Security-Policy"))
			}
			if hsts := rr.Header().Get("Strict-Transport-Security") != ""; hsts != tt.wantHSTS {
				t.Errorf("HSTS set = %v, want %v", hsts, tt.wantHSTS)
			}
		})
	}
}

// --- Metrics Tests ---

type mockMetricsRecorder struct {
	mu            sync.Mutex
	requests      []string
	responseSizes []float64
	inFlight      int
}

func (m *mockMetricsRecorder) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, method+" "+path+" "+status)
}

func (m *mockMetricsRecorder) RecordResponseSize(method, path string, size float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responseSizes = append(m.responseSizes, size)
}

func (m *mockMetricsRecorder) IncHTTPRequestsInFlight() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight++
}

func (m *mockMetricsRecorder) DecHTTPRequestsInFlight() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight--
}

func TestMetrics_LabelsByRoutePattern(t *testing.T) {
	recorder := &mockMetricsRecorder{}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/genre/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Hello"))
	})
	handler := Metrics(recorder)(mux)

	for _, path := range []string{"/api/genre/1", "/api/genre/2", "/nope"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", path, nil))
	}

	want := []string{
		"GET GET /api/genre/{id} 200",
		"GET GET /api/genre/{id} 200",
		"GET " + unmatchedRoute + " 404",
	}
	if len(recorder.requests) != len(want) {
		t.Fatalf("Expected %d recorded requests, got %v", len(want), recorder.requests)
	}
	for i := range want {
		if recorder.requests[i] != want[i] {
			t.Errorf("request %d recorded as %q, want %q", i, recorder.requests[i], want[i])
		}
	}
	if recorder.responseSizes[0] != 5 {
		t.Errorf("Expected response size 5, got %v", recorder.responseSizes[0])
	}
}

func TestMetrics_TracksInFlight(t *testing.T) {
	recorder := &mockMetricsRecorder{}
	var inFlightDuringRequest int

	handler := Metrics(recorder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inFlightDuringRequest = recorder.inFlight
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if inFlightDuringRequest != 1 {
		t.Errorf("Expected in-flight to be 1 during request, got %d", inFlightDuringRequest)
	}
	if recorder.inFlight != 0 {
		t.Errorf("Expected in-flight to be 0 after request, got %d", recorder.inFlight)
	}
}

func TestMetrics_NilRecorder(t *testing.T) {
	handler := Metrics(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, rr.Code)
	}
}

func TestStatusWriter_FirstHeaderWins(t *testing.T) {
	rr := httptest.NewRecorder()
	sw := newStatusWriter(rr)

	sw.WriteHeader(http.StatusNotFound)
	sw.WriteHeader(http.StatusInternalServerError)

	if sw.statusCode != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, sw.statusCode)
	}
	if sw.Unwrap() != rr {
		t.Error("Unwrap should return the wrapped writer")
	}
}
