package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace/noop"

	"github.com/copywriting24/genapi/internal/provider"
	"github.com/copywriting24/genapi/internal/quota"
	"github.com/copywriting24/genapi/pkg/ratelimit"
)

func setupTest(store *mockStore, prov *mockProvider, limiterAllowed bool) *Handler {
	if store == nil {
		store = &mockStore{}
	}
	if prov == nil {
		prov = &mockProvider{}
	}
	ledger := quota.NewLedger(store, &mockOverrideStore{}, nil, 3)
	svc := NewService(store, ledger, NewEngine(prov), 0.80, 4.00, 30*time.Second)
	limiter := ratelimit.NewTestLimiter(&mockLimiterStore{allowed: limiterAllowed})
	tracer := noop.NewTracerProvider().Tracer("test")

	return NewHandler(svc, limiter, tracer)
}

func generateBody(t *testing.T) *bytes.Reader {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"topic":       "Pompy ciepła w domu jednorodzinnym",
		"length":      2000,
		"keywords":    []string{"pompa ciepła"},
		"fingerprint": "fp-1234567890",
	})
	if err != nil {
		t.Fatal(err)
	}
	return bytes.NewReader(body)
}

func TestHandleGenerate_Success(t *testing.T) {
	h := setupTest(nil, nil, true)

	req := httptest.NewRequest("POST", "/api/generate", generateBody(t))
	req.RemoteAddr = "1.2.3.4:5678"
	w := httptest.NewRecorder()

	h.HandleGenerate(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp["success"] != true {
		t.Errorf("Expected success true, got %v", resp["success"])
	}
	if resp["result"] == "" {
		t.Error("Expected non-empty result")
	}
	if resp["remaining"].(float64) != 3 {
		t.Errorf("Expected remaining 3, got %v", resp["remaining"])
	}
	if _, err := time.Parse(time.RFC3339, resp["resetAt"].(string)); err != nil {
		t.Errorf("resetAt not RFC3339: %v", resp["resetAt"])
	}
}

func TestHandleGenerate_InvalidBody(t *testing.T) {
	h := setupTest(nil, nil, true)

	req := httptest.NewRequest("POST", "/api/generate", strings.NewReader(`{invalid json}`))
	w := httptest.NewRecorder()

	h.HandleGenerate(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

func TestHandleGenerate_ValidationError(t *testing.T) {
	h := setupTest(nil, nil, true)

	body, _ := json.Marshal(map[string]any{
		"topic":       "ab",
		"length":      1500,
		"fingerprint": "fp-1234567890",
	})
	req := httptest.NewRequest("POST", "/api/generate", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.HandleGenerate(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}

	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["error"] != msgValidation {
		t.Errorf("Expected %q, got %v", msgValidation, resp["error"])
	}
	details := resp["details"].([]any)
	if len(details) != 2 {
		t.Errorf("Expected 2 details (topic, length), got %v", details)
	}
}

func TestHandleGenerate_QuotaExceeded(t *testing.T) {
	store := &mockStore{
		fpCountFunc: func(ctx context.Context, fingerprint string, since time.Time) (int, error) {
			return 3, nil
		},
	}
	h := setupTest(store, nil, true)

	req := httptest.NewRequest("POST", "/api/generate", generateBody(t))
	w := httptest.NewRecorder()

	h.HandleGenerate(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected 429, got %d", w.Code)
	}

	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["error"] != msgQuota {
		t.Errorf("Expected %q, got %v", msgQuota, resp["error"])
	}
	if resp["remaining"].(float64) != 0 {
		t.Errorf("Expected remaining 0, got %v", resp["remaining"])
	}
}

func TestHandleGenerate_BurstLimited(t *testing.T) {
	h := setupTest(nil, nil, false)

	req := httptest.NewRequest("POST", "/api/generate", generateBody(t))
	w := httptest.NewRecorder()

	h.HandleGenerate(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") != "60" {
		t.Errorf("Expected Retry-After: 60, got %s", w.Header().Get("Retry-After"))
	}

	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["error"] != msgBurst {
		t.Errorf("Expected %q, got %v", msgBurst, resp["error"])
	}
}

func TestHandleGenerate_ProviderError(t *testing.T) {
	prov := &mockProvider{
		completeFunc: func(ctx context.Context, req *provider.Request) (*provider.Response, error) {
			return nil, errors.New("internal upstream detail")
		},
	}
	h := setupTest(nil, prov, true)

	req := httptest.NewRequest("POST", "/api/generate", generateBody(t))
	w := httptest.NewRecorder()

	h.HandleGenerate(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", w.Code)
	}

	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["error"] != msgFailed {
		t.Errorf("Expected generic message, got %v", resp["error"])
	}
	if strings.Contains(w.Body.String(), "upstream detail") {
		t.Error("internal error text leaked to the client")
	}
}

func TestHandleGenerateStream_Success(t *testing.T) {
	prov := &mockProvider{
		chunks: []*provider.Chunk{
			{Delta: "<h1>Tytuł</h1>"},
			{Delta: "<p>Treść artykułu.</p>"},
			{Done: true, Model: "test-model", InputTokens: 100, OutputTokens: 200, StopReason: "end_turn"},
		},
	}
	h := setupTest(nil, prov, true)

	req := httptest.NewRequest("POST", "/api/generate/stream", generateBody(t))
	w := httptest.NewRecorder()

	h.HandleGenerateStream(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Header().Get("Content-Type") != "text/event-stream" {
		t.Errorf("Expected text/event-stream, got %s", w.Header().Get("Content-Type"))
	}

	body := w.Body.String()
	if !strings.Contains(body, `data: {"text":"<h1>Tytuł</h1>"}`) &&
		!strings.Contains(body, `"text"`) {
		t.Errorf("Body missing text events: %s", body)
	}
	if !strings.Contains(body, `"done":true`) {
		t.Errorf("Body missing done event: %s", body)
	}
	if !strings.Contains(body, `"remaining"`) || !strings.Contains(body, `"resetAt"`) {
		t.Errorf("Done event missing quota fields: %s", body)
	}
}

func TestHandleGenerateStream_ValidationStaysJSON(t *testing.T) {
	h := setupTest(nil, nil, true)

	body, _ := json.Marshal(map[string]any{
		"topic":       "ab",
		"length":      2000,
		"fingerprint": "fp-1234567890",
	})
	req := httptest.NewRequest("POST", "/api/generate/stream", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.HandleGenerateStream(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	if w.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Pre-stream rejection should be JSON, got %s", w.Header().Get("Content-Type"))
	}
}

func TestHandleGenerateStream_QuotaStaysJSON(t *testing.T) {
	store := &mockStore{
		ipCountFunc: func(ctx context.Context, ip string, since time.Time) (int, error) {
			return 3, nil
		},
	}
	h := setupTest(store, nil, true)

	req := httptest.NewRequest("POST", "/api/generate/stream", generateBody(t))
	w := httptest.NewRecorder()

	h.HandleGenerateStream(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected 429, got %d", w.Code)
	}
	if w.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Pre-stream rejection should be JSON, got %s", w.Header().Get("Content-Type"))
	}
}

func TestHandleGenerateStream_MidStreamError(t *testing.T) {
	prov := &mockProvider{
		chunks: []*provider.Chunk{
			{Delta: "partial"},
			{Err: errors.New("stream broke")},
		},
	}
	h := setupTest(nil, prov, true)

	req := httptest.NewRequest("POST", "/api/generate/stream", generateBody(t))
	w := httptest.NewRecorder()

	h.HandleGenerateStream(w, req)

	// Stream already started: status stays 200, error travels as an event.
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"error":"`+msgStreamError+`"`) {
		t.Errorf("Body missing error event: %s", body)
	}
	if strings.Contains(body, "stream broke") {
		t.Error("internal error text leaked into the stream")
	}
}

func TestHandleLimitStatus(t *testing.T) {
	store := &mockStore{
		fpCountFunc: func(ctx context.Context, fingerprint string, since time.Time) (int, error) {
			return 2, nil
		},
	}
	h := setupTest(store, nil, true)

	req := httptest.NewRequest("GET", "/api/limit-status?fingerprint=fp-1234567890", nil)
	w := httptest.NewRecorder()

	h.HandleLimitStatus(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["remaining"].(float64) != 1 {
		t.Errorf("Expected remaining 1, got %v", resp["remaining"])
	}
	if resp["total"].(float64) != 3 {
		t.Errorf("Expected total 3, got %v", resp["total"])
	}
}

func TestHandleLimitStatus_MissingFingerprint(t *testing.T) {
	h := setupTest(nil, nil, true)

	for _, query := range []string{"", "?fingerprint=short", "?fingerprint=" + strings.Repeat("x", 129)} {
		req := httptest.NewRequest("GET", "/api/limit-status"+query, nil)
		w := httptest.NewRecorder()

		h.HandleLimitStatus(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("query %q: expected 400, got %d", query, w.Code)
		}
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		want       string
	}{
		{"forwarded single", "10.0.0.1:1234", "203.0.113.7", "203.0.113.7"},
		{"forwarded chain", "10.0.0.1:1234", "203.0.113.7, 10.0.0.2", "203.0.113.7"},
		{"remote addr", "203.0.113.7:1234", "", "203.0.113.7"},
		{"bare remote addr", "203.0.113.7", "", "203.0.113.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := clientIP(req); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHandleHealth(t *testing.T) {
	h := setupTest(nil, nil, true)

	req := httptest.NewRequest("GET", "/api/health", nil)
	w := httptest.NewRecorder()

	h.HandleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", resp["status"])
	}
}
