package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/talgya/vorticog/internal/world"
)

func TestWriteErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{world.ErrNotFound, http.StatusNotFound},
		{world.ErrUnauthorized, http.StatusForbidden},
		{world.ErrInvalidState, http.StatusConflict},
		{world.ErrInvalidInput, http.StatusBadRequest},
		{world.ErrTransient, http.StatusServiceUnavailable},
		{fmt.Errorf("wrapped: %w", world.ErrInvalidState), http.StatusConflict},
		{fmt.Errorf("opaque failure"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		writeError(rec, tt.err)
		if rec.Code != tt.want {
			t.Errorf("writeError(%v) status = %d, want %d", tt.err, rec.Code, tt.want)
		}
		var body map[string]string
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Errorf("writeError(%v) body not json: %v", tt.err, err)
		}
	}
}

func TestAdminOnly(t *testing.T) {
	called := false
	handler := func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}

	// No configured key disables writes outright.
	s := &Server{adminKey: ""}
	rec := httptest.NewRecorder()
	s.adminOnly(handler)(rec, httptest.NewRequest(http.MethodPost, "/api/v1/turn", nil))
	if rec.Code != http.StatusForbidden || called {
		t.Errorf("disabled admin: status %d called %v", rec.Code, called)
	}

	s = &Server{adminKey: "secret"}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/turn", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	s.adminOnly(handler)(rec, req)
	if rec.Code != http.StatusForbidden || called {
		t.Errorf("bad token: status %d called %v", rec.Code, called)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/turn", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	s.adminOnly(handler)(rec, req)
	if rec.Code != http.StatusOK || !called {
		t.Errorf("good token: status %d called %v", rec.Code, called)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	rl.SetScopeLimit("decide", 1)

	if !rl.Allow("events", "1.2.3.4") || !rl.Allow("events", "1.2.3.4") {
		t.Fatal("first two requests denied")
	}
	if rl.Allow("events", "1.2.3.4") {
		t.Error("third request within window allowed")
	}
	// A scope with its own budget is unaffected by the exhausted one.
	if !rl.Allow("decide", "1.2.3.4") {
		t.Error("separate scope shares exhausted budget")
	}
	if rl.Allow("decide", "1.2.3.4") {
		t.Error("scope override of 1 not enforced")
	}
	// Other clients have their own budget.
	if !rl.Allow("events", "5.6.7.8") {
		t.Error("separate client denied")
	}
	if rl.RetryAfter("events", "1.2.3.4") <= 0 {
		t.Error("retry-after not positive for limited client")
	}

	// Budgets replenish once the window elapses.
	later := time.Now().Add(2 * time.Minute)
	rl.now = func() time.Time { return later }
	if !rl.Allow("events", "1.2.3.4") {
		t.Error("budget not replenished after window reset")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	handler := RateLimitMiddleware(rl, "decide", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/decide", nil)
	req.RemoteAddr = "9.9.9.9:1234"

	rec := httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("first request status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
}

func TestDecodeValidated(t *testing.T) {
	compiled, err := compileSchemas()
	if err != nil {
		t.Fatalf("compile schemas: %v", err)
	}

	var req struct {
		AgentID string                 `json:"agentId"`
		Context string                 `json:"context"`
		Options []world.DecisionOption `json:"options"`
	}

	body := `{"agentId":"a1","context":"expand","options":[{"id":"o1","description":"build","riskLevel":40,"potentialReward":60}]}`
	httpReq := httptest.NewRequest(http.MethodPost, "/api/v1/decide", strings.NewReader(body))
	if err := decodeValidated(httpReq, compiled.decide, &req); err != nil {
		t.Fatalf("valid payload rejected: %v", err)
	}
	if req.AgentID != "a1" || len(req.Options) != 1 {
		t.Errorf("decoded request = %+v", req)
	}

	// Missing required fields fail schema validation.
	httpReq = httptest.NewRequest(http.MethodPost, "/api/v1/decide", strings.NewReader(`{"context":"expand"}`))
	if err := decodeValidated(httpReq, compiled.decide, &req); err == nil {
		t.Error("payload missing agentId accepted")
	}

	httpReq = httptest.NewRequest(http.MethodPost, "/api/v1/decide", strings.NewReader(`{not json`))
	if err := decodeValidated(httpReq, compiled.decide, &req); err == nil {
		t.Error("malformed json accepted")
	}
}
