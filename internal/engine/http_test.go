package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTTPClientAnalyze(t *testing.T) {
	var got analyzeRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/analyze" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"final_state": map[string]any{"market_report": "up"},
			"decision":    "BUY",
		})
	}))
	defer srv.Close()

	c, err := NewHTTPClient(Config{URL: srv.URL, Token: "tok", Analysts: []string{"market", "news"}})
	if err != nil {
		t.Fatalf("NewHTTPClient: %v", err)
	}

	state, decision, err := c.Analyze(context.Background(), "CL=F", "2025-03-10")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if decision != "BUY" {
		t.Fatalf("decision = %q", decision)
	}
	if state.StringField("market_report") != "up" {
		t.Fatalf("state = %v", state)
	}
	if got.Ticker != "CL=F" || got.Date != "2025-03-10" {
		t.Fatalf("request = %+v", got)
	}
	if len(got.Analysts) != 2 {
		t.Fatalf("analysts = %v", got.Analysts)
	}
	if auth != "Bearer tok" {
		t.Fatalf("auth = %q", auth)
	}
}

func TestHTTPClientAnalyzeErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"model overloaded"}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, _ := NewHTTPClient(Config{URL: srv.URL})
	_, _, err := c.Analyze(context.Background(), "CL=F", "2025-03-10")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "status 503") || !strings.Contains(err.Error(), "model overloaded") {
		t.Fatalf("error = %v", err)
	}
}

func TestNewHTTPClientRequiresURL(t *testing.T) {
	if _, err := NewHTTPClient(Config{}); err == nil {
		t.Fatal("expected error for empty url")
	}
}

func TestStateFieldCoercion(t *testing.T) {
	s := State{
		"text":   "  padded  ",
		"number": 42,
		"empty":  "",
		"nested": map[string]any{"judge_decision": "hold"},
	}
	if got := s.StringField("text"); got != "padded" {
		t.Fatalf("text = %q", got)
	}
	if got := s.StringField("number"); got != "42" {
		t.Fatalf("number = %q", got)
	}
	if got := s.StringField("missing"); got != "" {
		t.Fatalf("missing = %q", got)
	}
	if got := s.StringField("empty"); got != "" {
		t.Fatalf("empty = %q", got)
	}
	if got := s.NestedField("nested", "judge_decision"); got != "hold" {
		t.Fatalf("nested = %q", got)
	}
	if got := s.NestedField("text", "anything"); got != "" {
		t.Fatalf("non-map nested = %q", got)
	}
}
