package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bryanwahyu/threatdesk/internal/domain/ai"
)

// completion wraps content in a minimal chat completion response.
func completion(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":      "cmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "test",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})
	return string(b)
}

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewClient(Options{BaseURL: srv.URL + "/v1/", APIKey: "test-key", Model: "gpt-4o-mini", Persona: "analyst"}), &calls
}

func TestClient_Analyze(t *testing.T) {
	t.Parallel()

	var gotBody map[string]any
	var gotPath, gotAuth string
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completion(`{"isSafe":false,"threatLevel":"Critical","message":"Credential phishing","details":["Fake login form"]}`))
	})

	got, err := c.Analyze(context.Background(), "http://evil.example/login", ai.CategoryLink)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	want := ai.SecurityStatus{ThreatLevel: ai.ThreatCritical, Message: "Credential phishing", Details: []string{"Fake login form"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Analyze() mismatch (-want +got):\n%s", diff)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want exactly 1", calls.Load())
	}
	if gotPath != "/v1/chat/completions" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	rf, _ := gotBody["response_format"].(map[string]any)
	if rf["type"] != "json_schema" {
		t.Errorf("response_format = %v", gotBody["response_format"])
	}
	msgs, _ := json.Marshal(gotBody["messages"])
	if !strings.Contains(string(msgs), "http://evil.example/login") {
		t.Errorf("prompt does not embed input: %s", msgs)
	}
}

func TestClient_Analyze_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name: "quota",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = io.WriteString(w, `{"error":{"message":"quota","type":"rate_limit"}}`)
			},
			wantErr: ai.ErrQuotaExceeded,
		},
		{
			name: "empty content",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = io.WriteString(w, completion(""))
			},
			wantErr: ai.ErrEmptyResponse,
		},
		{
			name: "no choices",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = io.WriteString(w, `{"id":"x","choices":[]}`)
			},
			wantErr: ai.ErrEmptyResponse,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "not json",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = io.WriteString(w, completion("I think it is fine"))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, _ := newTestClient(t, tt.handler)
			_, err := c.Analyze(context.Background(), "x", ai.CategoryLink)
			if err == nil {
				t.Fatal("Analyze() error = nil")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Analyze() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    ai.SecurityStatus
		wantErr bool
	}{
		{
			name:    "fenced json",
			content: "```json\n{\"isSafe\":true,\"threatLevel\":\"Low\",\"message\":\"ok\",\"details\":[]}\n```",
			want:    ai.SecurityStatus{IsSafe: true, ThreatLevel: ai.ThreatLow, Message: "ok", Details: []string{}},
		},
		{
			name:    "missing details becomes empty",
			content: `{"isSafe":true,"threatLevel":"medium","message":"meh"}`,
			want:    ai.SecurityStatus{IsSafe: true, ThreatLevel: ai.ThreatMedium, Message: "meh", Details: []string{}},
		},
		{name: "missing isSafe", content: `{"threatLevel":"Low","message":"ok","details":[]}`, wantErr: true},
		{name: "unknown level", content: `{"isSafe":true,"threatLevel":"Severe","message":"ok","details":[]}`, wantErr: true},
		{name: "blank", content: "   ", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Decode(tt.content)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Decode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestIsReasoningModel(t *testing.T) {
	t.Parallel()

	for model, want := range map[string]bool{"o3-mini": true, "gpt-5": true, "gpt-4o-mini": false, "gemini-2.0-flash": false} {
		if got := isReasoningModel(model); got != want {
			t.Errorf("isReasoningModel(%q) = %v, want %v", model, got, want)
		}
	}
}
