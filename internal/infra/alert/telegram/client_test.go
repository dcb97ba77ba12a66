package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewClient_RequiresCredentials(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Options{Token: "t"}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("NewClient() without chat id = %v, want ErrNotConfigured", err)
	}
	if _, err := NewClient(Options{ChatID: "1"}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("NewClient() without token = %v, want ErrNotConfigured", err)
	}
}

func TestClient_Notify(t *testing.T) {
	t.Parallel()

	var gotPath string
	var got sendMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &got)
		_, _ = io.WriteString(w, `{"ok":true,"result":{}}`)
	}))
	defer srv.Close()

	c, err := NewClient(Options{BaseURL: srv.URL, Token: "42:secret", ChatID: "8438"})
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Notify(context.Background(), "Result: THREAT"); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if gotPath != "/bot42:secret/sendMessage" {
		t.Errorf("path = %q", gotPath)
	}
	want := sendMessage{ChatID: "8438", Text: Header + "\n\nResult: THREAT", ParseMode: "Markdown"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_Notify_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		payload string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, payload: `{"ok":false,"description":"Unauthorized"}`},
		{name: "ok false with 200", status: http.StatusOK, payload: `{"ok":false,"description":"chat not found"}`},
		{name: "garbage", status: http.StatusBadGateway, payload: `<html>bad gateway</html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.payload)
			}))
			defer srv.Close()

			c, _ := NewClient(Options{BaseURL: srv.URL, Token: "t", ChatID: "c"})
			if err := c.Notify(context.Background(), "x"); err == nil {
				t.Error("Notify() error = nil")
			}
		})
	}
}

func TestClient_Notify_Unreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, _ := NewClient(Options{BaseURL: url, Token: "t", ChatID: "c"})
	if err := c.Notify(context.Background(), "x"); err == nil {
		t.Error("Notify() to closed server error = nil")
	}
}
