package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/bryanwahyu/threatdesk/internal/config"
)

type webhook struct {
	mu    sync.Mutex
	texts []string
}

func (h *webhook) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	h.mu.Lock()
	h.texts = append(h.texts, body.Text)
	h.mu.Unlock()
	_, _ = io.WriteString(w, `{"ok":true}`)
}

func fakeModel(content string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, _ := json.Marshal(map[string]any{
			"id":     "cmpl-1",
			"object": "chat.completion",
			"model":  "test",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(b)
	}
}

func writeConfig(t *testing.T, modelURL, botURL string) string {
	t.Helper()
	dir := t.TempDir()
	cfg := fmt.Sprintf(`
log:
  level: error
ai:
  baseURL: %s/v1/
  apiKey: test-key
alert:
  enabled: true
  baseURL: %s
  botToken: "42:abc"
  chatID: "8438"
scan:
  progressDelay: 0s
  settleDelay: 0s
storage:
  driver: sqlite
  path: %s
`, modelURL, botURL, filepath.Join(dir, "threatdesk.db"))
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errb bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errb)
	err := cmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	model := httptest.NewServer(fakeModel(`{"isSafe":false,"threatLevel":"High","message":"Credential phishing","details":["Look-alike login form"]}`))
	defer model.Close()
	hook := &webhook{}
	bot := httptest.NewServer(hook)
	defer bot.Close()

	config := writeConfig(t, model.URL, bot.URL)

	out, err := run(t, "--config", config, "scan", "http://evil.example/login")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !strings.Contains(out, "THREAT (High)") || !strings.Contains(out, "Credential phishing") {
		t.Errorf("scan output = %q", out)
	}

	hook.mu.Lock()
	texts := append([]string(nil), hook.texts...)
	hook.mu.Unlock()
	if len(texts) != 1 {
		t.Fatalf("webhook got %d messages, want 1", len(texts))
	}
	for _, want := range []string{"Input: http://evil.example/login", "Result: THREAT", "Level: High", "Operator: Cyber Hacker Ahmed Raj"} {
		if !strings.Contains(texts[0], want) {
			t.Errorf("relay %q missing %q", texts[0], want)
		}
	}

	out, err = run(t, "--config", config, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "total 1  malicious 1  safety score 0%") || !strings.Contains(out, "Malicious") {
		t.Errorf("history output = %q", out)
	}

	out, err = run(t, "--config", config, "history", "-o", "markdown")
	if err != nil || !strings.Contains(out, "# Threat Console Report") || !strings.Contains(out, "Credential phishing") {
		t.Errorf("markdown history = %q, %v", out, err)
	}

	if out, err = run(t, "--config", config, "history", "--clear"); err != nil || !strings.Contains(out, "history cleared") {
		t.Fatalf("history --clear = %q, %v", out, err)
	}
	out, err = run(t, "--config", config, "history")
	if err != nil || !strings.Contains(out, "total 0  malicious 0  safety score 100%") {
		t.Errorf("history after clear = %q, %v", out, err)
	}

	if out, err = run(t, "--config", config, "profile", "--name", "Rin", "--role", "Blue team"); err != nil {
		t.Fatalf("profile set: %v", err)
	}
	out, err = run(t, "--config", config, "profile")
	if err != nil || !strings.Contains(out, "name: Rin") || !strings.Contains(out, "role: Blue team") {
		t.Errorf("profile output = %q, %v", out, err)
	}

	if _, err := run(t, "--config", config, "profile", "--name", "  "); err == nil {
		t.Error("blank profile name accepted")
	}
	if _, err := run(t, "--config", config, "scan", "   "); err == nil {
		t.Error("blank scan target accepted")
	}
}

func TestOpenStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg := config.Default()
	cfg.Storage.Driver = "floppy"
	if _, err := openStore(ctx, cfg); !errors.Is(err, config.ErrUnknownDriver) {
		t.Errorf("openStore(floppy) error = %v, want ErrUnknownDriver", err)
	}

	for _, driver := range []string{config.DriverFile, config.DriverSQLite} {
		cfg := config.Default()
		cfg.Storage.Driver = driver
		cfg.Storage.Dir = t.TempDir()
		cfg.Storage.Path = filepath.Join(t.TempDir(), "td.db")
		store, err := openStore(ctx, cfg)
		if err != nil {
			t.Fatalf("openStore(%s) error = %v", driver, err)
		}
		if err := store.Ping(ctx); err != nil {
			t.Errorf("%s Ping() error = %v", driver, err)
		}
		_ = store.Close()
	}
}

func TestOutputFormats(t *testing.T) {
	config := writeConfig(t, "http://127.0.0.1:1", "http://127.0.0.1:1")

	tests := []struct {
		args []string
	}{
		{args: []string{"scan", "-o", "json", "a.example"}},
		{args: []string{"history", "-o", "json"}},
		{args: []string{"history", "--output", "csv"}},
	}
	for _, tt := range tests {
		_, err := run(t, append([]string{"--config", config}, tt.args...)...)
		if !errors.Is(err, errUnknownFormat) {
			t.Errorf("%v error = %v, want errUnknownFormat", tt.args, err)
		}
	}

	if err := checkFormat("md", "text", "yaml", "markdown", "md"); err != nil {
		t.Errorf("checkFormat(md) = %v", err)
	}
}
