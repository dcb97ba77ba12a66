package httpserver

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	appfeed "github.com/bryanwahyu/threatdesk/internal/application/feed"
	appscans "github.com/bryanwahyu/threatdesk/internal/application/scans"
	"github.com/bryanwahyu/threatdesk/internal/domain/ai"
	"github.com/bryanwahyu/threatdesk/internal/infra/records"
	"github.com/bryanwahyu/threatdesk/internal/infra/storage"
	tdlog "github.com/bryanwahyu/threatdesk/internal/log"
)

func TestFeedStream(t *testing.T) {
	t.Parallel()

	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	logger := tdlog.Discard()
	console := appscans.NewConsole(context.Background(), appscans.Deps{
		Analyzer: stubAnalyzer{},
		Profiles: records.NewProfileRepository(store, logger),
		History:  records.NewScanLogRepository(store, logger),
		Logger:   logger,
	})
	defer console.Close()

	feed := appfeed.New(time.Hour, nil)
	first := feed.Tick()
	srv := httptest.NewServer(NewRouter(Options{Console: console, Feed: feed, Logger: logger}))
	defer srv.Close()

	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/v1/feed/stream", nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer resp.Body.Close()
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var snap streamMessage
	if err := conn.ReadJSON(&snap); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if snap.Type != "snapshot" || len(snap.Entries) != 1 || snap.Entries[0] != first {
		t.Errorf("snapshot = %+v", snap)
	}

	// the subscription is registered before the snapshot is written
	next := feed.Tick()
	var msg streamMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read entry: %v", err)
	}
	if msg.Type != "entry" || msg.Entry == nil || *msg.Entry != next {
		t.Errorf("entry message = %+v", msg)
	}
}

func TestFeedStream_RejectsForeignOrigin(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(NewRouter(Options{Feed: appfeed.New(time.Hour, nil), Logger: tdlog.Discard()}))
	defer srv.Close()

	header := http.Header{"Origin": []string{"https://attacker.example"}}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/v1/feed/stream", header)
	if err == nil {
		t.Fatal("Dial() from foreign origin succeeded")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("response = %v, want 403", resp)
	}
}

func TestReport(t *testing.T) {
	t.Parallel()

	srv, _ := newServer(t, stubAnalyzer{status: ai.SecurityStatus{IsSafe: true, ThreatLevel: ai.ThreatLow, Message: "Harmless page"}}, "")
	do(t, srv, http.MethodPost, "/v1/scans", `{"target":"ok.example"}`)

	resp := do(t, srv, http.MethodGet, "/v1/report", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /v1/report = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
		t.Errorf("Content-Type = %q", ct)
	}
	var b strings.Builder
	if _, err := io.Copy(&b, resp.Body); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(b.String(), "Harmless page") || !strings.Contains(b.String(), "# Threat Console Report") {
		t.Errorf("report body:\n%s", b.String())
	}
}
