package dev

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fsroute-dev/fsroute/internal/config"
	"github.com/fsroute-dev/fsroute/pkg/router"
)

func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestWatcherDetectsChange(t *testing.T) {
	root := t.TempDir()

	changed := make(chan struct{}, 1)
	w, err := NewWatcher(root, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}, WithDebounceDelay(20*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(root, "index.go"), []byte("package x"), 0644); err != nil {
		t.Fatal(err)
	}

	waitFor(t, changed, "change callback")
}

func TestWatcherDetectsNewDirectory(t *testing.T) {
	root := t.TempDir()

	changed := make(chan struct{}, 8)
	w, err := NewWatcher(root, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}, WithDebounceDelay(20*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	sub := filepath.Join(root, "users")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changed, "directory create callback")

	// Writes inside the new directory are seen too.
	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(sub, "index.go"), []byte("package users"), 0644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changed, "nested file callback")
}

func TestWatcherIgnoresPatterns(t *testing.T) {
	root := t.TempDir()

	changed := make(chan struct{}, 1)
	w, err := NewWatcher(root, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}, WithDebounceDelay(20*time.Millisecond), WithIgnore([]string{"*.tmp"}))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(root, "scratch.tmp"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changed:
		t.Error("ignored file triggered a callback")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	w, err := NewWatcher(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop: %v", err)
	}
}

func TestReloadServerBroadcast(t *testing.T) {
	rs := NewReloadServer()
	defer rs.Close()

	srv := httptest.NewServer(http.HandlerFunc(rs.HandleWebSocket))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Wait until the server has registered the client.
	deadline := time.Now().Add(2 * time.Second)
	for rs.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	rs.NotifyReload()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg ReloadMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Type != ReloadTypeFull {
		t.Errorf("type = %q, want %q", msg.Type, ReloadTypeFull)
	}
}

func TestReloadServerErrorMessage(t *testing.T) {
	rs := NewReloadServer()
	defer rs.Close()

	srv := httptest.NewServer(http.HandlerFunc(rs.HandleWebSocket))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for rs.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	rs.NotifyError("compile failed")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg ReloadMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Type != ReloadTypeError || msg.Error != "compile failed" {
		t.Errorf("got %+v", msg)
	}
}

func testProject(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	handlers := filepath.Join(dir, "endpoints", "users")
	if err := os.MkdirAll(handlers, 0755); err != nil {
		t.Fatal(err)
	}
	entry := "package users\n\nfunc GET() {}\n"
	if err := os.WriteFile(filepath.Join(handlers, "index.go"), []byte(entry), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.New()
	cfg.Name = "devtest"
	if err := cfg.SaveTo(filepath.Join(dir, config.ConfigFileName)); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	loaded, err := config.Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return loaded
}

func TestSessionInitialCompile(t *testing.T) {
	cfg := testProject(t)

	var published *router.Registry
	s, err := NewSession(Options{
		Config:     cfg,
		OnRegistry: func(reg *router.Registry) { published = reg },
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	if published == nil {
		t.Fatal("OnRegistry not called after initial compile")
	}
	if _, _, ok := published.Match("/users"); !ok {
		t.Error("/users missing from compiled registry")
	}
	if s.Registry() != published {
		t.Error("Registry() does not return the published registry")
	}

	if _, err := os.Stat(cfg.OutputPathAbs()); err != nil {
		t.Errorf("registry file not written: %v", err)
	}
}

func TestSessionRecompilesOnChange(t *testing.T) {
	cfg := testProject(t)

	published := make(chan *router.Registry, 8)
	s, err := NewSession(Options{
		Config:     cfg,
		OnRegistry: func(reg *router.Registry) { published <- reg },
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	<-published // initial compile

	// Add a new route and wait for the recompile to pick it up.
	health := filepath.Join(cfg.HandlersRootPath(), "health")
	if err := os.Mkdir(health, 0755); err != nil {
		t.Fatal(err)
	}
	entry := "package health\n\nfunc GET() {}\n"
	if err := os.WriteFile(filepath.Join(health, "index.go"), []byte(entry), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case reg := <-published:
			if _, _, ok := reg.Match("/health"); ok {
				return
			}
		case <-deadline:
			t.Fatal("recompiled registry never contained /health")
		}
	}
}
