package server

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/o1x3/ctoken/pkg/config"
	"github.com/o1x3/ctoken/pkg/telemetry/logging"
)

func TestServer_StartAndShutdown(t *testing.T) {
	cfg := &config.ServerConfig{
		ListenAddress:   "127.0.0.1:0",
		ShutdownTimeout: time.Second,
	}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "pong")
	})
	srv := NewServer(cfg, handler, logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for srv.Addr() == nil {
		if time.Now().After(deadline) {
			t.Fatal("server did not start")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !srv.IsRunning() {
		t.Error("expected server to be running")
	}

	resp, err := http.Get("http://" + srv.Addr().String() + "/ping")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "pong" {
		t.Errorf("expected pong, got %q", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
	if srv.IsRunning() {
		t.Error("expected server stopped")
	}
}

func TestServer_StartTwice(t *testing.T) {
	cfg := &config.ServerConfig{ListenAddress: "127.0.0.1:0"}
	srv := NewServer(cfg, http.NotFoundHandler(), logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = srv.Start(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for !srv.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("server did not start")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := srv.Start(ctx); err == nil {
		t.Error("expected error starting a running server")
	}
}

func TestServer_ListenError(t *testing.T) {
	srv := NewServer(&config.ServerConfig{ListenAddress: "256.0.0.1:http"}, http.NotFoundHandler(), logging.Discard())
	if err := srv.Start(context.Background()); err == nil {
		t.Fatal("expected listen error")
	}
	if srv.IsRunning() {
		t.Error("expected server not running after listen failure")
	}
}

func TestServer_ShutdownBeforeStart(t *testing.T) {
	srv := NewServer(&config.ServerConfig{ListenAddress: "127.0.0.1:0"}, http.NotFoundHandler(), nil)
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Errorf("expected no-op shutdown, got %v", err)
	}
}
