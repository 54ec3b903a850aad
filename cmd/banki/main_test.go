package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/banki-go/banki/pkg/gateway/config"
	"github.com/banki-go/banki/pkg/store"
	"github.com/banki-go/banki/pkg/vision"
)

func TestRunMain_ReturnsNonZeroWhenConfigLoadFails(t *testing.T) {
	t.Parallel()

	var stderr bytes.Buffer
	deps := defaultGatewayDeps()
	deps.loadConfig = func() (config.Config, error) {
		return config.Config{}, errors.New("boom")
	}
	deps.migrate = func(string) error {
		t.Fatal("migrate should not run when config load fails")
		return nil
	}
	deps.signalNotify = func(chan<- os.Signal, ...os.Signal) {}
	deps.signalStop = func(chan<- os.Signal) {}

	exitCode := runMain(context.Background(), &stderr, deps)
	if exitCode != 1 {
		t.Fatalf("exitCode=%d, want 1", exitCode)
	}
	if stderr.String() == "" {
		t.Fatal("expected stderr output for startup error")
	}
}

func TestRunGateway_StopsWhenMigrationFails(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	deps := defaultGatewayDeps()
	deps.loadConfig = func() (config.Config, error) {
		return config.Config{DatabaseURL: "postgres://unit-test"}, nil
	}
	deps.migrate = func(dsn string) error {
		if dsn != "postgres://unit-test" {
			t.Errorf("migrate dsn = %q", dsn)
		}
		return errors.New("schema locked")
	}
	deps.openStore = func(context.Context, string) (*store.Store, error) {
		t.Fatal("store should not open when migration fails")
		return nil, nil
	}
	deps.newVision = func(context.Context, string, ...vision.Option) (*vision.Client, error) {
		t.Fatal("vision client should not be created when migration fails")
		return nil, nil
	}
	deps.signalNotify = func(chan<- os.Signal, ...os.Signal) {}
	deps.signalStop = func(chan<- os.Signal) {}

	err := runGateway(context.Background(), logger, deps)
	if err == nil || err.Error() != "migrate: schema locked" {
		t.Fatalf("err = %v", err)
	}
}

func TestRunGateway_RejectsMissingDependencies(t *testing.T) {
	t.Parallel()

	if err := runGateway(context.Background(), nil, gatewayDeps{}); err == nil {
		t.Fatal("expected error for empty dependency set")
	}
}

func TestBuildHTTPServer_UsesConfiguredAddress(t *testing.T) {
	t.Parallel()

	cfg := config.Config{
		Addr:              "127.0.0.1:9999",
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       3 * time.Second,
	}

	srv := buildHTTPServer(cfg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	if srv.Addr != cfg.Addr {
		t.Fatalf("Addr=%q, want %q", srv.Addr, cfg.Addr)
	}
	if srv.ReadHeaderTimeout != cfg.ReadHeaderTimeout {
		t.Fatalf("ReadHeaderTimeout=%v, want %v", srv.ReadHeaderTimeout, cfg.ReadHeaderTimeout)
	}
	if srv.ReadTimeout != cfg.ReadTimeout {
		t.Fatalf("ReadTimeout=%v, want %v", srv.ReadTimeout, cfg.ReadTimeout)
	}
}
