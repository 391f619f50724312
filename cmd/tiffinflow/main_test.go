package main

import (
	"context"
	"net"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tiffinflow/relay/internal/config"
)

func testConfig(t *testing.T, port int) *config.Config {
	t.Helper()
	return &config.Config{
		StoreDriver:   config.StoreBolt,
		DataDir:       t.TempDir(),
		WAVerifyToken: config.DefaultVerifyToken,
		Port:          port,
	}
}

func TestRunReturnsListenError(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	err = run(context.Background(), testConfig(t, port), zerolog.Nop())
	if err == nil {
		t.Fatal("expected an error when the port is taken")
	}
}

func TestRunStopsCleanlyOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := run(ctx, testConfig(t, 0), zerolog.Nop()); err != nil {
		t.Fatalf("expected clean stop, got %v", err)
	}
}

func TestRunFailsWhenStoreCannotOpen(t *testing.T) {
	cfg := testConfig(t, 0)
	cfg.DataDir = cfg.DataDir + "/missing/dir"

	if err := run(context.Background(), cfg, zerolog.Nop()); err == nil {
		t.Fatal("expected store open error")
	}
}
