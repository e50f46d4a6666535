package app

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/arklim/campus-records/internal/infra/config"
	"github.com/arklim/campus-records/internal/repository/memory"
)

func TestOpenStoreMemory(t *testing.T) {
	cfg := &config.AppConfig{Storage: config.StorageSettings{Driver: config.StorageDriverMemory}}

	store, closeStore, err := OpenStore(context.Background(), cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer closeStore()

	if _, ok := store.(*memory.Store); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}

	checker := storeChecker{store: store}
	if checker.Name() != "store" {
		t.Fatalf("unexpected checker name %q", checker.Name())
	}
	if err := checker.Check(context.Background()); err != nil {
		t.Fatalf("memory store should be ready: %v", err)
	}
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	cfg := &config.AppConfig{Storage: config.StorageSettings{Driver: "sqlite"}}

	_, _, err := OpenStore(context.Background(), cfg, zaptest.NewLogger(t))
	if err == nil || !strings.Contains(err.Error(), "sqlite") {
		t.Fatalf("expected unknown driver error, got %v", err)
	}
}
