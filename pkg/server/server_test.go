package server

import (
	"path/filepath"
	"testing"

	"github.com/ctxvitals/ctxvitals/pkg/config"
)

func TestNew_WithStorage(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "ctxvitals.db")

	s, cleanup, err := New(cfg, "test")
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	defer cleanup()
	if s == nil {
		t.Fatal("nil server")
	}
}

func TestNew_StorageDisabled(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Storage.Disabled = true

	s, cleanup, err := New(cfg, "test")
	if err != nil {
		t.Fatalf("new server without storage: %v", err)
	}
	defer cleanup()
	if s == nil {
		t.Fatal("nil server")
	}
}

func TestNew_UnopenableStorageIsNotFatal(t *testing.T) {
	cfg := config.DefaultConfig()
	// A directory path cannot be opened as a database file.
	cfg.Storage.Path = t.TempDir()

	s, cleanup, err := New(cfg, "test")
	if err != nil {
		t.Fatalf("storage failure escaped: %v", err)
	}
	defer cleanup()
	if s == nil {
		t.Fatal("nil server")
	}
}
