package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/doeshing/warden-go/internal/domain"
)

func TestLoadSeedsDefaultsWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	loader := NewFileLoader(path)

	cfg, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DefaultMode != string(domain.PolicyInteractive) {
		t.Fatalf("default mode %q", cfg.DefaultMode)
	}
	if cfg.Execution.TimeoutSeconds != 30 {
		t.Fatalf("timeout %d", cfg.Execution.TimeoutSeconds)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatal("default config not written to disk")
	}
}

func TestLoadReadsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
default_mode: auto
execution:
  shell: /bin/bash
  timeout: 5
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewFileLoader(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DefaultMode != "auto" {
		t.Fatalf("default mode %q", cfg.DefaultMode)
	}
	if cfg.Execution.Shell != "/bin/bash" || cfg.Execution.TimeoutSeconds != 5 {
		t.Fatalf("execution settings %+v", cfg.Execution)
	}
	// Unset fields are hydrated.
	if len(cfg.Watch.Patterns) == 0 {
		t.Fatal("watch patterns not hydrated")
	}
	if cfg.Files.MaxBackupsPerFile != 10 {
		t.Fatalf("max backups %d", cfg.Files.MaxBackupsPerFile)
	}
}

func TestLoadHonorsEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("default_mode: plan\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("WARDEN_CONFIG", path)

	cfg, err := NewFileLoader("").Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DefaultMode != "plan" {
		t.Fatalf("default mode %q", cfg.DefaultMode)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("default_mode: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := NewFileLoader(path).Load(context.Background()); err == nil {
		t.Fatal("expected parse error")
	}
}
