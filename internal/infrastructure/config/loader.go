package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/warden-go/assets"
	"github.com/doeshing/warden-go/internal/domain"
	"github.com/doeshing/warden-go/internal/pkg/filesystem"
	"github.com/doeshing/warden-go/internal/ports"
)

// FileLoader loads YAML configuration from ~/.warden/config.yaml
// (overridable via WARDEN_CONFIG). A missing file is seeded from the
// embedded defaults.
type FileLoader struct {
	overridePath string
}

// NewFileLoader builds a new loader.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path}
}

// Load implements ports.ConfigProvider.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	path := l.resolvePath()
	if err := ensureConfigDir(path); err != nil {
		return domain.Config{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if err := os.WriteFile(path, assets.DefaultConfigYAML, 0o600); err != nil {
				return domain.Config{}, err
			}
			data = assets.DefaultConfigYAML
		} else {
			return domain.Config{}, err
		}
	}

	var cfg domain.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.Config{}, err
	}

	return hydrateDefaults(cfg), nil
}

// Path returns the file the loader reads from.
func (l *FileLoader) Path() string {
	return l.resolvePath()
}

func (l *FileLoader) resolvePath() string {
	if l.overridePath != "" {
		return expandPath(l.overridePath)
	}
	if custom := os.Getenv("WARDEN_CONFIG"); custom != "" {
		return expandPath(custom)
	}
	return filepath.Join(userHomeDir(), ".warden", "config.yaml")
}

func ensureConfigDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

func hydrateDefaults(cfg domain.Config) domain.Config {
	if cfg.ConfigFormatVersion == "" {
		cfg.ConfigFormatVersion = "1.0"
	}
	if cfg.DefaultMode == "" {
		cfg.DefaultMode = string(domain.PolicyInteractive)
	}
	if cfg.Files.ProjectRoot == "" {
		cfg.Files.ProjectRoot = "."
	}
	if cfg.Files.BackupDir == "" {
		cfg.Files.BackupDir = filepath.Join(userHomeDir(), ".warden", "backups")
	}
	if cfg.Files.MaxBackupsPerFile <= 0 {
		cfg.Files.MaxBackupsPerFile = 10
	}
	if cfg.Execution.Shell == "" {
		cfg.Execution.Shell = "/bin/sh"
	}
	if cfg.Execution.TimeoutSeconds <= 0 {
		cfg.Execution.TimeoutSeconds = 30
	}
	if cfg.Plan.OutputDir == "" {
		cfg.Plan.OutputDir = "./plans"
	}
	if cfg.Watch.Dir == "" {
		cfg.Watch.Dir = "."
	}
	if len(cfg.Watch.Patterns) == 0 {
		cfg.Watch.Patterns = domain.DefaultWatchPatterns()
	}
	if cfg.Watch.DebounceMS <= 0 {
		cfg.Watch.DebounceMS = 500
	}
	if cfg.Watch.QueueSize <= 0 {
		cfg.Watch.QueueSize = 256
	}
	if cfg.Audit.Database == "" {
		cfg.Audit.Database = filepath.Join(userHomeDir(), ".warden", "audit.db")
	}
	return cfg
}

func expandPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if len(path) > 1 && path[:2] == "~/" {
		return filepath.Join(userHomeDir(), path[2:])
	}
	return filepath.Clean(path)
}

func userHomeDir() string {
	return filesystem.UserHomeDir()
}

var _ ports.ConfigProvider = (*FileLoader)(nil)
