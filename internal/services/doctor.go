package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/doeshing/warden-go/internal/domain"
	"github.com/doeshing/warden-go/internal/ports"
)

// DoctorService runs environment diagnostics.
type DoctorService struct {
	ConfigProvider ports.ConfigProvider
	Classifier     ports.RiskClassifier
	Audit          ports.AuditRepository
}

// Run executes checks and returns a report.
func (s *DoctorService) Run(ctx context.Context) (domain.HealthReport, error) {
	var checks []domain.HealthCheck

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		checks = append(checks, fail("Config file", fmt.Sprintf("load failed: %v", err)))
		return domain.HealthReport{Checks: checks}, err
	}
	checks = append(checks, ok("Config file", fmt.Sprintf("format %s, default mode %s", cfg.ConfigFormatVersion, cfg.DefaultMode)))

	if _, valid := domain.ParsePolicyKind(cfg.DefaultMode); !valid {
		checks = append(checks, fail("Default mode", fmt.Sprintf("%q is not a policy kind", cfg.DefaultMode)))
	}

	checks = append(checks, s.classifierCheck())
	checks = append(checks, rulesFileCheck(cfg.Security.RulesFile))
	checks = append(checks, writableDirCheck("Backup root", cfg.Files.BackupDir))
	checks = append(checks, watchDirCheck(cfg.Watch.Dir))
	checks = append(checks, s.auditCheck())
	checks = append(checks, shellCheck(cfg.Execution.Shell))

	return domain.HealthReport{Checks: checks}, nil
}

func (s *DoctorService) classifierCheck() domain.HealthCheck {
	if s.Classifier == nil {
		return warn("Risk classifier", "not initialized")
	}
	result := s.Classifier.Validate(domain.ActionRequest{
		ActionType: domain.ActionRunCommand,
		Details:    map[string]any{"command": "rm -rf /"},
	})
	if result.IsSafe {
		return fail("Risk classifier", "critical pattern not detected; rule tables look broken")
	}
	return ok("Risk classifier", "rule tables loaded")
}

func rulesFileCheck(path string) domain.HealthCheck {
	if path == "" {
		return ok("Rules file", "using embedded defaults")
	}
	expanded := expandHome(path)
	if _, err := os.Stat(expanded); err != nil {
		return warn("Rules file", fmt.Sprintf("missing at %s, embedded defaults in effect", expanded))
	}
	return ok("Rules file", expanded)
}

func writableDirCheck(name, dir string) domain.HealthCheck {
	dir = expandHome(dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fail(name, fmt.Sprintf("cannot create %s: %v", dir, err))
	}
	probe, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return fail(name, fmt.Sprintf("not writable: %v", err))
	}
	probe.Close()
	os.Remove(probe.Name())
	return ok(name, dir)
}

func watchDirCheck(dir string) domain.HealthCheck {
	dir = expandHome(dir)
	info, err := os.Stat(dir)
	if err != nil {
		return warn("Watch dir", fmt.Sprintf("missing at %s", dir))
	}
	if !info.IsDir() {
		return fail("Watch dir", fmt.Sprintf("%s is not a directory", dir))
	}
	return ok("Watch dir", dir)
}

func (s *DoctorService) auditCheck() domain.HealthCheck {
	if s.Audit == nil {
		return warn("Audit store", "not initialized")
	}
	if _, err := s.Audit.Records(1, ""); err != nil {
		return warn("Audit store", fmt.Sprintf("unreadable: %v", err))
	}
	return ok("Audit store", s.Audit.Path())
}

func shellCheck(shell string) domain.HealthCheck {
	if shell == "" {
		shell = "/bin/sh"
	}
	if _, err := os.Stat(shell); err != nil {
		return warn("Shell", fmt.Sprintf("%s not found", shell))
	}
	return ok("Shell", shell)
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

func ok(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthOK, Details: details}
}

func warn(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthWarn, Details: details}
}

func fail(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthError, Details: details}
}
