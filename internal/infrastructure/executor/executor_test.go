package executor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/doeshing/warden-go/internal/domain"
)

func TestExecuteCapturesOutput(t *testing.T) {
	exec := NewLocalExecutor("/bin/sh")

	result, err := exec.Execute(context.Background(), "echo hello", 5*time.Second)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !result.Ran {
		t.Fatal("expected Ran")
	}
	if strings.TrimSpace(result.Stdout) != "hello" {
		t.Fatalf("stdout %q", result.Stdout)
	}
	if result.ExitCode != 0 {
		t.Fatalf("exit code %d", result.ExitCode)
	}
}

func TestExecuteNonZeroExit(t *testing.T) {
	exec := NewLocalExecutor("/bin/sh")

	result, err := exec.Execute(context.Background(), "exit 3", 5*time.Second)
	if err == nil {
		t.Fatal("expected error")
	}
	if result.ExitCode != 3 {
		t.Fatalf("exit code %d, want 3", result.ExitCode)
	}
	if result.Ran {
		t.Fatal("failed run should not report Ran")
	}
}

func TestExecuteTimeout(t *testing.T) {
	exec := NewLocalExecutor("/bin/sh")

	result, err := exec.Execute(context.Background(), "sleep 5", 100*time.Millisecond)
	if !errors.Is(err, domain.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if !result.TimedOut {
		t.Fatal("expected TimedOut")
	}
}

func TestExecuteStderr(t *testing.T) {
	exec := NewLocalExecutor("/bin/sh")

	result, _ := exec.Execute(context.Background(), "echo oops >&2; exit 1", 5*time.Second)
	if !strings.Contains(result.Stderr, "oops") {
		t.Fatalf("stderr %q", result.Stderr)
	}
}
