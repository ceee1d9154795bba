package commands

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/doeshing/warden-go/internal/domain"
)

// renderResult prints an action outcome in a friendly, ASCII-only format.
func renderResult(out io.Writer, result domain.ActionResult) {
	status := "OK"
	if !result.Success {
		status = "FAILED"
	}
	fmt.Fprintf(out, "[%s] %s\n", status, result.Message)

	if content, ok := result.Details["content"].(string); ok && content != "" {
		fmt.Fprintln(out)
		fmt.Fprintln(out, content)
	}
	if stdout, ok := result.Details["stdout"].(string); ok && stdout != "" {
		fmt.Fprintln(out, "\nstdout:")
		fmt.Fprintln(out, stdout)
	}
	if stderr, ok := result.Details["stderr"].(string); ok && stderr != "" {
		fmt.Fprintln(out, "\nstderr:")
		fmt.Fprintln(out, stderr)
	}
	if entries, ok := result.Details["entries"].([]string); ok {
		for _, entry := range entries {
			fmt.Fprintf(out, "  %s\n", entry)
		}
	}
	if matches, ok := result.Details["matches"].([]string); ok {
		for _, match := range matches {
			fmt.Fprintf(out, "  %s\n", match)
		}
	}

	for _, warning := range result.Warnings {
		fmt.Fprintf(out, "warning: %s\n", warning)
	}
	for _, errMsg := range result.Errors {
		fmt.Fprintf(out, "error: %s\n", errMsg)
	}
}

// renderStats prints session counters with stable ordering.
func renderStats(out io.Writer, stats domain.ActionStats) {
	fmt.Fprintf(out, "Actions: %d total, %d succeeded, %d failed, %d blocked\n",
		stats.Total, stats.Successful, stats.Failed, stats.Blocked)
	if len(stats.ByType) > 0 {
		fmt.Fprintln(out, "By type:")
		for _, actionType := range sortedTypeKeys(stats.ByType) {
			fmt.Fprintf(out, "  %-15s %d\n", actionType, stats.ByType[actionType])
		}
	}
	if len(stats.ByMode) > 0 {
		fmt.Fprintln(out, "By mode:")
		for _, mode := range sortedModeKeys(stats.ByMode) {
			fmt.Fprintf(out, "  %-15s %d\n", mode, stats.ByMode[mode])
		}
	}
}

// renderPolicyStats prints the active policy's counters.
func renderPolicyStats(out io.Writer, stats domain.PolicyStats) {
	fmt.Fprintf(out, "Active policy: %s\n", stats.Kind)
	switch stats.Kind {
	case domain.PolicyInteractive:
		fmt.Fprintf(out, "confirmed %d, rejected %d, blocked %d\n", stats.Confirmed, stats.Rejected, stats.Blocked)
	case domain.PolicyAutoAccept:
		fmt.Fprintf(out, "executed %d, warned %d, blocked %d\n", stats.Executed, stats.Warned, stats.Blocked)
	case domain.PolicyPlan:
		fmt.Fprintf(out, "plans generated: %d\n", stats.PlansGenerated)
		for _, plan := range stats.PlanFiles {
			fmt.Fprintf(out, "  %s (%s)\n", plan.Filepath, plan.PlanType)
		}
	case domain.PolicyWatch:
		fmt.Fprintf(out, "changes %d, analyzed %d, dropped %d, throttled %d\n",
			stats.ChangesDetected, stats.FilesAnalyzed, stats.DroppedEvents, stats.ThrottleCount)
		fmt.Fprintf(out, "cpu %.1f%%, ram %.1f%%, watcher active: %v\n",
			stats.CPUPercent, stats.RAMPercent, stats.WatcherActive)
		for _, change := range stats.RecentChanges {
			fmt.Fprintf(out, "  %s %s %s\n", change.Timestamp.Format("15:04:05"), change.Kind, change.Path)
		}
	}
}

// renderHealthReport prints doctor checks.
func renderHealthReport(out io.Writer, report domain.HealthReport) {
	for _, check := range report.Checks {
		fmt.Fprintf(out, "[%-5s] %-15s %s\n", strings.ToUpper(string(check.Status)), check.Name, check.Details)
	}
	if report.Healthy() {
		fmt.Fprintln(out, "\nAll checks passed.")
	} else {
		fmt.Fprintln(out, "\nSome checks failed.")
	}
}

// renderAuditEntries prints audit trail rows, one per line.
func renderAuditEntries(out io.Writer, entries []domain.AuditEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, MsgNoAuditRecorded)
		return
	}
	for _, entry := range entries {
		status := "ok"
		if !entry.Success {
			status = "fail"
		}
		fmt.Fprintf(out, "%s  %-6s %-13s %-4s %s\n",
			entry.Timestamp.Format("2006-01-02 15:04:05"),
			entry.Mode, entry.ActionType, status, entry.Target)
	}
}

// renderBackups prints backup rows, newest first.
func renderBackups(out io.Writer, backups []domain.Backup) {
	if len(backups) == 0 {
		fmt.Fprintln(out, MsgNoBackupsRecorded)
		return
	}
	for _, backup := range backups {
		fmt.Fprintf(out, "%s  %s  %s (%s)\n",
			backup.ID, backup.Timestamp.Format("2006-01-02 15:04:05"),
			backup.FilePath, backup.Reason)
	}
}

func sortedTypeKeys(m map[domain.ActionType]int) []domain.ActionType {
	keys := make([]domain.ActionType, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func sortedModeKeys(m map[domain.PolicyKind]int) []domain.PolicyKind {
	keys := make([]domain.PolicyKind, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
