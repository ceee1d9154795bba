package domain

import "time"

// AuditEntry records the outcome of one handled action.
type AuditEntry struct {
	Timestamp  time.Time  `json:"timestamp"`
	SessionID  string     `json:"session_id"`
	ActionType ActionType `json:"action_type"`
	Target     string     `json:"target"`
	Success    bool       `json:"success"`
	Message    string     `json:"message"`
	Mode       PolicyKind `json:"mode"`
}

// AuditLogCapacity bounds the in-memory audit log.
const AuditLogCapacity = 100

// AuditLog is a bounded, insertion-ordered log. Appending beyond capacity
// evicts the oldest entry. The zero value is ready to use.
type AuditLog struct {
	entries []AuditEntry
}

// Append adds an entry, evicting the oldest when full.
func (l *AuditLog) Append(entry AuditEntry) {
	l.entries = append(l.entries, entry)
	if len(l.entries) > AuditLogCapacity {
		l.entries = l.entries[len(l.entries)-AuditLogCapacity:]
	}
}

// Len returns the number of retained entries.
func (l *AuditLog) Len() int {
	return len(l.entries)
}

// Recent returns up to limit newest entries in chronological order.
// limit <= 0 returns all retained entries.
func (l *AuditLog) Recent(limit int) []AuditEntry {
	entries := l.entries
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	out := make([]AuditEntry, len(entries))
	copy(out, entries)
	return out
}

// Clear drops all retained entries.
func (l *AuditLog) Clear() {
	l.entries = nil
}

// ActionStats aggregates orchestrator counters.
type ActionStats struct {
	Total      int
	Successful int
	Failed     int
	Blocked    int
	ByType     map[ActionType]int
	ByMode     map[PolicyKind]int
}

// Clone returns a deep copy safe to hand to callers.
func (s ActionStats) Clone() ActionStats {
	out := s
	out.ByType = make(map[ActionType]int, len(s.ByType))
	for k, v := range s.ByType {
		out.ByType[k] = v
	}
	out.ByMode = make(map[PolicyKind]int, len(s.ByMode))
	for k, v := range s.ByMode {
		out.ByMode[k] = v
	}
	return out
}
