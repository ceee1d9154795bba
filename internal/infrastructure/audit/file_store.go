package audit

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/doeshing/warden-go/internal/domain"
	"github.com/doeshing/warden-go/internal/pkg/filesystem"
	"github.com/doeshing/warden-go/internal/ports"
)

// FileStore appends audit entries to a jsonl file. It serves as the
// degraded backend when sqlite is unavailable.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store at path, defaulting to
// ~/.warden/audit.jsonl.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = filepath.Join(userHome(), ".warden", "audit.jsonl")
	}
	return &FileStore{path: expandPath(path)}
}

// Save implements ports.AuditRepository.
func (f *FileStore) Save(entry domain.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = file.Write(data)
	return err
}

// Records loads entries, newest first (best-effort).
func (f *FileStore) Records(limit int, search string) ([]domain.AuditEntry, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	var entries []domain.AuditEntry
	for i := len(lines) - 1; i >= 0; i-- {
		if len(lines[i]) == 0 {
			continue
		}
		var entry domain.AuditEntry
		if err := json.Unmarshal(lines[i], &entry); err != nil {
			continue
		}
		if search != "" && !matchesSearch(entry, search) {
			continue
		}
		entries = append(entries, entry)
		if limit > 0 && len(entries) >= limit {
			break
		}
	}
	return entries, nil
}

// Clear removes the audit file.
func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ExportJSON copies the jsonl file to dest.
func (f *FileStore) ExportJSON(dest string) error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			data = nil
		} else {
			return err
		}
	}
	return os.WriteFile(dest, data, 0o644)
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

func matchesSearch(entry domain.AuditEntry, search string) bool {
	search = strings.ToLower(search)
	for _, field := range []string{entry.Target, entry.Message, string(entry.ActionType)} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

func userHome() string {
	return filesystem.UserHomeDir()
}

var _ ports.AuditRepository = (*FileStore)(nil)
