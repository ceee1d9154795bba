package fileops

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/doeshing/warden-go/internal/domain"
	"github.com/doeshing/warden-go/internal/ports"
)

// Manager implements the FileManager port. Writes go through a temp file in
// the destination directory followed by a rename, so readers never observe a
// partially written file. Backups live under backupDir, one subdirectory per
// sanitized file path, pruned to maxBackups entries.
type Manager struct {
	root       string
	backupDir  string
	maxBackups int
	logger     ports.Logger

	mu sync.Mutex
}

// NewManager returns a manager rooted at root with backups under backupDir.
func NewManager(root, backupDir string, maxBackups int, logger ports.Logger) *Manager {
	if maxBackups <= 0 {
		maxBackups = 10
	}
	return &Manager{
		root:       root,
		backupDir:  expandPath(backupDir),
		maxBackups: maxBackups,
		logger:     logger,
	}
}

// Read returns the file's content.
func (m *Manager) Read(path string) (string, error) {
	path = m.resolve(path)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%s: %w", path, domain.ErrNotFound)
		}
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s: %w", path, domain.ErrNotAFile)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsPermission(err) {
			return "", fmt.Errorf("%s: %w", path, domain.ErrPermissionDenied)
		}
		return "", err
	}
	return string(data), nil
}

// Write replaces the file's content atomically. When createBackup is set and
// the file already exists, its previous content is snapshotted first.
func (m *Manager) Write(path, content string, createBackup bool, reason string) (*domain.Backup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writeLocked(path, content, createBackup, reason)
}

func (m *Manager) writeLocked(path, content string, createBackup bool, reason string) (*domain.Backup, error) {
	path = m.resolve(path)

	var backup *domain.Backup
	if createBackup {
		if existing, err := os.ReadFile(path); err == nil {
			b, err := m.snapshot(path, string(existing), reason)
			if err != nil {
				return nil, err
			}
			backup = b
		}
	}

	if err := m.atomicWrite(path, content); err != nil {
		return nil, err
	}
	return backup, nil
}

// Delete removes the file, optionally snapshotting it first.
func (m *Manager) Delete(path string, createBackup bool, reason string) (*domain.Backup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = m.resolve(path)
	existing, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, domain.ErrNotFound)
		}
		return nil, err
	}

	var backup *domain.Backup
	if createBackup {
		backup, err = m.snapshot(path, string(existing), reason)
		if err != nil {
			return nil, err
		}
	}
	if err := os.Remove(path); err != nil {
		return nil, err
	}
	return backup, nil
}

// Diff renders a unified diff between the current content (empty when the
// file does not exist yet) and the proposed content.
func (m *Manager) Diff(path, newContent string) (string, error) {
	path = m.resolve(path)
	current := ""
	if data, err := os.ReadFile(path); err == nil {
		current = string(data)
	} else if !os.IsNotExist(err) {
		return "", err
	}

	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(current),
		B:        difflib.SplitLines(newContent),
		FromFile: path + " (current)",
		ToFile:   path + " (proposed)",
		Context:  3,
	})
}

// MultiEdit applies the edits in order. The returned slice has one entry per
// applied edit, nil where no backup was taken, so positions line up with the
// input. In atomic mode a failure rolls back every edit already applied,
// newest first, and the returned error wraps ErrTransactionFailed.
func (m *Manager) MultiEdit(edits []domain.FileEdit, atomic bool) ([]*domain.Backup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var backups []*domain.Backup
	var done []appliedEdit

	for i, edit := range edits {
		path := m.resolve(edit.FilePath)
		prev, readErr := os.ReadFile(path)
		existed := readErr == nil

		backup, err := m.writeLocked(edit.FilePath, edit.NewContent, edit.CreateBackup, edit.Reason)
		if err != nil {
			if !atomic {
				return backups, fmt.Errorf("edit %d (%s): %w", i, edit.FilePath, err)
			}
			m.rollbackApplied(done)
			return nil, fmt.Errorf("edit %d (%s): %v: %w", i, edit.FilePath, err, domain.ErrTransactionFailed)
		}
		backups = append(backups, backup)
		done = append(done, appliedEdit{path: path, existed: existed, prev: string(prev)})
	}
	return backups, nil
}

type appliedEdit struct {
	path    string
	existed bool
	prev    string
}

func (m *Manager) rollbackApplied(done []appliedEdit) {
	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		var err error
		if step.existed {
			err = m.atomicWrite(step.path, step.prev)
		} else {
			err = os.Remove(step.path)
		}
		if err != nil && m.logger != nil {
			m.logger.Error("rollback step failed", err, map[string]interface{}{
				"path": step.path,
			})
		}
	}
}

// Rollback restores the file from the named backup. No new backup is taken.
func (m *Manager) Rollback(path, backupID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = m.resolve(path)
	content, err := os.ReadFile(filepath.Join(m.backupDir, sanitizePath(path), backupID+".content"))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("backup %s for %s: %w", backupID, path, domain.ErrNotFound)
		}
		return err
	}
	return m.atomicWrite(path, string(content))
}

// ListBackups returns the backups for path, newest first. An empty path
// lists backups for every file.
func (m *Manager) ListBackups(path string) ([]domain.Backup, error) {
	var dirs []string
	if path == "" {
		entries, err := os.ReadDir(m.backupDir)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, nil
			}
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() {
				dirs = append(dirs, filepath.Join(m.backupDir, entry.Name()))
			}
		}
	} else {
		dirs = []string{filepath.Join(m.backupDir, sanitizePath(m.resolve(path)))}
	}

	var backups []domain.Backup
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".meta") {
				continue
			}
			data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
			if err != nil {
				continue
			}
			var backup domain.Backup
			if err := json.Unmarshal(data, &backup); err != nil {
				continue
			}
			backups = append(backups, backup)
		}
	}
	sort.Slice(backups, func(i, j int) bool {
		if backups[i].Timestamp.Equal(backups[j].Timestamp) {
			return backups[i].ID > backups[j].ID
		}
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

// List returns the file names directly under path.
func (m *Manager) List(path string) ([]string, error) {
	path = m.resolve(path)
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, domain.ErrNotFound)
		}
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// FileInfo returns basic metadata about path.
func (m *Manager) FileInfo(path string) (domain.FileInfo, error) {
	path = m.resolve(path)
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.FileInfo{}, fmt.Errorf("%s: %w", path, domain.ErrNotFound)
		}
		return domain.FileInfo{}, err
	}
	return domain.FileInfo{
		Path:      path,
		Size:      info.Size(),
		Modified:  info.ModTime(),
		IsFile:    info.Mode().IsRegular(),
		IsSymlink: info.Mode()&os.ModeSymlink != 0,
	}, nil
}

func (m *Manager) snapshot(path, content, reason string) (*domain.Backup, error) {
	now := time.Now()
	id := backupID(now)
	dir := filepath.Join(m.backupDir, sanitizePath(path))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	sum := sha256.Sum256([]byte(content))
	backup := &domain.Backup{
		ID:              id,
		FilePath:        path,
		OriginalContent: content,
		Timestamp:       now,
		Reason:          reason,
		BackupPath:      filepath.Join(dir, id+".content"),
		Checksum:        hex.EncodeToString(sum[:]),
	}

	if err := os.WriteFile(backup.BackupPath, []byte(content), 0o644); err != nil {
		return nil, err
	}
	meta, err := json.Marshal(backup)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(dir, id+".meta"), meta, 0o644); err != nil {
		return nil, err
	}

	m.pruneBackups(dir)
	return backup, nil
}

// pruneBackups keeps the newest maxBackups snapshots in dir.
func (m *Manager) pruneBackups(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	var ids []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".meta") {
			ids = append(ids, strings.TrimSuffix(entry.Name(), ".meta"))
		}
	}
	if len(ids) <= m.maxBackups {
		return
	}
	sort.Strings(ids)
	for _, id := range ids[:len(ids)-m.maxBackups] {
		if err := os.Remove(filepath.Join(dir, id+".content")); err != nil && m.logger != nil {
			m.logger.Warn("backup prune failed", map[string]interface{}{
				"id": id, "error": err.Error(),
			})
		}
		_ = os.Remove(filepath.Join(dir, id+".meta"))
	}
}

func (m *Manager) atomicWrite(path, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(dir, ".warden-*")
	if err != nil {
		if os.IsPermission(err) {
			return fmt.Errorf("%s: %w", dir, domain.ErrPermissionDenied)
		}
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func (m *Manager) resolve(path string) string {
	path = expandPath(path)
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	if m.root != "" {
		return filepath.Join(m.root, path)
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// backupID is second resolution plus microseconds, so IDs sort by age.
func backupID(t time.Time) string {
	return t.Format("20060102_150405") + fmt.Sprintf("_%06d", t.Nanosecond()/1000)
}

// sanitizePath flattens an absolute path into one directory name.
func sanitizePath(path string) string {
	path = strings.TrimPrefix(filepath.ToSlash(path), "/")
	return strings.ReplaceAll(path, "/", "_")
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

var _ ports.FileManager = (*Manager)(nil)
