package fileops

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/doeshing/warden-go/internal/domain"
)

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	root := t.TempDir()
	backups := filepath.Join(root, ".backups")
	return NewManager(root, backups, 3, nil), root
}

func TestWriteAndReadRoundTrip(t *testing.T) {
	manager, _ := newTestManager(t)

	if _, err := manager.Write("notes.txt", "hello\n", false, ""); err != nil {
		t.Fatalf("Write: %v", err)
	}
	content, err := manager.Read("notes.txt")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if content != "hello\n" {
		t.Fatalf("unexpected content %q", content)
	}
}

func TestReadMissingFile(t *testing.T) {
	manager, _ := newTestManager(t)

	_, err := manager.Read("absent.txt")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReadDirectory(t *testing.T) {
	manager, root := newTestManager(t)
	if err := os.Mkdir(filepath.Join(root, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	_, err := manager.Read("sub")
	if !errors.Is(err, domain.ErrNotAFile) {
		t.Fatalf("expected ErrNotAFile, got %v", err)
	}
}

func TestWriteCreatesBackupOfExistingContent(t *testing.T) {
	manager, _ := newTestManager(t)

	if _, err := manager.Write("a.txt", "v1", false, ""); err != nil {
		t.Fatal(err)
	}
	backup, err := manager.Write("a.txt", "v2", true, "update")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if backup == nil {
		t.Fatal("expected a backup")
	}
	if backup.OriginalContent != "v1" {
		t.Fatalf("backup holds %q, want v1", backup.OriginalContent)
	}
	if backup.Reason != "update" {
		t.Fatalf("backup reason %q", backup.Reason)
	}
	sum := sha256.Sum256([]byte("v1"))
	if backup.Checksum != hex.EncodeToString(sum[:]) {
		t.Fatalf("checksum %q does not match the predecessor content", backup.Checksum)
	}

	saved, err := os.ReadFile(backup.BackupPath)
	if err != nil {
		t.Fatalf("read backup file: %v", err)
	}
	if string(saved) != "v1" {
		t.Fatalf("backup file holds %q", saved)
	}
}

func TestWriteNewFileSkipsBackup(t *testing.T) {
	manager, _ := newTestManager(t)

	backup, err := manager.Write("fresh.txt", "content", true, "create")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if backup != nil {
		t.Fatal("no backup expected for a new file")
	}
}

func TestBackupPruningKeepsNewest(t *testing.T) {
	manager, _ := newTestManager(t)

	if _, err := manager.Write("a.txt", "v0", false, ""); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 8; i++ {
		if _, err := manager.Write("a.txt", strings.Repeat("x", i+1), true, "churn"); err != nil {
			t.Fatal(err)
		}
	}

	backups, err := manager.ListBackups("a.txt")
	if err != nil {
		t.Fatalf("ListBackups: %v", err)
	}
	if len(backups) != 3 {
		t.Fatalf("expected 3 backups after pruning, got %d", len(backups))
	}
	for i := 1; i < len(backups); i++ {
		if backups[i].Timestamp.After(backups[i-1].Timestamp) {
			t.Fatal("backups not sorted newest first")
		}
	}
}

func TestRollbackRestoresContent(t *testing.T) {
	manager, _ := newTestManager(t)

	if _, err := manager.Write("a.txt", "original", false, ""); err != nil {
		t.Fatal(err)
	}
	backup, err := manager.Write("a.txt", "changed", true, "edit")
	if err != nil {
		t.Fatal(err)
	}

	if err := manager.Rollback("a.txt", backup.ID); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	content, err := manager.Read("a.txt")
	if err != nil {
		t.Fatal(err)
	}
	if content != "original" {
		t.Fatalf("rollback left %q", content)
	}

	backups, err := manager.ListBackups("a.txt")
	if err != nil {
		t.Fatalf("ListBackups: %v", err)
	}
	if len(backups) != 1 {
		t.Fatalf("rollback must not create a backup, have %d", len(backups))
	}
}

func TestRollbackUnknownBackup(t *testing.T) {
	manager, _ := newTestManager(t)

	err := manager.Rollback("a.txt", "20990101_000000_000000")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteWithBackup(t *testing.T) {
	manager, root := newTestManager(t)

	if _, err := manager.Write("gone.txt", "bye", false, ""); err != nil {
		t.Fatal(err)
	}
	backup, err := manager.Delete("gone.txt", true, "cleanup")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if backup == nil || backup.OriginalContent != "bye" {
		t.Fatalf("unexpected backup %+v", backup)
	}
	if _, err := os.Stat(filepath.Join(root, "gone.txt")); !os.IsNotExist(err) {
		t.Fatal("file still present after delete")
	}
}

func TestDiffShowsChanges(t *testing.T) {
	manager, _ := newTestManager(t)

	if _, err := manager.Write("a.txt", "one\ntwo\n", false, ""); err != nil {
		t.Fatal(err)
	}
	diff, err := manager.Diff("a.txt", "one\nthree\n")
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if !strings.Contains(diff, "-two") || !strings.Contains(diff, "+three") {
		t.Fatalf("unexpected diff:\n%s", diff)
	}
}

func TestMultiEditAtomicRollsBackOnFailure(t *testing.T) {
	manager, root := newTestManager(t)

	if _, err := manager.Write("a.txt", "a1", false, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := manager.Write("b.txt", "b1", false, ""); err != nil {
		t.Fatal(err)
	}

	// The third edit targets a path whose parent is a regular file, which
	// cannot be created, so the whole transaction must unwind.
	edits := []domain.FileEdit{
		{FilePath: "a.txt", NewContent: "a2"},
		{FilePath: "b.txt", NewContent: "b2"},
		{FilePath: filepath.Join("a.txt", "impossible.txt"), NewContent: "x"},
	}
	_, err := manager.MultiEdit(edits, true)
	if !errors.Is(err, domain.ErrTransactionFailed) {
		t.Fatalf("expected ErrTransactionFailed, got %v", err)
	}

	for name, want := range map[string]string{"a.txt": "a1", "b.txt": "b1"} {
		data, err := os.ReadFile(filepath.Join(root, name))
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != want {
			t.Fatalf("%s holds %q after rollback, want %q", name, data, want)
		}
	}
}

func TestMultiEditAppliesAll(t *testing.T) {
	manager, _ := newTestManager(t)

	if _, err := manager.Write("a.txt", "a1", false, ""); err != nil {
		t.Fatal(err)
	}
	edits := []domain.FileEdit{
		{FilePath: "a.txt", NewContent: "a2", CreateBackup: true, Reason: "batch"},
		{FilePath: "new.txt", NewContent: "n1"},
	}
	backups, err := manager.MultiEdit(edits, true)
	if err != nil {
		t.Fatalf("MultiEdit: %v", err)
	}
	if len(backups) != len(edits) {
		t.Fatalf("expected one slot per edit, got %d", len(backups))
	}
	if backups[0] == nil || backups[0].OriginalContent != "a1" {
		t.Fatalf("first edit backup %+v", backups[0])
	}
	if backups[1] != nil {
		t.Fatalf("new file must have a nil backup slot, got %+v", backups[1])
	}
	for name, want := range map[string]string{"a.txt": "a2", "new.txt": "n1"} {
		content, err := manager.Read(name)
		if err != nil {
			t.Fatal(err)
		}
		if content != want {
			t.Fatalf("%s holds %q, want %q", name, content, want)
		}
	}
}

func TestListBackupsAcrossFiles(t *testing.T) {
	manager, _ := newTestManager(t)

	for _, name := range []string{"a.txt", "b.txt"} {
		if _, err := manager.Write(name, "v1", false, ""); err != nil {
			t.Fatal(err)
		}
		if _, err := manager.Write(name, "v2", true, "edit"); err != nil {
			t.Fatal(err)
		}
	}

	backups, err := manager.ListBackups("")
	if err != nil {
		t.Fatalf("ListBackups: %v", err)
	}
	if len(backups) != 2 {
		t.Fatalf("expected 2 backups, got %d", len(backups))
	}
}

func TestFileInfo(t *testing.T) {
	manager, _ := newTestManager(t)

	if _, err := manager.Write("a.txt", "12345", false, ""); err != nil {
		t.Fatal(err)
	}
	info, err := manager.FileInfo("a.txt")
	if err != nil {
		t.Fatalf("FileInfo: %v", err)
	}
	if !info.IsFile || info.Size != 5 {
		t.Fatalf("unexpected info %+v", info)
	}
}

func TestWritePreservesMode(t *testing.T) {
	manager, root := newTestManager(t)

	path := filepath.Join(root, "script.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := manager.Write("script.sh", "#!/bin/sh\necho hi\n", false, ""); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o755 {
		t.Fatalf("mode changed to %v", info.Mode().Perm())
	}
}
