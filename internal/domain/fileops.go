package domain

import "time"

// Backup is a point-in-time snapshot of a file's content captured before an
// overwrite. At most one Backup is created per write-with-backup call; it
// lives until pruned.
type Backup struct {
	ID              string    `json:"id"`
	FilePath        string    `json:"file_path"`
	OriginalContent string    `json:"-"`
	Timestamp       time.Time `json:"timestamp"`
	Reason          string    `json:"reason"`
	BackupPath      string    `json:"backup_path"`
	Checksum        string    `json:"checksum"`
}

// FileEdit is the unit of a multi-file transaction.
type FileEdit struct {
	FilePath     string
	NewContent   string
	Reason       string
	CreateBackup bool
}

// FileInfo carries basic metadata about one path.
type FileInfo struct {
	Path      string
	Size      int64
	Modified  time.Time
	IsFile    bool
	IsSymlink bool
}
