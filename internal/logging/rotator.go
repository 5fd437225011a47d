package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// FileRotator is an io.Writer that rotates the log file when it exceeds
// the configured size, keeping a bounded number of timestamped backups.
type FileRotator struct {
	config *Config
	mu     sync.Mutex
	file   *os.File
	size   int64
}

// NewFileRotator creates a FileRotator writing to cfg.FilePath.
func NewFileRotator(cfg *Config) (*FileRotator, error) {
	r := &FileRotator{config: cfg}

	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o750); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	if err := r.openFile(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *FileRotator) openFile() error {
	file, err := os.OpenFile(r.config.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	r.file = file
	r.size = info.Size()
	return nil
}

// Write appends to the log file, rotating first when the configured size
// would be exceeded.
func (r *FileRotator) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	maxBytes := r.config.MaxSize * 1024 * 1024
	if maxBytes > 0 && r.size+int64(len(p)) > maxBytes {
		if err := r.rotate(); err != nil {
			// Rotation failed; keep writing to the old file rather
			// than dropping log output.
			fmt.Fprintf(os.Stderr, "log rotation failed: %v\n", err)
		}
	}

	n, err := r.file.Write(p)
	r.size += int64(n)
	return n, err
}

// rotate renames the live file to a timestamped backup and opens a fresh
// one, then prunes backups beyond MaxBackups.
func (r *FileRotator) rotate() error {
	if err := r.file.Close(); err != nil {
		return err
	}

	backup := fmt.Sprintf("%s.%s", r.config.FilePath, time.Now().Format("20060102-150405"))
	if err := os.Rename(r.config.FilePath, backup); err != nil {
		// Reopen the original so writes can continue.
		reopenErr := r.openFile()
		if reopenErr != nil {
			return fmt.Errorf("rename: %v; reopen: %w", err, reopenErr)
		}
		return err
	}

	if err := r.openFile(); err != nil {
		return err
	}

	r.pruneBackups()
	return nil
}

func (r *FileRotator) pruneBackups() {
	if r.config.MaxBackups <= 0 {
		return
	}
	matches, err := filepath.Glob(r.config.FilePath + ".*")
	if err != nil || len(matches) <= r.config.MaxBackups {
		return
	}
	// Timestamped suffixes sort chronologically; oldest first.
	sort.Strings(matches)
	for _, old := range matches[:len(matches)-r.config.MaxBackups] {
		os.Remove(old)
	}
}

// Close closes the underlying file.
func (r *FileRotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}
