package log

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"
)

// DebugFile is an io.Writer appending JSON log lines to a dated file,
// rolling over at midnight.
type DebugFile struct {
	dir  string
	mu   sync.Mutex
	file *os.File
	date string
}

// NewDebugFile creates a DebugFile writing to dir/YYYY-MM-DD.jsonl.
func NewDebugFile(dir string) (*DebugFile, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating debug log dir: %w", err)
	}

	df := &DebugFile{dir: dir}
	df.mu.Lock()
	defer df.mu.Unlock()
	if err := df.open(time.Now()); err != nil {
		return nil, err
	}
	return df, nil
}

// Write implements io.Writer, rolling to a new file when the date changes.
func (df *DebugFile) Write(p []byte) (int, error) {
	df.mu.Lock()
	defer df.mu.Unlock()

	now := time.Now()
	if now.Format(time.DateOnly) != df.date {
		if err := df.open(now); err != nil {
			return 0, err
		}
	}
	return df.file.Write(p)
}

// Close closes the underlying file.
func (df *DebugFile) Close() error {
	df.mu.Lock()
	defer df.mu.Unlock()
	if df.file != nil {
		return df.file.Close()
	}
	return nil
}

// open opens today's log file and repoints the "latest" symlink. Callers
// hold df.mu.
func (df *DebugFile) open(now time.Time) error {
	if df.file != nil {
		df.file.Close()
	}

	df.date = now.Format(time.DateOnly)
	name := df.date + ".jsonl"

	f, err := os.OpenFile(filepath.Join(df.dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	df.file = f

	// Best-effort symlink update via create-and-rename
	link := filepath.Join(df.dir, "latest")
	tmp := link + ".tmp"
	os.Remove(tmp)
	if err := os.Symlink(name, tmp); err == nil {
		_ = os.Rename(tmp, link)
	}

	return nil
}

// logFilePattern matches YYYY-MM-DD.jsonl filenames.
var logFilePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}\.jsonl$`)

// Cleanup removes debug log files older than retentionDays.
func Cleanup(dir string, retentionDays int) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !logFilePattern.MatchString(name) {
			continue
		}
		day, err := time.Parse(time.DateOnly, name[:len(time.DateOnly)])
		if err != nil {
			continue
		}
		if day.Before(cutoff) {
			os.Remove(filepath.Join(dir, name))
		}
	}
}
