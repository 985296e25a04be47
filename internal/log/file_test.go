package log

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDebugFileWrite(t *testing.T) {
	dir := t.TempDir()
	df, err := NewDebugFile(dir)
	if err != nil {
		t.Fatalf("NewDebugFile: %v", err)
	}
	defer df.Close()

	if _, err := df.Write([]byte("hello\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	name := time.Now().Format(time.DateOnly) + ".jsonl"
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("reading %s: %v", name, err)
	}
	if string(data) != "hello\n" {
		t.Errorf("file contents = %q", data)
	}

	// "latest" points at today's file
	target, err := os.Readlink(filepath.Join(dir, "latest"))
	if err != nil {
		t.Fatalf("Readlink: %v", err)
	}
	if target != name {
		t.Errorf("latest -> %q, want %q", target, name)
	}
}

func TestCleanup(t *testing.T) {
	dir := t.TempDir()

	old := time.Now().AddDate(0, 0, -30).Format(time.DateOnly) + ".jsonl"
	recent := time.Now().Format(time.DateOnly) + ".jsonl"
	unrelated := "notes.txt"
	for _, name := range []string{old, recent, unrelated} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	Cleanup(dir, 7)

	if _, err := os.Stat(filepath.Join(dir, old)); !os.IsNotExist(err) {
		t.Errorf("%s survived cleanup", old)
	}
	for _, name := range []string{recent, unrelated} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s removed by cleanup: %v", name, err)
		}
	}
}

func TestCleanupMissingDir(t *testing.T) {
	// Must not panic or create anything.
	Cleanup(filepath.Join(t.TempDir(), "nope"), 7)
}
