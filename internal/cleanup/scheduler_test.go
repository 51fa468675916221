package cleanup

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSweepRemovesOnlyStaleRuns(t *testing.T) {
	root := t.TempDir()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	stale := filepath.Join(root, "stale-run")
	fresh := filepath.Join(root, "fresh-run")
	for _, dir := range []string{stale, fresh} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "input.wav"), make([]byte, 2048), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Chtimes(stale, now.Add(-48*time.Hour), now.Add(-48*time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(fresh, now.Add(-time.Hour), now.Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}

	s := NewScheduler(root, 60, 24)
	s.now = func() time.Time { return now }

	if n := s.Sweep(); n != 1 {
		t.Fatalf("expected 1 deletion, got %d", n)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatal("stale run directory still present")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatalf("fresh run directory removed: %v", err)
	}
}

func TestSweepMissingRoot(t *testing.T) {
	s := NewScheduler(filepath.Join(t.TempDir(), "absent"), 60, 24)
	if n := s.Sweep(); n != 0 {
		t.Fatalf("expected no deletions, got %d", n)
	}
}

func TestStartStop(t *testing.T) {
	s := NewScheduler(t.TempDir(), 1, 1)
	s.Start()
	s.Stop()
	s.Stop()
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	if err := EnsureDir(dir); err != nil {
		t.Fatal(err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("directory not created: %v", err)
	}
}
