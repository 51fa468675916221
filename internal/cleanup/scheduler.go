package cleanup

import (
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Scheduler removes run directories left behind in the temp root, either by
// a crash mid-run or because artifacts were kept for debugging.
type Scheduler struct {
	tempDir  string
	interval time.Duration
	maxAge   time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
	now      func() time.Time
}

// NewScheduler creates a new cleanup scheduler
func NewScheduler(tempDir string, intervalMinutes, maxAgeHours int) *Scheduler {
	return &Scheduler{
		tempDir:  tempDir,
		interval: time.Duration(intervalMinutes) * time.Minute,
		maxAge:   time.Duration(maxAgeHours) * time.Hour,
		stopChan: make(chan struct{}),
		now:      time.Now,
	}
}

// Start runs one sweep immediately, then one per interval
func (s *Scheduler) Start() {
	log.Println("Running initial run directory cleanup...")
	s.Sweep()

	ticker := time.NewTicker(s.interval)

	go func() {
		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-s.stopChan:
				ticker.Stop()
				return
			}
		}
	}()

	log.Printf("Cleanup scheduler started (interval: %s, max age: %s)", s.interval, s.maxAge)
}

// Stop stops the cleanup scheduler
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		log.Println("Cleanup scheduler stopped")
	})
}

// Sweep deletes every entry of the temp root older than the max age and
// returns how many were removed
func (s *Scheduler) Sweep() int {
	entries, err := os.ReadDir(s.tempDir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Error during cleanup: %v", err)
		}
		return 0
	}

	now := s.now()
	var deleted int
	var freed int64

	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue // Removed concurrently
		}
		age := now.Sub(info.ModTime())
		if age <= s.maxAge {
			continue
		}

		path := filepath.Join(s.tempDir, entry.Name())
		size := diskUsage(path)
		if err := os.RemoveAll(path); err != nil {
			log.Printf("Failed to delete stale run data %s: %v", path, err)
			continue
		}
		deleted++
		freed += size
		log.Printf("Deleted stale run data: %s (age: %s, size: %dKB)",
			entry.Name(), age.Round(time.Hour), size/1024)
	}

	if deleted > 0 {
		log.Printf("Cleanup complete: %d entries deleted, %.2fMB freed",
			deleted, float64(freed)/(1024*1024))
	}
	return deleted
}

func diskUsage(path string) int64 {
	var total int64
	filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total
}

// EnsureDir creates the directory if it doesn't exist
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	log.Printf("Directory ready: %s", dir)
	return nil
}
