package progress

import (
	"fmt"
	"sync"
	"time"
)

// Status is a snapshot of the migration's progress
type Status struct {
	TotalFiles     int64
	ProcessedFiles int64
	UploadedFiles  int64
	SkippedFiles   int64
	FailedFiles    int64
	TotalBytes     int64
	ProcessedBytes int64
	StartTime      time.Time
	AverageSpeed   float64 // bytes per second
	ETA            time.Duration
}

// Tracker tracks migration progress. All methods are safe for concurrent use;
// ProcessedFiles only ever increases.
type Tracker struct {
	mu     sync.RWMutex
	status Status
}

// NewTracker creates a new progress tracker
func NewTracker() *Tracker {
	return &Tracker{
		status: Status{StartTime: time.Now()},
	}
}

// SetTotal sets the total number of files and bytes in the run
func (t *Tracker) SetTotal(files, bytes int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status.TotalFiles = files
	t.status.TotalBytes = bytes
}

// AddUploaded records a completed upload
func (t *Tracker) AddUploaded(bytes int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status.UploadedFiles++
	t.status.ProcessedFiles++
	t.status.ProcessedBytes += bytes
	t.recalculate()
}

// AddSkipped records a file that already existed at its destination
func (t *Tracker) AddSkipped(bytes int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status.SkippedFiles++
	t.status.ProcessedFiles++
	t.status.ProcessedBytes += bytes
	t.recalculate()
}

// AddFailed records a file that exhausted its retries
func (t *Tracker) AddFailed() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status.FailedFiles++
	t.status.ProcessedFiles++
	t.recalculate()
}

// recalculate updates speed and ETA (must be called with lock held)
func (t *Tracker) recalculate() {
	elapsed := time.Since(t.status.StartTime)
	if elapsed <= 0 {
		return
	}

	t.status.AverageSpeed = float64(t.status.ProcessedBytes) / elapsed.Seconds()

	remaining := t.status.TotalBytes - t.status.ProcessedBytes
	if remaining <= 0 || t.status.AverageSpeed == 0 {
		t.status.ETA = 0
		return
	}
	t.status.ETA = time.Duration(float64(remaining)/t.status.AverageSpeed) * time.Second
}

// GetStatus returns the current status (thread-safe)
func (t *Tracker) GetStatus() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.status
}

// Processed returns the monotonically increasing count of resolved files
func (t *Tracker) Processed() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.status.ProcessedFiles
}

// Percent returns the file-count progress percentage
func (t *Tracker) Percent() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.status.TotalFiles == 0 {
		return 0
	}

	return float64(t.status.ProcessedFiles) / float64(t.status.TotalFiles) * 100
}

// FormatSpeed formats speed in human readable format
func FormatSpeed(bytesPerSecond float64) string {
	return FormatBytes(int64(bytesPerSecond)) + "/s"
}

// FormatBytes formats bytes in human readable format
func FormatBytes(bytes int64) string {
	switch {
	case bytes < 1024:
		return fmt.Sprintf("%d B", bytes)
	case bytes < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	case bytes < 1024*1024*1024:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	default:
		return fmt.Sprintf("%.1f GB", float64(bytes)/(1024*1024*1024))
	}
}

// FormatDuration formats duration in human readable format
func FormatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}
