package progress

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Display periodically renders a progress line to the console while workers
// run
type Display struct {
	tracker  *Tracker
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewDisplay creates a new progress display
func NewDisplay(tracker *Tracker, interval time.Duration) *Display {
	return &Display{
		tracker:  tracker,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start starts the progress display
func (d *Display) Start() {
	go d.displayLoop()
}

// Stop stops the progress display and prints the final line
func (d *Display) Stop() {
	close(d.stopCh)
	<-d.doneCh
}

func (d *Display) displayLoop() {
	defer close(d.doneCh)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			fmt.Printf("\r%s", d.renderLine())
		case <-d.stopCh:
			fmt.Printf("\r%s\n", d.renderLine())
			return
		}
	}
}

func (d *Display) renderLine() string {
	status := d.tracker.GetStatus()
	percent := d.tracker.Percent()

	line := fmt.Sprintf("%s %d/%d files  %s  %s",
		renderBar(percent, 30),
		status.ProcessedFiles, status.TotalFiles,
		FormatSpeed(status.AverageSpeed),
		FormatBytes(status.ProcessedBytes),
	)

	if status.ETA > 0 {
		line += fmt.Sprintf("  ETA %s", FormatDuration(status.ETA))
	}

	return line
}

func renderBar(percent float64, width int) string {
	if percent > 100 {
		percent = 100
	}
	if percent < 0 {
		percent = 0
	}

	filled := int(percent * float64(width) / 100)
	bar := strings.Repeat("=", filled) + strings.Repeat("-", width-filled)

	return fmt.Sprintf("[%s] %5.1f%%", bar, percent)
}

// IsTerminalSupported checks whether stdout is a terminal
func IsTerminalSupported() bool {
	fileInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fileInfo.Mode()&os.ModeCharDevice != 0
}
