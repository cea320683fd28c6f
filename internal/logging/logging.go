// Package logging tees the standard logger to stdout and a daily log file
// (app-YYYY-MM-DD.log) and prunes files older than the retention window.
package logging

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	dateLayout       = "2006-01-02"
	maxRetentionDays = 7
)

// Rotator owns the current log file.
type Rotator struct {
	Dir           string
	RetentionDays int
	Now           func() time.Time

	mu   sync.Mutex
	date string
	file *os.File
}

// Setup points the standard logger at stdout plus today's file in dir and
// starts the rotation loop. The returned func stops it and closes the file.
func Setup(dir string, retentionDays int) (func(), error) {
	rot := &Rotator{Dir: dir, RetentionDays: retentionDays, Now: time.Now}
	if err := rot.Open(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	go rot.Run(ctx, time.Minute)
	return func() {
		cancel()
		rot.Close()
	}, nil
}

func (r *Rotator) retention() int {
	if r.RetentionDays <= 0 || r.RetentionDays > maxRetentionDays {
		return maxRetentionDays
	}
	return r.RetentionDays
}

func (r *Rotator) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// Open creates the log directory and today's file.
func (r *Rotator) Open() error {
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rotateLocked(r.now().Format(dateLayout))
}

// Rotate switches to a new file when the date changed. It reports whether
// it did.
func (r *Rotator) Rotate() (bool, error) {
	date := r.now().Format(dateLayout)
	r.mu.Lock()
	defer r.mu.Unlock()
	if date == r.date {
		return false, nil
	}
	if err := r.rotateLocked(date); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Rotator) rotateLocked(date string) error {
	file, err := openLogFile(r.Dir, date)
	if err != nil {
		return err
	}
	log.SetOutput(io.MultiWriter(os.Stdout, file))
	if r.file != nil {
		_ = r.file.Close()
	}
	r.file = file
	r.date = date
	CleanupOldLogs(r.Dir, r.retention(), r.now())
	return nil
}

func (r *Rotator) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := r.Rotate(); err != nil {
				log.Printf("log rotate: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (r *Rotator) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file != nil {
		log.SetOutput(os.Stdout)
		_ = r.file.Close()
		r.file = nil
	}
}

func openLogFile(dir, date string) (*os.File, error) {
	filename := filepath.Join(dir, fmt.Sprintf("app-%s.log", date))
	return os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

// CleanupOldLogs removes app-*.log files dated before the last retentionDays
// days, today included. Other files are left alone.
func CleanupOldLogs(dir string, retentionDays int, now time.Time) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	today, _ := time.Parse(dateLayout, now.Format(dateLayout))
	cutoff := today.AddDate(0, 0, -(retentionDays - 1))
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() {
			continue
		}
		if !strings.HasPrefix(name, "app-") || !strings.HasSuffix(name, ".log") {
			continue
		}
		logDate, err := time.Parse(dateLayout, strings.TrimSuffix(strings.TrimPrefix(name, "app-"), ".log"))
		if err != nil {
			continue
		}
		if logDate.Before(cutoff) {
			_ = os.Remove(filepath.Join(dir, name))
		}
	}
}
