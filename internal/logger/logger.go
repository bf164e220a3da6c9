// Package logger records simulation snapshots to rotating CSV files for
// offline analysis of a run.
package logger

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/prasadtara/enginesim/internal/engine"
)

// Config holds logger configuration.
type Config struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	Path       string `yaml:"path" json:"path"`
	IntervalMs int    `yaml:"interval_ms" json:"intervalMs"`
}

// maxRowsPerFile bounds a single CSV before rotation (~2.7 hrs at 10 Hz).
const maxRowsPerFile = 100_000

var csvHeader = []string{
	"timestamp", "elapsed_s", "phase", "rpm", "map_psi", "tps_pct",
	"boost_status", "estimated_hp",
	"peak_hp", "rpm_at_peak_hp", "map_at_peak_hp", "max_boost_psi",
}

// Logger writes one snapshot row per interval. Files are created lazily on
// the first due Record and rotated by row count.
type Logger struct {
	mu       sync.Mutex
	dir      string
	interval time.Duration
	enabled  bool

	file   *os.File
	writer *csv.Writer
	lastTs time.Time
	rows   int
}

// New creates a new Logger.
func New(cfg Config) *Logger {
	if cfg.Path == "" {
		cfg.Path = "/var/log/enginesim"
	}
	interval := time.Duration(cfg.IntervalMs) * time.Millisecond
	if interval < 50*time.Millisecond {
		interval = 100 * time.Millisecond // Default 10 Hz
	}
	return &Logger{
		dir:      cfg.Path,
		interval: interval,
		enabled:  cfg.Enabled,
	}
}

// SetEnabled allows toggling logging at runtime.
func (l *Logger) SetEnabled(on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = on
	if !on {
		l.release()
	}
}

// IsEnabled returns whether logging is active.
func (l *Logger) IsEnabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

// Record writes a snapshot row if logging is on and the minimum interval has
// elapsed since the last row. Callers may invoke it far more often than the
// interval; extra calls are dropped.
func (l *Logger) Record(snap engine.Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.enabled {
		return
	}

	now := time.Now()
	if now.Sub(l.lastTs) < l.interval {
		return
	}
	l.lastTs = now

	if err := l.writeRow(now, snap); err != nil {
		log.Printf("[logger] %v", err)
	}
}

// Close flushes and closes the current log file.
func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.release()
}

func (l *Logger) writeRow(now time.Time, snap engine.Snapshot) error {
	if l.writer == nil || l.rows >= maxRowsPerFile {
		if err := l.rotate(now); err != nil {
			return fmt.Errorf("rotate: %w", err)
		}
	}
	if err := l.writer.Write(buildRow(now, snap)); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	l.writer.Flush()
	l.rows++
	return nil
}

// rotate closes the current file, if any, and starts a fresh one with the
// header already written.
func (l *Logger) rotate(now time.Time) error {
	l.release()

	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return fmt.Errorf("mkdir %s: %w", l.dir, err)
	}

	path := filepath.Join(l.dir, fmt.Sprintf("enginesim_%s.csv", now.Format("2006-01-02_150405")))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	l.file = f
	l.writer = csv.NewWriter(f)
	l.rows = 0

	if err := l.writer.Write(csvHeader); err != nil {
		return err
	}
	l.writer.Flush()

	log.Printf("[logger] opened %s", path)
	return nil
}

func (l *Logger) release() {
	if l.writer != nil {
		l.writer.Flush()
		l.writer = nil
	}
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
}

func buildRow(ts time.Time, snap engine.Snapshot) []string {
	s := snap.Sample
	p := snap.Peaks
	return []string{
		ts.Format(time.RFC3339Nano),
		fmt.Sprintf("%.1f", snap.Elapsed),
		s.Phase.String(),
		strconv.Itoa(s.RPM),
		fmt.Sprintf("%.2f", s.MAP),
		strconv.Itoa(s.TPS),
		s.BoostStatus.String(),
		fmt.Sprintf("%.1f", s.EstimatedHP),
		fmt.Sprintf("%.1f", p.MaxHP),
		strconv.Itoa(p.RPMAtMaxHP),
		fmt.Sprintf("%.2f", p.MAPAtMaxHP),
		fmt.Sprintf("%.2f", p.MaxBoostPSI),
	}
}
