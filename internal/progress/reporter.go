package progress

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/johndauphine/mariadb-migrate/internal/logging"
)

// Phases of a migration run.
const (
	PhaseStarting  = "starting"
	PhaseMigrating = "migrating"
	PhaseComplete  = "complete"
	PhaseFailed    = "failed"
)

// ProgressUpdate represents a JSON progress update for automation.
type ProgressUpdate struct {
	Timestamp   string  `json:"timestamp"`
	RunID       string  `json:"run_id,omitempty"`
	Phase       string  `json:"phase"`
	Direction   string  `json:"direction"`
	Complete    int     `json:"migrations_complete"`
	Total       int     `json:"migrations_total"`
	Version     int64   `json:"version,omitempty"`
	Description string  `json:"description,omitempty"`
	ProgressPct float64 `json:"progress_pct"`
	Error       string  `json:"error,omitempty"`
}

// Percent fills ProgressPct from Complete and Total.
func (u *ProgressUpdate) Percent() {
	if u.Total > 0 {
		u.ProgressPct = float64(u.Complete) / float64(u.Total) * 100
	} else {
		u.ProgressPct = 100
	}
}

// Reporter defines the interface for progress reporting.
type Reporter interface {
	// Report emits a progress update (may be throttled)
	Report(update ProgressUpdate)
	// ReportImmediate emits a progress update immediately, bypassing throttling
	ReportImmediate(update ProgressUpdate)
	// Close cleans up any resources
	Close()
}

// JSONReporter outputs JSON progress updates to a writer (typically stderr).
type JSONReporter struct {
	writer     io.Writer
	mu         sync.Mutex
	interval   time.Duration
	lastReport time.Time
	closed     bool
}

// NewJSONReporter creates a new JSON progress reporter.
// interval specifies the minimum time between updates (to avoid flooding).
func NewJSONReporter(writer io.Writer, interval time.Duration) *JSONReporter {
	if writer == nil {
		writer = os.Stderr
	}
	return &JSONReporter{
		writer:   writer,
		interval: interval,
	}
}

// Report emits a JSON progress update to the writer.
// Updates are throttled based on the configured interval.
func (r *JSONReporter) Report(update ProgressUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}

	now := time.Now()
	if r.interval > 0 && now.Sub(r.lastReport) < r.interval {
		return
	}
	r.write(update, now)
}

// ReportImmediate emits a progress update immediately, bypassing throttling.
// Use for phase transitions and failures.
func (r *JSONReporter) ReportImmediate(update ProgressUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.write(update, time.Now())
}

func (r *JSONReporter) write(update ProgressUpdate, now time.Time) {
	if update.Timestamp == "" {
		update.Timestamp = now.Format(time.RFC3339)
	}

	data, err := json.Marshal(update)
	if err != nil {
		logging.Warn("Failed to marshal progress update: %v", err)
		return
	}

	fmt.Fprintln(r.writer, string(data))
	r.lastReport = now
}

// Close marks the reporter as closed.
func (r *JSONReporter) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

// NullReporter is a no-op reporter for when progress reporting is disabled.
type NullReporter struct{}

// Report does nothing.
func (r *NullReporter) Report(update ProgressUpdate) {}

// ReportImmediate does nothing.
func (r *NullReporter) ReportImmediate(update ProgressUpdate) {}

// Close does nothing.
func (r *NullReporter) Close() {}
