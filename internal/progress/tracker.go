package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/johndauphine/mariadb-migrate/internal/logging"
	"github.com/schollz/progressbar/v3"
)

// Tracker renders migration progress as a terminal progress bar.
type Tracker struct {
	mu        sync.Mutex
	writer    io.Writer
	bar       *progressbar.ProgressBar
	total     int
	complete  int
	direction string
	startTime time.Time
	failed    bool
}

// New creates a new progress tracker writing to stderr
func New() *Tracker {
	return NewWithWriter(os.Stderr)
}

// NewWithWriter creates a tracker writing to w.
func NewWithWriter(w io.Writer) *Tracker {
	return &Tracker{writer: w, startTime: time.Now()}
}

func (t *Tracker) newBar(total int, direction string) {
	t.total = total
	t.direction = direction
	t.bar = progressbar.NewOptions(
		total,
		progressbar.OptionSetWriter(t.writer),
		progressbar.OptionSetDescription(fmt.Sprintf("Migrating %s", direction)),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSetItsString("migrations"),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// Report moves the bar to update.Complete and names the migration being run.
func (t *Tracker) Report(update ProgressUpdate) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.bar == nil || update.Total != t.total {
		t.newBar(update.Total, update.Direction)
	}
	if update.Phase == PhaseFailed {
		t.failed = true
	}
	if update.Version != 0 {
		t.bar.Describe(fmt.Sprintf("%d %s", update.Version, update.Description))
	}
	if update.Complete > t.complete {
		t.bar.Add(update.Complete - t.complete)
		t.complete = update.Complete
	}
}

// ReportImmediate is Report; the bar throttles its own rendering.
func (t *Tracker) ReportImmediate(update ProgressUpdate) {
	t.Report(update)
}

// Current returns the number of completed migrations
func (t *Tracker) Current() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.complete
}

// Close finishes the bar and logs a summary
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.bar != nil && !t.failed {
		t.bar.Finish()
	}
	fmt.Fprintln(t.writer)

	elapsed := time.Since(t.startTime)
	if t.failed {
		logging.Warn("Migration %s stopped after %d of %d migrations (%s)", t.direction, t.complete, t.total, elapsed.Round(time.Millisecond))
		return
	}
	logging.Info("Migration %s complete: %d migrations in %s", t.direction, t.complete, elapsed.Round(time.Millisecond))
}
