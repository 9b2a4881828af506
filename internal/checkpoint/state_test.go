package checkpoint

import (
	"database/sql"
	"testing"
	"time"
)

func newState(t *testing.T) *State {
	t.Helper()
	state, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { state.Close() })
	return state
}

func TestRunLifecycle(t *testing.T) {
	state := newState(t)

	if err := state.CreateRun("run1", "up", "inventory", map[string]string{"mode": "per_migration"}, "prod", "/etc/migrate.yaml"); err != nil {
		t.Fatalf("CreateRun error: %v", err)
	}

	steps := []Step{
		{Version: 1, Description: "create users", Direction: "up", Status: StatusSuccess, Duration: 1500 * time.Millisecond},
		{Version: 2, Description: "add email", Direction: "up", Status: StatusFailed, Error: "duplicate column"},
	}
	for _, st := range steps {
		if err := state.RecordStep("run1", st); err != nil {
			t.Fatalf("RecordStep(%d) error: %v", st.Version, err)
		}
	}
	if err := state.CompleteRun("run1", StatusFailed, "duplicate column"); err != nil {
		t.Fatalf("CompleteRun error: %v", err)
	}

	run, err := state.GetRunByID("run1")
	if err != nil {
		t.Fatalf("GetRunByID error: %v", err)
	}
	if run == nil {
		t.Fatal("expected run")
	}
	if run.Status != StatusFailed || run.Error != "duplicate column" {
		t.Errorf("run status = %q (%q), want failed (duplicate column)", run.Status, run.Error)
	}
	if run.Direction != "up" || run.Database != "inventory" || run.ProfileName != "prod" {
		t.Errorf("unexpected run fields: %+v", run)
	}
	if run.CompletedAt == nil {
		t.Error("expected completed_at")
	}
	if run.Config != `{"mode":"per_migration"}` {
		t.Errorf("config = %q", run.Config)
	}

	got, err := state.GetSteps("run1")
	if err != nil {
		t.Fatalf("GetSteps error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("steps = %d, want 2", len(got))
	}
	if got[0].Version != 1 || got[0].Duration != 1500*time.Millisecond || got[0].Error != "" {
		t.Errorf("step 0 = %+v", got[0])
	}
	if got[1].Status != StatusFailed || got[1].Error != "duplicate column" {
		t.Errorf("step 1 = %+v", got[1])
	}
	if got[0].RecordedAt.IsZero() {
		t.Error("expected recorded_at")
	}
}

func TestCompleteUnknownRun(t *testing.T) {
	state := newState(t)
	if err := state.CompleteRun("missing", StatusSuccess, ""); err == nil {
		t.Fatal("expected error for unknown run")
	}
}

func TestGetRunByIDMissing(t *testing.T) {
	state := newState(t)
	run, err := state.GetRunByID("missing")
	if err != nil {
		t.Fatalf("GetRunByID error: %v", err)
	}
	if run != nil {
		t.Fatalf("expected nil run, got %+v", run)
	}
}

func TestGetAllRunsNewestFirst(t *testing.T) {
	state := newState(t)
	for _, id := range []string{"a", "b", "c"} {
		if err := state.CreateRun(id, "up", "db", nil, "", ""); err != nil {
			t.Fatalf("CreateRun(%s) error: %v", id, err)
		}
	}

	runs, err := state.GetAllRuns()
	if err != nil {
		t.Fatalf("GetAllRuns error: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("runs = %d, want 3", len(runs))
	}
	if runs[0].ID != "c" || runs[2].ID != "a" {
		t.Errorf("order = %s,%s,%s; want c,b,a", runs[0].ID, runs[1].ID, runs[2].ID)
	}
}

func TestCleanupOldRuns(t *testing.T) {
	state := newState(t)

	oldSuccess := "old-success"
	oldFailed := "old-failed"
	recentSuccess := "recent-success"
	running := "running"

	for _, runID := range []string{oldSuccess, oldFailed, recentSuccess, running} {
		if err := state.CreateRun(runID, "up", "db", map[string]string{"run": runID}, "", ""); err != nil {
			t.Fatalf("CreateRun(%s) error: %v", runID, err)
		}
		if err := state.RecordStep(runID, Step{Version: 1, Direction: "up", Status: StatusSuccess}); err != nil {
			t.Fatalf("RecordStep(%s) error: %v", runID, err)
		}
	}

	if err := state.CompleteRun(oldSuccess, StatusSuccess, ""); err != nil {
		t.Fatalf("CompleteRun(%s) error: %v", oldSuccess, err)
	}
	if err := state.CompleteRun(oldFailed, StatusFailed, "boom"); err != nil {
		t.Fatalf("CompleteRun(%s) error: %v", oldFailed, err)
	}
	if err := state.CompleteRun(recentSuccess, StatusSuccess, ""); err != nil {
		t.Fatalf("CompleteRun(%s) error: %v", recentSuccess, err)
	}

	oldTime := time.Now().UTC().AddDate(0, 0, -31).Format(sqliteTime)
	if _, err := state.db.Exec(`UPDATE runs SET completed_at = ? WHERE id IN (?, ?)`, oldTime, oldSuccess, oldFailed); err != nil {
		t.Fatalf("update old completed_at error: %v", err)
	}

	deleted, err := state.CleanupOldRuns(30)
	if err != nil {
		t.Fatalf("CleanupOldRuns error: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("deleted runs = %d, want 2", deleted)
	}

	if got := countRows(t, state.db, `SELECT COUNT(*) FROM runs`); got != 2 {
		t.Fatalf("runs remaining = %d, want 2", got)
	}
	if got := countRows(t, state.db, `SELECT COUNT(*) FROM runs WHERE id = ?`, running); got != 1 {
		t.Fatalf("running run missing after cleanup")
	}
	if got := countRows(t, state.db, `SELECT COUNT(*) FROM steps`); got != 2 {
		t.Fatalf("steps remaining = %d, want 2", got)
	}
}

func countRows(t *testing.T, db *sql.DB, query string, args ...any) int {
	t.Helper()
	var n int
	if err := db.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("count query error: %v", err)
	}
	return n
}
