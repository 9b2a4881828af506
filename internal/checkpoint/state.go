package checkpoint

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusSuccess   = "success"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// sqliteTime is the layout of datetime('now').
const sqliteTime = "2006-01-02 15:04:05"

// historyLimit bounds GetAllRuns.
const historyLimit = 20

// State manages the run journal in SQLite
type State struct {
	db *sql.DB
}

// Run represents one invocation of up, down or rollback
type Run struct {
	ID          string
	StartedAt   time.Time
	CompletedAt *time.Time
	Status      string
	Direction   string
	Database    string
	Config      string
	ProfileName string
	ConfigPath  string
	Error       string
}

// Step is one migration applied or reverted within a run
type Step struct {
	Version     int64         `yaml:"version"`
	Description string        `yaml:"description"`
	Direction   string        `yaml:"direction"`
	Status      string        `yaml:"status"`
	Duration    time.Duration `yaml:"duration"`
	Error       string        `yaml:"error,omitempty"`
	RecordedAt  time.Time     `yaml:"recorded_at"`
}

// New creates a new journal in dataDir
func New(dataDir string) (*State, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "migrate.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &State{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return s, nil
}

func (s *State) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		completed_at TEXT,
		status TEXT NOT NULL DEFAULT 'running',
		direction TEXT NOT NULL,
		database_name TEXT NOT NULL,
		config TEXT,
		profile_name TEXT,
		config_path TEXT,
		error_message TEXT
	);

	CREATE TABLE IF NOT EXISTS steps (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		version INTEGER NOT NULL,
		description TEXT,
		direction TEXT NOT NULL,
		status TEXT NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		error_message TEXT,
		recorded_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS profiles (
		name TEXT PRIMARY KEY,
		description TEXT,
		config_enc BLOB NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_steps_run ON steps(run_id);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *State) Close() error {
	return s.db.Close()
}

// CreateRun starts a journal entry for a run
func (s *State) CreateRun(id, direction, database string, config any, profileName, configPath string) error {
	configJSON, _ := json.Marshal(config)
	_, err := s.db.Exec(`
		INSERT INTO runs (id, started_at, status, direction, database_name, config, profile_name, config_path)
		VALUES (?, datetime('now'), 'running', ?, ?, ?, ?, ?)
	`, id, direction, database, string(configJSON), nullIfEmpty(profileName), nullIfEmpty(configPath))
	return err
}

// CompleteRun marks a run as finished with status
func (s *State) CompleteRun(id string, status string, errorMsg string) error {
	res, err := s.db.Exec(`
		UPDATE runs SET status = ?, completed_at = datetime('now'), error_message = ?
		WHERE id = ?
	`, status, nullIfEmpty(errorMsg), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

// RecordStep appends a step to a run
func (s *State) RecordStep(runID string, step Step) error {
	recorded := step.RecordedAt
	if recorded.IsZero() {
		recorded = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO steps (run_id, version, description, direction, status, duration_ms, error_message, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, runID, step.Version, step.Description, step.Direction, step.Status,
		step.Duration.Milliseconds(), nullIfEmpty(step.Error), recorded.UTC().Format(sqliteTime))
	return err
}

// GetSteps returns the steps of a run in the order they were recorded
func (s *State) GetSteps(runID string) ([]Step, error) {
	rows, err := s.db.Query(`
		SELECT version, description, direction, status, duration_ms, error_message, recorded_at
		FROM steps WHERE run_id = ? ORDER BY id
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []Step
	for rows.Next() {
		var st Step
		var desc, errMsg sql.NullString
		var durationMS int64
		var recordedAt string
		if err := rows.Scan(&st.Version, &desc, &st.Direction, &st.Status, &durationMS, &errMsg, &recordedAt); err != nil {
			return nil, err
		}
		st.Description = desc.String
		st.Error = errMsg.String
		st.Duration = time.Duration(durationMS) * time.Millisecond
		st.RecordedAt, _ = time.Parse(sqliteTime, recordedAt)
		steps = append(steps, st)
	}
	return steps, rows.Err()
}

// GetAllRuns returns the most recent runs for history
func (s *State) GetAllRuns() ([]Run, error) {
	rows, err := s.db.Query(`
		SELECT id, started_at, completed_at, status, direction, database_name, profile_name, config_path, error_message
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?
	`, historyLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows, false)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// GetRunByID returns a run including its stored config, or nil if unknown
func (s *State) GetRunByID(runID string) (*Run, error) {
	row := s.db.QueryRow(`
		SELECT id, started_at, completed_at, status, direction, database_name, profile_name, config_path, error_message, config
		FROM runs WHERE id = ?
	`, runID)
	r, err := scanRun(row, true)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

// CleanupOldRuns removes finished runs completed more than days ago,
// together with their steps. Running runs are kept.
func (s *State) CleanupOldRuns(days int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format(sqliteTime)

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	const old = `SELECT id FROM runs WHERE status != 'running' AND completed_at IS NOT NULL AND completed_at < ?`
	if _, err := tx.Exec(`DELETE FROM steps WHERE run_id IN (`+old+`)`, cutoff); err != nil {
		return 0, fmt.Errorf("deleting steps: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM runs WHERE id IN (`+old+`)`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting runs: %w", err)
	}
	deleted, _ := res.RowsAffected()
	return deleted, tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner, withConfig bool) (*Run, error) {
	var r Run
	var startedAt string
	var completedAt, profile, configPath, errMsg, config sql.NullString
	dest := []any{&r.ID, &startedAt, &completedAt, &r.Status, &r.Direction, &r.Database, &profile, &configPath, &errMsg}
	if withConfig {
		dest = append(dest, &config)
	}
	if err := sc.Scan(dest...); err != nil {
		return nil, err
	}
	r.StartedAt, _ = time.Parse(sqliteTime, startedAt)
	if completedAt.Valid {
		t, _ := time.Parse(sqliteTime, completedAt.String)
		r.CompletedAt = &t
	}
	r.ProfileName = profile.String
	r.ConfigPath = configPath.String
	r.Error = errMsg.String
	r.Config = config.String
	return &r, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
