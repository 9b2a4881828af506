package checkpoint

// Journal records migration runs and the steps each run applied.
// Implementations include SQLite (full featured) and a single YAML file for
// headless environments where SQLite is impractical.
type Journal interface {
	// Run management
	CreateRun(id, direction, database string, config any, profileName, configPath string) error
	CompleteRun(id string, status string, errorMsg string) error

	// Step management
	RecordStep(runID string, step Step) error
	GetSteps(runID string) ([]Step, error)

	// History (file backend only keeps the last run)
	GetAllRuns() ([]Run, error)
	GetRunByID(runID string) (*Run, error)

	// Lifecycle
	Close() error
}

// HistoryBackend extends Journal with profile management.
// Only SQLite implements this; file backend does not support profiles.
type HistoryBackend interface {
	Journal

	// Profile management (encrypted config storage)
	SaveProfile(name, description string, config []byte) error
	GetProfile(name string) ([]byte, error)
	ListProfiles() ([]ProfileInfo, error)
	DeleteProfile(name string) error
}

var (
	_ HistoryBackend = (*State)(nil)
	_ Journal        = (*FileState)(nil)
)
