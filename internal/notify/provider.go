package notify

import "time"

// Provider defines the notification contract for migration runs.
// This interface allows for different notification backends (Slack, email, etc.)
// and enables easier testing through mock implementations.
type Provider interface {
	// MigrationStarted sends notification when a run starts.
	MigrationStarted(runID, direction, database string, pending int) error

	// MigrationCompleted sends notification when every migration of a run succeeded.
	MigrationCompleted(runID, direction string, startTime time.Time, duration time.Duration, applied []string) error

	// MigrationFailed sends notification when a migration fails and the run stops.
	MigrationFailed(runID string, version int64, err error, duration time.Duration) error
}

// Ensure Notifier implements Provider
var _ Provider = (*Notifier)(nil)
