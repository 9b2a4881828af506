// Package stats summarizes connection pool usage for logs and health checks.
package stats

import (
	"database/sql"
	"fmt"
)

// PoolStats is a snapshot of a database/sql connection pool.
type PoolStats struct {
	DBType      string `json:"db_type"`
	MaxConns    int    `json:"max_conns"` // 0 means unlimited
	OpenConns   int    `json:"open_conns"`
	ActiveConns int    `json:"active_conns"`
	IdleConns   int    `json:"idle_conns"`
	WaitCount   int64  `json:"wait_count"`
	WaitTimeMs  int64  `json:"wait_time_ms"`
}

// FromDB takes a snapshot of db's pool.
func FromDB(dbType string, db *sql.DB) PoolStats {
	s := db.Stats()
	return PoolStats{
		DBType:      dbType,
		MaxConns:    s.MaxOpenConnections,
		OpenConns:   s.OpenConnections,
		ActiveConns: s.InUse,
		IdleConns:   s.Idle,
		WaitCount:   s.WaitCount,
		WaitTimeMs:  s.WaitDuration.Milliseconds(),
	}
}

// String returns a formatted string for logging pool stats.
func (s PoolStats) String() string {
	limit := "unlimited"
	if s.MaxConns > 0 {
		limit = fmt.Sprint(s.MaxConns)
	}
	return fmt.Sprintf("%s: %d/%s active, %d idle, %d waits (%.1fms avg)",
		s.DBType, s.ActiveConns, limit, s.IdleConns,
		s.WaitCount, float64(s.WaitTimeMs)/float64(max(s.WaitCount, 1)))
}
