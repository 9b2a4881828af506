package runner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/johndauphine/mariadb-migrate/internal/expression"
	"github.com/johndauphine/mariadb-migrate/internal/generator"
	"github.com/johndauphine/mariadb-migrate/internal/logging"
	"github.com/johndauphine/mariadb-migrate/internal/processor"
	"github.com/johndauphine/mariadb-migrate/internal/stats"
)

// ErrOutOfOrder is returned when an unapplied migration is older than the
// newest applied one.
var ErrOutOfOrder = errors.New("migrations out of order")

// Status is the state of one migration.
type Status struct {
	Version     int64      `json:"version"`
	Description string     `json:"description"`
	Tags        []string   `json:"tags,omitempty"`
	Applied     bool       `json:"applied"`
	AppliedOn   *time.Time `json:"applied_on,omitempty"`
	// Missing marks versions recorded in the version table with no
	// registered migration.
	Missing bool `json:"missing,omitempty"`
}

// ListMigrations returns every known migration in version order, including
// applied versions that are no longer registered.
func (r *Runner) ListMigrations(ctx context.Context) ([]Status, error) {
	applied, err := r.versions.load(ctx, r.proc)
	if err != nil {
		return nil, err
	}

	var out []Status
	seen := make(map[int64]bool)
	for _, info := range r.registry.Sorted() {
		st := Status{Version: info.Version, Description: info.Description, Tags: info.Tags}
		if av, ok := applied[info.Version]; ok {
			st.Applied = true
			if !av.AppliedOn.IsZero() {
				on := av.AppliedOn
				st.AppliedOn = &on
			}
		}
		seen[info.Version] = true
		out = append(out, st)
	}
	for _, v := range sortedVersions(applied) {
		if seen[v] {
			continue
		}
		av := applied[v]
		st := Status{Version: v, Description: av.Description, Applied: true, Missing: true}
		if !av.AppliedOn.IsZero() {
			on := av.AppliedOn
			st.AppliedOn = &on
		}
		out = append(out, st)
	}
	sortStatuses(out)
	return out, nil
}

// ValidateVersionOrder fails with ErrOutOfOrder when a pending migration is
// older than the newest applied migration.
func (r *Runner) ValidateVersionOrder(ctx context.Context) error {
	applied, err := r.versions.load(ctx, r.proc)
	if err != nil {
		return err
	}
	return r.checkOrder(applied)
}

func (r *Runner) checkOrder(applied map[int64]AppliedVersion) error {
	var latest int64 = math.MinInt64
	for v := range applied {
		if v > latest {
			latest = v
		}
	}
	if len(applied) == 0 {
		return nil
	}

	var behind []string
	for _, info := range r.registry.Sorted() {
		if info.Version >= latest {
			break
		}
		if _, ok := applied[info.Version]; !ok && info.HasTags(r.opts.Tags) {
			behind = append(behind, info.String())
		}
	}
	if len(behind) > 0 {
		return fmt.Errorf("%w: latest applied is %d, pending: %s", ErrOutOfOrder, latest, strings.Join(behind, "; "))
	}
	return nil
}

// PlannedMigration is the SQL a migration would run.
type PlannedMigration struct {
	Version     int64    `json:"version"`
	Description string   `json:"description"`
	Direction   string   `json:"direction"`
	Statements  []string `json:"statements"`
}

// Preview renders the SQL for the migrations MigrateUpTo(target) or
// MigrateDown(target) would run, without executing anything. The version
// table DDL is included when the table does not exist yet.
func (r *Runner) Preview(ctx context.Context, dir Direction, target int64) ([]PlannedMigration, error) {
	logging.Info("Performing preview (no changes will be made)...")

	exists, err := r.proc.TableExists(ctx, r.versions.schema, r.versions.table)
	if err != nil {
		return nil, err
	}
	applied := map[int64]AppliedVersion{}
	if exists {
		if applied, err = r.versions.read(ctx, r.proc); err != nil {
			return nil, err
		}
	}

	var planned []PlannedMigration
	var plan []*Info
	if dir == Up {
		if !exists {
			stmts, err := r.generateAll(ctx, r.versions.createExpressions())
			if err != nil {
				return nil, err
			}
			planned = append(planned, PlannedMigration{Description: "create version table " + r.versions.table, Direction: string(Up), Statements: stmts})
		}
		plan = r.pendingUp(applied, target)
	} else {
		all := sortedVersions(applied)
		for i := len(all) - 1; i >= 0; i-- {
			if all[i] <= target {
				continue
			}
			info, err := r.registry.Get(all[i])
			if err != nil {
				return nil, err
			}
			plan = append(plan, info)
		}
	}

	for _, info := range plan {
		exprs, err := r.Expressions(dir, info)
		if err != nil {
			return nil, err
		}
		if dir == Up {
			exprs = append(exprs, r.versions.recordUp(info.Version, info.Description, r.now()))
		} else {
			exprs = append(exprs, r.versions.recordDown(info.Version))
		}
		stmts, err := r.generateAll(ctx, exprs)
		if err != nil {
			return nil, fmt.Errorf("migration %s: %w", info, err)
		}
		planned = append(planned, PlannedMigration{
			Version:     info.Version,
			Description: info.Description,
			Direction:   string(dir),
			Statements:  stmts,
		})
	}
	return planned, nil
}

// SQL renders the statements one registered migration runs in dir. The
// version table bookkeeping is left out.
func (r *Runner) SQL(ctx context.Context, dir Direction, version int64) ([]string, error) {
	info, err := r.registry.Get(version)
	if err != nil {
		return nil, err
	}
	exprs, err := r.Expressions(dir, info)
	if err != nil {
		return nil, err
	}
	return r.generateAll(ctx, exprs)
}

// generateAll renders exprs the way the processor would run them. Without a
// connection the generator alone is used.
func (r *Runner) generateAll(ctx context.Context, exprs []expression.Expression) ([]string, error) {
	render := func(_ context.Context, e expression.Expression) (string, error) {
		sql, err := r.gen.Generate(e)
		if err != nil {
			return "", fmt.Errorf("generating %s: %w", e, err)
		}
		return sql, nil
	}
	if rd, ok := r.proc.(processor.Renderer); ok {
		render = rd.Render
	}

	stmts := make([]string, 0, len(exprs))
	for _, e := range exprs {
		sql, err := render(ctx, e)
		if err != nil {
			return nil, err
		}
		if sql == "" {
			continue
		}
		stmts = append(stmts, strings.Split(sql, generator.StatementSeparator)...)
	}
	return stmts, nil
}

// HealthCheckResult reports connectivity and version table state.
type HealthCheckResult struct {
	Timestamp     string `json:"timestamp"`
	DatabaseType  string `json:"database_type"`
	Connected     bool   `json:"connected"`
	LatencyMs     int64  `json:"latency_ms"`
	Error         string `json:"error,omitempty"`
	VersionTable  bool   `json:"version_table_exists"`
	AppliedCount  int    `json:"applied_count"`
	PendingCount  int    `json:"pending_count"`
	LatestVersion int64  `json:"latest_version,omitempty"`
	Healthy       bool   `json:"healthy"`

	Pool *stats.PoolStats `json:"pool,omitempty"`
}

// pooled is implemented by processors backed by database/sql.
type pooled interface {
	DB() *sql.DB
}

// HealthCheck pings the database and summarizes migration state.
func (r *Runner) HealthCheck(ctx context.Context) (*HealthCheckResult, error) {
	result := &HealthCheckResult{
		Timestamp:    time.Now().Format(time.RFC3339),
		DatabaseType: r.proc.DatabaseType(),
	}

	const checkTimeout = 30 * time.Second
	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	err := r.proc.Ping(checkCtx)
	result.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		result.Error = err.Error()
		return result, nil
	}
	result.Connected = true

	exists, err := r.proc.TableExists(checkCtx, r.versions.schema, r.versions.table)
	if err != nil {
		result.Error = err.Error()
		return result, nil
	}
	result.VersionTable = exists

	applied := map[int64]AppliedVersion{}
	if exists {
		if applied, err = r.versions.read(checkCtx, r.proc); err != nil {
			result.Error = err.Error()
			return result, nil
		}
	}
	result.AppliedCount = len(applied)
	if versions := sortedVersions(applied); len(versions) > 0 {
		result.LatestVersion = versions[len(versions)-1]
	}
	result.PendingCount = len(r.pendingUp(applied, math.MaxInt64))
	result.Healthy = true

	if p, ok := r.proc.(pooled); ok && p.DB() != nil {
		ps := stats.FromDB(result.DatabaseType, p.DB())
		result.Pool = &ps
		logging.Debug("Pool %s", ps)
	}
	return result, nil
}

func sortStatuses(s []Status) {
	sort.Slice(s, func(i, j int) bool { return s[i].Version < s[j].Version })
}
