// Package runner applies registered migrations to a database and keeps the
// version table in step with what has been applied.
package runner

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/johndauphine/mariadb-migrate/internal/builder"
	"github.com/johndauphine/mariadb-migrate/internal/checkpoint"
	"github.com/johndauphine/mariadb-migrate/internal/conventions"
	"github.com/johndauphine/mariadb-migrate/internal/expression"
	"github.com/johndauphine/mariadb-migrate/internal/generator"
	"github.com/johndauphine/mariadb-migrate/internal/logging"
	"github.com/johndauphine/mariadb-migrate/internal/notify"
	"github.com/johndauphine/mariadb-migrate/internal/processor"
	"github.com/johndauphine/mariadb-migrate/internal/progress"
)

// Direction of a migration run.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Transaction modes.
const (
	TransactionPerMigration = "per_migration"
	TransactionPerSession   = "per_session"
)

// Options configures a Runner.
type Options struct {
	VersionTable     string
	Schema           string
	TransactionMode  string
	Tags             []string
	WorkingDirectory string

	// StrictVersionOrder refuses to migrate up while older migrations are
	// still pending behind applied ones.
	StrictVersionOrder bool

	// Preview marks runs over a preview-only processor. They are neither
	// journaled nor announced.
	Preview bool

	// Journal metadata
	Database    string
	Config      any
	ProfileName string
	ConfigPath  string
}

// Runner applies migrations through a processor.
type Runner struct {
	proc     processor.Processor
	gen      generator.Generator
	conv     *conventions.Set
	registry *Registry
	opts     Options
	versions *versionTable

	journal  checkpoint.Journal
	notifier notify.Provider
	reporter progress.Reporter
	now      func() time.Time
}

// Option configures optional collaborators.
type Option func(*Runner)

// WithJournal records every run and step in j.
func WithJournal(j checkpoint.Journal) Option {
	return func(r *Runner) { r.journal = j }
}

// WithNotifier sends run notifications to n.
func WithNotifier(n notify.Provider) Option {
	return func(r *Runner) { r.notifier = n }
}

// WithReporter reports progress to rep.
func WithReporter(rep progress.Reporter) Option {
	return func(r *Runner) { r.reporter = rep }
}

// WithClock replaces time.Now, used for AppliedOn and durations.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// New creates a runner. proc executes migrations; gen renders SQL when proc
// cannot render it itself or there is no connection.
func New(proc processor.Processor, gen generator.Generator, conv *conventions.Set, registry *Registry, opts Options, options ...Option) *Runner {
	if opts.TransactionMode == "" {
		opts.TransactionMode = TransactionPerMigration
	}
	r := &Runner{
		proc:     proc,
		gen:      gen,
		conv:     conv,
		registry: registry,
		opts:     opts,
		versions: newVersionTable(opts.Schema, opts.VersionTable),
		reporter: &progress.NullReporter{},
		now:      time.Now,
	}
	for _, o := range options {
		o(r)
	}
	if opts.Preview {
		r.journal = nil
		r.notifier = nil
	}
	return r
}

// StepResult describes one applied or reverted migration.
type StepResult struct {
	Version     int64
	Description string
	Duration    time.Duration
}

// Result summarizes a run.
type Result struct {
	RunID     string
	Direction Direction
	StartedAt time.Time
	Duration  time.Duration
	Steps     []StepResult
}

// MigrateUp applies every pending migration.
func (r *Runner) MigrateUp(ctx context.Context) (*Result, error) {
	return r.MigrateUpTo(ctx, math.MaxInt64)
}

// MigrateUpTo applies pending migrations up to and including version.
func (r *Runner) MigrateUpTo(ctx context.Context, version int64) (*Result, error) {
	created, err := r.versions.ensure(ctx, r.proc)
	if err != nil {
		return nil, err
	}
	applied := map[int64]AppliedVersion{}
	if !created {
		if applied, err = r.versions.read(ctx, r.proc); err != nil {
			return nil, err
		}
	}

	if r.opts.StrictVersionOrder {
		if err := r.checkOrder(applied); err != nil {
			return nil, err
		}
	}

	return r.run(ctx, Up, r.pendingUp(applied, version))
}

// MigrateDown reverts every applied migration above version, newest first.
func (r *Runner) MigrateDown(ctx context.Context, version int64) (*Result, error) {
	applied, err := r.versions.load(ctx, r.proc)
	if err != nil {
		return nil, err
	}
	var versions []int64
	all := sortedVersions(applied)
	for i := len(all) - 1; i >= 0; i-- {
		if all[i] > version {
			versions = append(versions, all[i])
		}
	}
	return r.down(ctx, versions)
}

// Rollback reverts the last steps applied migrations.
func (r *Runner) Rollback(ctx context.Context, steps int) (*Result, error) {
	if steps < 1 {
		return nil, fmt.Errorf("rollback steps must be at least 1, got %d", steps)
	}
	applied, err := r.versions.load(ctx, r.proc)
	if err != nil {
		return nil, err
	}
	all := sortedVersions(applied)
	var versions []int64
	for i := len(all) - 1; i >= 0 && len(versions) < steps; i-- {
		versions = append(versions, all[i])
	}
	return r.down(ctx, versions)
}

// down reverts versions in order. The whole plan is built first so an
// irreversible migration stops the run before anything is reverted.
func (r *Runner) down(ctx context.Context, versions []int64) (*Result, error) {
	plan := make([]*Info, 0, len(versions))
	for _, v := range versions {
		info, err := r.registry.Get(v)
		if err != nil {
			return nil, err
		}
		if _, err := r.Expressions(Down, info); err != nil {
			return nil, err
		}
		plan = append(plan, info)
	}
	return r.run(ctx, Down, plan)
}

func (r *Runner) pendingUp(applied map[int64]AppliedVersion, upTo int64) []*Info {
	var plan []*Info
	for _, info := range r.registry.Sorted() {
		if info.Version > upTo {
			break
		}
		if _, done := applied[info.Version]; done {
			continue
		}
		if !info.HasTags(r.opts.Tags) {
			logging.Debug("Skipping %s: tags %v do not match %v", info, info.Tags, r.opts.Tags)
			continue
		}
		plan = append(plan, info)
	}
	return plan
}

func (r *Runner) run(ctx context.Context, dir Direction, plan []*Info) (*Result, error) {
	start := r.now()
	result := &Result{
		RunID:     uuid.New().String()[:8],
		Direction: dir,
		StartedAt: start,
	}
	if len(plan) == 0 {
		logging.Info("No migrations to %s", verb(dir))
		return result, nil
	}

	logging.Info("Starting migration run: %s (%s, %d migrations)", result.RunID, dir, len(plan))
	if r.journal != nil {
		if err := r.journal.CreateRun(result.RunID, string(dir), r.opts.Database, r.opts.Config, r.opts.ProfileName, r.opts.ConfigPath); err != nil {
			logging.Warn("Warning: journal: creating run %s: %v", result.RunID, err)
		}
	}
	if r.notifier != nil {
		if err := r.notifier.MigrationStarted(result.RunID, string(dir), r.opts.Database, len(plan)); err != nil {
			logging.Warn("Warning: notification failed: %v", err)
		}
	}
	r.report(result, progress.PhaseStarting, len(plan), nil, "")

	perSession := r.opts.TransactionMode == TransactionPerSession
	if perSession {
		if err := r.proc.BeginTransaction(ctx); err != nil {
			return result, r.fail(result, nil, err)
		}
	}

	for _, info := range plan {
		if err := ctx.Err(); err != nil {
			if perSession {
				r.rollback()
			}
			return result, r.fail(result, info, err)
		}

		stepStart := r.now()
		logging.Info("%s %s", stepLabel(dir), info)
		err := r.apply(ctx, dir, info, !perSession)
		elapsed := r.now().Sub(stepStart)
		r.recordStep(result.RunID, dir, info, elapsed, err)
		if err != nil {
			if perSession {
				r.rollback()
			}
			return result, r.fail(result, info, err)
		}

		result.Steps = append(result.Steps, StepResult{Version: info.Version, Description: info.Description, Duration: elapsed})
		r.report(result, progress.PhaseMigrating, len(plan), info, "")
	}

	if perSession {
		if err := r.proc.CommitTransaction(); err != nil {
			return result, r.fail(result, nil, fmt.Errorf("committing session: %w", err))
		}
	}

	result.Duration = r.now().Sub(start)
	r.complete(result, checkpoint.StatusSuccess, "")
	if r.notifier != nil {
		applied := make([]string, len(result.Steps))
		for i, s := range result.Steps {
			applied[i] = fmt.Sprintf("%d: %s", s.Version, s.Description)
		}
		if err := r.notifier.MigrationCompleted(result.RunID, string(dir), start, result.Duration, applied); err != nil {
			logging.Warn("Warning: notification failed: %v", err)
		}
	}
	r.report(result, progress.PhaseComplete, len(plan), nil, "")
	logging.Info("Run %s complete: %d migrations in %s", result.RunID, len(result.Steps), result.Duration.Round(time.Millisecond))
	return result, nil
}

// apply runs one migration and updates the version table. When ownTx is set
// the migration runs in its own transaction.
func (r *Runner) apply(ctx context.Context, dir Direction, info *Info, ownTx bool) error {
	exprs, err := r.Expressions(dir, info)
	if err != nil {
		return err
	}
	if dir == Up {
		exprs = append(exprs, r.versions.recordUp(info.Version, info.Description, r.now()))
	} else {
		exprs = append(exprs, r.versions.recordDown(info.Version))
	}

	if ownTx {
		if err := r.proc.BeginTransaction(ctx); err != nil {
			return err
		}
	}
	for _, e := range exprs {
		if err := r.proc.Process(ctx, e); err != nil {
			if ownTx {
				r.rollback()
			}
			return fmt.Errorf("migration %s: %w", info, err)
		}
	}
	if ownTx {
		if err := r.proc.CommitTransaction(); err != nil {
			return fmt.Errorf("migration %s: committing: %w", info, err)
		}
	}
	return nil
}

// Expressions builds the expressions of info in direction dir with
// conventions applied. Auto-reversing migrations go down by reversing Up.
// Nothing is returned unless every expression validates.
func (r *Runner) Expressions(dir Direction, info *Info) ([]expression.Expression, error) {
	auto := IsAutoReversing(info.Migration)
	if dir == Down && IsIrreversible(info.Migration) {
		return nil, fmt.Errorf("migration %s: no down defined: %w", info, ErrIrreversible)
	}
	bctx := builder.NewContext(r.opts.WorkingDirectory)
	if dir == Up || auto {
		info.Migration.Up(bctx)
	} else {
		info.Migration.Down(bctx)
	}
	if err := bctx.Err(); err != nil {
		return nil, fmt.Errorf("migration %s: %w", info, err)
	}

	exprs := bctx.Expressions()
	r.applyConventions(exprs)
	if dir == Down && auto {
		reversed, err := expression.ReverseAll(exprs)
		if err != nil {
			return nil, fmt.Errorf("migration %s: %w", info, err)
		}
		r.applyConventions(reversed)
		exprs = reversed
	}

	if err := expression.ValidateAll(exprs); err != nil {
		return nil, fmt.Errorf("migration %s: validation failed: %w", info, err)
	}
	return exprs, nil
}

func (r *Runner) applyConventions(exprs []expression.Expression) {
	if r.conv != nil {
		r.conv.ApplyAll(exprs)
	}
}

func (r *Runner) rollback() {
	if err := r.proc.RollbackTransaction(); err != nil {
		logging.Warn("Warning: rollback failed: %v", err)
	}
}

func (r *Runner) recordStep(runID string, dir Direction, info *Info, elapsed time.Duration, err error) {
	if r.journal == nil {
		return
	}
	step := checkpoint.Step{
		Version:     info.Version,
		Description: info.Description,
		Direction:   string(dir),
		Status:      checkpoint.StatusSuccess,
		Duration:    elapsed,
	}
	if err != nil {
		step.Status = statusFor(err)
		step.Error = err.Error()
	}
	if jerr := r.journal.RecordStep(runID, step); jerr != nil {
		logging.Warn("Warning: journal: recording step %d: %v", info.Version, jerr)
	}
}

func (r *Runner) fail(result *Result, info *Info, err error) error {
	result.Duration = r.now().Sub(result.StartedAt)
	r.complete(result, statusFor(err), err.Error())

	var version int64
	if info != nil {
		version = info.Version
	}
	if r.notifier != nil {
		if nerr := r.notifier.MigrationFailed(result.RunID, version, err, result.Duration); nerr != nil {
			logging.Warn("Warning: notification failed: %v", nerr)
		}
	}
	r.report(result, progress.PhaseFailed, 0, info, err.Error())
	logging.Error("Run %s failed: %v", result.RunID, err)
	return err
}

func (r *Runner) complete(result *Result, status, msg string) {
	if r.journal == nil {
		return
	}
	if err := r.journal.CompleteRun(result.RunID, status, msg); err != nil {
		logging.Warn("Warning: journal: completing run %s: %v", result.RunID, err)
	}
}

func (r *Runner) report(result *Result, phase string, total int, info *Info, msg string) {
	update := progress.ProgressUpdate{
		RunID:     result.RunID,
		Phase:     phase,
		Direction: string(result.Direction),
		Complete:  len(result.Steps),
		Total:     total,
		Error:     msg,
	}
	if info != nil {
		update.Version = info.Version
		update.Description = info.Description
	}
	if total > 0 {
		update.Percent()
	}
	if phase == progress.PhaseMigrating {
		r.reporter.Report(update)
	} else {
		r.reporter.ReportImmediate(update)
	}
}

func statusFor(err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return checkpoint.StatusCancelled
	}
	return checkpoint.StatusFailed
}

func verb(dir Direction) string {
	if dir == Down {
		return "revert"
	}
	return "apply"
}

func stepLabel(dir Direction) string {
	if dir == Down {
		return "Reverting"
	}
	return "Applying"
}
