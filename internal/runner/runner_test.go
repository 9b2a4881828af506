package runner

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/johndauphine/mariadb-migrate/internal/builder"
	"github.com/johndauphine/mariadb-migrate/internal/checkpoint"
	"github.com/johndauphine/mariadb-migrate/internal/conventions"
	"github.com/johndauphine/mariadb-migrate/internal/expression"
	"github.com/johndauphine/mariadb-migrate/internal/generator"
	mysqlgen "github.com/johndauphine/mariadb-migrate/internal/generator/mysql"
	"github.com/johndauphine/mariadb-migrate/internal/processor"
	"github.com/johndauphine/mariadb-migrate/internal/progress"
)

// fakeProcessor keeps an in-memory version table and records the SQL it
// would have run. Methods the runner does not use are left to the embedded
// nil interface.
type fakeProcessor struct {
	processor.Processor
	gen generator.Generator

	versionTable bool
	rows         [][]any
	statements   []string
	failOn       string

	begins, commits, rollbacks int
	pingErr                    error
}

func newFakeProcessor() *fakeProcessor {
	return &fakeProcessor{gen: mysqlgen.NewMariaDBGenerator()}
}

func (f *fakeProcessor) DatabaseType() string { return "MariaDB" }

func (f *fakeProcessor) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeProcessor) TableExists(ctx context.Context, schema, table string) (bool, error) {
	return f.versionTable, nil
}

func (f *fakeProcessor) ReadTableData(ctx context.Context, schema, table string) (*processor.TableData, error) {
	return &processor.TableData{
		Columns: []string{versionColumn, appliedOnColumn, descriptionColumn},
		Rows:    f.rows,
	}, nil
}

func (f *fakeProcessor) Process(ctx context.Context, e expression.Expression) error {
	stmt, err := f.gen.Generate(e)
	if err != nil {
		return err
	}
	if f.failOn != "" && strings.Contains(stmt, f.failOn) {
		return errors.New("executing SQL: simulated failure")
	}
	f.statements = append(f.statements, stmt)

	switch ex := e.(type) {
	case *expression.CreateTable:
		if ex.TableName == DefaultVersionTable {
			f.versionTable = true
		}
	case *expression.InsertData:
		if ex.TableName == DefaultVersionTable {
			row := ex.Rows[0]
			f.rows = append(f.rows, []any{row[0].Value, row[1].Value, row[2].Value})
		}
	case *expression.DeleteData:
		if ex.TableName == DefaultVersionTable {
			version := ex.Rows[0][0].Value.(int64)
			kept := f.rows[:0]
			for _, r := range f.rows {
				if r[0].(int64) != version {
					kept = append(kept, r)
				}
			}
			f.rows = kept
		}
	}
	return nil
}

func (f *fakeProcessor) BeginTransaction(ctx context.Context) error { f.begins++; return nil }
func (f *fakeProcessor) CommitTransaction() error                   { f.commits++; return nil }
func (f *fakeProcessor) RollbackTransaction() error                 { f.rollbacks++; return nil }

func (f *fakeProcessor) applied() []int64 {
	var out []int64
	for _, r := range f.rows {
		out = append(out, r[0].(int64))
	}
	return out
}

type fakeNotifier struct {
	started, completed, failed int
	failedVersion              int64
}

func (n *fakeNotifier) MigrationStarted(runID, direction, database string, pending int) error {
	n.started++
	return nil
}

func (n *fakeNotifier) MigrationCompleted(runID, direction string, start time.Time, d time.Duration, applied []string) error {
	n.completed++
	return nil
}

func (n *fakeNotifier) MigrationFailed(runID string, version int64, err error, d time.Duration) error {
	n.failed++
	n.failedVersion = version
	return nil
}

type recordingReporter struct {
	updates []progress.ProgressUpdate
}

func (r *recordingReporter) Report(u progress.ProgressUpdate)          { r.updates = append(r.updates, u) }
func (r *recordingReporter) ReportImmediate(u progress.ProgressUpdate) { r.updates = append(r.updates, u) }
func (r *recordingReporter) Close()                                    {}

func createUsers(ctx *builder.Context) {
	ctx.Create().Table("Users").
		WithColumn("Id").AsInt32().PrimaryKey().Identity().
		WithColumn("Name").AsString(100).NotNullable()
}

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry()
	reg.MustRegister(1, "create users", Reversible{UpFunc: createUsers})
	reg.MustRegister(2, "add email", Funcs{
		UpFunc: func(ctx *builder.Context) {
			ctx.Alter().Table("Users").AddColumn("Email").AsString(255).Nullable()
		},
		DownFunc: func(ctx *builder.Context) {
			ctx.Delete().Column("Email").FromTable("Users")
		},
	})
	reg.MustRegister(3, "seed admin", Reversible{UpFunc: func(ctx *builder.Context) {
		ctx.Insert().IntoTable("Users").OrderedRow(expression.Row{
			{Column: "Name", Value: "admin"},
		})
	}}, "seed")
	return reg
}

func newTestRunner(t *testing.T, proc processor.Processor, reg *Registry, opts Options, options ...Option) *Runner {
	t.Helper()
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	options = append([]Option{WithClock(func() time.Time { return clock })}, options...)
	return New(proc, mysqlgen.NewMariaDBGenerator(), conventions.NewMySQLSet("", t.TempDir()), reg, opts, options...)
}

func TestMigrateUpCreatesVersionTable(t *testing.T) {
	proc := newFakeProcessor()
	r := newTestRunner(t, proc, testRegistry(t), Options{})

	result, err := r.MigrateUp(context.Background())
	if err != nil {
		t.Fatalf("MigrateUp: %v", err)
	}
	if len(result.Steps) != 3 {
		t.Fatalf("steps = %d, want 3", len(result.Steps))
	}
	if got := proc.applied(); len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Errorf("applied = %v, want [1 2 3]", got)
	}
	if !strings.HasPrefix(proc.statements[0], "CREATE TABLE `VersionInfo`") {
		t.Errorf("first statement = %q", proc.statements[0])
	}
	if !strings.Contains(proc.statements[1], "CREATE UNIQUE INDEX `UC_Version`") {
		t.Errorf("second statement = %q", proc.statements[1])
	}
	if proc.begins != 3 || proc.commits != 3 {
		t.Errorf("transactions begin=%d commit=%d, want 3/3", proc.begins, proc.commits)
	}
}

func TestMigrateUpSkipsApplied(t *testing.T) {
	proc := newFakeProcessor()
	proc.versionTable = true
	proc.rows = [][]any{{int64(1), "2024-01-01 00:00:00", "create users"}}
	r := newTestRunner(t, proc, testRegistry(t), Options{})

	result, err := r.MigrateUpTo(context.Background(), 2)
	if err != nil {
		t.Fatalf("MigrateUpTo: %v", err)
	}
	if len(result.Steps) != 1 || result.Steps[0].Version != 2 {
		t.Fatalf("steps = %+v, want only version 2", result.Steps)
	}
	for _, s := range proc.statements {
		if strings.Contains(s, "CREATE TABLE `VersionInfo`") {
			t.Error("version table recreated")
		}
	}
}

func TestMigrateUpTagFilter(t *testing.T) {
	proc := newFakeProcessor()
	r := newTestRunner(t, proc, testRegistry(t), Options{Tags: []string{"prod"}})

	result, err := r.MigrateUp(context.Background())
	if err != nil {
		t.Fatalf("MigrateUp: %v", err)
	}
	// Untagged migrations always run; "seed" does not carry "prod".
	if len(result.Steps) != 2 {
		t.Fatalf("steps = %+v, want versions 1 and 2", result.Steps)
	}
}

func TestMigrateDownReversesAutoReversing(t *testing.T) {
	proc := newFakeProcessor()
	r := newTestRunner(t, proc, testRegistry(t), Options{})
	ctx := context.Background()

	if _, err := r.MigrateUp(ctx); err != nil {
		t.Fatalf("MigrateUp: %v", err)
	}
	proc.statements = nil

	result, err := r.MigrateDown(ctx, 0)
	if err != nil {
		t.Fatalf("MigrateDown: %v", err)
	}
	if len(result.Steps) != 3 || result.Steps[0].Version != 3 || result.Steps[2].Version != 1 {
		t.Fatalf("steps = %+v, want 3,2,1", result.Steps)
	}
	if len(proc.applied()) != 0 {
		t.Errorf("applied after down = %v", proc.applied())
	}

	joined := strings.Join(proc.statements, "\n")
	for _, want := range []string{
		"DELETE FROM `Users` WHERE `Name` = 'admin'",
		"ALTER TABLE `Users` DROP COLUMN `Email`",
		"DROP TABLE `Users`",
		"DELETE FROM `VersionInfo` WHERE `Version` = 1",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing %q in:\n%s", want, joined)
		}
	}
}

func TestRollbackSteps(t *testing.T) {
	proc := newFakeProcessor()
	r := newTestRunner(t, proc, testRegistry(t), Options{})
	ctx := context.Background()

	if _, err := r.MigrateUp(ctx); err != nil {
		t.Fatalf("MigrateUp: %v", err)
	}
	result, err := r.Rollback(ctx, 2)
	if err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if len(result.Steps) != 2 {
		t.Fatalf("steps = %d, want 2", len(result.Steps))
	}
	if got := proc.applied(); len(got) != 1 || got[0] != 1 {
		t.Errorf("applied = %v, want [1]", got)
	}

	if _, err := r.Rollback(ctx, 0); err == nil {
		t.Error("expected error for zero steps")
	}
}

func TestMigrateDownUnknownVersion(t *testing.T) {
	proc := newFakeProcessor()
	proc.versionTable = true
	proc.rows = [][]any{{int64(99), nil, "gone"}}
	r := newTestRunner(t, proc, testRegistry(t), Options{})

	_, err := r.MigrateDown(context.Background(), 0)
	if !errors.Is(err, ErrMigrationNotFound) {
		t.Fatalf("err = %v, want ErrMigrationNotFound", err)
	}
}

func TestIrreversibleDown(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(1, "raw sql", Reversible{UpFunc: func(ctx *builder.Context) {
		ctx.Execute().SQL("UPDATE Users SET Name = 'x'")
	}})
	proc := newFakeProcessor()
	proc.versionTable = true
	proc.rows = [][]any{{int64(1), nil, "raw sql"}}
	r := newTestRunner(t, proc, reg, Options{})

	_, err := r.MigrateDown(context.Background(), 0)
	if !errors.Is(err, expression.ErrIrreversible) {
		t.Fatalf("err = %v, want ErrIrreversible", err)
	}
	if len(proc.statements) != 0 {
		t.Errorf("statements ran: %v", proc.statements)
	}
}

func TestValidationFailsBeforeSQL(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(1, "bad", Reversible{UpFunc: func(ctx *builder.Context) {
		ctx.Create().Table("")
	}})
	proc := newFakeProcessor()
	proc.versionTable = true
	r := newTestRunner(t, proc, reg, Options{})

	_, err := r.MigrateUp(context.Background())
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Fatalf("err = %v, want validation failure", err)
	}
	if len(proc.statements) != 0 {
		t.Errorf("statements ran: %v", proc.statements)
	}
	if proc.begins != 0 {
		t.Errorf("transaction opened for invalid migration")
	}
}

func TestFailureRecordsJournalAndNotifies(t *testing.T) {
	proc := newFakeProcessor()
	proc.failOn = "`Email`"
	journal, err := checkpoint.NewFileState(filepath.Join(t.TempDir(), "state.yaml"))
	if err != nil {
		t.Fatalf("NewFileState: %v", err)
	}
	notifier := &fakeNotifier{}
	reporter := &recordingReporter{}
	r := newTestRunner(t, proc, testRegistry(t), Options{Database: "inventory"},
		WithJournal(journal), WithNotifier(notifier), WithReporter(reporter))

	result, err := r.MigrateUp(context.Background())
	if err == nil {
		t.Fatal("expected failure")
	}
	if len(result.Steps) != 1 {
		t.Errorf("steps = %d, want 1 before failure", len(result.Steps))
	}
	if proc.rollbacks != 1 {
		t.Errorf("rollbacks = %d, want 1", proc.rollbacks)
	}
	if got := proc.applied(); len(got) != 1 {
		t.Errorf("applied = %v, want [1]", got)
	}

	run, err := journal.GetRunByID(result.RunID)
	if err != nil || run == nil {
		t.Fatalf("GetRunByID: %v %v", run, err)
	}
	if run.Status != checkpoint.StatusFailed || run.Database != "inventory" {
		t.Errorf("run = %+v", run)
	}
	steps, _ := journal.GetSteps(result.RunID)
	if len(steps) != 2 || steps[1].Status != checkpoint.StatusFailed || steps[1].Version != 2 {
		t.Errorf("steps = %+v", steps)
	}

	if notifier.started != 1 || notifier.failed != 1 || notifier.completed != 0 || notifier.failedVersion != 2 {
		t.Errorf("notifier = %+v", notifier)
	}
	last := reporter.updates[len(reporter.updates)-1]
	if last.Phase != progress.PhaseFailed || last.Version != 2 {
		t.Errorf("last update = %+v", last)
	}
}

func TestPerSessionTransaction(t *testing.T) {
	proc := newFakeProcessor()
	proc.failOn = "'admin'"
	r := newTestRunner(t, proc, testRegistry(t), Options{TransactionMode: TransactionPerSession})

	if _, err := r.MigrateUp(context.Background()); err == nil {
		t.Fatal("expected failure")
	}
	if proc.begins != 1 || proc.rollbacks != 1 || proc.commits != 0 {
		t.Errorf("begin=%d rollback=%d commit=%d, want 1/1/0", proc.begins, proc.rollbacks, proc.commits)
	}
}

func TestCancelledRun(t *testing.T) {
	proc := newFakeProcessor()
	journal, err := checkpoint.NewFileState(filepath.Join(t.TempDir(), "state.yaml"))
	if err != nil {
		t.Fatalf("NewFileState: %v", err)
	}
	r := newTestRunner(t, proc, testRegistry(t), Options{}, WithJournal(journal))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := r.MigrateUp(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	run, _ := journal.GetRunByID(result.RunID)
	if run == nil || run.Status != checkpoint.StatusCancelled {
		t.Errorf("run = %+v, want cancelled", run)
	}
}

func TestNothingToApply(t *testing.T) {
	proc := newFakeProcessor()
	r := newTestRunner(t, proc, NewRegistry(), Options{})

	result, err := r.MigrateUp(context.Background())
	if err != nil {
		t.Fatalf("MigrateUp: %v", err)
	}
	if len(result.Steps) != 0 || proc.begins != 0 {
		t.Errorf("unexpected work: %+v begins=%d", result, proc.begins)
	}
}

func TestStrictVersionOrder(t *testing.T) {
	proc := newFakeProcessor()
	proc.versionTable = true
	proc.rows = [][]any{{int64(2), nil, "add email"}}
	r := newTestRunner(t, proc, testRegistry(t), Options{StrictVersionOrder: true})

	_, err := r.MigrateUp(context.Background())
	if !errors.Is(err, ErrOutOfOrder) {
		t.Fatalf("err = %v, want ErrOutOfOrder", err)
	}
	if !strings.Contains(err.Error(), "1: create users") {
		t.Errorf("error does not name the pending migration: %v", err)
	}
}

func TestRegistryDuplicate(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(1, "a", Reversible{UpFunc: createUsers}); err != nil {
		t.Fatal(err)
	}
	err := reg.Register(1, "b", Reversible{UpFunc: createUsers})
	if !errors.Is(err, ErrDuplicateVersion) {
		t.Fatalf("err = %v, want ErrDuplicateVersion", err)
	}
	if err := reg.Register(2, "nil", nil); err == nil {
		t.Error("expected error for nil migration")
	}
}

func TestHasTags(t *testing.T) {
	tests := []struct {
		tags   []string
		filter []string
		want   bool
	}{
		{nil, []string{"prod"}, true},
		{[]string{"prod"}, nil, true},
		{[]string{"prod", "eu"}, []string{"prod"}, true},
		{[]string{"prod"}, []string{"prod", "eu"}, false},
		{[]string{"dev"}, []string{"prod"}, false},
	}
	for _, tt := range tests {
		info := &Info{Version: 1, Tags: tt.tags}
		if got := info.HasTags(tt.filter); got != tt.want {
			t.Errorf("HasTags(%v) with tags %v = %v, want %v", tt.filter, tt.tags, got, tt.want)
		}
	}
}

func TestSQLRendersOneMigration(t *testing.T) {
	r := newTestRunner(t, newFakeProcessor(), testRegistry(t), Options{})

	stmts, err := r.SQL(context.Background(), Down, 2)
	if err != nil {
		t.Fatalf("SQL: %v", err)
	}
	if len(stmts) != 1 || stmts[0] != "ALTER TABLE `Users` DROP COLUMN `Email`" {
		t.Errorf("stmts = %q", stmts)
	}

	if _, err := r.SQL(context.Background(), Up, 42); !errors.Is(err, ErrMigrationNotFound) {
		t.Errorf("err = %v, want ErrMigrationNotFound", err)
	}
}

func TestFuncsWithoutDownIsIrreversible(t *testing.T) {
	reg := testRegistry(t)
	reg.MustRegister(4, "drop legacy", Funcs{UpFunc: func(ctx *builder.Context) {
		ctx.Delete().Table("Legacy")
	}})
	proc := newFakeProcessor()
	proc.versionTable = true
	proc.rows = [][]any{{int64(1), nil, "create users"}, {int64(2), nil, "add email"}, {int64(4), nil, "drop legacy"}}
	r := newTestRunner(t, proc, reg, Options{})

	if !IsIrreversible(Funcs{}) || IsIrreversible(Reversible{}) {
		t.Fatal("IsIrreversible misclassifies Funcs or Reversible")
	}

	_, err := r.Rollback(context.Background(), 2)
	if !errors.Is(err, ErrIrreversible) {
		t.Fatalf("err = %v, want ErrIrreversible", err)
	}
	if len(proc.statements) != 0 {
		t.Errorf("statements ran: %v", proc.statements)
	}
	if got := proc.applied(); len(got) != 3 {
		t.Errorf("applied = %v, want the version table untouched", got)
	}

	if _, err := r.SQL(context.Background(), Down, 4); !errors.Is(err, ErrIrreversible) {
		t.Errorf("SQL err = %v, want ErrIrreversible", err)
	}
}

func TestPreviewRunIsNotJournaled(t *testing.T) {
	proc := newFakeProcessor()
	journal, err := checkpoint.NewFileState(filepath.Join(t.TempDir(), "state.yaml"))
	if err != nil {
		t.Fatalf("NewFileState: %v", err)
	}
	notifier := &fakeNotifier{}
	r := newTestRunner(t, proc, testRegistry(t), Options{Preview: true},
		WithJournal(journal), WithNotifier(notifier))

	if _, err := r.MigrateUp(context.Background()); err != nil {
		t.Fatalf("MigrateUp: %v", err)
	}
	runs, err := journal.GetAllRuns()
	if err != nil {
		t.Fatalf("GetAllRuns: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("runs = %+v, want none for a preview", runs)
	}
	if notifier.started != 0 || notifier.completed != 0 {
		t.Errorf("notifier = %+v, want no notifications", notifier)
	}
}
