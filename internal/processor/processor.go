// Package processor executes generated SQL against a live database and
// answers catalog questions (does this table, column or index exist).
package processor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/johndauphine/mariadb-migrate/internal/expression"
	"github.com/johndauphine/mariadb-migrate/internal/generator"
	"github.com/johndauphine/mariadb-migrate/internal/logging"
)

// ErrTransactionActive is returned by BeginTransaction when a transaction is
// already open.
var ErrTransactionActive = errors.New("transaction already active")

// Options controls how statements are executed.
type Options struct {
	// PreviewOnly logs statements without running them.
	PreviewOnly bool
	// Timeout bounds each statement. Zero means no limit.
	Timeout time.Duration
}

// Processor runs migrations against one database.
type Processor interface {
	DatabaseType() string
	DatabaseTypeAliases() []string

	// Process generates the SQL for e and executes it.
	Process(ctx context.Context, e expression.Expression) error
	Execute(ctx context.Context, stmt string) error
	Read(ctx context.Context, query string, args ...any) (*TableData, error)
	Exists(ctx context.Context, template string, args ...any) (bool, error)

	SchemaExists(ctx context.Context, schema string) (bool, error)
	TableExists(ctx context.Context, schema, table string) (bool, error)
	ColumnExists(ctx context.Context, schema, table, column string) (bool, error)
	ConstraintExists(ctx context.Context, schema, table, constraint string) (bool, error)
	IndexExists(ctx context.Context, schema, table, index string) (bool, error)
	SequenceExists(ctx context.Context, schema, sequence string) (bool, error)
	DefaultValueExists(ctx context.Context, schema, table, column string, value any) (bool, error)
	ReadTableData(ctx context.Context, schema, table string) (*TableData, error)

	BeginTransaction(ctx context.Context) error
	CommitTransaction() error
	RollbackTransaction() error

	DatabaseExists(ctx context.Context) (bool, error)
	CreateDatabaseIfNotExists(ctx context.Context) error
	DropDatabaseIfExists(ctx context.Context) error

	Ping(ctx context.Context) error
	Close() error
}

// Renderer is implemented by processors whose SQL for some expressions
// depends on the live schema. Render returns what Process would execute
// without executing it.
type Renderer interface {
	Render(ctx context.Context, e expression.Expression) (string, error)
}

// TableData is the materialized result of a query.
type TableData struct {
	Columns []string
	Rows    [][]any
}

// Len returns the number of rows.
func (d *TableData) Len() int { return len(d.Rows) }

// Value returns the value of column in row i, or nil if the column is unknown.
func (d *TableData) Value(i int, column string) any {
	for j, c := range d.Columns {
		if c == column {
			return d.Rows[i][j]
		}
	}
	return nil
}

// Queryer is satisfied by both *sql.DB and *sql.Tx.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Base holds the connection and transaction handling shared by dialect
// processors. Dialects embed it and add their catalog queries.
type Base struct {
	db        *sql.DB
	tx        *sql.Tx
	generator generator.Generator
	options   Options
}

// NewBase wraps an open database handle.
func NewBase(db *sql.DB, gen generator.Generator, opts Options) *Base {
	return &Base{db: db, generator: gen, options: opts}
}

// DB returns the underlying handle.
func (b *Base) DB() *sql.DB { return b.db }

// Generator returns the SQL generator used by Process.
func (b *Base) Generator() generator.Generator { return b.generator }

// Options returns the execution options.
func (b *Base) Options() Options { return b.options }

// Conn returns the open transaction, or the database when there is none.
func (b *Base) Conn() Queryer {
	if b.tx != nil {
		return b.tx
	}
	return b.db
}

// WithTimeout applies the statement timeout to ctx.
func (b *Base) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.options.Timeout > 0 {
		return context.WithTimeout(ctx, b.options.Timeout)
	}
	return context.WithCancel(ctx)
}

// Render generates the SQL for e.
func (b *Base) Render(ctx context.Context, e expression.Expression) (string, error) {
	stmt, err := b.generator.Generate(e)
	if err != nil {
		return "", fmt.Errorf("generating %s: %w", e, err)
	}
	return stmt, nil
}

// Process generates and executes e.
func (b *Base) Process(ctx context.Context, e expression.Expression) error {
	stmt, err := b.Render(ctx, e)
	if err != nil {
		return err
	}
	if stmt == "" {
		logging.Debug("%s produced no SQL", e)
		return nil
	}
	return b.Execute(ctx, stmt)
}

// Execute logs stmt and runs it unless the processor is in preview mode.
func (b *Base) Execute(ctx context.Context, stmt string) error {
	logging.LogSQL(stmt)
	if b.options.PreviewOnly || stmt == "" {
		return nil
	}
	ctx, cancel := b.WithTimeout(ctx)
	defer cancel()
	if _, err := b.Conn().ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("executing SQL: %w", err)
	}
	return nil
}

// Read runs query and materializes every row. []byte values are returned
// as strings.
func (b *Base) Read(ctx context.Context, query string, args ...any) (*TableData, error) {
	ctx, cancel := b.WithTimeout(ctx)
	defer cancel()

	rows, err := b.Conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	data := &TableData{Columns: cols}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		for i, v := range vals {
			if bs, ok := v.([]byte); ok {
				vals[i] = string(bs)
			}
		}
		data.Rows = append(data.Rows, vals)
	}
	return data, rows.Err()
}

// BeginTransaction opens a transaction used by subsequent statements. In
// preview mode no transaction is opened.
func (b *Base) BeginTransaction(ctx context.Context) error {
	if b.options.PreviewOnly {
		return nil
	}
	if b.tx != nil {
		return ErrTransactionActive
	}
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	logging.Debug("transaction started")
	b.tx = tx
	return nil
}

// CommitTransaction commits the open transaction, if any.
func (b *Base) CommitTransaction() error {
	if b.tx == nil {
		return nil
	}
	tx := b.tx
	b.tx = nil
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	logging.Debug("transaction committed")
	return nil
}

// RollbackTransaction rolls back the open transaction, if any.
func (b *Base) RollbackTransaction() error {
	if b.tx == nil {
		return nil
	}
	tx := b.tx
	b.tx = nil
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rolling back transaction: %w", err)
	}
	logging.Debug("transaction rolled back")
	return nil
}

// Ping checks the connection.
func (b *Base) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

// Close rolls back any open transaction and closes the database.
func (b *Base) Close() error {
	if err := b.RollbackTransaction(); err != nil {
		logging.Warn("closing processor: %v", err)
	}
	return b.db.Close()
}
