// Package mysql implements processors for MySQL and MariaDB servers.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/johndauphine/mariadb-migrate/internal/expression"
	mysqlgen "github.com/johndauphine/mariadb-migrate/internal/generator/mysql"
	"github.com/johndauphine/mariadb-migrate/internal/logging"
	"github.com/johndauphine/mariadb-migrate/internal/processor"
)

// Catalog queries. Arguments are escaped before formatting; every query is
// scoped to the connection's current database.
const (
	tableExistsSQL      = "SELECT 1 FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = SCHEMA() AND TABLE_NAME = '%s'"
	columnExistsSQL     = "SELECT 1 FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_SCHEMA = SCHEMA() AND TABLE_NAME = '%s' AND COLUMN_NAME = '%s'"
	constraintExistsSQL = "SELECT 1 FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS WHERE TABLE_SCHEMA = SCHEMA() AND TABLE_NAME = '%s' AND CONSTRAINT_NAME = '%s'"
	indexExistsSQL      = "SELECT 1 FROM INFORMATION_SCHEMA.STATISTICS WHERE TABLE_SCHEMA = SCHEMA() AND TABLE_NAME = '%s' AND INDEX_NAME = '%s'"
	defaultExistsSQL    = "SELECT 1 FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_SCHEMA = SCHEMA() AND TABLE_NAME = '%s' AND COLUMN_NAME = '%s' AND COLUMN_DEFAULT = '%s'"
	databaseExistsSQL   = "SELECT 1 FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?"

	// columnDefinitionSQL rebuilds a column definition for CHANGE COLUMN.
	columnDefinitionSQL = `SELECT CONCAT(
	CAST(COLUMN_TYPE AS CHAR),
	IF(ISNULL(CHARACTER_SET_NAME), '', CONCAT(' CHARACTER SET ', CHARACTER_SET_NAME)),
	IF(ISNULL(COLLATION_NAME), '', CONCAT(' COLLATE ', COLLATION_NAME)),
	' ',
	IF(IS_NULLABLE = 'NO', 'NOT NULL ', ''),
	IF(IS_NULLABLE = 'NO' AND COLUMN_DEFAULT IS NULL, '', CONCAT('DEFAULT ', QUOTE(COLUMN_DEFAULT), ' ')),
	UPPER(EXTRA))
FROM INFORMATION_SCHEMA.COLUMNS
WHERE TABLE_SCHEMA = SCHEMA() AND TABLE_NAME = '%s' AND COLUMN_NAME = '%s'`
)

// ErrColumnNotFound is returned when a column to rename does not exist.
var ErrColumnNotFound = errors.New("column not found")

// Opener opens a database connection from a DSN.
type Opener func(dsn string) (*sql.DB, error)

// Processor runs migrations against MySQL 4, 5 or 8.
type Processor struct {
	*processor.Base
	gen    *mysqlgen.Generator
	dsn    string
	open   Opener
	exists func(ctx context.Context, template string, args ...any) (bool, error)
}

// Option configures a processor.
type Option func(*Processor)

// WithServerOpener replaces the function used to open the server-level
// connection for database create and drop.
func WithServerOpener(open Opener) Option {
	return func(p *Processor) { p.open = open }
}

// New returns a MySQL processor over db. dsn is only used for database-level
// operations.
func New(db *sql.DB, dsn string, gen *mysqlgen.Generator, opts processor.Options, options ...Option) *Processor {
	p := &Processor{
		Base: processor.NewBase(db, gen, opts),
		gen:  gen,
		dsn:  dsn,
		open: Open,
	}
	p.exists = p.rowExists
	for _, o := range options {
		o(p)
	}
	return p
}

// DatabaseType returns the server flavour name.
func (p *Processor) DatabaseType() string { return p.gen.Version.String() }

// DatabaseTypeAliases returns alternate names for the processor.
func (p *Processor) DatabaseTypeAliases() []string {
	if p.gen.Version == mysqlgen.MySQL5 {
		return []string{"MySQL"}
	}
	return []string{}
}

// Process generates and runs e. On servers without RENAME COLUMN the column
// definition is read from the catalog and the rename is issued as CHANGE
// COLUMN.
func (p *Processor) Process(ctx context.Context, e expression.Expression) error {
	if rc, ok := e.(*expression.RenameColumn); ok && !p.gen.SupportsRenameColumn() {
		return p.changeColumn(ctx, rc)
	}
	return p.Base.Process(ctx, e)
}

func (p *Processor) changeColumn(ctx context.Context, e *expression.RenameColumn) error {
	definition, err := p.columnDefinition(ctx, e)
	if errors.Is(err, ErrColumnNotFound) && p.Options().PreviewOnly {
		logging.Warn("preview: cannot read definition of %s.%s, rename not shown", e.TableName, e.OldName)
		return nil
	}
	if err != nil {
		return err
	}
	return p.Execute(ctx, p.gen.ChangeColumn(e, definition))
}

// Render returns the statement Process would run for e. A rename on a
// server without RENAME COLUMN reads the column definition from the catalog;
// when the column does not exist yet the rename renders as nothing.
func (p *Processor) Render(ctx context.Context, e expression.Expression) (string, error) {
	rc, ok := e.(*expression.RenameColumn)
	if !ok || p.gen.SupportsRenameColumn() {
		return p.Base.Render(ctx, e)
	}
	definition, err := p.columnDefinition(ctx, rc)
	if errors.Is(err, ErrColumnNotFound) {
		logging.Warn("preview: cannot read definition of %s.%s, rename not shown", rc.TableName, rc.OldName)
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return p.gen.ChangeColumn(rc, definition), nil
}

func (p *Processor) columnDefinition(ctx context.Context, e *expression.RenameColumn) (string, error) {
	q := p.gen.Quoter
	query := fmt.Sprintf(columnDefinitionSQL, q.EscapeString(e.TableName), q.EscapeString(e.OldName))

	ctx, cancel := p.WithTimeout(ctx)
	defer cancel()

	var definition string
	err := p.Conn().QueryRowContext(ctx, query).Scan(&definition)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("renaming %s.%s: %w", e.TableName, e.OldName, ErrColumnNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("reading definition of %s.%s: %w", e.TableName, e.OldName, err)
	}
	return definition, nil
}

// Exists runs the formatted query and reports whether it returned a row.
func (p *Processor) Exists(ctx context.Context, template string, args ...any) (bool, error) {
	return p.exists(ctx, template, args...)
}

func (p *Processor) rowExists(ctx context.Context, template string, args ...any) (bool, error) {
	ctx, cancel := p.WithTimeout(ctx)
	defer cancel()

	rows, err := p.Conn().QueryContext(ctx, fmt.Sprintf(template, args...))
	if err != nil {
		return false, err
	}
	defer rows.Close()
	found := rows.Next()
	return found, rows.Err()
}

func (p *Processor) escape(s string) string {
	return p.gen.Quoter.EscapeString(s)
}

// SchemaExists is always true: MySQL schemas are databases and migrations
// run inside the connection's database.
func (p *Processor) SchemaExists(ctx context.Context, schema string) (bool, error) {
	return true, nil
}

func (p *Processor) TableExists(ctx context.Context, schema, table string) (bool, error) {
	return p.exists(ctx, tableExistsSQL, p.escape(table))
}

func (p *Processor) ColumnExists(ctx context.Context, schema, table, column string) (bool, error) {
	return p.exists(ctx, columnExistsSQL, p.escape(table), p.escape(column))
}

func (p *Processor) ConstraintExists(ctx context.Context, schema, table, constraint string) (bool, error) {
	return p.exists(ctx, constraintExistsSQL, p.escape(table), p.escape(constraint))
}

func (p *Processor) IndexExists(ctx context.Context, schema, table, index string) (bool, error) {
	return p.exists(ctx, indexExistsSQL, p.escape(table), p.escape(index))
}

// SequenceExists is always false; MySQL has no sequences.
func (p *Processor) SequenceExists(ctx context.Context, schema, sequence string) (bool, error) {
	return false, nil
}

func (p *Processor) DefaultValueExists(ctx context.Context, schema, table, column string, value any) (bool, error) {
	return p.exists(ctx, defaultExistsSQL, p.escape(table), p.escape(column), p.escape(fmt.Sprint(value)))
}

// ReadTableData returns every row of the table.
func (p *Processor) ReadTableData(ctx context.Context, schema, table string) (*processor.TableData, error) {
	return p.Read(ctx, "SELECT * FROM "+p.gen.Quoter.QuoteTableName(table, schema))
}

// withServer runs fn over a connection without a default database.
func (p *Processor) withServer(ctx context.Context, fn func(db *sql.DB, database string) error) error {
	server, database, err := ServerDSN(p.dsn)
	if err != nil {
		return err
	}
	if database == "" {
		return fmt.Errorf("dsn %q names no database", p.dsn)
	}
	db, err := p.open(server)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db, database)
}

// DatabaseExists reports whether the DSN's database exists on the server.
func (p *Processor) DatabaseExists(ctx context.Context) (bool, error) {
	var found bool
	err := p.withServer(ctx, func(db *sql.DB, database string) error {
		ctx, cancel := p.WithTimeout(ctx)
		defer cancel()

		var one int
		err := db.QueryRowContext(ctx, databaseExistsSQL, database).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		found = err == nil
		return err
	})
	return found, err
}

// CreateDatabaseIfNotExists creates the DSN's database.
func (p *Processor) CreateDatabaseIfNotExists(ctx context.Context) error {
	return p.serverStatement(ctx, "CREATE DATABASE IF NOT EXISTS %s")
}

// DropDatabaseIfExists drops the DSN's database.
func (p *Processor) DropDatabaseIfExists(ctx context.Context) error {
	return p.serverStatement(ctx, "DROP DATABASE IF EXISTS %s")
}

func (p *Processor) serverStatement(ctx context.Context, template string) error {
	return p.withServer(ctx, func(db *sql.DB, database string) error {
		stmt := fmt.Sprintf(template, p.gen.Quoter.QuoteSchemaName(database))
		logging.LogSQL(stmt)
		if p.Options().PreviewOnly {
			return nil
		}
		ctx, cancel := p.WithTimeout(ctx)
		defer cancel()
		_, err := db.ExecContext(ctx, stmt)
		return err
	})
}

var (
	_ processor.Processor = (*Processor)(nil)
	_ processor.Renderer  = (*Processor)(nil)
)
