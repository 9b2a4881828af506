// Package mysql holds the MySQL and MariaDB SQL generators. Each server
// version extends the previous one: MySQL 4, MySQL 5, MySQL 8, then MariaDB.
package mysql

import (
	"fmt"
	"strings"

	"github.com/johndauphine/mariadb-migrate/internal/expression"
	"github.com/johndauphine/mariadb-migrate/internal/generator"
)

// Version identifies a server flavour.
type Version int

const (
	MySQL4 Version = iota
	MySQL5
	MySQL8
	MariaDB
)

func (v Version) String() string {
	switch v {
	case MySQL4:
		return "MySQL4"
	case MySQL5:
		return "MySQL5"
	case MySQL8:
		return "MySQL8"
	case MariaDB:
		return "MariaDB"
	}
	return fmt.Sprintf("Version(%d)", int(v))
}

// Messages passed to the compatibility mode.
const (
	msgSequences    = "Sequences is not supporteed for MySql"
	msgSchemas      = "Schemas are not supported"
	msgRenameColumn = "renaming a column requires its definition; use a processor to rename columns on this server"
)

// Generator produces MySQL-family SQL. Statements the server spells like the
// generic dialect fall through to the embedded Generic generator.
type Generator struct {
	*generator.Generic
	Version Version
}

// Option configures a Generator.
type Option func(*Generator)

// WithCompatibility sets how unsupported operations are handled.
func WithCompatibility(mode generator.CompatibilityMode) Option {
	return func(g *Generator) { g.Compatibility = mode }
}

func newGenerator(v Version, column generator.ColumnFormatter, quoter *generator.Quoter, opts []Option) *Generator {
	g := &Generator{
		Generic: generator.NewGeneric(column, quoter, generator.Loose),
		Version: v,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewMySQL4Generator returns a generator for MySQL 4.
func NewMySQL4Generator(opts ...Option) *Generator {
	q := NewQuoter()
	return newGenerator(MySQL4, NewColumn(NewMySQL4TypeMap(), q), q, opts)
}

// NewMySQL5Generator returns a generator for MySQL 5.
func NewMySQL5Generator(opts ...Option) *Generator {
	q := NewQuoter()
	return newGenerator(MySQL5, NewColumn(NewMySQL5TypeMap(), q), q, opts)
}

// NewMySQL8Generator returns a generator for MySQL 8.
func NewMySQL8Generator(opts ...Option) *Generator {
	q := NewQuoter()
	return newGenerator(MySQL8, NewMySQL8Column(NewMySQL8TypeMap(), q), q, opts)
}

// NewMariaDBGenerator returns a generator for MariaDB.
func NewMariaDBGenerator(opts ...Option) *Generator {
	q := NewMariaDBQuoter()
	return newGenerator(MariaDB, NewMariaDBColumn(NewMariaDBTypeMap(), q), q, opts)
}

// SupportsSequences reports whether the server has CREATE SEQUENCE.
func (g *Generator) SupportsSequences() bool { return g.Version == MariaDB }

// SupportsRenameColumn reports whether the server has RENAME COLUMN.
func (g *Generator) SupportsRenameColumn() bool { return g.Version >= MySQL8 }

// Generate dispatches on the expression type.
func (g *Generator) Generate(e expression.Expression) (string, error) {
	switch ex := e.(type) {
	case *expression.CreateSchema, *expression.DeleteSchema:
		return g.Compatibility.Handle(msgSchemas)
	case *expression.CreateTable:
		return g.CreateTable(ex)
	case *expression.AlterTable:
		return g.AlterTable(ex)
	case *expression.RenameTable:
		return g.RenameTable(ex)
	case *expression.AlterColumn:
		return g.AlterColumn(ex)
	case *expression.DeleteColumn:
		return g.DeleteColumn(ex)
	case *expression.RenameColumn:
		if !g.SupportsRenameColumn() {
			return g.Compatibility.Handle(msgRenameColumn)
		}
		return g.Generic.RenameColumn(ex)
	case *expression.DeleteIndex:
		return g.DeleteIndex(ex)
	case *expression.DeleteForeignKey:
		return g.DeleteForeignKey(ex)
	case *expression.DeleteConstraint:
		return g.DeleteConstraint(ex)
	case *expression.AlterDefaultConstraint:
		return g.AlterDefaultConstraint(ex)
	case *expression.CreateSequence:
		if !g.SupportsSequences() {
			return g.Compatibility.Handle(msgSequences)
		}
		return g.Generic.CreateSequence(ex)
	case *expression.DeleteSequence:
		if !g.SupportsSequences() {
			return g.Compatibility.Handle(msgSequences)
		}
		return g.Generic.DeleteSequence(ex)
	}
	return g.Generic.Generate(e)
}

func (g *Generator) comment(description string) string {
	q := g.Quoter
	return " COMMENT " + q.ValueQuote + q.EscapeString(description) + q.ValueQuote
}

// CreateTable renders CREATE TABLE ... ENGINE = INNODB.
func (g *Generator) CreateTable(e *expression.CreateTable) (string, error) {
	if e.TableName == "" {
		return "", expression.ErrTableNameMissing
	}
	if len(e.Columns) == 0 {
		return "", expression.ErrColumnsMissing
	}
	if err := g.Compatibility.ValidateFeatures(e.Columns, g.SupportedFeatures); err != nil {
		return "", err
	}
	table := g.Quoter.QuoteTableName(e.TableName, e.SchemaName)
	cols, err := g.Column.GenerateAll(e.Columns, table)
	if err != nil {
		return "", err
	}
	desc := ""
	if e.Description != "" {
		desc = g.comment(e.Description)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s) ENGINE = INNODB%s", table, cols, desc), nil
}

// AlterTable sets the table comment; without a description there is nothing
// to alter.
func (g *Generator) AlterTable(e *expression.AlterTable) (string, error) {
	if e.Description == "" {
		return "", nil
	}
	return "ALTER TABLE " + g.Quoter.QuoteTableName(e.TableName, e.SchemaName) + g.comment(e.Description), nil
}

func (g *Generator) RenameTable(e *expression.RenameTable) (string, error) {
	return fmt.Sprintf("RENAME TABLE %s TO %s",
		g.Quoter.QuoteTableName(e.OldName, e.SchemaName),
		g.Quoter.QuoteTableName(e.NewName, e.SchemaName)), nil
}

func (g *Generator) AlterColumn(e *expression.AlterColumn) (string, error) {
	col, err := g.Column.Generate(e.Column)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s", g.Quoter.QuoteTableName(e.TableName, e.SchemaName), col), nil
}

// DeleteColumn drops every column in a single ALTER TABLE.
func (g *Generator) DeleteColumn(e *expression.DeleteColumn) (string, error) {
	drops := make([]string, len(e.ColumnNames))
	for i, name := range e.ColumnNames {
		drops[i] = "DROP COLUMN " + g.Quoter.QuoteColumnName(name)
	}
	return fmt.Sprintf("ALTER TABLE %s %s",
		g.Quoter.QuoteTableName(e.TableName, e.SchemaName), strings.Join(drops, ", ")), nil
}

func (g *Generator) DeleteIndex(e *expression.DeleteIndex) (string, error) {
	return fmt.Sprintf("DROP INDEX %s ON %s",
		g.Quoter.QuoteIndexName(e.Index.Name),
		g.Quoter.QuoteTableName(e.Index.TableName, e.Index.SchemaName)), nil
}

func (g *Generator) DeleteForeignKey(e *expression.DeleteForeignKey) (string, error) {
	fk := e.ForeignKey
	if fk.ForeignTable == "" {
		return "", expression.ErrTableNameMissing
	}
	return fmt.Sprintf("ALTER TABLE %s DROP FOREIGN KEY %s",
		g.Quoter.QuoteTableName(fk.ForeignTable, fk.ForeignTableSchema),
		g.Quoter.QuoteConstraintName(fk.Name)), nil
}

// DeleteConstraint drops a primary key or the unique index backing a unique
// constraint.
func (g *Generator) DeleteConstraint(e *expression.DeleteConstraint) (string, error) {
	c := e.Constraint
	table := g.Quoter.QuoteTableName(c.TableName, c.SchemaName)
	if c.IsPrimaryKeyConstraint() {
		return "ALTER TABLE " + table + " DROP PRIMARY KEY", nil
	}
	return fmt.Sprintf("ALTER TABLE %s DROP INDEX %s", table, g.Quoter.QuoteIndexName(c.ConstraintName)), nil
}

func (g *Generator) AlterDefaultConstraint(e *expression.AlterDefaultConstraint) (string, error) {
	def, err := g.Column.FormatDefaultValue(e.DefaultValue)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ALTER TABLE %s ALTER %s SET %s",
		g.Quoter.QuoteTableName(e.TableName, e.SchemaName),
		g.Quoter.QuoteColumnName(e.ColumnName),
		def), nil
}

// ChangeColumn renders a rename as CHANGE COLUMN for servers without RENAME
// COLUMN. definition is the full column definition read from the catalog.
func (g *Generator) ChangeColumn(e *expression.RenameColumn, definition string) string {
	return strings.TrimSpace(fmt.Sprintf("ALTER TABLE %s CHANGE COLUMN %s %s %s",
		g.Quoter.QuoteTableName(e.TableName, e.SchemaName),
		g.Quoter.QuoteColumnName(e.OldName),
		g.Quoter.QuoteColumnName(e.NewName),
		strings.TrimSpace(definition)))
}
