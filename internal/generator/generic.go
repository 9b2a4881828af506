// Package generator turns migration expressions into SQL text. The Generic
// generator holds the statement shapes shared by most dialects; dialect
// packages embed it and override the statements they spell differently.
package generator

import (
	"fmt"
	"strings"

	"github.com/johndauphine/mariadb-migrate/internal/expression"
	"github.com/johndauphine/mariadb-migrate/internal/model"
)

// Generator produces the SQL for an expression. An empty string with a nil
// error means there is nothing to execute.
type Generator interface {
	Generate(e expression.Expression) (string, error)
}

// StatementSeparator joins statements when one expression needs several.
const StatementSeparator = ";\n"

// Generic implements the ANSI-ish statement shapes.
type Generic struct {
	Column        ColumnFormatter
	Quoter        *Quoter
	Compatibility CompatibilityMode

	// SupportedFeatures lists the column additional features the dialect
	// understands.
	SupportedFeatures map[string]bool
}

// NewGeneric returns a generic generator.
func NewGeneric(column ColumnFormatter, quoter *Quoter, mode CompatibilityMode) *Generic {
	return &Generic{Column: column, Quoter: quoter, Compatibility: mode}
}

// Generate dispatches on the expression type.
func (g *Generic) Generate(e expression.Expression) (string, error) {
	switch ex := e.(type) {
	case *expression.CreateSchema:
		return g.CreateSchema(ex)
	case *expression.DeleteSchema:
		return g.DeleteSchema(ex)
	case *expression.CreateTable:
		return g.CreateTable(ex)
	case *expression.AlterTable:
		return g.AlterTable(ex)
	case *expression.DeleteTable:
		return g.DeleteTable(ex)
	case *expression.RenameTable:
		return g.RenameTable(ex)
	case *expression.CreateColumn:
		return g.CreateColumn(ex)
	case *expression.AlterColumn:
		return g.AlterColumn(ex)
	case *expression.DeleteColumn:
		return g.DeleteColumn(ex)
	case *expression.RenameColumn:
		return g.RenameColumn(ex)
	case *expression.CreateIndex:
		return g.CreateIndex(ex)
	case *expression.DeleteIndex:
		return g.DeleteIndex(ex)
	case *expression.CreateForeignKey:
		return g.CreateForeignKey(ex)
	case *expression.DeleteForeignKey:
		return g.DeleteForeignKey(ex)
	case *expression.CreateConstraint:
		return g.CreateConstraint(ex)
	case *expression.DeleteConstraint:
		return g.DeleteConstraint(ex)
	case *expression.AlterDefaultConstraint:
		return g.AlterDefaultConstraint(ex)
	case *expression.DeleteDefaultConstraint:
		return g.DeleteDefaultConstraint(ex)
	case *expression.CreateSequence:
		return g.CreateSequence(ex)
	case *expression.DeleteSequence:
		return g.DeleteSequence(ex)
	case *expression.ExecuteSQL:
		return ex.SQL, nil
	case *expression.InsertData:
		return g.InsertData(ex)
	case *expression.UpdateData:
		return g.UpdateData(ex)
	case *expression.DeleteData:
		return g.DeleteData(ex)
	}
	return "", fmt.Errorf("%w: %T", ErrNotSupported, e)
}

func (g *Generic) CreateSchema(e *expression.CreateSchema) (string, error) {
	return "CREATE SCHEMA " + g.Quoter.QuoteSchemaName(e.SchemaName), nil
}

func (g *Generic) DeleteSchema(e *expression.DeleteSchema) (string, error) {
	return "DROP SCHEMA " + g.Quoter.QuoteSchemaName(e.SchemaName), nil
}

// CreateTable renders CREATE TABLE t (columns).
func (g *Generic) CreateTable(e *expression.CreateTable) (string, error) {
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
	return fmt.Sprintf("CREATE TABLE %s (%s)", table, cols), nil
}

// AlterTable has no generic form; descriptions are dialect specific.
func (g *Generic) AlterTable(e *expression.AlterTable) (string, error) {
	return "", nil
}

func (g *Generic) DeleteTable(e *expression.DeleteTable) (string, error) {
	table := g.Quoter.QuoteTableName(e.TableName, e.SchemaName)
	if e.IfExists {
		return "DROP TABLE IF EXISTS " + table, nil
	}
	return "DROP TABLE " + table, nil
}

func (g *Generic) RenameTable(e *expression.RenameTable) (string, error) {
	return fmt.Sprintf("ALTER TABLE %s RENAME TO %s",
		g.Quoter.QuoteTableName(e.OldName, e.SchemaName),
		g.Quoter.Quote(e.NewName)), nil
}

func (g *Generic) CreateColumn(e *expression.CreateColumn) (string, error) {
	if err := g.Compatibility.ValidateFeatures([]*model.ColumnDefinition{e.Column}, g.SupportedFeatures); err != nil {
		return "", err
	}
	col, err := g.Column.Generate(e.Column)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", g.Quoter.QuoteTableName(e.TableName, e.SchemaName), col), nil
}

func (g *Generic) AlterColumn(e *expression.AlterColumn) (string, error) {
	col, err := g.Column.Generate(e.Column)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s", g.Quoter.QuoteTableName(e.TableName, e.SchemaName), col), nil
}

// DeleteColumn renders one DROP COLUMN statement per column.
func (g *Generic) DeleteColumn(e *expression.DeleteColumn) (string, error) {
	table := g.Quoter.QuoteTableName(e.TableName, e.SchemaName)
	stmts := make([]string, len(e.ColumnNames))
	for i, name := range e.ColumnNames {
		stmts[i] = fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", table, g.Quoter.QuoteColumnName(name))
	}
	return strings.Join(stmts, StatementSeparator), nil
}

func (g *Generic) RenameColumn(e *expression.RenameColumn) (string, error) {
	return fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s",
		g.Quoter.QuoteTableName(e.TableName, e.SchemaName),
		g.Quoter.QuoteColumnName(e.OldName),
		g.Quoter.QuoteColumnName(e.NewName)), nil
}

// IndexColumns renders the column list of an index with directions.
func (g *Generic) IndexColumns(idx *model.IndexDefinition) string {
	cols := make([]string, len(idx.Columns))
	for i, c := range idx.Columns {
		dir := "ASC"
		if c.Descending {
			dir = "DESC"
		}
		cols[i] = g.Quoter.QuoteColumnName(c.Name) + " " + dir
	}
	return strings.Join(cols, ", ")
}

func (g *Generic) CreateIndex(e *expression.CreateIndex) (string, error) {
	idx := e.Index
	unique := ""
	if idx.IsUnique {
		unique = "UNIQUE "
	}
	return fmt.Sprintf("CREATE %sINDEX %s ON %s (%s)",
		unique,
		g.Quoter.QuoteIndexName(idx.Name),
		g.Quoter.QuoteTableName(idx.TableName, idx.SchemaName),
		g.IndexColumns(idx)), nil
}

func (g *Generic) DeleteIndex(e *expression.DeleteIndex) (string, error) {
	return "DROP INDEX " + g.Quoter.QuoteIndexName(e.Index.Name), nil
}

// CreateForeignKey renders ALTER TABLE ... ADD CONSTRAINT ... FOREIGN KEY.
func (g *Generic) CreateForeignKey(e *expression.CreateForeignKey) (string, error) {
	fk := e.ForeignKey
	if len(fk.ForeignColumns) != len(fk.PrimaryColumns) {
		return "", fmt.Errorf("foreign key %s: %d foreign columns but %d primary columns",
			fk.Name, len(fk.ForeignColumns), len(fk.PrimaryColumns))
	}
	var rules strings.Builder
	if sql := fk.OnDelete.SQL(); sql != "" {
		rules.WriteString(" ON DELETE " + sql)
	}
	if sql := fk.OnUpdate.SQL(); sql != "" {
		rules.WriteString(" ON UPDATE " + sql)
	}
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)%s",
		g.Quoter.QuoteTableName(fk.ForeignTable, fk.ForeignTableSchema),
		g.Quoter.QuoteConstraintName(fk.Name),
		g.Quoter.QuoteColumnNames(fk.ForeignColumns),
		g.Quoter.QuoteTableName(fk.PrimaryTable, fk.PrimaryTableSchema),
		g.Quoter.QuoteColumnNames(fk.PrimaryColumns),
		rules.String()), nil
}

func (g *Generic) DeleteForeignKey(e *expression.DeleteForeignKey) (string, error) {
	fk := e.ForeignKey
	return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s",
		g.Quoter.QuoteTableName(fk.ForeignTable, fk.ForeignTableSchema),
		g.Quoter.QuoteConstraintName(fk.Name)), nil
}

func (g *Generic) CreateConstraint(e *expression.CreateConstraint) (string, error) {
	c := e.Constraint
	kind := "UNIQUE"
	if c.IsPrimaryKeyConstraint() {
		kind = "PRIMARY KEY"
	}
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s %s (%s)",
		g.Quoter.QuoteTableName(c.TableName, c.SchemaName),
		g.Quoter.QuoteConstraintName(c.ConstraintName),
		kind,
		g.Quoter.QuoteColumnNames(c.Columns)), nil
}

func (g *Generic) DeleteConstraint(e *expression.DeleteConstraint) (string, error) {
	c := e.Constraint
	return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s",
		g.Quoter.QuoteTableName(c.TableName, c.SchemaName),
		g.Quoter.QuoteConstraintName(c.ConstraintName)), nil
}

func (g *Generic) AlterDefaultConstraint(e *expression.AlterDefaultConstraint) (string, error) {
	def, err := g.Column.FormatDefaultValue(e.DefaultValue)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET %s",
		g.Quoter.QuoteTableName(e.TableName, e.SchemaName),
		g.Quoter.QuoteColumnName(e.ColumnName),
		def), nil
}

func (g *Generic) DeleteDefaultConstraint(e *expression.DeleteDefaultConstraint) (string, error) {
	return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT",
		g.Quoter.QuoteTableName(e.TableName, e.SchemaName),
		g.Quoter.QuoteColumnName(e.ColumnName)), nil
}

// CreateSequence renders CREATE SEQUENCE with the options that are set.
func (g *Generic) CreateSequence(e *expression.CreateSequence) (string, error) {
	s := e.Sequence
	var b strings.Builder
	b.WriteString("CREATE SEQUENCE ")
	b.WriteString(g.Quoter.QuoteSequenceName(s.Name, s.SchemaName))
	if s.Increment != nil {
		fmt.Fprintf(&b, " INCREMENT BY %d", *s.Increment)
	}
	if s.MinValue != nil {
		fmt.Fprintf(&b, " MINVALUE %d", *s.MinValue)
	}
	if s.MaxValue != nil {
		fmt.Fprintf(&b, " MAXVALUE %d", *s.MaxValue)
	}
	if s.StartWith != nil {
		fmt.Fprintf(&b, " START WITH %d", *s.StartWith)
	}
	if s.Cache != nil {
		fmt.Fprintf(&b, " CACHE %d", *s.Cache)
	}
	if s.Cycle {
		b.WriteString(" CYCLE")
	}
	return b.String(), nil
}

func (g *Generic) DeleteSequence(e *expression.DeleteSequence) (string, error) {
	return "DROP SEQUENCE " + g.Quoter.QuoteSequenceName(e.SequenceName, e.SchemaName), nil
}

// InsertData renders one INSERT statement per row.
func (g *Generic) InsertData(e *expression.InsertData) (string, error) {
	table := g.Quoter.QuoteTableName(e.TableName, e.SchemaName)
	stmts := make([]string, 0, len(e.Rows))
	for _, row := range e.Rows {
		vals, err := g.quoteValues(row)
		if err != nil {
			return "", err
		}
		stmts = append(stmts, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			table, g.Quoter.QuoteColumnNames(row.Columns()), strings.Join(vals, ", ")))
	}
	return strings.Join(stmts, StatementSeparator), nil
}

func (g *Generic) UpdateData(e *expression.UpdateData) (string, error) {
	set, err := g.assignments(e.Set, ", ", false)
	if err != nil {
		return "", err
	}
	where := "1 = 1"
	if !e.AllRows {
		if len(e.Where) == 0 {
			return "", fmt.Errorf("update of %s has no WHERE clause and does not target all rows", e.TableName)
		}
		if where, err = g.assignments(e.Where, " AND ", true); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		g.Quoter.QuoteTableName(e.TableName, e.SchemaName), set, where), nil
}

func (g *Generic) DeleteData(e *expression.DeleteData) (string, error) {
	table := g.Quoter.QuoteTableName(e.TableName, e.SchemaName)
	if e.AllRows {
		return fmt.Sprintf("DELETE FROM %s WHERE 1 = 1", table), nil
	}
	stmts := make([]string, 0, len(e.Rows))
	for _, row := range e.Rows {
		where, err := g.assignments(row, " AND ", true)
		if err != nil {
			return "", err
		}
		stmts = append(stmts, fmt.Sprintf("DELETE FROM %s WHERE %s", table, where))
	}
	return strings.Join(stmts, StatementSeparator), nil
}

func (g *Generic) quoteValues(row expression.Row) ([]string, error) {
	vals := make([]string, len(row))
	for i, cv := range row {
		q, err := g.Quoter.QuoteValue(cv.Value)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", cv.Column, err)
		}
		vals[i] = q
	}
	return vals, nil
}

// assignments renders col = value pairs. In predicate position NULL values
// become IS NULL.
func (g *Generic) assignments(row expression.Row, sep string, predicate bool) (string, error) {
	parts := make([]string, len(row))
	for i, cv := range row {
		col := g.Quoter.QuoteColumnName(cv.Column)
		if predicate && isNull(cv.Value) {
			parts[i] = col + " IS NULL"
			continue
		}
		q, err := g.Quoter.QuoteValue(cv.Value)
		if err != nil {
			return "", fmt.Errorf("column %s: %w", cv.Column, err)
		}
		parts[i] = col + " = " + q
	}
	return strings.Join(parts, sep), nil
}

func isNull(v any) bool {
	if v == nil {
		return true
	}
	_, ok := v.(model.Null)
	return ok
}
