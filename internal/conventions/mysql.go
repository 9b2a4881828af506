package conventions

import (
	"strings"

	"github.com/johndauphine/mariadb-migrate/internal/expression"
	"github.com/johndauphine/mariadb-migrate/internal/model"
)

// PrimaryKeyNameValue is the name MySQL gives every primary key.
const PrimaryKeyNameValue = "PRIMARY"

// PrimaryKeyName names unnamed primary key columns PRIMARY.
type PrimaryKeyName struct{}

func (PrimaryKeyName) ApplyColumns(e expression.ColumnsExpression) {
	for _, c := range e.TableColumns() {
		if c.IsPrimaryKey && c.PrimaryKeyName == "" {
			c.PrimaryKeyName = PrimaryKeyNameValue
		}
	}
}

// ConstraintName names primary keys PRIMARY and unique constraints
// <table>_<col...>_unique.
type ConstraintName struct{}

func (ConstraintName) ApplyConstraint(e expression.ConstraintExpression) {
	c := e.ConstraintDef()
	if c.ConstraintName == "" {
		c.ConstraintName = ConstraintNameFor(c)
	}
}

// ConstraintNameFor synthesizes the constraint name without modifying c.
func ConstraintNameFor(c *model.ConstraintDefinition) string {
	if c.IsPrimaryKeyConstraint() {
		return PrimaryKeyNameValue
	}
	var b strings.Builder
	b.WriteString(c.TableName)
	for _, col := range c.Columns {
		b.WriteString("_")
		b.WriteString(col)
	}
	b.WriteString("_unique")
	return b.String()
}

// ForeignKeyName names foreign keys
// <foreignTable>_<fkcol...>_<primaryTable>_<pkcol...>_foreign.
type ForeignKeyName struct{}

func (ForeignKeyName) ApplyForeignKey(e expression.ForeignKeyExpression) {
	fk := e.ForeignKeyDef()
	if fk.Name == "" {
		fk.Name = ForeignKeyNameFor(fk)
	}
}

// ForeignKeyNameFor synthesizes the foreign key name without modifying fk.
func ForeignKeyNameFor(fk *model.ForeignKeyDefinition) string {
	var b strings.Builder
	b.WriteString(fk.ForeignTable)
	for _, col := range fk.ForeignColumns {
		b.WriteString("_")
		b.WriteString(col)
	}
	b.WriteString("_")
	b.WriteString(fk.PrimaryTable)
	for _, col := range fk.PrimaryColumns {
		b.WriteString("_")
		b.WriteString(col)
	}
	b.WriteString("_foreign")
	return b.String()
}

// IndexName names indexes <table>_<col...>_index.
type IndexName struct{}

func (IndexName) ApplyIndex(e expression.IndexExpression) {
	idx := e.IndexDef()
	if idx.Name == "" {
		idx.Name = IndexNameFor(idx)
	}
}

// IndexNameFor synthesizes the index name without modifying idx.
func IndexNameFor(idx *model.IndexDefinition) string {
	var b strings.Builder
	b.WriteString(idx.TableName)
	for _, col := range idx.Columns {
		b.WriteString("_")
		b.WriteString(col.Name)
	}
	b.WriteString("_index")
	return b.String()
}

// DefaultSchema assigns a default schema to expressions that have none.
type DefaultSchema struct {
	Name string
}

// NewDefaultSchema returns a schema convention for name.
func NewDefaultSchema(name string) *DefaultSchema {
	return &DefaultSchema{Name: name}
}

// SchemaName returns the schema to use when the original is empty.
func (d *DefaultSchema) SchemaName(original string) string {
	if original != "" {
		return original
	}
	return d.Name
}

// ApplySchema sets the schema of any schema-scoped expression.
func (d *DefaultSchema) ApplySchema(e expression.Expression) {
	se, ok := e.(expression.SchemaExpression)
	if !ok || d.Name == "" {
		return
	}
	if se.Schema() == "" {
		se.SetSchema(d.Name)
	}
}

func (d *DefaultSchema) ApplyConstraint(e expression.ConstraintExpression) {
	c := e.ConstraintDef()
	c.SchemaName = d.SchemaName(c.SchemaName)
}

func (d *DefaultSchema) ApplyForeignKey(e expression.ForeignKeyExpression) {
	fk := e.ForeignKeyDef()
	fk.ForeignTableSchema = d.SchemaName(fk.ForeignTableSchema)
	fk.PrimaryTableSchema = d.SchemaName(fk.PrimaryTableSchema)
}

func (d *DefaultSchema) ApplyIndex(e expression.IndexExpression) {
	idx := e.IndexDef()
	idx.SchemaName = d.SchemaName(idx.SchemaName)
}

func (d *DefaultSchema) ApplySequence(e expression.SequenceExpression) {
	seq := e.SequenceDef()
	seq.SchemaName = d.SchemaName(seq.SchemaName)
}
