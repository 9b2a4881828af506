package builder

import (
	"github.com/johndauphine/mariadb-migrate/internal/expression"
	"github.com/johndauphine/mariadb-migrate/internal/model"
)

// DeleteRoot starts drop statements and data deletes.
type DeleteRoot struct {
	ctx *Context
}

// Table drops a table.
func (r *DeleteRoot) Table(name string) *DeleteTableBuilder {
	e := &expression.DeleteTable{TableName: name}
	r.ctx.Add(e)
	return &DeleteTableBuilder{expr: e}
}

// DeleteTableBuilder configures a DeleteTable expression.
type DeleteTableBuilder struct {
	expr *expression.DeleteTable
}

func (b *DeleteTableBuilder) InSchema(schema string) *DeleteTableBuilder {
	b.expr.SchemaName = schema
	return b
}

func (b *DeleteTableBuilder) IfExists() *DeleteTableBuilder {
	b.expr.IfExists = true
	return b
}

// Column drops one or more columns of a table.
func (r *DeleteRoot) Column(names ...string) *DeleteColumnBuilder {
	e := &expression.DeleteColumn{ColumnNames: names}
	r.ctx.Add(e)
	return &DeleteColumnBuilder{expr: e}
}

// DeleteColumnBuilder configures a DeleteColumn expression.
type DeleteColumnBuilder struct {
	expr *expression.DeleteColumn
}

func (b *DeleteColumnBuilder) FromTable(name string) *DeleteColumnBuilder {
	b.expr.TableName = name
	return b
}

func (b *DeleteColumnBuilder) InSchema(schema string) *DeleteColumnBuilder {
	b.expr.SchemaName = schema
	return b
}

// Index drops an index.
func (r *DeleteRoot) Index(name string) *IndexBuilder {
	e := &expression.DeleteIndex{Index: &model.IndexDefinition{Name: name}}
	r.ctx.Add(e)
	return &IndexBuilder{idx: e.Index}
}

// ForeignKey drops a foreign key. Name the referencing table with FromTable.
func (r *DeleteRoot) ForeignKey(name string) *ForeignKeyBuilder {
	e := &expression.DeleteForeignKey{ForeignKey: &model.ForeignKeyDefinition{Name: name}}
	r.ctx.Add(e)
	return &ForeignKeyBuilder{fk: e.ForeignKey}
}

// UniqueConstraint drops a unique constraint.
func (r *DeleteRoot) UniqueConstraint(name string) *ConstraintBuilder {
	return r.constraint(model.UniqueConstraint, name)
}

// PrimaryKey drops a primary key.
func (r *DeleteRoot) PrimaryKey(name string) *ConstraintBuilder {
	return r.constraint(model.PrimaryKeyConstraint, name)
}

func (r *DeleteRoot) constraint(t model.ConstraintType, name string) *ConstraintBuilder {
	e := &expression.DeleteConstraint{Constraint: &model.ConstraintDefinition{Type: t, ConstraintName: name}}
	r.ctx.Add(e)
	return &ConstraintBuilder{c: e.Constraint}
}

// DefaultConstraint removes the default of table.column.
func (r *DeleteRoot) DefaultConstraint(table, column string) *DeleteDefaultBuilder {
	e := &expression.DeleteDefaultConstraint{TableName: table, ColumnName: column}
	r.ctx.Add(e)
	return &DeleteDefaultBuilder{expr: e}
}

// DeleteDefaultBuilder configures a DeleteDefaultConstraint expression.
type DeleteDefaultBuilder struct {
	expr *expression.DeleteDefaultConstraint
}

func (b *DeleteDefaultBuilder) InSchema(schema string) *DeleteDefaultBuilder {
	b.expr.SchemaName = schema
	return b
}

// Sequence drops a sequence.
func (r *DeleteRoot) Sequence(name string) *DeleteSequenceBuilder {
	e := &expression.DeleteSequence{SequenceName: name}
	r.ctx.Add(e)
	return &DeleteSequenceBuilder{expr: e}
}

// DeleteSequenceBuilder configures a DeleteSequence expression.
type DeleteSequenceBuilder struct {
	expr *expression.DeleteSequence
}

func (b *DeleteSequenceBuilder) InSchema(schema string) *DeleteSequenceBuilder {
	b.expr.SchemaName = schema
	return b
}

// Schema drops a schema.
func (r *DeleteRoot) Schema(name string) {
	r.ctx.Add(&expression.DeleteSchema{SchemaName: name})
}

// FromTable deletes rows of a table.
func (r *DeleteRoot) FromTable(name string) *DeleteDataBuilder {
	e := &expression.DeleteData{TableName: name}
	r.ctx.Add(e)
	return &DeleteDataBuilder{expr: e}
}

// DeleteDataBuilder configures a DeleteData expression.
type DeleteDataBuilder struct {
	expr *expression.DeleteData
}

func (b *DeleteDataBuilder) InSchema(schema string) *DeleteDataBuilder {
	b.expr.SchemaName = schema
	return b
}

// Row deletes rows matching every column of values.
func (b *DeleteDataBuilder) Row(values map[string]any) *DeleteDataBuilder {
	b.expr.Rows = append(b.expr.Rows, rowOf(values))
	return b
}

func (b *DeleteDataBuilder) IsNull(column string) *DeleteDataBuilder {
	b.expr.Rows = append(b.expr.Rows, expression.Row{{Column: column, Value: model.NullValue}})
	return b
}

func (b *DeleteDataBuilder) AllRows() *DeleteDataBuilder {
	b.expr.AllRows = true
	return b
}
