package builder

import (
	"github.com/johndauphine/mariadb-migrate/internal/expression"
	"github.com/johndauphine/mariadb-migrate/internal/model"
)

// AlterRoot starts alter statements.
type AlterRoot struct {
	ctx *Context
}

// Table alters an existing table. The AlterTable expression itself is only
// added when a description is set.
func (r *AlterRoot) Table(name string) *AlterTableBuilder {
	return &AlterTableBuilder{ctx: r.ctx, name: name}
}

// AlterTableBuilder adds and alters columns of one table.
type AlterTableBuilder struct {
	ctx    *Context
	name   string
	schema string
}

func (b *AlterTableBuilder) table() (string, string) { return b.schema, b.name }

func (b *AlterTableBuilder) InSchema(schema string) *AlterTableBuilder {
	b.schema = schema
	return b
}

func (b *AlterTableBuilder) WithDescription(description string) *AlterTableBuilder {
	b.ctx.Add(&expression.AlterTable{SchemaName: b.schema, TableName: b.name, Description: description})
	return b
}

// AddColumn adds a CreateColumn expression for the table.
func (b *AlterTableBuilder) AddColumn(name string) *ColumnBuilder {
	col := &model.ColumnDefinition{Name: name, TableName: b.name}
	b.ctx.Add(&expression.CreateColumn{SchemaName: b.schema, TableName: b.name, Column: col})
	return newColumnBuilder(b.ctx, b, col, nil)
}

// AlterColumn adds an AlterColumn expression for the table.
func (b *AlterTableBuilder) AlterColumn(name string) *ColumnBuilder {
	col := &model.ColumnDefinition{Name: name, TableName: b.name}
	b.ctx.Add(&expression.AlterColumn{SchemaName: b.schema, TableName: b.name, Column: col})
	return newColumnBuilder(b.ctx, b, col, nil)
}

// AlterDefault changes the default of an existing column.
func (b *AlterTableBuilder) AlterDefault(column string, value any) *AlterTableBuilder {
	b.ctx.Add(&expression.AlterDefaultConstraint{
		SchemaName:   b.schema,
		TableName:    b.name,
		ColumnName:   column,
		DefaultValue: value,
	})
	return b
}

// Column adds an AlterColumn expression. Set the table with OnTable.
func (r *AlterRoot) Column(name string) *AlterColumnBuilder {
	e := &expression.AlterColumn{Column: &model.ColumnDefinition{Name: name}}
	r.ctx.Add(e)
	b := &AlterColumnBuilder{expr: e}
	b.ColumnBuilder = newColumnBuilder(r.ctx, b, e.Column, nil)
	return b
}

// AlterColumnBuilder configures an AlterColumn expression.
type AlterColumnBuilder struct {
	*ColumnBuilder
	expr *expression.AlterColumn
}

func (b *AlterColumnBuilder) table() (string, string) { return b.expr.SchemaName, b.expr.TableName }

func (b *AlterColumnBuilder) OnTable(name string) *AlterColumnBuilder {
	b.expr.TableName = name
	b.expr.Column.TableName = name
	return b
}

func (b *AlterColumnBuilder) InSchema(schema string) *AlterColumnBuilder {
	b.expr.SchemaName = schema
	return b
}
