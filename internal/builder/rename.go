package builder

import "github.com/johndauphine/mariadb-migrate/internal/expression"

// RenameRoot starts rename statements.
type RenameRoot struct {
	ctx *Context
}

// Table renames a table.
func (r *RenameRoot) Table(oldName string) *RenameTableBuilder {
	e := &expression.RenameTable{OldName: oldName}
	r.ctx.Add(e)
	return &RenameTableBuilder{expr: e}
}

// RenameTableBuilder configures a RenameTable expression.
type RenameTableBuilder struct {
	expr *expression.RenameTable
}

func (b *RenameTableBuilder) To(newName string) *RenameTableBuilder {
	b.expr.NewName = newName
	return b
}

func (b *RenameTableBuilder) InSchema(schema string) *RenameTableBuilder {
	b.expr.SchemaName = schema
	return b
}

// Column renames a column. Set the table with OnTable.
func (r *RenameRoot) Column(oldName string) *RenameColumnBuilder {
	e := &expression.RenameColumn{OldName: oldName}
	r.ctx.Add(e)
	return &RenameColumnBuilder{expr: e}
}

// RenameColumnBuilder configures a RenameColumn expression.
type RenameColumnBuilder struct {
	expr *expression.RenameColumn
}

func (b *RenameColumnBuilder) OnTable(name string) *RenameColumnBuilder {
	b.expr.TableName = name
	return b
}

func (b *RenameColumnBuilder) InSchema(schema string) *RenameColumnBuilder {
	b.expr.SchemaName = schema
	return b
}

func (b *RenameColumnBuilder) To(newName string) *RenameColumnBuilder {
	b.expr.NewName = newName
	return b
}
