package builder

import (
	"sort"

	"github.com/johndauphine/mariadb-migrate/internal/expression"
)

// rowOf orders map entries by column name so generated SQL is stable.
func rowOf(values map[string]any) expression.Row {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	row := make(expression.Row, len(names))
	for i, name := range names {
		row[i] = expression.ColumnValue{Column: name, Value: values[name]}
	}
	return row
}

// InsertRoot starts inserts.
type InsertRoot struct {
	ctx *Context
}

// IntoTable inserts rows into a table.
func (r *InsertRoot) IntoTable(name string) *InsertBuilder {
	e := &expression.InsertData{TableName: name}
	r.ctx.Add(e)
	return &InsertBuilder{expr: e}
}

// InsertBuilder configures an InsertData expression.
type InsertBuilder struct {
	expr *expression.InsertData
}

func (b *InsertBuilder) InSchema(schema string) *InsertBuilder {
	b.expr.SchemaName = schema
	return b
}

// Row adds a row. Columns are emitted in name order; use OrderedRow to keep
// a specific order.
func (b *InsertBuilder) Row(values map[string]any) *InsertBuilder {
	b.expr.Rows = append(b.expr.Rows, rowOf(values))
	return b
}

func (b *InsertBuilder) OrderedRow(row expression.Row) *InsertBuilder {
	b.expr.Rows = append(b.expr.Rows, row)
	return b
}

// UpdateRoot starts updates.
type UpdateRoot struct {
	ctx *Context
}

// Table updates rows of a table.
func (r *UpdateRoot) Table(name string) *UpdateBuilder {
	e := &expression.UpdateData{TableName: name}
	r.ctx.Add(e)
	return &UpdateBuilder{expr: e}
}

// UpdateBuilder configures an UpdateData expression.
type UpdateBuilder struct {
	expr *expression.UpdateData
}

func (b *UpdateBuilder) InSchema(schema string) *UpdateBuilder {
	b.expr.SchemaName = schema
	return b
}

func (b *UpdateBuilder) Set(values map[string]any) *UpdateBuilder {
	b.expr.Set = rowOf(values)
	return b
}

func (b *UpdateBuilder) Where(values map[string]any) *UpdateBuilder {
	b.expr.Where = rowOf(values)
	return b
}

func (b *UpdateBuilder) AllRows() *UpdateBuilder {
	b.expr.AllRows = true
	return b
}
