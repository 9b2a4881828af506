package builder

import (
	"github.com/johndauphine/mariadb-migrate/internal/expression"
	"github.com/johndauphine/mariadb-migrate/internal/model"
)

// CreateRoot starts create statements.
type CreateRoot struct {
	ctx *Context
}

// Table adds a CreateTable expression. Columns are added with WithColumn.
func (r *CreateRoot) Table(name string) *TableBuilder {
	e := &expression.CreateTable{TableName: name}
	r.ctx.Add(e)
	return &TableBuilder{ctx: r.ctx, expr: e}
}

// TableBuilder configures a CreateTable expression.
type TableBuilder struct {
	ctx  *Context
	expr *expression.CreateTable
}

func (b *TableBuilder) table() (string, string) { return b.expr.SchemaName, b.expr.TableName }

func (b *TableBuilder) InSchema(schema string) *TableBuilder {
	b.expr.SchemaName = schema
	return b
}

func (b *TableBuilder) WithDescription(description string) *TableBuilder {
	b.expr.Description = description
	return b
}

// WithColumn appends a column and returns its builder.
func (b *TableBuilder) WithColumn(name string) *ColumnBuilder {
	col := &model.ColumnDefinition{Name: name, TableName: b.expr.TableName}
	b.expr.Columns = append(b.expr.Columns, col)
	return newColumnBuilder(b.ctx, b, col, b)
}

// Column adds a CreateColumn expression. Set the table with OnTable.
func (r *CreateRoot) Column(name string) *CreateColumnBuilder {
	e := &expression.CreateColumn{Column: &model.ColumnDefinition{Name: name}}
	r.ctx.Add(e)
	b := &CreateColumnBuilder{expr: e}
	b.ColumnBuilder = newColumnBuilder(r.ctx, b, e.Column, nil)
	return b
}

// CreateColumnBuilder configures a CreateColumn expression.
type CreateColumnBuilder struct {
	*ColumnBuilder
	expr *expression.CreateColumn
}

func (b *CreateColumnBuilder) table() (string, string) { return b.expr.SchemaName, b.expr.TableName }

func (b *CreateColumnBuilder) OnTable(name string) *CreateColumnBuilder {
	b.expr.TableName = name
	b.expr.Column.TableName = name
	return b
}

func (b *CreateColumnBuilder) InSchema(schema string) *CreateColumnBuilder {
	b.expr.SchemaName = schema
	return b
}

// Index adds a CreateIndex expression.
func (r *CreateRoot) Index(name string) *IndexBuilder {
	e := &expression.CreateIndex{Index: &model.IndexDefinition{Name: name}}
	r.ctx.Add(e)
	return &IndexBuilder{idx: e.Index}
}

// IndexBuilder configures an index definition.
type IndexBuilder struct {
	idx *model.IndexDefinition
}

func (b *IndexBuilder) OnTable(name string) *IndexBuilder {
	b.idx.TableName = name
	return b
}

func (b *IndexBuilder) InSchema(schema string) *IndexBuilder {
	b.idx.SchemaName = schema
	return b
}

// OnColumn adds an ascending column.
func (b *IndexBuilder) OnColumn(name string) *IndexBuilder {
	b.idx.Columns = append(b.idx.Columns, model.IndexColumn{Name: name})
	return b
}

// Descending flips the direction of the last column added.
func (b *IndexBuilder) Descending() *IndexBuilder {
	if n := len(b.idx.Columns); n > 0 {
		b.idx.Columns[n-1].Descending = true
	}
	return b
}

func (b *IndexBuilder) Unique() *IndexBuilder {
	b.idx.IsUnique = true
	return b
}

// ForeignKey adds a CreateForeignKey expression. An empty name is filled in
// by the naming conventions.
func (r *CreateRoot) ForeignKey(name string) *ForeignKeyBuilder {
	e := &expression.CreateForeignKey{ForeignKey: &model.ForeignKeyDefinition{Name: name}}
	r.ctx.Add(e)
	return &ForeignKeyBuilder{fk: e.ForeignKey}
}

// ForeignKeyBuilder configures a foreign key definition.
type ForeignKeyBuilder struct {
	fk *model.ForeignKeyDefinition
}

// FromTable names the referencing table and its columns.
func (b *ForeignKeyBuilder) FromTable(name string, columns ...string) *ForeignKeyBuilder {
	b.fk.ForeignTable = name
	b.fk.ForeignColumns = append(b.fk.ForeignColumns, columns...)
	return b
}

func (b *ForeignKeyBuilder) InSchema(schema string) *ForeignKeyBuilder {
	b.fk.ForeignTableSchema = schema
	return b
}

// ToTable names the referenced table and its columns.
func (b *ForeignKeyBuilder) ToTable(name string, columns ...string) *ForeignKeyBuilder {
	b.fk.PrimaryTable = name
	b.fk.PrimaryColumns = append(b.fk.PrimaryColumns, columns...)
	return b
}

func (b *ForeignKeyBuilder) ToSchema(schema string) *ForeignKeyBuilder {
	b.fk.PrimaryTableSchema = schema
	return b
}

func (b *ForeignKeyBuilder) OnDelete(rule model.Rule) *ForeignKeyBuilder {
	b.fk.OnDelete = rule
	return b
}

func (b *ForeignKeyBuilder) OnUpdate(rule model.Rule) *ForeignKeyBuilder {
	b.fk.OnUpdate = rule
	return b
}

// UniqueConstraint adds a unique constraint.
func (r *CreateRoot) UniqueConstraint(name string) *ConstraintBuilder {
	return r.constraint(model.UniqueConstraint, name)
}

// PrimaryKey adds a primary key constraint.
func (r *CreateRoot) PrimaryKey(name string) *ConstraintBuilder {
	return r.constraint(model.PrimaryKeyConstraint, name)
}

func (r *CreateRoot) constraint(t model.ConstraintType, name string) *ConstraintBuilder {
	e := &expression.CreateConstraint{Constraint: &model.ConstraintDefinition{Type: t, ConstraintName: name}}
	r.ctx.Add(e)
	return &ConstraintBuilder{c: e.Constraint}
}

// ConstraintBuilder configures a constraint definition.
type ConstraintBuilder struct {
	c *model.ConstraintDefinition
}

func (b *ConstraintBuilder) OnTable(name string) *ConstraintBuilder {
	b.c.TableName = name
	return b
}

func (b *ConstraintBuilder) InSchema(schema string) *ConstraintBuilder {
	b.c.SchemaName = schema
	return b
}

func (b *ConstraintBuilder) Columns(names ...string) *ConstraintBuilder {
	b.c.Columns = append(b.c.Columns, names...)
	return b
}

// Sequence adds a CreateSequence expression.
func (r *CreateRoot) Sequence(name string) *SequenceBuilder {
	e := &expression.CreateSequence{Sequence: &model.SequenceDefinition{Name: name}}
	r.ctx.Add(e)
	return &SequenceBuilder{seq: e.Sequence}
}

// SequenceBuilder configures a sequence definition.
type SequenceBuilder struct {
	seq *model.SequenceDefinition
}

func (b *SequenceBuilder) InSchema(schema string) *SequenceBuilder {
	b.seq.SchemaName = schema
	return b
}

func (b *SequenceBuilder) IncrementBy(n int64) *SequenceBuilder {
	b.seq.Increment = model.Long(n)
	return b
}

func (b *SequenceBuilder) MinValue(n int64) *SequenceBuilder {
	b.seq.MinValue = model.Long(n)
	return b
}

func (b *SequenceBuilder) MaxValue(n int64) *SequenceBuilder {
	b.seq.MaxValue = model.Long(n)
	return b
}

func (b *SequenceBuilder) StartWith(n int64) *SequenceBuilder {
	b.seq.StartWith = model.Long(n)
	return b
}

func (b *SequenceBuilder) Cache(n int64) *SequenceBuilder {
	b.seq.Cache = model.Long(n)
	return b
}

func (b *SequenceBuilder) Cycle() *SequenceBuilder {
	b.seq.Cycle = true
	return b
}

// Schema adds a CreateSchema expression.
func (r *CreateRoot) Schema(name string) {
	r.ctx.Add(&expression.CreateSchema{SchemaName: name})
}
