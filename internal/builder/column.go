package builder

import (
	"github.com/johndauphine/mariadb-migrate/internal/expression"
	"github.com/johndauphine/mariadb-migrate/internal/model"
)

// owner exposes the table a column belongs to. It is read when an index or
// foreign key is added, so OnTable and InSchema may be called in any order
// before that.
type owner interface {
	table() (schema, name string)
}

// ColumnBuilder configures one column definition. It is shared by
// Create.Table, Create.Column, Alter.Table and Alter.Column.
type ColumnBuilder struct {
	ctx    *Context
	owner  owner
	column *model.ColumnDefinition
	// next continues a table builder after the column is done.
	next *TableBuilder

	currentFK *model.ForeignKeyDefinition
}

func newColumnBuilder(ctx *Context, o owner, col *model.ColumnDefinition, next *TableBuilder) *ColumnBuilder {
	return &ColumnBuilder{ctx: ctx, owner: o, column: col, next: next}
}

// Column returns the definition being built.
func (b *ColumnBuilder) Column() *model.ColumnDefinition { return b.column }

// WithColumn starts the next column of the same table. It is a no-op chain
// point for builders that are not part of a table.
func (b *ColumnBuilder) WithColumn(name string) *ColumnBuilder {
	if b.next == nil {
		b.ctx.fail(expression.ErrTableNameMissing)
		return b
	}
	return b.next.WithColumn(name)
}

func (b *ColumnBuilder) setType(t model.DbType, size []int) *ColumnBuilder {
	b.column.Type = model.Type(t)
	b.column.CustomType = ""
	if len(size) > 0 {
		b.column.Size = model.Int(size[0])
	}
	return b
}

func (b *ColumnBuilder) AsAnsiString(size ...int) *ColumnBuilder {
	return b.setType(model.AnsiString, size)
}

func (b *ColumnBuilder) AsBinary(size ...int) *ColumnBuilder {
	return b.setType(model.Binary, size)
}

func (b *ColumnBuilder) AsBoolean() *ColumnBuilder  { return b.setType(model.Boolean, nil) }
func (b *ColumnBuilder) AsByte() *ColumnBuilder     { return b.setType(model.Byte, nil) }
func (b *ColumnBuilder) AsCurrency() *ColumnBuilder { return b.setType(model.Currency, nil) }
func (b *ColumnBuilder) AsDate() *ColumnBuilder     { return b.setType(model.Date, nil) }
func (b *ColumnBuilder) AsDateTime() *ColumnBuilder { return b.setType(model.DateTime, nil) }

func (b *ColumnBuilder) AsDateTime2() *ColumnBuilder { return b.setType(model.DateTime2, nil) }

func (b *ColumnBuilder) AsDateTimeOffset() *ColumnBuilder {
	return b.setType(model.DateTimeOffset, nil)
}

// AsDecimal sets a DECIMAL type. Zero size and precision leave the dialect
// defaults in place.
func (b *ColumnBuilder) AsDecimal(size, precision int) *ColumnBuilder {
	b.setType(model.Decimal, nil)
	if size > 0 {
		b.column.Size = model.Int(size)
	}
	if precision > 0 {
		b.column.Precision = model.Int(precision)
	}
	return b
}

func (b *ColumnBuilder) AsDouble() *ColumnBuilder { return b.setType(model.Double, nil) }
func (b *ColumnBuilder) AsGuid() *ColumnBuilder   { return b.setType(model.Guid, nil) }
func (b *ColumnBuilder) AsFloat() *ColumnBuilder  { return b.setType(model.Single, nil) }
func (b *ColumnBuilder) AsInt16() *ColumnBuilder  { return b.setType(model.Int16, nil) }
func (b *ColumnBuilder) AsUInt16() *ColumnBuilder { return b.setType(model.UInt16, nil) }
func (b *ColumnBuilder) AsInt32() *ColumnBuilder  { return b.setType(model.Int32, nil) }
func (b *ColumnBuilder) AsUInt32() *ColumnBuilder { return b.setType(model.UInt32, nil) }
func (b *ColumnBuilder) AsInt64() *ColumnBuilder  { return b.setType(model.Int64, nil) }
func (b *ColumnBuilder) AsUInt64() *ColumnBuilder { return b.setType(model.UInt64, nil) }
func (b *ColumnBuilder) AsTime() *ColumnBuilder   { return b.setType(model.Time, nil) }

func (b *ColumnBuilder) AsFixedLengthString(size int) *ColumnBuilder {
	return b.setType(model.StringFixedLength, []int{size})
}

func (b *ColumnBuilder) AsFixedLengthAnsiString(size int) *ColumnBuilder {
	return b.setType(model.AnsiStringFixedLength, []int{size})
}

func (b *ColumnBuilder) AsString(size ...int) *ColumnBuilder {
	return b.setType(model.String, size)
}

func (b *ColumnBuilder) AsXml(size ...int) *ColumnBuilder {
	return b.setType(model.Xml, size)
}

// AsCustom uses a literal SQL type instead of a mapped one.
func (b *ColumnBuilder) AsCustom(sqlType string) *ColumnBuilder {
	b.column.Type = nil
	b.column.CustomType = sqlType
	return b
}

// AsColumnDataType copies only the fields set on t.
func (b *ColumnBuilder) AsColumnDataType(t model.ColumnDataType) *ColumnBuilder {
	if t.CustomType != "" {
		return b.AsCustom(t.CustomType)
	}
	if t.Type != nil {
		b.column.Type = model.Type(*t.Type)
	}
	if t.Size != nil {
		b.column.Size = model.Int(*t.Size)
	}
	if t.Precision != nil {
		b.column.Precision = model.Int(*t.Precision)
	}
	if t.CollationName != "" {
		b.column.CollationName = t.CollationName
	}
	return b
}

// Collate sets an explicit collation.
func (b *ColumnBuilder) Collate(name string) *ColumnBuilder {
	b.column.CollationName = name
	return b
}

func (b *ColumnBuilder) WithDefaultValue(v any) *ColumnBuilder {
	b.column.DefaultValue = v
	return b
}

// WithDefault uses a server function such as CURRENT_TIMESTAMP as default.
func (b *ColumnBuilder) WithDefault(m model.SystemMethod) *ColumnBuilder {
	b.column.DefaultValue = m
	return b
}

func (b *ColumnBuilder) WithColumnDescription(description string) *ColumnBuilder {
	b.column.Description = description
	return b
}

// Computed makes the column generated from expr, stored or virtual.
func (b *ColumnBuilder) Computed(expr string, stored bool) *ColumnBuilder {
	b.column.Generated = &model.GeneratedColumn{Expression: expr, Stored: stored}
	return b
}

func (b *ColumnBuilder) Nullable() *ColumnBuilder {
	b.column.IsNullable = model.Bool(true)
	return b
}

func (b *ColumnBuilder) NotNullable() *ColumnBuilder {
	b.column.IsNullable = model.Bool(false)
	return b
}

// PrimaryKey marks the column as (part of) the primary key, optionally
// naming the key.
func (b *ColumnBuilder) PrimaryKey(name ...string) *ColumnBuilder {
	b.column.IsPrimaryKey = true
	if len(name) > 0 {
		b.column.PrimaryKeyName = name[0]
	}
	return b
}

func (b *ColumnBuilder) Identity() *ColumnBuilder {
	b.column.IsIdentity = true
	return b
}

// SeededIdentity marks the column as identity starting at seed. The values
// are recorded as additional features, which MySQL does not understand and
// strict mode rejects.
func (b *ColumnBuilder) SeededIdentity(seed int64, increment int) *ColumnBuilder {
	b.column.IsIdentity = true
	b.column.SetFeature(model.IdentitySeed, seed)
	b.column.SetFeature(model.IdentityIncrement, increment)
	return b
}

// Indexed adds an index on the column. An empty name is filled in by the
// naming conventions.
func (b *ColumnBuilder) Indexed(name ...string) *ColumnBuilder {
	b.column.IsIndexed = true
	b.addIndex(false, name)
	return b
}

// Unique adds a unique index on the column.
func (b *ColumnBuilder) Unique(name ...string) *ColumnBuilder {
	b.column.IsUnique = true
	b.addIndex(true, name)
	return b
}

func (b *ColumnBuilder) addIndex(unique bool, name []string) {
	schema, table := b.owner.table()
	idx := &model.IndexDefinition{
		SchemaName: schema,
		TableName:  table,
		IsUnique:   unique,
		Columns:    []model.IndexColumn{{Name: b.column.Name}},
	}
	if len(name) > 0 {
		idx.Name = name[0]
	}
	b.ctx.Add(&expression.CreateIndex{Index: idx})
}

// IsForeignKey marks the column as a foreign key without creating one.
func (b *ColumnBuilder) IsForeignKey() *ColumnBuilder {
	b.column.IsForeignKey = true
	return b
}

// ForeignKey makes the column reference primarySchema.primaryTable's
// primaryColumn and adds the foreign key to the context.
func (b *ColumnBuilder) ForeignKey(name, primarySchema, primaryTable, primaryColumn string) *ColumnBuilder {
	schema, table := b.owner.table()
	fk := &model.ForeignKeyDefinition{
		Name:               name,
		ForeignTable:       table,
		ForeignTableSchema: schema,
		PrimaryTable:       primaryTable,
		PrimaryTableSchema: primarySchema,
		ForeignColumns:     []string{b.column.Name},
		PrimaryColumns:     []string{primaryColumn},
	}
	b.column.IsForeignKey = true
	b.column.ForeignKey = fk
	b.currentFK = fk
	b.ctx.Add(&expression.CreateForeignKey{ForeignKey: fk})
	return b
}

// ReferencedBy adds a foreign key from foreignTable.foreignColumn to this
// column.
func (b *ColumnBuilder) ReferencedBy(name, foreignTable, foreignColumn string) *ColumnBuilder {
	schema, table := b.owner.table()
	fk := &model.ForeignKeyDefinition{
		Name:               name,
		ForeignTable:       foreignTable,
		ForeignTableSchema: schema,
		PrimaryTable:       table,
		PrimaryTableSchema: schema,
		ForeignColumns:     []string{foreignColumn},
		PrimaryColumns:     []string{b.column.Name},
	}
	b.currentFK = fk
	b.ctx.Add(&expression.CreateForeignKey{ForeignKey: fk})
	return b
}

// OnDelete sets the delete rule of the last foreign key added by this
// builder.
func (b *ColumnBuilder) OnDelete(rule model.Rule) *ColumnBuilder {
	if b.currentFK == nil {
		b.ctx.fail(ErrNoForeignKey)
		return b
	}
	b.currentFK.OnDelete = rule
	return b
}

func (b *ColumnBuilder) OnUpdate(rule model.Rule) *ColumnBuilder {
	if b.currentFK == nil {
		b.ctx.fail(ErrNoForeignKey)
		return b
	}
	b.currentFK.OnUpdate = rule
	return b
}

func (b *ColumnBuilder) OnDeleteOrUpdate(rule model.Rule) *ColumnBuilder {
	if b.currentFK == nil {
		b.ctx.fail(ErrNoForeignKey)
		return b
	}
	b.currentFK.OnDelete = rule
	b.currentFK.OnUpdate = rule
	return b
}
