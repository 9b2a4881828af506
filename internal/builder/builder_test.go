package builder

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johndauphine/mariadb-migrate/internal/expression"
	"github.com/johndauphine/mariadb-migrate/internal/model"
)

func newTableColumn(t *testing.T) (*Context, *ColumnBuilder) {
	t.Helper()
	ctx := NewContext("")
	return ctx, ctx.Create().Table("Bacon").InSchema("food").WithColumn("BaconId")
}

func TestColumnTypeSetters(t *testing.T) {
	tests := []struct {
		name     string
		apply    func(b *ColumnBuilder)
		wantType model.DbType
		wantSize *int
	}{
		{"ansi string", func(b *ColumnBuilder) { b.AsAnsiString() }, model.AnsiString, nil},
		{"ansi string sized", func(b *ColumnBuilder) { b.AsAnsiString(255) }, model.AnsiString, model.Int(255)},
		{"binary", func(b *ColumnBuilder) { b.AsBinary(255) }, model.Binary, model.Int(255)},
		{"boolean", func(b *ColumnBuilder) { b.AsBoolean() }, model.Boolean, nil},
		{"byte", func(b *ColumnBuilder) { b.AsByte() }, model.Byte, nil},
		{"currency", func(b *ColumnBuilder) { b.AsCurrency() }, model.Currency, nil},
		{"date", func(b *ColumnBuilder) { b.AsDate() }, model.Date, nil},
		{"datetime", func(b *ColumnBuilder) { b.AsDateTime() }, model.DateTime, nil},
		{"datetime2", func(b *ColumnBuilder) { b.AsDateTime2() }, model.DateTime2, nil},
		{"datetimeoffset", func(b *ColumnBuilder) { b.AsDateTimeOffset() }, model.DateTimeOffset, nil},
		{"double", func(b *ColumnBuilder) { b.AsDouble() }, model.Double, nil},
		{"guid", func(b *ColumnBuilder) { b.AsGuid() }, model.Guid, nil},
		{"fixed string", func(b *ColumnBuilder) { b.AsFixedLengthString(255) }, model.StringFixedLength, model.Int(255)},
		{"fixed ansi string", func(b *ColumnBuilder) { b.AsFixedLengthAnsiString(255) }, model.AnsiStringFixedLength, model.Int(255)},
		{"float", func(b *ColumnBuilder) { b.AsFloat() }, model.Single, nil},
		{"int16", func(b *ColumnBuilder) { b.AsInt16() }, model.Int16, nil},
		{"uint16", func(b *ColumnBuilder) { b.AsUInt16() }, model.UInt16, nil},
		{"int32", func(b *ColumnBuilder) { b.AsInt32() }, model.Int32, nil},
		{"uint32", func(b *ColumnBuilder) { b.AsUInt32() }, model.UInt32, nil},
		{"int64", func(b *ColumnBuilder) { b.AsInt64() }, model.Int64, nil},
		{"uint64", func(b *ColumnBuilder) { b.AsUInt64() }, model.UInt64, nil},
		{"string", func(b *ColumnBuilder) { b.AsString() }, model.String, nil},
		{"string sized", func(b *ColumnBuilder) { b.AsString(255) }, model.String, model.Int(255)},
		{"time", func(b *ColumnBuilder) { b.AsTime() }, model.Time, nil},
		{"xml", func(b *ColumnBuilder) { b.AsXml(255) }, model.Xml, model.Int(255)},
		{"text", func(b *ColumnBuilder) { b.AsText() }, model.String, model.Int(TextCapacity)},
		{"medium text", func(b *ColumnBuilder) { b.AsMediumText() }, model.String, model.Int(MediumTextCapacity)},
		{"long text", func(b *ColumnBuilder) { b.AsLongText() }, model.String, model.Int(math.MaxInt32)},
		{"blob", func(b *ColumnBuilder) { b.AsBlob() }, model.Binary, model.Int(TextCapacity)},
		{"medium blob", func(b *ColumnBuilder) { b.AsMediumBlob() }, model.Binary, model.Int(MediumTextCapacity)},
		{"long blob", func(b *ColumnBuilder) { b.AsLongBlob() }, model.Binary, model.Int(math.MaxInt32)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, b := newTableColumn(t)
			tt.apply(b)
			col := b.Column()
			require.NotNil(t, col.Type)
			assert.Equal(t, tt.wantType, *col.Type)
			assert.Equal(t, tt.wantSize, col.Size)
			assert.Empty(t, col.CustomType)
		})
	}
}

func TestDecimal(t *testing.T) {
	_, b := newTableColumn(t)
	b.AsDecimal(1, 2)
	assert.Equal(t, model.Decimal, *b.Column().Type)
	assert.Equal(t, 1, *b.Column().Size)
	assert.Equal(t, 2, *b.Column().Precision)

	_, b = newTableColumn(t)
	b.AsDecimal(0, 0)
	assert.Nil(t, b.Column().Size)
	assert.Nil(t, b.Column().Precision)
}

func TestCustomTypes(t *testing.T) {
	_, b := newTableColumn(t)
	b.AsInt32().AsCustom("Test")
	assert.Nil(t, b.Column().Type)
	assert.Equal(t, "Test", b.Column().CustomType)

	_, b = newTableColumn(t)
	b.AsSByte()
	assert.Equal(t, "TINYINT(1) SIGNED", b.Column().CustomType)

	_, b = newTableColumn(t)
	b.AsJSON()
	assert.Equal(t, "JSON", b.Column().CustomType)
}

func TestAsColumnDataType(t *testing.T) {
	tests := []struct {
		name string
		in   model.ColumnDataType
		want model.ColumnDefinition
	}{
		{
			name: "custom type wins",
			in:   model.ColumnDataType{CustomType: "Test", Type: model.Type(model.Boolean)},
			want: model.ColumnDefinition{CustomType: "Test"},
		},
		{
			name: "type only",
			in:   model.ColumnDataType{Type: model.Type(model.Boolean)},
			want: model.ColumnDefinition{Type: model.Type(model.Boolean)},
		},
		{
			name: "type size and collation",
			in:   model.ColumnDataType{Type: model.Type(model.AnsiString), Size: model.Int(50), CollationName: "test"},
			want: model.ColumnDefinition{Type: model.Type(model.AnsiString), Size: model.Int(50), CollationName: "test"},
		},
		{
			name: "type size and precision",
			in:   model.ColumnDataType{Type: model.Type(model.Decimal), Size: model.Int(28), Precision: model.Int(10)},
			want: model.ColumnDefinition{Type: model.Type(model.Decimal), Size: model.Int(28), Precision: model.Int(10)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := NewContext("")
			col := ctx.Create().Column("c").AsColumnDataType(tt.in).Column()
			tt.want.Name = "c"
			if diff := cmp.Diff(&tt.want, col); diff != "" {
				t.Errorf("column mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestColumnModifiers(t *testing.T) {
	_, b := newTableColumn(t)
	b.AsString(50).
		Nullable().
		WithDefaultValue("x").
		WithColumnDescription("bacon id").
		Collate("utf8mb4_general_ci").
		PrimaryKey("PK_Bacon").
		Identity()

	col := b.Column()
	assert.True(t, *col.IsNullable)
	assert.Equal(t, "x", col.DefaultValue)
	assert.Equal(t, "bacon id", col.Description)
	assert.Equal(t, "utf8mb4_general_ci", col.CollationName)
	assert.True(t, col.IsPrimaryKey)
	assert.Equal(t, "PK_Bacon", col.PrimaryKeyName)
	assert.True(t, col.IsIdentity)

	b.NotNullable().WithDefault(model.CurrentDateTime).Computed("a + b", true)
	assert.False(t, *col.IsNullable)
	assert.Equal(t, model.CurrentDateTime, col.DefaultValue)
	assert.Equal(t, &model.GeneratedColumn{Expression: "a + b", Stored: true}, col.Generated)
}

func TestSeededIdentity(t *testing.T) {
	_, b := newTableColumn(t)
	b.SeededIdentity(math.MinInt64, 44)

	col := b.Column()
	assert.True(t, col.IsIdentity)
	assert.Equal(t, int64(math.MinInt64), col.AdditionalFeatures[model.IdentitySeed])
	assert.Equal(t, 44, col.AdditionalFeatures[model.IdentityIncrement])
}

func TestCaseSensitive(t *testing.T) {
	_, b := newTableColumn(t)
	b.AsString(20).CaseSensitive()
	assert.Equal(t, CaseSensitiveCollationName, b.Column().CollationName)
	assert.True(t, b.Column().CaseSensitive)

	_, b = newTableColumn(t)
	b.AsAnsiString().CaseSensitive()
	assert.Equal(t, AnsiCaseSensitiveCollationName, b.Column().CollationName)

	_, b = newTableColumn(t)
	b.AsInt32().CaseSensitive()
	assert.Empty(t, b.Column().CollationName)
}

func TestIndexedAndUniqueAddIndexes(t *testing.T) {
	ctx, b := newTableColumn(t)
	b.AsInt32().Indexed().WithColumn("Name").AsString(20).Unique("UX_name")

	exprs := ctx.Expressions()
	require.Len(t, exprs, 3)

	want := []expression.Expression{
		&expression.CreateIndex{Index: &model.IndexDefinition{
			SchemaName: "food", TableName: "Bacon", Columns: []model.IndexColumn{{Name: "BaconId"}},
		}},
		&expression.CreateIndex{Index: &model.IndexDefinition{
			Name: "UX_name", SchemaName: "food", TableName: "Bacon", IsUnique: true, Columns: []model.IndexColumn{{Name: "Name"}},
		}},
	}
	if diff := cmp.Diff(want, exprs[1:]); diff != "" {
		t.Errorf("index expressions mismatch (-want +got):\n%s", diff)
	}

	table := exprs[0].(*expression.CreateTable)
	assert.True(t, table.Columns[0].IsIndexed)
	assert.True(t, table.Columns[1].IsUnique)
}

func TestForeignKey(t *testing.T) {
	ctx, b := newTableColumn(t)
	b.AsInt32().ForeignKey("fk_foo", "primarySchema", "FooTable", "BarColumn").OnDelete(model.RuleCascade)

	exprs := ctx.Expressions()
	require.Len(t, exprs, 2)
	fk := exprs[1].(*expression.CreateForeignKey).ForeignKey

	want := &model.ForeignKeyDefinition{
		Name:               "fk_foo",
		ForeignTable:       "Bacon",
		ForeignTableSchema: "food",
		PrimaryTable:       "FooTable",
		PrimaryTableSchema: "primarySchema",
		ForeignColumns:     []string{"BaconId"},
		PrimaryColumns:     []string{"BarColumn"},
		OnDelete:           model.RuleCascade,
	}
	if diff := cmp.Diff(want, fk); diff != "" {
		t.Errorf("foreign key mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, b.Column().IsForeignKey)
	assert.Same(t, fk, b.Column().ForeignKey)
}

func TestReferencedBy(t *testing.T) {
	ctx, b := newTableColumn(t)
	b.ReferencedBy("fk_foo", "FooTable", "BarColumn")

	fk := ctx.Expressions()[1].(*expression.CreateForeignKey).ForeignKey
	assert.Equal(t, "FooTable", fk.ForeignTable)
	assert.Equal(t, []string{"BarColumn"}, fk.ForeignColumns)
	assert.Equal(t, "Bacon", fk.PrimaryTable)
	assert.Equal(t, []string{"BaconId"}, fk.PrimaryColumns)
	assert.False(t, b.Column().IsForeignKey)
}

func TestForeignKeyRules(t *testing.T) {
	for _, rule := range []model.Rule{model.RuleCascade, model.RuleSetDefault, model.RuleSetNull, model.RuleNone} {
		t.Run(rule.SQL(), func(t *testing.T) {
			_, b := newTableColumn(t)
			b.ReferencedBy("fk", "Foo", "Bar").OnUpdate(rule)
			assert.Equal(t, rule, b.currentFK.OnUpdate)
			assert.Equal(t, model.RuleNone, b.currentFK.OnDelete)

			_, b = newTableColumn(t)
			b.ReferencedBy("fk", "Foo", "Bar").OnDeleteOrUpdate(rule)
			assert.Equal(t, rule, b.currentFK.OnUpdate)
			assert.Equal(t, rule, b.currentFK.OnDelete)
		})
	}
}

func TestRuleWithoutForeignKeyIsRecorded(t *testing.T) {
	ctx, b := newTableColumn(t)
	b.OnDelete(model.RuleCascade)
	assert.ErrorIs(t, ctx.Err(), ErrNoForeignKey)
}

func TestCreateColumnOwnerIsReadLazily(t *testing.T) {
	ctx := NewContext("")
	ctx.Create().Column("Total").OnTable("Orders").InSchema("sales").AsDecimal(10, 2).Indexed()

	exprs := ctx.Expressions()
	require.Len(t, exprs, 2)
	cc := exprs[0].(*expression.CreateColumn)
	assert.Equal(t, "Orders", cc.TableName)
	assert.Equal(t, "sales", cc.SchemaName)
	idx := exprs[1].(*expression.CreateIndex).Index
	assert.Equal(t, "Orders", idx.TableName)
	assert.Equal(t, "sales", idx.SchemaName)
}

func TestStatementBuilders(t *testing.T) {
	ctx := NewContext("")
	ctx.Alter().Table("Orders").InSchema("sales").WithDescription("orders").AddColumn("Note").AsString(100).Nullable()
	ctx.Alter().Column("Qty").OnTable("Orders").AsInt64()
	ctx.Alter().Table("Orders").AlterDefault("Status", "new")
	ctx.Create().Index("IX_date").OnTable("Orders").OnColumn("Date").Descending().OnColumn("Id").Unique()
	ctx.Create().ForeignKey("").FromTable("Orders", "CustomerId").ToTable("Customers", "Id").OnDelete(model.RuleSetNull)
	ctx.Create().UniqueConstraint("").OnTable("Orders").Columns("Code")
	ctx.Create().Sequence("order_seq").IncrementBy(2).StartWith(10).Cycle()
	ctx.Rename().Table("Orders").To("PurchaseOrders")
	ctx.Rename().Column("Qty").OnTable("Orders").To("Quantity")
	ctx.Delete().Column("A", "B").FromTable("Orders")
	ctx.Delete().Index("IX_date").OnTable("Orders")
	ctx.Delete().ForeignKey("FK_x").FromTable("Orders")
	ctx.Delete().PrimaryKey("PRIMARY").OnTable("Orders")
	ctx.Delete().DefaultConstraint("Orders", "Status")
	ctx.Delete().Sequence("order_seq")
	ctx.Delete().Table("Orders").IfExists()
	ctx.Execute().SQL("SELECT 1")

	want := []expression.Expression{
		&expression.AlterTable{SchemaName: "sales", TableName: "Orders", Description: "orders"},
		&expression.CreateColumn{SchemaName: "sales", TableName: "Orders", Column: &model.ColumnDefinition{
			Name: "Note", TableName: "Orders", Type: model.Type(model.String), Size: model.Int(100), IsNullable: model.Bool(true),
		}},
		&expression.AlterColumn{TableName: "Orders", Column: &model.ColumnDefinition{
			Name: "Qty", TableName: "Orders", Type: model.Type(model.Int64),
		}},
		&expression.AlterDefaultConstraint{TableName: "Orders", ColumnName: "Status", DefaultValue: "new"},
		&expression.CreateIndex{Index: &model.IndexDefinition{
			Name: "IX_date", TableName: "Orders", IsUnique: true,
			Columns: []model.IndexColumn{{Name: "Date", Descending: true}, {Name: "Id"}},
		}},
		&expression.CreateForeignKey{ForeignKey: &model.ForeignKeyDefinition{
			ForeignTable: "Orders", ForeignColumns: []string{"CustomerId"},
			PrimaryTable: "Customers", PrimaryColumns: []string{"Id"}, OnDelete: model.RuleSetNull,
		}},
		&expression.CreateConstraint{Constraint: &model.ConstraintDefinition{
			Type: model.UniqueConstraint, TableName: "Orders", Columns: []string{"Code"},
		}},
		&expression.CreateSequence{Sequence: &model.SequenceDefinition{
			Name: "order_seq", Increment: model.Long(2), StartWith: model.Long(10), Cycle: true,
		}},
		&expression.RenameTable{OldName: "Orders", NewName: "PurchaseOrders"},
		&expression.RenameColumn{TableName: "Orders", OldName: "Qty", NewName: "Quantity"},
		&expression.DeleteColumn{TableName: "Orders", ColumnNames: []string{"A", "B"}},
		&expression.DeleteIndex{Index: &model.IndexDefinition{Name: "IX_date", TableName: "Orders"}},
		&expression.DeleteForeignKey{ForeignKey: &model.ForeignKeyDefinition{Name: "FK_x", ForeignTable: "Orders"}},
		&expression.DeleteConstraint{Constraint: &model.ConstraintDefinition{
			Type: model.PrimaryKeyConstraint, ConstraintName: "PRIMARY", TableName: "Orders",
		}},
		&expression.DeleteDefaultConstraint{TableName: "Orders", ColumnName: "Status"},
		&expression.DeleteSequence{SequenceName: "order_seq"},
		&expression.DeleteTable{TableName: "Orders", IfExists: true},
		&expression.ExecuteSQL{SQL: "SELECT 1"},
	}
	if diff := cmp.Diff(want, ctx.Expressions()); diff != "" {
		t.Errorf("expressions mismatch (-want +got):\n%s", diff)
	}
	assert.NoError(t, ctx.Err())
}

func TestDataBuilders(t *testing.T) {
	ctx := NewContext("")
	ctx.Insert().IntoTable("Orders").Row(map[string]any{"Id": 1, "Code": "A"})
	ctx.Update().Table("Orders").Set(map[string]any{"Code": "B"}).Where(map[string]any{"Id": 1})
	ctx.Delete().FromTable("Orders").IsNull("Code")
	ctx.Delete().FromTable("Orders").AllRows()

	want := []expression.Expression{
		&expression.InsertData{TableName: "Orders", Rows: []expression.Row{{
			{Column: "Code", Value: "A"}, {Column: "Id", Value: 1},
		}}},
		&expression.UpdateData{
			TableName: "Orders",
			Set:       expression.Row{{Column: "Code", Value: "B"}},
			Where:     expression.Row{{Column: "Id", Value: 1}},
		},
		&expression.DeleteData{TableName: "Orders", Rows: []expression.Row{{{Column: "Code", Value: model.NullValue}}}},
		&expression.DeleteData{TableName: "Orders", AllRows: true},
	}
	if diff := cmp.Diff(want, ctx.Expressions()); diff != "" {
		t.Errorf("expressions mismatch (-want +got):\n%s", diff)
	}
}

func TestExecuteScript(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "seed.sql"), []byte("INSERT INTO t VALUES (1)"), 0o600))

	ctx := NewContext(dir)
	ctx.Execute().Script("seed.sql")
	ctx.Execute().Script("missing.sql")

	require.Len(t, ctx.Expressions(), 1)
	assert.Equal(t, "INSERT INTO t VALUES (1)", ctx.Expressions()[0].(*expression.ExecuteSQL).SQL)
	assert.Error(t, ctx.Err())
}
