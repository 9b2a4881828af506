package migrations

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/johndauphine/mariadb-migrate/internal/builder"
	"github.com/johndauphine/mariadb-migrate/internal/model"
)

// buildSteps replays steps into ctx. Relative script paths are resolved
// against dir. The first step that cannot be built stops the replay.
func buildSteps(ctx *builder.Context, dir string, steps []Step) error {
	for i := range steps {
		if err := buildStep(ctx, dir, &steps[i]); err != nil {
			kind, _ := steps[i].Kind()
			return fmt.Errorf("step %d (%s): %w", i+1, kind, err)
		}
	}
	return ctx.Err()
}

func buildStep(ctx *builder.Context, dir string, s *Step) error {
	if _, err := s.Kind(); err != nil {
		return err
	}

	switch {
	case s.CreateTable != nil:
		t := s.CreateTable
		if len(t.Columns) == 0 {
			return errors.New("create_table needs at least one column")
		}
		tb := ctx.Create().Table(t.Name).InSchema(t.Schema)
		if t.Description != "" {
			tb.WithDescription(t.Description)
		}
		for i := range t.Columns {
			if err := applyColumn(tb.WithColumn(t.Columns[i].Name), &t.Columns[i]); err != nil {
				return err
			}
		}

	case s.AlterTable != nil:
		t := s.AlterTable
		if len(t.Add) == 0 && len(t.Alter) == 0 && t.Description == "" {
			return errors.New("alter_table has nothing to change")
		}
		tb := ctx.Alter().Table(t.Name).InSchema(t.Schema)
		if t.Description != "" {
			tb.WithDescription(t.Description)
		}
		for i := range t.Add {
			if err := applyColumn(tb.AddColumn(t.Add[i].Name), &t.Add[i]); err != nil {
				return err
			}
		}
		for i := range t.Alter {
			if err := applyColumn(tb.AlterColumn(t.Alter[i].Name), &t.Alter[i]); err != nil {
				return err
			}
		}

	case s.DeleteTable != nil:
		b := ctx.Delete().Table(s.DeleteTable.Name).InSchema(s.DeleteTable.Schema)
		if s.DeleteTable.IfExists {
			b.IfExists()
		}

	case s.RenameTable != nil:
		ctx.Rename().Table(s.RenameTable.From).To(s.RenameTable.To).InSchema(s.RenameTable.Schema)

	case s.CreateColumn != nil:
		c := s.CreateColumn
		b := ctx.Create().Column(c.Name).OnTable(c.Table).InSchema(c.Schema)
		return applyColumn(b.ColumnBuilder, &c.ColumnSpec)

	case s.DeleteColumn != nil:
		if len(s.DeleteColumn.Columns) == 0 {
			return errors.New("delete_column needs columns")
		}
		ctx.Delete().Column(s.DeleteColumn.Columns...).FromTable(s.DeleteColumn.Table).InSchema(s.DeleteColumn.Schema)

	case s.RenameColumn != nil:
		r := s.RenameColumn
		if r.Table == "" {
			return errors.New("rename_column needs a table")
		}
		ctx.Rename().Column(r.From).OnTable(r.Table).InSchema(r.Schema).To(r.To)

	case s.CreateIndex != nil:
		ix := s.CreateIndex
		if len(ix.Columns) == 0 {
			return errors.New("create_index needs columns")
		}
		b := ctx.Create().Index(ix.Name).OnTable(ix.Table).InSchema(ix.Schema)
		if ix.Unique {
			b.Unique()
		}
		for _, c := range ix.Columns {
			b.OnColumn(c.Name)
			if c.Descending {
				b.Descending()
			}
		}

	case s.DeleteIndex != nil:
		ctx.Delete().Index(s.DeleteIndex.Name).OnTable(s.DeleteIndex.Table).InSchema(s.DeleteIndex.Schema)

	case s.CreateForeignKey != nil:
		fk := s.CreateForeignKey
		onDelete, err := model.ParseRule(fk.OnDelete)
		if err != nil {
			return err
		}
		onUpdate, err := model.ParseRule(fk.OnUpdate)
		if err != nil {
			return err
		}
		ctx.Create().ForeignKey(fk.Name).
			FromTable(fk.FromTable, fk.FromColumns...).InSchema(fk.Schema).
			ToTable(fk.ToTable, fk.ToColumns...).ToSchema(fk.ToSchema).
			OnDelete(onDelete).OnUpdate(onUpdate)

	case s.DeleteForeignKey != nil:
		fk := s.DeleteForeignKey
		ctx.Delete().ForeignKey(fk.Name).FromTable(fk.FromTable, fk.FromColumns...).InSchema(fk.Schema)

	case s.CreateUnique != nil:
		c := s.CreateUnique
		ctx.Create().UniqueConstraint(c.Name).OnTable(c.Table).InSchema(c.Schema).Columns(c.Columns...)

	case s.DeleteConstraint != nil:
		c := s.DeleteConstraint
		switch strings.ToLower(strings.ReplaceAll(c.Type, "_", "")) {
		case "", "unique":
			ctx.Delete().UniqueConstraint(c.Name).OnTable(c.Table).InSchema(c.Schema).Columns(c.Columns...)
		case "primarykey":
			ctx.Delete().PrimaryKey(c.Name).OnTable(c.Table).InSchema(c.Schema).Columns(c.Columns...)
		default:
			return fmt.Errorf("unknown constraint type %q", c.Type)
		}

	case s.CreateSequence != nil:
		sq := s.CreateSequence
		b := ctx.Create().Sequence(sq.Name).InSchema(sq.Schema)
		if sq.Increment != nil {
			b.IncrementBy(*sq.Increment)
		}
		if sq.MinValue != nil {
			b.MinValue(*sq.MinValue)
		}
		if sq.MaxValue != nil {
			b.MaxValue(*sq.MaxValue)
		}
		if sq.StartWith != nil {
			b.StartWith(*sq.StartWith)
		}
		if sq.Cache != nil {
			b.Cache(*sq.Cache)
		}
		if sq.Cycle {
			b.Cycle()
		}

	case s.DeleteSequence != nil:
		ctx.Delete().Sequence(s.DeleteSequence.Name).InSchema(s.DeleteSequence.Schema)

	case s.Insert != nil:
		if len(s.Insert.Rows) == 0 {
			return errors.New("insert has no rows")
		}
		b := ctx.Insert().IntoTable(s.Insert.Table).InSchema(s.Insert.Schema)
		for _, row := range s.Insert.Rows {
			b.Row(row)
		}

	case s.SQL != nil:
		switch {
		case s.SQL.Statement != "" && s.SQL.Script != "":
			return errors.New("sql sets both statement and script")
		case s.SQL.Script != "":
			path := s.SQL.Script
			if !filepath.IsAbs(path) && dir != "" {
				path = filepath.Join(dir, path)
			}
			ctx.Execute().Script(path)
		case strings.TrimSpace(s.SQL.Statement) != "":
			ctx.Execute().SQL(s.SQL.Statement)
		default:
			return errors.New("sql is empty")
		}
	}
	return nil
}

// applyColumn copies spec onto the column builder.
func applyColumn(b *builder.ColumnBuilder, spec *ColumnSpec) error {
	if err := applyType(b, spec); err != nil {
		return fmt.Errorf("column %s: %w", spec.Name, err)
	}

	if spec.Collation != "" {
		b.Collate(spec.Collation)
	}
	if spec.CaseSensitive {
		b.CaseSensitive()
	}
	if spec.Nullable != nil {
		if *spec.Nullable {
			b.Nullable()
		} else {
			b.NotNullable()
		}
	}

	defaults := 0
	if spec.Default != nil {
		defaults++
		b.WithDefaultValue(spec.Default)
	}
	if spec.DefaultNull {
		defaults++
		b.WithDefaultValue(model.NullValue)
	}
	if spec.DefaultMethod != "" {
		defaults++
		m, err := model.ParseSystemMethod(spec.DefaultMethod)
		if err != nil {
			return fmt.Errorf("column %s: %w", spec.Name, err)
		}
		b.WithDefault(m)
	}
	if defaults > 1 {
		return fmt.Errorf("column %s: default, default_null and default_method are exclusive", spec.Name)
	}

	if spec.Description != "" {
		b.WithColumnDescription(spec.Description)
	}
	if spec.Generated != "" {
		b.Computed(spec.Generated, spec.Stored)
	}
	if spec.PrimaryKey {
		b.PrimaryKey()
	}
	if spec.Identity {
		b.Identity()
	}
	if spec.Unique {
		b.Unique()
	}
	if spec.Indexed {
		b.Indexed()
	}

	if ref := spec.References; ref != nil {
		if ref.Table == "" || ref.Column == "" {
			return fmt.Errorf("column %s: references needs table and column", spec.Name)
		}
		onDelete, err := model.ParseRule(ref.OnDelete)
		if err != nil {
			return fmt.Errorf("column %s: %w", spec.Name, err)
		}
		onUpdate, err := model.ParseRule(ref.OnUpdate)
		if err != nil {
			return fmt.Errorf("column %s: %w", spec.Name, err)
		}
		b.ForeignKey(ref.Name, ref.Schema, ref.Table, ref.Column).OnDelete(onDelete).OnUpdate(onUpdate)
	}
	return nil
}

func applyType(b *builder.ColumnBuilder, spec *ColumnSpec) error {
	if spec.SQLType != "" {
		if spec.Type != "" {
			return errors.New("type and sql_type are exclusive")
		}
		b.AsCustom(spec.SQLType)
		return nil
	}

	switch strings.ToLower(strings.TrimSpace(spec.Type)) {
	case "":
		return errors.New("type is required")
	case "text":
		b.AsText()
	case "mediumtext", "medium_text":
		b.AsMediumText()
	case "longtext", "long_text":
		b.AsLongText()
	case "blob":
		b.AsBlob()
	case "mediumblob", "medium_blob":
		b.AsMediumBlob()
	case "longblob", "long_blob":
		b.AsLongBlob()
	case "json":
		b.AsJSON()
	case "sbyte", "tinyint":
		b.AsSByte()
	case "decimal":
		b.AsDecimal(deref(spec.Size), deref(spec.Precision))
	default:
		t, err := model.ParseDbType(spec.Type)
		if err != nil {
			return err
		}
		b.AsColumnDataType(model.ColumnDataType{Type: &t, Size: spec.Size, Precision: spec.Precision})
	}
	return nil
}

func deref(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}
