package runner

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/johndauphine/mariadb-migrate/internal/expression"
	"github.com/johndauphine/mariadb-migrate/internal/model"
	"github.com/johndauphine/mariadb-migrate/internal/processor"
)

// DefaultVersionTable is the table that records applied migrations.
const DefaultVersionTable = "VersionInfo"

const (
	versionColumn     = "Version"
	appliedOnColumn   = "AppliedOn"
	descriptionColumn = "Description"
	versionIndex      = "UC_Version"
)

var appliedOnLayouts = []string{
	"2006-01-02 15:04:05.999999",
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

// AppliedVersion is a row of the version table.
type AppliedVersion struct {
	Version     int64
	AppliedOn   time.Time
	Description string
}

type versionTable struct {
	schema string
	table  string
}

func newVersionTable(schema, table string) *versionTable {
	if table == "" {
		table = DefaultVersionTable
	}
	return &versionTable{schema: schema, table: table}
}

// createExpressions returns the DDL for the version table.
func (v *versionTable) createExpressions() []expression.Expression {
	return []expression.Expression{
		&expression.CreateTable{
			SchemaName: v.schema,
			TableName:  v.table,
			Columns: []*model.ColumnDefinition{
				{Name: versionColumn, TableName: v.table, Type: model.Type(model.Int64), IsNullable: model.Bool(false)},
				{Name: appliedOnColumn, TableName: v.table, Type: model.Type(model.DateTime), IsNullable: model.Bool(true)},
				{Name: descriptionColumn, TableName: v.table, Type: model.Type(model.String), Size: model.Int(1024), IsNullable: model.Bool(true)},
			},
		},
		&expression.CreateIndex{
			Index: &model.IndexDefinition{
				Name:       versionIndex,
				SchemaName: v.schema,
				TableName:  v.table,
				IsUnique:   true,
				Columns:    []model.IndexColumn{{Name: versionColumn}},
			},
		},
	}
}

// ensure creates the version table when it is missing.
func (v *versionTable) ensure(ctx context.Context, proc processor.Processor) (bool, error) {
	exists, err := proc.TableExists(ctx, v.schema, v.table)
	if err != nil {
		return false, fmt.Errorf("checking version table %s: %w", v.table, err)
	}
	if exists {
		return false, nil
	}
	for _, e := range v.createExpressions() {
		if err := proc.Process(ctx, e); err != nil {
			return false, fmt.Errorf("creating version table %s: %w", v.table, err)
		}
	}
	return true, nil
}

// load reads every applied version. A missing table means nothing is applied.
func (v *versionTable) load(ctx context.Context, proc processor.Processor) (map[int64]AppliedVersion, error) {
	exists, err := proc.TableExists(ctx, v.schema, v.table)
	if err != nil {
		return nil, fmt.Errorf("checking version table %s: %w", v.table, err)
	}
	if !exists {
		return make(map[int64]AppliedVersion), nil
	}
	return v.read(ctx, proc)
}

// read loads the version table, which must exist.
func (v *versionTable) read(ctx context.Context, proc processor.Processor) (map[int64]AppliedVersion, error) {
	data, err := proc.ReadTableData(ctx, v.schema, v.table)
	if err != nil {
		return nil, fmt.Errorf("reading version table %s: %w", v.table, err)
	}
	applied := make(map[int64]AppliedVersion, data.Len())
	for i := 0; i < data.Len(); i++ {
		version, err := parseVersion(data.Value(i, versionColumn))
		if err != nil {
			return nil, fmt.Errorf("version table row %d: %w", i, err)
		}
		av := AppliedVersion{Version: version, AppliedOn: parseAppliedOn(data.Value(i, appliedOnColumn))}
		if d, ok := data.Value(i, descriptionColumn).(string); ok {
			av.Description = d
		}
		applied[version] = av
	}
	return applied, nil
}

func (v *versionTable) recordUp(version int64, description string, appliedOn time.Time) expression.Expression {
	return &expression.InsertData{
		SchemaName: v.schema,
		TableName:  v.table,
		Rows: []expression.Row{{
			{Column: versionColumn, Value: version},
			{Column: appliedOnColumn, Value: appliedOn.UTC()},
			{Column: descriptionColumn, Value: description},
		}},
	}
}

func (v *versionTable) recordDown(version int64) expression.Expression {
	return &expression.DeleteData{
		SchemaName: v.schema,
		TableName:  v.table,
		Rows:       []expression.Row{{{Column: versionColumn, Value: version}}},
	}
}

func parseVersion(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case []byte:
		return strconv.ParseInt(string(n), 10, 64)
	case string:
		return strconv.ParseInt(n, 10, 64)
	case nil:
		return 0, fmt.Errorf("null %s", versionColumn)
	}
	return 0, fmt.Errorf("unexpected %s type %T", versionColumn, v)
}

func parseAppliedOn(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case []byte:
		return parseAppliedOn(string(t))
	case string:
		for _, layout := range appliedOnLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed
			}
		}
	}
	return time.Time{}
}

func sortedVersions(applied map[int64]AppliedVersion) []int64 {
	versions := make([]int64, 0, len(applied))
	for v := range applied {
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return versions
}
