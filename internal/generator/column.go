package generator

import (
	"fmt"
	"strings"

	"github.com/johndauphine/mariadb-migrate/internal/model"
)

// ColumnFormatter renders column definitions.
type ColumnFormatter interface {
	// Generate renders one column definition.
	Generate(c *model.ColumnDefinition) (string, error)
	// GenerateAll renders the column list of a CREATE TABLE, including any
	// table-level primary key clause.
	GenerateAll(columns []*model.ColumnDefinition, quotedTable string) (string, error)
	// FormatDefaultValue renders a DEFAULT clause for v.
	FormatDefaultValue(v any) (string, error)
}

// Clause renders one part of a column definition. An empty result is skipped.
type Clause func(c *model.ColumnDefinition) (string, error)

// Column is the dialect-independent column formatter. Dialects replace
// Clauses with their own ordering and implementations.
type Column struct {
	TypeMap TypeMapper
	Quoter  *Quoter
	Clauses []Clause

	// SeparatePrimaryKey forces PRIMARY KEY (...) to be emitted at table level
	// even for a single unnamed key column.
	SeparatePrimaryKey bool
	// NamedPrimaryKey prefixes the table-level key with CONSTRAINT <name>.
	NamedPrimaryKey bool
}

// NewColumn returns a formatter with the standard clause order.
func NewColumn(typeMap TypeMapper, quoter *Quoter) *Column {
	c := &Column{TypeMap: typeMap, Quoter: quoter, NamedPrimaryKey: true}
	c.Clauses = []Clause{
		c.FormatName,
		c.FormatType,
		c.FormatCollation,
		c.FormatNullable,
		c.FormatDefault,
		c.FormatPrimaryKey,
	}
	return c
}

// Generate joins the non-empty clauses with single spaces.
func (c *Column) Generate(col *model.ColumnDefinition) (string, error) {
	parts := make([]string, 0, len(c.Clauses))
	for _, clause := range c.Clauses {
		s, err := clause(col)
		if err != nil {
			return "", fmt.Errorf("column %s: %w", col.Name, err)
		}
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " "), nil
}

// GenerateAll renders columns for a CREATE TABLE. When the primary key has to
// be emitted separately the input columns are not modified; copies with
// IsPrimaryKey cleared are rendered instead.
func (c *Column) GenerateAll(columns []*model.ColumnDefinition, quotedTable string) (string, error) {
	var pkColumns []*model.ColumnDefinition
	for _, col := range columns {
		if col.IsPrimaryKey {
			pkColumns = append(pkColumns, col)
		}
	}

	separate := c.primaryKeySeparately(pkColumns)
	defs := make([]string, 0, len(columns))
	for _, col := range columns {
		if separate && col.IsPrimaryKey {
			col = col.Clone()
			col.IsPrimaryKey = false
		}
		s, err := c.Generate(col)
		if err != nil {
			return "", err
		}
		defs = append(defs, s)
	}

	out := strings.Join(defs, ", ")
	if separate {
		out += c.primaryKeyClause(pkColumns)
	}
	return out, nil
}

func (c *Column) primaryKeySeparately(pk []*model.ColumnDefinition) bool {
	if len(pk) == 0 {
		return false
	}
	if c.SeparatePrimaryKey || len(pk) > 1 {
		return true
	}
	return pk[0].PrimaryKeyName != ""
}

func (c *Column) primaryKeyClause(pk []*model.ColumnDefinition) string {
	names := make([]string, len(pk))
	for i, col := range pk {
		names[i] = col.Name
	}
	constraint := ""
	if c.NamedPrimaryKey && pk[0].PrimaryKeyName != "" {
		constraint = "CONSTRAINT " + c.Quoter.QuoteConstraintName(pk[0].PrimaryKeyName) + " "
	}
	return fmt.Sprintf(", %sPRIMARY KEY (%s)", constraint, c.Quoter.QuoteColumnNames(names))
}

// FormatName renders the quoted column name.
func (c *Column) FormatName(col *model.ColumnDefinition) (string, error) {
	return c.Quoter.QuoteColumnName(col.Name), nil
}

// FormatType renders the custom type or the type map entry.
func (c *Column) FormatType(col *model.ColumnDefinition) (string, error) {
	if col.Type == nil {
		if col.CustomType == "" {
			return "", fmt.Errorf("%w: no type specified", ErrUnsupportedType)
		}
		return col.CustomType, nil
	}
	return c.TypeMap.Get(*col.Type, col.Size, col.Precision)
}

// FormatCollation renders an explicit COLLATE clause.
func (c *Column) FormatCollation(col *model.ColumnDefinition) (string, error) {
	if col.CollationName == "" {
		return "", nil
	}
	return "COLLATE " + col.CollationName, nil
}

// FormatNullable renders NOT NULL unless the column is explicitly nullable.
func (c *Column) FormatNullable(col *model.ColumnDefinition) (string, error) {
	if col.IsNullable != nil && *col.IsNullable {
		return "", nil
	}
	return "NOT NULL", nil
}

// FormatDefault renders the DEFAULT clause of the column, if any.
func (c *Column) FormatDefault(col *model.ColumnDefinition) (string, error) {
	if col.DefaultValue == nil {
		return "", nil
	}
	return c.FormatDefaultValue(col.DefaultValue)
}

// FormatDefaultValue renders DEFAULT followed by the quoted value.
func (c *Column) FormatDefaultValue(v any) (string, error) {
	quoted, err := c.Quoter.QuoteValue(v)
	if err != nil {
		return "", err
	}
	return "DEFAULT " + quoted, nil
}

// FormatPrimaryKey renders an inline PRIMARY KEY.
func (c *Column) FormatPrimaryKey(col *model.ColumnDefinition) (string, error) {
	if !col.IsPrimaryKey {
		return "", nil
	}
	return "PRIMARY KEY", nil
}
