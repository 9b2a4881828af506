package mysql

import (
	"fmt"

	"github.com/johndauphine/mariadb-migrate/internal/generator"
	"github.com/johndauphine/mariadb-migrate/internal/model"
)

// Default collations applied by MariaDB to string columns without an
// explicit collation.
const (
	DefaultCollationName                  = "utf8mb4_unicode_ci"
	DefaultCaseSensitiveCollationName     = "utf8mb4_bin"
	DefaultAnsiCollationName              = "utf8mb3_unicode_ci"
	DefaultAnsiCaseSensitiveCollationName = "utf8mb3_bin"
)

// Column renders MySQL column definitions. The primary key is always emitted
// as a table-level PRIMARY KEY (...) clause without a constraint name, since
// MySQL names every primary key PRIMARY.
type Column struct {
	*generator.Column
}

// NewColumn returns the MySQL 4/5 column formatter.
func NewColumn(typeMap generator.TypeMapper, quoter *generator.Quoter) *Column {
	c := &Column{Column: generator.NewColumn(typeMap, quoter)}
	c.SeparatePrimaryKey = true
	c.NamedPrimaryKey = false
	c.Clauses = []generator.Clause{
		c.FormatName,
		c.FormatType,
		c.FormatCollation,
		c.FormatGenerated,
		c.FormatNullable,
		c.FormatDefault,
		c.FormatIdentity,
		c.FormatDescription,
		c.FormatPrimaryKey,
	}
	return c
}

// NewMySQL8Column returns the MySQL 8 formatter, which reads the fractional
// second precision of TIME columns from Precision when no Size is given.
func NewMySQL8Column(typeMap generator.TypeMapper, quoter *generator.Quoter) *Column {
	c := NewColumn(typeMap, quoter)
	c.Clauses[1] = c.formatTimePrecisionType
	return c
}

// NewMariaDBColumn returns the MariaDB formatter.
func NewMariaDBColumn(typeMap generator.TypeMapper, quoter *generator.Quoter) *Column {
	c := NewColumn(typeMap, quoter)
	c.Clauses[2] = c.formatDefaultCollation
	c.Clauses[4] = c.formatGeneratedNullable
	return c
}

// FormatGenerated renders GENERATED ALWAYS AS (expr) STORED|VIRTUAL.
func (c *Column) FormatGenerated(col *model.ColumnDefinition) (string, error) {
	if col.Generated == nil {
		return "", nil
	}
	kind := "VIRTUAL"
	if col.Generated.Stored {
		kind = "STORED"
	}
	return fmt.Sprintf("GENERATED ALWAYS AS (%s) %s", col.Generated.Expression, kind), nil
}

// FormatIdentity renders AUTO_INCREMENT.
func (c *Column) FormatIdentity(col *model.ColumnDefinition) (string, error) {
	if !col.IsIdentity {
		return "", nil
	}
	return "AUTO_INCREMENT", nil
}

// FormatDescription renders the column comment.
func (c *Column) FormatDescription(col *model.ColumnDefinition) (string, error) {
	if col.Description == "" {
		return "", nil
	}
	return "COMMENT " + c.Quoter.ValueQuote + c.Quoter.EscapeString(col.Description) + c.Quoter.ValueQuote, nil
}

func (c *Column) formatTimePrecisionType(col *model.ColumnDefinition) (string, error) {
	if col.Type != nil && *col.Type == model.Time && col.Size == nil && col.Precision != nil {
		return c.TypeMap.Get(model.Time, col.Precision, nil)
	}
	return c.FormatType(col)
}

func (c *Column) formatGeneratedNullable(col *model.ColumnDefinition) (string, error) {
	if col.Generated == nil {
		return c.FormatNullable(col)
	}
	if col.IsNullable != nil {
		return "", fmt.Errorf("%w: MariaDB does not support nullable/non-nullable generated columns", generator.ErrNotSupported)
	}
	return "", nil
}

func (c *Column) formatDefaultCollation(col *model.ColumnDefinition) (string, error) {
	name := col.CollationName
	if name == "" && col.Type != nil {
		name = DefaultCollation(*col.Type, col.CaseSensitive)
	}
	if name == "" {
		return "", nil
	}
	return "COLLATE " + name, nil
}

// DefaultCollation returns the MariaDB collation for a string type, or ""
// for types that do not take one.
func DefaultCollation(t model.DbType, caseSensitive bool) string {
	switch t {
	case model.String, model.StringFixedLength:
		if caseSensitive {
			return DefaultCaseSensitiveCollationName
		}
		return DefaultCollationName
	case model.AnsiString, model.AnsiStringFixedLength:
		if caseSensitive {
			return DefaultAnsiCaseSensitiveCollationName
		}
		return DefaultAnsiCollationName
	}
	return ""
}
