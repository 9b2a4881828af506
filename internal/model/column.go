package model

import "time"

// ColumnDefinition describes a single column of a table.
type ColumnDefinition struct {
	Name      string
	TableName string

	// Type is nil when CustomType is used instead.
	Type       *DbType
	CustomType string
	Size       *int
	Precision  *int

	CollationName string
	CaseSensitive bool

	// IsNullable is tri-state: nil leaves the nullability to the dialect.
	IsNullable *bool

	// DefaultValue is nil when no default is set. Use NullValue for DEFAULT NULL.
	DefaultValue any

	IsIdentity     bool
	IsPrimaryKey   bool
	PrimaryKeyName string
	IsUnique       bool
	IsIndexed      bool
	IsForeignKey   bool
	ForeignKey     *ForeignKeyDefinition
	Description    string

	Generated *GeneratedColumn

	// AdditionalFeatures carries dialect-specific settings such as identity seeds.
	AdditionalFeatures map[string]any
}

// GeneratedColumn is a computed column expression.
type GeneratedColumn struct {
	Expression string
	Stored     bool
}

// ModificationType distinguishes create from alter when rendering columns.
type ModificationType int

const (
	ColumnCreate ModificationType = iota
	ColumnAlter
)

// Additional feature keys recognised by the builders.
const (
	IdentitySeed      = "IdentitySeed"
	IdentityIncrement = "IdentityIncrement"
)

// ColumnDataType is the type portion of a column, used by AsColumnDataType.
type ColumnDataType struct {
	Type          *DbType
	CustomType    string
	Size          *int
	Precision     *int
	CollationName string
}

// Int returns a pointer to n.
func Int(n int) *int { return &n }

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }

// Type returns a pointer to t.
func Type(t DbType) *DbType { return &t }

// SetFeature records a dialect-specific setting on the column.
func (c *ColumnDefinition) SetFeature(key string, value any) {
	if c.AdditionalFeatures == nil {
		c.AdditionalFeatures = make(map[string]any)
	}
	c.AdditionalFeatures[key] = value
}

// Clone returns a deep copy of the column.
func (c *ColumnDefinition) Clone() *ColumnDefinition {
	cp := *c
	if c.Type != nil {
		cp.Type = Type(*c.Type)
	}
	if c.Size != nil {
		cp.Size = Int(*c.Size)
	}
	if c.Precision != nil {
		cp.Precision = Int(*c.Precision)
	}
	if c.IsNullable != nil {
		cp.IsNullable = Bool(*c.IsNullable)
	}
	if c.ForeignKey != nil {
		cp.ForeignKey = c.ForeignKey.Clone()
	}
	if c.Generated != nil {
		g := *c.Generated
		cp.Generated = &g
	}
	if c.AdditionalFeatures != nil {
		cp.AdditionalFeatures = make(map[string]any, len(c.AdditionalFeatures))
		for k, v := range c.AdditionalFeatures {
			cp.AdditionalFeatures[k] = v
		}
	}
	return &cp
}

// Null renders as SQL NULL wherever a value is expected.
type Null struct{}

// NullValue is an explicit SQL NULL, distinct from "no value".
var NullValue = Null{}

// RawSQL is inserted verbatim instead of being quoted as a literal.
type RawSQL string

// TimeOfDay is a wall-clock time without a date.
type TimeOfDay struct {
	Hour, Minute, Second, Nanosecond int
}

// TimeOfDayOf extracts the wall-clock portion of t.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second(), Nanosecond: t.Nanosecond()}
}

// Time returns the time of day on the zero date in UTC.
func (t TimeOfDay) Time() time.Time {
	return time.Date(0, 1, 1, t.Hour, t.Minute, t.Second, t.Nanosecond, time.UTC)
}
