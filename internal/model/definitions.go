package model

// IndexColumn is one column of an index with its sort direction.
type IndexColumn struct {
	Name       string
	Descending bool
}

// IndexDefinition describes an index on a table.
type IndexDefinition struct {
	Name       string
	SchemaName string
	TableName  string
	IsUnique   bool
	Columns    []IndexColumn
}

// Clone returns a deep copy of the index.
func (i *IndexDefinition) Clone() *IndexDefinition {
	cp := *i
	cp.Columns = append([]IndexColumn(nil), i.Columns...)
	return &cp
}

// ForeignKeyDefinition describes a foreign key between two tables. The
// foreign table holds the referencing columns.
type ForeignKeyDefinition struct {
	Name               string
	ForeignTable       string
	ForeignTableSchema string
	PrimaryTable       string
	PrimaryTableSchema string
	ForeignColumns     []string
	PrimaryColumns     []string
	OnDelete           Rule
	OnUpdate           Rule
}

// Clone returns a deep copy of the foreign key.
func (f *ForeignKeyDefinition) Clone() *ForeignKeyDefinition {
	cp := *f
	cp.ForeignColumns = append([]string(nil), f.ForeignColumns...)
	cp.PrimaryColumns = append([]string(nil), f.PrimaryColumns...)
	return &cp
}

// ConstraintType distinguishes primary key from unique constraints.
type ConstraintType int

const (
	PrimaryKeyConstraint ConstraintType = iota
	UniqueConstraint
)

// ConstraintDefinition describes a primary key or unique constraint.
type ConstraintDefinition struct {
	Type           ConstraintType
	ConstraintName string
	SchemaName     string
	TableName      string
	Columns        []string
}

// IsPrimaryKeyConstraint reports whether this is a primary key.
func (c *ConstraintDefinition) IsPrimaryKeyConstraint() bool {
	return c.Type == PrimaryKeyConstraint
}

// IsUniqueConstraint reports whether this is a unique constraint.
func (c *ConstraintDefinition) IsUniqueConstraint() bool {
	return c.Type == UniqueConstraint
}

// Clone returns a deep copy of the constraint.
func (c *ConstraintDefinition) Clone() *ConstraintDefinition {
	cp := *c
	cp.Columns = append([]string(nil), c.Columns...)
	return &cp
}

// SequenceDefinition describes a sequence object.
type SequenceDefinition struct {
	Name       string
	SchemaName string
	Increment  *int64
	MinValue   *int64
	MaxValue   *int64
	StartWith  *int64
	Cache      *int64
	Cycle      bool
}

// Long returns a pointer to n.
func Long(n int64) *int64 { return &n }
