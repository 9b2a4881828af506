// Package conventions fills in names and schemas that a migration left
// unspecified. Every convention is a pure function of the expression and only
// touches empty fields, so applying a set twice changes nothing.
package conventions

import (
	"path/filepath"

	"github.com/johndauphine/mariadb-migrate/internal/expression"
)

// ColumnsConvention adjusts the columns of an expression.
type ColumnsConvention interface {
	ApplyColumns(e expression.ColumnsExpression)
}

// ConstraintConvention adjusts a constraint definition.
type ConstraintConvention interface {
	ApplyConstraint(e expression.ConstraintExpression)
}

// ForeignKeyConvention adjusts a foreign key definition.
type ForeignKeyConvention interface {
	ApplyForeignKey(e expression.ForeignKeyExpression)
}

// IndexConvention adjusts an index definition.
type IndexConvention interface {
	ApplyIndex(e expression.IndexExpression)
}

// SequenceConvention adjusts a sequence definition.
type SequenceConvention interface {
	ApplySequence(e expression.SequenceExpression)
}

// Set groups the conventions applied to every expression before generation.
type Set struct {
	Columns     []ColumnsConvention
	Constraints []ConstraintConvention
	ForeignKeys []ForeignKeyConvention
	Indexes     []IndexConvention
	Sequences   []SequenceConvention
	Schema      *DefaultSchema
	RootPath    RootPath
}

// Apply runs every convention that matches the expression's capabilities.
// The expression is modified in place and returned for chaining.
func (s *Set) Apply(e expression.Expression) expression.Expression {
	if ce, ok := e.(expression.ColumnsExpression); ok {
		for _, c := range s.Columns {
			c.ApplyColumns(ce)
		}
	}
	if ce, ok := e.(expression.ConstraintExpression); ok {
		for _, c := range s.Constraints {
			c.ApplyConstraint(ce)
		}
	}
	if fe, ok := e.(expression.ForeignKeyExpression); ok {
		for _, c := range s.ForeignKeys {
			c.ApplyForeignKey(fe)
		}
	}
	if ie, ok := e.(expression.IndexExpression); ok {
		for _, c := range s.Indexes {
			c.ApplyIndex(ie)
		}
	}
	if se, ok := e.(expression.SequenceExpression); ok {
		for _, c := range s.Sequences {
			c.ApplySequence(se)
		}
	}
	if s.Schema != nil {
		s.Schema.ApplySchema(e)
	}
	return e
}

// ApplyAll applies the set to each expression.
func (s *Set) ApplyAll(exprs []expression.Expression) {
	for _, e := range exprs {
		s.Apply(e)
	}
}

// NewMySQLSet returns the default conventions for the MySQL family.
// defaultSchema may be empty, in which case expressions keep their schema.
func NewMySQLSet(defaultSchema, workingDirectory string) *Set {
	schema := NewDefaultSchema(defaultSchema)
	return &Set{
		Columns:     []ColumnsConvention{PrimaryKeyName{}},
		Constraints: []ConstraintConvention{ConstraintName{}, schema},
		ForeignKeys: []ForeignKeyConvention{ForeignKeyName{}, schema},
		Indexes:     []IndexConvention{IndexName{}, schema},
		Sequences:   []SequenceConvention{schema},
		Schema:      schema,
		RootPath:    RootPath{Dir: workingDirectory},
	}
}

// RootPath resolves relative paths (such as SQL script files) against the
// migration working directory.
type RootPath struct {
	Dir string
}

// Resolve returns path unchanged when it is absolute or no directory is set.
func (r RootPath) Resolve(path string) string {
	if r.Dir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(r.Dir, path)
}
