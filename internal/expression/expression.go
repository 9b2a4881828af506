// Package expression holds one type per schema operation a migration can
// perform. Expressions are plain data: generators turn them into SQL and
// conventions fill in names that were left empty.
package expression

import (
	"errors"
	"fmt"

	"github.com/johndauphine/mariadb-migrate/internal/model"
)

// Validation and reversal errors.
var (
	ErrTableNameMissing      = errors.New("table name missing")
	ErrColumnNameMissing     = errors.New("column name missing")
	ErrColumnsMissing        = errors.New("you must specify at least one column")
	ErrIndexNameMissing      = errors.New("index name missing")
	ErrForeignKeyNameMissing = errors.New("foreign key name missing")
	ErrSchemaNameMissing     = errors.New("schema name missing")
	ErrSequenceNameMissing   = errors.New("sequence name missing")
	ErrSQLMissing            = errors.New("sql statement missing")
	ErrIrreversible          = errors.New("expression cannot be reversed")
)

// Expression is a single schema or data change.
type Expression interface {
	// Validate returns every problem found; nil means the expression is usable.
	Validate() []error
	// Reverse returns the expression that undoes this one.
	Reverse() (Expression, error)
	String() string
}

// SchemaExpression is implemented by expressions that live in a schema.
type SchemaExpression interface {
	Expression
	Schema() string
	SetSchema(name string)
}

// ColumnsExpression exposes the column definitions of an expression.
type ColumnsExpression interface {
	Expression
	TableColumns() []*model.ColumnDefinition
}

// ConstraintExpression exposes a constraint definition.
type ConstraintExpression interface {
	Expression
	ConstraintDef() *model.ConstraintDefinition
}

// ForeignKeyExpression exposes a foreign key definition.
type ForeignKeyExpression interface {
	Expression
	ForeignKeyDef() *model.ForeignKeyDefinition
}

// IndexExpression exposes an index definition.
type IndexExpression interface {
	Expression
	IndexDef() *model.IndexDefinition
}

// SequenceExpression exposes a sequence definition.
type SequenceExpression interface {
	Expression
	SequenceDef() *model.SequenceDefinition
}

// Join flattens validation results into one error, or nil.
func Join(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

// ValidateAll validates each expression, prefixing errors with the expression.
func ValidateAll(exprs []Expression) error {
	var all []error
	for _, e := range exprs {
		for _, err := range e.Validate() {
			all = append(all, fmt.Errorf("%s: %w", e, err))
		}
	}
	return Join(all)
}

// ReverseAll returns the reversed expressions in reverse order. It fails on
// the first expression that cannot be reversed.
func ReverseAll(exprs []Expression) ([]Expression, error) {
	out := make([]Expression, 0, len(exprs))
	for i := len(exprs) - 1; i >= 0; i-- {
		r, err := exprs[i].Reverse()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", exprs[i], err)
		}
		out = append(out, r)
	}
	return out, nil
}

func irreversible(e Expression) (Expression, error) {
	return nil, fmt.Errorf("%s: %w", e, ErrIrreversible)
}

func qualified(schema, name string) string {
	if schema == "" {
		return name
	}
	return schema + "." + name
}
