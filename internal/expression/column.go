package expression

import (
	"strings"

	"github.com/johndauphine/mariadb-migrate/internal/model"
)

// CreateColumn adds a column to an existing table.
type CreateColumn struct {
	SchemaName string
	TableName  string
	Column     *model.ColumnDefinition
}

func (e *CreateColumn) Validate() []error {
	var errs []error
	if e.TableName == "" {
		errs = append(errs, ErrTableNameMissing)
	}
	if e.Column == nil || e.Column.Name == "" {
		errs = append(errs, ErrColumnNameMissing)
	}
	return errs
}

func (e *CreateColumn) Reverse() (Expression, error) {
	return &DeleteColumn{SchemaName: e.SchemaName, TableName: e.TableName, ColumnNames: []string{e.Column.Name}}, nil
}

func (e *CreateColumn) String() string {
	return "CreateColumn " + qualified(e.SchemaName, e.TableName) + " " + columnName(e.Column)
}

func (e *CreateColumn) Schema() string        { return e.SchemaName }
func (e *CreateColumn) SetSchema(name string) { e.SchemaName = name }

func (e *CreateColumn) TableColumns() []*model.ColumnDefinition {
	if e.Column == nil {
		return nil
	}
	return []*model.ColumnDefinition{e.Column}
}

// AlterColumn replaces the definition of an existing column.
type AlterColumn struct {
	SchemaName string
	TableName  string
	Column     *model.ColumnDefinition
}

func (e *AlterColumn) Validate() []error {
	var errs []error
	if e.TableName == "" {
		errs = append(errs, ErrTableNameMissing)
	}
	if e.Column == nil || e.Column.Name == "" {
		errs = append(errs, ErrColumnNameMissing)
	}
	return errs
}

func (e *AlterColumn) Reverse() (Expression, error) { return irreversible(e) }

func (e *AlterColumn) String() string {
	return "AlterColumn " + qualified(e.SchemaName, e.TableName) + " " + columnName(e.Column)
}

func (e *AlterColumn) Schema() string        { return e.SchemaName }
func (e *AlterColumn) SetSchema(name string) { e.SchemaName = name }

// DeleteColumn drops one or more columns.
type DeleteColumn struct {
	SchemaName  string
	TableName   string
	ColumnNames []string
}

func (e *DeleteColumn) Validate() []error {
	var errs []error
	if e.TableName == "" {
		errs = append(errs, ErrTableNameMissing)
	}
	if len(e.ColumnNames) == 0 {
		errs = append(errs, ErrColumnNameMissing)
	}
	for _, n := range e.ColumnNames {
		if n == "" {
			errs = append(errs, ErrColumnNameMissing)
			break
		}
	}
	return errs
}

func (e *DeleteColumn) Reverse() (Expression, error) { return irreversible(e) }

func (e *DeleteColumn) String() string {
	return "DeleteColumn " + qualified(e.SchemaName, e.TableName) + " " + strings.Join(e.ColumnNames, ", ")
}

func (e *DeleteColumn) Schema() string        { return e.SchemaName }
func (e *DeleteColumn) SetSchema(name string) { e.SchemaName = name }

// RenameColumn renames a column.
type RenameColumn struct {
	SchemaName string
	TableName  string
	OldName    string
	NewName    string
}

func (e *RenameColumn) Validate() []error {
	var errs []error
	if e.TableName == "" {
		errs = append(errs, ErrTableNameMissing)
	}
	if e.OldName == "" || e.NewName == "" {
		errs = append(errs, ErrColumnNameMissing)
	}
	return errs
}

func (e *RenameColumn) Reverse() (Expression, error) {
	return &RenameColumn{SchemaName: e.SchemaName, TableName: e.TableName, OldName: e.NewName, NewName: e.OldName}, nil
}

func (e *RenameColumn) String() string {
	return "RenameColumn " + qualified(e.SchemaName, e.TableName) + " " + e.OldName + " to " + e.NewName
}

func (e *RenameColumn) Schema() string        { return e.SchemaName }
func (e *RenameColumn) SetSchema(name string) { e.SchemaName = name }

// AlterDefaultConstraint sets the default value of a column.
type AlterDefaultConstraint struct {
	SchemaName   string
	TableName    string
	ColumnName   string
	DefaultValue any
}

func (e *AlterDefaultConstraint) Validate() []error {
	var errs []error
	if e.TableName == "" {
		errs = append(errs, ErrTableNameMissing)
	}
	if e.ColumnName == "" {
		errs = append(errs, ErrColumnNameMissing)
	}
	return errs
}

func (e *AlterDefaultConstraint) Reverse() (Expression, error) { return irreversible(e) }

func (e *AlterDefaultConstraint) String() string {
	return "AlterDefaultConstraint " + qualified(e.SchemaName, e.TableName) + " " + e.ColumnName
}

func (e *AlterDefaultConstraint) Schema() string        { return e.SchemaName }
func (e *AlterDefaultConstraint) SetSchema(name string) { e.SchemaName = name }

// DeleteDefaultConstraint removes the default value of a column.
type DeleteDefaultConstraint struct {
	SchemaName string
	TableName  string
	ColumnName string
}

func (e *DeleteDefaultConstraint) Validate() []error {
	var errs []error
	if e.TableName == "" {
		errs = append(errs, ErrTableNameMissing)
	}
	if e.ColumnName == "" {
		errs = append(errs, ErrColumnNameMissing)
	}
	return errs
}

func (e *DeleteDefaultConstraint) Reverse() (Expression, error) { return irreversible(e) }

func (e *DeleteDefaultConstraint) String() string {
	return "DeleteDefaultConstraint " + qualified(e.SchemaName, e.TableName) + " " + e.ColumnName
}

func (e *DeleteDefaultConstraint) Schema() string        { return e.SchemaName }
func (e *DeleteDefaultConstraint) SetSchema(name string) { e.SchemaName = name }

func columnName(c *model.ColumnDefinition) string {
	if c == nil {
		return ""
	}
	return c.Name
}
