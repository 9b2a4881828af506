package expression

import (
	"github.com/johndauphine/mariadb-migrate/internal/model"
)

// CreateSchema creates a schema.
type CreateSchema struct {
	SchemaName string
}

func (e *CreateSchema) Validate() []error {
	if e.SchemaName == "" {
		return []error{ErrSchemaNameMissing}
	}
	return nil
}

func (e *CreateSchema) Reverse() (Expression, error) {
	return &DeleteSchema{SchemaName: e.SchemaName}, nil
}

func (e *CreateSchema) String() string { return "CreateSchema " + e.SchemaName }

// DeleteSchema drops a schema.
type DeleteSchema struct {
	SchemaName string
}

func (e *DeleteSchema) Validate() []error {
	if e.SchemaName == "" {
		return []error{ErrSchemaNameMissing}
	}
	return nil
}

func (e *DeleteSchema) Reverse() (Expression, error) { return irreversible(e) }
func (e *DeleteSchema) String() string                { return "DeleteSchema " + e.SchemaName }

// CreateTable creates a table with its columns.
type CreateTable struct {
	SchemaName  string
	TableName   string
	Description string
	Columns     []*model.ColumnDefinition
}

func (e *CreateTable) Validate() []error {
	var errs []error
	if e.TableName == "" {
		errs = append(errs, ErrTableNameMissing)
	}
	if len(e.Columns) == 0 {
		errs = append(errs, ErrColumnsMissing)
	}
	for _, c := range e.Columns {
		if c.Name == "" {
			errs = append(errs, ErrColumnNameMissing)
		}
	}
	return errs
}

func (e *CreateTable) Reverse() (Expression, error) {
	return &DeleteTable{SchemaName: e.SchemaName, TableName: e.TableName}, nil
}

func (e *CreateTable) String() string { return "CreateTable " + qualified(e.SchemaName, e.TableName) }

func (e *CreateTable) Schema() string        { return e.SchemaName }
func (e *CreateTable) SetSchema(name string) { e.SchemaName = name }

func (e *CreateTable) TableColumns() []*model.ColumnDefinition { return e.Columns }

// AlterTable changes table-level attributes such as the description.
type AlterTable struct {
	SchemaName  string
	TableName   string
	Description string
}

func (e *AlterTable) Validate() []error {
	if e.TableName == "" {
		return []error{ErrTableNameMissing}
	}
	return nil
}

func (e *AlterTable) Reverse() (Expression, error) { return irreversible(e) }
func (e *AlterTable) String() string                { return "AlterTable " + qualified(e.SchemaName, e.TableName) }
func (e *AlterTable) Schema() string                { return e.SchemaName }
func (e *AlterTable) SetSchema(name string)         { e.SchemaName = name }

// DeleteTable drops a table.
type DeleteTable struct {
	SchemaName string
	TableName  string
	IfExists   bool
}

func (e *DeleteTable) Validate() []error {
	if e.TableName == "" {
		return []error{ErrTableNameMissing}
	}
	return nil
}

func (e *DeleteTable) Reverse() (Expression, error) { return irreversible(e) }
func (e *DeleteTable) String() string                { return "DeleteTable " + qualified(e.SchemaName, e.TableName) }
func (e *DeleteTable) Schema() string                { return e.SchemaName }
func (e *DeleteTable) SetSchema(name string)         { e.SchemaName = name }

// RenameTable renames a table.
type RenameTable struct {
	SchemaName string
	OldName    string
	NewName    string
}

func (e *RenameTable) Validate() []error {
	if e.OldName == "" || e.NewName == "" {
		return []error{ErrTableNameMissing}
	}
	return nil
}

func (e *RenameTable) Reverse() (Expression, error) {
	return &RenameTable{SchemaName: e.SchemaName, OldName: e.NewName, NewName: e.OldName}, nil
}

func (e *RenameTable) String() string {
	return "RenameTable " + qualified(e.SchemaName, e.OldName) + " " + e.NewName
}

func (e *RenameTable) Schema() string        { return e.SchemaName }
func (e *RenameTable) SetSchema(name string) { e.SchemaName = name }
