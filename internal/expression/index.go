package expression

import (
	"github.com/johndauphine/mariadb-migrate/internal/model"
)

// CreateIndex creates an index.
type CreateIndex struct {
	Index *model.IndexDefinition
}

func (e *CreateIndex) Validate() []error {
	var errs []error
	if e.Index.TableName == "" {
		errs = append(errs, ErrTableNameMissing)
	}
	if e.Index.Name == "" {
		errs = append(errs, ErrIndexNameMissing)
	}
	if len(e.Index.Columns) == 0 {
		errs = append(errs, ErrColumnsMissing)
	}
	return errs
}

func (e *CreateIndex) Reverse() (Expression, error) {
	return &DeleteIndex{Index: e.Index.Clone()}, nil
}

func (e *CreateIndex) String() string                  { return "CreateIndex " + e.Index.Name }
func (e *CreateIndex) IndexDef() *model.IndexDefinition { return e.Index }
func (e *CreateIndex) Schema() string                  { return e.Index.SchemaName }
func (e *CreateIndex) SetSchema(name string)           { e.Index.SchemaName = name }

// DeleteIndex drops an index.
type DeleteIndex struct {
	Index *model.IndexDefinition
}

func (e *DeleteIndex) Validate() []error {
	var errs []error
	if e.Index.TableName == "" {
		errs = append(errs, ErrTableNameMissing)
	}
	if e.Index.Name == "" {
		errs = append(errs, ErrIndexNameMissing)
	}
	return errs
}

func (e *DeleteIndex) Reverse() (Expression, error)    { return irreversible(e) }
func (e *DeleteIndex) String() string                  { return "DeleteIndex " + e.Index.Name }
func (e *DeleteIndex) IndexDef() *model.IndexDefinition { return e.Index }
func (e *DeleteIndex) Schema() string                  { return e.Index.SchemaName }
func (e *DeleteIndex) SetSchema(name string)           { e.Index.SchemaName = name }

// CreateForeignKey adds a foreign key to the foreign table.
type CreateForeignKey struct {
	ForeignKey *model.ForeignKeyDefinition
}

func (e *CreateForeignKey) Validate() []error {
	var errs []error
	fk := e.ForeignKey
	if fk.ForeignTable == "" || fk.PrimaryTable == "" {
		errs = append(errs, ErrTableNameMissing)
	}
	if fk.Name == "" {
		errs = append(errs, ErrForeignKeyNameMissing)
	}
	if len(fk.ForeignColumns) == 0 || len(fk.PrimaryColumns) == 0 {
		errs = append(errs, ErrColumnsMissing)
	}
	return errs
}

func (e *CreateForeignKey) Reverse() (Expression, error) {
	return &DeleteForeignKey{ForeignKey: e.ForeignKey.Clone()}, nil
}

func (e *CreateForeignKey) String() string                           { return "CreateForeignKey " + e.ForeignKey.Name }
func (e *CreateForeignKey) ForeignKeyDef() *model.ForeignKeyDefinition { return e.ForeignKey }
func (e *CreateForeignKey) Schema() string                           { return e.ForeignKey.ForeignTableSchema }

func (e *CreateForeignKey) SetSchema(name string) {
	e.ForeignKey.ForeignTableSchema = name
	if e.ForeignKey.PrimaryTableSchema == "" {
		e.ForeignKey.PrimaryTableSchema = name
	}
}

// DeleteForeignKey drops a foreign key from the foreign table.
type DeleteForeignKey struct {
	ForeignKey *model.ForeignKeyDefinition
}

func (e *DeleteForeignKey) Validate() []error {
	var errs []error
	if e.ForeignKey.ForeignTable == "" {
		errs = append(errs, ErrTableNameMissing)
	}
	if e.ForeignKey.Name == "" {
		errs = append(errs, ErrForeignKeyNameMissing)
	}
	return errs
}

func (e *DeleteForeignKey) Reverse() (Expression, error)             { return irreversible(e) }
func (e *DeleteForeignKey) String() string                           { return "DeleteForeignKey " + e.ForeignKey.Name }
func (e *DeleteForeignKey) ForeignKeyDef() *model.ForeignKeyDefinition { return e.ForeignKey }
func (e *DeleteForeignKey) Schema() string                           { return e.ForeignKey.ForeignTableSchema }
func (e *DeleteForeignKey) SetSchema(name string)                    { e.ForeignKey.ForeignTableSchema = name }

// CreateConstraint adds a primary key or unique constraint.
type CreateConstraint struct {
	Constraint *model.ConstraintDefinition
}

func (e *CreateConstraint) Validate() []error {
	var errs []error
	if e.Constraint.TableName == "" {
		errs = append(errs, ErrTableNameMissing)
	}
	if len(e.Constraint.Columns) == 0 {
		errs = append(errs, ErrColumnsMissing)
	}
	return errs
}

func (e *CreateConstraint) Reverse() (Expression, error) {
	return &DeleteConstraint{Constraint: e.Constraint.Clone()}, nil
}

func (e *CreateConstraint) String() string {
	return "CreateConstraint " + qualified(e.Constraint.TableName, e.Constraint.ConstraintName)
}

func (e *CreateConstraint) ConstraintDef() *model.ConstraintDefinition { return e.Constraint }
func (e *CreateConstraint) Schema() string                             { return e.Constraint.SchemaName }
func (e *CreateConstraint) SetSchema(name string)                      { e.Constraint.SchemaName = name }

// DeleteConstraint drops a primary key or unique constraint.
type DeleteConstraint struct {
	Constraint *model.ConstraintDefinition
}

func (e *DeleteConstraint) Validate() []error {
	if e.Constraint.TableName == "" {
		return []error{ErrTableNameMissing}
	}
	return nil
}

func (e *DeleteConstraint) Reverse() (Expression, error) { return irreversible(e) }

func (e *DeleteConstraint) String() string {
	return "DeleteConstraint " + qualified(e.Constraint.TableName, e.Constraint.ConstraintName)
}

func (e *DeleteConstraint) ConstraintDef() *model.ConstraintDefinition { return e.Constraint }
func (e *DeleteConstraint) Schema() string                             { return e.Constraint.SchemaName }
func (e *DeleteConstraint) SetSchema(name string)                      { e.Constraint.SchemaName = name }
