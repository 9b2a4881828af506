package expression

import (
	"strings"

	"github.com/johndauphine/mariadb-migrate/internal/model"
)

// CreateSequence creates a sequence.
type CreateSequence struct {
	Sequence *model.SequenceDefinition
}

func (e *CreateSequence) Validate() []error {
	if e.Sequence.Name == "" {
		return []error{ErrSequenceNameMissing}
	}
	return nil
}

func (e *CreateSequence) Reverse() (Expression, error) {
	return &DeleteSequence{SchemaName: e.Sequence.SchemaName, SequenceName: e.Sequence.Name}, nil
}

func (e *CreateSequence) String() string {
	return "CreateSequence " + qualified(e.Sequence.SchemaName, e.Sequence.Name)
}

func (e *CreateSequence) SequenceDef() *model.SequenceDefinition { return e.Sequence }
func (e *CreateSequence) Schema() string                         { return e.Sequence.SchemaName }
func (e *CreateSequence) SetSchema(name string)                  { e.Sequence.SchemaName = name }

// DeleteSequence drops a sequence.
type DeleteSequence struct {
	SchemaName   string
	SequenceName string
}

func (e *DeleteSequence) Validate() []error {
	if e.SequenceName == "" {
		return []error{ErrSequenceNameMissing}
	}
	return nil
}

func (e *DeleteSequence) Reverse() (Expression, error) { return irreversible(e) }

func (e *DeleteSequence) String() string {
	return "DeleteSequence " + qualified(e.SchemaName, e.SequenceName)
}

func (e *DeleteSequence) Schema() string        { return e.SchemaName }
func (e *DeleteSequence) SetSchema(name string) { e.SchemaName = name }

// ExecuteSQL runs a raw statement.
type ExecuteSQL struct {
	SQL string
}

func (e *ExecuteSQL) Validate() []error {
	if strings.TrimSpace(e.SQL) == "" {
		return []error{ErrSQLMissing}
	}
	return nil
}

func (e *ExecuteSQL) Reverse() (Expression, error) { return irreversible(e) }

func (e *ExecuteSQL) String() string {
	s := strings.Join(strings.Fields(e.SQL), " ")
	if len(s) > 60 {
		s = s[:57] + "..."
	}
	return "ExecuteSQL " + s
}

// ColumnValue pairs a column with a value. Rows keep column order so the
// generated INSERT lists columns the way they were declared.
type ColumnValue struct {
	Column string
	Value  any
}

// Row is an ordered list of column values.
type Row []ColumnValue

// Columns returns the column names of the row.
func (r Row) Columns() []string {
	names := make([]string, len(r))
	for i, cv := range r {
		names[i] = cv.Column
	}
	return names
}

// InsertData inserts rows into a table.
type InsertData struct {
	SchemaName string
	TableName  string
	Rows       []Row
}

func (e *InsertData) Validate() []error {
	if e.TableName == "" {
		return []error{ErrTableNameMissing}
	}
	return nil
}

// Reverse deletes the inserted rows by matching every inserted column.
func (e *InsertData) Reverse() (Expression, error) {
	rows := make([]Row, len(e.Rows))
	copy(rows, e.Rows)
	return &DeleteData{SchemaName: e.SchemaName, TableName: e.TableName, Rows: rows}, nil
}

func (e *InsertData) String() string        { return "InsertData " + qualified(e.SchemaName, e.TableName) }
func (e *InsertData) Schema() string        { return e.SchemaName }
func (e *InsertData) SetSchema(name string) { e.SchemaName = name }

// UpdateData updates rows matching Where, or every row when AllRows is set.
type UpdateData struct {
	SchemaName string
	TableName  string
	Set        Row
	Where      Row
	AllRows    bool
}

func (e *UpdateData) Validate() []error {
	var errs []error
	if e.TableName == "" {
		errs = append(errs, ErrTableNameMissing)
	}
	if len(e.Set) == 0 {
		errs = append(errs, ErrColumnsMissing)
	}
	return errs
}

func (e *UpdateData) Reverse() (Expression, error) { return irreversible(e) }
func (e *UpdateData) String() string                { return "UpdateData " + qualified(e.SchemaName, e.TableName) }
func (e *UpdateData) Schema() string                { return e.SchemaName }
func (e *UpdateData) SetSchema(name string)         { e.SchemaName = name }

// DeleteData deletes rows matching any of Rows, or every row when AllRows is set.
type DeleteData struct {
	SchemaName string
	TableName  string
	Rows       []Row
	AllRows    bool
}

func (e *DeleteData) Validate() []error {
	if e.TableName == "" {
		return []error{ErrTableNameMissing}
	}
	return nil
}

func (e *DeleteData) Reverse() (Expression, error) { return irreversible(e) }
func (e *DeleteData) String() string                { return "DeleteData " + qualified(e.SchemaName, e.TableName) }
func (e *DeleteData) Schema() string                { return e.SchemaName }
func (e *DeleteData) SetSchema(name string)         { e.SchemaName = name }
