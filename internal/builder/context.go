// Package builder provides the fluent API migrations use to describe schema
// changes. Every call appends expressions to a Context; nothing touches the
// database until a runner processes them.
package builder

import (
	"errors"
	"fmt"
	"os"

	"github.com/johndauphine/mariadb-migrate/internal/conventions"
	"github.com/johndauphine/mariadb-migrate/internal/expression"
)

// ErrNoForeignKey is recorded when a rule is set before any foreign key.
var ErrNoForeignKey = errors.New("no foreign key to apply the rule to")

// Context collects the expressions of one migration direction.
type Context struct {
	// Root resolves relative script paths.
	Root conventions.RootPath

	expressions []expression.Expression
	errs        []error
}

// NewContext returns an empty context resolving scripts against dir.
func NewContext(dir string) *Context {
	return &Context{Root: conventions.RootPath{Dir: dir}}
}

// Add appends e.
func (c *Context) Add(e expression.Expression) {
	c.expressions = append(c.expressions, e)
}

// Expressions returns the collected expressions in call order.
func (c *Context) Expressions() []expression.Expression {
	return c.expressions
}

// Err returns the problems recorded while building, or nil.
func (c *Context) Err() error {
	return errors.Join(c.errs...)
}

// Fail records a problem found while building. Err reports it and the
// runner refuses to execute the migration.
func (c *Context) Fail(err error) {
	c.errs = append(c.errs, err)
}

func (c *Context) fail(err error) { c.Fail(err) }

// Create starts a create statement.
func (c *Context) Create() *CreateRoot { return &CreateRoot{ctx: c} }

// Alter starts an alter statement.
func (c *Context) Alter() *AlterRoot { return &AlterRoot{ctx: c} }

// Delete starts a delete statement.
func (c *Context) Delete() *DeleteRoot { return &DeleteRoot{ctx: c} }

// Rename starts a rename statement.
func (c *Context) Rename() *RenameRoot { return &RenameRoot{ctx: c} }

// Insert starts an insert statement.
func (c *Context) Insert() *InsertRoot { return &InsertRoot{ctx: c} }

// Update starts an update statement.
func (c *Context) Update() *UpdateRoot { return &UpdateRoot{ctx: c} }

// Execute starts a raw SQL statement.
func (c *Context) Execute() *ExecuteRoot { return &ExecuteRoot{ctx: c} }

// ExecuteRoot adds raw SQL.
type ExecuteRoot struct {
	ctx *Context
}

// SQL runs stmt as-is.
func (r *ExecuteRoot) SQL(stmt string) {
	r.ctx.Add(&expression.ExecuteSQL{SQL: stmt})
}

// Script runs the contents of a SQL file. Relative paths are resolved
// against the context root.
func (r *ExecuteRoot) Script(path string) {
	resolved := r.ctx.Root.Resolve(path)
	data, err := os.ReadFile(resolved)
	if err != nil {
		r.ctx.fail(fmt.Errorf("reading script %s: %w", resolved, err))
		return
	}
	r.ctx.Add(&expression.ExecuteSQL{SQL: string(data)})
}
