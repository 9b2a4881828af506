// Package migrations loads migrations written as YAML files. Each file
// describes one version as a list of steps that are replayed through the
// builder, so YAML migrations get the same conventions, validation and
// reversal as migrations written in Go.
package migrations

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/johndauphine/mariadb-migrate/internal/builder"
	"github.com/johndauphine/mariadb-migrate/internal/logging"
	"github.com/johndauphine/mariadb-migrate/internal/runner"
)

// ErrDuplicateVersion is returned when two files declare the same version.
var ErrDuplicateVersion = errors.New("duplicate migration version")

var fileNamePattern = regexp.MustCompile(`^(\d+)[_\-. ]*(.*)$`)

// File is one YAML migration.
type File struct {
	Version     int64    `yaml:"version"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags,omitempty"`
	Up          []Step   `yaml:"up"`
	// Down is nil when the file has no down key; the migration is then
	// reversed automatically.
	Down []Step `yaml:"down,omitempty"`

	Path string `yaml:"-"`
}

// AutoReversing reports whether the file derives Down from Up.
func (f *File) AutoReversing() bool { return f.Down == nil }

// Step is one schema change. Exactly one field is set.
type Step struct {
	CreateTable      *TableStep        `yaml:"create_table,omitempty"`
	AlterTable       *TableStep        `yaml:"alter_table,omitempty"`
	DeleteTable      *NamedStep        `yaml:"delete_table,omitempty"`
	RenameTable      *RenameStep       `yaml:"rename_table,omitempty"`
	CreateColumn     *ColumnStep       `yaml:"create_column,omitempty"`
	DeleteColumn     *DeleteColumnStep `yaml:"delete_column,omitempty"`
	RenameColumn     *RenameStep       `yaml:"rename_column,omitempty"`
	CreateIndex      *IndexStep        `yaml:"create_index,omitempty"`
	DeleteIndex      *IndexStep        `yaml:"delete_index,omitempty"`
	CreateForeignKey *ForeignKeyStep   `yaml:"create_foreign_key,omitempty"`
	DeleteForeignKey *ForeignKeyStep   `yaml:"delete_foreign_key,omitempty"`
	CreateUnique     *ConstraintStep   `yaml:"create_unique,omitempty"`
	DeleteConstraint *ConstraintStep   `yaml:"delete_constraint,omitempty"`
	CreateSequence   *SequenceStep     `yaml:"create_sequence,omitempty"`
	DeleteSequence   *NamedStep        `yaml:"delete_sequence,omitempty"`
	Insert           *InsertStep       `yaml:"insert,omitempty"`
	SQL              *SQLStep          `yaml:"sql,omitempty"`
}

// Kind returns the name of the step's single set field.
func (s *Step) Kind() (string, error) {
	v := reflect.ValueOf(*s)
	t := v.Type()
	var kinds []string
	for i := 0; i < v.NumField(); i++ {
		if !v.Field(i).IsNil() {
			kinds = append(kinds, strings.Split(t.Field(i).Tag.Get("yaml"), ",")[0])
		}
	}
	switch len(kinds) {
	case 0:
		return "", errors.New("empty step")
	case 1:
		return kinds[0], nil
	}
	return "", fmt.Errorf("step sets %s; use one per list item", strings.Join(kinds, " and "))
}

// TableStep creates or alters a table. Create uses Columns; alter uses Add
// and Alter.
type TableStep struct {
	Name        string       `yaml:"name"`
	Schema      string       `yaml:"schema,omitempty"`
	Description string       `yaml:"description,omitempty"`
	Columns     []ColumnSpec `yaml:"columns,omitempty"`
	Add         []ColumnSpec `yaml:"add,omitempty"`
	Alter       []ColumnSpec `yaml:"alter,omitempty"`
}

// NamedStep names a table or sequence to drop.
type NamedStep struct {
	Name     string `yaml:"name"`
	Schema   string `yaml:"schema,omitempty"`
	IfExists bool   `yaml:"if_exists,omitempty"`
}

// RenameStep renames a table, or a column when Table is set.
type RenameStep struct {
	Table  string `yaml:"table,omitempty"`
	Schema string `yaml:"schema,omitempty"`
	From   string `yaml:"from"`
	To     string `yaml:"to"`
}

// ColumnStep adds one column to an existing table.
type ColumnStep struct {
	Table      string `yaml:"table"`
	Schema     string `yaml:"schema,omitempty"`
	ColumnSpec `yaml:",inline"`
}

type DeleteColumnStep struct {
	Table   string   `yaml:"table"`
	Schema  string   `yaml:"schema,omitempty"`
	Columns []string `yaml:"columns"`
}

// ColumnSpec describes a column.
type ColumnSpec struct {
	Name string `yaml:"name"`
	// Type is a column type name such as string, int32, decimal or text.
	Type string `yaml:"type,omitempty"`
	// SQLType is a literal SQL type used instead of Type.
	SQLType   string `yaml:"sql_type,omitempty"`
	Size      *int   `yaml:"size,omitempty"`
	Precision *int   `yaml:"precision,omitempty"`
	Nullable  *bool  `yaml:"nullable,omitempty"`

	Default       any    `yaml:"default,omitempty"`
	DefaultNull   bool   `yaml:"default_null,omitempty"`
	DefaultMethod string `yaml:"default_method,omitempty"`

	PrimaryKey    bool       `yaml:"primary_key,omitempty"`
	Identity      bool       `yaml:"identity,omitempty"`
	Unique        bool       `yaml:"unique,omitempty"`
	Indexed       bool       `yaml:"indexed,omitempty"`
	Collation     string     `yaml:"collation,omitempty"`
	CaseSensitive bool       `yaml:"case_sensitive,omitempty"`
	Description   string     `yaml:"description,omitempty"`
	Generated     string     `yaml:"generated,omitempty"`
	Stored        bool       `yaml:"stored,omitempty"`
	References    *Reference `yaml:"references,omitempty"`
}

// Reference makes a column a foreign key to Table.Column.
type Reference struct {
	Name     string `yaml:"name,omitempty"`
	Schema   string `yaml:"schema,omitempty"`
	Table    string `yaml:"table"`
	Column   string `yaml:"column"`
	OnDelete string `yaml:"on_delete,omitempty"`
	OnUpdate string `yaml:"on_update,omitempty"`
}

type IndexStep struct {
	Name    string        `yaml:"name"`
	Table   string        `yaml:"table"`
	Schema  string        `yaml:"schema,omitempty"`
	Unique  bool          `yaml:"unique,omitempty"`
	Columns []IndexColumn `yaml:"columns,omitempty"`
}

// IndexColumn is written either as a plain column name or as
// {name: x, descending: true}.
type IndexColumn struct {
	Name       string `yaml:"name"`
	Descending bool   `yaml:"descending,omitempty"`
}

func (c *IndexColumn) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		c.Name = node.Value
		return nil
	}
	type plain IndexColumn
	return decodeStrict(node, (*plain)(c))
}

type ForeignKeyStep struct {
	Name        string   `yaml:"name,omitempty"`
	FromTable   string   `yaml:"from_table"`
	FromColumns []string `yaml:"from_columns,omitempty"`
	Schema      string   `yaml:"schema,omitempty"`
	ToTable     string   `yaml:"to_table,omitempty"`
	ToColumns   []string `yaml:"to_columns,omitempty"`
	ToSchema    string   `yaml:"to_schema,omitempty"`
	OnDelete    string   `yaml:"on_delete,omitempty"`
	OnUpdate    string   `yaml:"on_update,omitempty"`
}

// ConstraintStep creates a unique constraint or drops a constraint. Type is
// only read by delete_constraint: unique (default) or primary_key.
type ConstraintStep struct {
	Name    string   `yaml:"name,omitempty"`
	Table   string   `yaml:"table"`
	Schema  string   `yaml:"schema,omitempty"`
	Columns []string `yaml:"columns,omitempty"`
	Type    string   `yaml:"type,omitempty"`
}

type SequenceStep struct {
	Name      string `yaml:"name"`
	Schema    string `yaml:"schema,omitempty"`
	Increment *int64 `yaml:"increment,omitempty"`
	MinValue  *int64 `yaml:"min_value,omitempty"`
	MaxValue  *int64 `yaml:"max_value,omitempty"`
	StartWith *int64 `yaml:"start_with,omitempty"`
	Cache     *int64 `yaml:"cache,omitempty"`
	Cycle     bool   `yaml:"cycle,omitempty"`
}

// InsertStep inserts rows. Columns of each row are emitted in name order.
type InsertStep struct {
	Table  string           `yaml:"table"`
	Schema string           `yaml:"schema,omitempty"`
	Rows   []map[string]any `yaml:"rows"`
}

// SQLStep runs raw SQL, given inline as a string or as {script: path}.
type SQLStep struct {
	Statement string `yaml:"statement,omitempty"`
	Script    string `yaml:"script,omitempty"`
}

func (s *SQLStep) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		s.Statement = node.Value
		return nil
	}
	type plain SQLStep
	return decodeStrict(node, (*plain)(s))
}

// decodeStrict decodes node rejecting unknown keys. node.Decode does not
// inherit KnownFields from the outer decoder, so the node is re-encoded and
// decoded again.
func decodeStrict(node *yaml.Node, out any) error {
	data, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	return nil
}

// Parse decodes one migration. name is the file name, used for the version
// and description when the document leaves them out.
func Parse(data []byte, name string) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing migration %s: %w", name, err)
	}
	f.Path = name

	if f.Version == 0 || f.Description == "" {
		base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
		if m := fileNamePattern.FindStringSubmatch(base); m != nil {
			if f.Version == 0 {
				f.Version, _ = strconv.ParseInt(m[1], 10, 64)
			}
			if f.Description == "" {
				f.Description = strings.TrimSpace(strings.NewReplacer("_", " ", "-", " ").Replace(m[2]))
			}
		}
	}
	if f.Version <= 0 {
		return nil, fmt.Errorf("parsing migration %s: version is required", name)
	}
	if len(f.Up) == 0 {
		return nil, fmt.Errorf("parsing migration %s: up has no steps", name)
	}

	if err := f.check(filepath.Dir(name)); err != nil {
		return nil, fmt.Errorf("parsing migration %s: %w", name, err)
	}
	return &f, nil
}

// check builds both directions once so type names, rules and step shapes
// are reported at load time rather than mid-run.
func (f *File) check(dir string) error {
	for i := range f.Up {
		if _, err := f.Up[i].Kind(); err != nil {
			return fmt.Errorf("up step %d: %w", i+1, err)
		}
	}
	for i := range f.Down {
		if _, err := f.Down[i].Kind(); err != nil {
			return fmt.Errorf("down step %d: %w", i+1, err)
		}
	}
	if err := buildSteps(builder.NewContext(""), dir, f.Up); err != nil {
		return fmt.Errorf("up: %w", err)
	}
	if err := buildSteps(builder.NewContext(""), dir, f.Down); err != nil {
		return fmt.Errorf("down: %w", err)
	}
	return nil
}

// ParseFile reads and parses one migration file.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading migration %s: %w", path, err)
	}
	return Parse(data, path)
}

// LoadDir parses every *.yaml and *.yml file in dir, sorted by version.
func LoadDir(dir string) ([]*File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory: %w", err)
	}

	var files []*File
	seen := make(map[int64]string)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
		default:
			continue
		}

		f, err := ParseFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[f.Version]; ok {
			return nil, fmt.Errorf("%w %d in %s and %s", ErrDuplicateVersion, f.Version, prev, f.Path)
		}
		seen[f.Version] = f.Path
		files = append(files, f)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Version < files[j].Version })
	logging.Debug("Loaded %d migrations from %s", len(files), dir)
	return files, nil
}

// Load parses dir and registers every migration in reg.
func Load(dir string, reg *runner.Registry) (int, error) {
	files, err := LoadDir(dir)
	if err != nil {
		return 0, err
	}
	for _, f := range files {
		if err := reg.Add(f.Info()); err != nil {
			return 0, err
		}
	}
	return len(files), nil
}

// Info adapts the file to a registry entry.
func (f *File) Info() *runner.Info {
	return &runner.Info{
		Version:     f.Version,
		Description: f.Description,
		Tags:        f.Tags,
		Migration:   f.Migration(),
	}
}

// Migration returns the file as a runner migration.
func (f *File) Migration() runner.Migration {
	if f.AutoReversing() {
		return &autoReversing{file: f}
	}
	return &twoWay{file: f}
}

type twoWay struct {
	file *File
}

func (m *twoWay) Up(ctx *builder.Context)   { m.file.build(ctx, m.file.Up) }
func (m *twoWay) Down(ctx *builder.Context) { m.file.build(ctx, m.file.Down) }

type autoReversing struct {
	runner.AutoReversing
	file *File
}

func (m *autoReversing) Up(ctx *builder.Context) { m.file.build(ctx, m.file.Up) }

func (f *File) build(ctx *builder.Context, steps []Step) {
	if err := buildSteps(ctx, filepath.Dir(f.Path), steps); err != nil {
		ctx.Fail(err)
	}
}
