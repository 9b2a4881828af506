package runner

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/johndauphine/mariadb-migrate/internal/builder"
	"github.com/johndauphine/mariadb-migrate/internal/expression"
)

// Registry errors.
var (
	ErrDuplicateVersion  = errors.New("duplicate migration version")
	ErrMigrationNotFound = errors.New("migration not found")
)

// ErrIrreversible is returned when a migration that cannot go down is asked
// to. It is the same error expressions report when they cannot be reversed.
var ErrIrreversible = expression.ErrIrreversible

// Migration describes schema changes through a builder context.
type Migration interface {
	Up(ctx *builder.Context)
	Down(ctx *builder.Context)
}

// AutoReversing is embedded by migrations that only define Up. Their Down
// expressions are the reversed Up expressions in reverse order.
type AutoReversing struct{}

// Down is never called for auto-reversing migrations.
func (AutoReversing) Down(*builder.Context) {}

func (AutoReversing) autoReversing() {}

type autoReverser interface {
	autoReversing()
}

// IsAutoReversing reports whether m derives its Down from Up.
func IsAutoReversing(m Migration) bool {
	_, ok := m.(autoReverser)
	return ok
}

// Funcs adapts a pair of functions to Migration. A nil DownFunc makes the
// migration irreversible; wrap with Reversible to derive it from UpFunc.
type Funcs struct {
	UpFunc   func(*builder.Context)
	DownFunc func(*builder.Context)
}

func (f Funcs) Up(ctx *builder.Context) {
	if f.UpFunc != nil {
		f.UpFunc(ctx)
	}
}

func (f Funcs) Down(ctx *builder.Context) {
	if f.DownFunc != nil {
		f.DownFunc(ctx)
	}
}

func (f Funcs) irreversible() bool { return f.DownFunc == nil }

type irreversibler interface {
	irreversible() bool
}

// IsIrreversible reports whether m has no way down: it declares no Down
// and does not derive one from Up.
func IsIrreversible(m Migration) bool {
	if IsAutoReversing(m) {
		return false
	}
	i, ok := m.(irreversibler)
	return ok && i.irreversible()
}

// Reversible is an auto-reversing migration built from a single function.
type Reversible struct {
	AutoReversing
	UpFunc func(*builder.Context)
}

func (r Reversible) Up(ctx *builder.Context) { r.UpFunc(ctx) }

// Info is a migration with its metadata.
type Info struct {
	Version     int64
	Description string
	Tags        []string
	Migration   Migration
}

// String renders "version: description".
func (i *Info) String() string {
	if i.Description == "" {
		return fmt.Sprintf("%d", i.Version)
	}
	return fmt.Sprintf("%d: %s", i.Version, i.Description)
}

// HasTags reports whether the migration carries every tag in tags.
// Untagged migrations match any filter.
func (i *Info) HasTags(tags []string) bool {
	if len(i.Tags) == 0 {
		return true
	}
	for _, want := range tags {
		found := false
		for _, t := range i.Tags {
			if t == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Registry holds migrations keyed by version.
type Registry struct {
	mu         sync.RWMutex
	migrations map[int64]*Info
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{migrations: make(map[int64]*Info)}
}

// Register adds a migration. Versions must be unique.
func (r *Registry) Register(version int64, description string, m Migration, tags ...string) error {
	return r.Add(&Info{Version: version, Description: description, Tags: tags, Migration: m})
}

// Add registers info.
func (r *Registry) Add(info *Info) error {
	if info.Migration == nil {
		return fmt.Errorf("migration %d has no implementation", info.Version)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.migrations[info.Version]; exists {
		return fmt.Errorf("%w %d", ErrDuplicateVersion, info.Version)
	}
	r.migrations[info.Version] = info
	return nil
}

// MustRegister is Register for package-level registration; it panics on error.
func (r *Registry) MustRegister(version int64, description string, m Migration, tags ...string) {
	if err := r.Register(version, description, m, tags...); err != nil {
		panic(err)
	}
}

// Get returns the migration with version.
func (r *Registry) Get(version int64) (*Info, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.migrations[version]
	if !ok {
		return nil, fmt.Errorf("%w: version %d", ErrMigrationNotFound, version)
	}
	return info, nil
}

// Sorted returns every migration in ascending version order.
func (r *Registry) Sorted() []*Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Info, 0, len(r.migrations))
	for _, info := range r.migrations {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out
}

// Len returns the number of registered migrations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.migrations)
}
