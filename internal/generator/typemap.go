package generator

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/johndauphine/mariadb-migrate/internal/model"
)

// ErrUnsupportedType is returned for a DbType with no registered template.
var ErrUnsupportedType = errors.New("unsupported DbType")

// Template placeholders substituted by TypeMap.Get.
const (
	SizePlaceholder      = "$size"
	PrecisionPlaceholder = "$precision"
)

// TypeMapper resolves an abstract column type to a dialect type string.
type TypeMapper interface {
	Get(t model.DbType, size, precision *int) (string, error)
}

type sizedTemplate struct {
	capacity int
	template string
}

type typeEntries struct {
	def    string
	hasDef bool
	sized  []sizedTemplate // ascending capacity
}

// TypeMap is a table of type templates keyed by DbType. Each type has an
// optional default template, used when no size is requested, and any number
// of sized templates each valid up to a capacity.
type TypeMap struct {
	entries map[model.DbType]*typeEntries
}

// NewTypeMap returns an empty type map.
func NewTypeMap() *TypeMap {
	return &TypeMap{entries: make(map[model.DbType]*typeEntries)}
}

func (m *TypeMap) entry(t model.DbType) *typeEntries {
	e, ok := m.entries[t]
	if !ok {
		e = &typeEntries{}
		m.entries[t] = e
	}
	return e
}

// Set registers the default template for t, replacing any previous default.
func (m *TypeMap) Set(t model.DbType, template string) {
	e := m.entry(t)
	e.def = template
	e.hasDef = true
}

// SetSized registers a template valid for sizes up to capacity. A template
// registered again at the same capacity replaces the earlier one.
func (m *TypeMap) SetSized(t model.DbType, template string, capacity int) {
	e := m.entry(t)
	for i := range e.sized {
		if e.sized[i].capacity == capacity {
			e.sized[i].template = template
			return
		}
	}
	e.sized = append(e.sized, sizedTemplate{capacity: capacity, template: template})
	sort.Slice(e.sized, func(i, j int) bool { return e.sized[i].capacity < e.sized[j].capacity })
}

// Clear removes every template registered for t.
func (m *TypeMap) Clear(t model.DbType) {
	delete(m.entries, t)
}

// Clone returns an independent copy, used by dialect versions that extend an
// older version's map.
func (m *TypeMap) Clone() *TypeMap {
	cp := NewTypeMap()
	for t, e := range m.entries {
		ne := *e
		ne.sized = append([]sizedTemplate(nil), e.sized...)
		cp.entries[t] = &ne
	}
	return cp
}

// Get returns the SQL type for t.
//
// With no size the default template is used. Otherwise the template with the
// smallest capacity >= size wins, falling back to the largest capacity when
// the size exceeds all of them. Types with only a default template ignore
// the size.
func (m *TypeMap) Get(t model.DbType, size, precision *int) (string, error) {
	e, ok := m.entries[t]
	if !ok {
		return "", fmt.Errorf("%w '%s'", ErrUnsupportedType, t)
	}

	if size == nil || len(e.sized) == 0 {
		if e.hasDef {
			return replacePlaceholders(e.def, size, precision), nil
		}
		if len(e.sized) == 0 {
			return "", fmt.Errorf("%w '%s'", ErrUnsupportedType, t)
		}
		return replacePlaceholders(e.sized[0].template, size, precision), nil
	}

	for _, s := range e.sized {
		if *size <= s.capacity {
			return replacePlaceholders(s.template, size, precision), nil
		}
	}
	return replacePlaceholders(e.sized[len(e.sized)-1].template, size, precision), nil
}

func replacePlaceholders(template string, size, precision *int) string {
	if size != nil {
		template = strings.ReplaceAll(template, SizePlaceholder, strconv.Itoa(*size))
	}
	p := 0
	if precision != nil {
		p = *precision
	}
	return strings.ReplaceAll(template, PrecisionPlaceholder, strconv.Itoa(p))
}
