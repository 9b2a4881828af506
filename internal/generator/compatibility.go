package generator

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/johndauphine/mariadb-migrate/internal/model"
)

// ErrNotSupported is returned when a dialect cannot express an operation.
var ErrNotSupported = errors.New("operation not supported")

// CompatibilityMode decides what happens when a dialect cannot express an
// operation: Loose emits nothing, Strict fails.
type CompatibilityMode int

const (
	Loose CompatibilityMode = iota
	Strict
)

func (m CompatibilityMode) String() string {
	if m == Strict {
		return "strict"
	}
	return "loose"
}

// ParseCompatibilityMode accepts "strict" or "loose" (the default for "").
func ParseCompatibilityMode(s string) (CompatibilityMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "loose":
		return Loose, nil
	case "strict":
		return Strict, nil
	}
	return Loose, fmt.Errorf("invalid compatibility mode %q (expected strict or loose)", s)
}

// Handle returns an empty statement in Loose mode and an ErrNotSupported
// error carrying message in Strict mode.
func (m CompatibilityMode) Handle(message string) (string, error) {
	if m == Strict {
		return "", fmt.Errorf("%w: %s", ErrNotSupported, message)
	}
	return "", nil
}

// ValidateFeatures checks column additional features against the set the
// dialect understands. Unknown features only fail in Strict mode.
func (m CompatibilityMode) ValidateFeatures(columns []*model.ColumnDefinition, supported map[string]bool) error {
	if m != Strict {
		return nil
	}
	seen := make(map[string]bool)
	for _, c := range columns {
		for key := range c.AdditionalFeatures {
			if !supported[key] {
				seen[key] = true
			}
		}
	}
	if len(seen) == 0 {
		return nil
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Errorf("%w: the following database specific additional features are not supported in strict mode: %s",
		ErrNotSupported, strings.Join(keys, ", "))
}
