package driver

import (
	"strings"
	"testing"

	"github.com/johndauphine/mariadb-migrate/internal/conventions"
	"github.com/johndauphine/mariadb-migrate/internal/generator"
	"github.com/johndauphine/mariadb-migrate/internal/processor"
)

type fakeDriver struct {
	name    string
	aliases []string
}

func (f *fakeDriver) Name() string       { return f.name }
func (f *fakeDriver) Aliases() []string  { return f.aliases }
func (f *fakeDriver) Defaults() Defaults { return Defaults{Port: 1} }
func (f *fakeDriver) Generator(generator.CompatibilityMode) generator.Generator {
	return nil
}
func (f *fakeDriver) Conventions(string, string) *conventions.Set { return nil }
func (f *fakeDriver) Open(string, generator.CompatibilityMode, processor.Options) (processor.Processor, error) {
	return nil, nil
}

func TestRegisterAndGet(t *testing.T) {
	Register(&fakeDriver{name: "fakedb", aliases: []string{"fake", "FDB"}})

	for _, name := range []string{"fakedb", "FAKEDB", "fake", "fdb", "Fdb"} {
		d, err := Get(name)
		if err != nil {
			t.Fatalf("Get(%q): %v", name, err)
		}
		if d.Name() != "fakedb" {
			t.Errorf("Get(%q).Name() = %q, want fakedb", name, d.Name())
		}
		if !IsRegistered(name) {
			t.Errorf("IsRegistered(%q) = false", name)
		}
	}
	if got := Canonicalize("FAKE"); got != "fakedb" {
		t.Errorf("Canonicalize(FAKE) = %q, want fakedb", got)
	}
	if got := Canonicalize("nosuch"); got != "nosuch" {
		t.Errorf("Canonicalize(nosuch) = %q, want unchanged", got)
	}
}

func TestGetUnknown(t *testing.T) {
	_, err := Get("oracle")
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
	if !strings.Contains(err.Error(), "unknown database driver") {
		t.Errorf("error = %v", err)
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	Register(&fakeDriver{name: "dupdb"})

	tests := []struct {
		name string
		d    Driver
	}{
		{"same name", &fakeDriver{name: "dupdb"}},
		{"alias clashes with name", &fakeDriver{name: "otherdb", aliases: []string{"DUPDB"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			Register(tt.d)
		})
	}
	if IsRegistered("otherdb") {
		t.Error("failed registration left a partial entry")
	}
}

func TestAvailableSortedPrimaryNames(t *testing.T) {
	Register(&fakeDriver{name: "zzdb", aliases: []string{"zz"}})
	Register(&fakeDriver{name: "aadb"})

	names := Available()
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Fatalf("Available() not sorted: %v", names)
		}
	}
	for _, n := range names {
		if n == "zz" {
			t.Errorf("Available() lists alias %q", n)
		}
	}
}
