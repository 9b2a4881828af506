// Package driver provides the registry of supported database flavours.
// Each flavour (MySQL 4, 5, 8, MariaDB) supplies its SQL generator, its
// processor and its naming conventions as one cohesive unit.
package driver

import (
	"github.com/johndauphine/mariadb-migrate/internal/conventions"
	"github.com/johndauphine/mariadb-migrate/internal/generator"
	"github.com/johndauphine/mariadb-migrate/internal/processor"
)

// Defaults contains default values for a database driver.
type Defaults struct {
	// Port is the default server port.
	Port int

	// Charset is the connection character set the driver expects.
	Charset string
}

// Driver represents one database flavour.
//
// To add a new flavour:
// 1. Create a package under internal/driver/<name>/
// 2. Implement the Driver interface
// 3. Register via init(): driver.Register(&MyDriver{})
type Driver interface {
	// Name returns the primary driver name (e.g., "mysql", "mariadb").
	Name() string

	// Aliases returns alternative names for this driver.
	// For example, mariadb has the alias "maria".
	Aliases() []string

	// Defaults returns the default connection values for this driver.
	Defaults() Defaults

	// Generator returns an SQL generator in the given compatibility mode.
	Generator(mode generator.CompatibilityMode) generator.Generator

	// Conventions returns the naming conventions applied before generation.
	Conventions(defaultSchema, workingDirectory string) *conventions.Set

	// Open connects to dsn and returns a processor generating SQL in mode.
	Open(dsn string, mode generator.CompatibilityMode, opts processor.Options) (processor.Processor, error)
}
