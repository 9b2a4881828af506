// Package mysql registers the MySQL-family drivers: mysql (MySQL 5),
// mysql4, mysql8 and mariadb.
package mysql

import (
	"database/sql"

	"github.com/johndauphine/mariadb-migrate/internal/conventions"
	"github.com/johndauphine/mariadb-migrate/internal/driver"
	"github.com/johndauphine/mariadb-migrate/internal/generator"
	mysqlgen "github.com/johndauphine/mariadb-migrate/internal/generator/mysql"
	"github.com/johndauphine/mariadb-migrate/internal/processor"
	mysqlproc "github.com/johndauphine/mariadb-migrate/internal/processor/mysql"
)

func init() {
	driver.Register(&Driver{name: "mysql", aliases: []string{"mysql5"}, version: mysqlgen.MySQL5})
	driver.Register(&Driver{name: "mysql4", version: mysqlgen.MySQL4})
	driver.Register(&Driver{name: "mysql8", version: mysqlgen.MySQL8})
	driver.Register(&Driver{name: "mariadb", aliases: []string{"maria"}, version: mysqlgen.MariaDB})
}

// Driver implements driver.Driver for one server version.
type Driver struct {
	name    string
	aliases []string
	version mysqlgen.Version
}

func (d *Driver) Name() string { return d.name }

func (d *Driver) Aliases() []string { return d.aliases }

// Version returns the server flavour the driver generates SQL for.
func (d *Driver) Version() mysqlgen.Version { return d.version }

func (d *Driver) Defaults() driver.Defaults {
	charset := "utf8mb4"
	if d.version == mysqlgen.MySQL4 {
		charset = "utf8"
	}
	return driver.Defaults{Port: 3306, Charset: charset}
}

func (d *Driver) Generator(mode generator.CompatibilityMode) generator.Generator {
	return d.newGenerator(mode)
}

func (d *Driver) newGenerator(mode generator.CompatibilityMode) *mysqlgen.Generator {
	opt := mysqlgen.WithCompatibility(mode)
	switch d.version {
	case mysqlgen.MySQL4:
		return mysqlgen.NewMySQL4Generator(opt)
	case mysqlgen.MySQL8:
		return mysqlgen.NewMySQL8Generator(opt)
	case mysqlgen.MariaDB:
		return mysqlgen.NewMariaDBGenerator(opt)
	default:
		return mysqlgen.NewMySQL5Generator(opt)
	}
}

func (d *Driver) Conventions(defaultSchema, workingDirectory string) *conventions.Set {
	return conventions.NewMySQLSet(defaultSchema, workingDirectory)
}

// Open connects to dsn. MariaDB gets the processor with sequence support.
func (d *Driver) Open(dsn string, mode generator.CompatibilityMode, opts processor.Options) (processor.Processor, error) {
	db, err := mysqlproc.Open(dsn)
	if err != nil {
		return nil, err
	}
	return d.NewProcessor(db, dsn, mode, opts), nil
}

// NewProcessor wraps an already open handle, for callers that manage their
// own connection pool.
func (d *Driver) NewProcessor(db *sql.DB, dsn string, mode generator.CompatibilityMode, opts processor.Options) processor.Processor {
	gen := d.newGenerator(mode)
	if d.version == mysqlgen.MariaDB {
		return mysqlproc.NewMariaDB(db, dsn, gen, opts)
	}
	return mysqlproc.New(db, dsn, gen, opts)
}
