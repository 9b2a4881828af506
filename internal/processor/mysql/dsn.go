package mysql

import (
	"database/sql"
	"fmt"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
)

// Connection pool settings for migration sessions. Migrations run statements
// one at a time, so the pool stays small.
const (
	maxOpenConns    = 4
	maxIdleConns    = 1
	connMaxLifetime = 30 * time.Minute
)

// ParseDSN parses a go-sql-driver DSN and enables the options the processor
// relies on: multi-statement execution for batched INSERTs and time parsing
// for version table reads.
func ParseDSN(dsn string) (*gomysql.Config, error) {
	cfg, err := gomysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing dsn: %w", err)
	}
	cfg.MultiStatements = true
	cfg.ParseTime = true
	return cfg, nil
}

// ServerDSN returns dsn without its default database, plus that database's
// name. Database-level statements run over the server connection.
func ServerDSN(dsn string) (server, database string, err error) {
	cfg, err := ParseDSN(dsn)
	if err != nil {
		return "", "", err
	}
	database = cfg.DBName
	cfg.DBName = ""
	return cfg.FormatDSN(), database, nil
}

// Open connects to the server described by dsn and checks the connection.
func Open(dsn string) (*sql.DB, error) {
	cfg, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	connector, err := gomysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening connection: %w", err)
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return db, nil
}
