package mysql

import (
	"context"
	"database/sql"
	"fmt"

	mysqlgen "github.com/johndauphine/mariadb-migrate/internal/generator/mysql"
	"github.com/johndauphine/mariadb-migrate/internal/processor"
)

const (
	sequenceExistsSQL       = "SELECT 1 FROM INFORMATION_SCHEMA.SEQUENCES WHERE SEQUENCE_SCHEMA = SCHEMA() AND SEQUENCE_NAME = '%s'"
	defaultValueContainsSQL = "SELECT 1 FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_SCHEMA = SCHEMA() AND TABLE_NAME = '%s' AND COLUMN_NAME = '%s' AND COLUMN_DEFAULT LIKE '%%%s%%'"
)

// MariaDBProcessor runs migrations against MariaDB. Catalog checks are
// wrapped in SELECT EXISTS.
type MariaDBProcessor struct {
	*Processor
}

// NewMariaDB returns a MariaDB processor. gen must be a MariaDB generator.
func NewMariaDB(db *sql.DB, dsn string, gen *mysqlgen.Generator, opts processor.Options, options ...Option) *MariaDBProcessor {
	p := &MariaDBProcessor{Processor: New(db, dsn, gen, opts, options...)}
	p.exists = p.selectExists
	return p
}

func (p *MariaDBProcessor) DatabaseType() string { return "MariaDB" }

func (p *MariaDBProcessor) DatabaseTypeAliases() []string { return []string{} }

func (p *MariaDBProcessor) selectExists(ctx context.Context, template string, args ...any) (bool, error) {
	ctx, cancel := p.WithTimeout(ctx)
	defer cancel()

	query := "SELECT EXISTS (" + fmt.Sprintf(template, args...) + ")"
	var result sql.NullInt64
	if err := p.Conn().QueryRowContext(ctx, query).Scan(&result); err != nil {
		return false, err
	}
	return result.Valid && result.Int64 == 1, nil
}

func (p *MariaDBProcessor) SequenceExists(ctx context.Context, schema, sequence string) (bool, error) {
	return p.exists(ctx, sequenceExistsSQL, p.escape(sequence))
}

// DefaultValueExists matches any default containing value.
func (p *MariaDBProcessor) DefaultValueExists(ctx context.Context, schema, table, column string, value any) (bool, error) {
	return p.exists(ctx, defaultValueContainsSQL, p.escape(table), p.escape(column), p.escape(fmt.Sprint(value)))
}

var _ processor.Processor = (*MariaDBProcessor)(nil)
