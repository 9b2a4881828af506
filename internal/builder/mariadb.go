package builder

import (
	"math"

	"github.com/johndauphine/mariadb-migrate/internal/model"
)

// MariaDB column types and collations.
const (
	CaseSensitiveCollationName     = "utf8mb4_bin"
	AnsiCaseSensitiveCollationName = "utf8mb3_bin"

	TextCapacity       = 65535
	MediumTextCapacity = 16777215
	LongTextCapacity   = math.MaxInt32
)

// AsSByte maps to a signed TINYINT.
func (b *ColumnBuilder) AsSByte() *ColumnBuilder { return b.AsCustom("TINYINT(1) SIGNED") }

func (b *ColumnBuilder) AsJSON() *ColumnBuilder { return b.AsCustom("JSON") }

func (b *ColumnBuilder) AsText() *ColumnBuilder       { return b.AsString(TextCapacity) }
func (b *ColumnBuilder) AsMediumText() *ColumnBuilder { return b.AsString(MediumTextCapacity) }
func (b *ColumnBuilder) AsLongText() *ColumnBuilder   { return b.AsString(LongTextCapacity) }

func (b *ColumnBuilder) AsBlob() *ColumnBuilder       { return b.AsBinary(TextCapacity) }
func (b *ColumnBuilder) AsMediumBlob() *ColumnBuilder { return b.AsBinary(MediumTextCapacity) }
func (b *ColumnBuilder) AsLongBlob() *ColumnBuilder   { return b.AsBinary(LongTextCapacity) }

// CaseSensitive switches a character column to the binary collation of its
// character set. Call it after the type setter.
func (b *ColumnBuilder) CaseSensitive() *ColumnBuilder {
	b.column.CaseSensitive = true
	if b.column.Type == nil {
		return b
	}
	switch *b.column.Type {
	case model.AnsiString, model.AnsiStringFixedLength:
		b.column.CollationName = AnsiCaseSensitiveCollationName
	case model.String, model.StringFixedLength:
		b.column.CollationName = CaseSensitiveCollationName
	}
	return b
}
