package generator

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/johndauphine/mariadb-migrate/internal/model"
)

// Quoter quotes identifiers and renders literal values for one dialect.
// The zero value is not usable; start from NewANSIQuoter and override fields.
type Quoter struct {
	OpenQuote  string
	CloseQuote string
	ValueQuote string

	// EscapeBackslash doubles backslashes inside string literals.
	EscapeBackslash bool

	TrueValue  string
	FalseValue string

	// SystemMethods maps default-value functions to SQL. Methods missing
	// from the map are not supported by the dialect.
	SystemMethods map[model.SystemMethod]string

	// Formatters return the unquoted text of temporal values.
	FormatTime      func(t time.Time) string
	FormatDuration  func(d time.Duration) string
	FormatTimeOfDay func(t model.TimeOfDay) string
}

// NewANSIQuoter returns a quoter using double-quoted identifiers.
func NewANSIQuoter() *Quoter {
	return &Quoter{
		OpenQuote:  `"`,
		CloseQuote: `"`,
		ValueQuote: "'",
		TrueValue:  "1",
		FalseValue: "0",
		SystemMethods: map[model.SystemMethod]string{
			model.CurrentDateTime:    "CURRENT_TIMESTAMP",
			model.CurrentUTCDateTime: "CURRENT_TIMESTAMP",
			model.CurrentUser:        "CURRENT_USER",
		},
		FormatTime: func(t time.Time) string {
			return t.Format("2006-01-02T15:04:05")
		},
		FormatDuration: func(d time.Duration) string {
			h, m, s, _ := SplitDuration(d)
			return fmt.Sprintf("%s%02d:%02d:%02d", DurationSign(d), h, m, s)
		},
		FormatTimeOfDay: func(t model.TimeOfDay) string {
			return t.Time().Format("15:04:05")
		},
	}
}

// Clone returns a copy whose system method map can be modified independently.
func (q *Quoter) Clone() *Quoter {
	cp := *q
	cp.SystemMethods = make(map[model.SystemMethod]string, len(q.SystemMethods))
	for k, v := range q.SystemMethods {
		cp.SystemMethods[k] = v
	}
	return &cp
}

// IsQuoted reports whether name is already wrapped in identifier quotes.
func (q *Quoter) IsQuoted(name string) bool {
	return len(name) >= len(q.OpenQuote)+len(q.CloseQuote) &&
		strings.HasPrefix(name, q.OpenQuote) && strings.HasSuffix(name, q.CloseQuote)
}

// Quote wraps an identifier in quotes, escaping embedded close quotes.
// Already-quoted names are returned unchanged.
func (q *Quoter) Quote(name string) string {
	if name == "" || q.IsQuoted(name) {
		return name
	}
	escaped := strings.ReplaceAll(name, q.CloseQuote, q.CloseQuote+q.CloseQuote)
	return q.OpenQuote + escaped + q.CloseQuote
}

// QuoteSchemaName quotes a schema name.
func (q *Quoter) QuoteSchemaName(schema string) string {
	return q.Quote(schema)
}

// QuoteTableName quotes a table name, qualifying it when schema is set.
func (q *Quoter) QuoteTableName(table, schema string) string {
	if schema == "" {
		return q.Quote(table)
	}
	return q.QuoteSchemaName(schema) + "." + q.Quote(table)
}

// QuoteColumnName quotes a column name.
func (q *Quoter) QuoteColumnName(column string) string {
	return q.Quote(column)
}

// QuoteIndexName quotes an index name.
func (q *Quoter) QuoteIndexName(index string) string {
	return q.Quote(index)
}

// QuoteConstraintName quotes a constraint name.
func (q *Quoter) QuoteConstraintName(constraint string) string {
	return q.Quote(constraint)
}

// QuoteSequenceName quotes a sequence name, qualifying it when schema is set.
func (q *Quoter) QuoteSequenceName(sequence, schema string) string {
	return q.QuoteTableName(sequence, schema)
}

// QuoteColumnNames quotes and joins column names with ", ".
func (q *Quoter) QuoteColumnNames(columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = q.QuoteColumnName(c)
	}
	return strings.Join(quoted, ", ")
}

// EscapeString escapes a string for use inside value quotes.
func (q *Quoter) EscapeString(s string) string {
	if q.EscapeBackslash {
		s = strings.ReplaceAll(s, `\`, `\\`)
	}
	return strings.ReplaceAll(s, q.ValueQuote, q.ValueQuote+q.ValueQuote)
}

func (q *Quoter) quoteString(s string) string {
	return q.ValueQuote + q.EscapeString(s) + q.ValueQuote
}

// FormatSystemMethod renders a default-value function.
func (q *Quoter) FormatSystemMethod(m model.SystemMethod) (string, error) {
	if sql, ok := q.SystemMethods[m]; ok {
		return sql, nil
	}
	return "", fmt.Errorf("%w: system method %s", ErrNotSupported, m)
}

// QuoteValue renders v as a SQL literal.
func (q *Quoter) QuoteValue(v any) (string, error) {
	switch val := v.(type) {
	case nil, model.Null:
		return "NULL", nil
	case model.RawSQL:
		return string(val), nil
	case model.SystemMethod:
		return q.FormatSystemMethod(val)
	case string:
		return q.quoteString(val), nil
	case bool:
		if val {
			return q.TrueValue, nil
		}
		return q.FalseValue, nil
	case int:
		return strconv.FormatInt(int64(val), 10), nil
	case int8:
		return strconv.FormatInt(int64(val), 10), nil
	case int16:
		return strconv.FormatInt(int64(val), 10), nil
	case int32:
		return strconv.FormatInt(int64(val), 10), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case uint:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint64:
		return strconv.FormatUint(val, 10), nil
	case float32:
		if err := finite(float64(val)); err != nil {
			return "", err
		}
		return strconv.FormatFloat(float64(val), 'f', -1, 32), nil
	case float64:
		if err := finite(val); err != nil {
			return "", err
		}
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case time.Time:
		return q.ValueQuote + q.FormatTime(val) + q.ValueQuote, nil
	case time.Duration:
		return q.ValueQuote + q.FormatDuration(val) + q.ValueQuote, nil
	case model.TimeOfDay:
		return q.ValueQuote + q.FormatTimeOfDay(val) + q.ValueQuote, nil
	case uuid.UUID:
		return q.quoteString(val.String()), nil
	case []byte:
		return "0x" + strings.ToUpper(hex.EncodeToString(val)), nil
	case fmt.Stringer:
		return q.quoteString(val.String()), nil
	}
	return q.quoteString(fmt.Sprint(v)), nil
}

// ErrNonFiniteFloat is returned for NaN and infinite values, which have no
// SQL literal.
var ErrNonFiniteFloat = errors.New("non-finite float has no SQL literal")

func finite(f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("%w: %v", ErrNonFiniteFloat, f)
	}
	return nil
}

// DurationSign is "-" for negative durations. SplitDuration drops the sign.
func DurationSign(d time.Duration) string {
	if d < 0 {
		return "-"
	}
	return ""
}

// SplitDuration breaks the magnitude of d into total hours, minutes, seconds
// and milliseconds. Days are folded into hours.
func SplitDuration(d time.Duration) (hours, minutes, seconds, millis int64) {
	if d < 0 {
		d = -d
	}
	hours = int64(d / time.Hour)
	minutes = int64(d % time.Hour / time.Minute)
	seconds = int64(d % time.Minute / time.Second)
	millis = int64(d % time.Second / time.Millisecond)
	return
}
