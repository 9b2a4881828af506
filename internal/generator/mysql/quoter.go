package mysql

import (
	"fmt"
	"time"

	"github.com/johndauphine/mariadb-migrate/internal/generator"
	"github.com/johndauphine/mariadb-migrate/internal/model"
)

// NewQuoter returns the MySQL quoter: backtick identifiers and backslash
// escaping inside string literals.
func NewQuoter() *generator.Quoter {
	q := generator.NewANSIQuoter()
	q.OpenQuote = "`"
	q.CloseQuote = "`"
	q.EscapeBackslash = true
	q.SystemMethods = map[model.SystemMethod]string{
		model.NewGuid:            "(SELECT UUID())",
		model.NewSequentialId:    "(SELECT UUID())",
		model.CurrentDateTime:    "CURRENT_TIMESTAMP",
		model.CurrentUTCDateTime: "UTC_TIMESTAMP",
		model.CurrentUser:        "CURRENT_USER()",
	}
	q.FormatDuration = func(d time.Duration) string {
		h, m, s, _ := generator.SplitDuration(d)
		return fmt.Sprintf("%s%d:%02d:%02d", generator.DurationSign(d), h, m, s)
	}
	return q
}

// NewMariaDBQuoter returns the MariaDB quoter, which keeps microsecond
// precision on temporal values.
func NewMariaDBQuoter() *generator.Quoter {
	q := NewQuoter()
	q.SystemMethods = map[model.SystemMethod]string{
		model.NewGuid:            "UUID()",
		model.NewSequentialId:    "UUID()",
		model.CurrentDateTime:    "CURRENT_TIMESTAMP(6)",
		model.CurrentUTCDateTime: "UTC_TIMESTAMP(6)",
		model.CurrentUser:        "CURRENT_USER()",
	}
	q.FormatTime = func(t time.Time) string {
		// Format truncates fractional seconds, it never rounds.
		return t.Format("2006-01-02T15:04:05.000000")
	}
	q.FormatDuration = func(d time.Duration) string {
		h, m, s, ms := generator.SplitDuration(d)
		return fmt.Sprintf("%s%02d:%02d:%02d.%03d", generator.DurationSign(d), h, m, s, ms)
	}
	q.FormatTimeOfDay = func(t model.TimeOfDay) string {
		return t.Time().Format("15:04:05.000000")
	}
	return q
}
