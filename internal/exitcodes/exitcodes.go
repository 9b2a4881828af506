// Package exitcodes defines standard exit codes for CLI operations so that
// CI jobs and schedulers can tell retryable failures from broken migrations.
package exitcodes

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"os"
	"strings"

	gomysql "github.com/go-sql-driver/mysql"
)

const (
	// Success - every requested migration ran
	Success = 0

	// ConfigError - configuration or migration file parsing errors (non-recoverable, don't retry)
	ConfigError = 1

	// ConnectionError - server unreachable or credentials rejected (recoverable)
	ConnectionError = 2

	// MigrationError - the server rejected a migration statement (non-recoverable)
	MigrationError = 3

	// ValidationError - invalid expressions or out-of-order migrations (non-recoverable)
	ValidationError = 4

	// Cancelled - user cancelled via SIGINT/SIGTERM (recoverable)
	Cancelled = 5

	// StateError - run journal or profile store errors (non-recoverable)
	StateError = 6

	// IOError - file I/O errors (recoverable)
	IOError = 7
)

// MySQL server errors that mean the session itself is unusable.
var connectionErrorNumbers = map[uint16]bool{
	1044: true, // ER_DBACCESS_DENIED_ERROR
	1045: true, // ER_ACCESS_DENIED_ERROR
	1049: true, // ER_BAD_DB_ERROR
	1040: true, // ER_CON_COUNT_ERROR
	1129: true, // ER_HOST_IS_BLOCKED
	1130: true, // ER_HOST_NOT_PRIVILEGED
}

// ExitError wraps an error with an exit code.
type ExitError struct {
	Err  error
	Code int
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code.
func NewExitError(err error, code int) *ExitError {
	return &ExitError{Err: err, Code: code}
}

// FromError determines the appropriate exit code for an error.
// Typed errors are checked first, then the message is classified.
func FromError(err error) int {
	if err == nil {
		return Success
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Cancelled
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return IOError
	}

	var mysqlErr *gomysql.MySQLError
	if errors.As(err, &mysqlErr) {
		if connectionErrorNumbers[mysqlErr.Number] {
			return ConnectionError
		}
		return MigrationError
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, driver.ErrBadConn) || errors.Is(err, gomysql.ErrInvalidConn) {
		return ConnectionError
	}

	errStr := strings.ToLower(err.Error())

	if containsAny(errStr, []string{
		"no such file",
		"file not found",
		"permission denied",
		"is a directory",
		"not a directory",
	}) {
		return IOError
	}

	// Checked before ConfigError so "invalid migration" does not read as config
	if containsAny(errStr, []string{
		"out of order",
		"validation failed",
		"cannot be reversed",
		"missing",
		"not supported",
	}) {
		return ValidationError
	}

	if containsAny(errStr, []string{
		"yaml:",
		"json:",
		"unmarshal",
		"invalid config",
		"parsing config",
		"parsing migration",
		"duplicate migration version",
		"unknown database driver",
	}) {
		return ConfigError
	}

	if containsAny(errStr, []string{
		"connection",
		"connect",
		"dial",
		"refused",
		"timeout",
		"unreachable",
		"no such host",
		"network",
		"ping",
		"access denied",
	}) {
		return ConnectionError
	}

	if containsAny(errStr, []string{
		"cancel",
		"interrupt",
	}) {
		return Cancelled
	}

	if containsAny(errStr, []string{
		"journal",
		"profile",
		"state file",
		"run not found",
		"run id mismatch",
	}) {
		return StateError
	}

	// Anything else failed while migrating
	return MigrationError
}

// IsRecoverable returns true if the error is recoverable (safe to retry).
func IsRecoverable(code int) bool {
	switch code {
	case ConnectionError, Cancelled, IOError:
		return true
	default:
		return false
	}
}

// Description returns a human-readable description of the exit code.
func Description(code int) string {
	switch code {
	case Success:
		return "success"
	case ConfigError:
		return "configuration error"
	case ConnectionError:
		return "connection error (recoverable)"
	case MigrationError:
		return "migration error"
	case ValidationError:
		return "validation error"
	case Cancelled:
		return "cancelled (recoverable)"
	case StateError:
		return "state error"
	case IOError:
		return "I/O error (recoverable)"
	default:
		return "unknown error"
	}
}

func containsAny(s string, substrs []string) bool {
	for _, substr := range substrs {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}
