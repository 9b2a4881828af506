package exitcodes

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	gomysql "github.com/go-sql-driver/mysql"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, Success},
		{"path error", &os.PathError{Op: "open", Path: "/foo", Err: errors.New("no such file")}, IOError},
		{"wrapped context canceled", fmt.Errorf("applying 3: %w", context.Canceled), Cancelled},
		{"deadline", context.DeadlineExceeded, Cancelled},
		{"access denied", &gomysql.MySQLError{Number: 1045, Message: "Access denied for user 'app'"}, ConnectionError},
		{"unknown database", fmt.Errorf("ping: %w", &gomysql.MySQLError{Number: 1049, Message: "Unknown database 'x'"}), ConnectionError},
		{"syntax error", fmt.Errorf("executing SQL: %w", &gomysql.MySQLError{Number: 1064, Message: "You have an error in your SQL syntax"}), MigrationError},
		{"duplicate column", &gomysql.MySQLError{Number: 1060, Message: "Duplicate column name 'email'"}, MigrationError},
		{"invalid conn", gomysql.ErrInvalidConn, ConnectionError},
		{"yaml parse error", errors.New("yaml: unmarshal error"), ConfigError},
		{"duplicate version", errors.New("duplicate migration version 3"), ConfigError},
		{"unknown driver", errors.New(`unknown database driver: "oracle"`), ConfigError},
		{"no such file", errors.New("open config.yaml: no such file or directory"), IOError},
		{"connection refused", errors.New("dial tcp: connection refused"), ConnectionError},
		{"out of order", errors.New("migrations out of order: 2"), ValidationError},
		{"missing table", errors.New("create table: table name missing"), ValidationError},
		{"irreversible", errors.New("insert data: expression cannot be reversed"), ValidationError},
		{"journal error", errors.New("journal: database is locked"), StateError},
		{"unknown error", errors.New("something unexpected happened"), MigrationError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromError(tt.err)
			if got != tt.expected {
				t.Errorf("FromError(%v) = %d (%s), want %d (%s)",
					tt.err, got, Description(got), tt.expected, Description(tt.expected))
			}
		})
	}
}

func TestExitError(t *testing.T) {
	inner := errors.New("inner error")
	exitErr := NewExitError(inner, ConnectionError)

	if exitErr.Code != ConnectionError {
		t.Errorf("expected code %d, got %d", ConnectionError, exitErr.Code)
	}
	if exitErr.Error() != "inner error" {
		t.Errorf("expected error message 'inner error', got '%s'", exitErr.Error())
	}
	if errors.Unwrap(exitErr) != inner {
		t.Error("Unwrap should return inner error")
	}
	if FromError(fmt.Errorf("wrapped: %w", exitErr)) != ConnectionError {
		t.Errorf("FromError should extract code from a wrapped ExitError")
	}
}

func TestIsRecoverable(t *testing.T) {
	recoverable := []int{ConnectionError, Cancelled, IOError}
	nonRecoverable := []int{Success, ConfigError, MigrationError, ValidationError, StateError}

	for _, code := range recoverable {
		if !IsRecoverable(code) {
			t.Errorf("expected code %d (%s) to be recoverable", code, Description(code))
		}
	}
	for _, code := range nonRecoverable {
		if IsRecoverable(code) {
			t.Errorf("expected code %d (%s) to be non-recoverable", code, Description(code))
		}
	}
}

func TestDescription(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{Success, "success"},
		{ConfigError, "configuration error"},
		{ConnectionError, "connection error (recoverable)"},
		{MigrationError, "migration error"},
		{ValidationError, "validation error"},
		{Cancelled, "cancelled (recoverable)"},
		{StateError, "state error"},
		{IOError, "I/O error (recoverable)"},
		{99, "unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := Description(tt.code); got != tt.expected {
				t.Errorf("Description(%d) = %q, want %q", tt.code, got, tt.expected)
			}
		})
	}
}
