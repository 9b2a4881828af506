package processor

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/johndauphine/mariadb-migrate/internal/expression"
)

type stubGenerator struct {
	sql string
	err error
}

func (g stubGenerator) Generate(expression.Expression) (string, error) { return g.sql, g.err }

func newBase(t *testing.T, gen stubGenerator, opts Options) (*Base, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewBase(db, gen, opts), mock
}

func TestProcess(t *testing.T) {
	genErr := errors.New("unsupported")

	tests := []struct {
		name     string
		gen      stubGenerator
		opts     Options
		wantExec bool
		wantErr  error
	}{
		{name: "executes generated SQL", gen: stubGenerator{sql: "DROP TABLE `t`"}, wantExec: true},
		{name: "empty SQL is skipped", gen: stubGenerator{}},
		{name: "preview skips execution", gen: stubGenerator{sql: "DROP TABLE `t`"}, opts: Options{PreviewOnly: true}},
		{name: "generator error", gen: stubGenerator{err: genErr}, wantErr: genErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, mock := newBase(t, tt.gen, tt.opts)
			if tt.wantExec {
				mock.ExpectExec(regexp.QuoteMeta(tt.gen.sql)).WillReturnResult(sqlmock.NewResult(0, 0))
			}

			err := b.Process(context.Background(), &expression.DeleteTable{TableName: "t"})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Process() error = %v, want %v", err, tt.wantErr)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestTransactions(t *testing.T) {
	b, mock := newBase(t, stubGenerator{}, Options{})
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectRollback()

	if err := b.BeginTransaction(ctx); err != nil {
		t.Fatalf("BeginTransaction() error = %v", err)
	}
	if err := b.BeginTransaction(ctx); !errors.Is(err, ErrTransactionActive) {
		t.Errorf("second BeginTransaction() error = %v, want %v", err, ErrTransactionActive)
	}
	if err := b.Execute(ctx, "INSERT INTO `t` (`a`) VALUES (1)"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if err := b.CommitTransaction(); err != nil {
		t.Fatalf("CommitTransaction() error = %v", err)
	}
	if err := b.BeginTransaction(ctx); err != nil {
		t.Fatalf("BeginTransaction() error = %v", err)
	}
	if err := b.RollbackTransaction(); err != nil {
		t.Fatalf("RollbackTransaction() error = %v", err)
	}
	if err := b.CommitTransaction(); err != nil {
		t.Errorf("CommitTransaction() without a transaction = %v, want nil", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestExecuteError(t *testing.T) {
	b, mock := newBase(t, stubGenerator{}, Options{})
	boom := errors.New("duplicate column")
	mock.ExpectExec("ALTER TABLE").WillReturnError(boom)

	if err := b.Execute(context.Background(), "ALTER TABLE `t` ADD COLUMN `a` INTEGER"); !errors.Is(err, boom) {
		t.Errorf("Execute() error = %v, want %v", err, boom)
	}
}

func TestRead(t *testing.T) {
	b, mock := newBase(t, stubGenerator{}, Options{})
	mock.ExpectQuery("SELECT `Version`").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"Version", "Description"}).
			AddRow(int64(3), []byte("add orders")))

	data, err := b.Read(context.Background(), "SELECT `Version`, `Description` FROM `VersionInfo` WHERE `Version` = ?", int64(3))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if data.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", data.Len())
	}
	if got := data.Value(0, "Description"); got != "add orders" {
		t.Errorf("Value(0, Description) = %v, want %q", got, "add orders")
	}
	if got := data.Value(0, "Missing"); got != nil {
		t.Errorf("Value(0, Missing) = %v, want nil", got)
	}
}
