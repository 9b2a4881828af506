package generator

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johndauphine/mariadb-migrate/internal/model"
)

func TestQuoteIdentifiers(t *testing.T) {
	q := NewANSIQuoter()

	assert.Equal(t, `"users"`, q.Quote("users"))
	assert.Equal(t, `"users"`, q.Quote(`"users"`), "already quoted")
	assert.Equal(t, `"a""b"`, q.Quote(`a"b`))
	assert.Equal(t, "", q.Quote(""))
	assert.Equal(t, `"app"."users"`, q.QuoteTableName("users", "app"))
	assert.Equal(t, `"users"`, q.QuoteTableName("users", ""))
	assert.Equal(t, `"a", "b"`, q.QuoteColumnNames([]string{"a", "b"}))
}

func TestQuoteValue(t *testing.T) {
	q := NewANSIQuoter()
	id := uuid.MustParse("1f0c2c8e-7d33-4b2a-9a55-8c57e1b7b2a1")

	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"nil", nil, "NULL"},
		{"explicit null", model.NullValue, "NULL"},
		{"raw sql", model.RawSQL("NOW()"), "NOW()"},
		{"string", "it's", "'it''s'"},
		{"true", true, "1"},
		{"false", false, "0"},
		{"int", 42, "42"},
		{"negative int64", int64(-7), "-7"},
		{"uint8", uint8(255), "255"},
		{"float", 1.5, "1.5"},
		{"time", time.Date(2015, 10, 5, 17, 15, 10, 0, time.UTC), "'2015-10-05T17:15:10'"},
		{"duration", 90 * time.Minute, "'01:30:00'"},
		{"time of day", model.TimeOfDay{Hour: 8, Minute: 5, Second: 3}, "'08:05:03'"},
		{"uuid", id, "'1f0c2c8e-7d33-4b2a-9a55-8c57e1b7b2a1'"},
		{"bytes", []byte{0x0a, 0xff}, "0x0AFF"},
		{"system method", model.CurrentDateTime, "CURRENT_TIMESTAMP"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := q.QuoteValue(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuoteValueUnsupportedSystemMethod(t *testing.T) {
	_, err := NewANSIQuoter().QuoteValue(model.NewGuid)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotSupported))
}

func TestEscapeBackslash(t *testing.T) {
	q := NewANSIQuoter()
	q.EscapeBackslash = true
	got, err := q.QuoteValue(`C:\temp`)
	require.NoError(t, err)
	assert.Equal(t, `'C:\\temp'`, got)
}

func TestQuoterCloneIsIndependent(t *testing.T) {
	q := NewANSIQuoter()
	cp := q.Clone()
	cp.SystemMethods[model.NewGuid] = "UUID()"

	_, ok := q.SystemMethods[model.NewGuid]
	assert.False(t, ok)
}

func TestQuoteValueRejectsNonFiniteFloats(t *testing.T) {
	q := NewANSIQuoter()
	for _, v := range []any{math.NaN(), math.Inf(1), math.Inf(-1), float32(math.Inf(1))} {
		_, err := q.QuoteValue(v)
		assert.ErrorIs(t, err, ErrNonFiniteFloat, "value %v", v)
	}
	got, err := q.QuoteValue(-1.5)
	require.NoError(t, err)
	assert.Equal(t, "-1.5", got)
}

func TestNegativeDurationKeepsSign(t *testing.T) {
	got, err := NewANSIQuoter().QuoteValue(-90 * time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "'-01:30:00'", got)
}

func TestSplitDuration(t *testing.T) {
	d := 4*24*time.Hour + 4*time.Hour + 14*time.Minute + 55*time.Second + 99*time.Millisecond
	h, m, s, ms := SplitDuration(d)
	assert.Equal(t, []int64{100, 14, 55, 99}, []int64{h, m, s, ms})
}
