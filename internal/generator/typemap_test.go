package generator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johndauphine/mariadb-migrate/internal/model"
)

func newTextMap() *TypeMap {
	m := NewTypeMap()
	m.Set(model.AnsiString, "VARCHAR(255)")
	m.SetSized(model.AnsiString, "LONGTEXT", 2147483647)
	m.SetSized(model.AnsiString, "VARCHAR($size)", 255)
	m.SetSized(model.AnsiString, "TEXT", 65535)
	m.Set(model.Decimal, "DECIMAL(19,5)")
	m.SetSized(model.Decimal, "DECIMAL($size,$precision)", 38)
	m.SetSized(model.Binary, "VARBINARY(8000)", 8000)
	m.Set(model.Int32, "INT")
	return m
}

func TestTypeMapGet(t *testing.T) {
	m := newTextMap()

	tests := []struct {
		name      string
		typ       model.DbType
		size      *int
		precision *int
		want      string
	}{
		{"default without size", model.AnsiString, nil, nil, "VARCHAR(255)"},
		{"smallest tier", model.AnsiString, model.Int(10), nil, "VARCHAR(10)"},
		{"tier boundary is inclusive", model.AnsiString, model.Int(255), nil, "VARCHAR(255)"},
		{"next tier", model.AnsiString, model.Int(256), nil, "TEXT"},
		{"largest tier", model.AnsiString, model.Int(70000), nil, "LONGTEXT"},
		{"precision substituted", model.Decimal, model.Int(10), model.Int(2), "DECIMAL(10,2)"},
		{"precision defaults to zero", model.Decimal, model.Int(10), nil, "DECIMAL(10,0)"},
		{"above every capacity uses largest", model.Decimal, model.Int(100), model.Int(4), "DECIMAL(100,4)"},
		{"no default uses first sized entry", model.Binary, nil, nil, "VARBINARY(8000)"},
		{"size ignored without tiers", model.Int32, model.Int(11), nil, "INT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Get(tt.typ, tt.size, tt.precision)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTypeMapUnsupported(t *testing.T) {
	_, err := NewTypeMap().Get(model.Xml, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedType))
	assert.Contains(t, err.Error(), "Xml")
}

func TestTypeMapSetSizedReplaces(t *testing.T) {
	m := NewTypeMap()
	m.SetSized(model.String, "NVARCHAR($size)", 255)
	m.SetSized(model.String, "VARCHAR($size)", 255)

	got, err := m.Get(model.String, model.Int(20), nil)
	require.NoError(t, err)
	assert.Equal(t, "VARCHAR(20)", got)
}

func TestTypeMapCloneIsIndependent(t *testing.T) {
	m := newTextMap()
	cp := m.Clone()
	cp.Clear(model.AnsiString)
	cp.Set(model.AnsiString, "CLOB")

	got, err := m.Get(model.AnsiString, model.Int(300), nil)
	require.NoError(t, err)
	assert.Equal(t, "TEXT", got)

	got, err = cp.Get(model.AnsiString, model.Int(300), nil)
	require.NoError(t, err)
	assert.Equal(t, "CLOB", got)
}
