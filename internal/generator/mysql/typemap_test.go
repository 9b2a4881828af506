package mysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johndauphine/mariadb-migrate/internal/generator"
	"github.com/johndauphine/mariadb-migrate/internal/model"
)

type typeCase struct {
	name      string
	typ       model.DbType
	size      *int
	precision *int
	want      string
}

func runTypeCases(t *testing.T, m *generator.TypeMap, cases []typeCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := m.Get(tc.typ, tc.size, tc.precision)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func stringTierCases(prefix string, fixed, varying model.DbType, charset string) []typeCase {
	cs := " CHARACTER SET " + charset
	return []typeCase{
		{prefix + "FixedLengthDefault", fixed, nil, nil, "CHAR(255)" + cs},
		{prefix + "FixedLengthSized", fixed, model.Int(StringCapacity), nil, "CHAR(255)" + cs},
		{prefix + "FixedLengthText", fixed, model.Int(TextCapacity), nil, "TEXT" + cs},
		{prefix + "FixedLengthMediumText", fixed, model.Int(MediumTextCapacity), nil, "MEDIUMTEXT" + cs},
		{prefix + "FixedLengthLongText", fixed, model.Int(LongTextCapacity), nil, "LONGTEXT" + cs},
		{prefix + "Default", varying, nil, nil, "VARCHAR(255)" + cs},
		{prefix + "Sized", varying, model.Int(VarcharCapacity), nil, "VARCHAR(16383)" + cs},
		{prefix + "Text", varying, model.Int(VarcharCapacity + 1), nil, "TEXT" + cs},
		{prefix + "MediumText", varying, model.Int(MediumTextCapacity), nil, "MEDIUMTEXT" + cs},
		{prefix + "LongText", varying, model.Int(LongTextCapacity), nil, "LONGTEXT" + cs},
	}
}

func TestMariaDBTypeMap(t *testing.T) {
	m := NewMariaDBTypeMap()

	cases := append(
		stringTierCases("AnsiString", model.AnsiStringFixedLength, model.AnsiString, AnsiCharSet),
		stringTierCases("String", model.StringFixedLength, model.String, "utf8mb4")...)
	cases = append(cases, []typeCase{
		{"BinaryDefault", model.Binary, nil, nil, "LONGBLOB"},
		{"BinaryTiny", model.Binary, model.Int(StringCapacity), nil, "TINYBLOB"},
		{"Blob", model.Binary, model.Int(TextCapacity), nil, "BLOB"},
		{"MediumBlob", model.Binary, model.Int(MediumTextCapacity), nil, "MEDIUMBLOB"},
		{"LongBlob", model.Binary, model.Int(LongTextCapacity), nil, "LONGBLOB"},
		{"Boolean", model.Boolean, nil, nil, "BIT"},
		{"Byte", model.Byte, nil, nil, "TINYINT(1) UNSIGNED"},
		{"Currency", model.Currency, nil, nil, "DECIMAL(19,4)"},
		{"Date", model.Date, nil, nil, "DATE"},
		{"DateTime", model.DateTime, nil, nil, "DATETIME(0)"},
		{"DateTimeSized", model.DateTime, model.Int(3), nil, "DATETIME(3)"},
		{"DateTime2", model.DateTime2, nil, nil, "DATETIME(6)"},
		{"DecimalDefault", model.Decimal, nil, nil, "DECIMAL(19,5)"},
		{"DecimalSized", model.Decimal, model.Int(20), model.Int(4), "DECIMAL(20,4)"},
		{"DecimalMax", model.Decimal, model.Int(DecimalCapacity), model.Int(10), "DECIMAL(65,10)"},
		{"Double", model.Double, nil, nil, "DOUBLE"},
		{"Guid", model.Guid, nil, nil, "UUID"},
		{"Int16", model.Int16, nil, nil, "SMALLINT"},
		{"Int32", model.Int32, nil, nil, "INT"},
		{"Int64", model.Int64, nil, nil, "BIGINT"},
		{"Single", model.Single, nil, nil, "FLOAT"},
		{"Time", model.Time, nil, nil, "TIME(0)"},
		{"TimeSized", model.Time, model.Int(6), nil, "TIME(6)"},
		{"UInt16", model.UInt16, nil, nil, "SMALLINT UNSIGNED"},
		{"UInt32", model.UInt32, nil, nil, "INT UNSIGNED"},
		{"UInt64", model.UInt64, nil, nil, "BIGINT UNSIGNED"},
	}...)

	runTypeCases(t, m, cases)
}

func TestMariaDBTypeMapUnsupported(t *testing.T) {
	_, err := NewMariaDBTypeMap().Get(model.DateTimeOffset, nil, nil)
	assert.ErrorIs(t, err, generator.ErrUnsupportedType)
}

func TestMySQL4TypeMap(t *testing.T) {
	runTypeCases(t, NewMySQL4TypeMap(), []typeCase{
		{"UInt16IsUnsignedSmallint", model.UInt16, nil, nil, "UNSIGNED SMALLINT"},
		{"UInt32IsUnsignedInteger", model.UInt32, nil, nil, "UNSIGNED INTEGER"},
		{"UInt64IsUnsignedBigInt", model.UInt64, nil, nil, "UNSIGNED BIGINT"},
		{"Int32", model.Int32, nil, nil, "INTEGER"},
		{"Boolean", model.Boolean, nil, nil, "TINYINT(1)"},
		{"AnsiStringSized", model.AnsiString, model.Int(100), nil, "VARCHAR(100)"},
		{"AnsiStringAboveVarchar", model.AnsiString, model.Int(1000), nil, "TEXT"},
		{"StringSized", model.String, model.Int(100), nil, "NVARCHAR(100)"},
		{"Guid", model.Guid, nil, nil, "CHAR(36)"},
	})
}

func TestMySQL5TypeMapWidensVarchar(t *testing.T) {
	runTypeCases(t, NewMySQL5TypeMap(), []typeCase{
		{"AnsiString", model.AnsiString, model.Int(1000), nil, "VARCHAR(1000)"},
		{"String", model.String, model.Int(1000), nil, "NVARCHAR(1000)"},
		{"StringText", model.String, model.Int(30000), nil, "TEXT"},
		{"Time", model.Time, model.Int(3), nil, "TIME"},
	})

	// MySQL 4 must not see the MySQL 5 tiers.
	got, err := NewMySQL4TypeMap().Get(model.AnsiString, model.Int(1000), nil)
	require.NoError(t, err)
	assert.Equal(t, "TEXT", got)
}

func TestMySQL8TypeMap(t *testing.T) {
	runTypeCases(t, NewMySQL8TypeMap(), []typeCase{
		{"TimeWithoutSizeIsTimeWithoutPrecision", model.Time, nil, nil, "TIME"},
		{"TimeWithSizeIsTimeWithPrecision", model.Time, model.Int(3), nil, "TIME(3)"},
	})
}
