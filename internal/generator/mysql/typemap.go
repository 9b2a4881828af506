package mysql

import (
	"math"

	"github.com/johndauphine/mariadb-migrate/internal/generator"
	"github.com/johndauphine/mariadb-migrate/internal/model"
)

// Capacities shared by the MySQL family type maps.
const (
	AnsiCharSet        = "utf8mb3"
	CharSet            = "utf8mb4"
	StringCapacity     = 255
	VarcharCapacity    = 16383
	TextCapacity       = 65535
	MediumTextCapacity = 16777215
	LongTextCapacity   = math.MaxInt32
	DecimalCapacity    = 65
	TimePrecision      = 6

	// MySQL 5 raised the VARCHAR limit to the 64KB row size. With a 3-byte
	// charset that is 21845 characters and with NVARCHAR (utf8) the same.
	mysql5VarcharCapacity = 21845
)

func setTextTiers(m *generator.TypeMap, t model.DbType, suffix string) {
	m.SetSized(t, "TEXT"+suffix, TextCapacity)
	m.SetSized(t, "MEDIUMTEXT"+suffix, MediumTextCapacity)
	m.SetSized(t, "LONGTEXT"+suffix, LongTextCapacity)
}

func setBlobTiers(m *generator.TypeMap) {
	m.Set(model.Binary, "LONGBLOB")
	m.SetSized(model.Binary, "TINYBLOB", StringCapacity)
	m.SetSized(model.Binary, "BLOB", TextCapacity)
	m.SetSized(model.Binary, "MEDIUMBLOB", MediumTextCapacity)
	m.SetSized(model.Binary, "LONGBLOB", LongTextCapacity)
}

// NewMySQL4TypeMap returns the type map of MySQL 4.
func NewMySQL4TypeMap() *generator.TypeMap {
	m := generator.NewTypeMap()

	m.Set(model.AnsiStringFixedLength, "CHAR(255)")
	m.SetSized(model.AnsiStringFixedLength, "CHAR($size)", StringCapacity)
	setTextTiers(m, model.AnsiStringFixedLength, "")

	m.Set(model.AnsiString, "VARCHAR(255)")
	m.SetSized(model.AnsiString, "VARCHAR($size)", StringCapacity)
	setTextTiers(m, model.AnsiString, "")

	m.Set(model.StringFixedLength, "NCHAR(255)")
	m.SetSized(model.StringFixedLength, "NCHAR($size)", StringCapacity)
	setTextTiers(m, model.StringFixedLength, "")

	m.Set(model.String, "NVARCHAR(255)")
	m.SetSized(model.String, "NVARCHAR($size)", StringCapacity)
	setTextTiers(m, model.String, "")

	setBlobTiers(m)

	m.Set(model.Boolean, "TINYINT(1)")
	m.Set(model.Byte, "TINYINT UNSIGNED")
	m.Set(model.SByte, "TINYINT")
	m.Set(model.Currency, "DECIMAL(19,4)")
	m.Set(model.Date, "DATE")
	m.Set(model.DateTime, "DATETIME")
	m.Set(model.DateTime2, "DATETIME")
	m.Set(model.DateTimeOffset, "DATETIME")
	m.Set(model.Decimal, "DECIMAL(19,5)")
	m.SetSized(model.Decimal, "DECIMAL($size,$precision)", DecimalCapacity)
	m.Set(model.Double, "DOUBLE")
	m.Set(model.Guid, "CHAR(36)")
	m.Set(model.Int16, "SMALLINT")
	m.Set(model.Int32, "INTEGER")
	m.Set(model.Int64, "BIGINT")
	m.Set(model.Single, "FLOAT")
	m.Set(model.Time, "TIME")
	m.Set(model.Xml, "TEXT")
	m.Set(model.UInt16, "UNSIGNED SMALLINT")
	m.Set(model.UInt32, "UNSIGNED INTEGER")
	m.Set(model.UInt64, "UNSIGNED BIGINT")
	return m
}

// NewMySQL5TypeMap returns the MySQL 5 map: MySQL 4 with wider VARCHARs.
func NewMySQL5TypeMap() *generator.TypeMap {
	m := NewMySQL4TypeMap()
	m.Clear(model.AnsiString)
	m.Set(model.AnsiString, "VARCHAR(255)")
	m.SetSized(model.AnsiString, "VARCHAR($size)", mysql5VarcharCapacity)
	setTextTiers(m, model.AnsiString, "")

	m.Clear(model.String)
	m.Set(model.String, "NVARCHAR(255)")
	m.SetSized(model.String, "NVARCHAR($size)", mysql5VarcharCapacity)
	setTextTiers(m, model.String, "")
	return m
}

// NewMySQL8TypeMap returns the MySQL 8 map, which adds fractional TIME.
func NewMySQL8TypeMap() *generator.TypeMap {
	m := NewMySQL5TypeMap()
	m.Set(model.Time, "TIME")
	m.SetSized(model.Time, "TIME($size)", TimePrecision)
	return m
}

// NewMariaDBTypeMap returns the MariaDB map. Strings carry an explicit
// character set so columns do not depend on the server default.
func NewMariaDBTypeMap() *generator.TypeMap {
	m := generator.NewTypeMap()

	for _, s := range []struct {
		fixed, varying model.DbType
		charset        string
	}{
		{model.AnsiStringFixedLength, model.AnsiString, AnsiCharSet},
		{model.StringFixedLength, model.String, CharSet},
	} {
		suffix := " CHARACTER SET " + s.charset
		m.Set(s.fixed, "CHAR(255)"+suffix)
		m.SetSized(s.fixed, "CHAR($size)"+suffix, StringCapacity)
		setTextTiers(m, s.fixed, suffix)

		m.Set(s.varying, "VARCHAR(255)"+suffix)
		m.SetSized(s.varying, "VARCHAR($size)"+suffix, VarcharCapacity)
		setTextTiers(m, s.varying, suffix)
	}

	setBlobTiers(m)

	m.Set(model.Boolean, "BIT")
	m.Set(model.Byte, "TINYINT(1) UNSIGNED")
	m.Set(model.Currency, "DECIMAL(19,4)")
	m.Set(model.Date, "DATE")
	m.Set(model.DateTime, "DATETIME(0)")
	m.SetSized(model.DateTime, "DATETIME($size)", TimePrecision)
	m.Set(model.DateTime2, "DATETIME(6)")
	m.Set(model.Decimal, "DECIMAL(19,5)")
	m.SetSized(model.Decimal, "DECIMAL($size,$precision)", DecimalCapacity)
	m.Set(model.Double, "DOUBLE")
	m.Set(model.Guid, "UUID")
	m.Set(model.Int16, "SMALLINT")
	m.Set(model.Int32, "INT")
	m.Set(model.Int64, "BIGINT")
	m.Set(model.Single, "FLOAT")
	m.Set(model.Time, "TIME(0)")
	m.SetSized(model.Time, "TIME($size)", TimePrecision)
	m.Set(model.UInt16, "SMALLINT UNSIGNED")
	m.Set(model.UInt32, "INT UNSIGNED")
	m.Set(model.UInt64, "BIGINT UNSIGNED")
	return m
}
