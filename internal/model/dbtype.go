package model

import (
	"fmt"
	"strings"
)

// DbType is the database-agnostic column type tag.
type DbType int

const (
	AnsiString DbType = iota
	AnsiStringFixedLength
	Binary
	Boolean
	Byte
	Currency
	Date
	DateTime
	DateTime2
	DateTimeOffset
	Decimal
	Double
	Guid
	Int16
	Int32
	Int64
	SByte
	Single
	String
	StringFixedLength
	Time
	UInt16
	UInt32
	UInt64
	Xml
)

var dbTypeNames = map[DbType]string{
	AnsiString:            "AnsiString",
	AnsiStringFixedLength: "AnsiStringFixedLength",
	Binary:                "Binary",
	Boolean:               "Boolean",
	Byte:                  "Byte",
	Currency:              "Currency",
	Date:                  "Date",
	DateTime:              "DateTime",
	DateTime2:             "DateTime2",
	DateTimeOffset:        "DateTimeOffset",
	Decimal:               "Decimal",
	Double:                "Double",
	Guid:                  "Guid",
	Int16:                 "Int16",
	Int32:                 "Int32",
	Int64:                 "Int64",
	SByte:                 "SByte",
	Single:                "Single",
	String:                "String",
	StringFixedLength:     "StringFixedLength",
	Time:                  "Time",
	UInt16:                "UInt16",
	UInt32:                "UInt32",
	UInt64:                "UInt64",
	Xml:                   "Xml",
}

// aliases accepted by ParseDbType in addition to the canonical names.
var dbTypeAliases = map[string]DbType{
	"ansi_string":              AnsiString,
	"ansi_string_fixed_length": AnsiStringFixedLength,
	"fixed_length_ansi_string": AnsiStringFixedLength,
	"bool":                     Boolean,
	"datetime_offset":          DateTimeOffset,
	"float":                    Single,
	"float32":                  Single,
	"float64":                  Double,
	"uuid":                     Guid,
	"int":                      Int32,
	"integer":                  Int32,
	"bigint":                   Int64,
	"smallint":                 Int16,
	"varchar":                  String,
	"string_fixed_length":      StringFixedLength,
	"fixed_length_string":      StringFixedLength,
	"char":                     StringFixedLength,
	"uint16":                   UInt16,
	"uint32":                   UInt32,
	"uint64":                   UInt64,
}

func (t DbType) String() string {
	if name, ok := dbTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("DbType(%d)", int(t))
}

// ParseDbType resolves a type name case-insensitively. Both the canonical
// names ("AnsiString") and snake_case aliases ("ansi_string") are accepted.
func ParseDbType(name string) (DbType, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	for t, n := range dbTypeNames {
		if strings.ToLower(n) == lower {
			return t, nil
		}
	}
	if t, ok := dbTypeAliases[lower]; ok {
		return t, nil
	}
	return 0, fmt.Errorf("unknown column type %q", name)
}

// SystemMethod is a database function usable as a column default.
type SystemMethod int

const (
	NewGuid SystemMethod = iota
	NewSequentialId
	CurrentDateTime
	CurrentDateTimeOffset
	CurrentUTCDateTime
	CurrentUser
)

var systemMethodNames = map[SystemMethod]string{
	NewGuid:               "NewGuid",
	NewSequentialId:       "NewSequentialId",
	CurrentDateTime:       "CurrentDateTime",
	CurrentDateTimeOffset: "CurrentDateTimeOffset",
	CurrentUTCDateTime:    "CurrentUTCDateTime",
	CurrentUser:           "CurrentUser",
}

func (m SystemMethod) String() string {
	if name, ok := systemMethodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("SystemMethod(%d)", int(m))
}

// ParseSystemMethod resolves a system method name case-insensitively.
// Underscores are ignored, so "current_utc_date_time" matches CurrentUTCDateTime.
func ParseSystemMethod(name string) (SystemMethod, error) {
	want := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "_", ""))
	for m, n := range systemMethodNames {
		if strings.ToLower(n) == want {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown system method %q", name)
}

// Rule is a referential action for ON DELETE / ON UPDATE.
type Rule int

const (
	RuleNone Rule = iota
	RuleCascade
	RuleSetNull
	RuleSetDefault
)

// SQL returns the action keyword, or "" for RuleNone.
func (r Rule) SQL() string {
	switch r {
	case RuleCascade:
		return "CASCADE"
	case RuleSetNull:
		return "SET NULL"
	case RuleSetDefault:
		return "SET DEFAULT"
	}
	return ""
}

// ParseRule accepts "cascade", "set_null", "set null", "set_default" and "none".
func ParseRule(s string) (Rule, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", " ")) {
	case "", "none", "no action":
		return RuleNone, nil
	case "cascade":
		return RuleCascade, nil
	case "set null":
		return RuleSetNull, nil
	case "set default":
		return RuleSetDefault, nil
	}
	return RuleNone, fmt.Errorf("unknown foreign key rule %q", s)
}
