// Package sqlite is a SQLite backend for the sqlx erased connection layer.
//
// The driver runs over modernc.org/sqlite. Each connection is owned by a
// single-writer worker goroutine; statements stream their results over a
// bounded channel, and the bridge in this package projects them into the
// erased representation item by item. Importing the package registers the
// "sqlite", "sqlite3" and "file" URL schemes with the sqlx driver registry.
package sqlite

import (
	"fmt"
	"strings"
	"time"
)

// DataType is SQLite's native datatype taxonomy. SQLite types individual
// values, not columns: a column's declared type only supplies an affinity,
// and every cell carries its own datatype.
type DataType uint8

const (
	DataTypeNull DataType = iota
	DataTypeInt
	DataTypeInt64
	DataTypeFloat
	DataTypeText
	DataTypeBlob
	DataTypeNumeric
	DataTypeBool
	DataTypeDate
	DataTypeTime
	DataTypeDatetime
)

func (d DataType) String() string {
	switch d {
	case DataTypeNull:
		return "NULL"
	case DataTypeInt:
		return "INTEGER"
	case DataTypeInt64:
		return "BIGINT"
	case DataTypeFloat:
		return "REAL"
	case DataTypeText:
		return "TEXT"
	case DataTypeBlob:
		return "BLOB"
	case DataTypeNumeric:
		return "NUMERIC"
	case DataTypeBool:
		return "BOOLEAN"
	case DataTypeDate:
		return "DATE"
	case DataTypeTime:
		return "TIME"
	case DataTypeDatetime:
		return "DATETIME"
	default:
		return fmt.Sprintf("DATATYPE(%d)", uint8(d))
	}
}

// TypeInfo is the concrete SQLite type descriptor. Immutable once produced.
type TypeInfo struct {
	DataType DataType
}

func (t TypeInfo) String() string { return t.DataType.String() }

// datatypeFromDecl maps a declared column type to a DataType, following
// SQLite's type-affinity rules. An empty declaration (expression columns)
// yields NULL, matching what the engine reports before a value exists.
func datatypeFromDecl(decl string) DataType {
	decl = strings.ToUpper(strings.TrimSpace(decl))

	switch {
	case decl == "":
		return DataTypeNull
	case decl == "BOOLEAN" || decl == "BOOL":
		return DataTypeBool
	case decl == "DATETIME" || decl == "TIMESTAMP":
		return DataTypeDatetime
	case decl == "DATE":
		return DataTypeDate
	case decl == "TIME":
		return DataTypeTime
	case strings.Contains(decl, "INT"):
		return DataTypeInt64
	case strings.Contains(decl, "CHAR"),
		strings.Contains(decl, "CLOB"),
		strings.Contains(decl, "TEXT"):
		return DataTypeText
	case strings.Contains(decl, "BLOB"):
		return DataTypeBlob
	case strings.Contains(decl, "REAL"),
		strings.Contains(decl, "FLOA"),
		strings.Contains(decl, "DOUB"):
		return DataTypeFloat
	default:
		return DataTypeNumeric
	}
}

// datatypeOfValue derives the datatype of one fetched cell from the value
// the engine produced for it.
func datatypeOfValue(v any) DataType {
	switch v.(type) {
	case nil:
		return DataTypeNull
	case int64:
		return DataTypeInt64
	case float64:
		return DataTypeFloat
	case string:
		return DataTypeText
	case []byte:
		return DataTypeBlob
	case bool:
		return DataTypeBool
	case time.Time:
		return DataTypeDatetime
	default:
		return DataTypeNumeric
	}
}
