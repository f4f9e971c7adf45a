// Package sqlx provides a backend-agnostic SQL connection layer.
//
// Values, rows and type information are expressed in a single erased
// representation shared by every backend. A concrete driver (such as the
// sqlite backend in this module) registers itself with [Register] and
// implements [ConnectionBackend] over its native connection, translating
// between the two representations lazily as results stream in.
package sqlx

import "fmt"

// Kind identifies the erased type of a [Value] or [TypeInfo].
//
// The taxonomy is open: versions of this package may add kinds, so code
// switching on a Kind must treat unlisted values as unsupported rather than
// assume the list is exhaustive. The zero value is [KindUnknown].
type Kind uint8

const (
	KindUnknown Kind = iota
	KindNull
	KindSmallInt
	KindInteger
	KindBigInt
	KindReal
	KindDouble
	KindText
	KindBlob
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "NULL"
	case KindSmallInt:
		return "SMALLINT"
	case KindInteger:
		return "INTEGER"
	case KindBigInt:
		return "BIGINT"
	case KindReal:
		return "REAL"
	case KindDouble:
		return "DOUBLE"
	case KindText:
		return "TEXT"
	case KindBlob:
		return "BLOB"
	case KindUnknown:
		return "UNKNOWN"
	default:
		return fmt.Sprintf("KIND(%d)", uint8(k))
	}
}
