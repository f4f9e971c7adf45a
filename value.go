package sqlx

import "fmt"

// Value is one bound argument or one fetched cell in the erased
// representation. It is a tagged union over [Kind]; the zero Value has
// [KindUnknown] and is rejected by every backend mapping.
type Value struct {
	kind Kind
	num  int64
	real float64
	text string
	blob []byte
}

// Null returns the erased NULL value.
func Null() Value {
	return Value{kind: KindNull}
}

func SmallInt(v int16) Value {
	return Value{kind: KindSmallInt, num: int64(v)}
}

func Integer(v int32) Value {
	return Value{kind: KindInteger, num: int64(v)}
}

func BigInt(v int64) Value {
	return Value{kind: KindBigInt, num: v}
}

func Real(v float32) Value {
	return Value{kind: KindReal, real: float64(v)}
}

func Double(v float64) Value {
	return Value{kind: KindDouble, real: v}
}

// Text returns an erased text value. The string is passed through to the
// backend as is.
func Text(v string) Value {
	return Value{kind: KindText, text: v}
}

// Blob returns an erased blob value. The byte slice is not copied: it is
// aliased by the returned Value and must not be mutated until the statement
// it is bound to has finished executing.
func Blob(v []byte) Value {
	return Value{kind: KindBlob, blob: v}
}

// ValueOf converts a plain Go value to its erased equivalent. Signed integers
// map to the narrowest kind that holds them losslessly, bool maps to BigInt 0
// or 1, and nil maps to NULL.
func ValueOf(v any) (Value, error) {
	switch v := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return v, nil
	case bool:
		if v {
			return BigInt(1), nil
		}
		return BigInt(0), nil
	case int8:
		return SmallInt(int16(v)), nil
	case int16:
		return SmallInt(v), nil
	case int32:
		return Integer(v), nil
	case int:
		return BigInt(int64(v)), nil
	case int64:
		return BigInt(v), nil
	case uint8:
		return SmallInt(int16(v)), nil
	case uint16:
		return Integer(int32(v)), nil
	case uint32:
		return BigInt(int64(v)), nil
	case uint64:
		if v > maxInt64 {
			return Value{}, fmt.Errorf("sqlx: uint64 value %d overflows BIGINT", v)
		}
		return BigInt(int64(v)), nil
	case uint:
		return ValueOf(uint64(v))
	case float32:
		return Real(v), nil
	case float64:
		return Double(v), nil
	case string:
		return Text(v), nil
	case []byte:
		return Blob(v), nil
	default:
		return Value{}, fmt.Errorf("sqlx: cannot convert %T to an erased value", v)
	}
}

const maxInt64 = 1<<63 - 1

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

// Int64 returns the numeric payload of an integer-kinded value.
func (v Value) Int64() int64 { return v.num }

// Float64 returns the numeric payload of a float-kinded value.
func (v Value) Float64() float64 { return v.real }

// Text returns the payload of a text value.
func (v Value) Text() string { return v.text }

// Blob returns the payload of a blob value. The slice aliases the original
// buffer.
func (v Value) Blob() []byte { return v.blob }

// Any returns the natural Go representation of the value: int64 for integer
// kinds, float64 for float kinds, string, []byte, or nil.
func (v Value) Any() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindSmallInt, KindInteger, KindBigInt:
		return v.num
	case KindReal, KindDouble:
		return v.real
	case KindText:
		return v.text
	case KindBlob:
		return v.blob
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "NULL"
	case KindSmallInt, KindInteger, KindBigInt:
		return fmt.Sprintf("%s(%d)", v.kind, v.num)
	case KindReal, KindDouble:
		return fmt.Sprintf("%s(%g)", v.kind, v.real)
	case KindText:
		return fmt.Sprintf("TEXT(%q)", v.text)
	case KindBlob:
		return fmt.Sprintf("BLOB(%d bytes)", len(v.blob))
	default:
		return v.kind.String()
	}
}
