package sqlite

import "fmt"

type argumentKind uint8

const (
	argNull argumentKind = iota
	argInt
	argInt64
	argDouble
	argText
	argBlob
)

// ArgumentValue is one SQLite-native bound value.
type ArgumentValue struct {
	kind argumentKind
	i32  int32
	i64  int64
	f64  float64
	text string
	blob []byte
}

func NullArgument() ArgumentValue {
	return ArgumentValue{kind: argNull}
}

func IntArgument(v int32) ArgumentValue {
	return ArgumentValue{kind: argInt, i32: v}
}

func Int64Argument(v int64) ArgumentValue {
	return ArgumentValue{kind: argInt64, i64: v}
}

func DoubleArgument(v float64) ArgumentValue {
	return ArgumentValue{kind: argDouble, f64: v}
}

func TextArgument(v string) ArgumentValue {
	return ArgumentValue{kind: argText, text: v}
}

// BlobArgument binds a byte slice without copying it. The buffer must stay
// untouched until the statement has finished executing.
func BlobArgument(v []byte) ArgumentValue {
	return ArgumentValue{kind: argBlob, blob: v}
}

// driverValue returns the value in the form the database/sql layer binds.
func (a ArgumentValue) driverValue() any {
	switch a.kind {
	case argNull:
		return nil
	case argInt:
		return int64(a.i32)
	case argInt64:
		return a.i64
	case argDouble:
		return a.f64
	case argText:
		return a.text
	case argBlob:
		return a.blob
	default:
		panic(fmt.Sprintf("sqlite: invalid argument kind %d", a.kind))
	}
}

// Arguments is an ordered sequence of SQLite-native bound values.
type Arguments struct {
	values []ArgumentValue
}

func NewArguments(values ...ArgumentValue) *Arguments {
	return &Arguments{values: values}
}

func (a *Arguments) Len() int {
	if a == nil {
		return 0
	}
	return len(a.values)
}

// driverValues converts the sequence for binding. Safe on a nil receiver.
func (a *Arguments) driverValues() []any {
	if a == nil {
		return nil
	}

	out := make([]any, len(a.values))
	for i, v := range a.values {
		out[i] = v.driverValue()
	}
	return out
}
