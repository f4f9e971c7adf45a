package sqlx

// TypeInfo is the erased type descriptor for a column or parameter. The zero
// TypeInfo has [KindUnknown].
type TypeInfo struct {
	Kind Kind
}

func (t TypeInfo) String() string { return t.Kind.String() }

// Column is one field of a result set.
type Column struct {
	// Ordinal is the 0-based position of the column in the result set.
	Ordinal int
	Name    string
	Type    TypeInfo
}

// Row is one fetched record. The column slice and the name table are shared
// by reference across every row of a result set; they are built once per
// result set and must not be mutated. Row contents are immutable once
// materialized.
type Row struct {
	columns []Column
	names   map[string]int
	values  []Value
}

// NewRow builds a row over a shared column table. Backends call this once
// per fetched record, passing the same columns and names for every row of a
// result set.
func NewRow(columns []Column, names map[string]int, values []Value) Row {
	return Row{columns: columns, names: names, values: values}
}

func (r Row) Len() int { return len(r.values) }

func (r Row) Columns() []Column { return r.columns }

func (r Row) Column(i int) Column { return r.columns[i] }

// Value returns the cell at ordinal i.
func (r Row) Value(i int) Value { return r.values[i] }

// Get returns the cell for the named column, reporting whether the column
// exists.
func (r Row) Get(name string) (Value, bool) {
	i, ok := r.names[name]
	if !ok {
		return Value{}, false
	}
	return r.values[i], true
}

// Values returns the cells in ordinal order. The slice must not be mutated.
func (r Row) Values() []Value { return r.values }
