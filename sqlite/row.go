package sqlite

// Column is one field of a concrete result set. The Type comes from the
// column's declared type; individual cells may carry a different datatype.
type Column struct {
	Ordinal int
	Name    string
	Type    TypeInfo
}

// Row is one fetched SQLite record. The column slice and name table are
// shared across every row of a result set; per-cell datatypes are derived
// from the values the engine produced, because SQLite types cells rather
// than columns.
type Row struct {
	columns []Column
	names   map[string]int
	values  []any
	types   []TypeInfo
}

func (r Row) Len() int { return len(r.values) }

func (r Row) Columns() []Column { return r.columns }

func (r Row) Column(i int) Column { return r.columns[i] }

// ColumnNames returns the shared name-to-ordinal table.
func (r Row) ColumnNames() map[string]int { return r.names }

// Value returns the driver-level value of the cell at ordinal i: int64,
// float64, string, []byte or nil.
func (r Row) Value(i int) any { return r.values[i] }

// TypeOf returns the datatype of the cell at ordinal i.
func (r Row) TypeOf(i int) TypeInfo { return r.types[i] }

// QueryResult is the concrete outcome of a statement that does not return
// rows.
type QueryResult struct {
	rowsAffected    int64
	lastInsertRowID int64
}

func (r QueryResult) RowsAffected() uint64 {
	if r.rowsAffected < 0 {
		return 0
	}
	return uint64(r.rowsAffected)
}

// LastInsertRowID returns the rowid of the most recent successful INSERT on
// the connection.
func (r QueryResult) LastInsertRowID() int64 { return r.lastInsertRowID }

// StatementInfo is the concrete static description of a statement: its bind
// parameter count and, for row-returning statements, its result columns.
type StatementInfo struct {
	SQL         string
	Columns     []Column
	ColumnNames map[string]int
	ParamCount  int
}
