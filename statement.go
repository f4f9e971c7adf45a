package sqlx

// Statement is an erased prepared-statement handle.
type Statement struct {
	SQL string

	// Columns describes the result columns, when the backend can report
	// them without executing the statement.
	Columns []Column

	// ColumnNames maps column name to ordinal. Shared with every row the
	// statement produces.
	ColumnNames map[string]int

	// ParamCount is the number of bind parameters.
	ParamCount int
}

// Description is the erased static description of a statement, consumable by
// callers independent of backend.
type Description struct {
	// Parameters holds one type per bind parameter. Backends that do not
	// type their parameters (such as SQLite) report the zero TypeInfo for
	// each.
	Parameters []TypeInfo

	Columns []Column
}
