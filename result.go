package sqlx

import "github.com/aarondl/opt/null"

// QueryResult is the erased outcome of a statement that does not return
// rows.
type QueryResult struct {
	RowsAffected uint64

	// LastInsertID is null whenever the backend has no stable concept
	// matching it. Backend-specific equivalents (such as the SQLite rowid)
	// are dropped rather than approximated.
	LastInsertID null.Val[int64]
}
