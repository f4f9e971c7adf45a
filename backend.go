package sqlx

import "context"

// Arguments is an ordered sequence of erased values bound to a statement's
// parameters. A nil *Arguments means the statement carries no parameters and
// is executed non-persistently.
type Arguments struct {
	values []Value
}

func NewArguments(values ...Value) *Arguments {
	return &Arguments{values: values}
}

func (a *Arguments) Add(v Value) {
	a.values = append(a.values, v)
}

// Values returns the bound values in order. Safe to call on a nil receiver.
func (a *Arguments) Values() []Value {
	if a == nil {
		return nil
	}
	return a.values
}

func (a *Arguments) Len() int {
	if a == nil {
		return 0
	}
	return len(a.values)
}

// ConnectionBackend is the full backend-agnostic connection contract. A
// concrete driver implements it over its native connection; exactly one
// logical caller drives a backend at a time, and the backend holds no
// internal lock because the driver enforces exclusive access to the live
// connection.
//
// Every operation surfaces the driver's error unmodified except for the
// mapping failures this layer introduces: [UnsupportedTypeError],
// [UnsupportedArgumentError] and [ColumnDecodeError].
type ConnectionBackend interface {
	// Name returns the backend's driver name, e.g. "sqlite".
	Name() string

	// Close releases the underlying connection gracefully.
	Close(ctx context.Context) error

	// CloseHard releases the underlying connection without waiting for
	// in-flight work.
	CloseHard(ctx context.Context) error

	// Ping checks that the connection is alive.
	Ping(ctx context.Context) error

	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	// StartRollback requests a rollback at the next opportunity without
	// awaiting it.
	StartRollback()

	// Flush completes any pending commands queued on the connection.
	Flush(ctx context.Context) error

	// ShouldFlush reports whether commands are pending.
	ShouldFlush() bool

	// FetchMany executes query and returns its results as a lazy, finite,
	// one-pass stream of summaries and rows. When args is non-nil the
	// statement is persistent: eligible for prepared-statement reuse by the
	// driver.
	FetchMany(ctx context.Context, query string, args *Arguments) *RowStream

	// FetchOptional executes query and returns at most its first row,
	// without draining the rest of the results. It returns nil when the
	// statement produced no row.
	FetchOptional(ctx context.Context, query string, args *Arguments) (*Row, error)

	// Prepare readies query for repeated execution and returns the erased
	// statement handle. Parameter type hints are accepted but backends may
	// ignore them and infer types themselves.
	Prepare(ctx context.Context, query string, paramTypes []TypeInfo) (*Statement, error)

	// Describe returns the backend's static description of query.
	Describe(ctx context.Context, query string) (*Description, error)
}
