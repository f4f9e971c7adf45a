package sqlx

import "context"

// Connection is a single backend-agnostic database connection. It is a thin
// convenience layer over [ConnectionBackend]: arguments are converted with
// [ValueOf] and result streams are drained into the shapes most callers
// want. Exactly one goroutine may drive a Connection at a time.
type Connection struct {
	backend ConnectionBackend
}

// NewConnection wraps an already-open backend. Most callers use [Connect]
// instead.
func NewConnection(backend ConnectionBackend) *Connection {
	return &Connection{backend: backend}
}

// Backend exposes the underlying erased contract.
func (c *Connection) Backend() ConnectionBackend { return c.backend }

func (c *Connection) BackendName() string { return c.backend.Name() }

func (c *Connection) Close(ctx context.Context) error { return c.backend.Close(ctx) }

func (c *Connection) CloseHard(ctx context.Context) error { return c.backend.CloseHard(ctx) }

func (c *Connection) Ping(ctx context.Context) error { return c.backend.Ping(ctx) }

func (c *Connection) Begin(ctx context.Context) error { return c.backend.Begin(ctx) }

func (c *Connection) Commit(ctx context.Context) error { return c.backend.Commit(ctx) }

func (c *Connection) Rollback(ctx context.Context) error { return c.backend.Rollback(ctx) }

// Execute runs query and drains its results, accumulating rows affected
// across every statement in the batch. Data rows are discarded.
func (c *Connection) Execute(ctx context.Context, query string, args ...any) (QueryResult, error) {
	bound, err := convertArgs(args)
	if err != nil {
		return QueryResult{}, err
	}

	stream := c.backend.FetchMany(ctx, query, bound)
	defer stream.Close()

	var out QueryResult
	for stream.Next() {
		res, ok := stream.Result()
		if !ok {
			continue
		}
		out.RowsAffected += res.RowsAffected
		if !res.LastInsertID.IsNull() {
			out.LastInsertID = res.LastInsertID
		}
	}

	return out, stream.Err()
}

// FetchAll runs query and collects every data row, discarding summaries.
func (c *Connection) FetchAll(ctx context.Context, query string, args ...any) ([]Row, error) {
	bound, err := convertArgs(args)
	if err != nil {
		return nil, err
	}

	stream := c.backend.FetchMany(ctx, query, bound)
	defer stream.Close()

	var rows []Row
	for stream.Next() {
		if row, ok := stream.Row(); ok {
			rows = append(rows, row)
		}
	}

	return rows, stream.Err()
}

// FetchOptional runs query and returns at most its first row, or nil when
// the statement produced none. Rows past the first are not consumed.
func (c *Connection) FetchOptional(ctx context.Context, query string, args ...any) (*Row, error) {
	bound, err := convertArgs(args)
	if err != nil {
		return nil, err
	}
	return c.backend.FetchOptional(ctx, query, bound)
}

// FetchOne is like [Connection.FetchOptional] but returns [ErrNoRows] when
// the statement produced no row.
func (c *Connection) FetchOne(ctx context.Context, query string, args ...any) (Row, error) {
	row, err := c.FetchOptional(ctx, query, args...)
	if err != nil {
		return Row{}, err
	}
	if row == nil {
		return Row{}, ErrNoRows
	}
	return *row, nil
}

// FetchMany runs query and returns the raw result stream. The caller must
// drain or close the stream before issuing the next statement on this
// connection.
func (c *Connection) FetchMany(ctx context.Context, query string, args ...any) (*RowStream, error) {
	bound, err := convertArgs(args)
	if err != nil {
		return nil, err
	}
	return c.backend.FetchMany(ctx, query, bound), nil
}

// Prepare readies query for repeated execution.
func (c *Connection) Prepare(ctx context.Context, query string) (*Statement, error) {
	return c.backend.Prepare(ctx, query, nil)
}

// Describe returns the backend's static description of query.
func (c *Connection) Describe(ctx context.Context, query string) (*Description, error) {
	return c.backend.Describe(ctx, query)
}

func convertArgs(args []any) (*Arguments, error) {
	if len(args) == 0 {
		return nil, nil
	}

	bound := &Arguments{values: make([]Value, 0, len(args))}
	for _, arg := range args {
		val, err := ValueOf(arg)
		if err != nil {
			return nil, err
		}
		bound.Add(val)
	}
	return bound, nil
}
