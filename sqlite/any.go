package sqlite

import (
	"context"
	"fmt"
	"math"

	"github.com/LovecraftianHorror/sqlx"
)

const driverName = "sqlite"

func init() {
	sqlx.Register(sqlx.Driver{
		Name:    driverName,
		Schemes: []string{"sqlite", "sqlite3", "file"},
		Open: func(ctx context.Context, opts sqlx.ConnectOptions) (sqlx.ConnectionBackend, error) {
			concrete, err := optionsFromAny(opts)
			if err != nil {
				return nil, err
			}

			conn, err := Open(ctx, concrete)
			if err != nil {
				return nil, err
			}
			return NewBackend(conn), nil
		},
	})
}

// optionsFromAny derives full concrete connect options from the erased
// ones. Logging configuration is carried over verbatim.
func optionsFromAny(opts sqlx.ConnectOptions) (ConnectOptions, error) {
	out, err := ParseURL(opts.URL)
	if err != nil {
		return ConnectOptions{}, err
	}
	out.Log = opts.Log
	return out, nil
}

// NewBackend wraps an open connection in the erased connection contract.
func NewBackend(conn *Conn) sqlx.ConnectionBackend {
	return &backend{conn: conn}
}

// backend adapts a Conn to sqlx.ConnectionBackend. Lifecycle and
// transaction operations delegate directly; queries go through the argument
// and row mappings below.
type backend struct {
	conn *Conn
}

func (b *backend) Name() string { return driverName }

func (b *backend) Close(ctx context.Context) error { return b.conn.Close(ctx) }

func (b *backend) CloseHard(ctx context.Context) error { return b.conn.CloseHard(ctx) }

func (b *backend) Ping(ctx context.Context) error { return b.conn.Ping(ctx) }

func (b *backend) Begin(ctx context.Context) error { return b.conn.Begin(ctx) }

func (b *backend) Commit(ctx context.Context) error { return b.conn.Commit(ctx) }

func (b *backend) Rollback(ctx context.Context) error { return b.conn.Rollback(ctx) }

func (b *backend) StartRollback() { b.conn.StartRollback() }

func (b *backend) Flush(ctx context.Context) error { return b.conn.Flush(ctx) }

func (b *backend) ShouldFlush() bool { return b.conn.ShouldFlush() }

func (b *backend) FetchMany(ctx context.Context, query string, args *sqlx.Arguments) *sqlx.RowStream {
	// A statement with arguments is persistent: eligible for reuse from the
	// prepared-statement cache.
	persistent := args != nil

	mapped, err := mapArguments(args)
	if err != nil {
		return sqlx.StreamError(err)
	}

	ctx, cancel := context.WithCancel(ctx)
	items, err := b.conn.worker.execute(ctx, query, mapped, b.conn.opts.RowChannelSize, persistent)
	if err != nil {
		cancel()
		return sqlx.StreamError(err)
	}

	// Items are projected lazily, one by one, as the consumer pulls them.
	proj := &rowProjector{}
	lastWasSummary := false

	next := func() (sqlx.StreamItem, bool, error) {
		var it workerItem
		var ok bool
		select {
		case it, ok = <-items:
		case <-b.conn.worker.shutdown:
			// The worker is gone; drain whatever it delivered first.
			select {
			case it, ok = <-items:
			default:
				cancel()
				return sqlx.StreamItem{}, false, sqlx.ErrWorkerCrashed
			}
		}
		if !ok {
			interrupted := ctx.Err() != nil
			cancel()
			if !lastWasSummary && !interrupted {
				// The channel broke before the batch's final summary.
				return sqlx.StreamItem{}, false, sqlx.ErrWorkerCrashed
			}
			return sqlx.StreamItem{}, false, nil
		}
		if it.err != nil {
			cancel()
			return sqlx.StreamItem{}, false, it.err
		}

		if res, isSummary := it.item.Left(); isSummary {
			lastWasSummary = true
			// The next result set gets a fresh shared column table.
			proj.reset()
			return sqlx.Left[sqlx.QueryResult, sqlx.Row](mapResult(res)), true, nil
		}

		row, _ := it.item.Right()
		anyRow, err := proj.project(row)
		if err != nil {
			cancel()
			return sqlx.StreamItem{}, false, err
		}
		lastWasSummary = false
		return sqlx.Right[sqlx.QueryResult, sqlx.Row](anyRow), true, nil
	}

	stop := func() error {
		cancel()
		return nil
	}
	return sqlx.NewRowStream(next, stop)
}

func (b *backend) FetchOptional(ctx context.Context, query string, args *sqlx.Arguments) (*sqlx.Row, error) {
	stream := b.FetchMany(ctx, query, args)
	defer stream.Close()

	if stream.Next() {
		if row, ok := stream.Row(); ok {
			return &row, nil
		}
	}
	return nil, stream.Err()
}

func (b *backend) Prepare(ctx context.Context, query string, _ []sqlx.TypeInfo) (*sqlx.Statement, error) {
	// Parameter type hints are ignored: SQLite runs its own inference at
	// prepare time.
	info, err := b.conn.Prepare(ctx, query)
	if err != nil {
		return nil, err
	}

	columns, names, err := bridgeColumns(info.Columns)
	if err != nil {
		return nil, err
	}

	return &sqlx.Statement{
		SQL:         info.SQL,
		Columns:     columns,
		ColumnNames: names,
		ParamCount:  info.ParamCount,
	}, nil
}

func (b *backend) Describe(ctx context.Context, query string) (*sqlx.Description, error) {
	info, err := b.conn.Describe(ctx, query)
	if err != nil {
		return nil, err
	}

	columns, _, err := bridgeColumns(info.Columns)
	if err != nil {
		return nil, err
	}

	return &sqlx.Description{
		// SQLite does not type bind parameters; each is reported unknown.
		Parameters: make([]sqlx.TypeInfo, info.ParamCount),
		Columns:    columns,
	}, nil
}

// toAnyTypeInfo bridges a concrete type descriptor into the erased
// taxonomy. Datatypes outside the ordinary column/value set have no erased
// equivalent and are reported, never silently defaulted.
func toAnyTypeInfo(t TypeInfo) (sqlx.TypeInfo, error) {
	switch t.DataType {
	case DataTypeNull:
		return sqlx.TypeInfo{Kind: sqlx.KindNull}, nil
	case DataTypeInt:
		return sqlx.TypeInfo{Kind: sqlx.KindInteger}, nil
	case DataTypeInt64:
		return sqlx.TypeInfo{Kind: sqlx.KindBigInt}, nil
	case DataTypeFloat:
		return sqlx.TypeInfo{Kind: sqlx.KindDouble}, nil
	case DataTypeText:
		return sqlx.TypeInfo{Kind: sqlx.KindText}, nil
	case DataTypeBlob:
		return sqlx.TypeInfo{Kind: sqlx.KindBlob}, nil
	default:
		return sqlx.TypeInfo{}, sqlx.UnsupportedTypeError{Backend: driverName, Type: t.String()}
	}
}

func toAnyColumn(col Column) (sqlx.Column, error) {
	typ, err := toAnyTypeInfo(col.Type)
	if err != nil {
		return sqlx.Column{}, sqlx.ColumnDecodeError{Column: col.Name, Err: err}
	}

	return sqlx.Column{Ordinal: col.Ordinal, Name: col.Name, Type: typ}, nil
}

func bridgeColumns(cols []Column) ([]sqlx.Column, map[string]int, error) {
	if len(cols) == 0 {
		return nil, nil, nil
	}

	out := make([]sqlx.Column, len(cols))
	names := make(map[string]int, len(cols))
	for i, col := range cols {
		c, err := toAnyColumn(col)
		if err != nil {
			return nil, nil, err
		}
		out[i] = c
		names[c.Name] = i
	}
	return out, names, nil
}

// rowProjector converts concrete rows into erased rows. The erased column
// slice and name table are built once per result set and shared by
// reference across all of its rows.
type rowProjector struct {
	columns []sqlx.Column
	names   map[string]int
}

func (p *rowProjector) reset() {
	p.columns, p.names = nil, nil
}

func (p *rowProjector) project(row Row) (sqlx.Row, error) {
	if p.columns == nil && row.Len() > 0 {
		columns, names, err := bridgeColumns(row.Columns())
		if err != nil {
			return sqlx.Row{}, err
		}
		p.columns, p.names = columns, names
	}

	values := make([]sqlx.Value, row.Len())
	for i := range values {
		v, err := toAnyValue(row, i)
		if err != nil {
			return sqlx.Row{}, err
		}
		values[i] = v
	}

	return sqlx.NewRow(p.columns, p.names, values), nil
}

// toAnyValue decodes one cell through the type bridge, using the cell's own
// datatype: SQLite types cells, not columns.
func toAnyValue(row Row, i int) (sqlx.Value, error) {
	fail := func(err error) (sqlx.Value, error) {
		return sqlx.Value{}, sqlx.ColumnDecodeError{Column: row.Column(i).Name, Err: err}
	}

	typ, err := toAnyTypeInfo(row.TypeOf(i))
	if err != nil {
		return fail(err)
	}

	raw := row.Value(i)
	switch typ.Kind {
	case sqlx.KindNull:
		return sqlx.Null(), nil
	case sqlx.KindInteger:
		n, ok := raw.(int64)
		if !ok {
			return fail(fmt.Errorf("unexpected engine value %T for an INTEGER cell", raw))
		}
		if n < math.MinInt32 || n > math.MaxInt32 {
			return fail(fmt.Errorf("INTEGER cell value %d overflows 32 bits", n))
		}
		return sqlx.Integer(int32(n)), nil
	case sqlx.KindBigInt:
		n, ok := raw.(int64)
		if !ok {
			return fail(fmt.Errorf("unexpected engine value %T for a BIGINT cell", raw))
		}
		return sqlx.BigInt(n), nil
	case sqlx.KindDouble:
		f, ok := raw.(float64)
		if !ok {
			return fail(fmt.Errorf("unexpected engine value %T for a DOUBLE cell", raw))
		}
		return sqlx.Double(f), nil
	case sqlx.KindText:
		switch s := raw.(type) {
		case string:
			return sqlx.Text(s), nil
		case []byte:
			return sqlx.Text(string(s)), nil
		default:
			return fail(fmt.Errorf("unexpected engine value %T for a TEXT cell", raw))
		}
	case sqlx.KindBlob:
		switch s := raw.(type) {
		case []byte:
			return sqlx.Blob(s), nil
		case string:
			return sqlx.Blob([]byte(s)), nil
		default:
			return fail(fmt.Errorf("unexpected engine value %T for a BLOB cell", raw))
		}
	default:
		return fail(sqlx.UnsupportedTypeError{Backend: driverName, Type: typ.String()})
	}
}

// mapArguments converts erased bound values into their SQLite-native
// representation, preserving text and blob buffers without copying.
//
// The erased kind taxonomy is open: kinds added by future versions of the
// erased layer reach the default arm and are reported as unsupported rather
// than assumed unreachable.
func mapArguments(args *sqlx.Arguments) (*Arguments, error) {
	if args == nil {
		return nil, nil
	}

	values := make([]ArgumentValue, 0, args.Len())
	for _, v := range args.Values() {
		switch v.Kind() {
		case sqlx.KindNull:
			values = append(values, NullArgument())
		case sqlx.KindSmallInt, sqlx.KindInteger:
			values = append(values, IntArgument(int32(v.Int64())))
		case sqlx.KindBigInt:
			values = append(values, Int64Argument(v.Int64()))
		case sqlx.KindReal, sqlx.KindDouble:
			values = append(values, DoubleArgument(v.Float64()))
		case sqlx.KindText:
			values = append(values, TextArgument(v.Text()))
		case sqlx.KindBlob:
			values = append(values, BlobArgument(v.Blob()))
		default:
			return nil, sqlx.UnsupportedArgumentError{Backend: driverName, Kind: v.Kind()}
		}
	}

	return NewArguments(values...), nil
}

// mapResult converts a concrete statement summary to the erased one. The
// SQLite rowid has no erased equivalent, so it is dropped rather than
// approximated and the erased insert id stays null.
func mapResult(res QueryResult) sqlx.QueryResult {
	return sqlx.QueryResult{RowsAffected: res.RowsAffected()}
}
