package sqlx

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/stephenafamo/scan"
)

var _ scan.Queryer = (*Connection)(nil)

// QueryContext executes a query that returns rows, typically a SELECT.
// It makes Connection a [scan.Queryer], so ecosystem mappers work directly
// over the erased layer:
//
//	users, err := scan.All(ctx, conn, scan.StructMapper[User](), query, args...)
func (c *Connection) QueryContext(ctx context.Context, query string, args ...any) (scan.Rows, error) {
	stream, err := c.FetchMany(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &streamRows{stream: stream}, nil
}

// streamRows adapts a RowStream to [scan.Rows], skipping statement
// summaries. Columns may be requested before the first Next call, so the
// first row is pre-fetched and buffered.
type streamRows struct {
	stream  *RowStream
	pending *Row
	row     Row
	started bool
}

// advance pulls the next data row from the stream into pending.
func (r *streamRows) advance() {
	for r.stream.Next() {
		if row, ok := r.stream.Row(); ok {
			r.pending = &row
			return
		}
	}
}

func (r *streamRows) Columns() ([]string, error) {
	if !r.started {
		r.started = true
		r.advance()
	}
	if err := r.stream.Err(); err != nil {
		return nil, err
	}
	if r.pending == nil {
		// Zero rows: no column metadata reached the stream.
		return nil, nil
	}

	cols := r.pending.Columns()
	names := make([]string, len(cols))
	for i, col := range cols {
		names[i] = col.Name
	}
	return names, nil
}

func (r *streamRows) Next() bool {
	if !r.started {
		r.started = true
		r.advance()
	}
	if r.pending == nil {
		return false
	}

	r.row = *r.pending
	r.pending = nil
	r.advance()
	return true
}

func (r *streamRows) Scan(dest ...any) error {
	if len(dest) != r.row.Len() {
		return fmt.Errorf("sqlx: expected %d scan destinations, got %d", r.row.Len(), len(dest))
	}

	for i, d := range dest {
		if err := assignValue(d, r.row.Value(i)); err != nil {
			return ColumnDecodeError{Column: r.row.Column(i).Name, Err: err}
		}
	}
	return nil
}

func (r *streamRows) Err() error { return r.stream.Err() }

func (r *streamRows) Close() error { return r.stream.Close() }

// assignValue stores an erased value into a scan destination.
func assignValue(dest any, v Value) error {
	if sc, ok := dest.(sql.Scanner); ok {
		return sc.Scan(v.Any())
	}

	switch d := dest.(type) {
	case *any:
		*d = v.Any()
	case *string:
		switch v.Kind() {
		case KindText:
			*d = v.Text()
		case KindBlob:
			*d = string(v.Blob())
		default:
			*d = v.String()
		}
	case *[]byte:
		switch v.Kind() {
		case KindBlob:
			*d = v.Blob()
		case KindText:
			*d = []byte(v.Text())
		case KindNull:
			*d = nil
		default:
			return fmt.Errorf("cannot assign %s to *[]byte", v.Kind())
		}
	case *int64:
		*d = v.Int64()
	case *int:
		*d = int(v.Int64())
	case *int32:
		*d = int32(v.Int64())
	case *int16:
		*d = int16(v.Int64())
	case *float64:
		switch v.Kind() {
		case KindReal, KindDouble:
			*d = v.Float64()
		default:
			*d = float64(v.Int64())
		}
	case *float32:
		*d = float32(v.Float64())
	case *bool:
		*d = v.Int64() != 0
	default:
		return fmt.Errorf("unsupported scan destination %T for %s", dest, v.Kind())
	}
	return nil
}
