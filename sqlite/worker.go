package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LovecraftianHorror/sqlx"
)

// ErrConnClosed is returned for operations submitted after the connection
// was closed.
var ErrConnClosed = errors.New("sqlite: connection is closed")

// Item is one element of a concrete result stream: a statement summary or a
// data row.
type Item = sqlx.Either[QueryResult, Row]

// workerItem pairs a stream element with a terminal error. An item carrying
// an error is the last one delivered for its statement.
type workerItem struct {
	item Item
	err  error
}

type commandKind uint8

const (
	cmdExecute commandKind = iota
	cmdDescribe
	cmdPing
	cmdFlush
	cmdClose
)

type command struct {
	kind       commandKind
	ctx        context.Context
	sql        string
	args       []any
	persistent bool

	items chan workerItem    // cmdExecute
	info  chan describeReply // cmdDescribe
	done  chan error         // cmdPing, cmdFlush, cmdClose
}

type describeReply struct {
	info *StatementInfo
	err  error
}

// worker is the single-writer goroutine owning the live connection. Being
// the only code that touches conn is what enforces exclusive access without
// locks; callers reach it exclusively through the command channel.
type worker struct {
	connID string
	db     *sql.DB
	conn   *sql.Conn
	stmts  *stmtCache
	log    sqlx.LogSettings

	commands chan command
	shutdown chan struct{} // closed when the loop exits
	hardStop chan struct{}
	stopOnce sync.Once

	// pending counts submitted commands not yet completed.
	pending atomic.Int64
	// produced counts items delivered to result channels; the backpressure
	// tests read it.
	produced atomic.Int64
}

func newWorker(connID string, db *sql.DB, conn *sql.Conn, opts ConnectOptions) *worker {
	return &worker{
		connID:   connID,
		db:       db,
		conn:     conn,
		stmts:    newStmtCache(opts.StatementCacheCapacity),
		log:      opts.Log,
		commands: make(chan command, 8),
		shutdown: make(chan struct{}),
		hardStop: make(chan struct{}),
	}
}

func (w *worker) run() {
	defer close(w.shutdown)

	for {
		select {
		case <-w.hardStop:
			w.cleanup()
			return
		case cmd := <-w.commands:
			closed := w.handle(cmd)
			w.pending.Add(-1)
			if closed {
				return
			}
		}
	}
}

func (w *worker) handle(cmd command) (closed bool) {
	switch cmd.kind {
	case cmdExecute:
		w.handleExecute(cmd)
	case cmdDescribe:
		info, err := w.describeStatement(cmd.ctx, cmd.sql, cmd.persistent)
		cmd.info <- describeReply{info: info, err: err}
	case cmdPing:
		cmd.done <- w.conn.PingContext(cmd.ctx)
	case cmdFlush:
		// Commands run in submission order, so reaching the barrier means
		// everything queued before it has completed.
		cmd.done <- nil
	case cmdClose:
		cmd.done <- w.cleanup()
		return true
	}
	return false
}

func (w *worker) cleanup() error {
	return errors.Join(w.stmts.close(), w.conn.Close(), w.db.Close())
}

// hardClose forces the connection shut without draining queued commands.
func (w *worker) hardClose() {
	w.stopOnce.Do(func() {
		close(w.hardStop)
		// Closing the handle unblocks whatever the worker is doing.
		w.db.Close()
	})
}

func (w *worker) submit(ctx context.Context, cmd command) error {
	w.pending.Add(1)

	select {
	case w.commands <- cmd:
		return nil
	case <-ctx.Done():
		w.pending.Add(-1)
		return ctx.Err()
	case <-w.shutdown:
		w.pending.Add(-1)
		return ErrConnClosed
	}
}

// execute submits query and returns the bounded channel its results stream
// over. The channel's capacity limits how far the worker can run ahead of
// the consumer; it is closed once the batch completes, fails, or the
// context is cancelled.
func (w *worker) execute(ctx context.Context, query string, args *Arguments, capacity int, persistent bool) (<-chan workerItem, error) {
	if capacity < 1 {
		capacity = 1
	}

	cmd := command{
		kind:       cmdExecute,
		ctx:        ctx,
		sql:        query,
		args:       args.driverValues(),
		persistent: persistent,
		items:      make(chan workerItem, capacity),
	}
	if err := w.submit(ctx, cmd); err != nil {
		return nil, err
	}
	return cmd.items, nil
}

// describe submits a metadata request and awaits the reply.
func (w *worker) describe(ctx context.Context, query string, prime bool) (*StatementInfo, error) {
	cmd := command{
		kind:       cmdDescribe,
		ctx:        ctx,
		sql:        query,
		persistent: prime,
		info:       make(chan describeReply, 1),
	}
	if err := w.submit(ctx, cmd); err != nil {
		return nil, err
	}

	select {
	case reply := <-cmd.info:
		return reply.info, reply.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-w.shutdown:
		return nil, ErrConnClosed
	}
}

func (w *worker) handleExecute(cmd command) {
	defer close(cmd.items)

	stmts := splitStatements(cmd.sql)
	if len(stmts) == 0 {
		w.fail(cmd, errors.New("sqlite: empty query"))
		return
	}

	args := cmd.args
	for _, stmt := range stmts {
		n := countPlaceholders(stmt)
		if n > len(args) {
			w.fail(cmd, fmt.Errorf("sqlite: statement expects %d arguments, %d remain in the batch", n, len(args)))
			return
		}
		bound := args[:n]
		args = args[n:]

		start := time.Now()
		var err error
		if stmtReturnsRows(stmt) {
			err = w.streamRows(cmd, stmt, bound)
		} else {
			err = w.execStatement(cmd, stmt, bound)
		}
		w.log.LogStatement(cmd.ctx, stmt, time.Since(start), "conn_id", w.connID)

		if err != nil {
			w.fail(cmd, err)
			return
		}
		if cmd.ctx.Err() != nil {
			// Consumer abandoned the stream; stop producing.
			return
		}
	}
}

func (w *worker) execStatement(cmd command, stmt string, args []any) error {
	res, err := w.execContext(cmd.ctx, stmt, args, cmd.persistent)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	rowID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	w.emit(cmd, sqlx.Left[QueryResult, Row](QueryResult{
		rowsAffected:    affected,
		lastInsertRowID: rowID,
	}))
	return nil
}

func (w *worker) streamRows(cmd command, stmt string, args []any) error {
	rows, err := w.queryContext(cmd.ctx, stmt, args, cmd.persistent)
	if err != nil {
		return err
	}
	defer rows.Close()

	// Column metadata is built once and shared by every row of the result
	// set.
	columns, names, err := describeColumns(rows)
	if err != nil {
		return err
	}

	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}

		types := make([]TypeInfo, len(values))
		for i, v := range values {
			types[i] = TypeInfo{DataType: datatypeOfValue(v)}
		}

		row := Row{columns: columns, names: names, values: values, types: types}
		if !w.emit(cmd, sqlx.Right[QueryResult, Row](row)) {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	// Row-returning statements still terminate with a summary.
	w.emit(cmd, sqlx.Left[QueryResult, Row](QueryResult{}))
	return nil
}

// emit delivers one item, suspending while the channel is full. It reports
// false when the consumer cancelled instead of draining.
func (w *worker) emit(cmd command, it Item) bool {
	select {
	case cmd.items <- workerItem{item: it}:
		w.produced.Add(1)
		return true
	case <-cmd.ctx.Done():
		return false
	}
}

// fail delivers a terminal error item.
func (w *worker) fail(cmd command, err error) {
	select {
	case cmd.items <- workerItem{err: err}:
	case <-cmd.ctx.Done():
	}
}

func (w *worker) queryContext(ctx context.Context, query string, args []any, persistent bool) (*sql.Rows, error) {
	if persistent {
		stmt, err := w.stmts.get(ctx, w.conn, query)
		if err != nil {
			return nil, err
		}
		return stmt.QueryContext(ctx, args...)
	}
	return w.conn.QueryContext(ctx, query, args...)
}

func (w *worker) execContext(ctx context.Context, query string, args []any, persistent bool) (sql.Result, error) {
	if persistent {
		stmt, err := w.stmts.get(ctx, w.conn, query)
		if err != nil {
			return nil, err
		}
		return stmt.ExecContext(ctx, args...)
	}
	return w.conn.ExecContext(ctx, query, args...)
}

// describeStatement builds the static description of a single statement.
// When prime is set the statement is also readied in the cache for later
// persistent executions.
func (w *worker) describeStatement(ctx context.Context, query string, prime bool) (*StatementInfo, error) {
	stmts := splitStatements(query)
	if len(stmts) != 1 {
		return nil, fmt.Errorf("sqlite: expected exactly one statement, got %d", len(stmts))
	}
	stmt := stmts[0]

	if prime {
		if _, err := w.stmts.get(ctx, w.conn, stmt); err != nil {
			return nil, err
		}
	}

	info := &StatementInfo{
		SQL:        stmt,
		ParamCount: countPlaceholders(stmt),
	}

	if stmtReturnsRows(stmt) {
		// Unbound parameters evaluate as NULL; metadata is available before
		// the first step, and closing straight away avoids one.
		rows, err := w.queryContext(ctx, stmt, make([]any, info.ParamCount), prime)
		if err != nil {
			return nil, err
		}
		info.Columns, info.ColumnNames, err = describeColumns(rows)
		rows.Close()
		if err != nil {
			return nil, err
		}
	}

	return info, nil
}

func describeColumns(rows *sql.Rows) ([]Column, map[string]int, error) {
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, nil, err
	}

	columns := make([]Column, len(colTypes))
	names := make(map[string]int, len(colTypes))
	for i, ct := range colTypes {
		columns[i] = Column{
			Ordinal: i,
			Name:    ct.Name(),
			Type:    TypeInfo{DataType: datatypeFromDecl(ct.DatabaseTypeName())},
		}
		names[ct.Name()] = i
	}
	return columns, names, nil
}
