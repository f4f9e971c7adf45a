package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"

	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver
)

// Conn is one SQLite connection, driven by a dedicated single-writer worker
// goroutine. Exactly one logical caller may use a Conn at a time; a
// statement's result stream must be drained or closed before the next
// statement is issued.
type Conn struct {
	id      string
	opts    ConnectOptions
	worker  *worker
	txDepth int
}

// Open establishes a connection and starts its worker.
func Open(ctx context.Context, opts ConnectOptions) (*Conn, error) {
	db, err := sql.Open("sqlite", opts.dsn())
	if err != nil {
		return nil, err
	}

	// The pool is pinned to a single physical connection; the worker is its
	// only user.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	if err := applyPragmas(ctx, conn, opts); err != nil {
		conn.Close()
		db.Close()
		return nil, err
	}

	id := uuid.Must(uuid.NewV4()).String()
	w := newWorker(id, db, conn, opts)
	go w.run()

	return &Conn{id: id, opts: opts, worker: w}, nil
}

func applyPragmas(ctx context.Context, conn *sql.Conn, opts ConnectOptions) error {
	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", opts.BusyTimeout.Milliseconds()),
	}
	if opts.ForeignKeys {
		pragmas = append(pragmas, "PRAGMA foreign_keys = ON")
	} else {
		pragmas = append(pragmas, "PRAGMA foreign_keys = OFF")
	}
	if opts.JournalMode != "" {
		pragmas = append(pragmas, "PRAGMA journal_mode = "+opts.JournalMode)
	}

	for _, pragma := range pragmas {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}
	return nil
}

// ID is the connection's identifier, used to correlate statement logs.
func (c *Conn) ID() string { return c.id }

func (c *Conn) Options() ConnectOptions { return c.opts }

// Ping checks the connection through the worker, so it also verifies the
// worker is alive.
func (c *Conn) Ping(ctx context.Context) error {
	return c.roundTrip(ctx, cmdPing)
}

// Flush waits until every command queued before it has completed.
func (c *Conn) Flush(ctx context.Context) error {
	return c.roundTrip(ctx, cmdFlush)
}

// ShouldFlush reports whether commands are pending on the worker.
func (c *Conn) ShouldFlush() bool {
	return c.worker.pending.Load() > 0
}

// Close shuts the connection down gracefully, after the commands already
// queued have run. Closing a closed connection is a no-op.
func (c *Conn) Close(ctx context.Context) error {
	err := c.roundTrip(ctx, cmdClose)
	if errors.Is(err, ErrConnClosed) {
		return nil
	}
	return err
}

// CloseHard forces the connection shut without waiting for queued commands.
func (c *Conn) CloseHard(ctx context.Context) error {
	c.worker.hardClose()
	return nil
}

func (c *Conn) roundTrip(ctx context.Context, kind commandKind) error {
	cmd := command{kind: kind, ctx: ctx, done: make(chan error, 1)}
	if err := c.worker.submit(ctx, cmd); err != nil {
		return err
	}

	select {
	case err := <-cmd.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.worker.shutdown:
		// The worker exited without reaching this command.
		select {
		case err := <-cmd.done:
			return err
		default:
			return ErrConnClosed
		}
	}
}

// Exec runs a batch to completion and returns the summary of its last
// statement.
func (c *Conn) Exec(ctx context.Context, query string, args *Arguments) (QueryResult, error) {
	items, err := c.worker.execute(ctx, query, args, 1, args != nil)
	if err != nil {
		return QueryResult{}, err
	}

	var last QueryResult
	for {
		var it workerItem
		var ok bool
		select {
		case it, ok = <-items:
		case <-c.worker.shutdown:
			select {
			case it, ok = <-items:
			default:
				return QueryResult{}, ErrConnClosed
			}
		}
		if !ok {
			return last, nil
		}
		if it.err != nil {
			return QueryResult{}, it.err
		}
		if res, ok := it.item.Left(); ok {
			last = res
		}
	}
}

// Prepare readies a statement for persistent execution and returns its
// description.
func (c *Conn) Prepare(ctx context.Context, query string) (*StatementInfo, error) {
	return c.worker.describe(ctx, query, true)
}

// Describe returns the static description of a statement without caching
// it.
func (c *Conn) Describe(ctx context.Context, query string) (*StatementInfo, error) {
	return c.worker.describe(ctx, query, false)
}
