package sqlite

import (
	"context"
	"errors"
	"strconv"
)

// Transaction control. SQLite has no nested transactions, so depths past the
// first are implemented with savepoints, mirroring how the connection's
// caller nests Begin calls.

var errNoTransaction = errors.New("sqlite: no open transaction")

func savepointName(depth int) string {
	return "_sqlx_savepoint_" + strconv.Itoa(depth)
}

// Begin opens a transaction, or a savepoint when one is already open.
func (c *Conn) Begin(ctx context.Context) error {
	stmt := "BEGIN"
	if c.txDepth > 0 {
		stmt = "SAVEPOINT " + savepointName(c.txDepth)
	}

	if _, err := c.Exec(ctx, stmt, nil); err != nil {
		return err
	}
	c.txDepth++
	return nil
}

// Commit commits the innermost transaction or releases the innermost
// savepoint.
func (c *Conn) Commit(ctx context.Context) error {
	if c.txDepth == 0 {
		return errNoTransaction
	}

	stmt := "COMMIT"
	if c.txDepth > 1 {
		stmt = "RELEASE SAVEPOINT " + savepointName(c.txDepth-1)
	}

	if _, err := c.Exec(ctx, stmt, nil); err != nil {
		return err
	}
	c.txDepth--
	return nil
}

// Rollback rolls back the innermost transaction or savepoint and waits for
// it to complete.
func (c *Conn) Rollback(ctx context.Context) error {
	if c.txDepth == 0 {
		return errNoTransaction
	}

	if _, err := c.Exec(ctx, rollbackStatement(c.txDepth), nil); err != nil {
		return err
	}
	c.txDepth--
	return nil
}

// StartRollback requests a rollback without awaiting it. The command is
// queued on the worker before StartRollback returns, so it runs ahead of
// whatever the caller submits next; only its completion goes unobserved.
// Failures are logged, since no caller is left to receive them.
func (c *Conn) StartRollback() {
	if c.txDepth == 0 {
		return
	}

	stmt := rollbackStatement(c.txDepth)
	c.txDepth--

	items, err := c.worker.execute(context.Background(), stmt, nil, 1, false)
	if err != nil {
		// Submission fails only on a closed connection; nothing to roll
		// back there.
		return
	}

	log := c.opts.Log
	go func() {
		for it := range items {
			if it.err != nil && log.Logger != nil {
				log.Logger.Log(context.Background(), log.StatementLevel,
					"deferred rollback failed", "conn_id", c.id, "error", it.err)
			}
		}
	}()
}

func rollbackStatement(depth int) string {
	if depth > 1 {
		name := savepointName(depth - 1)
		// ROLLBACK TO leaves the savepoint on the stack; releasing pops it.
		return "ROLLBACK TO SAVEPOINT " + name + "; RELEASE SAVEPOINT " + name
	}
	return "ROLLBACK"
}
