package sqlite

import (
	"container/list"
	"context"
	"database/sql"
)

// stmtCache is an LRU cache of prepared statements for persistent
// executions. It is only ever touched by the connection's worker goroutine,
// so it needs no locking.
type stmtCache struct {
	capacity int
	entries  map[string]*list.Element
	order    *list.List // front is most recently used
}

type stmtEntry struct {
	query string
	stmt  *sql.Stmt
}

func newStmtCache(capacity int) *stmtCache {
	if capacity < 1 {
		capacity = 1
	}
	return &stmtCache{
		capacity: capacity,
		entries:  make(map[string]*list.Element, capacity),
		order:    list.New(),
	}
}

// get returns the cached prepared statement for query, preparing and caching
// it on a miss. The least recently used statement is closed once the cache
// is over capacity.
func (c *stmtCache) get(ctx context.Context, conn *sql.Conn, query string) (*sql.Stmt, error) {
	if elem, ok := c.entries[query]; ok {
		c.order.MoveToFront(elem)
		return elem.Value.(*stmtEntry).stmt, nil
	}

	stmt, err := conn.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}

	c.entries[query] = c.order.PushFront(&stmtEntry{query: query, stmt: stmt})

	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		entry := oldest.Value.(*stmtEntry)
		c.order.Remove(oldest)
		delete(c.entries, entry.query)
		entry.stmt.Close()
	}

	return stmt, nil
}

// close releases every cached statement, keeping the first error.
func (c *stmtCache) close() error {
	var firstErr error
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		if err := elem.Value.(*stmtEntry).stmt.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.entries = make(map[string]*list.Element)
	c.order.Init()
	return firstErr
}
