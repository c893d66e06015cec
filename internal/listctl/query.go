package listctl

import (
	"context"
	"sync"

	"github.com/BuzzLyutic/optimistic-todo/internal/model"
)

type QueryStatus int

const (
	QueryPending QueryStatus = iota
	QueryResolved
	QueryRejected
)

// query is one memoized list fetch. It is never re-run; a refresh replaces it
// with a new entry.
type query struct {
	done   chan struct{}
	status QueryStatus
	items  []model.Item
	err    error
}

func (q *query) resolve(items []model.Item, err error) {
	if err != nil {
		q.status, q.err = QueryRejected, err
	} else {
		q.status, q.items = QueryResolved, items
	}
	close(q.done)
}

// wait blocks until the query settles or ctx ends.
func (q *query) wait(ctx context.Context) ([]model.Item, error) {
	select {
	case <-q.done:
		return q.items, q.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *query) peek() (QueryStatus, []model.Item, error) {
	select {
	case <-q.done:
		return q.status, q.items, q.err
	default:
		return QueryPending, nil, nil
	}
}

// queryCache keys list fetches by their query parameters.
type queryCache struct {
	mu      sync.Mutex
	entries map[string]*query
}

func newQueryCache() *queryCache {
	return &queryCache{entries: make(map[string]*query)}
}

func cacheKey(f model.ItemFilter) string {
	return f.Values().Encode()
}

// invalidate drops any entry for f and installs a fresh pending one.
func (c *queryCache) invalidate(f model.ItemFilter) *query {
	q := &query{done: make(chan struct{})}
	c.mu.Lock()
	c.entries[cacheKey(f)] = q
	c.mu.Unlock()
	return q
}

func (c *queryCache) get(f model.ItemFilter) (*query, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, ok := c.entries[cacheKey(f)]
	return q, ok
}
