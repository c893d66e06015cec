// Package listctl keeps a locally displayed item list consistent with the
// remote store while mutations are in flight.
//
// Per-item mutations are applied to the snapshot before the remote call is
// made and compensated when it fails. Every mutation takes a fresh generation
// token for its item; a response whose token is no longer current never
// touches the displayed value, so out-of-order completions cannot overwrite a
// newer speculative edit. Successful mutations are reconciled with the item the
// server returns and never trigger a list refresh.
//
// Filtering is done by the server: changing the filter issues a new list query
// and replaces the snapshot wholesale when it resolves.
package listctl

import (
	"context"
	"errors"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/optimistic-todo/internal/client"
	"github.com/BuzzLyutic/optimistic-todo/internal/model"
)

type Controller struct {
	store  client.Store
	logger *zap.Logger
	base   model.ItemFilter
	cache  *queryCache

	mu       sync.Mutex
	state    State
	filter   model.FilterState
	items    []model.Item
	err      error
	itemErrs map[int64]string
	gens     map[int64]uint64
	pending  map[int64]*pendingMutation
	listGen  uint64
	current  *query
	subs     map[chan View]struct{}
}

type Option func(*Controller)

func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithBaseFilter narrows every list query by category and/or priority. The
// completion part is owned by the FilterState.
func WithBaseFilter(f model.ItemFilter) Option {
	return func(c *Controller) {
		f.Completed = nil
		c.base = f
	}
}

func WithFilter(s model.FilterState) Option {
	return func(c *Controller) { c.filter = s }
}

func New(store client.Store, opts ...Option) *Controller {
	c := &Controller{
		store:    store,
		logger:   zap.NewNop(),
		cache:    newQueryCache(),
		state:    Idle,
		filter:   model.FilterAll,
		itemErrs: make(map[int64]string),
		gens:     make(map[int64]uint64),
		pending:  make(map[int64]*pendingMutation),
		subs:     make(map[chan View]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load performs the initial fetch. Once the list has left Idle it only waits
// for the current query.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.state != Idle {
		c.mu.Unlock()
		_, err := c.Await(ctx)
		return err
	}
	c.mu.Unlock()
	return c.Refresh(ctx)
}

// Refresh re-queries the list with the active filter. The old snapshot stays
// visible until the response arrives and is then replaced as a whole; on
// failure it is left untouched and the error flag is set.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.listGen++
	token := c.listGen
	filter := c.filter.ItemFilter(c.base)
	q := c.cache.invalidate(filter)
	c.current = q
	if c.items == nil {
		c.state = Loading
	} else {
		c.state = Refreshing
	}
	c.notifyLocked()
	c.mu.Unlock()

	items, err := c.store.List(ctx, filter)
	if items == nil && err == nil {
		items = []model.Item{}
	}
	q.resolve(items, err)

	c.mu.Lock()
	defer c.mu.Unlock()

	if token != c.listGen {
		c.logger.Debug("discarding stale list response", zap.Uint64("token", token), zap.Uint64("latest", c.listGen))
		return err
	}

	c.state = Ready
	if err != nil {
		c.err = err
		c.logger.Warn("list refresh failed", zap.String("filter", string(c.filter)), zap.Error(err))
		c.notifyLocked()
		return err
	}

	c.err = nil
	c.items = c.overlay(items)
	c.notifyLocked()
	return nil
}

// FilterBy switches the view filter and re-queries the list.
func (c *Controller) FilterBy(ctx context.Context, f model.FilterState) error {
	if !f.Valid() {
		return &client.ValidationError{Field: "filter", Reason: "must be all, active or completed"}
	}

	c.mu.Lock()
	c.filter = f
	c.mu.Unlock()

	return c.Refresh(ctx)
}

// Await blocks until the current list query settles, like a suspense read.
func (c *Controller) Await(ctx context.Context) ([]model.Item, error) {
	c.mu.Lock()
	q := c.current
	c.mu.Unlock()

	if q == nil {
		return nil, errors.New("list not loaded")
	}
	return q.wait(ctx)
}

// Cached reports the status of the last query issued for state f.
func (c *Controller) Cached(f model.FilterState) (QueryStatus, []model.Item, error) {
	c.mu.Lock()
	base := c.base
	c.mu.Unlock()

	q, ok := c.cache.get(f.ItemFilter(base))
	if !ok {
		return QueryPending, nil, nil
	}
	return q.peek()
}

// Add creates an item. Invalid input is rejected locally without a request.
// The stored item is appended to the snapshot when it matches the filter.
func (c *Controller) Add(ctx context.Context, p model.ItemPatch) (model.Item, error) {
	if err := client.ValidateCreate(p); err != nil {
		return model.Item{}, err
	}

	it, err := c.store.Create(ctx, p)
	if err != nil {
		c.logger.Warn("create failed", zap.Error(err))
		return model.Item{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.items != nil && c.filter.ItemFilter(c.base).Match(it) && c.indexOf(it.ID) < 0 {
		c.items = append(c.items, it)
		c.notifyLocked()
	}
	return it, nil
}

// ToggleCompleted flips the completed flag of id as currently displayed.
func (c *Controller) ToggleCompleted(ctx context.Context, id int64) error {
	return c.patch(ctx, id, func(cur model.Item) model.ItemPatch {
		return model.ItemPatch{Completed: model.Bool(!cur.Completed)}
	})
}

// Update applies p to id speculatively, then remotely. On failure the item is
// restored to its last confirmed value and the error is attached to it.
func (c *Controller) Update(ctx context.Context, id int64, p model.ItemPatch) error {
	if err := client.ValidatePatch(p); err != nil {
		return err
	}
	return c.patch(ctx, id, func(model.Item) model.ItemPatch { return p })
}

func (c *Controller) patch(ctx context.Context, id int64, mk func(model.Item) model.ItemPatch) error {
	gen, p, err := c.begin(id, mk)
	if err != nil {
		return err
	}

	it, err := c.store.Update(ctx, id, p)
	return c.settle(id, gen, &it, err)
}

// Delete removes id from the snapshot at once and from the store afterwards.
// Any in-flight mutation of the same item is superseded.
func (c *Controller) Delete(ctx context.Context, id int64) error {
	gen, _, err := c.begin(id, nil)
	if err != nil {
		return err
	}

	err = c.store.Remove(ctx, id)
	return c.settle(id, gen, nil, err)
}

// BatchUpdate applies every entry speculatively and sends them concurrently.
// Failed entries are reverted individually; the others keep their new value.
func (c *Controller) BatchUpdate(ctx context.Context, entries []client.BatchEntry) (client.BatchResult, error) {
	if err := client.ValidateBatch(entries); err != nil {
		return client.BatchResult{}, err
	}
	for _, e := range entries {
		if err := client.ValidatePatch(e.Fields); err != nil {
			return client.BatchResult{}, err
		}
	}

	res := client.BatchResult{Failed: make(map[int64]error)}
	gens := make(map[int64]uint64, len(entries))
	send := make([]client.BatchEntry, 0, len(entries))
	for _, e := range entries {
		fields := e.Fields
		gen, _, err := c.begin(e.ID, func(model.Item) model.ItemPatch { return fields })
		if err != nil {
			res.Failed[e.ID] = err
			continue
		}
		gens[e.ID] = gen
		send = append(send, e)
	}

	remote, err := client.BatchUpdate(ctx, c.store, send)
	var batchErr *client.BatchError
	if err != nil && !errors.As(err, &batchErr) {
		// Rejected as a whole: nothing was sent, so every entry reverts.
		for _, e := range send {
			c.settle(e.ID, gens[e.ID], nil, err)
		}
		return client.BatchResult{}, err
	}
	// A *BatchError carries no more than remote.Failed, merged below.
	res.Updated = remote.Updated

	for _, it := range remote.Updated {
		c.settle(it.ID, gens[it.ID], &it, nil)
	}
	for id, err := range remote.Failed {
		res.Failed[id] = err
		c.settle(id, gens[id], nil, err)
	}

	if !res.OK() {
		return res, &client.BatchError{Failed: res.Failed}
	}
	return res, nil
}

// ClearError drops the error message attached to id.
func (c *Controller) ClearError(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.itemErrs[id]; ok {
		delete(c.itemErrs, id)
		c.notifyLocked()
	}
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// Subscribe delivers a View after every change. Slow readers only see the
// latest one. The returned func unsubscribes.
func (c *Controller) Subscribe() (<-chan View, func()) {
	ch := make(chan View, 1)

	c.mu.Lock()
	c.subs[ch] = struct{}{}
	ch <- c.viewLocked()
	c.mu.Unlock()

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if _, ok := c.subs[ch]; ok {
			delete(c.subs, ch)
			close(ch)
		}
	}
}

// begin records a pending mutation on id and applies it to the snapshot. A
// nil mk marks a delete. The originalValue is inherited from an older pending
// mutation, so stacked edits always compensate back to confirmed state.
func (c *Controller) begin(id int64, mk func(model.Item) model.ItemPatch) (uint64, model.ItemPatch, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return 0, model.ItemPatch{}, &client.NotFoundError{ID: id}
	}
	cur := c.items[i]

	p, ok := c.pending[id]
	if !ok {
		p = &pendingMutation{original: cur}
		c.pending[id] = p
	}
	c.gens[id]++
	p.gen = c.gens[id]
	delete(c.itemErrs, id)

	var patch model.ItemPatch
	if mk == nil {
		p.deleted, p.index, p.value = true, i, cur
		c.items = slices.Delete(c.items, i, i+1)
	} else {
		patch = mk(cur)
		p.value = patch.Apply(cur)
		c.items[i] = p.value
	}

	c.notifyLocked()
	return p.gen, patch, nil
}

// settle resolves the mutation gen on id. A superseded mutation never changes
// what is displayed; a successful one still advances the confirmed value the
// newer mutation would revert to.
func (c *Controller) settle(id int64, gen uint64, confirmed *model.Item, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.pending[id]
	if !ok || p.gen != gen {
		if ok && err == nil && confirmed != nil {
			p.original = *confirmed
		}
		c.logger.Debug("superseded mutation settled", zap.Int64("id", id), zap.Uint64("gen", gen), zap.Error(err))
		return err
	}

	delete(c.pending, id)
	if err != nil {
		c.revertLocked(id, p)
		c.itemErrs[id] = err.Error()
		c.logger.Warn("mutation failed, reverted", zap.Int64("id", id), zap.Error(err))
		c.notifyLocked()
		return err
	}

	if confirmed != nil {
		if i := c.indexOf(id); i >= 0 {
			c.items[i] = *confirmed
		}
	}
	c.notifyLocked()
	return nil
}

// revertLocked restores the confirmed value. Applying it twice yields the
// same snapshot as applying it once. A removed item only comes back if it
// belongs to the list currently shown; the filter may have changed while the
// delete was in flight.
func (c *Controller) revertLocked(id int64, p *pendingMutation) {
	if i := c.indexOf(id); i >= 0 {
		c.items[i] = p.original
		return
	}
	if p.deleted && c.items != nil && c.filter.ItemFilter(c.base).Match(p.original) {
		at := min(p.index, len(c.items))
		c.items = slices.Insert(c.items, at, p.original)
	}
}

// overlay merges a fresh server list with pending mutations: speculative
// values win for display, server values become the new revert target.
func (c *Controller) overlay(items []model.Item) []model.Item {
	out := make([]model.Item, 0, len(items))
	for idx, it := range items {
		p, ok := c.pending[it.ID]
		if !ok {
			out = append(out, it)
			continue
		}
		p.original = it
		if p.deleted {
			p.index = idx
			continue
		}
		out = append(out, p.value)
	}
	return out
}

func (c *Controller) indexOf(id int64) int {
	for i, it := range c.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func (c *Controller) viewLocked() View {
	v := View{
		State:      c.state,
		Filter:     c.filter,
		Err:        c.err,
		ItemErrors: make(map[int64]string, len(c.itemErrs)),
		Pending:    make(map[int64]bool, len(c.pending)),
	}
	if c.items != nil {
		v.Items = slices.Clone(c.items)
	}
	for id, msg := range c.itemErrs {
		v.ItemErrors[id] = msg
	}
	for id := range c.pending {
		v.Pending[id] = true
	}
	return v
}

func (c *Controller) notifyLocked() {
	if len(c.subs) == 0 {
		return
	}
	v := c.viewLocked()
	for ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
}
