package listctl

import (
	"context"
	"testing"
	"time"

	"github.com/BuzzLyutic/optimistic-todo/internal/model"
)

// gatedStore parks every remote call until the test replies to it, so the
// speculative state can be observed before the "network" resolves.
type gatedStore struct {
	calls chan *call
}

type call struct {
	op     string
	id     int64
	patch  model.ItemPatch
	filter model.ItemFilter
	reply  chan reply
}

type reply struct {
	items []model.Item
	item  model.Item
	err   error
}

func newGatedStore() *gatedStore {
	return &gatedStore{calls: make(chan *call, 16)}
}

func (s *gatedStore) do(ctx context.Context, c *call) reply {
	c.reply = make(chan reply, 1)
	s.calls <- c
	select {
	case r := <-c.reply:
		return r
	case <-ctx.Done():
		return reply{err: ctx.Err()}
	}
}

func (s *gatedStore) List(ctx context.Context, f model.ItemFilter) ([]model.Item, error) {
	r := s.do(ctx, &call{op: "list", filter: f})
	return r.items, r.err
}

func (s *gatedStore) GetByID(ctx context.Context, id int64) (model.Item, error) {
	r := s.do(ctx, &call{op: "get", id: id})
	return r.item, r.err
}

func (s *gatedStore) Create(ctx context.Context, p model.ItemPatch) (model.Item, error) {
	r := s.do(ctx, &call{op: "create", patch: p})
	return r.item, r.err
}

func (s *gatedStore) Update(ctx context.Context, id int64, p model.ItemPatch) (model.Item, error) {
	r := s.do(ctx, &call{op: "update", id: id, patch: p})
	return r.item, r.err
}

func (s *gatedStore) Remove(ctx context.Context, id int64) error {
	return s.do(ctx, &call{op: "remove", id: id}).err
}

func (s *gatedStore) next(t *testing.T) *call {
	t.Helper()
	select {
	case c := <-s.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("no remote call issued")
		return nil
	}
}

func (s *gatedStore) idle(t *testing.T) {
	t.Helper()
	select {
	case c := <-s.calls:
		t.Fatalf("unexpected remote call %q", c.op)
	case <-time.After(20 * time.Millisecond):
	}
}

func async(f func() error) <-chan error {
	ch := make(chan error, 1)
	go func() { ch <- f() }()
	return ch
}

func waitErr(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("operation did not finish")
		return nil
	}
}
