package repo

import (
	"context"
	"errors"

	"github.com/BuzzLyutic/optimistic-todo/internal/model"
)

var ErrorNotFound = errors.New("not found")

// ItemRepository is the persistence boundary of the mock server.
type ItemRepository interface {
	Create(ctx context.Context, it model.Item) (model.Item, error)
	Get(ctx context.Context, id int64) (model.Item, error)
	List(ctx context.Context, filter model.ItemFilter) ([]model.Item, error)
	Update(ctx context.Context, id int64, patch model.ItemPatch) (model.Item, error)
	Delete(ctx context.Context, id int64) error
	Categories(ctx context.Context) ([]model.Category, error)
	Priorities(ctx context.Context) ([]model.Priority, error)
	GetStats(ctx context.Context) (model.Stats, error)
}
