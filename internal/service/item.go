package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/BuzzLyutic/optimistic-todo/internal/model"
	"github.com/BuzzLyutic/optimistic-todo/internal/repo"
)

var (
	ErrValidation = errors.New("validation error")
)

const (
	DefaultCategory = "react19"
	DefaultPriority = "medium"
)

type ItemService struct {
	repo     repo.ItemRepository
	validate *validator.Validate
}

func NewItemService(repo repo.ItemRepository) *ItemService {
	return &ItemService{
		repo:     repo,
		validate: validator.New(),
	}
}

// Create fills in defaults for omitted fields; the id is always assigned by the store.
func (s *ItemService) Create(ctx context.Context, p model.ItemPatch) (model.Item, error) {
	it := p.Apply(model.Item{
		Category: DefaultCategory,
		Priority: DefaultPriority,
	})
	it.Title = strings.TrimSpace(it.Title)

	if err := s.validateItem(it); err != nil {
		return it, err
	}
	return s.repo.Create(ctx, it)
}

func (s *ItemService) Get(ctx context.Context, id int64) (model.Item, error) {
	return s.repo.Get(ctx, id)
}

func (s *ItemService) List(ctx context.Context, filter model.ItemFilter) ([]model.Item, error) {
	return s.repo.List(ctx, filter)
}

func (s *ItemService) Update(ctx context.Context, id int64, p model.ItemPatch) (model.Item, error) {
	if p.Empty() {
		return model.Item{}, fmt.Errorf("%w: no fields to update", ErrValidation)
	}
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		p.Title = &title
	}

	// Validate the patch against a placeholder so only provided fields are checked.
	probe := p.Apply(model.Item{Title: "-", Category: "-", Priority: "-"})
	if err := s.validateItem(probe); err != nil {
		return model.Item{}, err
	}
	return s.repo.Update(ctx, id, p)
}

func (s *ItemService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *ItemService) Categories(ctx context.Context) ([]model.Category, error) {
	return s.repo.Categories(ctx)
}

func (s *ItemService) Priorities(ctx context.Context) ([]model.Priority, error) {
	return s.repo.Priorities(ctx)
}

func (s *ItemService) GetStats(ctx context.Context) (model.Stats, error) {
	return s.repo.GetStats(ctx)
}

func (s *ItemService) validateItem(it model.Item) error {
	if err := s.validate.Struct(it); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}
