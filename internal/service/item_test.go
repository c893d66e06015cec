package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/BuzzLyutic/optimistic-todo/internal/model"
	"github.com/BuzzLyutic/optimistic-todo/internal/repo"
)

// MockItemRepository is a testify mock of repo.ItemRepository.
type MockItemRepository struct {
	mock.Mock
}

func (m *MockItemRepository) Create(ctx context.Context, it model.Item) (model.Item, error) {
	args := m.Called(ctx, it)
	return args.Get(0).(model.Item), args.Error(1)
}

func (m *MockItemRepository) Get(ctx context.Context, id int64) (model.Item, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Item), args.Error(1)
}

func (m *MockItemRepository) List(ctx context.Context, filter model.ItemFilter) ([]model.Item, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]model.Item), args.Error(1)
}

func (m *MockItemRepository) Update(ctx context.Context, id int64, patch model.ItemPatch) (model.Item, error) {
	args := m.Called(ctx, id, patch)
	return args.Get(0).(model.Item), args.Error(1)
}

func (m *MockItemRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockItemRepository) Categories(ctx context.Context) ([]model.Category, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.Category), args.Error(1)
}

func (m *MockItemRepository) Priorities(ctx context.Context) ([]model.Priority, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.Priority), args.Error(1)
}

func (m *MockItemRepository) GetStats(ctx context.Context) (model.Stats, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.Stats), args.Error(1)
}

func TestItemService_Create(t *testing.T) {
	tests := []struct {
		name      string
		patch     model.ItemPatch
		setupMock func(*MockItemRepository)
		wantErr   error
	}{
		{
			name:  "defaults applied",
			patch: model.ItemPatch{Title: model.String("  Learn use()  ")},
			setupMock: func(m *MockItemRepository) {
				m.On("Create", mock.Anything, model.Item{
					Title:    "Learn use()",
					Category: DefaultCategory,
					Priority: DefaultPriority,
				}).Return(model.Item{ID: 1, Title: "Learn use()", Category: DefaultCategory, Priority: DefaultPriority}, nil)
			},
		},
		{
			name: "explicit fields kept",
			patch: model.ItemPatch{
				Title:    model.String("Actions"),
				Category: model.String("actions"),
				Priority: model.String("high"),
			},
			setupMock: func(m *MockItemRepository) {
				m.On("Create", mock.Anything, mock.MatchedBy(func(it model.Item) bool {
					return it.Category == "actions" && it.Priority == "high" && !it.Completed
				})).Return(model.Item{ID: 2, Title: "Actions", Category: "actions", Priority: "high"}, nil)
			},
		},
		{
			name:      "validation error - missing title",
			patch:     model.ItemPatch{},
			setupMock: func(m *MockItemRepository) {},
			wantErr:   ErrValidation,
		},
		{
			name:      "validation error - whitespace title",
			patch:     model.ItemPatch{Title: model.String("   ")},
			setupMock: func(m *MockItemRepository) {},
			wantErr:   ErrValidation,
		},
		{
			name:      "validation error - blank category",
			patch:     model.ItemPatch{Title: model.String("x"), Category: model.String("")},
			setupMock: func(m *MockItemRepository) {},
			wantErr:   ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockItemRepository)
			tt.setupMock(mockRepo)

			service := NewItemService(mockRepo)
			result, err := service.Create(context.Background(), tt.patch)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.NotZero(t, result.ID)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestItemService_Update(t *testing.T) {
	t.Run("partial update passes through", func(t *testing.T) {
		mockRepo := new(MockItemRepository)
		patch := model.ItemPatch{Completed: model.Bool(true)}
		mockRepo.On("Update", mock.Anything, int64(1), patch).
			Return(model.Item{ID: 1, Title: "a", Completed: true}, nil)

		service := NewItemService(mockRepo)
		result, err := service.Update(context.Background(), 1, patch)

		require.NoError(t, err)
		assert.True(t, result.Completed)
		mockRepo.AssertExpectations(t)
	})

	t.Run("not found propagates", func(t *testing.T) {
		mockRepo := new(MockItemRepository)
		mockRepo.On("Update", mock.Anything, int64(9), mock.Anything).
			Return(model.Item{}, repo.ErrorNotFound)

		service := NewItemService(mockRepo)
		_, err := service.Update(context.Background(), 9, model.ItemPatch{Title: model.String("x")})

		assert.ErrorIs(t, err, repo.ErrorNotFound)
	})

	tests := []struct {
		name  string
		patch model.ItemPatch
	}{
		{"empty patch", model.ItemPatch{}},
		{"blank title", model.ItemPatch{Title: model.String(" ")}},
		{"blank priority", model.ItemPatch{Priority: model.String("")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockItemRepository)
			service := NewItemService(mockRepo)

			_, err := service.Update(context.Background(), 1, tt.patch)
			assert.ErrorIs(t, err, ErrValidation)
			mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestItemService_GetStats(t *testing.T) {
	mockRepo := new(MockItemRepository)
	expected := model.Stats{Total: 5, Active: 3, Completed: 2}
	mockRepo.On("GetStats", mock.Anything).Return(expected, nil)

	service := NewItemService(mockRepo)
	stats, err := service.GetStats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, expected, stats)
	mockRepo.AssertExpectations(t)
}

func TestItemService_Lookups(t *testing.T) {
	mockRepo := new(MockItemRepository)
	mockRepo.On("Categories", mock.Anything).Return([]model.Category{{ID: 1, Name: "hooks"}}, nil)
	mockRepo.On("Priorities", mock.Anything).Return([]model.Priority{{ID: 1, Name: "low"}}, nil)

	service := NewItemService(mockRepo)

	cats, err := service.Categories(context.Background())
	require.NoError(t, err)
	assert.Len(t, cats, 1)

	prios, err := service.Priorities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "low", prios[0].Name)
}
