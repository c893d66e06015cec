package repo

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BuzzLyutic/optimistic-todo/internal/model"
)

func newFileRepo(t *testing.T) (*FileRepo, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db.json")
	r, err := NewFileRepo(path)
	require.NoError(t, err)
	return r, path
}

func TestFileRepo_SeedsMissingFile(t *testing.T) {
	r, path := newFileRepo(t)

	_, err := os.Stat(path)
	require.NoError(t, err)

	cats, err := r.Categories(context.Background())
	require.NoError(t, err)
	assert.Len(t, cats, 3)

	items, err := r.List(context.Background(), model.ItemFilter{})
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestFileRepo_CRUD(t *testing.T) {
	r, path := newFileRepo(t)
	ctx := context.Background()

	a, err := r.Create(ctx, model.Item{Title: "a", Category: "hooks", Priority: "low"})
	require.NoError(t, err)
	b, err := r.Create(ctx, model.Item{Title: "b", Category: "react19", Priority: "high"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID)

	updated, err := r.Update(ctx, a.ID, model.ItemPatch{Completed: model.Bool(true)})
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.Equal(t, "a", updated.Title)

	require.NoError(t, r.Delete(ctx, b.ID))
	_, err = r.Get(ctx, b.ID)
	assert.ErrorIs(t, err, ErrorNotFound)
	assert.ErrorIs(t, r.Delete(ctx, b.ID), ErrorNotFound)

	// A fresh repo over the same file sees the persisted state.
	reopened, err := NewFileRepo(path)
	require.NoError(t, err)
	got, err := reopened.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	stats, err := reopened.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.Stats{Total: 1, Active: 0, Completed: 1}, stats)
}

func TestFileRepo_ListFilter(t *testing.T) {
	r, _ := newFileRepo(t)
	ctx := context.Background()

	for _, it := range []model.Item{
		{Title: "a", Category: "hooks", Priority: "low"},
		{Title: "b", Category: "hooks", Priority: "high", Completed: true},
		{Title: "c", Category: "actions", Priority: "high"},
	} {
		_, err := r.Create(ctx, it)
		require.NoError(t, err)
	}

	tests := []struct {
		name   string
		filter model.ItemFilter
		want   []string
	}{
		{"no filter", model.ItemFilter{}, []string{"a", "b", "c"}},
		{"category", model.ItemFilter{Category: model.String("hooks")}, []string{"a", "b"}},
		{"completed", model.ItemFilter{Completed: model.Bool(true)}, []string{"b"}},
		{"priority and active", model.ItemFilter{Priority: model.String("high"), Completed: model.Bool(false)}, []string{"c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := r.List(ctx, tt.filter)
			require.NoError(t, err)

			titles := make([]string, 0, len(items))
			for _, it := range items {
				titles = append(titles, it.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}

func TestFileRepo_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewFileRepo(path)
	assert.Error(t, err)
}
