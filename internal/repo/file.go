package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BuzzLyutic/optimistic-todo/internal/model"
)

// fileDB is the on-disk document layout, one top-level array per collection.
type fileDB struct {
	Items      []model.Item     `json:"items"`
	Categories []model.Category `json:"categories"`
	Priorities []model.Priority `json:"priorities"`
}

// FileRepo keeps the whole database in memory and rewrites the JSON file after
// every mutation. A missing file is seeded with the default lookups.
type FileRepo struct {
	mu   sync.RWMutex
	path string
	db   fileDB
}

func NewFileRepo(path string) (*FileRepo, error) {
	r := &FileRepo{path: path}

	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		r.db = seedDB()
		if err := r.save(); err != nil {
			return nil, err
		}
		return r, nil
	case err != nil:
		return nil, fmt.Errorf("read file: %w", err)
	}

	if err := json.Unmarshal(b, &r.db); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	if r.db.Items == nil {
		r.db.Items = []model.Item{}
	}
	return r, nil
}

func seedDB() fileDB {
	return fileDB{
		Items: []model.Item{},
		Categories: []model.Category{
			{ID: 1, Name: "react19", Color: "#6366f1"},
			{ID: 2, Name: "hooks", Color: "#10b981"},
			{ID: 3, Name: "actions", Color: "#f59e0b"},
		},
		Priorities: []model.Priority{
			{ID: 1, Name: "low"},
			{ID: 2, Name: "medium"},
			{ID: 3, Name: "high"},
		},
	}
}

func (r *FileRepo) Create(ctx context.Context, it model.Item) (model.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var maxID int64
	for _, cur := range r.db.Items {
		if cur.ID > maxID {
			maxID = cur.ID
		}
	}
	it.ID = maxID + 1
	r.db.Items = append(r.db.Items, it)

	if err := r.save(); err != nil {
		r.db.Items = r.db.Items[:len(r.db.Items)-1]
		return model.Item{}, err
	}
	return it, nil
}

func (r *FileRepo) Get(ctx context.Context, id int64) (model.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.indexOf(id); i >= 0 {
		return r.db.Items[i], nil
	}
	return model.Item{}, ErrorNotFound
}

func (r *FileRepo) List(ctx context.Context, filter model.ItemFilter) ([]model.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]model.Item, 0, len(r.db.Items))
	for _, it := range r.db.Items {
		if filter.Match(it) {
			items = append(items, it)
		}
	}
	return items, nil
}

func (r *FileRepo) Update(ctx context.Context, id int64, patch model.ItemPatch) (model.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return model.Item{}, ErrorNotFound
	}

	prev := r.db.Items[i]
	r.db.Items[i] = patch.Apply(prev)
	if err := r.save(); err != nil {
		r.db.Items[i] = prev
		return model.Item{}, err
	}
	return r.db.Items[i], nil
}

func (r *FileRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return ErrorNotFound
	}

	prev := r.db.Items
	next := make([]model.Item, 0, len(prev)-1)
	next = append(next, prev[:i]...)
	next = append(next, prev[i+1:]...)
	r.db.Items = next

	if err := r.save(); err != nil {
		r.db.Items = prev
		return err
	}
	return nil
}

func (r *FileRepo) Categories(ctx context.Context) ([]model.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.Category{}, r.db.Categories...), nil
}

func (r *FileRepo) Priorities(ctx context.Context) ([]model.Priority, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.Priority{}, r.db.Priorities...), nil
}

func (r *FileRepo) GetStats(ctx context.Context) (model.Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := model.Stats{Total: len(r.db.Items)}
	for _, it := range r.db.Items {
		if it.Completed {
			s.Completed++
		} else {
			s.Active++
		}
	}
	return s, nil
}

func (r *FileRepo) indexOf(id int64) int {
	for i, it := range r.db.Items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// save writes to a temp file and renames it over the target so readers never
// see a half-written document. Caller holds the write lock.
func (r *FileRepo) save() error {
	b, err := json.MarshalIndent(r.db, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".db-*.json")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename file: %w", err)
	}
	return nil
}
