package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/optimistic-todo/internal/model"
)

type ItemRepo struct { // Postgres-backed store
	pool *pgxpool.Pool
}

func NewItemRepo(pool *pgxpool.Pool) *ItemRepo {
	return &ItemRepo{
		pool: pool,
	}
}

func (r *ItemRepo) Create(ctx context.Context, it model.Item) (model.Item, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO items (title, completed, category, priority)
		VALUES ($1, $2, $3, $4)
		RETURNING id, title, completed, category, priority
	`, it.Title, it.Completed, it.Category, it.Priority).Scan(
		&it.ID, &it.Title, &it.Completed, &it.Category, &it.Priority,
	)
	return it, err
}

func (r *ItemRepo) Get(ctx context.Context, id int64) (model.Item, error) {
	var it model.Item
	err := r.pool.QueryRow(ctx, `
		SELECT id, title, completed, category, priority
		FROM items
		WHERE id = $1
	`, id).Scan(&it.ID, &it.Title, &it.Completed, &it.Category, &it.Priority)

	if errors.Is(err, pgx.ErrNoRows) {
		return it, ErrorNotFound
	}
	return it, err
}

func (r *ItemRepo) List(ctx context.Context, filter model.ItemFilter) ([]model.Item, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, title, completed, category, priority
		FROM items
		WHERE ($1::text IS NULL OR category = $1)
		  AND ($2::text IS NULL OR priority = $2)
		  AND ($3::boolean IS NULL OR completed = $3)
		ORDER BY id
	`, filter.Category, filter.Priority, filter.Completed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Item, 0)
	for rows.Next() {
		var it model.Item
		if err := rows.Scan(&it.ID, &it.Title, &it.Completed, &it.Category, &it.Priority); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Update applies only the non-nil fields of patch.
func (r *ItemRepo) Update(ctx context.Context, id int64, patch model.ItemPatch) (model.Item, error) {
	var it model.Item
	err := r.pool.QueryRow(ctx, `
		UPDATE items
		SET title     = COALESCE($2, title),
		    completed = COALESCE($3, completed),
		    category  = COALESCE($4, category),
		    priority  = COALESCE($5, priority)
		WHERE id = $1
		RETURNING id, title, completed, category, priority
	`, id, patch.Title, patch.Completed, patch.Category, patch.Priority).Scan(
		&it.ID, &it.Title, &it.Completed, &it.Category, &it.Priority,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return it, ErrorNotFound
	}
	return it, err
}

func (r *ItemRepo) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM items WHERE id = $1", id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}

func (r *ItemRepo) Categories(ctx context.Context) ([]model.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, color FROM categories ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Category, 0)
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Color); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *ItemRepo) Priorities(ctx context.Context) ([]model.Priority, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM priorities ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Priority, 0)
	for rows.Next() {
		var p model.Priority
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ItemRepo) GetStats(ctx context.Context) (model.Stats, error) {
	var s model.Stats
	err := r.pool.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE NOT completed),
		       count(*) FILTER (WHERE completed)
		FROM items
	`).Scan(&s.Total, &s.Active, &s.Completed)
	return s, err
}
