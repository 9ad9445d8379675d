package sqlite

import (
	"context"
	"fmt"

	"github.com/ericfisherdev/workpanel/internal/domain/model"
	"github.com/ericfisherdev/workpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.FilterStore = (*FilterRepo)(nil)

// FilterRepo is the SQLite implementation of the FilterStore port interface.
type FilterRepo struct {
	db *DB
}

// NewFilterRepo creates a new FilterRepo backed by the given DB.
func NewFilterRepo(db *DB) *FilterRepo {
	return &FilterRepo{db: db}
}

// Create inserts a saved filter and returns its generated ID.
func (r *FilterRepo) Create(ctx context.Context, filter model.SavedFilter) (int64, error) {
	const query = `INSERT INTO saved_filters (name, query, created_at) VALUES (?, ?, ?)`

	result, err := r.db.Writer.ExecContext(ctx, query,
		filter.Name, filter.Query, filter.CreatedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert saved filter %q: %w", filter.Name, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("saved filter id: %w", err)
	}

	return id, nil
}

// ListAll returns all saved filters ordered by name.
func (r *FilterRepo) ListAll(ctx context.Context) ([]model.SavedFilter, error) {
	const query = `SELECT id, name, query, created_at FROM saved_filters ORDER BY name`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query saved filters: %w", err)
	}
	defer rows.Close()

	filters := []model.SavedFilter{}
	for rows.Next() {
		var f model.SavedFilter
		if err := rows.Scan(&f.ID, &f.Name, &f.Query, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan saved filter row: %w", err)
		}
		filters = append(filters, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate saved filter rows: %w", err)
	}

	return filters, nil
}

// Delete removes a saved filter by ID.
func (r *FilterRepo) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM saved_filters WHERE id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete saved filter %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete saved filter %d: rows affected: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("saved filter %d not found", id)
	}

	return nil
}
