package sqlite

import (
	"context"
	"fmt"

	"github.com/ericfisherdev/workpanel/internal/domain/model"
	"github.com/ericfisherdev/workpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.StatusHistoryStore = (*StatusHistoryRepo)(nil)

// StatusHistoryRepo is the SQLite implementation of the StatusHistoryStore
// port interface. The table is append-only: rows are inserted or deleted
// wholesale per item, never updated.
type StatusHistoryRepo struct {
	db *DB
}

// NewStatusHistoryRepo creates a new StatusHistoryRepo backed by the given DB.
func NewStatusHistoryRepo(db *DB) *StatusHistoryRepo {
	return &StatusHistoryRepo{db: db}
}

// Append records one status transition for an item.
func (r *StatusHistoryRepo) Append(ctx context.Context, event model.ActivityStatusEvent) error {
	const query = `INSERT INTO activity_status_events (item_id, status, occurred_at) VALUES (?, ?, ?)`

	_, err := r.db.Writer.ExecContext(ctx, query,
		event.ItemID, string(event.Status), event.OccurredAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("append status event for item %d: %w", event.ItemID, err)
	}

	return nil
}

// ListByItem returns an item's events ordered ascending by occurred-at.
func (r *StatusHistoryRepo) ListByItem(ctx context.Context, itemID int64) ([]model.ActivityStatusEvent, error) {
	const query = `
		SELECT id, item_id, status, occurred_at
		FROM activity_status_events
		WHERE item_id = ?
		ORDER BY occurred_at, id
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("query status events for item %d: %w", itemID, err)
	}
	defer rows.Close()

	events := []model.ActivityStatusEvent{}
	for rows.Next() {
		var (
			event  model.ActivityStatusEvent
			status string
		)
		if err := rows.Scan(&event.ID, &event.ItemID, &status, &event.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan status event row: %w", err)
		}
		event.Status = model.ActivityStatus(status)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status event rows: %w", err)
	}

	return events, nil
}

// DeleteByItem removes all events for an item, reverting it to no_status.
func (r *StatusHistoryRepo) DeleteByItem(ctx context.Context, itemID int64) error {
	const query = `DELETE FROM activity_status_events WHERE item_id = ?`

	if _, err := r.db.Writer.ExecContext(ctx, query, itemID); err != nil {
		return fmt.Errorf("delete status events for item %d: %w", itemID, err)
	}

	return nil
}
