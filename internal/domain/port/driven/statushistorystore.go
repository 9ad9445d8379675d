package driven

import (
	"context"

	"github.com/ericfisherdev/workpanel/internal/domain/model"
)

// StatusHistoryStore defines the driven port for the append-only activity
// status timeline. The write surface is deliberately narrow: append one
// transition, or delete an item's whole timeline to revert it to no_status.
type StatusHistoryStore interface {
	// Append records one status transition for an item.
	Append(ctx context.Context, event model.ActivityStatusEvent) error

	// ListByItem returns an item's events ordered ascending by occurred-at.
	ListByItem(ctx context.Context, itemID int64) ([]model.ActivityStatusEvent, error)

	// DeleteByItem removes all events for an item, reverting it to no_status.
	DeleteByItem(ctx context.Context, itemID int64) error
}
