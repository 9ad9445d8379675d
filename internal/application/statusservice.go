package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/workpanel/internal/domain/model"
	"github.com/ericfisherdev/workpanel/internal/domain/port/driven"
)

// ErrStatusLocked is returned when a manual status change is rejected because
// the project board holds the item's status. It is a business conflict, not a
// failure; callers map it to 409 rather than 500.
var ErrStatusLocked = errors.New("status is locked by the project board")

// ErrItemNotFound is returned for status operations on unknown items.
var ErrItemNotFound = errors.New("work item not found")

// StatusService owns the write surface of the activity status timeline and
// the read-side status derivation for items.
type StatusService struct {
	itemStore    driven.ItemStore
	historyStore driven.StatusHistoryStore
	projectName  string
	now          func() time.Time
	logger       *slog.Logger
}

// NewStatusService creates a new StatusService. projectName selects which
// project board entries apply to this deployment.
func NewStatusService(items driven.ItemStore, history driven.StatusHistoryStore, projectName string) *StatusService {
	return &StatusService{
		itemStore:    items,
		historyStore: history,
		projectName:  projectName,
		now:          time.Now,
		logger:       slog.Default(),
	}
}

// StatusInfoFor loads an item's activity timeline and resolves its status
// info against the embedded project board history. The result is derived
// fresh on every call and never cached as ground truth.
func (s *StatusService) StatusInfoFor(ctx context.Context, item model.WorkItem) (model.ItemStatusInfo, error) {
	events, err := s.historyStore.ListByItem(ctx, item.ID)
	if err != nil {
		return model.ItemStatusInfo{}, fmt.Errorf("list status events for item %d: %w", item.ID, err)
	}

	return ResolveItemStatusInfo(item.ProjectStatusHistory, s.projectName, events), nil
}

// ChangeStatus appends a status transition for an item. It re-resolves the
// item's status first and rejects the change with ErrStatusLocked while the
// project board holds the status.
func (s *StatusService) ChangeStatus(ctx context.Context, itemID int64, status model.ActivityStatus) error {
	item, err := s.itemStore.GetByID(ctx, itemID)
	if err != nil {
		return fmt.Errorf("get item %d: %w", itemID, err)
	}
	if item == nil {
		return ErrItemNotFound
	}

	info, err := s.StatusInfoFor(ctx, *item)
	if err != nil {
		return err
	}
	if info.Locked {
		return ErrStatusLocked
	}

	event := model.ActivityStatusEvent{
		ItemID:     itemID,
		Status:     status,
		OccurredAt: s.now().UTC(),
	}
	if err := s.historyStore.Append(ctx, event); err != nil {
		return fmt.Errorf("append status event for item %d: %w", itemID, err)
	}

	s.logger.Info("status changed", "item_id", itemID, "status", string(status))
	return nil
}

// RevertStatus deletes an item's whole activity timeline, returning it to
// no_status. Like ChangeStatus it is rejected while locked.
func (s *StatusService) RevertStatus(ctx context.Context, itemID int64) error {
	item, err := s.itemStore.GetByID(ctx, itemID)
	if err != nil {
		return fmt.Errorf("get item %d: %w", itemID, err)
	}
	if item == nil {
		return ErrItemNotFound
	}

	info, err := s.StatusInfoFor(ctx, *item)
	if err != nil {
		return err
	}
	if info.Locked {
		return ErrStatusLocked
	}

	if err := s.historyStore.DeleteByItem(ctx, itemID); err != nil {
		return fmt.Errorf("delete status events for item %d: %w", itemID, err)
	}

	s.logger.Info("status reverted", "item_id", itemID)
	return nil
}
