package driven

import (
	"context"

	"github.com/ericfisherdev/workpanel/internal/domain/model"
)

// FilterStore defines the driven port for saved filter persistence.
type FilterStore interface {
	Create(ctx context.Context, filter model.SavedFilter) (int64, error)
	ListAll(ctx context.Context) ([]model.SavedFilter, error)
	Delete(ctx context.Context, id int64) error
}
