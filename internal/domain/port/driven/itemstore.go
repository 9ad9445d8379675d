package driven

import (
	"context"

	"github.com/ericfisherdev/workpanel/internal/domain/model"
)

// ItemStore defines the driven port for mirrored work item persistence.
type ItemStore interface {
	Upsert(ctx context.Context, item model.WorkItem) error
	GetByID(ctx context.Context, id int64) (*model.WorkItem, error)
	GetByRepoNumber(ctx context.Context, repoFullName string, kind model.WorkItemKind, number int) (*model.WorkItem, error)
	GetByRepository(ctx context.Context, repoFullName string) ([]model.WorkItem, error)
	ListAll(ctx context.Context) ([]model.WorkItem, error)
	ListByKind(ctx context.Context, kind model.WorkItemKind) ([]model.WorkItem, error)
	Delete(ctx context.Context, repoFullName string, kind model.WorkItemKind, number int) error
}
