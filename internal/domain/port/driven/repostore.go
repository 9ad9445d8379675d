package driven

import (
	"context"

	"github.com/ericfisherdev/workpanel/internal/domain/model"
)

// RepoStore defines the driven port for the repository watch list.
type RepoStore interface {
	Add(ctx context.Context, repo model.Repository) error
	Remove(ctx context.Context, fullName string) error
	ListAll(ctx context.Context) ([]model.Repository, error)
}
