package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/workpanel/internal/domain/model"
)

func TestFilterRepo_CreateListDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFilterRepo(db)
	ctx := context.Background()

	id, err := repo.Create(ctx, model.SavedFilter{
		Name:      "my backlog",
		Query:     "kind:issue flag:backlog_issue",
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.NotZero(t, id)

	filters, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, filters, 1)
	assert.Equal(t, "my backlog", filters[0].Name)

	require.NoError(t, repo.Delete(ctx, id))

	filters, err = repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, filters)
}

func TestFilterRepo_DuplicateNameRejected(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFilterRepo(db)
	ctx := context.Background()

	filter := model.SavedFilter{Name: "stale", Query: "flag:stale_pr", CreatedAt: time.Now().UTC()}

	_, err := repo.Create(ctx, filter)
	require.NoError(t, err)

	_, err = repo.Create(ctx, filter)
	assert.Error(t, err)
}

func TestFilterRepo_DeleteMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFilterRepo(db)

	err := repo.Delete(context.Background(), 999)
	assert.Error(t, err)
}
