package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/workpanel/internal/domain/model"
	"github.com/ericfisherdev/workpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ItemStore = (*ItemRepo)(nil)

// ItemRepo is the SQLite implementation of the ItemStore port interface.
// Labels and the project status history are stored as JSON text columns;
// the history is an opaque sync-owned blob as far as this layer is concerned.
type ItemRepo struct {
	db *DB
}

// NewItemRepo creates a new ItemRepo backed by the given DB.
func NewItemRepo(db *DB) *ItemRepo {
	return &ItemRepo{db: db}
}

const itemColumns = `id, repo_full_name, number, kind, state, title, author, body, url,
	labels, opened_at, updated_at, last_activity_at, closed_at,
	project_status_history, last_mention_at, mention_answered_at`

// Upsert inserts or updates an item by its natural key (repo, kind, number).
func (r *ItemRepo) Upsert(ctx context.Context, item model.WorkItem) error {
	const query = `
		INSERT INTO items (
			repo_full_name, number, kind, state, title, author, body, url,
			labels, opened_at, updated_at, last_activity_at, closed_at,
			project_status_history, last_mention_at, mention_answered_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(repo_full_name, kind, number) DO UPDATE SET
			state = excluded.state,
			title = excluded.title,
			author = excluded.author,
			body = excluded.body,
			url = excluded.url,
			labels = excluded.labels,
			opened_at = excluded.opened_at,
			updated_at = excluded.updated_at,
			last_activity_at = excluded.last_activity_at,
			closed_at = excluded.closed_at,
			project_status_history = excluded.project_status_history,
			last_mention_at = excluded.last_mention_at,
			mention_answered_at = excluded.mention_answered_at
	`

	labels := item.Labels
	if labels == nil {
		labels = []string{}
	}
	labelsJSON, err := json.Marshal(labels)
	if err != nil {
		return fmt.Errorf("marshal labels: %w", err)
	}

	history := item.ProjectStatusHistory
	if history == nil {
		history = []model.ProjectStatusEntry{}
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("marshal project status history: %w", err)
	}

	_, err = r.db.Writer.ExecContext(ctx, query,
		item.RepoFullName, item.Number, string(item.Kind), string(item.State),
		item.Title, item.Author, item.Body, item.URL,
		string(labelsJSON), item.OpenedAt.UTC(), item.UpdatedAt.UTC(), item.LastActivityAt.UTC(),
		nullableTime(item.ClosedAt), string(historyJSON),
		nullableTime(item.LastMentionAt), nullableTime(item.MentionAnsweredAt),
	)
	if err != nil {
		return fmt.Errorf("upsert item %s %s#%d: %w", item.Kind, item.RepoFullName, item.Number, err)
	}

	return nil
}

// GetByID returns a single item by its database ID, or nil if not found.
func (r *ItemRepo) GetByID(ctx context.Context, id int64) (*model.WorkItem, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = ?`

	item, err := scanItem(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item %d: %w", id, err)
	}

	return item, nil
}

// GetByRepoNumber returns a single item by its natural key, or nil if not found.
func (r *ItemRepo) GetByRepoNumber(ctx context.Context, repoFullName string, kind model.WorkItemKind, number int) (*model.WorkItem, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE repo_full_name = ? AND kind = ? AND number = ?`

	item, err := scanItem(r.db.Reader.QueryRowContext(ctx, query, repoFullName, string(kind), number))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item %s %s#%d: %w", kind, repoFullName, number, err)
	}

	return item, nil
}

// GetByRepository returns all items tracked for a repository.
func (r *ItemRepo) GetByRepository(ctx context.Context, repoFullName string) ([]model.WorkItem, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE repo_full_name = ? ORDER BY number`

	rows, err := r.db.Reader.QueryContext(ctx, query, repoFullName)
	if err != nil {
		return nil, fmt.Errorf("query items for %s: %w", repoFullName, err)
	}
	defer rows.Close()

	return collectItems(rows)
}

// ListAll returns every tracked item ordered by repository and number.
func (r *ItemRepo) ListAll(ctx context.Context) ([]model.WorkItem, error) {
	query := `SELECT ` + itemColumns + ` FROM items ORDER BY repo_full_name, number`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

// ListByKind returns all items of a given kind.
func (r *ItemRepo) ListByKind(ctx context.Context, kind model.WorkItemKind) ([]model.WorkItem, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE kind = ? ORDER BY repo_full_name, number`

	rows, err := r.db.Reader.QueryContext(ctx, query, string(kind))
	if err != nil {
		return nil, fmt.Errorf("query items by kind %s: %w", kind, err)
	}
	defer rows.Close()

	return collectItems(rows)
}

// Delete removes an item by its natural key. Activity status events cascade.
func (r *ItemRepo) Delete(ctx context.Context, repoFullName string, kind model.WorkItemKind, number int) error {
	const query = `DELETE FROM items WHERE repo_full_name = ? AND kind = ? AND number = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, repoFullName, string(kind), number)
	if err != nil {
		return fmt.Errorf("delete item %s %s#%d: %w", kind, repoFullName, number, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete item %s %s#%d: rows affected: %w", kind, repoFullName, number, err)
	}
	if affected == 0 {
		return fmt.Errorf("item %s %s#%d not found", kind, repoFullName, number)
	}

	return nil
}

// rowScanner abstracts sql.Row and sql.Rows for shared scan logic.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanItem reads one item row into a model.WorkItem.
func scanItem(row rowScanner) (*model.WorkItem, error) {
	var (
		item            model.WorkItem
		kind, state     string
		labelsJSON      string
		historyJSON     string
		closedAt        sql.NullTime
		lastMentionAt   sql.NullTime
		mentionAnswered sql.NullTime
	)

	err := row.Scan(
		&item.ID, &item.RepoFullName, &item.Number, &kind, &state,
		&item.Title, &item.Author, &item.Body, &item.URL,
		&labelsJSON, &item.OpenedAt, &item.UpdatedAt, &item.LastActivityAt, &closedAt,
		&historyJSON, &lastMentionAt, &mentionAnswered,
	)
	if err != nil {
		return nil, err
	}

	item.Kind = model.WorkItemKind(kind)
	item.State = model.WorkItemState(state)

	if err := json.Unmarshal([]byte(labelsJSON), &item.Labels); err != nil {
		return nil, fmt.Errorf("unmarshal labels: %w", err)
	}
	if err := json.Unmarshal([]byte(historyJSON), &item.ProjectStatusHistory); err != nil {
		return nil, fmt.Errorf("unmarshal project status history: %w", err)
	}

	item.ClosedAt = timePtr(closedAt)
	item.LastMentionAt = timePtr(lastMentionAt)
	item.MentionAnsweredAt = timePtr(mentionAnswered)

	return &item, nil
}

// collectItems drains a result set into a slice.
func collectItems(rows *sql.Rows) ([]model.WorkItem, error) {
	items := []model.WorkItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item row: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate item rows: %w", err)
	}
	return items, nil
}

// nullableTime converts a *time.Time to a driver-friendly value, storing
// NULL for nil and the UTC instant otherwise.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// timePtr converts a scanned sql.NullTime back to a *time.Time.
func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}
