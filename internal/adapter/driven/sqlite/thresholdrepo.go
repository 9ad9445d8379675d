package sqlite

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ericfisherdev/workpanel/internal/domain/model"
	"github.com/ericfisherdev/workpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ThresholdStore = (*ThresholdRepo)(nil)

// ThresholdRepo is the SQLite implementation of the ThresholdStore port
// interface, backed by the global_settings key/value table.
type ThresholdRepo struct {
	db *DB
}

// NewThresholdRepo creates a new ThresholdRepo backed by the given DB.
func NewThresholdRepo(db *DB) *ThresholdRepo {
	return &ThresholdRepo{db: db}
}

const (
	keyBacklogIssueDays      = "backlog_issue_days"
	keyStalePRDays           = "stale_pr_days"
	keyUnansweredMentionDays = "unanswered_mention_days"
	keyStalledInProgressDays = "stalled_in_progress_days"
)

// GetThresholds returns the stored thresholds. Missing or unparseable keys
// fall back to model.DefaultThresholds() values.
func (r *ThresholdRepo) GetThresholds(ctx context.Context) (model.Thresholds, error) {
	const query = `SELECT key, value FROM global_settings WHERE key IN (?, ?, ?, ?)`

	rows, err := r.db.Reader.QueryContext(ctx, query,
		keyBacklogIssueDays, keyStalePRDays, keyUnansweredMentionDays, keyStalledInProgressDays,
	)
	if err != nil {
		return model.DefaultThresholds(), fmt.Errorf("query global_settings: %w", err)
	}
	defer rows.Close()

	thresholds := model.DefaultThresholds()
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return model.DefaultThresholds(), fmt.Errorf("scan global_settings row: %w", err)
		}

		v, err := strconv.Atoi(value)
		if err != nil {
			continue
		}

		switch key {
		case keyBacklogIssueDays:
			thresholds.BacklogIssueDays = v
		case keyStalePRDays:
			thresholds.StalePRDays = v
		case keyUnansweredMentionDays:
			thresholds.UnansweredMentionDays = v
		case keyStalledInProgressDays:
			thresholds.StalledInProgressDays = v
		}
	}
	if err := rows.Err(); err != nil {
		return model.DefaultThresholds(), fmt.Errorf("iterate global_settings: %w", err)
	}

	return thresholds, nil
}

// SetThresholds persists the thresholds using a transaction.
func (r *ThresholdRepo) SetThresholds(ctx context.Context, t model.Thresholds) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const upsert = `INSERT OR REPLACE INTO global_settings (key, value) VALUES (?, ?)`

	rows := []struct {
		key   string
		value string
	}{
		{keyBacklogIssueDays, strconv.Itoa(t.BacklogIssueDays)},
		{keyStalePRDays, strconv.Itoa(t.StalePRDays)},
		{keyUnansweredMentionDays, strconv.Itoa(t.UnansweredMentionDays)},
		{keyStalledInProgressDays, strconv.Itoa(t.StalledInProgressDays)},
	}
	for _, row := range rows {
		if _, err := tx.ExecContext(ctx, upsert, row.key, row.value); err != nil {
			return fmt.Errorf("upsert global_settings %q: %w", row.key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit global_settings: %w", err)
	}

	return nil
}
