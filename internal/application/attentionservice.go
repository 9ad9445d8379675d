package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/ericfisherdev/workpanel/internal/domain/businesscal"
	"github.com/ericfisherdev/workpanel/internal/domain/model"
	"github.com/ericfisherdev/workpanel/internal/domain/port/driven"
)

// ComputeAttentionFlags evaluates an item's business-time ages against
// thresholds and returns which attention flags are active. Each flag is an
// independent inclusive comparison; flags are never cached, so a threshold
// change takes effect on the next read.
func ComputeAttentionFlags(
	item model.WorkItem,
	info model.ItemStatusInfo,
	ages model.ItemAges,
	thresholds model.Thresholds,
) model.AttentionFlags {
	flags := model.AttentionFlags{}

	// BacklogIssue: an open issue that has sat unstarted too long.
	flags.BacklogIssue = item.Kind == model.KindIssue &&
		item.IsOpen() &&
		!info.HasStarted() &&
		ages.BusinessDaysOpen != nil &&
		*ages.BusinessDaysOpen >= thresholds.BacklogIssueDays

	// StalePR: an open pull request with no recent activity.
	flags.StalePR = item.Kind == model.KindPullRequest &&
		item.IsOpen() &&
		ages.BusinessDaysSinceActivity != nil &&
		*ages.BusinessDaysSinceActivity >= thresholds.StalePRDays

	// UnansweredMention: the configured threshold is floored at
	// model.MinMentionDays regardless of what was configured.
	mentionDays := thresholds.UnansweredMentionDays
	if mentionDays < model.MinMentionDays {
		mentionDays = model.MinMentionDays
	}
	flags.UnansweredMention = item.LastMentionAt != nil &&
		item.MentionAnsweredAt == nil &&
		ages.BusinessDaysSinceMention != nil &&
		*ages.BusinessDaysSinceMention >= mentionDays

	// StalledInProgress: work started but nothing has happened since.
	flags.StalledInProgress = item.IsOpen() &&
		info.DisplayStatus == model.StatusInProgress &&
		ages.BusinessDaysSinceActivity != nil &&
		*ages.BusinessDaysSinceActivity >= thresholds.StalledInProgressDays

	return flags
}

// ComputeItemAges derives the nullable business-time ages an item is
// classified on. Missing timestamps yield nil ages rather than errors so that
// partially-synced items simply produce no signal.
func ComputeItemAges(
	item model.WorkItem,
	info model.ItemStatusInfo,
	now time.Time,
	holidays businesscal.HolidaySet,
) model.ItemAges {
	ages := model.ItemAges{}

	if !item.OpenedAt.IsZero() {
		opened := item.OpenedAt
		ages.BusinessDaysOpen = businesscal.DaysSinceOrNil(&opened, now, holidays)
	}
	if !item.LastActivityAt.IsZero() {
		activity := item.LastActivityAt
		ages.BusinessDaysSinceActivity = businesscal.DaysSinceOrNil(&activity, now, holidays)
	}
	ages.BusinessDaysSinceMention = businesscal.DaysSinceOrNil(item.LastMentionAt, now, holidays)
	ages.BusinessDaysInProgress = businesscal.DaysSinceOrNil(info.StartedAt, now, holidays)

	return ages
}

// AttentionService computes attention flags for items using threshold
// configuration from the database and the process-wide holiday set.
type AttentionService struct {
	thresholdStore driven.ThresholdStore
	holidays       businesscal.HolidaySet
	logger         *slog.Logger
}

// NewAttentionService creates a new AttentionService.
func NewAttentionService(ts driven.ThresholdStore, holidays businesscal.HolidaySet) *AttentionService {
	return &AttentionService{
		thresholdStore: ts,
		holidays:       holidays,
		logger:         slog.Default(),
	}
}

// Thresholds returns the stored thresholds. On error, falls back to defaults
// (non-fatal).
func (s *AttentionService) Thresholds(ctx context.Context) model.Thresholds {
	thresholds, err := s.thresholdStore.GetThresholds(ctx)
	if err != nil {
		s.logger.Warn("failed to get thresholds, using defaults", "error", err)
		return model.DefaultThresholds()
	}
	return thresholds
}

// FlagsForItem computes attention flags and ages for a single item against
// current thresholds and the given now.
func (s *AttentionService) FlagsForItem(
	ctx context.Context,
	item model.WorkItem,
	info model.ItemStatusInfo,
	now time.Time,
) (model.AttentionFlags, model.ItemAges) {
	thresholds := s.Thresholds(ctx)
	ages := ComputeItemAges(item, info, now, s.holidays)
	return ComputeAttentionFlags(item, info, ages, thresholds), ages
}
