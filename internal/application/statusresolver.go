// Package application contains use-case orchestration services and the pure
// status derivation functions they are built on.
package application

import (
	"sort"
	"strings"
	"time"

	"github.com/ericfisherdev/workpanel/internal/domain/model"
)

// statusRule maps a normalized project board status string to the canonical
// vocabulary. Rules are evaluated in order; the first match wins.
type statusRule struct {
	match  func(s string) bool
	status model.ActivityStatus
}

// projectStatusRules is the ordered keyword table for MapProjectStatus.
// Inputs are normalized (lowercased, non-alphanumerics stripped) before
// matching, so "In Progress", "in-progress", and "IN_PROGRESS" all hit the
// same rule.
var projectStatusRules = []statusRule{
	{func(s string) bool { return strings.Contains(s, "progress") || strings.Contains(s, "doing") }, model.StatusInProgress},
	{func(s string) bool {
		return strings.Contains(s, "done") || strings.Contains(s, "complete") ||
			strings.Contains(s, "finished") || strings.Contains(s, "closed")
	}, model.StatusDone},
	{func(s string) bool { return strings.HasPrefix(s, "pending") || strings.HasPrefix(s, "waiting") }, model.StatusPending},
	{func(s string) bool { return strings.HasPrefix(s, "cancel") }, model.StatusCanceled},
	{func(s string) bool { return strings.Contains(s, "todo") }, model.StatusTodo},
}

// MapProjectStatus canonicalizes a raw project board status string. Anything
// that matches no rule, including the empty string, maps to no_status.
func MapProjectStatus(raw string) model.ActivityStatus {
	s := normalizeToken(raw)
	for _, rule := range projectStatusRules {
		if rule.match(s) {
			return rule.status
		}
	}
	return model.StatusNone
}

// normalizeToken lowercases s and strips everything but letters and digits.
func normalizeToken(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// timelineLayouts are the timestamp formats tolerated in project status
// entries, which arrive from sync with variable quality.
var timelineLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimelineTime leniently parses a raw occurred-at string in UTC.
func parseTimelineTime(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timelineLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// TimelineEvent is one canonical status transition with its timestamp, the
// unit both timelines are reduced over once raw entries are parsed and mapped.
type TimelineEvent struct {
	Status model.ActivityStatus
	At     time.Time
}

// ResolveItemStatusInfo merges an item's project board history and its local
// activity timeline into a single ItemStatusInfo. It is a pure function over
// its inputs: malformed entries are skipped silently and no error paths exist,
// so classification degrades to no_status rather than failing the read.
func ResolveItemStatusInfo(
	entries []model.ProjectStatusEntry,
	projectName string,
	events []model.ActivityStatusEvent,
) model.ItemStatusInfo {
	boardTimeline := projectTimeline(entries, projectName)
	activityTimeline := activityTimeline(events)

	info := model.ItemStatusInfo{
		TodoStatus:     model.StatusNone,
		ActivityStatus: model.StatusNone,
		DisplayStatus:  model.StatusNone,
		Source:         model.SourceNone,
		TimelineSource: model.SourceNone,
	}

	if n := len(boardTimeline); n > 0 {
		last := boardTimeline[n-1]
		info.TodoStatus = last.Status
		at := last.At
		info.TodoStatusAt = &at
	}
	if n := len(activityTimeline); n > 0 {
		last := activityTimeline[n-1]
		info.ActivityStatus = last.Status
		at := last.At
		info.ActivityStatusAt = &at
	}

	// Lock rule: a board showing substantive progress is the team's record
	// of truth and always wins over local overrides.
	switch info.TodoStatus {
	case model.StatusInProgress, model.StatusDone, model.StatusPending:
		info.Locked = true
	}

	switch {
	case info.Locked:
		info.DisplayStatus = info.TodoStatus
		info.Source = model.SourceTodoProject
	case info.TodoStatusAt != nil && info.ActivityStatusAt != nil:
		// More recent wins; ties favor the activity timeline.
		if info.TodoStatusAt.After(*info.ActivityStatusAt) {
			info.DisplayStatus = info.TodoStatus
			info.Source = model.SourceTodoProject
		} else {
			info.DisplayStatus = info.ActivityStatus
			info.Source = model.SourceActivity
		}
	case info.ActivityStatusAt != nil:
		info.DisplayStatus = info.ActivityStatus
		info.Source = model.SourceActivity
	case info.TodoStatusAt != nil:
		info.DisplayStatus = info.TodoStatus
		info.Source = model.SourceTodoProject
	}

	info.TimelineSource = chooseTimelineSource(info.Source, len(boardTimeline), len(activityTimeline))

	var chosen []TimelineEvent
	switch info.TimelineSource {
	case model.SourceActivity:
		chosen = activityTimeline
	case model.SourceTodoProject:
		chosen = boardTimeline
	}
	info.StartedAt, info.CompletedAt = ResolveWorkTimestamps(chosen)

	return info
}

// chooseTimelineSource picks the history that feeds work timestamp
// derivation: the side that resolved the display status when it has events,
// otherwise whichever side is non-empty.
func chooseTimelineSource(source model.StatusSource, boardLen, activityLen int) model.StatusSource {
	switch {
	case source == model.SourceActivity && activityLen > 0:
		return model.SourceActivity
	case boardLen > 0:
		return model.SourceTodoProject
	case activityLen > 0:
		return model.SourceActivity
	default:
		return model.SourceNone
	}
}

// ResolveWorkTimestamps replays a chronologically ordered timeline and
// derives when work started and completed:
//
//   - entering in_progress sets started-at and clears completed-at
//   - entering done or canceled sets completed-at, but only when work has
//     started and no earlier completion exists (first completion wins)
//   - entering todo or no_status resets both (reopening voids the duration)
//   - pending has no effect on either timestamp
//
// Repeated occurrences of the same status are ignored; only transitions count.
func ResolveWorkTimestamps(events []TimelineEvent) (startedAt, completedAt *time.Time) {
	prev := model.StatusNone
	seen := false

	for _, ev := range events {
		if seen && ev.Status == prev {
			continue
		}

		switch ev.Status {
		case model.StatusInProgress:
			at := ev.At
			startedAt = &at
			completedAt = nil
		case model.StatusDone, model.StatusCanceled:
			if startedAt != nil && completedAt == nil {
				at := ev.At
				completedAt = &at
			}
		case model.StatusTodo, model.StatusNone:
			startedAt = nil
			completedAt = nil
		}

		prev = ev.Status
		seen = true
	}

	return startedAt, completedAt
}

// projectTimeline filters board entries to the target project, drops
// malformed rows, maps raw statuses through MapProjectStatus, and returns the
// result sorted ascending by occurred-at.
func projectTimeline(entries []model.ProjectStatusEntry, projectName string) []TimelineEvent {
	target := normalizeToken(projectName)
	if target == "" {
		return nil
	}

	timeline := make([]TimelineEvent, 0, len(entries))
	for _, entry := range entries {
		if normalizeToken(entry.ProjectTitle) != target {
			continue
		}
		at, ok := parseTimelineTime(entry.OccurredAt)
		if !ok {
			continue
		}
		timeline = append(timeline, TimelineEvent{Status: MapProjectStatus(entry.Status), At: at})
	}

	sort.SliceStable(timeline, func(i, j int) bool {
		return timeline[i].At.Before(timeline[j].At)
	})

	return timeline
}

// activityTimeline converts stored activity events into a timeline sorted
// ascending by occurred-at. Events are already canonical; only zero
// timestamps are dropped.
func activityTimeline(events []model.ActivityStatusEvent) []TimelineEvent {
	timeline := make([]TimelineEvent, 0, len(events))
	for _, ev := range events {
		if ev.OccurredAt.IsZero() {
			continue
		}
		timeline = append(timeline, TimelineEvent{Status: ev.Status, At: ev.OccurredAt.UTC()})
	}

	sort.SliceStable(timeline, func(i, j int) bool {
		return timeline[i].At.Before(timeline[j].At)
	})

	return timeline
}
