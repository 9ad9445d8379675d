package application_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/workpanel/internal/application"
	"github.com/ericfisherdev/workpanel/internal/domain/model"
)

const testProject = "Platform Roadmap"

func boardEntry(status, occurredAt string) model.ProjectStatusEntry {
	return model.ProjectStatusEntry{
		ProjectTitle: testProject,
		Status:       status,
		OccurredAt:   occurredAt,
	}
}

func activityEvent(t *testing.T, status model.ActivityStatus, occurredAt string) model.ActivityStatusEvent {
	t.Helper()
	at, err := time.Parse(time.RFC3339, occurredAt)
	require.NoError(t, err)
	return model.ActivityStatusEvent{Status: status, OccurredAt: at}
}

func TestMapProjectStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want model.ActivityStatus
	}{
		{"In Progress", model.StatusInProgress},
		{"in-progress", model.StatusInProgress},
		{"Doing", model.StatusInProgress},
		{"Done", model.StatusDone},
		{"Completed", model.StatusDone},
		{"complete", model.StatusDone},
		{"Finished", model.StatusDone},
		{"Closed", model.StatusDone},
		{"Pending review", model.StatusPending},
		{"Waiting on customer", model.StatusPending},
		{"Cancelled", model.StatusCanceled},
		{"canceled", model.StatusCanceled},
		{"Todo", model.StatusTodo},
		{"To Do", model.StatusTodo},
		{"to_do", model.StatusTodo},
		{"Backlog", model.StatusNone},
		{"", model.StatusNone},
		{"???", model.StatusNone},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, application.MapProjectStatus(tt.raw))
		})
	}
}

func TestResolveItemStatusInfo_LockRule(t *testing.T) {
	t.Run("done on the board locks over a later activity entry", func(t *testing.T) {
		entries := []model.ProjectStatusEntry{boardEntry("Done", "2024-05-01T10:00:00Z")}
		events := []model.ActivityStatusEvent{activityEvent(t, model.StatusTodo, "2024-05-02T10:00:00Z")}

		info := application.ResolveItemStatusInfo(entries, testProject, events)

		assert.True(t, info.Locked)
		assert.Equal(t, model.StatusDone, info.DisplayStatus)
		assert.Equal(t, model.SourceTodoProject, info.Source)
	})

	t.Run("pending locks", func(t *testing.T) {
		entries := []model.ProjectStatusEntry{boardEntry("Pending triage", "2024-05-01T10:00:00Z")}

		info := application.ResolveItemStatusInfo(entries, testProject, nil)

		assert.True(t, info.Locked)
		assert.Equal(t, model.StatusPending, info.DisplayStatus)
	})

	t.Run("canceled does not lock", func(t *testing.T) {
		entries := []model.ProjectStatusEntry{boardEntry("Cancelled", "2024-05-01T10:00:00Z")}
		events := []model.ActivityStatusEvent{activityEvent(t, model.StatusTodo, "2024-05-02T10:00:00Z")}

		info := application.ResolveItemStatusInfo(entries, testProject, events)

		assert.False(t, info.Locked)
		assert.Equal(t, model.StatusTodo, info.DisplayStatus)
		assert.Equal(t, model.SourceActivity, info.Source)
	})

	t.Run("todo on the board does not lock", func(t *testing.T) {
		entries := []model.ProjectStatusEntry{boardEntry("Todo", "2024-05-03T10:00:00Z")}
		events := []model.ActivityStatusEvent{activityEvent(t, model.StatusInProgress, "2024-05-01T10:00:00Z")}

		info := application.ResolveItemStatusInfo(entries, testProject, events)

		assert.False(t, info.Locked)
		// Board entry is newer, so it still wins on recency.
		assert.Equal(t, model.StatusTodo, info.DisplayStatus)
		assert.Equal(t, model.SourceTodoProject, info.Source)
	})
}

func TestResolveItemStatusInfo_Recency(t *testing.T) {
	t.Run("more recent side wins when unlocked", func(t *testing.T) {
		entries := []model.ProjectStatusEntry{boardEntry("Todo", "2024-05-01T10:00:00Z")}
		events := []model.ActivityStatusEvent{activityEvent(t, model.StatusInProgress, "2024-05-02T10:00:00Z")}

		info := application.ResolveItemStatusInfo(entries, testProject, events)

		assert.Equal(t, model.StatusInProgress, info.DisplayStatus)
		assert.Equal(t, model.SourceActivity, info.Source)
	})

	t.Run("exact tie favors activity", func(t *testing.T) {
		entries := []model.ProjectStatusEntry{boardEntry("Todo", "2024-05-01T10:00:00Z")}
		events := []model.ActivityStatusEvent{activityEvent(t, model.StatusInProgress, "2024-05-01T10:00:00Z")}

		info := application.ResolveItemStatusInfo(entries, testProject, events)

		assert.Equal(t, model.StatusInProgress, info.DisplayStatus)
		assert.Equal(t, model.SourceActivity, info.Source)
	})

	t.Run("only board present", func(t *testing.T) {
		entries := []model.ProjectStatusEntry{boardEntry("Todo", "2024-05-01T10:00:00Z")}

		info := application.ResolveItemStatusInfo(entries, testProject, nil)

		assert.Equal(t, model.StatusTodo, info.DisplayStatus)
		assert.Equal(t, model.SourceTodoProject, info.Source)
	})

	t.Run("neither present", func(t *testing.T) {
		info := application.ResolveItemStatusInfo(nil, testProject, nil)

		assert.Equal(t, model.StatusNone, info.DisplayStatus)
		assert.Equal(t, model.SourceNone, info.Source)
		assert.Equal(t, model.SourceNone, info.TimelineSource)
		assert.False(t, info.Locked)
	})
}

func TestResolveItemStatusInfo_MalformedEntries(t *testing.T) {
	entries := []model.ProjectStatusEntry{
		{ProjectTitle: "Other Project", Status: "Done", OccurredAt: "2024-05-09T10:00:00Z"},
		{ProjectTitle: testProject, Status: "In Progress", OccurredAt: "not a timestamp"},
		{ProjectTitle: testProject, Status: "Todo", OccurredAt: "2024-05-01T10:00:00Z"},
	}

	info := application.ResolveItemStatusInfo(entries, testProject, nil)

	// The Done entry belongs to another project and the In Progress entry has
	// a broken timestamp; only the Todo entry survives.
	assert.Equal(t, model.StatusTodo, info.TodoStatus)
	assert.False(t, info.Locked)
}

func TestResolveItemStatusInfo_ProjectTitleNormalization(t *testing.T) {
	entries := []model.ProjectStatusEntry{
		{ProjectTitle: "  platform-roadmap  ", Status: "In Progress", OccurredAt: "2024-05-01T10:00:00Z"},
	}

	info := application.ResolveItemStatusInfo(entries, testProject, nil)

	assert.Equal(t, model.StatusInProgress, info.TodoStatus)
	assert.True(t, info.Locked)
}

func TestResolveItemStatusInfo_UnorderedBoardHistory(t *testing.T) {
	entries := []model.ProjectStatusEntry{
		boardEntry("Done", "2024-05-05T10:00:00Z"),
		boardEntry("Todo", "2024-05-01T10:00:00Z"),
		boardEntry("In Progress", "2024-05-03T10:00:00Z"),
	}

	info := application.ResolveItemStatusInfo(entries, testProject, nil)

	require.NotNil(t, info.TodoStatusAt)
	assert.Equal(t, model.StatusDone, info.TodoStatus)
	assert.Equal(t, "2024-05-05T10:00:00Z", info.TodoStatusAt.Format(time.RFC3339))

	// Replaying the sorted history yields start and completion timestamps.
	require.NotNil(t, info.StartedAt)
	require.NotNil(t, info.CompletedAt)
	assert.Equal(t, "2024-05-03T10:00:00Z", info.StartedAt.Format(time.RFC3339))
	assert.Equal(t, "2024-05-05T10:00:00Z", info.CompletedAt.Format(time.RFC3339))
}

func TestResolveWorkTimestamps(t *testing.T) {
	at := func(value string) time.Time {
		parsed, err := time.Parse(time.RFC3339, value)
		require.NoError(t, err)
		return parsed
	}

	t1 := at("2024-05-01T09:00:00Z")
	t2 := at("2024-05-03T17:00:00Z")
	t3 := at("2024-05-06T09:00:00Z")

	t.Run("start then complete", func(t *testing.T) {
		started, completed := application.ResolveWorkTimestamps([]application.TimelineEvent{
			{Status: model.StatusInProgress, At: t1},
			{Status: model.StatusDone, At: t2},
		})

		require.NotNil(t, started)
		require.NotNil(t, completed)
		assert.Equal(t, t1, *started)
		assert.Equal(t, t2, *completed)
	})

	t.Run("reopening voids both", func(t *testing.T) {
		started, completed := application.ResolveWorkTimestamps([]application.TimelineEvent{
			{Status: model.StatusInProgress, At: t1},
			{Status: model.StatusDone, At: t2},
			{Status: model.StatusTodo, At: t3},
		})

		assert.Nil(t, started)
		assert.Nil(t, completed)
	})

	t.Run("completion without a start is ignored", func(t *testing.T) {
		started, completed := application.ResolveWorkTimestamps([]application.TimelineEvent{
			{Status: model.StatusDone, At: t1},
		})

		assert.Nil(t, started)
		assert.Nil(t, completed)
	})

	t.Run("first completion wins", func(t *testing.T) {
		started, completed := application.ResolveWorkTimestamps([]application.TimelineEvent{
			{Status: model.StatusInProgress, At: t1},
			{Status: model.StatusDone, At: t2},
			{Status: model.StatusCanceled, At: t3},
		})

		require.NotNil(t, completed)
		assert.Equal(t, t2, *completed)
		require.NotNil(t, started)
		assert.Equal(t, t1, *started)
	})

	t.Run("pending leaves both untouched", func(t *testing.T) {
		started, completed := application.ResolveWorkTimestamps([]application.TimelineEvent{
			{Status: model.StatusInProgress, At: t1},
			{Status: model.StatusPending, At: t2},
		})

		require.NotNil(t, started)
		assert.Equal(t, t1, *started)
		assert.Nil(t, completed)
	})

	t.Run("repeated status is a no-op", func(t *testing.T) {
		started, _ := application.ResolveWorkTimestamps([]application.TimelineEvent{
			{Status: model.StatusInProgress, At: t1},
			{Status: model.StatusInProgress, At: t2},
		})

		require.NotNil(t, started)
		assert.Equal(t, t1, *started)
	})

	t.Run("empty timeline", func(t *testing.T) {
		started, completed := application.ResolveWorkTimestamps(nil)
		assert.Nil(t, started)
		assert.Nil(t, completed)
	})
}
