package model

import "time"

// WorkItem represents a mirrored GitHub issue, pull request, or discussion
// tracked by workpanel.
type WorkItem struct {
	ID           int64
	RepoFullName string
	Number       int
	Kind         WorkItemKind
	State        WorkItemState
	Title        string
	Author       string
	Body         string
	URL          string
	Labels       []string
	OpenedAt     time.Time
	UpdatedAt    time.Time

	// LastActivityAt is the most recent comment/commit/edit time observed
	// during sync. Used for staleness ages.
	LastActivityAt time.Time
	ClosedAt       *time.Time

	// ProjectStatusHistory is the observation log of the item's status on the
	// external project board. Written only by the sync layer; the status
	// resolver treats it as read-only input of variable quality.
	ProjectStatusHistory []ProjectStatusEntry

	// Mention bookkeeping maintained during sync. LastMentionAt is the newest
	// @-mention of the configured user; MentionAnsweredAt is the time of that
	// user's first comment after it, nil while the mention is unanswered.
	LastMentionAt     *time.Time
	MentionAnsweredAt *time.Time
}

// IsOpen returns true for items still awaiting work.
func (w WorkItem) IsOpen() bool {
	return w.State == StateOpen
}

// ProjectStatusEntry is one observed project board status for an item.
// OccurredAt is kept as the raw string delivered by sync; timestamps of
// variable quality are parsed leniently at resolve time, never here.
type ProjectStatusEntry struct {
	ProjectTitle string `json:"project_title"`
	Status       string `json:"status"`
	OccurredAt   string `json:"occurred_at"`
}

// MentionActivity is the transient result of a mention scan over an item's
// comments. Both fields may be nil.
type MentionActivity struct {
	LastMentionAt *time.Time
	AnsweredAt    *time.Time
}

// ActivityStatusEvent is one transition in the locally-recorded status
// timeline. Rows are append-only; reverting an item deletes the whole
// timeline rather than rewriting it.
type ActivityStatusEvent struct {
	ID         int64
	ItemID     int64
	Status     ActivityStatus
	OccurredAt time.Time
}
