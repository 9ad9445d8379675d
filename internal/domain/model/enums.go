package model

import "strings"

// WorkItemKind distinguishes the three mirrored GitHub item types.
type WorkItemKind string

const (
	KindIssue       WorkItemKind = "issue"
	KindPullRequest WorkItemKind = "pull_request"
	KindDiscussion  WorkItemKind = "discussion"
)

// WorkItemState represents the open/closed state of a mirrored item.
type WorkItemState string

const (
	StateOpen   WorkItemState = "open"
	StateClosed WorkItemState = "closed"
	StateMerged WorkItemState = "merged"
)

// ActivityStatus is the canonical work status vocabulary shared by both
// timelines. Project board statuses are mapped into it; activity events are
// recorded in it directly.
type ActivityStatus string

const (
	StatusNone       ActivityStatus = "no_status"
	StatusTodo       ActivityStatus = "todo"
	StatusInProgress ActivityStatus = "in_progress"
	StatusDone       ActivityStatus = "done"
	StatusPending    ActivityStatus = "pending"
	StatusCanceled   ActivityStatus = "canceled"
)

// ParseActivityStatus converts a string to an ActivityStatus.
// Returns StatusNone and false for anything outside the vocabulary.
func ParseActivityStatus(s string) (ActivityStatus, bool) {
	switch ActivityStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusNone:
		return StatusNone, true
	case StatusTodo:
		return StatusTodo, true
	case StatusInProgress:
		return StatusInProgress, true
	case StatusDone:
		return StatusDone, true
	case StatusPending:
		return StatusPending, true
	case StatusCanceled:
		return StatusCanceled, true
	default:
		return StatusNone, false
	}
}

// IsTerminal returns true for statuses that end a unit of work.
func (s ActivityStatus) IsTerminal() bool {
	return s == StatusDone || s == StatusCanceled
}

// StatusSource identifies which timeline produced the display status.
type StatusSource string

const (
	SourceTodoProject StatusSource = "todo_project"
	SourceActivity    StatusSource = "activity"
	SourceNone        StatusSource = "none"
)
