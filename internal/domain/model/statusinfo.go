package model

import "time"

// ItemStatusInfo is the reconciled view of an item's two status timelines.
// It is a transient model recomputed from the timelines on every read and is
// never persisted, so it cannot go stale independently of its inputs.
type ItemStatusInfo struct {
	// TodoStatus is the latest project board status for the target project,
	// mapped into the canonical vocabulary. TodoStatusAt is nil when the
	// board history has no usable entry.
	TodoStatus   ActivityStatus
	TodoStatusAt *time.Time

	// ActivityStatus is the latest locally-recorded status.
	ActivityStatus   ActivityStatus
	ActivityStatusAt *time.Time

	// DisplayStatus is the single authoritative status shown to readers.
	DisplayStatus ActivityStatus
	Source        StatusSource

	// Locked is true when the project board shows substantive progress
	// (in_progress, done, or pending) and therefore overrides any local
	// status. Manual status changes must be rejected while locked.
	Locked bool

	// TimelineSource names the timeline that work timestamps are derived
	// from. It can differ from Source when the winning side has no history.
	TimelineSource StatusSource

	StartedAt   *time.Time
	CompletedAt *time.Time
}

// HasStarted returns true once work has begun and not been voided by a reopen.
func (i ItemStatusInfo) HasStarted() bool {
	return i.StartedAt != nil
}
