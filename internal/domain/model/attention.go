package model

// ItemAges holds the business-time ages an item is classified on. Each age is
// nil when its underlying timestamp is missing or unparseable, so that
// partially-synced data degrades to "no signal" rather than an error.
type ItemAges struct {
	BusinessDaysOpen          *int
	BusinessDaysSinceActivity *int
	BusinessDaysSinceMention  *int
	BusinessDaysInProgress    *int
}

// AttentionFlags is a transient model computed at query time from item ages
// and thresholds. Flags are independent; an item may carry several at once.
// It is never persisted to the database.
type AttentionFlags struct {
	BacklogIssue      bool // open issue, never started, open too long
	StalePR           bool // open PR with no recent activity
	UnansweredMention bool // @-mention of the user left unanswered
	StalledInProgress bool // in_progress but idle
}

// HasAny returns true if any attention flag is active.
func (a AttentionFlags) HasAny() bool {
	return a.BacklogIssue || a.StalePR || a.UnansweredMention || a.StalledInProgress
}

// Severity returns the count of active flags (0–4), used to determine
// highlight intensity in dashboard views.
func (a AttentionFlags) Severity() int {
	count := 0
	if a.BacklogIssue {
		count++
	}
	if a.StalePR {
		count++
	}
	if a.UnansweredMention {
		count++
	}
	if a.StalledInProgress {
		count++
	}
	return count
}
