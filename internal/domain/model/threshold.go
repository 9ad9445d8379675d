package model

import "fmt"

// Thresholds holds the attention threshold configuration, one business-day
// count per attention kind. All values must be positive.
type Thresholds struct {
	BacklogIssueDays      int
	StalePRDays           int
	UnansweredMentionDays int
	StalledInProgressDays int
}

// MinMentionDays is the hard floor for the unanswered-mention threshold.
// The classifier never fires that flag below this age regardless of the
// configured value, as a safety minimum against false positives on
// fast-moving threads.
const MinMentionDays = 5

// DefaultThresholds returns the hard-coded defaults used when no settings
// rows exist in the database.
func DefaultThresholds() Thresholds {
	return Thresholds{
		BacklogIssueDays:      10,
		StalePRDays:           3,
		UnansweredMentionDays: 5,
		StalledInProgressDays: 5,
	}
}

// Validate rejects non-positive day counts. Threshold configuration is
// validated here at the boundary; the classifier assumes valid input.
func (t Thresholds) Validate() error {
	fields := []struct {
		name  string
		value int
	}{
		{"backlog_issue_days", t.BacklogIssueDays},
		{"stale_pr_days", t.StalePRDays},
		{"unanswered_mention_days", t.UnansweredMentionDays},
		{"stalled_in_progress_days", t.StalledInProgressDays},
	}

	for _, f := range fields {
		if f.value <= 0 {
			return fmt.Errorf("threshold %s must be positive, got %d", f.name, f.value)
		}
	}

	return nil
}
