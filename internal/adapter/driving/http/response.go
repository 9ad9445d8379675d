package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/workpanel/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// ItemResponse is the JSON representation of a work item with its derived
// status, ages, and attention flags.
type ItemResponse struct {
	ID             int64    `json:"id"`
	Repository     string   `json:"repository"`
	Number         int      `json:"number"`
	Kind           string   `json:"kind"`
	State          string   `json:"state"`
	Title          string   `json:"title"`
	Author         string   `json:"author"`
	URL            string   `json:"url"`
	Labels         []string `json:"labels"`
	OpenedAt       string   `json:"opened_at"`
	UpdatedAt      string   `json:"updated_at"`
	LastActivityAt string   `json:"last_activity_at"`
	ClosedAt       *string  `json:"closed_at,omitempty"`

	Status    StatusInfoResponse `json:"status"`
	Ages      AgesResponse       `json:"ages"`
	Attention AttentionResponse  `json:"attention"`

	// BodyHTML is the sanitized rendered markdown body. Populated only on the
	// single item detail endpoint.
	BodyHTML string `json:"body_html,omitempty"`
}

// StatusInfoResponse is the JSON representation of an item's reconciled status.
type StatusInfoResponse struct {
	DisplayStatus    string  `json:"display_status"`
	Source           string  `json:"source"`
	Locked           bool    `json:"locked"`
	TodoStatus       string  `json:"todo_status"`
	TodoStatusAt     *string `json:"todo_status_at,omitempty"`
	ActivityStatus   string  `json:"activity_status"`
	ActivityStatusAt *string `json:"activity_status_at,omitempty"`
	TimelineSource   string  `json:"timeline_source"`
	StartedAt        *string `json:"started_at,omitempty"`
	CompletedAt      *string `json:"completed_at,omitempty"`
}

// AgesResponse is the JSON representation of an item's business-time ages.
// Null fields mean the underlying timestamp is missing.
type AgesResponse struct {
	BusinessDaysOpen          *int `json:"business_days_open"`
	BusinessDaysSinceActivity *int `json:"business_days_since_activity"`
	BusinessDaysSinceMention  *int `json:"business_days_since_mention"`
	BusinessDaysInProgress    *int `json:"business_days_in_progress"`
}

// AttentionResponse is the JSON representation of an item's attention flags.
type AttentionResponse struct {
	BacklogIssue      bool `json:"backlog_issue"`
	StalePR           bool `json:"stale_pr"`
	UnansweredMention bool `json:"unanswered_mention"`
	StalledInProgress bool `json:"stalled_in_progress"`
	Severity          int  `json:"severity"`
}

// ThresholdsResponse is the JSON representation of the attention threshold
// configuration. It doubles as the PUT request body.
type ThresholdsResponse struct {
	BacklogIssueDays      int `json:"backlog_issue_days"`
	StalePRDays           int `json:"stale_pr_days"`
	UnansweredMentionDays int `json:"unanswered_mention_days"`
	StalledInProgressDays int `json:"stalled_in_progress_days"`
}

// ChangeStatusRequest is the JSON body for the status change endpoint.
type ChangeStatusRequest struct {
	Status string `json:"status"`
}

// FilterResponse is the JSON representation of a saved filter.
type FilterResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Query     string `json:"query"`
	CreatedAt string `json:"created_at"`
}

// CreateFilterRequest is the JSON body for the create filter endpoint.
type CreateFilterRequest struct {
	Name  string `json:"name"`
	Query string `json:"query"`
}

// RepoResponse is the JSON representation of a watched repository.
type RepoResponse struct {
	FullName string `json:"full_name"`
	Owner    string `json:"owner"`
	Name     string `json:"name"`
	AddedAt  string `json:"added_at"`
}

// AddRepoRequest is the JSON body for the add repository endpoint.
type AddRepoRequest struct {
	FullName string `json:"full_name"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// toItemResponse converts a domain WorkItem plus its derived views to the
// JSON response representation.
func toItemResponse(item model.WorkItem, info model.ItemStatusInfo, ages model.ItemAges, flags model.AttentionFlags) ItemResponse {
	labels := item.Labels
	if labels == nil {
		labels = []string{}
	}

	return ItemResponse{
		ID:             item.ID,
		Repository:     item.RepoFullName,
		Number:         item.Number,
		Kind:           string(item.Kind),
		State:          string(item.State),
		Title:          item.Title,
		Author:         item.Author,
		URL:            item.URL,
		Labels:         labels,
		OpenedAt:       item.OpenedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      item.UpdatedAt.UTC().Format(time.RFC3339),
		LastActivityAt: item.LastActivityAt.UTC().Format(time.RFC3339),
		ClosedAt:       formatTimePtr(item.ClosedAt),
		Status:         toStatusInfoResponse(info),
		Ages: AgesResponse{
			BusinessDaysOpen:          ages.BusinessDaysOpen,
			BusinessDaysSinceActivity: ages.BusinessDaysSinceActivity,
			BusinessDaysSinceMention:  ages.BusinessDaysSinceMention,
			BusinessDaysInProgress:    ages.BusinessDaysInProgress,
		},
		Attention: AttentionResponse{
			BacklogIssue:      flags.BacklogIssue,
			StalePR:           flags.StalePR,
			UnansweredMention: flags.UnansweredMention,
			StalledInProgress: flags.StalledInProgress,
			Severity:          flags.Severity(),
		},
	}
}

// toStatusInfoResponse converts a domain ItemStatusInfo to its JSON representation.
func toStatusInfoResponse(info model.ItemStatusInfo) StatusInfoResponse {
	return StatusInfoResponse{
		DisplayStatus:    string(info.DisplayStatus),
		Source:           string(info.Source),
		Locked:           info.Locked,
		TodoStatus:       string(info.TodoStatus),
		TodoStatusAt:     formatTimePtr(info.TodoStatusAt),
		ActivityStatus:   string(info.ActivityStatus),
		ActivityStatusAt: formatTimePtr(info.ActivityStatusAt),
		TimelineSource:   string(info.TimelineSource),
		StartedAt:        formatTimePtr(info.StartedAt),
		CompletedAt:      formatTimePtr(info.CompletedAt),
	}
}

// toThresholdsResponse converts domain Thresholds to the JSON representation.
func toThresholdsResponse(t model.Thresholds) ThresholdsResponse {
	return ThresholdsResponse{
		BacklogIssueDays:      t.BacklogIssueDays,
		StalePRDays:           t.StalePRDays,
		UnansweredMentionDays: t.UnansweredMentionDays,
		StalledInProgressDays: t.StalledInProgressDays,
	}
}

// toFilterResponse converts a domain SavedFilter to its JSON representation.
func toFilterResponse(f model.SavedFilter) FilterResponse {
	return FilterResponse{
		ID:        f.ID,
		Name:      f.Name,
		Query:     f.Query,
		CreatedAt: f.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// toRepoResponse converts a domain Repository to its JSON response representation.
func toRepoResponse(repo model.Repository) RepoResponse {
	return RepoResponse{
		FullName: repo.FullName,
		Owner:    repo.Owner,
		Name:     repo.Name,
		AddedAt:  repo.AddedAt.UTC().Format(time.RFC3339),
	}
}

// formatTimePtr formats an optional time as RFC3339, preserving nil.
func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
