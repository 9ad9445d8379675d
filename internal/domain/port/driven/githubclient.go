package driven

import (
	"context"

	"github.com/ericfisherdev/workpanel/internal/domain/model"
)

// GitHubClient defines the driven port for fetching mirrored data from GitHub.
type GitHubClient interface {
	// FetchIssues retrieves issues (excluding pull requests) for a repository.
	FetchIssues(ctx context.Context, repoFullName string) ([]model.WorkItem, error)

	// FetchPullRequests retrieves pull requests for a repository.
	FetchPullRequests(ctx context.Context, repoFullName string) ([]model.WorkItem, error)

	// FetchDiscussions retrieves discussions for a repository via GraphQL.
	FetchDiscussions(ctx context.Context, repoFullName string) ([]model.WorkItem, error)

	// FetchProjectStatus returns the item's current status on the project
	// board it belongs to, or nil if the item is on no board. The entry's
	// occurred-at is the raw timestamp string reported by the API.
	FetchProjectStatus(ctx context.Context, repoFullName string, kind model.WorkItemKind, number int) (*model.ProjectStatusEntry, error)

	// FetchMentionActivity scans an item's comments for @-mentions of the
	// configured user and reports the newest mention plus the user's first
	// reply after it, if any.
	FetchMentionActivity(ctx context.Context, repoFullName string, number int) (*model.MentionActivity, error)
}
