// Package github implements the GitHubClient port using the go-github library.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/ericfisherdev/workpanel/internal/domain/model"
	"github.com/ericfisherdev/workpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.GitHubClient = (*Client)(nil)

// Client implements the driven.GitHubClient port using the go-github library.
type Client struct {
	gh          *gh.Client
	username    string
	token       string // Stored for GraphQL Authorization header.
	graphqlURL  string // "https://api.github.com/graphql" in production; derived from baseURL in tests.
	graphqlHTTP *http.Client
}

// NewClient creates a new GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client with PAT auth)
func NewClient(token, username string) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient).WithAuthToken(token)

	return &Client{
		gh:          client,
		username:    username,
		token:       token,
		graphqlURL:  "https://api.github.com/graphql",
		graphqlHTTP: &http.Client{Timeout: 30 * time.Second},
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, username, token string) (*Client, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	// Derive graphqlURL from baseURL so httptest servers can intercept GraphQL requests.
	graphqlU := *u
	graphqlU.Path = "/graphql"

	return &Client{
		gh:          client,
		username:    username,
		token:       token,
		graphqlURL:  graphqlU.String(),
		graphqlHTTP: httpClient,
	}, nil
}

// FetchIssues retrieves open issues for the given repository, excluding pull
// requests (the Issues API returns both). It handles pagination automatically
// and maps go-github types to domain model types.
func (c *Client) FetchIssues(ctx context.Context, repoFullName string) ([]model.WorkItem, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	opts := &gh.IssueListByRepoOptions{
		State:     "open",
		Sort:      "updated",
		Direction: "desc",
		ListOptions: gh.ListOptions{
			PerPage: 100,
		},
	}

	var items []model.WorkItem

	for {
		issues, resp, err := c.gh.Issues.ListByRepo(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("listing issues for %s (page %d): %w", repoFullName, opts.ListOptions.Page, err)
		}

		logRateLimit(resp, repoFullName+"/issues", opts.ListOptions.Page, len(issues))

		for _, issue := range issues {
			if issue.IsPullRequest() {
				continue
			}
			items = append(items, mapIssue(issue, repoFullName))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.ListOptions.Page = resp.NextPage
	}

	if items == nil {
		items = []model.WorkItem{}
	}

	return items, nil
}

// FetchPullRequests retrieves open pull requests for the given repository.
// It handles pagination automatically and maps go-github types to domain model types.
func (c *Client) FetchPullRequests(ctx context.Context, repoFullName string) ([]model.WorkItem, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	opts := &gh.PullRequestListOptions{
		State:     "open",
		Sort:      "updated",
		Direction: "desc",
		ListOptions: gh.ListOptions{
			PerPage: 100,
		},
	}

	var items []model.WorkItem

	for {
		prs, resp, err := c.gh.PullRequests.List(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("listing pull requests for %s (page %d): %w", repoFullName, opts.Page, err)
		}

		logRateLimit(resp, repoFullName+"/pulls", opts.Page, len(prs))

		for _, pr := range prs {
			items = append(items, mapPullRequest(pr, repoFullName))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	if items == nil {
		items = []model.WorkItem{}
	}

	return items, nil
}

// FetchMentionActivity scans an item's comments for @-mentions of the
// configured username. It returns the newest mention time and the time of the
// user's first own comment after that mention, or nil if the user was never
// mentioned. The item body counts as a potential mention source too.
func (c *Client) FetchMentionActivity(ctx context.Context, repoFullName string, number int) (*model.MentionActivity, error) {
	if c.username == "" {
		return nil, nil
	}

	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	opts := &gh.IssueListCommentsOptions{
		ListOptions: gh.ListOptions{PerPage: 100},
	}

	mention := "@" + strings.ToLower(c.username)
	var lastMentionAt *time.Time
	var answeredAt *time.Time

	for {
		comments, resp, err := c.gh.Issues.ListComments(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("listing comments for %s#%d (page %d): %w", repoFullName, number, opts.Page, err)
		}

		logRateLimit(resp, repoFullName+"/comments", opts.Page, len(comments))

		// Comments arrive oldest-first, so a single pass finds the newest
		// mention and resets the answer marker whenever a newer mention appears.
		for _, comment := range comments {
			created := comment.GetCreatedAt().Time
			author := strings.ToLower(comment.GetUser().GetLogin())

			if author != strings.ToLower(c.username) && strings.Contains(strings.ToLower(comment.GetBody()), mention) {
				t := created
				lastMentionAt = &t
				answeredAt = nil
				continue
			}

			if lastMentionAt != nil && answeredAt == nil && author == strings.ToLower(c.username) && created.After(*lastMentionAt) {
				t := created
				answeredAt = &t
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	if lastMentionAt == nil {
		return nil, nil
	}

	return &model.MentionActivity{
		LastMentionAt: lastMentionAt,
		AnsweredAt:    answeredAt,
	}, nil
}

// mapIssue converts a go-github Issue to a domain model WorkItem.
// It uses GetXxx() helper methods exclusively to avoid nil pointer panics.
func mapIssue(issue *gh.Issue, repoFullName string) model.WorkItem {
	state := model.StateOpen
	if issue.GetState() == "closed" {
		state = model.StateClosed
	}

	labels := make([]string, 0, len(issue.Labels))
	for _, l := range issue.Labels {
		labels = append(labels, l.GetName())
	}

	var closedAt *time.Time
	if issue.ClosedAt != nil {
		t := issue.GetClosedAt().Time
		closedAt = &t
	}

	return model.WorkItem{
		RepoFullName:   repoFullName,
		Number:         issue.GetNumber(),
		Kind:           model.KindIssue,
		State:          state,
		Title:          issue.GetTitle(),
		Author:         issue.GetUser().GetLogin(),
		Body:           issue.GetBody(),
		URL:            issue.GetHTMLURL(),
		Labels:         labels,
		OpenedAt:       issue.GetCreatedAt().Time,
		UpdatedAt:      issue.GetUpdatedAt().Time,
		LastActivityAt: issue.GetUpdatedAt().Time,
		ClosedAt:       closedAt,
	}
}

// mapPullRequest converts a go-github PullRequest to a domain model WorkItem.
func mapPullRequest(pr *gh.PullRequest, repoFullName string) model.WorkItem {
	state := model.StateOpen
	if !pr.GetMergedAt().IsZero() {
		state = model.StateMerged
	} else if pr.GetState() == "closed" {
		state = model.StateClosed
	}

	labels := make([]string, 0, len(pr.Labels))
	for _, l := range pr.Labels {
		labels = append(labels, l.GetName())
	}

	var closedAt *time.Time
	if pr.ClosedAt != nil {
		t := pr.GetClosedAt().Time
		closedAt = &t
	}

	return model.WorkItem{
		RepoFullName:   repoFullName,
		Number:         pr.GetNumber(),
		Kind:           model.KindPullRequest,
		State:          state,
		Title:          pr.GetTitle(),
		Author:         pr.GetUser().GetLogin(),
		Body:           pr.GetBody(),
		URL:            pr.GetHTMLURL(),
		Labels:         labels,
		OpenedAt:       pr.GetCreatedAt().Time,
		UpdatedAt:      pr.GetUpdatedAt().Time,
		LastActivityAt: pr.GetUpdatedAt().Time,
		ClosedAt:       closedAt,
	}
}

// logRateLimit logs the GitHub API rate limit status after each call.
func logRateLimit(resp *gh.Response, endpoint string, page, count int) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"page", page,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Remaining < 100 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}

// splitRepo splits a "owner/repo" string into its two components.
func splitRepo(fullName string) (string, string, error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo name %q: expected owner/repo", fullName)
	}
	return parts[0], parts[1], nil
}
