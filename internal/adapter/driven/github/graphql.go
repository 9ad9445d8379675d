package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ericfisherdev/workpanel/internal/domain/model"
)

const discussionsQuery = `query($owner: String!, $repo: String!, $cursor: String) {
	repository(owner: $owner, name: $repo) {
		discussions(first: 100, after: $cursor, orderBy: {field: UPDATED_AT, direction: DESC}) {
			pageInfo {
				hasNextPage
				endCursor
			}
			nodes {
				number
				title
				body
				url
				createdAt
				updatedAt
				closed
				closedAt
				author { login }
				labels(first: 20) {
					nodes { name }
				}
			}
		}
	}
}`

const issueProjectStatusQuery = `query($owner: String!, $repo: String!, $number: Int!) {
	repository(owner: $owner, name: $repo) {
		issue(number: $number) {
			projectItems(first: 10) {
				nodes {
					project { title }
					fieldValueByName(name: "Status") {
						... on ProjectV2ItemFieldSingleSelectValue {
							name
							updatedAt
						}
					}
				}
			}
		}
	}
}`

const prProjectStatusQuery = `query($owner: String!, $repo: String!, $number: Int!) {
	repository(owner: $owner, name: $repo) {
		pullRequest(number: $number) {
			projectItems(first: 10) {
				nodes {
					project { title }
					fieldValueByName(name: "Status") {
						... on ProjectV2ItemFieldSingleSelectValue {
							name
							updatedAt
						}
					}
				}
			}
		}
	}
}`

// graphqlRequest is the JSON body sent to the GitHub GraphQL API.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// discussionNode is one discussion as returned by the GraphQL API.
type discussionNode struct {
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	URL       string     `json:"url"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	Closed    bool       `json:"closed"`
	ClosedAt  *time.Time `json:"closedAt"`
	Author    struct {
		Login string `json:"login"`
	} `json:"author"`
	Labels struct {
		Nodes []struct {
			Name string `json:"name"`
		} `json:"nodes"`
	} `json:"labels"`
}

// discussionsResponse represents the expected shape of a GitHub GraphQL
// response for the discussions query.
type discussionsResponse struct {
	Data struct {
		Repository struct {
			Discussions struct {
				PageInfo struct {
					HasNextPage bool   `json:"hasNextPage"`
					EndCursor   string `json:"endCursor"`
				} `json:"pageInfo"`
				Nodes []discussionNode `json:"nodes"`
			} `json:"discussions"`
		} `json:"repository"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// projectItemsConnection is the projectItems portion of a project status query
// response, shared by the issue and pull request variants.
type projectItemsConnection struct {
	ProjectItems struct {
		Nodes []struct {
			Project struct {
				Title string `json:"title"`
			} `json:"project"`
			FieldValueByName struct {
				Name      string `json:"name"`
				UpdatedAt string `json:"updatedAt"`
			} `json:"fieldValueByName"`
		} `json:"nodes"`
	} `json:"projectItems"`
}

// projectStatusResponse represents the expected shape of a GitHub GraphQL
// response for the project status queries. Only one of Issue or PullRequest
// is populated, depending on which query was sent.
type projectStatusResponse struct {
	Data struct {
		Repository struct {
			Issue       *projectItemsConnection `json:"issue"`
			PullRequest *projectItemsConnection `json:"pullRequest"`
		} `json:"repository"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// FetchDiscussions retrieves discussions for a repository via the GraphQL API
// (discussions have no REST listing endpoint). It paginates by cursor and maps
// nodes to domain model WorkItems.
func (c *Client) FetchDiscussions(ctx context.Context, repoFullName string) ([]model.WorkItem, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	items := []model.WorkItem{}
	var cursor *string

	for {
		reqBody := graphqlRequest{
			Query: discussionsQuery,
			Variables: map[string]any{
				"owner":  owner,
				"repo":   repo,
				"cursor": cursor,
			},
		}

		var gqlResp discussionsResponse
		if err := c.doGraphQL(ctx, reqBody, &gqlResp); err != nil {
			return nil, fmt.Errorf("listing discussions for %s: %w", repoFullName, err)
		}
		if len(gqlResp.Errors) > 0 {
			return nil, fmt.Errorf("listing discussions for %s: %s", repoFullName, gqlResp.Errors[0].Message)
		}

		conn := gqlResp.Data.Repository.Discussions
		for _, node := range conn.Nodes {
			items = append(items, mapDiscussion(node, repoFullName))
		}

		if !conn.PageInfo.HasNextPage {
			break
		}
		next := conn.PageInfo.EndCursor
		cursor = &next
	}

	return items, nil
}

// FetchProjectStatus queries the item's current ProjectV2 board membership and
// the value of the board's "Status" single-select field. It returns nil when
// the item is on no board or the board carries no Status field. The entry's
// OccurredAt is the raw updatedAt string from the API, preserved untouched for
// lenient parsing downstream.
func (c *Client) FetchProjectStatus(ctx context.Context, repoFullName string, kind model.WorkItemKind, number int) (*model.ProjectStatusEntry, error) {
	if kind == model.KindDiscussion {
		return nil, nil // Discussions cannot be placed on project boards.
	}

	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	query := issueProjectStatusQuery
	if kind == model.KindPullRequest {
		query = prProjectStatusQuery
	}

	reqBody := graphqlRequest{
		Query: query,
		Variables: map[string]any{
			"owner":  owner,
			"repo":   repo,
			"number": number,
		},
	}

	var gqlResp projectStatusResponse
	if err := c.doGraphQL(ctx, reqBody, &gqlResp); err != nil {
		return nil, fmt.Errorf("fetching project status for %s#%d: %w", repoFullName, number, err)
	}
	if len(gqlResp.Errors) > 0 {
		return nil, fmt.Errorf("fetching project status for %s#%d: %s", repoFullName, number, gqlResp.Errors[0].Message)
	}

	conn := gqlResp.Data.Repository.Issue
	if kind == model.KindPullRequest {
		conn = gqlResp.Data.Repository.PullRequest
	}
	if conn == nil {
		return nil, nil
	}

	for _, node := range conn.ProjectItems.Nodes {
		if node.FieldValueByName.Name == "" {
			continue
		}
		return &model.ProjectStatusEntry{
			ProjectTitle: node.Project.Title,
			Status:       node.FieldValueByName.Name,
			OccurredAt:   node.FieldValueByName.UpdatedAt,
		}, nil
	}

	return nil, nil
}

// doGraphQL posts a GraphQL request and decodes the response into out.
func (c *Client) doGraphQL(ctx context.Context, reqBody graphqlRequest, out any) error {
	if c.token == "" {
		return fmt.Errorf("graphql requests require a GitHub token")
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshaling graphql request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("creating graphql request: %w", err)
	}
	httpReq.Header.Set("Authorization", fmt.Sprintf("bearer %s", c.token))
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.graphqlHTTP.Do(httpReq)
	if err != nil {
		return fmt.Errorf("graphql request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("graphql request: HTTP %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding graphql response: %w", err)
	}

	return nil
}

// mapDiscussion converts a GraphQL discussion node to a domain model WorkItem.
func mapDiscussion(node discussionNode, repoFullName string) model.WorkItem {
	state := model.StateOpen
	if node.Closed {
		state = model.StateClosed
	}

	labels := make([]string, 0, len(node.Labels.Nodes))
	for _, l := range node.Labels.Nodes {
		labels = append(labels, l.Name)
	}

	return model.WorkItem{
		RepoFullName:   repoFullName,
		Number:         node.Number,
		Kind:           model.KindDiscussion,
		State:          state,
		Title:          node.Title,
		Author:         node.Author.Login,
		Body:           node.Body,
		URL:            node.URL,
		Labels:         labels,
		OpenedAt:       node.CreatedAt,
		UpdatedAt:      node.UpdatedAt,
		LastActivityAt: node.UpdatedAt,
		ClosedAt:       node.ClosedAt,
	}
}
