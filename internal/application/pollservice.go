package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/ericfisherdev/workpanel/internal/domain/model"
	"github.com/ericfisherdev/workpanel/internal/domain/port/driven"
)

// refreshRequest represents a manual refresh trigger.
type refreshRequest struct {
	repoFullName string
	done         chan error
}

// PollService orchestrates periodic GitHub polling, item discovery, project
// board status observation, and persistence.
type PollService struct {
	ghClient  driven.GitHubClient
	itemStore driven.ItemStore
	repoStore driven.RepoStore
	interval  time.Duration
	refreshCh chan refreshRequest

	// schedules tracks per-repository adaptive polling state. Accessed only
	// from the Start goroutine.
	schedules map[string]repoSchedule
}

// NewPollService creates a new PollService with all required dependencies.
// interval is the scheduler tick; actual per-repo poll frequency adapts to
// each repository's recent activity.
func NewPollService(
	ghClient driven.GitHubClient,
	itemStore driven.ItemStore,
	repoStore driven.RepoStore,
	interval time.Duration,
) *PollService {
	return &PollService{
		ghClient:  ghClient,
		itemStore: itemStore,
		repoStore: repoStore,
		interval:  interval,
		refreshCh: make(chan refreshRequest),
		schedules: make(map[string]repoSchedule),
	}
}

// Start begins the polling loop. It runs an immediate poll, then wakes on the
// configured interval and polls the repositories that are due. It also
// listens for manual refresh requests. Start blocks until the context is
// canceled.
func (s *PollService) Start(ctx context.Context) {
	if err := s.pollDue(ctx, true); err != nil {
		slog.Error("initial poll failed", "error", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("poll service stopped")
			return
		case <-ticker.C:
			if err := s.pollDue(ctx, false); err != nil {
				slog.Error("poll cycle failed", "error", err)
			}
		case req := <-s.refreshCh:
			req.done <- s.handleRefresh(ctx, req)
		}
	}
}

// RefreshRepo triggers a manual refresh for a specific repository, bypassing
// the adaptive schedule. It blocks until the refresh completes or the context
// is canceled.
func (s *PollService) RefreshRepo(ctx context.Context, repoFullName string) error {
	done := make(chan error, 1)
	req := refreshRequest{repoFullName: repoFullName, done: done}

	select {
	case s.refreshCh <- req:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// pollDue polls every watched repository whose adaptive schedule says it is
// due. force bypasses the schedule for all repositories.
func (s *PollService) pollDue(ctx context.Context, force bool) error {
	start := time.Now()

	repos, err := s.repoStore.ListAll(ctx)
	if err != nil {
		return err
	}

	var polled, pollErrors int
	for _, repo := range repos {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if sched, ok := s.schedules[repo.FullName]; ok && !force && time.Now().Before(sched.nextPollAt) {
			continue
		}

		polled++
		if err := s.pollRepo(ctx, repo.FullName); err != nil {
			slog.Error("repo poll failed", "repo", repo.FullName, "error", err)
			pollErrors++
		}
		s.reschedule(ctx, repo.FullName)
	}

	slog.Info("poll cycle complete",
		"repos", len(repos),
		"polled", polled,
		"errors", pollErrors,
		"duration", time.Since(start).Round(time.Millisecond),
	)

	return nil
}

// reschedule recomputes a repository's activity tier from its stored items
// and sets the next poll time accordingly.
func (s *PollService) reschedule(ctx context.Context, repoFullName string) {
	items, err := s.itemStore.GetByRepository(ctx, repoFullName)
	if err != nil {
		slog.Warn("reschedule: failed to load items", "repo", repoFullName, "error", err)
		items = nil
	}

	now := time.Now()
	tier := classifyActivity(freshestActivity(items))
	s.schedules[repoFullName] = repoSchedule{
		tier:       tier,
		lastPolled: now,
		nextPollAt: now.Add(tierInterval(tier)),
	}

	slog.Debug("repo rescheduled", "repo", repoFullName, "tier", tier.String())
}

// pollRepo is the core item discovery logic for a single repository.
func (s *PollService) pollRepo(ctx context.Context, repoFullName string) error {
	issues, err := s.ghClient.FetchIssues(ctx, repoFullName)
	if err != nil {
		return err
	}

	prs, err := s.ghClient.FetchPullRequests(ctx, repoFullName)
	if err != nil {
		return err
	}

	// Discussions require GraphQL and may be disabled on the repository;
	// a failure here degrades to issues and PRs only.
	discussions, err := s.ghClient.FetchDiscussions(ctx, repoFullName)
	if err != nil {
		slog.Warn("fetch discussions failed", "repo", repoFullName, "error", err)
		discussions = nil
	}

	fetched := make([]model.WorkItem, 0, len(issues)+len(prs)+len(discussions))
	fetched = append(fetched, issues...)
	fetched = append(fetched, prs...)
	fetched = append(fetched, discussions...)

	stored, err := s.itemStore.GetByRepository(ctx, repoFullName)
	if err != nil {
		return err
	}

	type itemKey struct {
		kind   model.WorkItemKind
		number int
	}

	storedByKey := make(map[itemKey]model.WorkItem, len(stored))
	for _, si := range stored {
		storedByKey[itemKey{si.Kind, si.Number}] = si
	}

	fetchedKeys := make(map[itemKey]bool, len(fetched))
	var skippedUnchanged int

	for _, item := range fetched {
		key := itemKey{item.Kind, item.Number}
		fetchedKeys[key] = true

		prev, known := storedByKey[key]
		if known {
			// Sync-owned bookkeeping survives across polls.
			item.ID = prev.ID
			item.ProjectStatusHistory = prev.ProjectStatusHistory
			item.LastMentionAt = prev.LastMentionAt
			item.MentionAnsweredAt = prev.MentionAnsweredAt

			if prev.UpdatedAt.Equal(item.UpdatedAt) {
				skippedUnchanged++
				continue
			}
		}

		s.observeProjectStatus(ctx, &item)
		s.observeMentions(ctx, &item)

		if err := s.itemStore.Upsert(ctx, item); err != nil {
			slog.Error("upsert failed", "repo", repoFullName, "kind", string(item.Kind), "number", item.Number, "error", err)
		}
	}

	var cleanedUp int
	for _, si := range stored {
		if !fetchedKeys[itemKey{si.Kind, si.Number}] && si.State == model.StateOpen {
			if err := s.itemStore.Delete(ctx, repoFullName, si.Kind, si.Number); err != nil {
				slog.Error("stale cleanup failed", "repo", repoFullName, "kind", string(si.Kind), "number", si.Number, "error", err)
			} else {
				cleanedUp++
			}
		}
	}

	slog.Info("repo polled",
		"repo", repoFullName,
		"fetched", len(fetched),
		"skipped_unchanged", skippedUnchanged,
		"cleaned_up", cleanedUp,
	)

	return nil
}

// observeProjectStatus fetches the item's current project board status and
// appends an entry to the embedded observation log when it differs from the
// last recorded one. The log is append-only; entries are never rewritten.
// Failures are non-fatal: the item simply keeps its existing history.
func (s *PollService) observeProjectStatus(ctx context.Context, item *model.WorkItem) {
	if item.Kind == model.KindDiscussion {
		return // Discussions cannot be placed on project boards.
	}

	current, err := s.ghClient.FetchProjectStatus(ctx, item.RepoFullName, item.Kind, item.Number)
	if err != nil {
		slog.Warn("fetch project status failed", "repo", item.RepoFullName, "number", item.Number, "error", err)
		return
	}
	if current == nil {
		return
	}

	if n := len(item.ProjectStatusHistory); n > 0 {
		last := item.ProjectStatusHistory[n-1]
		if last.ProjectTitle == current.ProjectTitle && last.Status == current.Status {
			return
		}
	}

	item.ProjectStatusHistory = append(item.ProjectStatusHistory, *current)
}

// observeMentions refreshes the item's mention bookkeeping. Failures are
// non-fatal and leave the previous values in place.
func (s *PollService) observeMentions(ctx context.Context, item *model.WorkItem) {
	if item.Kind == model.KindDiscussion {
		return
	}

	activity, err := s.ghClient.FetchMentionActivity(ctx, item.RepoFullName, item.Number)
	if err != nil {
		slog.Warn("fetch mention activity failed", "repo", item.RepoFullName, "number", item.Number, "error", err)
		return
	}
	if activity == nil {
		return
	}

	item.LastMentionAt = activity.LastMentionAt
	item.MentionAnsweredAt = activity.AnsweredAt
}

// handleRefresh dispatches a manual refresh request.
func (s *PollService) handleRefresh(ctx context.Context, req refreshRequest) error {
	if req.repoFullName != "" {
		err := s.pollRepo(ctx, req.repoFullName)
		s.reschedule(ctx, req.repoFullName)
		return err
	}
	return s.pollDue(ctx, true)
}
