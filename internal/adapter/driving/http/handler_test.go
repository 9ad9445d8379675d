package httphandler_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httphandler "github.com/ericfisherdev/workpanel/internal/adapter/driving/http"
	"github.com/ericfisherdev/workpanel/internal/application"
	"github.com/ericfisherdev/workpanel/internal/domain/businesscal"
	"github.com/ericfisherdev/workpanel/internal/domain/model"
)

// --- Mock implementations ---

type mockItemStore struct {
	items []model.WorkItem
	err   error
}

func (m *mockItemStore) Upsert(_ context.Context, _ model.WorkItem) error { return nil }
func (m *mockItemStore) GetByID(_ context.Context, id int64) (*model.WorkItem, error) {
	for _, item := range m.items {
		if item.ID == id {
			found := item
			return &found, nil
		}
	}
	return nil, m.err
}
func (m *mockItemStore) GetByRepoNumber(_ context.Context, repo string, kind model.WorkItemKind, number int) (*model.WorkItem, error) {
	for _, item := range m.items {
		if item.RepoFullName == repo && item.Kind == kind && item.Number == number {
			found := item
			return &found, nil
		}
	}
	return nil, m.err
}
func (m *mockItemStore) GetByRepository(_ context.Context, repo string) ([]model.WorkItem, error) {
	var out []model.WorkItem
	for _, item := range m.items {
		if item.RepoFullName == repo {
			out = append(out, item)
		}
	}
	return out, m.err
}
func (m *mockItemStore) ListAll(_ context.Context) ([]model.WorkItem, error) {
	return m.items, m.err
}
func (m *mockItemStore) ListByKind(_ context.Context, kind model.WorkItemKind) ([]model.WorkItem, error) {
	var out []model.WorkItem
	for _, item := range m.items {
		if item.Kind == kind {
			out = append(out, item)
		}
	}
	return out, m.err
}
func (m *mockItemStore) Delete(_ context.Context, _ string, _ model.WorkItemKind, _ int) error {
	return nil
}

type mockHistoryStore struct {
	events   map[int64][]model.ActivityStatusEvent
	appended []model.ActivityStatusEvent
	deleted  []int64
}

func (m *mockHistoryStore) Append(_ context.Context, event model.ActivityStatusEvent) error {
	m.appended = append(m.appended, event)
	event.ID = int64(len(m.events[event.ItemID]) + 1)
	m.events[event.ItemID] = append(m.events[event.ItemID], event)
	return nil
}
func (m *mockHistoryStore) ListByItem(_ context.Context, itemID int64) ([]model.ActivityStatusEvent, error) {
	return m.events[itemID], nil
}
func (m *mockHistoryStore) DeleteByItem(_ context.Context, itemID int64) error {
	m.deleted = append(m.deleted, itemID)
	return nil
}

type mockRepoStore struct {
	repos     []model.Repository
	addErr    error
	removeErr error
	added     []model.Repository
}

func (m *mockRepoStore) Add(_ context.Context, repo model.Repository) error {
	m.added = append(m.added, repo)
	return m.addErr
}
func (m *mockRepoStore) Remove(_ context.Context, _ string) error { return m.removeErr }
func (m *mockRepoStore) ListAll(_ context.Context) ([]model.Repository, error) {
	return m.repos, nil
}

type mockFilterStore struct {
	filters   []model.SavedFilter
	createErr error
	deleteErr error
}

func (m *mockFilterStore) Create(_ context.Context, filter model.SavedFilter) (int64, error) {
	if m.createErr != nil {
		return 0, m.createErr
	}
	filter.ID = int64(len(m.filters) + 1)
	m.filters = append(m.filters, filter)
	return filter.ID, nil
}
func (m *mockFilterStore) ListAll(_ context.Context) ([]model.SavedFilter, error) {
	return m.filters, nil
}
func (m *mockFilterStore) Delete(_ context.Context, _ int64) error { return m.deleteErr }

type mockThresholdStore struct {
	thresholds model.Thresholds
	stored     *model.Thresholds
}

func (m *mockThresholdStore) GetThresholds(_ context.Context) (model.Thresholds, error) {
	return m.thresholds, nil
}
func (m *mockThresholdStore) SetThresholds(_ context.Context, t model.Thresholds) error {
	m.stored = &t
	return nil
}

// --- Test helpers ---

const testProject = "Platform Roadmap"

type fixture struct {
	items      *mockItemStore
	history    *mockHistoryStore
	repos      *mockRepoStore
	filters    *mockFilterStore
	thresholds *mockThresholdStore
	mux        http.Handler
}

func newFixture(items []model.WorkItem) *fixture {
	f := &fixture{
		items:      &mockItemStore{items: items},
		history:    &mockHistoryStore{events: map[int64][]model.ActivityStatusEvent{}},
		repos:      &mockRepoStore{},
		filters:    &mockFilterStore{},
		thresholds: &mockThresholdStore{thresholds: model.DefaultThresholds()},
	}

	statusSvc := application.NewStatusService(f.items, f.history, testProject)
	attentionSvc := application.NewAttentionService(f.thresholds, businesscal.HolidaySet{})

	h := httphandler.NewHandler(
		f.items, f.repos, f.filters, f.thresholds,
		statusSvc, attentionSvc, nil, slog.Default(),
	)
	f.mux = httphandler.NewServeMux(h, slog.Default())

	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func sampleIssue(id int64, number int) model.WorkItem {
	opened := time.Now().UTC().Add(-72 * time.Hour)
	return model.WorkItem{
		ID:             id,
		RepoFullName:   "owner/repo",
		Number:         number,
		Kind:           model.KindIssue,
		State:          model.StateOpen,
		Title:          "Sample issue",
		Author:         "alice",
		Body:           "Some **bold** text",
		URL:            "https://github.com/owner/repo/issues/12",
		Labels:         []string{"bug"},
		OpenedAt:       opened,
		UpdatedAt:      opened,
		LastActivityAt: opened,
	}
}

func lockedIssue(id int64, number int) model.WorkItem {
	item := sampleIssue(id, number)
	item.ProjectStatusHistory = []model.ProjectStatusEntry{
		{ProjectTitle: testProject, Status: "In Progress", OccurredAt: "2026-02-01T00:00:00Z"},
	}
	return item
}

// --- Tests ---

func TestListItems(t *testing.T) {
	f := newFixture([]model.WorkItem{sampleIssue(1, 12), lockedIssue(2, 13)})

	rec := f.do(t, http.MethodGet, "/api/v1/items", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp []httphandler.ItemResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 2)

	assert.Equal(t, "no_status", resp[0].Status.DisplayStatus)
	assert.False(t, resp[0].Status.Locked)
	assert.Empty(t, resp[0].BodyHTML, "list endpoint must not render bodies")

	assert.Equal(t, "in_progress", resp[1].Status.DisplayStatus)
	assert.True(t, resp[1].Status.Locked)
	assert.Equal(t, "todo_project", resp[1].Status.Source)
}

func TestListItems_InvalidKind(t *testing.T) {
	f := newFixture(nil)

	rec := f.do(t, http.MethodGet, "/api/v1/items?kind=epic", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListItems_KindFilter(t *testing.T) {
	pr := sampleIssue(3, 20)
	pr.Kind = model.KindPullRequest
	f := newFixture([]model.WorkItem{sampleIssue(1, 12), pr})

	rec := f.do(t, http.MethodGet, "/api/v1/items?kind=pull_request", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp []httphandler.ItemResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "pull_request", resp[0].Kind)
}

func TestListItemsNeedingAttention(t *testing.T) {
	stale := sampleIssue(1, 12)
	stale.Kind = model.KindPullRequest
	stale.OpenedAt = time.Now().UTC().Add(-40 * 24 * time.Hour)
	stale.LastActivityAt = stale.OpenedAt

	fresh := sampleIssue(2, 13)
	fresh.OpenedAt = time.Now().UTC().Add(-time.Hour)
	fresh.LastActivityAt = fresh.OpenedAt

	f := newFixture([]model.WorkItem{stale, fresh})

	rec := f.do(t, http.MethodGet, "/api/v1/items/attention", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp []httphandler.ItemResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, int64(1), resp[0].ID)
	assert.True(t, resp[0].Attention.StalePR)
	assert.GreaterOrEqual(t, resp[0].Attention.Severity, 1)
}

func TestGetItem(t *testing.T) {
	f := newFixture([]model.WorkItem{sampleIssue(1, 12)})

	rec := f.do(t, http.MethodGet, "/api/v1/repos/owner/repo/items/issue/12", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp httphandler.ItemResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 12, resp.Number)
	assert.Contains(t, resp.BodyHTML, "<strong>bold</strong>")
}

func TestGetItem_NotFound(t *testing.T) {
	f := newFixture(nil)

	rec := f.do(t, http.MethodGet, "/api/v1/repos/owner/repo/items/issue/99", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetItem_BadKind(t *testing.T) {
	f := newFixture(nil)

	rec := f.do(t, http.MethodGet, "/api/v1/repos/owner/repo/items/epic/12", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetItem_BadNumber(t *testing.T) {
	f := newFixture(nil)

	rec := f.do(t, http.MethodGet, "/api/v1/repos/owner/repo/items/issue/abc", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChangeStatus(t *testing.T) {
	f := newFixture([]model.WorkItem{sampleIssue(1, 12)})

	rec := f.do(t, http.MethodPost, "/api/v1/items/1/status", `{"status":"in_progress"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.history.appended, 1)
	assert.Equal(t, model.StatusInProgress, f.history.appended[0].Status)

	var resp httphandler.StatusInfoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "in_progress", resp.DisplayStatus)
	assert.Equal(t, "activity", resp.Source)
}

func TestChangeStatus_Locked(t *testing.T) {
	f := newFixture([]model.WorkItem{lockedIssue(1, 12)})

	rec := f.do(t, http.MethodPost, "/api/v1/items/1/status", `{"status":"done"}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, f.history.appended)
}

func TestChangeStatus_UnknownItem(t *testing.T) {
	f := newFixture(nil)

	rec := f.do(t, http.MethodPost, "/api/v1/items/99/status", `{"status":"done"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChangeStatus_InvalidStatus(t *testing.T) {
	f := newFixture([]model.WorkItem{sampleIssue(1, 12)})

	rec := f.do(t, http.MethodPost, "/api/v1/items/1/status", `{"status":"blocked"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChangeStatus_InvalidBody(t *testing.T) {
	f := newFixture([]model.WorkItem{sampleIssue(1, 12)})

	rec := f.do(t, http.MethodPost, "/api/v1/items/1/status", `{`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRevertStatus(t *testing.T) {
	f := newFixture([]model.WorkItem{sampleIssue(1, 12)})
	f.history.events[1] = []model.ActivityStatusEvent{
		{ID: 1, ItemID: 1, Status: model.StatusInProgress, OccurredAt: time.Now().UTC().Add(-time.Hour)},
	}

	rec := f.do(t, http.MethodDelete, "/api/v1/items/1/status", "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []int64{1}, f.history.deleted)
}

func TestRevertStatus_Locked(t *testing.T) {
	f := newFixture([]model.WorkItem{lockedIssue(1, 12)})

	rec := f.do(t, http.MethodDelete, "/api/v1/items/1/status", "")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, f.history.deleted)
}

func TestGetThresholds(t *testing.T) {
	f := newFixture(nil)

	rec := f.do(t, http.MethodGet, "/api/v1/settings/thresholds", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp httphandler.ThresholdsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 10, resp.BacklogIssueDays)
	assert.Equal(t, 3, resp.StalePRDays)
}

func TestPutThresholds(t *testing.T) {
	f := newFixture(nil)

	body := `{"backlog_issue_days":20,"stale_pr_days":5,"unanswered_mention_days":7,"stalled_in_progress_days":4}`
	rec := f.do(t, http.MethodPut, "/api/v1/settings/thresholds", body)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, f.thresholds.stored)
	assert.Equal(t, 20, f.thresholds.stored.BacklogIssueDays)
	assert.Equal(t, 4, f.thresholds.stored.StalledInProgressDays)
}

func TestPutThresholds_RejectsNonPositive(t *testing.T) {
	f := newFixture(nil)

	body := `{"backlog_issue_days":0,"stale_pr_days":5,"unanswered_mention_days":7,"stalled_in_progress_days":4}`
	rec := f.do(t, http.MethodPut, "/api/v1/settings/thresholds", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, f.thresholds.stored)
}

func TestCreateFilter(t *testing.T) {
	f := newFixture(nil)

	rec := f.do(t, http.MethodPost, "/api/v1/filters", `{"name":"stale prs","query":"kind:pull_request flag:stale_pr"}`)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp httphandler.FilterResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.ID)
	assert.Equal(t, "stale prs", resp.Name)
}

func TestCreateFilter_EmptyName(t *testing.T) {
	f := newFixture(nil)

	rec := f.do(t, http.MethodPost, "/api/v1/filters", `{"name":"  ","query":"x"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddRepo(t *testing.T) {
	f := newFixture(nil)

	rec := f.do(t, http.MethodPost, "/api/v1/repos", `{"full_name":"owner/repo"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, f.repos.added, 1)
	assert.Equal(t, "owner", f.repos.added[0].Owner)
	assert.Equal(t, "repo", f.repos.added[0].Name)
}

func TestAddRepo_InvalidName(t *testing.T) {
	f := newFixture(nil)

	rec := f.do(t, http.MethodPost, "/api/v1/repos", `{"full_name":"not a repo"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.repos.added)
}

func TestRefreshRepo_Accepted(t *testing.T) {
	f := newFixture(nil)

	rec := f.do(t, http.MethodPost, "/api/v1/repos/owner/repo/refresh", "")

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestHealth(t *testing.T) {
	f := newFixture(nil)

	rec := f.do(t, http.MethodGet, "/api/v1/health", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp httphandler.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}
