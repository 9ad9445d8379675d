// Package httphandler is the HTTP driving adapter that serves the REST API.
package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ericfisherdev/workpanel/internal/application"
	"github.com/ericfisherdev/workpanel/internal/domain/model"
	"github.com/ericfisherdev/workpanel/internal/domain/port/driven"
)

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	itemStore      driven.ItemStore
	repoStore      driven.RepoStore
	filterStore    driven.FilterStore
	thresholdStore driven.ThresholdStore
	statusSvc      *application.StatusService
	attentionSvc   *application.AttentionService
	pollSvc        *application.PollService
	logger         *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	itemStore driven.ItemStore,
	repoStore driven.RepoStore,
	filterStore driven.FilterStore,
	thresholdStore driven.ThresholdStore,
	statusSvc *application.StatusService,
	attentionSvc *application.AttentionService,
	pollSvc *application.PollService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		itemStore:      itemStore,
		repoStore:      repoStore,
		filterStore:    filterStore,
		thresholdStore: thresholdStore,
		statusSvc:      statusSvc,
		attentionSvc:   attentionSvc,
		pollSvc:        pollSvc,
		logger:         logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/items", h.ListItems)
	mux.HandleFunc("GET /api/v1/items/attention", h.ListItemsNeedingAttention)
	mux.HandleFunc("POST /api/v1/items/{id}/status", h.ChangeStatus)
	mux.HandleFunc("DELETE /api/v1/items/{id}/status", h.RevertStatus)
	mux.HandleFunc("GET /api/v1/repos/{owner}/{repo}/items/{kind}/{number}", h.GetItem)
	mux.HandleFunc("GET /api/v1/settings/thresholds", h.GetThresholds)
	mux.HandleFunc("PUT /api/v1/settings/thresholds", h.PutThresholds)
	mux.HandleFunc("GET /api/v1/filters", h.ListFilters)
	mux.HandleFunc("POST /api/v1/filters", h.CreateFilter)
	mux.HandleFunc("DELETE /api/v1/filters/{id}", h.DeleteFilter)
	mux.HandleFunc("GET /api/v1/repos", h.ListRepos)
	mux.HandleFunc("POST /api/v1/repos", h.AddRepo)
	mux.HandleFunc("DELETE /api/v1/repos/{owner}/{repo}", h.RemoveRepo)
	mux.HandleFunc("POST /api/v1/repos/{owner}/{repo}/refresh", h.RefreshRepo)
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// buildItemResponse derives the transient status, age, and attention views for
// a single item.
func (h *Handler) buildItemResponse(ctx context.Context, item model.WorkItem, now time.Time) (ItemResponse, error) {
	info, err := h.statusSvc.StatusInfoFor(ctx, item)
	if err != nil {
		return ItemResponse{}, err
	}

	flags, ages := h.attentionSvc.FlagsForItem(ctx, item, info, now)

	return toItemResponse(item, info, ages, flags), nil
}

// ListItems returns all tracked work items with derived status and attention
// data. Optional query parameters: repo (owner/name) and kind (issue,
// pull_request, discussion).
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	var (
		items []model.WorkItem
		err   error
	)

	switch {
	case r.URL.Query().Get("repo") != "":
		items, err = h.itemStore.GetByRepository(r.Context(), r.URL.Query().Get("repo"))
	case r.URL.Query().Get("kind") != "":
		kind, ok := parseKind(r.URL.Query().Get("kind"))
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid kind: expected issue, pull_request, or discussion")
			return
		}
		items, err = h.itemStore.ListByKind(r.Context(), kind)
	default:
		items, err = h.itemStore.ListAll(r.Context())
	}
	if err != nil {
		h.logger.Error("failed to list items", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	now := time.Now().UTC()
	resp := make([]ItemResponse, 0, len(items))
	for _, item := range items {
		ir, err := h.buildItemResponse(r.Context(), item, now)
		if err != nil {
			h.logger.Error("failed to derive item view", "item_id", item.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		resp = append(resp, ir)
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListItemsNeedingAttention returns only items with at least one active
// attention flag.
func (h *Handler) ListItemsNeedingAttention(w http.ResponseWriter, r *http.Request) {
	items, err := h.itemStore.ListAll(r.Context())
	if err != nil {
		h.logger.Error("failed to list items", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	now := time.Now().UTC()
	resp := []ItemResponse{}
	for _, item := range items {
		ir, err := h.buildItemResponse(r.Context(), item, now)
		if err != nil {
			h.logger.Error("failed to derive item view", "item_id", item.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if ir.Attention.Severity > 0 {
			resp = append(resp, ir)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetItem returns a single work item with its rendered markdown body.
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	owner := r.PathValue("owner")
	repo := r.PathValue("repo")

	kind, ok := parseKind(r.PathValue("kind"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid kind: expected issue, pull_request, or discussion")
		return
	}

	number, err := strconv.Atoi(r.PathValue("number"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item number")
		return
	}

	repoFullName := owner + "/" + repo

	item, err := h.itemStore.GetByRepoNumber(r.Context(), repoFullName, kind, number)
	if err != nil {
		h.logger.Error("failed to get item", "repo", repoFullName, "kind", string(kind), "number", number, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if item == nil {
		writeError(w, http.StatusNotFound, "work item not found")
		return
	}

	resp, err := h.buildItemResponse(r.Context(), *item, time.Now().UTC())
	if err != nil {
		h.logger.Error("failed to derive item view", "item_id", item.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	resp.BodyHTML = renderMarkdown(item.Body)

	writeJSON(w, http.StatusOK, resp)
}

// ChangeStatus records a manual status transition for an item. Rejected with
// 409 while the project board locks the item's status.
func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req ChangeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status, ok := model.ParseActivityStatus(req.Status)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid status value")
		return
	}

	if err := h.statusSvc.ChangeStatus(r.Context(), itemID, status); err != nil {
		h.writeStatusError(w, itemID, err)
		return
	}

	h.writeStatusInfo(w, r, itemID)
}

// RevertStatus clears an item's manual status timeline.
func (h *Handler) RevertStatus(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := h.statusSvc.RevertStatus(r.Context(), itemID); err != nil {
		h.writeStatusError(w, itemID, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeStatusError maps status service errors to HTTP responses.
func (h *Handler) writeStatusError(w http.ResponseWriter, itemID int64, err error) {
	switch {
	case errors.Is(err, application.ErrItemNotFound):
		writeError(w, http.StatusNotFound, "work item not found")
	case errors.Is(err, application.ErrStatusLocked):
		writeError(w, http.StatusConflict, "status is locked by the project board")
	default:
		h.logger.Error("status operation failed", "item_id", itemID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// writeStatusInfo responds with an item's freshly resolved status info.
func (h *Handler) writeStatusInfo(w http.ResponseWriter, r *http.Request, itemID int64) {
	item, err := h.itemStore.GetByID(r.Context(), itemID)
	if err != nil || item == nil {
		h.logger.Error("failed to reload item", "item_id", itemID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	info, err := h.statusSvc.StatusInfoFor(r.Context(), *item)
	if err != nil {
		h.logger.Error("failed to resolve status", "item_id", itemID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toStatusInfoResponse(info))
}

// GetThresholds returns the current attention threshold configuration.
func (h *Handler) GetThresholds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toThresholdsResponse(h.attentionSvc.Thresholds(r.Context())))
}

// PutThresholds replaces the attention threshold configuration.
func (h *Handler) PutThresholds(w http.ResponseWriter, r *http.Request) {
	var req ThresholdsResponse
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	thresholds := model.Thresholds{
		BacklogIssueDays:      req.BacklogIssueDays,
		StalePRDays:           req.StalePRDays,
		UnansweredMentionDays: req.UnansweredMentionDays,
		StalledInProgressDays: req.StalledInProgressDays,
	}
	if err := thresholds.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.thresholdStore.SetThresholds(r.Context(), thresholds); err != nil {
		h.logger.Error("failed to store thresholds", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toThresholdsResponse(thresholds))
}

// ListFilters returns all saved filters.
func (h *Handler) ListFilters(w http.ResponseWriter, r *http.Request) {
	filters, err := h.filterStore.ListAll(r.Context())
	if err != nil {
		h.logger.Error("failed to list filters", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]FilterResponse, 0, len(filters))
	for _, f := range filters {
		resp = append(resp, toFilterResponse(f))
	}

	writeJSON(w, http.StatusOK, resp)
}

// CreateFilter saves a new named filter query.
func (h *Handler) CreateFilter(w http.ResponseWriter, r *http.Request) {
	var req CreateFilterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "filter name is required")
		return
	}

	filter := model.SavedFilter{
		Name:      strings.TrimSpace(req.Name),
		Query:     req.Query,
		CreatedAt: time.Now().UTC(),
	}

	id, err := h.filterStore.Create(r.Context(), filter)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			writeError(w, http.StatusConflict, "filter name already exists")
			return
		}
		h.logger.Error("failed to create filter", "name", filter.Name, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	filter.ID = id

	writeJSON(w, http.StatusCreated, toFilterResponse(filter))
}

// DeleteFilter removes a saved filter.
func (h *Handler) DeleteFilter(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid filter id")
		return
	}

	if err := h.filterStore.Delete(r.Context(), id); err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, "filter not found")
			return
		}
		h.logger.Error("failed to delete filter", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListRepos returns all watched repositories.
func (h *Handler) ListRepos(w http.ResponseWriter, r *http.Request) {
	repos, err := h.repoStore.ListAll(r.Context())
	if err != nil {
		h.logger.Error("failed to list repos", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]RepoResponse, 0, len(repos))
	for _, repo := range repos {
		resp = append(resp, toRepoResponse(repo))
	}

	writeJSON(w, http.StatusOK, resp)
}

// AddRepo adds a repository to the watch list and triggers an async refresh.
func (h *Handler) AddRepo(w http.ResponseWriter, r *http.Request) {
	var req AddRepoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !isValidRepoName(req.FullName) {
		writeError(w, http.StatusBadRequest, "invalid repository name: expected owner/repo format")
		return
	}

	parts := strings.SplitN(req.FullName, "/", 2)
	repo := model.Repository{
		FullName: req.FullName,
		Owner:    parts[0],
		Name:     parts[1],
		AddedAt:  time.Now().UTC(),
	}

	if err := h.repoStore.Add(r.Context(), repo); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			writeError(w, http.StatusConflict, "repository already exists")
			return
		}
		h.logger.Error("failed to add repo", "repo", req.FullName, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.asyncRefresh(req.FullName)

	writeJSON(w, http.StatusCreated, toRepoResponse(repo))
}

// RemoveRepo removes a repository from the watch list.
func (h *Handler) RemoveRepo(w http.ResponseWriter, r *http.Request) {
	owner := r.PathValue("owner")
	repo := r.PathValue("repo")
	fullName := owner + "/" + repo

	if err := h.repoStore.Remove(r.Context(), fullName); err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, "repository not found")
			return
		}
		h.logger.Error("failed to remove repo", "repo", fullName, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RefreshRepo triggers an async poll of a single repository, bypassing the
// adaptive schedule.
func (h *Handler) RefreshRepo(w http.ResponseWriter, r *http.Request) {
	owner := r.PathValue("owner")
	repo := r.PathValue("repo")
	fullName := owner + "/" + repo

	h.asyncRefresh(fullName)

	w.WriteHeader(http.StatusAccepted)
}

// asyncRefresh fires a background refresh with a detached context since the
// HTTP request context is cancelled after the response is sent.
func (h *Handler) asyncRefresh(repoFullName string) {
	if h.pollSvc == nil {
		return
	}

	go func() {
		if err := h.pollSvc.RefreshRepo(context.Background(), repoFullName); err != nil {
			h.logger.Error("async repo refresh failed", "repo", repoFullName, "error", err)
		}
	}()
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// parseKind validates a work item kind from a path or query value.
func parseKind(s string) (model.WorkItemKind, bool) {
	switch model.WorkItemKind(s) {
	case model.KindIssue, model.KindPullRequest, model.KindDiscussion:
		return model.WorkItemKind(s), true
	default:
		return "", false
	}
}

// isValidRepoName validates that name is in owner/repo format where each part
// contains only alphanumeric characters, hyphens, dots, or underscores.
func isValidRepoName(name string) bool {
	parts := strings.SplitN(name, "/", 3)
	if len(parts) != 2 {
		return false
	}

	for _, part := range parts {
		if part == "" {
			return false
		}
		for _, ch := range part {
			if !isValidRepoChar(ch) {
				return false
			}
		}
	}

	return true
}

// isValidRepoChar returns true if the rune is allowed in a repository owner or name.
func isValidRepoChar(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9') ||
		ch == '-' || ch == '.' || ch == '_'
}
