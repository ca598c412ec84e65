package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/apth/kairos/app/database"
	"github.com/apth/kairos/app/triage"
	"github.com/apth/kairos/app/urlcheck"
)

func NewHandler(feedRepo database.FeedRepository, triageService TriageServiceInterface,
	validator URLValidator, refresher Refresher, defaultActor, version string) *Handler {
	return &Handler{
		feedRepo:     feedRepo,
		triage:       triageService,
		validator:    validator,
		refresher:    refresher,
		defaultActor: defaultActor,
		version:      version,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   h.version,
	}

	if feedCount, err := h.feedRepo.GetActiveFeedCount(); err == nil {
		health["active_feeds"] = feedCount
	}

	if stats, err := h.triage.Stats(c.Request.Context()); err == nil {
		health["pending_items"] = stats[triage.StatusPending]
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) APIListFeeds(c *gin.Context) {
	feeds, err := h.feedRepo.GetAllFeeds()
	if err != nil {
		slog.Error("Database error", "operation", "list_feeds", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	list := make([]map[string]interface{}, 0, len(feeds))
	for _, f := range feeds {
		list = append(list, feedInfo(f))
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"feeds": list,
		"total": len(list),
	})
}

func (h *Handler) APICreateFeed(c *gin.Context) {
	var req feedCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	url, err := h.validator.Validate(c.Request.Context(), req.URL, urlcheck.PurposeFeed)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid feed URL", "details": err.Error()})
		return
	}

	priority := 5
	if req.Priority != nil {
		priority = *req.Priority
	}
	category := req.Category
	if category == "" {
		category = "RSS"
	}

	id, err := h.feedRepo.AddFeed(url, req.Name, priority, category)
	if err != nil {
		slog.Error("Database error", "operation", "add_feed", "url", url, "error", err)
		c.JSON(http.StatusConflict, gin.H{"error": "Feed already exists or could not be added"})
		return
	}

	f, err := h.feedRepo.GetFeed(id)
	if err != nil || f == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusCreated, feedInfo(*f))
}

func (h *Handler) APIUpdateFeed(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req feedUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	updated, err := h.feedRepo.UpdateFeed(id, database.FeedUpdate{
		Name:     req.Name,
		Priority: req.Priority,
		Category: req.Category,
		Active:   req.Active,
	})
	if err != nil {
		slog.Error("Database error", "operation", "update_feed", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if !updated {
		c.JSON(http.StatusNotFound, gin.H{"error": "Feed not found"})
		return
	}

	f, err := h.feedRepo.GetFeed(id)
	if err != nil || f == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, feedInfo(*f))
}

func (h *Handler) APIDeleteFeed(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	deleted, err := h.feedRepo.DeleteFeed(id)
	if err != nil {
		slog.Error("Database error", "operation", "delete_feed", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Feed not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) APIRefreshFeeds(c *gin.Context) {
	h.refresher.Refresh()
	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Feed refresh started",
	})
}

func (h *Handler) APINextItem(c *gin.Context) {
	item, err := h.triage.Next(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "next_item", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if item == nil {
		c.JSON(http.StatusOK, gin.H{"item": nil, "message": "No pending items"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"item": itemInfo(*item)})
}

func (h *Handler) APIItemStats(c *gin.Context) {
	stats, err := h.triage.Stats(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "item_stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	feedCount, err := h.feedRepo.GetActiveFeedCount()
	if err != nil {
		slog.Error("Database error", "operation", "feed_count", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":        stats,
		"active_feeds": feedCount,
	})
}

func (h *Handler) APITriageItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req triageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	actor := req.Actor
	if actor == "" {
		actor = h.defaultActor
	}

	item, err := h.triage.Triage(c.Request.Context(), id, req.Action, actor)
	if err != nil {
		h.triageError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"item": itemInfo(*item)})
}

func (h *Handler) APIUndoTriage(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	item, err := h.triage.Undo(c.Request.Context(), id)
	if err != nil {
		h.triageError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"item": itemInfo(*item)})
}

func (h *Handler) APISkipAllPending(c *gin.Context) {
	var req skipAllRequest
	// Body is optional for bulk skip.
	_ = c.ShouldBindJSON(&req)

	actor := req.Actor
	if actor == "" {
		actor = h.defaultActor
	}

	count, err := h.triage.SkipAllPending(c.Request.Context(), actor)
	if err != nil {
		slog.Error("Database error", "operation", "skip_all", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"skipped": count})
}

func (h *Handler) APIArchiveDigested(c *gin.Context) {
	count, err := h.triage.ArchiveDigested(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "archive_digested", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"archived": count})
}

func (h *Handler) triageError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, triage.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
	case errors.Is(err, triage.ErrIllegalTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "Illegal status transition", "details": err.Error()})
	case errors.Is(err, triage.ErrUnknownAction):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown triage action", "details": err.Error()})
	default:
		slog.Error("Triage operation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id parameter"})
		return 0, false
	}
	return id, true
}

func feedInfo(f database.Feed) map[string]interface{} {
	info := map[string]interface{}{
		"id":         f.ID,
		"url":        f.URL,
		"name":       f.Name,
		"active":     f.Active,
		"priority":   f.Priority,
		"category":   f.Category,
		"last_error": f.LastError,
		"created_at": f.CreatedAt,
	}
	if f.LastFetched != nil {
		info["last_fetched"] = f.LastFetched
	}
	return info
}

func itemInfo(item database.Item) map[string]interface{} {
	info := map[string]interface{}{
		"id":           item.ID,
		"feed_id":      item.FeedID,
		"feed_name":    item.FeedName,
		"guid":         item.GUID,
		"title":        item.Title,
		"url":          item.URL,
		"summary":      item.Summary,
		"published_at": item.PublishedAt,
		"fetched_at":   item.FetchedAt,
		"status":       item.Status,
	}
	if item.TriagedAt != nil {
		info["triaged_at"] = item.TriagedAt
		info["triaged_by"] = item.TriagedBy
	}
	return info
}
