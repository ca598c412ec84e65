package api

import (
	"context"

	"github.com/apth/kairos/app/database"
	"github.com/apth/kairos/app/tasks"
	"github.com/apth/kairos/app/triage"
)

type TriageServiceInterface interface {
	Triage(ctx context.Context, itemID int64, action, actor string) (*database.Item, error)
	Undo(ctx context.Context, itemID int64) (*database.Item, error)
	Next(ctx context.Context) (*database.Item, error)
	SkipAllPending(ctx context.Context, actor string) (int, error)
	ArchiveDigested(ctx context.Context) (int, error)
	Stats(ctx context.Context) (map[string]int, error)
}

var _ TriageServiceInterface = (*triage.Service)(nil)

type URLValidator interface {
	Validate(ctx context.Context, rawURL, purpose string) (string, error)
}

type Refresher interface {
	Refresh()
}

var _ Refresher = (*tasks.Scheduler)(nil)

type Handler struct {
	feedRepo     database.FeedRepository
	triage       TriageServiceInterface
	validator    URLValidator
	refresher    Refresher
	defaultActor string
	version      string
}

type feedCreateRequest struct {
	URL      string `json:"url" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Priority *int   `json:"priority"`
	Category string `json:"category"`
}

type feedUpdateRequest struct {
	Name     *string `json:"name"`
	Priority *int    `json:"priority"`
	Category *string `json:"category"`
	Active   *bool   `json:"active"`
}

type triageRequest struct {
	Action string `json:"action" binding:"required"`
	Actor  string `json:"actor"`
}

type skipAllRequest struct {
	Actor string `json:"actor"`
}
