package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/forum-guard/internal/badbehavior"
	"github.com/tbourn/forum-guard/internal/domain"
	"github.com/tbourn/forum-guard/internal/services"
	"github.com/tbourn/forum-guard/internal/utils"
)

//
// Service contracts (context-aware)
//

// MentionService is the mention lifecycle consumed by the handlers.
type MentionService interface {
	UpdateStatus(ctx context.Context, ids []int64, action string) (bool, error)
	MarkAllRead(ctx context.Context, memberID int64) (int64, error)
	ListPage(ctx context.Context, memberID int64, includeRead bool, page, pageSize int) ([]domain.Mention, int64, error)
	// Stats feeds the list ETag.
	Stats(ctx context.Context, memberID int64, includeRead bool) (int64, *time.Time, error)
	Unread(ctx context.Context, memberID int64) (int, error)
	SetPreferences(ctx context.Context, memberID int64, t domain.MentionType, channels []string) error
}

// NotificationService creates mention rows and fans them out.
type NotificationService interface {
	Send(ctx context.Context, task domain.Task) (*services.Report, error)
}

// BadBehaviorLog is the operator view of the screening log.
type BadBehaviorLog interface {
	Recent(ctx context.Context, reason string, limit int) ([]domain.BadBehaviorLog, error)
	Stats(ctx context.Context, since time.Time) (map[string]int64, error)
}

// RuleCatalog enumerates the registered screening rules.
type RuleCatalog interface {
	Rules() []badbehavior.RuleInfo
}

// Handlers groups the HTTP endpoints.
type Handlers struct {
	mentions MentionService
	notify   NotificationService
	bbLog    BadBehaviorLog
	rules    RuleCatalog
	now      func() time.Time
}

// New binds the handlers to their services. bbLog may be nil when request
// logging is disabled.
func New(mentions MentionService, notify NotificationService, bbLog BadBehaviorLog, rules RuleCatalog) *Handlers {
	return &Handlers{mentions: mentions, notify: notify, bbLog: bbLog, rules: rules, now: time.Now}
}

//
// DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

func paginate(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

//
// Helpers
//

// clampPagination bounds page and page_size to [1, ∞) and [1, 100].
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.IntInRange(c.Query("page"), defaultPage, 1, -1)
	pageSize = utils.IntInRange(c.Query("page_size"), defaultPageSize, 1, maxPageSize)
	return
}

// memberParam parses the :id path segment.
func memberParam(c *gin.Context) (int64, bool) {
	return utils.MemberID(c.Param("id"), false)
}
