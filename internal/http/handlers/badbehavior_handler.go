package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/forum-guard/internal/badbehavior"
	"github.com/tbourn/forum-guard/internal/domain"
	"github.com/tbourn/forum-guard/internal/utils"
)

// ReasonsResponse is the reason-code catalogue.
type ReasonsResponse struct {
	Reasons []badbehavior.Explanation `json:"reasons"`
}

// RulesResponse lists registered screening rules in evaluation order.
type RulesResponse struct {
	Rules []badbehavior.RuleInfo `json:"rules"`
}

// LogResponse is a slice of recent screening log rows plus per-reason
// counts for the window.
type LogResponse struct {
	Entries []domain.BadBehaviorLog `json:"entries"`
	Counts  map[string]int64        `json:"counts"`
	Since   time.Time               `json:"since"`
}

// ListReasons godoc
// @ID          listReasons
// @Summary     List block reason codes
// @Tags        BadBehavior
// @Produce     json
// @Success     200 {object} handlers.ReasonsResponse
// @Router      /badbehavior/reasons [get]
func (h *Handlers) ListReasons(c *gin.Context) {
	ok(c, http.StatusOK, ReasonsResponse{Reasons: badbehavior.Explanations()})
}

// GetReason godoc
// @ID          getReason
// @Summary     Explain a block reason code
// @Description Returns the HTTP status, the user-facing message and the log text for the code shown on a block page.
// @Tags        BadBehavior
// @Produce     json
// @Param       code path     string true "Eight hex digit reason code" example(f9f2b8b9)
// @Success     200  {object} badbehavior.Explanation
// @Failure     404  {object} handlers.ErrorResponse "Unknown reason"
// @Router      /badbehavior/reasons/{code} [get]
func (h *Handlers) GetReason(c *gin.Context) {
	e, known := badbehavior.Explain(c.Param("code"))
	if !known {
		fail(c, http.StatusNotFound, ErrCodeUnknownReason, "unknown reason code")
		return
	}
	ok(c, http.StatusOK, e)
}

// ListRules godoc
// @ID          listRules
// @Summary     List screening rules
// @Tags        BadBehavior
// @Produce     json
// @Param       strict query    bool false "Only rules that run in strict mode"
// @Success     200    {object} handlers.RulesResponse
// @Router      /badbehavior/rules [get]
func (h *Handlers) ListRules(c *gin.Context) {
	rules := []badbehavior.RuleInfo{}
	if h.rules != nil {
		strictOnly := c.Query("strict") == "true" || c.Query("strict") == "1"
		for _, r := range h.rules.Rules() {
			if !strictOnly || r.Strict {
				rules = append(rules, r)
			}
		}
	}
	ok(c, http.StatusOK, RulesResponse{Rules: rules})
}

// ListBadBehaviorLog godoc
// @ID          listBadBehaviorLog
// @Summary     Recent screened requests
// @Description Newest first. Counts cover the last `hours` hours (default 24).
// @Tags        BadBehavior
// @Produce     json
// @Param       reason query    string false "Filter by reason code"
// @Param       limit  query    int    false "Max rows" minimum(1) maximum(500) default(50)
// @Param       hours  query    int    false "Count window in hours" minimum(1) maximum(2160) default(24)
// @Success     200    {object} handlers.LogResponse
// @Failure     404    {object} handlers.ErrorResponse "Logging disabled"
// @Failure     500    {object} handlers.ErrorResponse "Internal error"
// @Router      /badbehavior/log [get]
func (h *Handlers) ListBadBehaviorLog(c *gin.Context) {
	if h.bbLog == nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "request logging is disabled")
		return
	}
	ctx := c.Request.Context()
	limit := utils.IntInRange(c.Query("limit"), 0, 0, 500)
	hours := utils.IntInRange(c.Query("hours"), 24, 1, 24*90)
	since := h.now().Add(-time.Duration(hours) * time.Hour).UTC()

	rows, err := h.bbLog.Recent(ctx, c.Query("reason"), limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "failed to load log")
		return
	}
	counts, err := h.bbLog.Stats(ctx, since)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "failed to count log")
		return
	}
	if rows == nil {
		rows = []domain.BadBehaviorLog{}
	}
	if counts == nil {
		counts = map[string]int64{}
	}
	ok(c, http.StatusOK, LogResponse{Entries: rows, Counts: counts, Since: since})
}
