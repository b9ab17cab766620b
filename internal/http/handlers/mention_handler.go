// Mention HTTP handlers.
//
//   - POST /mentions                          (create + notify)
//   - PUT  /mentions/status                   (status transition)
//   - POST /members/{id}/mentions/read        (mark all read)
//   - GET  /members/{id}/mentions             (list, paginated, ETag support)
//   - PUT  /members/{id}/preferences/{type}   (notification channels)
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/forum-guard/internal/domain"
	"github.com/tbourn/forum-guard/internal/services"
	"github.com/tbourn/forum-guard/internal/utils"
)

// CreateMentionRequest is the JSON payload describing one mention event.
type CreateMentionRequest struct {
	Type       string  `json:"type"        binding:"required" example:"mentionmem"`
	MemberFrom int64   `json:"member_from" binding:"required,gt=0" example:"1"`
	TargetID   int64   `json:"target_id"   binding:"required,gt=0" example:"500"`
	Recipients []int64 `json:"recipients"  example:"2,3"`
	// Status of the new rows; "new" when empty.
	Status  string     `json:"status,omitempty" example:"new"`
	Time    *time.Time `json:"time,omitempty"`
	Subject string     `json:"subject,omitempty" example:"Release notes"`
	Link    string     `json:"link,omitempty" example:"https://forum.example.org/msg/500"`
}

// CreateMentionResponse lists the notified recipients and what happened on
// each channel.
type CreateMentionResponse struct {
	Recipients []int64                   `json:"recipients"`
	Deliveries []services.DeliveryResult `json:"deliveries"`
}

// UpdateStatusRequest moves mentions to a status.
type UpdateStatusRequest struct {
	IDs    []int64 `json:"ids"    binding:"required,min=1" example:"10,11"`
	Status string  `json:"status" binding:"required" example:"read"`
}

// UpdateStatusResponse reports whether any row changed.
type UpdateStatusResponse struct {
	Updated bool `json:"updated"`
}

// MarkReadResponse reports how many mentions were marked read.
type MarkReadResponse struct {
	Updated int64 `json:"updated"`
}

// ListMentionsResponse wraps a page of mentions.
type ListMentionsResponse struct {
	Mentions   []domain.Mention `json:"mentions"`
	Unread     int              `json:"unread"`
	Pagination Pagination       `json:"pagination"`
}

// SetPreferencesRequest replaces the channels of one mention type.
type SetPreferencesRequest struct {
	Channels []string `json:"channels" example:"notification,email"`
}

// CreateMention godoc
// @ID          createMention
// @Summary     Create a mention and notify its recipients
// @Description Persists one mention row per recipient with at least one enabled channel and delivers it. Re-posting the same event is idempotent.
// @Tags        Mentions
// @Accept      json
// @Produce     json
// @Param       body  body     handlers.CreateMentionRequest true "Mention event"
// @Success     201   {object} handlers.CreateMentionResponse
// @Failure     400   {object} handlers.ErrorResponse "Bad request"
// @Failure     500   {object} handlers.ErrorResponse "Internal error"
// @Router      /mentions [post]
func (h *Handlers) CreateMention(c *gin.Context) {
	var in CreateMentionRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid body")
		return
	}
	task := domain.Task{
		Type:       domain.MentionType(in.Type),
		MemberFrom: in.MemberFrom,
		TargetID:   in.TargetID,
		Status:     domain.Status(in.Status),
		Recipients: in.Recipients,
		Subject:    in.Subject,
		Link:       in.Link,
	}
	if in.Time != nil {
		task.Time = in.Time.UTC()
	}

	rep, err := h.notify.Send(c.Request.Context(), task)
	if err != nil {
		failService(c, err, ErrCodeCreateFailed)
		return
	}
	ids := make([]int64, 0, len(rep.Recipients))
	for _, r := range rep.Recipients {
		if r.Status != domain.StatusDeleted {
			ids = append(ids, r.MemberID)
		}
	}
	deliveries := rep.Deliveries
	if deliveries == nil {
		deliveries = []services.DeliveryResult{}
	}
	ok(c, http.StatusCreated, CreateMentionResponse{Recipients: ids, Deliveries: deliveries})
}

// UpdateMentionStatus godoc
// @ID          updateMentionStatus
// @Summary     Change the status of mentions
// @Description Moves the given mentions to new, read, deleted or unapproved. Deleted mentions never change again.
// @Tags        Mentions
// @Accept      json
// @Produce     json
// @Param       body  body     handlers.UpdateStatusRequest true "Ids and target status"
// @Success     200   {object} handlers.UpdateStatusResponse
// @Failure     400   {object} handlers.ErrorResponse "Invalid status or body"
// @Failure     500   {object} handlers.ErrorResponse "Internal error"
// @Router      /mentions/status [put]
func (h *Handlers) UpdateMentionStatus(c *gin.Context) {
	var in UpdateStatusRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid body")
		return
	}
	updated, err := h.mentions.UpdateStatus(c.Request.Context(), in.IDs, in.Status)
	if err != nil {
		failService(c, err, ErrCodeUpdateFailed)
		return
	}
	ok(c, http.StatusOK, UpdateStatusResponse{Updated: updated})
}

// MarkMentionsRead godoc
// @ID          markMentionsRead
// @Summary     Mark all mentions of a member read
// @Tags        Mentions
// @Produce     json
// @Param       id   path     int true "Member ID" minimum(1)
// @Success     200  {object} handlers.MarkReadResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad member id"
// @Failure     404  {object} handlers.ErrorResponse "Member not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /members/{id}/mentions/read [post]
func (h *Handlers) MarkMentionsRead(c *gin.Context) {
	id, valid := memberParam(c)
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid member id")
		return
	}
	n, err := h.mentions.MarkAllRead(c.Request.Context(), id)
	if err != nil {
		failService(c, err, ErrCodeUpdateFailed)
		return
	}
	ok(c, http.StatusOK, MarkReadResponse{Updated: n})
}

// ListMentions godoc
// @ID          listMentions
// @Summary     List a member's mentions (paginated)
// @Description Newest first. Unread only unless include_read is set; deleted and unapproved mentions are never listed. Supports weak ETag via If-None-Match.
// @Tags        Mentions
// @Produce     json
// @Param       id             path    int     true  "Member ID" minimum(1)
// @Param       include_read   query   bool    false "Include read mentions"
// @Param       page           query   int     false "Page number"    minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page" minimum(1) maximum(100) default(20)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Success     200  {object} handlers.ListMentionsResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad member id"
// @Failure     404  {object} handlers.ErrorResponse "Member not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /members/{id}/mentions [get]
func (h *Handlers) ListMentions(c *gin.Context) {
	ctx := c.Request.Context()
	id, valid := memberParam(c)
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid member id")
		return
	}
	includeRead := c.Query("include_read") == "true" || c.Query("include_read") == "1"
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if count, maxTS, err := h.mentions.Stats(ctx, id, includeRead); err == nil {
		var ts int64
		if maxTS != nil {
			ts = maxTS.UnixNano()
		}
		etag := fmt.Sprintf(`W/"mentions:%d:%t:%d:%d:%d:%d"`, id, includeRead, page, pageSize, count, ts)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, total, err := h.mentions.ListPage(ctx, id, includeRead, page, pageSize)
	if err != nil {
		failService(c, err, ErrCodeListFailed)
		return
	}
	unread, err := h.mentions.Unread(ctx, id)
	if err != nil {
		failService(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, ListMentionsResponse{
		Mentions:   items,
		Unread:     unread,
		Pagination: paginate(page, pageSize, total),
	})
}

// SetPreferences godoc
// @ID          setPreferences
// @Summary     Set a member's channels for a mention type
// @Description Member 0 holds the board defaults. An empty list turns the type off for the member.
// @Tags        Preferences
// @Accept      json
// @Param       id    path  int    true "Member ID (0 for defaults)" minimum(0)
// @Param       type  path  string true "Mention type" example(mentionmem)
// @Param       body  body  handlers.SetPreferencesRequest true "Channels"
// @Success     204
// @Failure     400  {object} handlers.ErrorResponse "Bad type, channel or body"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /members/{id}/preferences/{type} [put]
func (h *Handlers) SetPreferences(c *gin.Context) {
	id, valid := utils.MemberID(c.Param("id"), true)
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid member id")
		return
	}
	var in SetPreferencesRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid body")
		return
	}
	if in.Channels == nil {
		in.Channels = []string{}
	}
	if err := h.mentions.SetPreferences(c.Request.Context(), id, domain.MentionType(c.Param("type")), in.Channels); err != nil {
		failService(c, err, ErrCodeUpdateFailed)
		return
	}
	noContent(c)
}

// failService maps service sentinels to 4xx and everything else to 500
// with fallback as code.
func failService(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrInvalidStatus):
		fail(c, http.StatusBadRequest, ErrCodeInvalidStatus, err.Error())
	case errors.Is(err, services.ErrUnknownMentionType):
		fail(c, http.StatusBadRequest, ErrCodeInvalidType, err.Error())
	case errors.Is(err, services.ErrInvalidChannel):
		fail(c, http.StatusBadRequest, ErrCodeInvalidChannel, err.Error())
	case errors.Is(err, services.ErrMissingTask):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrMemberNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	default:
		fail(c, http.StatusInternalServerError, fallback, err.Error())
	}
}
