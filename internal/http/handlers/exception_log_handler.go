package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-api-boilerplate/internal/exceptions"
	"github.com/tbourn/go-api-boilerplate/internal/http/middleware"
	"github.com/tbourn/go-api-boilerplate/internal/services"
	"github.com/tbourn/go-api-boilerplate/internal/utils"
)

// clampPagination parses and bounds page and pageSize query params to sane
// defaults and limits, returning (page, pageSize). The snake_case page_size
// is accepted as an alias.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	raw := c.Query("pageSize")
	if raw == "" {
		raw = c.Query("page_size")
	}
	pageSize = utils.Clamp(utils.AtoiDefault(raw, defaultPageSize), 1, maxPageSize)
	return
}

// ListExceptionLogs godoc
// @ID          listExceptionLogs
// @Summary     List exception logs (paginated)
// @Description Returns persisted log events, newest first. Requires an admin API key.
// @Tags        ExceptionLogs
// @Produce     json
// @Security    ApiKeyAuth
//
// @Param       severity   query  string  false  "Severity filter"           Enums(debug, info, warn, error, fatal)
// @Param       context    query  string  false  "Component filter"          example(GlobalExceptionPipeline)
// @Param       since      query  string  false  "RFC 3339 lower bound"      format(date-time)
// @Param       page       query  int     false  "Page number"               minimum(1) default(1)
// @Param       pageSize   query  int     false  "Items per page"            minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.PaginatedAPIResponse{data=[]domain.ExceptionLog}
// @Failure     400  {object}  exceptions.ErrorBody  "Bad request"
// @Failure     401  {object}  exceptions.ErrorBody  "Missing or invalid API key"
// @Failure     403  {object}  exceptions.ErrorBody  "Forbidden resource"
// @Failure     500  {object}  exceptions.ErrorBody  "Internal error"
// @Router      /exception-logs [get]
func (h *Handlers) ListExceptionLogs(c *gin.Context) {
	page, pageSize := clampPagination(c)

	since, err := utils.ParseTimeOptional(c.Query("since"))
	if err != nil {
		fail(c, exceptions.BadRequest(MsgInvalidSince))
		return
	}

	q := services.ExceptionLogQuery{
		Severity: c.Query("severity"),
		Context:  c.Query("context"),
		Since:    since,
	}
	items, total, err := h.logs.ListPage(c.Request.Context(), q, page, pageSize)
	if err != nil {
		fail(c, serviceError(err))
		return
	}

	middleware.LoggerFrom(c).Debug().
		Int64("total", total).
		Int("page", page).
		Str("platform", middleware.PlatformKey(c)).
		Msg("exception logs listed")
	okPage(c, http.StatusOK, "Exception logs retrieved", items, total, page, pageSize)
}

// GetExceptionLog godoc
// @ID          getExceptionLog
// @Summary     Get an exception log
// @Description Returns one persisted log event by ID. Requires an admin API key.
// @Tags        ExceptionLogs
// @Produce     json
// @Security    ApiKeyAuth
//
// @Param       id  path  string  true  "Exception log ID (UUID)"  format(uuid)
//
// @Success     200  {object}  handlers.APIResponse{data=domain.ExceptionLog}
// @Failure     400  {object}  exceptions.ErrorBody  "Bad request"
// @Failure     401  {object}  exceptions.ErrorBody  "Missing or invalid API key"
// @Failure     403  {object}  exceptions.ErrorBody  "Forbidden resource"
// @Failure     404  {object}  exceptions.ErrorBody  "Exception log not found"
// @Router      /exception-logs/{id} [get]
func (h *Handlers) GetExceptionLog(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if _, err := uuid.Parse(id); err != nil {
		fail(c, exceptions.BadRequest(MsgInvalidID))
		return
	}

	rec, err := h.logs.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, serviceError(err))
		return
	}
	ok(c, http.StatusOK, "Exception log retrieved", rec)
}
