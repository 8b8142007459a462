package handler

import (
	"errors"
	"net/http"

	crmapp "github.com/crm/backend/internal/application/crm"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/i18n"
	"github.com/crm/backend/internal/infrastructure/logger"
	"github.com/crm/backend/internal/interfaces/http/dto"
	"github.com/crm/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BaseHandler provides the response helpers shared by all handlers.
// Error messages are looked up in the request language.
type BaseHandler struct {
	translator *i18n.Translator
}

// NewBaseHandler creates the shared handler base
func NewBaseHandler(translator *i18n.Translator) BaseHandler {
	return BaseHandler{translator: translator}
}

func (h *BaseHandler) localizer() dto.Localizer {
	if h.translator == nil {
		return nil
	}
	return h.translator
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a page of items with its pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, meta dto.Meta) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, meta))
}

// List sends a page of items. The empty placeholder goes into the meta.
func List[T any](h *BaseHandler, c *gin.Context, page shared.Paginated[T], emptyText string) {
	items := page.Items
	if items == nil {
		items = []T{}
	}
	meta := dto.NewMeta(page.Total, page.Page, page.PageSize)
	meta.EmptyText = emptyText
	h.SuccessWithMeta(c, items, meta)
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the message for code in the request language
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, fallback string) {
	message := dto.LocalizedMessage(h.localizer(), middleware.GetLang(c), code, fallback)
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, requestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
}

// BindError answers a request that failed binding. Validation failures list
// the invalid fields; malformed bodies get a plain bad request.
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	details := middleware.ValidationDetails(err)
	if details == nil {
		h.BadRequest(c, "Invalid request body")
		return
	}
	message := dto.LocalizedMessage(h.localizer(), middleware.GetLang(c), dto.ErrCodeValidation, "Request validation failed")
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(message, requestID(c), details))
}

// HandleError converts an error returned by a service into a response.
// Domain errors keep their code; anything else is logged and answered with
// a generic internal error.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if !errors.As(err, &domainErr) {
		logger.GetGinLogger(c).Error("request failed", zap.Error(err))
		h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
		return
	}

	lang := middleware.GetLang(c)
	message := dto.LocalizedMessage(h.localizer(), lang, domainErr.Code, domainErr.Message)
	status := dto.GetHTTPStatus(domainErr.Code)
	if domainErr.Field == "" {
		c.JSON(status, dto.NewErrorResponseWithRequestID(domainErr.Code, message, requestID(c)))
		return
	}
	resp := dto.NewErrorResponseWithRequestID(domainErr.Code, message, requestID(c))
	resp.Error.Details = []dto.ValidationDetail{{Field: domainErr.Field, Message: domainErr.Message}}
	c.JSON(status, resp)
}

func requestID(c *gin.Context) string {
	return c.GetString(logger.GinRequestIDKey)
}

// pathID parses a uuid path parameter. It answers 400 and returns false
// when the value is malformed.
func (h *BaseHandler) pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, "Invalid ID format")
		return uuid.Nil, false
	}
	return id, true
}

// actor builds the caller of a CRM operation from the verified token
func (h *BaseHandler) actor(c *gin.Context) (crmapp.Actor, bool) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c)
		return crmapp.Actor{}, false
	}
	tenantID, err := claims.GetTenantUUID()
	if err != nil {
		h.Unauthorized(c)
		return crmapp.Actor{}, false
	}
	userID, err := claims.GetUserUUID()
	if err != nil {
		h.Unauthorized(c)
		return crmapp.Actor{}, false
	}
	return crmapp.Actor{
		TenantID:      tenantID,
		UserID:        userID,
		IsAdmin:       claims.IsAdmin,
		SalesPersonID: claims.GetSalesPersonUUID(),
		Lang:          middleware.GetLang(c),
	}, true
}

// tenantID returns the tenant resolved by the tenant middleware
func (h *BaseHandler) tenantID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.GetTenantUUID(c)
	if !ok {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeTenantNotFound, "Tenant not found")
		return uuid.Nil, false
	}
	return id, true
}

// listFilter binds the common paging query parameters
func (h *BaseHandler) listFilter(c *gin.Context) (shared.Filter, bool) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return shared.Filter{}, false
	}
	filter := shared.DefaultFilter()
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 {
		filter.PageSize = req.PageSize
	}
	if req.OrderBy != "" {
		filter.OrderBy = req.OrderBy
	}
	if req.OrderDir != "" {
		filter.OrderDir = req.OrderDir
	}
	filter.Search = req.Search
	return filter, true
}
