package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/i18n"
	"github.com/crm/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBaseRouter(handle gin.HandlerFunc) *gin.Engine {
	tr := i18n.MustNew("ru", []string{"ru", "en"})
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Language(tr))
	r.Any("/test/*rest", handle)
	return r
}

func callBase(t *testing.T, handle func(h *BaseHandler, c *gin.Context), lang string) *httptest.ResponseRecorder {
	t.Helper()
	h := NewBaseHandler(i18n.MustNew("ru", []string{"ru", "en"}))
	r := newBaseRouter(func(c *gin.Context) { handle(&h, c) })
	req := httptest.NewRequest(http.MethodPost, "/test/x", strings.NewReader(`{"sku":0}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Language", lang)
	req.Header.Set(middleware.RequestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandleError_DomainErrorIsLocalized(t *testing.T) {
	rec := callBase(t, func(h *BaseHandler, c *gin.Context) {
		h.HandleError(c, shared.ErrNotFound)
	}, "en")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	env := decode(t, rec, nil)
	assert.False(t, env.Success)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
	assert.Equal(t, "Record not found", env.Error.Message)
	assert.Equal(t, "req-1", env.Error.RequestID)
}

func TestHandleError_FieldErrorHasDetails(t *testing.T) {
	rec := callBase(t, func(h *BaseHandler, c *gin.Context) {
		h.HandleError(c, shared.NewFieldError("SKU_TAKEN", "sku", "A product with this SKU already exists"))
	}, "ru")

	assert.Equal(t, http.StatusConflict, rec.Code)
	env := decode(t, rec, nil)
	assert.Equal(t, "Товар с таким номером уже существует", env.Error.Message)
	require.Len(t, env.Error.Details, 1)
	assert.Equal(t, "sku", env.Error.Details[0].Field)
}

func TestHandleError_UnknownCodeKeepsMessage(t *testing.T) {
	rec := callBase(t, func(h *BaseHandler, c *gin.Context) {
		h.HandleError(c, shared.NewDomainError("QUOTA_REACHED", "Quota reached"))
	}, "en")

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Quota reached", decode(t, rec, nil).Error.Message)
}

func TestHandleError_PlainErrorIsInternal(t *testing.T) {
	rec := callBase(t, func(h *BaseHandler, c *gin.Context) {
		h.HandleError(c, errors.New("pq: connection refused"))
	}, "en")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decode(t, rec, nil)
	assert.Equal(t, "INTERNAL_ERROR", env.Error.Code)
	assert.NotContains(t, env.Error.Message, "pq")
}

func TestBindError(t *testing.T) {
	type form struct {
		SKU int64 `json:"sku" binding:"required"`
	}
	rec := callBase(t, func(h *BaseHandler, c *gin.Context) {
		var f form
		h.BindError(c, c.ShouldBindJSON(&f))
	}, "en")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec, nil)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Equal(t, "Please check the form fields", env.Error.Message)
	require.Len(t, env.Error.Details, 1)
	assert.Equal(t, "sku", env.Error.Details[0].Field)
}

func TestPathID_Malformed(t *testing.T) {
	rec := callBase(t, func(h *BaseHandler, c *gin.Context) {
		if _, ok := h.pathID(c, "rest"); ok {
			c.Status(http.StatusOK)
		}
	}, "en")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "BAD_REQUEST", decode(t, rec, nil).Error.Code)
}

func TestList_EmptyPage(t *testing.T) {
	rec := callBase(t, func(h *BaseHandler, c *gin.Context) {
		List(h, c, shared.NewPaginated[string](nil, 0, 1, 20), "Nothing yet")
	}, "en")

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec, nil)
	assert.JSONEq(t, `[]`, string(env.Data))
	require.NotNil(t, env.Meta)
	assert.Equal(t, "Nothing yet", env.Meta.EmptyText)
	assert.Equal(t, int64(0), env.Meta.Total)
}

func TestActor_RequiresClaims(t *testing.T) {
	rec := callBase(t, func(h *BaseHandler, c *gin.Context) {
		if _, ok := h.actor(c); ok {
			c.Status(http.StatusOK)
		}
	}, "en")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
