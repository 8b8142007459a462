package handler

import (
	crmapp "github.com/crm/backend/internal/application/crm"
	"github.com/crm/backend/internal/infrastructure/i18n"
	"github.com/gin-gonic/gin"
)

// SalesPersonHandler handles sales person API endpoints
type SalesPersonHandler struct {
	BaseHandler
	service *crmapp.SalesPersonService
}

// NewSalesPersonHandler creates a new SalesPersonHandler
func NewSalesPersonHandler(service *crmapp.SalesPersonService, translator *i18n.Translator) *SalesPersonHandler {
	return &SalesPersonHandler{
		BaseHandler: NewBaseHandler(translator),
		service:     service,
	}
}

// Create links a user to a new sales person. Administrators only.
// POST /sales-persons
func (h *SalesPersonHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req crmapp.CreateSalesPersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	sp, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sp)
}

// GET /sales-persons/:id
func (h *SalesPersonHandler) GetByID(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	sp, err := h.service.GetByID(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sp)
}

// List returns a page of sales people, filtered by role and division.
// GET /sales-persons
func (h *SalesPersonHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}
	result, err := h.service.List(c.Request.Context(), actor, crmapp.SalesPersonListFilter{
		Filter:   filter,
		Role:     c.Query("role"),
		Division: c.Query("division"),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	List(&h.BaseHandler, c, result.Paginated, result.EmptyText)
}

// PUT /sales-persons/:id
func (h *SalesPersonHandler) Update(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req crmapp.UpdateSalesPersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	sp, err := h.service.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sp)
}

// DELETE /sales-persons/:id
func (h *SalesPersonHandler) Delete(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Card returns the labelled display fields of a sales person.
// GET /sales-persons/:id/card
func (h *SalesPersonHandler) Card(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	card, err := h.service.Card(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, card)
}

// UploadAvatar replaces the photo of a sales person.
// POST /sales-persons/:id/avatar (multipart, field "avatar")
func (h *SalesPersonHandler) UploadAvatar(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	upload, ok := h.readAvatar(c)
	if !ok {
		return
	}
	sp, err := h.service.UploadAvatar(c.Request.Context(), actor, id, upload)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sp)
}
