package handler

import (
	crmapp "github.com/crm/backend/internal/application/crm"
	"github.com/crm/backend/internal/infrastructure/i18n"
	"github.com/gin-gonic/gin"
)

// CustomerHandler handles customer API endpoints
type CustomerHandler struct {
	BaseHandler
	service *crmapp.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(service *crmapp.CustomerService, translator *i18n.Translator) *CustomerHandler {
	return &CustomerHandler{
		BaseHandler: NewBaseHandler(translator),
		service:     service,
	}
}

// Create adds a customer. Without sales_person_id the caller's sales person
// becomes the owner.
// POST /customers
func (h *CustomerHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req crmapp.CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	customer, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, customer)
}

// GET /customers/:id
func (h *CustomerHandler) GetByID(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	customer, err := h.service.GetByID(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}

// List returns a page of customers filtered by owner and status.
// GET /customers
func (h *CustomerHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}
	salesPersonID, err := queryUUID(c, "sales_person_id")
	if err != nil {
		h.HandleError(c, err)
		return
	}

	result, err := h.service.List(c.Request.Context(), actor, crmapp.CustomerListFilter{
		Filter:        filter,
		SalesPersonID: salesPersonID,
		Status:        c.Query("status"),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	List(&h.BaseHandler, c, result.Paginated, result.EmptyText)
}

// PUT /customers/:id
func (h *CustomerHandler) Update(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req crmapp.CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	customer, err := h.service.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}

// DELETE /customers/:id
func (h *CustomerHandler) Delete(c *gin.Context) {
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

// POST /customers/:id/avatar
func (h *CustomerHandler) UploadAvatar(c *gin.Context) {
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
	customer, err := h.service.UploadAvatar(c.Request.Context(), actor, id, upload)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}
