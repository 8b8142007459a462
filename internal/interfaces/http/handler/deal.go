package handler

import (
	crmapp "github.com/crm/backend/internal/application/crm"
	"github.com/crm/backend/internal/infrastructure/i18n"
	"github.com/gin-gonic/gin"
)

// SetDealProductQtyRequest changes the quantity of a deal line
type SetDealProductQtyRequest struct {
	Qty int `json:"qty" binding:"required,min=1"`
}

// DealHandler handles deal endpoints including lines and status history
type DealHandler struct {
	BaseHandler
	service *crmapp.DealService
}

// NewDealHandler creates a new DealHandler
func NewDealHandler(service *crmapp.DealService, translator *i18n.Translator) *DealHandler {
	return &DealHandler{
		BaseHandler: NewBaseHandler(translator),
		service:     service,
	}
}

// POST /deals
func (h *DealHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req crmapp.DealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	deal, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, deal)
}

// GET /deals/:id
func (h *DealHandler) GetByID(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	deal, err := h.service.GetByID(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, deal)
}

// List returns a page of deals filtered by owner, customer, status and
// deal date range (date_from and date_to as YYYY-MM-DD).
// GET /deals
func (h *DealHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}
	query := crmapp.DealListFilter{Filter: filter, Status: c.Query("status")}
	var err error
	if query.SalesPersonID, err = queryUUID(c, "sales_person_id"); err != nil {
		h.HandleError(c, err)
		return
	}
	if query.CustomerID, err = queryUUID(c, "customer_id"); err != nil {
		h.HandleError(c, err)
		return
	}
	if query.DateFrom, err = queryDate(c, "date_from"); err != nil {
		h.HandleError(c, err)
		return
	}
	if query.DateTo, err = queryDate(c, "date_to"); err != nil {
		h.HandleError(c, err)
		return
	}

	result, err := h.service.List(c.Request.Context(), actor, query)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	List(&h.BaseHandler, c, result.Paginated, result.EmptyText)
}

// PUT /deals/:id
func (h *DealHandler) Update(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req crmapp.DealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	deal, err := h.service.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, deal)
}

// DELETE /deals/:id
func (h *DealHandler) Delete(c *gin.Context) {
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

// AddProduct adds a product line, or raises the quantity of an existing one.
// POST /deals/:id/products
func (h *DealHandler) AddProduct(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req crmapp.AddDealProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	deal, err := h.service.AddProduct(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, deal)
}

// PUT /deals/:id/products/:product_id
func (h *DealHandler) SetProductQty(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	productID, ok := h.pathID(c, "product_id")
	if !ok {
		return
	}
	var req SetDealProductQtyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	deal, err := h.service.SetProductQty(c.Request.Context(), actor, id, productID, req.Qty)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, deal)
}

// DELETE /deals/:id/products/:product_id
func (h *DealHandler) RemoveProduct(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	productID, ok := h.pathID(c, "product_id")
	if !ok {
		return
	}
	deal, err := h.service.RemoveProduct(c.Request.Context(), actor, id, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, deal)
}

// ChangeStatus records a new status of the deal.
// POST /deals/:id/status
func (h *DealHandler) ChangeStatus(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req crmapp.ChangeDealStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	deal, err := h.service.ChangeStatus(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, deal)
}

// History lists the status changes of a deal, oldest first.
// GET /deals/:id/history
func (h *DealHandler) History(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	history, err := h.service.History(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, history)
}
