package handler

import (
	"context"

	crmapp "github.com/crm/backend/internal/application/crm"
	"github.com/crm/backend/internal/infrastructure/i18n"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TodoHandler handles the planned actions of sales people
type TodoHandler struct {
	BaseHandler
	service *crmapp.TodoService
}

// NewTodoHandler creates a new TodoHandler
func NewTodoHandler(service *crmapp.TodoService, translator *i18n.Translator) *TodoHandler {
	return &TodoHandler{
		BaseHandler: NewBaseHandler(translator),
		service:     service,
	}
}

// POST /todos
func (h *TodoHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req crmapp.TodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	todo, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, todo)
}

// GET /todos/:id
func (h *TodoHandler) GetByID(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	todo, err := h.service.GetByID(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, todo)
}

// List returns todos ordered by due time. due_from and due_to are RFC 3339
// timestamps; done filters by state.
// GET /todos
func (h *TodoHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}
	query := crmapp.TodoListFilter{Filter: filter, Action: c.Query("action")}
	var err error
	if query.SalesPersonID, err = queryUUID(c, "sales_person_id"); err != nil {
		h.HandleError(c, err)
		return
	}
	if query.Done, err = queryBool(c, "done"); err != nil {
		h.HandleError(c, err)
		return
	}
	if query.DueFrom, err = queryTime(c, "due_from"); err != nil {
		h.HandleError(c, err)
		return
	}
	if query.DueTo, err = queryTime(c, "due_to"); err != nil {
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

// PUT /todos/:id
func (h *TodoHandler) Update(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req crmapp.TodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	todo, err := h.service.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, todo)
}

// DELETE /todos/:id
func (h *TodoHandler) Delete(c *gin.Context) {
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

// POST /todos/:id/complete
func (h *TodoHandler) Complete(c *gin.Context) {
	h.transition(c, h.service.Complete)
}

// POST /todos/:id/reopen
func (h *TodoHandler) Reopen(c *gin.Context) {
	h.transition(c, h.service.Reopen)
}

func (h *TodoHandler) transition(c *gin.Context, apply func(ctx context.Context, actor crmapp.Actor, id uuid.UUID) (*crmapp.TodoResponse, error)) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	todo, err := apply(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, todo)
}
