package handler

import (
	"github.com/crm/backend/internal/application/identity"
	"github.com/crm/backend/internal/infrastructure/i18n"
	"github.com/gin-gonic/gin"
)

// UserHandler serves the user administration of a tenant
type UserHandler struct {
	BaseHandler
	userService *identity.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService *identity.UserService, translator *i18n.Translator) *UserHandler {
	return &UserHandler{
		BaseHandler: NewBaseHandler(translator),
		userService: userService,
	}
}

// List returns the users of the tenant with their sales person.
// GET /users
func (h *UserHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}

	result, err := h.userService.List(c.Request.Context(), identity.ListUsersInput{
		TenantID:     actor.TenantID,
		ActorIsAdmin: actor.IsAdmin,
		Lang:         actor.Lang,
		Filter:       filter,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	List(&h.BaseHandler, c, result.Paginated, result.EmptyText)
}

// GET /users/:id
func (h *UserHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	user, err := h.userService.Get(c.Request.Context(), actor.TenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// Delete removes a user with their sales person and revokes their sessions.
// DELETE /users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	err := h.userService.Delete(c.Request.Context(), identity.DeleteUserInput{
		TenantID:     actor.TenantID,
		ActorID:      actor.UserID,
		ActorIsAdmin: actor.IsAdmin,
		UserID:       id,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
