package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	crmapp "github.com/crm/backend/internal/application/crm"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// avatarField is the multipart field of avatar uploads
const avatarField = "avatar"

// Optional query parameters. A present but malformed value is an
// INVALID_INPUT error bound to the parameter name.

func queryUUID(c *gin.Context, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, shared.NewFieldError("INVALID_INPUT", name, "Invalid UUID format")
	}
	return &id, nil
}

func queryDate(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(crmapp.DateLayout, raw)
	if err != nil {
		return nil, shared.NewFieldError("INVALID_INPUT", name, "Must match the format "+crmapp.DateLayout)
	}
	return &t, nil
}

func queryTime(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, shared.NewFieldError("INVALID_INPUT", name, "Must be an RFC 3339 timestamp")
	}
	return &t, nil
}

func queryBool(c *gin.Context, name string) (*bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, shared.NewFieldError("INVALID_INPUT", name, "Must be true or false")
	}
	return &b, nil
}

// readAvatar reads the uploaded image of a multipart request. Size and
// type are checked by the avatar store.
func (h *BaseHandler) readAvatar(c *gin.Context) (crmapp.AvatarUpload, bool) {
	header, err := c.FormFile(avatarField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeFileTooLarge, "Request body exceeds maximum allowed size")
			return crmapp.AvatarUpload{}, false
		}
		h.HandleError(c, shared.NewFieldError("INVALID_AVATAR", avatarField, "No file uploaded"))
		return crmapp.AvatarUpload{}, false
	}

	file, err := header.Open()
	if err != nil {
		h.HandleError(c, err)
		return crmapp.AvatarUpload{}, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.HandleError(c, err)
		return crmapp.AvatarUpload{}, false
	}
	return crmapp.AvatarUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, true
}
