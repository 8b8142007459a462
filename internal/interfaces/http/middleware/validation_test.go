package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/crm/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type productForm struct {
	SKU         int64  `json:"sku" binding:"required,gt=0"`
	Description string `json:"description" binding:"required,max=10"`
	Email       string `json:"contact_email" binding:"omitempty,email"`
}

func TestValidationDetails_UsesJSONNames(t *testing.T) {
	SetupValidator()

	var details []dto.ValidationDetail
	router := gin.New()
	router.POST("/products", func(c *gin.Context) {
		var form productForm
		err := c.ShouldBindJSON(&form)
		require.Error(t, err)
		details = ValidationDetails(err)
		c.Status(http.StatusBadRequest)
	})

	body := `{"sku":0,"description":"far too long a description","contact_email":"nope"}`
	serve(router, httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(body)))

	require.Len(t, details, 3)
	assert.Equal(t, dto.ValidationDetail{Field: "sku", Message: "This field is required"}, details[0])
	assert.Equal(t, dto.ValidationDetail{Field: "description", Message: "Must be at most 10 characters"}, details[1])
	assert.Equal(t, "contact_email", details[2].Field)
	assert.Equal(t, "Invalid email format", details[2].Message)
}

func TestValidationDetails_NotAValidationError(t *testing.T) {
	assert.Nil(t, ValidationDetails(errors.New("unexpected EOF")))
}
