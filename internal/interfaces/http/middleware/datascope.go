package middleware

import (
	"github.com/crm/backend/internal/infrastructure/persistence/datascope"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DataScopeMiddleware puts the data scope of the caller into the request
// context. Administrators see the whole tenant, everybody else the rows of
// their own sales person. A non-admin token without a sales person gets a
// scope that matches no row. Runs after JWTAuthMiddleware.
func DataScopeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			c.Next()
			return
		}

		scope := datascope.AllRows()
		if !claims.IsAdmin {
			id := uuid.Nil
			if sp := claims.GetSalesPersonUUID(); sp != nil {
				id = *sp
			}
			scope = datascope.ForSalesPerson(id)
		}
		c.Request = c.Request.WithContext(datascope.WithScope(c.Request.Context(), scope))
		c.Next()
	}
}
