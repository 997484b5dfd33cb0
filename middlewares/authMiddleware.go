package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/venturatrading/commerce_backend/models"
	"github.com/venturatrading/commerce_backend/utils"
)

// AuthMiddleware validates the bearer token when one is present and stashes
// the account identity in the request context. Requests without a token pass
// through; the Require* guards reject them at protected routes.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.Request.Header.Get("Authorization")

		if auth == "" {
			c.Next()
			return
		}

		bearer := "Bearer "
		if !strings.HasPrefix(auth, bearer) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		auth = auth[len(bearer):]

		validate, err := utils.JwtValidate(auth)
		if err != nil || !validate.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		customClaim, _ := validate.Claims.(*utils.JwtCustomClaim)

		user, err := utils.FetchModel[models.User](c.Request.Context(), customClaim.ID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		ctx := utils.SetUserIdInContext(c.Request.Context(), user.ID)
		ctx = utils.SetUserNameInContext(ctx, user.Username)
		ctx = utils.SetRoleInContext(ctx, string(user.Role))
		if user.CustomerId > 0 {
			ctx = utils.SetCustomerIdInContext(ctx, user.CustomerId)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireAuth rejects requests that carry no authenticated account.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := utils.GetUserIdFromContext(c.Request.Context()); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects requests from non-staff accounts.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := utils.GetRoleFromContext(c.Request.Context())
		if !ok || role != string(models.UserRoleAdmin) {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireCustomer rejects requests from accounts with no linked customer.
func RequireCustomer() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := utils.GetCustomerIdFromContext(c.Request.Context()); !ok {
			c.JSON(http.StatusForbidden, gin.H{"error": "customer access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// CorrelationMiddleware propagates X-Correlation-Id, minting one when the
// caller sends none, and echoes it on the response.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := utils.SetCorrelationIdInContext(c.Request.Context(), c.Request.Header.Get("X-Correlation-Id"))
		correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
		c.Header("X-Correlation-Id", correlationId)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
