package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/opencampus/registrar-api/internal/middleware"
	"github.com/opencampus/registrar-api/internal/models"
)

// claimsFromContext returns the authenticated actor, or nil outside the
// JWT middleware. Services treat nil as an anonymous caller and deny
// accordingly, so handlers just pass it through.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, ok := c.Get(middleware.ContextUserKey)
	if !ok {
		return nil
	}
	claims, _ := value.(*models.JWTClaims)
	return claims
}
