package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/medora-hq/roster-api/internal/middleware"
	"github.com/medora-hq/roster-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// actorFromContext extracts the acting user id plus request metadata
// recorded in the audit trail.
func actorFromContext(c *gin.Context) (actorID, ip, userAgent string) {
	if claims := claimsFromContext(c); claims != nil {
		actorID = claims.UserID
	}
	return actorID, c.ClientIP(), c.GetHeader("User-Agent")
}

// parseBoolQuery returns the query value as *bool, or nil when the
// parameter is absent or not a recognised boolean literal.
func parseBoolQuery(c *gin.Context, name string) *bool {
	switch c.Query(name) {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	}
	return nil
}
