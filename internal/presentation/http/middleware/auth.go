package middleware

import (
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/seedledger-api/internal/presentation/http/dto/response"
	"github.com/sangkips/seedledger-api/pkg/utils"
)

// Context keys set by AuthMiddleware
const (
	ActorIDKey    = "actor_id"
	ActorNameKey  = "actor_name"
	ActorRolesKey = "actor_roles"
)

// Capabilities checked by the routes
const (
	CapSalesWrite       = "sales:write"
	CapPaymentsWrite    = "payments:write"
	CapStockWrite       = "stock:write"
	CapOverpaymentWrite = "overpayments:write"
	CapOverpaymentAdmin = "overpayments:admin"
	CapCatalogWrite     = "catalog:write"
	CapLedgerRead       = "ledger:read"
)

// Policy maps a role to the capabilities it grants. It is loaded from
// configuration; the service holds no permission catalog of its own.
type Policy map[string][]string

// Allows reports whether any of roles grants capability
func (p Policy) Allows(roles []string, capability string) bool {
	for _, role := range roles {
		if slices.Contains(p[role], capability) {
			return true
		}
	}
	return false
}

// AuthMiddleware creates a JWT authentication middleware
func AuthMiddleware(jwtManager *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "Authorization header is required")
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			response.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateAccessToken(parts[1])
		if err != nil {
			response.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ActorIDKey, claims.UserID)
		c.Set(ActorNameKey, claims.Name)
		c.Set(ActorRolesKey, claims.Roles)

		c.Next()
	}
}

// RequireCapability rejects actors none of whose roles grant capability
func RequireCapability(policy Policy, capability string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roles, _ := c.Get(ActorRolesKey)
		list, _ := roles.([]string)

		if !policy.Allows(list, capability) {
			response.Forbidden(c, "You do not have permission to perform this action")
			c.Abort()
			return
		}

		c.Next()
	}
}

// actorID returns the authenticated actor, uuid.Nil when there is none
func actorID(c *gin.Context) uuid.UUID {
	v, exists := c.Get(ActorIDKey)
	if !exists {
		return uuid.Nil
	}
	id, _ := v.(uuid.UUID)
	return id
}
