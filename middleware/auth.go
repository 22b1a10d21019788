package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gatherhub/venue-events-backend/config"
	"github.com/gatherhub/venue-events-backend/internal/auth"
)

const identityKey = "identity"

// Alternate header names some clients use for the bearer token; treated as
// equivalent aliases of Authorization
var tokenHeaderAliases = []string{"X-User-Token", "X-Original-Authorization"}

// bearerToken extracts the raw token from the request, trying Authorization
// first and the alias headers after
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		for _, alias := range tokenHeaderAliases {
			if v := c.GetHeader(alias); v != "" {
				header = v
				break
			}
		}
	}
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	// Alias headers may carry the bare token
	return header
}

// AuthRequired rejects requests without a resolvable identity
func AuthRequired(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			return
		}

		identity, err := auth.ParseIdentity(token, cfg.JWTSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// AuthOptional resolves an identity when a token is present but lets
// anonymous requests through; handlers downgrade to published-only
// visibility for them
func AuthOptional(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if identity, err := auth.ParseIdentity(token, cfg.JWTSecret); err == nil {
				c.Set(identityKey, identity)
			}
		}
		c.Next()
	}
}

// IdentityFromContext returns the resolved identity, or nil for anonymous
// callers
func IdentityFromContext(c *gin.Context) *auth.Identity {
	v, exists := c.Get(identityKey)
	if !exists {
		return nil
	}
	identity, ok := v.(*auth.Identity)
	if !ok {
		return nil
	}
	return identity
}
