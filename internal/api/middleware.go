package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"fittrack/backend/internal/domain"
	"fittrack/backend/internal/dualstore"
	"fittrack/backend/internal/service"
	"fittrack/backend/internal/stats"
)

// Context key for the authenticated principal.
const ContextPrincipalKey = "principal"

// AuthMiddleware validates the bearer token and stores the principal in the
// request context. When the token does not carry the relational user id and
// the relational store is active, the full user record is loaded once here
// so downstream identity resolution has something to work with.
func AuthMiddleware(auth service.AuthService, users service.UserService, mode dualstore.Mode, logger zerolog.Logger) gin.HandlerFunc {
	log := logger.With().Str("component", "auth-middleware").Logger()
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header is missing")
			return
		}
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}

		principal, err := auth.ParseToken(parts[1])
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		if principal.ID == "" || principal.Role == "" {
			abortWithError(c, http.StatusUnauthorized, "Invalid token or missing claims")
			return
		}

		if mode.UsesMySQL() && principal.MySQLID == 0 {
			user, err := users.Current(c.Request.Context(), principal)
			if err != nil {
				// The resolver downstream raises the definitive error.
				log.Warn().Err(err).Str("user", principal.Username).Msg("could not preload current user")
			} else {
				principal.CurrentUser = user
			}
		}

		c.Set(ContextPrincipalKey, principal)
		c.Next()
	}
}

// principalFrom extracts the authenticated principal set by AuthMiddleware.
func principalFrom(c *gin.Context) (dualstore.Principal, bool) {
	raw, exists := c.Get(ContextPrincipalKey)
	if !exists {
		return dualstore.Principal{}, false
	}
	p, ok := raw.(dualstore.Principal)
	return p, ok
}

// RoleMiddleware restricts a route to the given roles. Must run after
// AuthMiddleware.
func RoleMiddleware(allowedRoles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principalFrom(c)
		if !ok {
			abortWithError(c, http.StatusInternalServerError, "Principal not found in context")
			return
		}
		for _, role := range allowedRoles {
			if p.Role == role {
				c.Next()
				return
			}
		}
		abortWithError(c, http.StatusForbidden, "Insufficient permissions")
	}
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// respondError maps the error taxonomy onto status codes. Store-level
// failures never reach here; they were absorbed into per-store outcomes.
func respondError(c *gin.Context, err error) {
	switch {
	case domain.IsValidation(err):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		abortWithError(c, http.StatusNotFound, "record not found")
	case errors.Is(err, domain.ErrConflict), errors.Is(err, service.ErrUserAlreadyExists):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrAuthenticationFailed), domain.IsResolution(err):
		abortWithError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, stats.ErrUnavailable):
		abortWithError(c, http.StatusBadGateway, err.Error())
	case errors.Is(err, service.ErrInsufficientData):
		abortWithError(c, http.StatusUnprocessableEntity, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
