package auth

import (
	"errors"

	"optical-franchise/internal/api"
	apperrors "optical-franchise/internal/common/errors"

	"github.com/gin-gonic/gin"
)

// RequireSession resolves the session cookie and attaches the caller.
func RequireSession(store *Store, cookieName string, errHandler *apperrors.ErrorHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, err := c.Cookie(cookieName)
		if err != nil || value == "" {
			errHandler.Respond(c, apperrors.NewAuthenticationError("no session"))
			return
		}

		userID, sessionID, err := ParseCookieValue(value)
		if err != nil {
			errHandler.Respond(c, apperrors.NewAuthenticationError(err.Error()))
			return
		}

		session, err := store.Get(c.Request.Context(), userID, sessionID)
		if err != nil {
			if errors.Is(err, ErrSessionNotFound) {
				errHandler.Respond(c, apperrors.NewAuthenticationError("session expired"))
				return
			}
			errHandler.Respond(c, apperrors.NewExternalServiceError("redis", err))
			return
		}

		api.SetPrincipal(c, api.Principal{
			UserID:    session.UserID,
			Email:     session.Email,
			Name:      session.Name,
			Role:      session.Role,
			SessionID: session.ID,
		})
		c.Next()
	}
}

// OptionalSession attaches the caller when a valid session cookie is present
// and otherwise lets the request through anonymously.
func OptionalSession(store *Store, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, err := c.Cookie(cookieName)
		if err != nil || value == "" {
			c.Next()
			return
		}
		userID, sessionID, err := ParseCookieValue(value)
		if err != nil {
			c.Next()
			return
		}
		if session, err := store.Get(c.Request.Context(), userID, sessionID); err == nil {
			api.SetPrincipal(c, api.Principal{
				UserID:    session.UserID,
				Email:     session.Email,
				Name:      session.Name,
				Role:      session.Role,
				SessionID: session.ID,
			})
		}
		c.Next()
	}
}

// RequireRole must run after RequireSession.
func RequireRole(errHandler *apperrors.ErrorHandler, roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		principal, ok := api.PrincipalFrom(c)
		if !ok {
			errHandler.Respond(c, apperrors.NewAuthenticationError("no session"))
			return
		}
		if !allowed[principal.Role] {
			errHandler.Respond(c, apperrors.NewForbiddenError("role "+principal.Role+" may not access this resource"))
			return
		}
		c.Next()
	}
}
