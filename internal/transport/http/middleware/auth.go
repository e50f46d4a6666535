package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arklim/campus-records/internal/core/domain"
	"github.com/arklim/campus-records/internal/infra/logger"
	"github.com/arklim/campus-records/internal/usecase"
)

const (
	principalKey = "principal"
	sessionKey   = "session"
)

// ErrorResponse matches the handlers.ErrorResponse structure
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

func newErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		TraceID: GetTraceID(c),
	}
}

// PrincipalResolver maps a session token to the principal behind it.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, token string) (domain.Principal, *domain.Session, error)
}

// RequireSession resolves the caller from a Bearer token or the session
// cookie and aborts with 401 when neither yields a live session.
func RequireSession(resolver PrincipalResolver, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := SessionToken(c, cookieName)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, newErrorResponse(c, "authentication required"))
			return
		}

		principal, session, err := resolver.ResolvePrincipal(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, usecase.ErrInvalidSession):
				c.AbortWithStatusJSON(http.StatusUnauthorized, newErrorResponse(c, "invalid or expired session"))
			case errors.Is(err, usecase.ErrInactiveAccount):
				c.AbortWithStatusJSON(http.StatusUnauthorized, newErrorResponse(c, "account is not active"))
			default:
				_ = c.Error(err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, newErrorResponse(c, "authentication failed"))
			}
			return
		}

		c.Set(principalKey, principal)
		c.Set(sessionKey, session)
		GetRequestContext(c).PrincipalID = principal.ID
		c.Request = c.Request.WithContext(logger.WithPrincipalID(c.Request.Context(), principal.ID))

		c.Next()
	}
}

// SessionToken extracts the token from "Authorization: Bearer" or, failing
// that, from the named cookie.
func SessionToken(c *gin.Context, cookieName string) (string, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") {
			return "", false
		}
		token = strings.TrimSpace(token)
		return token, token != ""
	}

	if cookieName == "" {
		return "", false
	}
	token, err := c.Cookie(cookieName)
	if err != nil || token == "" {
		return "", false
	}
	return token, true
}

// CurrentPrincipal returns the principal resolved by RequireSession.
func CurrentPrincipal(c *gin.Context) (domain.Principal, bool) {
	value, exists := c.Get(principalKey)
	if !exists {
		return domain.Principal{}, false
	}
	principal, ok := value.(domain.Principal)
	return principal, ok
}
