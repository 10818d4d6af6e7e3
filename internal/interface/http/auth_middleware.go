package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/meeting-summarizer/internal/domain/auth"
	apperrors "github.com/yanqian/meeting-summarizer/pkg/errors"
)

const msgAuthRequired = "Authentication required"

// sessionMiddleware admits requests carrying a valid session cookie or bearer token.
func sessionMiddleware(svc auth.Service, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c, cookieName)
		if token == "" {
			abortWithError(c, NewHTTPError(http.StatusUnauthorized, apperrors.CodeUnauthorized, msgAuthRequired, nil))
			return
		}
		claims, err := svc.ValidateSession(c.Request.Context(), token)
		if err != nil {
			abortWithError(c, fromAppError(err))
			return
		}
		setSessionClaims(c, claims)
		c.Next()
	}
}

func sessionToken(c *gin.Context, cookieName string) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if value, err := c.Cookie(cookieName); err == nil {
		return strings.TrimSpace(value)
	}
	return ""
}

func setSessionCookie(c *gin.Context, name string, session auth.Session, maxAge int) {
	secure := c.Request.TLS != nil
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, session.Token, maxAge, "/", "", secure, true)
}

func clearSessionCookie(c *gin.Context, name string) {
	secure := c.Request.TLS != nil
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, "", -1, "/", "", secure, true)
}
