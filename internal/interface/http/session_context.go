package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/meeting-summarizer/internal/domain/auth"
	apperrors "github.com/yanqian/meeting-summarizer/pkg/errors"
)

const sessionClaimsKey = "session_claims"

func setSessionClaims(c *gin.Context, claims auth.Claims) {
	c.Set(sessionClaimsKey, claims)
}

func sessionClaims(c *gin.Context) (auth.Claims, bool) {
	value, ok := c.Get(sessionClaimsKey)
	if !ok {
		return auth.Claims{}, false
	}
	claims, ok := value.(auth.Claims)
	return claims, ok
}

// summaryOwner resolves the history owner of the request, the session email.
// It aborts with 401 when there is none.
func summaryOwner(c *gin.Context) (string, bool) {
	claims, ok := sessionClaims(c)
	if !ok || claims.Email == "" {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, apperrors.CodeUnauthorized, msgAuthRequired, nil))
		return "", false
	}
	return claims.Email, true
}
