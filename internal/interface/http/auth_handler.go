package http

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/meeting-summarizer/internal/domain/auth"
	apperrors "github.com/yanqian/meeting-summarizer/pkg/errors"
)

// AuthHandler serves the Google sign-in flow and the session endpoints.
type AuthHandler struct {
	svc        auth.Service
	cookieName string
}

// NewAuthHandler constructs the auth transport.
func NewAuthHandler(svc auth.Service, cookieName string) *AuthHandler {
	if cookieName == "" {
		cookieName = "session"
	}
	return &AuthHandler{svc: svc, cookieName: cookieName}
}

// GoogleLogin redirects the browser to Google with a PKCE challenge.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	state, verifier, challenge, err := auth.NewOAuthState()
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, apperrors.CodeInternal, "failed to start sign-in", err))
		return
	}
	url, err := h.svc.GoogleAuthURL(c.Request.Context(), state, challenge)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	sealed, err := h.svc.SealOAuthState(auth.OAuthState{State: state, Verifier: verifier})
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	setOAuthStateCookie(c, sealed)
	c.Redirect(http.StatusFound, url)
}

// GoogleCallback completes the sign-in, sets the session cookie and redirects.
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	stored, ok := readOAuthStateCookie(c, h.svc)
	clearOAuthStateCookie(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, apperrors.CodeInvalidInput, "missing or expired oauth state", nil))
		return
	}
	if reason := c.Query("error"); reason != "" {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, apperrors.CodeUnauthorized, "google sign-in was cancelled", nil))
		return
	}
	if subtle.ConstantTimeCompare([]byte(stored.State), []byte(c.Query("state"))) != 1 {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, apperrors.CodeInvalidInput, "oauth state mismatch", nil))
		return
	}

	session, err := h.svc.GoogleCallback(c.Request.Context(), c.Query("code"), stored.Verifier)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	setSessionCookie(c, h.cookieName, session, int(h.svc.SessionTTL().Seconds()))
	c.Redirect(http.StatusFound, h.svc.PostLoginRedirectURL())
}

// Session returns the signed-in user.
func (h *AuthHandler) Session(c *gin.Context) {
	claims, ok := sessionClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, apperrors.CodeUnauthorized, msgAuthRequired, nil))
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": claims.User(), "expiresAt": claims.ExpiresAt})
}

// Logout revokes the presented session, if any, and clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	if token := sessionToken(c, h.cookieName); token != "" {
		if claims, err := h.svc.ValidateSession(c.Request.Context(), token); err == nil {
			if err := h.svc.Logout(c.Request.Context(), claims); err != nil {
				abortWithError(c, fromAppError(err))
				return
			}
		}
	}
	clearSessionCookie(c, h.cookieName)
	c.JSON(http.StatusOK, gin.H{"success": true})
}
