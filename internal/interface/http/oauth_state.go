package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/meeting-summarizer/internal/domain/auth"
)

const (
	oauthStateCookieName = "oauth_state"
	oauthStateMaxAge     = 300
)

func setOAuthStateCookie(c *gin.Context, sealed string) {
	secure := c.Request.TLS != nil
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookieName, sealed, oauthStateMaxAge, "/", "", secure, true)
}

func clearOAuthStateCookie(c *gin.Context) {
	secure := c.Request.TLS != nil
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookieName, "", -1, "/", "", secure, true)
}

func readOAuthStateCookie(c *gin.Context, svc auth.Service) (auth.OAuthState, bool) {
	value, err := c.Cookie(oauthStateCookieName)
	if err != nil || value == "" {
		return auth.OAuthState{}, false
	}
	state, err := svc.OpenOAuthState(value)
	if err != nil {
		return auth.OAuthState{}, false
	}
	return state, true
}
