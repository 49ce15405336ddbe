package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/reposcribe/reposcribe/internal/auth/domain"
)

const sessionCookieMaxAge = 30 * 24 * 60 * 60

// GitHubLogin redirects the browser to the provider authorize page.
func (s *Server) GitHubLogin(c *gin.Context) {
	if s.cfg.GitHub.ClientID == "" {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	q := url.Values{}
	q.Set("client_id", s.cfg.GitHub.ClientID)
	q.Set("scope", "repo read:user user:email")

	authorizeURL := strings.TrimRight(s.cfg.GitHub.OAuthBaseURL, "/") + "/login/oauth/authorize?" + q.Encode()
	c.Redirect(http.StatusFound, authorizeURL)
}

func (s *Server) GitHubCallback(c *gin.Context) {
	code := strings.TrimSpace(c.Query("code"))
	if code == "" {
		AbortWithError(c, newValidationError("code", "missing_code", "authorization code is required"))
		return
	}

	result, err := s.authsvc.LoginWithGitHub(c.Request.Context(), authdomain.LoginRequest{
		Code:      code,
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, result.RawToken, sessionCookieMaxAge, "/", "", s.cfg.AuthCookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"user": result.User})
}

func (s *Server) Logout(c *gin.Context) {
	sid, err := c.Cookie(sessionCookieName)
	if err == nil && strings.TrimSpace(sid) != "" {
		if err := s.authsvc.Logout(c.Request.Context(), sid); err != nil {
			AbortWithError(c, err)
			return
		}
	}

	c.SetCookie(sessionCookieName, "", -1, "/", "", s.cfg.AuthCookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	user, err := s.authsvc.CurrentUser(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
