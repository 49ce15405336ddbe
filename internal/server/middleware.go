package server

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/reposcribe/reposcribe/internal/usercontext"
)

const (
	sessionCookieName = "reposcribe_session"
	contextUserIDKey  = "user_id"
	headerAPIKey      = "x-api-key"
)

// AuthRequired authenticates the session cookie and injects the user ID into
// both the gin context and the request context.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(sessionCookieName)
		if err != nil || strings.TrimSpace(sid) == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		session, err := s.authsvc.Authenticate(c.Request.Context(), sid)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextUserIDKey, session.UserID.String())
		c.Request = c.Request.WithContext(usercontext.WithUserID(c.Request.Context(), session.UserID))
		c.Next()
	}
}

// WebhookKeyRequired guards callback endpoints with the shared scheduler key.
func (s *Server) WebhookKeyRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(headerAPIKey))
		expected := s.cfg.CronJob.APIKey
		if expected == "" || subtle.ConstantTimeCompare([]byte(key), []byte(expected)) != 1 {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Next()
	}
}
