package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/reposcribe/reposcribe/internal/usercontext"
)

func currentUserID(c *gin.Context) (snowflake.ID, bool) {
	if id, ok := usercontext.UserIDFromContext(c.Request.Context()); ok {
		return id, true
	}
	raw, ok := c.Get(contextUserIDKey)
	if !ok {
		return 0, false
	}
	str, ok := raw.(string)
	if !ok {
		return 0, false
	}
	id, err := snowflake.ParseString(str)
	if err != nil {
		return 0, false
	}
	return id, true
}

func parseIDParam(c *gin.Context, name string) (snowflake.ID, error) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := snowflake.ParseString(raw)
	if err != nil || id == 0 {
		return 0, newValidationError(name, "invalid_id", "invalid identifier")
	}
	return id, nil
}
