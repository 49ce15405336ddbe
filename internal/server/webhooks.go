package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ReportDelivered is the execution-service callback fired after a report
// email goes out. It bumps the delivery counter and activity log.
func (s *Server) ReportDelivered(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	project, err := s.projectSvc.RecordEmailSent(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"emails_sent": project.EmailsSent})
}
