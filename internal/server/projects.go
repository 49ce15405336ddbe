package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	projectdomain "github.com/reposcribe/reposcribe/internal/project/domain"
	"github.com/reposcribe/reposcribe/pkg/db/pagination"
)

type createProjectRequest struct {
	RepoID         int64    `json:"repo_id"`
	AutomationType string   `json:"automation_type"`
	Frequency      string   `json:"frequency"`
	CustomSchedule string   `json:"custom_schedule"`
	Recipients     []string `json:"recipients"`
}

type updateProjectStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) ListProjects(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var p pagination.Pagination
	if err := c.ShouldBindQuery(&p); err != nil {
		AbortWithError(c, newValidationError("page_size", "invalid_pagination", "invalid pagination parameters"))
		return
	}

	projects, pageInfo, err := s.projectSvc.List(c.Request.Context(), userID, p)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects, "page_info": pageInfo})
}

func (s *Server) CreateProject(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request body"))
		return
	}
	if req.RepoID <= 0 {
		AbortWithError(c, newValidationError("repo_id", "invalid_repo_id", "repo_id is required"))
		return
	}

	project, err := s.projectSvc.Create(c.Request.Context(), userID, projectdomain.CreateRequest{
		RepoID:         req.RepoID,
		AutomationType: req.AutomationType,
		Frequency:      req.Frequency,
		CustomSchedule: req.CustomSchedule,
		Recipients:     req.Recipients,
	})
	if err != nil && !errors.Is(err, projectdomain.ErrSchedulingInconsistency) {
		AbortWithError(c, err)
		return
	}

	// A scheduling inconsistency is a partial success: the record exists and
	// carries the scheduling_error flag for the reconciler.
	c.JSON(http.StatusCreated, gin.H{"project": project})
}

func (s *Server) GetProject(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	project, err := s.projectSvc.Get(c.Request.Context(), userID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": project})
}

func (s *Server) UpdateProjectStatus(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req updateProjectStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("status", "invalid_request", "invalid request body"))
		return
	}

	project, err := s.projectSvc.UpdateStatus(c.Request.Context(), userID, id, req.Status)
	if err != nil && !errors.Is(err, projectdomain.ErrSchedulingInconsistency) {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": project})
}

func (s *Server) DeleteProject(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.projectSvc.Delete(c.Request.Context(), userID, id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (s *Server) RunProject(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	lastRun, err := s.projectSvc.ManualRun(c.Request.Context(), userID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"last_run": lastRun})
}

func (s *Server) Reconcile(c *gin.Context) {
	report, err := s.projectSvc.Reconcile(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}
