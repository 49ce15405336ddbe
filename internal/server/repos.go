package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	ghdomain "github.com/reposcribe/reposcribe/internal/github/domain"
)

type repoContentsRequest struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
	Path  string `json:"path"`
}

func (s *Server) ListRepos(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	token, err := s.authsvc.TokenForUser(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "30"))
	repos, err := s.githubSvc.ListRepos(c.Request.Context(), token, ghdomain.ListReposRequest{
		Page:    page,
		PerPage: perPage,
		Sort:    c.DefaultQuery("sort", "updated"),
		Type:    c.DefaultQuery("type", "all"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"repos": repos})
}

func (s *Server) GetRepoContents(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req repoContentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request body"))
		return
	}
	if strings.TrimSpace(req.Owner) == "" || strings.TrimSpace(req.Repo) == "" {
		AbortWithError(c, newValidationError("repo", "missing_repo", "owner and repo are required"))
		return
	}

	token, err := s.authsvc.TokenForUser(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	contents, err := s.githubSvc.GetContents(c.Request.Context(), token, req.Owner, req.Repo, req.Path)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contents": contents})
}

func (s *Server) ListProjectCommits(c *gin.Context) {
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
	token, err := s.authsvc.TokenForUser(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	commits, err := s.githubSvc.ListCommits(c.Request.Context(), token, project.RepoOwner, project.RepoName, perPage)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"commits": commits})
}
