package domain

import (
	"context"
	"errors"
)

// ListReposRequest carries the passthrough pagination/sort/type filters of
// the hosting API.
type ListReposRequest struct {
	Page    int
	PerPage int
	Sort    string // created, updated, pushed, full_name
	Type    string // all, owner, public, private, member
}

// Service resolves repository metadata for a user-supplied access token.
type Service interface {
	ListRepos(ctx context.Context, token string, req ListReposRequest) ([]Repo, error)
	GetRepoByID(ctx context.Context, token string, repoID int64) (*Repo, error)
	ListCommits(ctx context.Context, token, owner, repo string, perPage int) ([]Commit, error)
	GetContents(ctx context.Context, token, owner, repo, path string) ([]Content, error)
}

var (
	ErrBadToken           = errors.New("github_bad_token")
	ErrRateLimited        = errors.New("github_rate_limited")
	ErrRepositoryNotFound = errors.New("github_repository_not_found")
	ErrUpstream           = errors.New("github_upstream_error")
)
