package domain

import "time"

// Repo is the normalized repository representation returned by the resolver.
type Repo struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	FullName      string     `json:"full_name"`
	Owner         string     `json:"owner"`
	Description   string     `json:"description"`
	HTMLURL       string     `json:"html_url"`
	CloneURL      string     `json:"clone_url"`
	Private       bool       `json:"private"`
	Fork          bool       `json:"fork"`
	Language      string     `json:"language"`
	Stars         int        `json:"stargazers_count"`
	Forks         int        `json:"forks_count"`
	OpenIssues    int        `json:"open_issues_count"`
	DefaultBranch string     `json:"default_branch"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
	PushedAt      *time.Time `json:"pushed_at,omitempty"`
}

// Commit is a single commit summary from the repository history.
type Commit struct {
	SHA         string     `json:"sha"`
	Message     string     `json:"message"`
	AuthorName  string     `json:"author_name"`
	AuthorLogin string     `json:"author_login"`
	AuthoredAt  *time.Time `json:"authored_at,omitempty"`
	HTMLURL     string     `json:"html_url"`
}

// Content is one entry of a repository directory listing or file.
type Content struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Type    string `json:"type"`
	Size    int64  `json:"size"`
	HTMLURL string `json:"html_url"`
}
