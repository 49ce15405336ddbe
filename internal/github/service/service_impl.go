package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/reposcribe/reposcribe/internal/config"
	"github.com/reposcribe/reposcribe/internal/github/domain"
	"go.uber.org/zap"
)

type Service struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

func New(cfg config.GitHubConfig, log *zap.Logger) domain.Service {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Service{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log.Named("github.service"),
	}
}

type apiRepo struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	FullName    string     `json:"full_name"`
	Description string     `json:"description"`
	HTMLURL     string     `json:"html_url"`
	CloneURL    string     `json:"clone_url"`
	Private     bool       `json:"private"`
	Fork        bool       `json:"fork"`
	Language    string     `json:"language"`
	Stars       int        `json:"stargazers_count"`
	Forks       int        `json:"forks_count"`
	OpenIssues  int        `json:"open_issues_count"`
	Branch      string     `json:"default_branch"`
	CreatedAt   *time.Time `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
	PushedAt    *time.Time `json:"pushed_at"`
	Owner       struct {
		Login string `json:"login"`
	} `json:"owner"`
}

func (r apiRepo) normalize() domain.Repo {
	return domain.Repo{
		ID:            r.ID,
		Name:          r.Name,
		FullName:      r.FullName,
		Owner:         r.Owner.Login,
		Description:   r.Description,
		HTMLURL:       r.HTMLURL,
		CloneURL:      r.CloneURL,
		Private:       r.Private,
		Fork:          r.Fork,
		Language:      r.Language,
		Stars:         r.Stars,
		Forks:         r.Forks,
		OpenIssues:    r.OpenIssues,
		DefaultBranch: r.Branch,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		PushedAt:      r.PushedAt,
	}
}

func (s *Service) ListRepos(ctx context.Context, token string, req domain.ListReposRequest) ([]domain.Repo, error) {
	page := req.Page
	if page <= 0 {
		page = 1
	}
	perPage := req.PerPage
	if perPage <= 0 || perPage > 100 {
		perPage = 30
	}
	sort := normalizeEnum(req.Sort, "updated", "created", "updated", "pushed", "full_name")
	repoType := normalizeEnum(req.Type, "all", "all", "owner", "public", "private", "member")

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(perPage))
	query.Set("sort", sort)
	query.Set("type", repoType)

	var raw []apiRepo
	if err := s.get(ctx, token, "/user/repos?"+query.Encode(), &raw); err != nil {
		return nil, err
	}

	repos := make([]domain.Repo, 0, len(raw))
	for _, r := range raw {
		repos = append(repos, r.normalize())
	}
	return repos, nil
}

// GetRepoByID uses the direct repository-by-id endpoint rather than scanning
// the user's repository list.
func (s *Service) GetRepoByID(ctx context.Context, token string, repoID int64) (*domain.Repo, error) {
	var raw apiRepo
	if err := s.get(ctx, token, fmt.Sprintf("/repositories/%d", repoID), &raw); err != nil {
		return nil, err
	}
	repo := raw.normalize()
	return &repo, nil
}

type apiCommit struct {
	SHA     string `json:"sha"`
	HTMLURL string `json:"html_url"`
	Commit  struct {
		Message string `json:"message"`
		Author  struct {
			Name string     `json:"name"`
			Date *time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
	Author struct {
		Login string `json:"login"`
	} `json:"author"`
}

func (s *Service) ListCommits(ctx context.Context, token, owner, repo string, perPage int) ([]domain.Commit, error) {
	if perPage <= 0 || perPage > 100 {
		perPage = 20
	}

	var raw []apiCommit
	path := fmt.Sprintf("/repos/%s/%s/commits?per_page=%d", url.PathEscape(owner), url.PathEscape(repo), perPage)
	if err := s.get(ctx, token, path, &raw); err != nil {
		return nil, err
	}

	commits := make([]domain.Commit, 0, len(raw))
	for _, c := range raw {
		commits = append(commits, domain.Commit{
			SHA:         c.SHA,
			Message:     c.Commit.Message,
			AuthorName:  c.Commit.Author.Name,
			AuthorLogin: c.Author.Login,
			AuthoredAt:  c.Commit.Author.Date,
			HTMLURL:     c.HTMLURL,
		})
	}
	return commits, nil
}

func (s *Service) GetContents(ctx context.Context, token, owner, repo, path string) ([]domain.Content, error) {
	endpoint := fmt.Sprintf("/repos/%s/%s/contents/%s", url.PathEscape(owner), url.PathEscape(repo), path)

	// The contents endpoint returns an object for files and an array for
	// directories.
	var raw json.RawMessage
	if err := s.get(ctx, token, endpoint, &raw); err != nil {
		return nil, err
	}

	var entries []domain.Content
	if err := json.Unmarshal(raw, &entries); err == nil {
		return entries, nil
	}

	var single domain.Content
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, fmt.Errorf("%w: unexpected contents payload", domain.ErrUpstream)
	}
	return []domain.Content{single}, nil
}

func (s *Service) get(ctx context.Context, token, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "token "+token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return domain.ErrBadToken
	case resp.StatusCode == http.StatusForbidden, resp.StatusCode == http.StatusTooManyRequests:
		// GitHub reports primary rate limiting as 403 with a zeroed
		// remaining quota.
		if resp.StatusCode == http.StatusTooManyRequests || resp.Header.Get("X-RateLimit-Remaining") == "0" {
			return domain.ErrRateLimited
		}
		return domain.ErrBadToken
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrRepositoryNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		s.log.Warn("github api error", zap.String("path", path), zap.Int("status", resp.StatusCode))
		return fmt.Errorf("%w: status %d", domain.ErrUpstream, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func normalizeEnum(value, def string, allowed ...string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, a := range allowed {
		if value == a {
			return value
		}
	}
	return def
}
