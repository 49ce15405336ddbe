// Package oauth implements the GitHub authorization-code exchange.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/reposcribe/reposcribe/internal/auth/domain"
	"github.com/reposcribe/reposcribe/internal/config"
	"go.uber.org/zap"
)

// ProviderGitHub is the identity provider name persisted on user_identities.
const ProviderGitHub = "github"

// ProviderUser is the profile returned by the provider after a successful
// code exchange.
type ProviderUser struct {
	ExternalID string
	Username   string
	Email      string
	AvatarURL  string
}

// Exchanger swaps an authorization code for an access token and resolves the
// provider profile behind it.
type Exchanger interface {
	Exchange(ctx context.Context, code string) (string, error)
	FetchUser(ctx context.Context, accessToken string) (*ProviderUser, error)
}

type githubExchanger struct {
	clientID     string
	clientSecret string
	oauthBaseURL string
	apiBaseURL   string
	httpClient   *http.Client
	log          *zap.Logger
}

// NewGitHub builds the production exchanger against github.com endpoints.
func NewGitHub(cfg config.GitHubConfig, log *zap.Logger) Exchanger {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &githubExchanger{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		oauthBaseURL: strings.TrimRight(cfg.OAuthBaseURL, "/"),
		apiBaseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:   &http.Client{Timeout: timeout},
		log:          log.Named("oauth.github"),
	}
}

func (e *githubExchanger) Exchange(ctx context.Context, code string) (string, error) {
	form := url.Values{}
	form.Set("client_id", e.clientID)
	form.Set("client_secret", e.clientSecret)
	form.Set("code", code)

	endpoint := e.oauthBaseURL + "/login/oauth/access_token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrOAuthExchange, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		e.log.Warn("token exchange rejected", zap.Int("status", resp.StatusCode))
		return "", domain.ErrOAuthExchange
	}

	var body struct {
		AccessToken string `json:"access_token"`
		Error       string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrOAuthExchange, err)
	}
	if body.Error != "" || body.AccessToken == "" {
		e.log.Warn("token exchange failed", zap.String("error", body.Error))
		return "", domain.ErrOAuthExchange
	}
	return body.AccessToken, nil
}

func (e *githubExchanger) FetchUser(ctx context.Context, accessToken string) (*ProviderUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.apiBaseURL+"/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "token "+accessToken)
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrOAuthExchange, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.ErrOAuthExchange
	}

	var body struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrOAuthExchange, err)
	}
	return &ProviderUser{
		ExternalID: strconv.FormatInt(body.ID, 10),
		Username:   body.Login,
		Email:      body.Email,
		AvatarURL:  body.AvatarURL,
	}, nil
}
