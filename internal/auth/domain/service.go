package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// LoginRequest carries the OAuth callback parameters plus request metadata
// recorded on the session.
type LoginRequest struct {
	Code      string
	UserAgent string
	IPAddress string
}

// LoginResult is returned on a successful OAuth login. RawToken is the
// session cookie value; only its hash is persisted.
type LoginResult struct {
	User     User
	RawToken string
}

// Service owns sessions and the provider access-token lookup.
type Service interface {
	LoginWithGitHub(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Authenticate(ctx context.Context, rawToken string) (*Session, error)
	Logout(ctx context.Context, rawToken string) error
	CurrentUser(ctx context.Context, userID snowflake.ID) (*User, error)

	// TokenForUser resolves the stored GitHub access token for a user.
	// Returns ErrNoToken when the user has no linked identity.
	TokenForUser(ctx context.Context, userID snowflake.ID) (string, error)
}
