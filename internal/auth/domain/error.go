package domain

import "errors"

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrInvalidSession = errors.New("invalid_session")
	ErrSessionExpired = errors.New("session_expired")
	ErrSessionRevoked = errors.New("session_revoked")
	ErrUserNotFound   = errors.New("user_not_found")
	ErrNoToken        = errors.New("no_provider_token")
	ErrOAuthExchange  = errors.New("oauth_exchange_failed")
)
