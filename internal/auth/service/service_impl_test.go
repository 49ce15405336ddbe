package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/reposcribe/reposcribe/internal/auth/domain"
	"github.com/reposcribe/reposcribe/internal/auth/oauth"
	"github.com/reposcribe/reposcribe/internal/auth/repository"
	"github.com/reposcribe/reposcribe/internal/clock"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fakeExchanger struct {
	token   string
	profile oauth.ProviderUser
	err     error
}

func (f *fakeExchanger) Exchange(ctx context.Context, code string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.token, nil
}

func (f *fakeExchanger) FetchUser(ctx context.Context, accessToken string) (*oauth.ProviderUser, error) {
	if f.err != nil {
		return nil, f.err
	}
	p := f.profile
	return &p, nil
}

func newTestService(t *testing.T, fc *clock.FakeClock, ex oauth.Exchanger) domain.Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_pragma=foreign_keys(1)"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.Session{}, &domain.UserIdentity{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	return New(Params{
		DB:        db,
		Log:       zap.NewNop(),
		GenID:     node,
		Clock:     fc,
		Repo:      repository.Provide(),
		Exchanger: ex,
	})
}

func TestLoginCreatesUserAndSession(t *testing.T) {
	fc := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	svc := newTestService(t, fc, &fakeExchanger{
		token:   "gh-token",
		profile: oauth.ProviderUser{ExternalID: "101", Username: "alice", Email: "alice@example.com"},
	})

	res, err := svc.LoginWithGitHub(context.Background(), domain.LoginRequest{Code: "abc"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.User.Username != "alice" || res.RawToken == "" {
		t.Fatalf("unexpected result %+v", res)
	}

	session, err := svc.Authenticate(context.Background(), res.RawToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if session.UserID != res.User.ID {
		t.Fatalf("session user mismatch")
	}

	token, err := svc.TokenForUser(context.Background(), res.User.ID)
	if err != nil {
		t.Fatalf("token for user: %v", err)
	}
	if token != "gh-token" {
		t.Fatalf("unexpected token %q", token)
	}
}

func TestLoginRefreshesStoredToken(t *testing.T) {
	fc := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	ex := &fakeExchanger{
		token:   "first",
		profile: oauth.ProviderUser{ExternalID: "101", Username: "alice"},
	}
	svc := newTestService(t, fc, ex)

	first, err := svc.LoginWithGitHub(context.Background(), domain.LoginRequest{Code: "a"})
	if err != nil {
		t.Fatalf("first login: %v", err)
	}

	ex.token = "second"
	if _, err := svc.LoginWithGitHub(context.Background(), domain.LoginRequest{Code: "b"}); err != nil {
		t.Fatalf("second login: %v", err)
	}

	token, err := svc.TokenForUser(context.Background(), first.User.ID)
	if err != nil {
		t.Fatalf("token for user: %v", err)
	}
	if token != "second" {
		t.Fatalf("expected refreshed token, got %q", token)
	}
}

func TestAuthenticateExpiredSession(t *testing.T) {
	fc := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	svc := newTestService(t, fc, &fakeExchanger{
		token:   "tkn",
		profile: oauth.ProviderUser{ExternalID: "101", Username: "alice"},
	})

	res, err := svc.LoginWithGitHub(context.Background(), domain.LoginRequest{Code: "abc"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	fc.Advance(31 * 24 * time.Hour)
	if _, err := svc.Authenticate(context.Background(), res.RawToken); !errors.Is(err, domain.ErrSessionExpired) {
		t.Fatalf("expected session expired, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	fc := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	svc := newTestService(t, fc, &fakeExchanger{
		token:   "tkn",
		profile: oauth.ProviderUser{ExternalID: "101", Username: "alice"},
	})

	res, err := svc.LoginWithGitHub(context.Background(), domain.LoginRequest{Code: "abc"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := svc.Logout(context.Background(), res.RawToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), res.RawToken); !errors.Is(err, domain.ErrSessionRevoked) {
		t.Fatalf("expected session revoked, got %v", err)
	}

	// Logging out an already-revoked or unknown token is a no-op.
	if err := svc.Logout(context.Background(), "unknown"); err != nil {
		t.Fatalf("logout unknown: %v", err)
	}
}
