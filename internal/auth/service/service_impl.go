package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/reposcribe/reposcribe/internal/auth/domain"
	"github.com/reposcribe/reposcribe/internal/auth/oauth"
	"github.com/reposcribe/reposcribe/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const sessionTTL = 30 * 24 * time.Hour

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      domain.Repository
	Exchanger oauth.Exchanger
}

type service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      domain.Repository
	exchanger oauth.Exchanger
}

func New(p Params) domain.Service {
	return &service{
		db:        p.DB,
		log:       p.Log.Named("auth.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		exchanger: p.Exchanger,
	}
}

func (s *service) LoginWithGitHub(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error) {
	if req.Code == "" {
		return nil, domain.ErrInvalidRequest
	}

	accessToken, err := s.exchanger.Exchange(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	profile, err := s.exchanger.FetchUser(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	rawToken, err := newSessionToken()
	if err != nil {
		return nil, err
	}

	var user *domain.User
	err = s.db.Transaction(func(tx *gorm.DB) error {
		identity, err := s.repo.FindIdentity(ctx, tx, oauth.ProviderGitHub, profile.ExternalID)
		switch {
		case err == nil:
			user, err = s.repo.FindUserByID(ctx, tx, identity.UserID)
			if err != nil {
				return err
			}
			user.Email = profile.Email
			user.AvatarURL = profile.AvatarURL
			user.UpdatedAt = now
			if err := s.repo.UpsertUser(ctx, tx, user); err != nil {
				return err
			}
			identity.AccessToken = accessToken
			identity.UpdatedAt = now
			if err := s.repo.UpsertIdentity(ctx, tx, identity); err != nil {
				return err
			}
		case errors.Is(err, domain.ErrNoToken):
			user = &domain.User{
				ID:        s.genID.Generate(),
				Username:  profile.Username,
				Email:     profile.Email,
				AvatarURL: profile.AvatarURL,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := s.repo.UpsertUser(ctx, tx, user); err != nil {
				return err
			}
			if err := s.repo.UpsertIdentity(ctx, tx, &domain.UserIdentity{
				ID:          s.genID.Generate(),
				UserID:      user.ID,
				Provider:    oauth.ProviderGitHub,
				ExternalID:  profile.ExternalID,
				AccessToken: accessToken,
				CreatedAt:   now,
				UpdatedAt:   now,
			}); err != nil {
				return err
			}
		default:
			return err
		}

		return s.repo.InsertSession(ctx, tx, &domain.Session{
			ID:               s.genID.Generate(),
			UserID:           user.ID,
			SessionTokenHash: hashToken(rawToken),
			UserAgent:        req.UserAgent,
			IPAddress:        req.IPAddress,
			ExpiresAt:        now.Add(sessionTTL),
			CreatedAt:        now,
			LastSeenAt:       now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("user logged in", zap.Int64("user_id", int64(user.ID)))
	return &domain.LoginResult{User: *user, RawToken: rawToken}, nil
}

func (s *service) Authenticate(ctx context.Context, rawToken string) (*domain.Session, error) {
	if rawToken == "" {
		return nil, domain.ErrInvalidSession
	}
	session, err := s.repo.FindSessionByTokenHash(ctx, s.db, hashToken(rawToken))
	if err != nil {
		return nil, err
	}
	if session.RevokedAt != nil {
		return nil, domain.ErrSessionRevoked
	}
	if s.clock.Now().After(session.ExpiresAt) {
		return nil, domain.ErrSessionExpired
	}
	if err := s.repo.TouchSession(ctx, s.db, session.ID); err != nil {
		s.log.Warn("touch session", zap.Error(err))
	}
	return session, nil
}

func (s *service) Logout(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	session, err := s.repo.FindSessionByTokenHash(ctx, s.db, hashToken(rawToken))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSession) {
			return nil
		}
		return err
	}
	return s.repo.RevokeSession(ctx, s.db, session.ID)
}

func (s *service) CurrentUser(ctx context.Context, userID snowflake.ID) (*domain.User, error) {
	return s.repo.FindUserByID(ctx, s.db, userID)
}

func (s *service) TokenForUser(ctx context.Context, userID snowflake.ID) (string, error) {
	identity, err := s.repo.FindIdentityByUser(ctx, s.db, userID, oauth.ProviderGitHub)
	if err != nil {
		return "", err
	}
	if identity.AccessToken == "" {
		return "", domain.ErrNoToken
	}
	return identity.AccessToken, nil
}

func newSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
