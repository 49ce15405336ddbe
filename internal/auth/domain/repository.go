package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	UpsertUser(ctx context.Context, db *gorm.DB, user *User) error
	FindUserByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*User, error)

	InsertSession(ctx context.Context, db *gorm.DB, session *Session) error
	FindSessionByTokenHash(ctx context.Context, db *gorm.DB, tokenHash string) (*Session, error)
	RevokeSession(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	TouchSession(ctx context.Context, db *gorm.DB, id snowflake.ID) error

	UpsertIdentity(ctx context.Context, db *gorm.DB, identity *UserIdentity) error
	FindIdentity(ctx context.Context, db *gorm.DB, provider, externalID string) (*UserIdentity, error)
	FindIdentityByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID, provider string) (*UserIdentity, error)
}
