package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	ProjectID snowflake.ID
	UserID    snowflake.ID
	Type      string
	Limit     int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, activity *Activity) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Activity, error)
}
