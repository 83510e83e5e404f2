// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/outlinkhq/outlink/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// LinkRepository defines operations for tracked links
type LinkRepository interface {
	Repository[models.Link, models.LinkFilter]
	BySlug(ctx context.Context, slug string) (*models.Link, error)
	ByUUID(ctx context.Context, uuid uuid.UUID) (*models.Link, error)
	ByTargetURL(ctx context.Context, targetURL string) (*models.Link, error)
	IncrementClicks(ctx context.Context, id uint) error
	SetClicks(ctx context.Context, id uint, clicks int64) error
	ResetAllClicks(ctx context.Context) error
	Update(ctx context.Context, link *models.Link) error
	Delete(ctx context.Context, id uint) error
	Top(ctx context.Context, limit int) ([]*models.Link, error)
	Recent(ctx context.Context, limit int) ([]*models.Link, error)
	SumClicks(ctx context.Context) (int64, error)
}

// DailyCount is one bucket of the per-day click histogram
type DailyCount struct {
	Day   string
	Count int64
}

// LinkClickRepository defines operations for the click event audit log
type LinkClickRepository interface {
	Repository[models.LinkClick, models.LinkClickFilter]
	CountSince(ctx context.Context, since time.Time) (int64, error)
	CountByDay(ctx context.Context, from time.Time) ([]DailyCount, error)
	DeleteByLink(ctx context.Context, linkID uint) error
	DeleteAll(ctx context.Context) error
}

// ClickDedupRepository defines operations for the per-day dedup markers
type ClickDedupRepository interface {
	// InsertIgnore inserts the marker with conflict-do-nothing semantics and
	// reports whether the row was actually inserted
	InsertIgnore(ctx context.Context, dedup *models.ClickDedup) (bool, error)
	CountPerLink(ctx context.Context) (map[uint]int64, error)
	DeleteByLink(ctx context.Context, linkID uint) error
	DeleteAll(ctx context.Context) error
}
