package repository

import (
	"context"
	"errors"
	"time"

	"github.com/outlinkhq/outlink/models"
	"gorm.io/gorm"
)

// LinkClickRepositoryImpl implements LinkClickRepository
type LinkClickRepositoryImpl struct {
	*BaseRepository[models.LinkClick, models.LinkClickFilter]
}

func NewLinkClickRepository(db *gorm.DB) LinkClickRepository {
	return &LinkClickRepositoryImpl{BaseRepository: NewBaseRepository[models.LinkClick, models.LinkClickFilter](db)}
}

func (r *LinkClickRepositoryImpl) ByID(ctx context.Context, id uint) (*models.LinkClick, error) {
	db := r.getDB(ctx)
	var row models.LinkClick
	if err := db.Last(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *LinkClickRepositoryImpl) applyFilter(db *gorm.DB, f models.LinkClickFilter) *gorm.DB {
	if f.LinkID != nil {
		db = db.Where("link_id = ?", *f.LinkID)
	}
	if f.IP != nil {
		db = db.Where("ip = ?", *f.IP)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *LinkClickRepositoryImpl) ByFilter(ctx context.Context, filter models.LinkClickFilter, orderBy string, limit, offset int) ([]*models.LinkClick, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.LinkClick{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.LinkClick
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *LinkClickRepositoryImpl) Count(ctx context.Context, filter models.LinkClickFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.LinkClick{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *LinkClickRepositoryImpl) Exists(ctx context.Context, filter models.LinkClickFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

func (r *LinkClickRepositoryImpl) CountSince(ctx context.Context, since time.Time) (int64, error) {
	return r.Count(ctx, models.LinkClickFilter{CreatedAfter: &since})
}

// CountByDay buckets click events by UTC calendar day, oldest first.
// Days with no events are simply absent; the analytics flow zero-fills them
func (r *LinkClickRepositoryImpl) CountByDay(ctx context.Context, from time.Time) ([]DailyCount, error) {
	db := r.getDB(ctx)
	var rows []DailyCount
	err := db.Model(&models.LinkClick{}).
		Select("to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day, COUNT(*) AS count").
		Where("created_at >= ?", from).
		Group("day").
		Order("day ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *LinkClickRepositoryImpl) DeleteByLink(ctx context.Context, linkID uint) error {
	db := r.getDB(ctx)
	return db.Where("link_id = ?", linkID).Delete(&models.LinkClick{}).Error
}

func (r *LinkClickRepositoryImpl) DeleteAll(ctx context.Context) error {
	db := r.getDB(ctx)
	return db.Where("1 = 1").Delete(&models.LinkClick{}).Error
}
