package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/outlinkhq/outlink/models"
	"gorm.io/gorm"
)

// LinkRepositoryImpl implements LinkRepository
type LinkRepositoryImpl struct {
	*BaseRepository[models.Link, models.LinkFilter]
}

func NewLinkRepository(db *gorm.DB) LinkRepository {
	return &LinkRepositoryImpl{BaseRepository: NewBaseRepository[models.Link, models.LinkFilter](db)}
}

func (r *LinkRepositoryImpl) ByID(ctx context.Context, id uint) (*models.Link, error) {
	db := r.getDB(ctx)
	var row models.Link
	if err := db.Last(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *LinkRepositoryImpl) BySlug(ctx context.Context, slug string) (*models.Link, error) {
	filter := models.LinkFilter{Slug: &slug}
	rows, err := r.ByFilter(ctx, filter, "id DESC", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *LinkRepositoryImpl) ByUUID(ctx context.Context, id uuid.UUID) (*models.Link, error) {
	filter := models.LinkFilter{UUID: &id}
	rows, err := r.ByFilter(ctx, filter, "id DESC", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *LinkRepositoryImpl) ByTargetURL(ctx context.Context, targetURL string) (*models.Link, error) {
	filter := models.LinkFilter{TargetURL: &targetURL}
	rows, err := r.ByFilter(ctx, filter, "id ASC", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *LinkRepositoryImpl) applyFilter(db *gorm.DB, f models.LinkFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.UUID != nil {
		db = db.Where("uuid = ?", *f.UUID)
	}
	if f.Slug != nil {
		db = db.Where("slug = ?", *f.Slug)
	}
	if f.TargetURL != nil {
		db = db.Where("target_url = ?", *f.TargetURL)
	}
	if f.IsManual != nil {
		db = db.Where("is_manual = ?", *f.IsManual)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *LinkRepositoryImpl) ByFilter(ctx context.Context, filter models.LinkFilter, orderBy string, limit, offset int) ([]*models.Link, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Link{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.Link
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *LinkRepositoryImpl) Count(ctx context.Context, filter models.LinkFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Link{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *LinkRepositoryImpl) Exists(ctx context.Context, filter models.LinkFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

// IncrementClicks bumps the denormalized counter in SQL rather than
// read-modify-write, so concurrent increments cannot lose updates
func (r *LinkRepositoryImpl) IncrementClicks(ctx context.Context, id uint) error {
	db := r.getDB(ctx)
	return db.Model(&models.Link{}).
		Where("id = ?", id).
		UpdateColumn("clicks", gorm.Expr("clicks + 1")).Error
}

func (r *LinkRepositoryImpl) SetClicks(ctx context.Context, id uint, clicks int64) error {
	db := r.getDB(ctx)
	return db.Model(&models.Link{}).
		Where("id = ?", id).
		UpdateColumn("clicks", clicks).Error
}

func (r *LinkRepositoryImpl) ResetAllClicks(ctx context.Context) error {
	db := r.getDB(ctx)
	return db.Model(&models.Link{}).
		Where("clicks <> 0").
		UpdateColumn("clicks", 0).Error
}

func (r *LinkRepositoryImpl) Update(ctx context.Context, link *models.Link) error {
	db := r.getDB(ctx)
	return db.Save(link).Error
}

func (r *LinkRepositoryImpl) Delete(ctx context.Context, id uint) error {
	db := r.getDB(ctx)
	return db.Delete(&models.Link{}, id).Error
}

func (r *LinkRepositoryImpl) Top(ctx context.Context, limit int) ([]*models.Link, error) {
	return r.ByFilter(ctx, models.LinkFilter{}, "clicks DESC, id ASC", limit, 0)
}

func (r *LinkRepositoryImpl) Recent(ctx context.Context, limit int) ([]*models.Link, error) {
	return r.ByFilter(ctx, models.LinkFilter{}, "created_at DESC, id DESC", limit, 0)
}

func (r *LinkRepositoryImpl) SumClicks(ctx context.Context) (int64, error) {
	db := r.getDB(ctx)
	var sum *int64
	if err := db.Model(&models.Link{}).Select("SUM(clicks)").Scan(&sum).Error; err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}
