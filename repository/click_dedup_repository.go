package repository

import (
	"context"

	"github.com/outlinkhq/outlink/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ClickDedupRepositoryImpl implements ClickDedupRepository
type ClickDedupRepositoryImpl struct {
	*BaseRepository[models.ClickDedup, any]
}

func NewClickDedupRepository(db *gorm.DB) ClickDedupRepository {
	return &ClickDedupRepositoryImpl{BaseRepository: NewBaseRepository[models.ClickDedup, any](db)}
}

// InsertIgnore inserts the dedup marker with ON CONFLICT DO NOTHING on the
// (link_id, ip, day_bucket) unique index. RowsAffected tells whether this
// request won the slot; a concurrent duplicate becomes a silent no-op
// instead of a double count
func (r *ClickDedupRepositoryImpl) InsertIgnore(ctx context.Context, dedup *models.ClickDedup) (bool, error) {
	db := r.getDB(ctx)
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "link_id"}, {Name: "ip"}, {Name: "day_bucket"}},
		DoNothing: true,
	}).Create(dedup)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *ClickDedupRepositoryImpl) CountPerLink(ctx context.Context) (map[uint]int64, error) {
	db := r.getDB(ctx)
	var rows []struct {
		LinkID uint
		Count  int64
	}
	err := db.Model(&models.ClickDedup{}).
		Select("link_id, COUNT(*) AS count").
		Group("link_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.LinkID] = row.Count
	}
	return counts, nil
}

func (r *ClickDedupRepositoryImpl) DeleteByLink(ctx context.Context, linkID uint) error {
	db := r.getDB(ctx)
	return db.Where("link_id = ?", linkID).Delete(&models.ClickDedup{}).Error
}

func (r *ClickDedupRepositoryImpl) DeleteAll(ctx context.Context) error {
	db := r.getDB(ctx)
	return db.Where("1 = 1").Delete(&models.ClickDedup{}).Error
}
