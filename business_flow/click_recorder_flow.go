package businessflow

import (
	"context"

	"github.com/outlinkhq/outlink/models"
	"github.com/outlinkhq/outlink/repository"
	"github.com/outlinkhq/outlink/utils"
	"gorm.io/gorm"
)

// ClickRecorderFlow persists one click event and settles whether it counts
// toward the link's click counter
// Every call writes an audit row; the counter is incremented at most once per
// (link, ip) pair per UTC calendar day. The dedup decision and the increment
// happen inside one transaction with the audit insert, so a crash cannot
// leave a counted click without its event row
type ClickRecorderFlow interface {
	Record(ctx context.Context, linkID uint, ip string, country *string, userAgent *string) (bool, error)
}

type ClickRecorderFlowImpl struct {
	db        *gorm.DB
	clickRepo repository.LinkClickRepository
	dedupRepo repository.ClickDedupRepository
	linkRepo  repository.LinkRepository
}

func NewClickRecorderFlow(
	db *gorm.DB,
	clickRepo repository.LinkClickRepository,
	dedupRepo repository.ClickDedupRepository,
	linkRepo repository.LinkRepository,
) ClickRecorderFlow {
	return &ClickRecorderFlowImpl{
		db:        db,
		clickRepo: clickRepo,
		dedupRepo: dedupRepo,
		linkRepo:  linkRepo,
	}
}

func (f *ClickRecorderFlowImpl) Record(ctx context.Context, linkID uint, ip string, country *string, userAgent *string) (bool, error) {
	counted := false
	err := repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		click := &models.LinkClick{
			LinkID:    linkID,
			IP:        ip,
			Country:   country,
			UserAgent: userAgent,
			CreatedAt: utils.UTCNow(),
		}
		if err := f.clickRepo.Save(txCtx, click); err != nil {
			return err
		}

		inserted, err := f.dedupRepo.InsertIgnore(txCtx, &models.ClickDedup{
			LinkID:    linkID,
			IP:        ip,
			DayBucket: utils.DayBucket(click.CreatedAt),
			CreatedAt: click.CreatedAt,
		})
		if err != nil {
			return err
		}
		if !inserted {
			return nil
		}

		if err := f.linkRepo.IncrementClicks(txCtx, linkID); err != nil {
			return err
		}
		counted = true
		return nil
	})
	if err != nil {
		return false, NewBusinessError("CLICK_RECORD_FAILED", "Failed to record click", err)
	}
	return counted, nil
}
