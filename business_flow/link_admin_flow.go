package businessflow

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/outlinkhq/outlink/app/dto"
	"github.com/outlinkhq/outlink/models"
	"github.com/outlinkhq/outlink/repository"
	"github.com/outlinkhq/outlink/utils"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// LinkAdminFlow provides the admin use cases for tracked links: listing with
// the analytics summary, explicit creation, editing, cascade deletion, bulk
// statistics reset, counter reconciliation, and the Excel export
type LinkAdminFlow interface {
	List(ctx context.Context) (*dto.LinkListResponse, error)
	Create(ctx context.Context, req *dto.CreateLinkRequest) (*dto.LinkDTO, error)
	Update(ctx context.Context, linkUUID string, req *dto.UpdateLinkRequest) (*dto.LinkDTO, error)
	Delete(ctx context.Context, linkUUID string) error
	ResetStatistics(ctx context.Context) (*dto.ResetStatisticsResponse, error)
	Reconcile(ctx context.Context) (*dto.ReconcileResponse, error)
	ExportExcel(ctx context.Context) (string, []byte, error)
}

type LinkAdminFlowImpl struct {
	db            *gorm.DB
	linkRepo      repository.LinkRepository
	clickRepo     repository.LinkClickRepository
	dedupRepo     repository.ClickDedupRepository
	allocator     SlugAllocator
	analytics     AnalyticsFlow
	publicBaseURL string
}

func NewLinkAdminFlow(
	db *gorm.DB,
	linkRepo repository.LinkRepository,
	clickRepo repository.LinkClickRepository,
	dedupRepo repository.ClickDedupRepository,
	allocator SlugAllocator,
	analytics AnalyticsFlow,
	publicBaseURL string,
) LinkAdminFlow {
	return &LinkAdminFlowImpl{
		db:            db,
		linkRepo:      linkRepo,
		clickRepo:     clickRepo,
		dedupRepo:     dedupRepo,
		allocator:     allocator,
		analytics:     analytics,
		publicBaseURL: publicBaseURL,
	}
}

func (f *LinkAdminFlowImpl) List(ctx context.Context) (*dto.LinkListResponse, error) {
	links, err := f.linkRepo.ByFilter(ctx, models.LinkFilter{}, "created_at DESC, id DESC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("FETCH_LINKS_FAILED", "Failed to fetch links", err)
	}
	summary, err := f.analytics.Summary(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.LinkListResponse{
		Links:   ToLinkDTOs(links, f.publicBaseURL),
		Summary: summary,
	}, nil
}

func (f *LinkAdminFlowImpl) Create(ctx context.Context, req *dto.CreateLinkRequest) (*dto.LinkDTO, error) {
	if req == nil {
		return nil, NewBusinessError("VALIDATION_ERROR", "Request is required", nil)
	}
	targetURL, err := ValidateTargetURL(req.TargetURL)
	if err != nil {
		return nil, err
	}

	slug, err := f.allocator.Allocate(ctx, req.Title, targetURL, req.Slug)
	if err != nil {
		return nil, err
	}

	now := utils.UTCNow()
	link := &models.Link{
		UUID:      uuid.New(),
		Slug:      slug,
		Title:     req.Title,
		TargetURL: targetURL,
		IsManual:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := f.linkRepo.Save(ctx, link); err != nil {
		// The allocator's availability check raced with another insert
		existing, lookupErr := f.linkRepo.BySlug(ctx, slug)
		if lookupErr == nil && existing != nil {
			return nil, ErrSlugTaken
		}
		return nil, NewBusinessError("LINK_CREATE_FAILED", "Failed to create link", err)
	}

	out := ToLinkDTO(link, f.publicBaseURL)
	return &out, nil
}

func (f *LinkAdminFlowImpl) Update(ctx context.Context, linkUUID string, req *dto.UpdateLinkRequest) (*dto.LinkDTO, error) {
	link, err := f.byUUID(ctx, linkUUID)
	if err != nil {
		return nil, err
	}
	if req == nil || (req.Title == nil && req.TargetURL == nil) {
		return nil, NewBusinessError("VALIDATION_ERROR", "At least one field must be provided for update", nil)
	}

	if req.Title != nil {
		link.Title = *req.Title
	}
	if req.TargetURL != nil {
		targetURL, err := ValidateTargetURL(*req.TargetURL)
		if err != nil {
			return nil, err
		}
		link.TargetURL = targetURL
	}
	link.UpdatedAt = utils.UTCNow()

	if err := f.linkRepo.Update(ctx, link); err != nil {
		return nil, NewBusinessError("LINK_UPDATE_FAILED", "Failed to update link", err)
	}

	out := ToLinkDTO(link, f.publicBaseURL)
	return &out, nil
}

// Delete removes the link and its dependent rows in one transaction,
// dependents first
func (f *LinkAdminFlowImpl) Delete(ctx context.Context, linkUUID string) error {
	link, err := f.byUUID(ctx, linkUUID)
	if err != nil {
		return err
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.dedupRepo.DeleteByLink(txCtx, link.ID); err != nil {
			return err
		}
		if err := f.clickRepo.DeleteByLink(txCtx, link.ID); err != nil {
			return err
		}
		return f.linkRepo.Delete(txCtx, link.ID)
	})
	if err != nil {
		return NewBusinessError("LINK_DELETE_FAILED", "Failed to delete link", err)
	}
	return nil
}

// ResetStatistics wipes all click events and dedup markers and zeroes every
// counter, leaving the links themselves untouched
func (f *LinkAdminFlowImpl) ResetStatistics(ctx context.Context) (*dto.ResetStatisticsResponse, error) {
	totalLinks, err := f.linkRepo.Count(ctx, models.LinkFilter{})
	if err != nil {
		return nil, NewBusinessError("RESET_STATISTICS_FAILED", "Failed to count links", err)
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.dedupRepo.DeleteAll(txCtx); err != nil {
			return err
		}
		if err := f.clickRepo.DeleteAll(txCtx); err != nil {
			return err
		}
		return f.linkRepo.ResetAllClicks(txCtx)
	})
	if err != nil {
		return nil, NewBusinessError("RESET_STATISTICS_FAILED", "Failed to reset statistics", err)
	}

	return &dto.ResetStatisticsResponse{
		Message:       "Statistics reset",
		LinksAffected: totalLinks,
	}, nil
}

// Reconcile recomputes every counter from the dedup markers and fixes drift
// The markers are the record of which clicks counted, so they are the
// authority the counters are healed against
func (f *LinkAdminFlowImpl) Reconcile(ctx context.Context) (*dto.ReconcileResponse, error) {
	links, err := f.linkRepo.ByFilter(ctx, models.LinkFilter{}, "id ASC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("RECONCILE_FAILED", "Failed to fetch links", err)
	}
	counts, err := f.dedupRepo.CountPerLink(ctx)
	if err != nil {
		return nil, NewBusinessError("RECONCILE_FAILED", "Failed to count dedup markers", err)
	}

	adjusted := 0
	for _, link := range links {
		expected := counts[link.ID]
		if link.Clicks == expected {
			continue
		}
		if err := f.linkRepo.SetClicks(ctx, link.ID, expected); err != nil {
			return nil, NewBusinessError("RECONCILE_FAILED", "Failed to adjust counter", err)
		}
		adjusted++
	}

	return &dto.ReconcileResponse{
		Checked:  len(links),
		Adjusted: adjusted,
	}, nil
}

// ExportExcel builds a workbook with one sheet of links and one sheet of
// click events
func (f *LinkAdminFlowImpl) ExportExcel(ctx context.Context) (string, []byte, error) {
	links, err := f.linkRepo.ByFilter(ctx, models.LinkFilter{}, "id ASC", 0, 0)
	if err != nil {
		return "", nil, NewBusinessError("FETCH_LINKS_FAILED", "Failed to fetch links", err)
	}
	clicks, err := f.clickRepo.ByFilter(ctx, models.LinkClickFilter{}, "id ASC", 0, 0)
	if err != nil {
		return "", nil, NewBusinessError("FETCH_CLICKS_FAILED", "Failed to fetch click events", err)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	linksSheet := "links"
	xl.SetSheetName(xl.GetSheetName(0), linksSheet)
	linkHeader := []string{"id", "uuid", "slug", "title", "target_url", "is_manual", "clicks", "created_at", "updated_at"}
	_ = xl.SetSheetRow(linksSheet, "A1", &linkHeader)
	for i, l := range links {
		record := []string{
			strconv.FormatUint(uint64(l.ID), 10),
			l.UUID.String(),
			l.Slug,
			l.Title,
			l.TargetURL,
			strconv.FormatBool(l.IsManual),
			strconv.FormatInt(l.Clicks, 10),
			l.CreatedAt.UTC().Format(time.RFC3339),
			l.UpdatedAt.UTC().Format(time.RFC3339),
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, i+2)
		_ = xl.SetSheetRow(linksSheet, cellRef, &record)
	}

	clicksSheet := "clicks"
	_, _ = xl.NewSheet(clicksSheet)
	clickHeader := []string{"id", "link_id", "ip", "country", "user_agent", "created_at"}
	_ = xl.SetSheetRow(clicksSheet, "A1", &clickHeader)
	for i, c := range clicks {
		country := ""
		if c.Country != nil {
			country = *c.Country
		}
		ua := ""
		if c.UserAgent != nil {
			ua = *c.UserAgent
		}
		record := []string{
			strconv.FormatUint(uint64(c.ID), 10),
			strconv.FormatUint(uint64(c.LinkID), 10),
			c.IP,
			country,
			ua,
			c.CreatedAt.UTC().Format(time.RFC3339),
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, i+2)
		_ = xl.SetSheetRow(clicksSheet, cellRef, &record)
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}
	filename := fmt.Sprintf("affiliate_links_%s.xlsx", utils.DayBucket(utils.UTCNow()))
	return filename, buf.Bytes(), nil
}

func (f *LinkAdminFlowImpl) byUUID(ctx context.Context, linkUUID string) (*models.Link, error) {
	id, err := uuid.Parse(linkUUID)
	if err != nil {
		return nil, ErrLinkNotFound
	}
	link, err := f.linkRepo.ByUUID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("LINK_LOOKUP_FAILED", "Failed to lookup link", err)
	}
	if link == nil {
		return nil, ErrLinkNotFound
	}
	return link, nil
}
