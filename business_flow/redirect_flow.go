package businessflow

import (
	"context"
	"net/url"

	"github.com/google/uuid"
	"github.com/outlinkhq/outlink/app/services"
	"github.com/outlinkhq/outlink/models"
	"github.com/outlinkhq/outlink/repository"
	"github.com/outlinkhq/outlink/utils"
)

// RedirectResult carries the outcome of one accounted redirect
type RedirectResult struct {
	TargetURL string
	Counted   bool
	Country   *string
}

// RedirectFlow performs the full accounting pipeline behind a redirect:
// resolve (or auto-create) the link, enrich with best-effort geolocation,
// record the click, and hand back the destination read from the stored row
// so admin edits take effect on the very next redirect
// Public flow, no authentication required
type RedirectFlow interface {
	RedirectByTarget(ctx context.Context, rawURL string, meta *ClientMetadata) (*RedirectResult, error)
	RedirectBySlug(ctx context.Context, slug string, meta *ClientMetadata) (*RedirectResult, error)
}

type RedirectFlowImpl struct {
	linkRepo  repository.LinkRepository
	allocator SlugAllocator
	geo       services.GeoIPClient
	recorder  ClickRecorderFlow
}

// NewRedirectFlow creates the redirect pipeline. geo may be nil when
// geolocation is disabled
func NewRedirectFlow(
	linkRepo repository.LinkRepository,
	allocator SlugAllocator,
	geo services.GeoIPClient,
	recorder ClickRecorderFlow,
) RedirectFlow {
	return &RedirectFlowImpl{
		linkRepo:  linkRepo,
		allocator: allocator,
		geo:       geo,
		recorder:  recorder,
	}
}

func (f *RedirectFlowImpl) RedirectByTarget(ctx context.Context, rawURL string, meta *ClientMetadata) (*RedirectResult, error) {
	targetURL, err := ValidateTargetURL(rawURL)
	if err != nil {
		return nil, err
	}

	link, err := f.resolveOrCreate(ctx, targetURL)
	if err != nil {
		return nil, err
	}
	return f.track(ctx, link, meta)
}

func (f *RedirectFlowImpl) RedirectBySlug(ctx context.Context, slug string, meta *ClientMetadata) (*RedirectResult, error) {
	link, err := f.linkRepo.BySlug(ctx, slug)
	if err != nil {
		return nil, NewBusinessError("LINK_LOOKUP_FAILED", "Failed to lookup link", err)
	}
	if link == nil {
		return nil, ErrLinkNotFound
	}
	return f.track(ctx, link, meta)
}

// resolveOrCreate finds the link tracking targetURL, auto-creating it on
// first sight. Two instances racing on the same fresh destination both try
// the insert; the loser hits the slug unique index and re-reads the winner's
// row
func (f *RedirectFlowImpl) resolveOrCreate(ctx context.Context, targetURL string) (*models.Link, error) {
	link, err := f.linkRepo.ByTargetURL(ctx, targetURL)
	if err != nil {
		return nil, NewBusinessError("LINK_LOOKUP_FAILED", "Failed to lookup link", err)
	}
	if link != nil {
		return link, nil
	}

	slug, err := f.allocator.AllocateForTarget(ctx, targetURL)
	if err != nil {
		return nil, err
	}

	now := utils.UTCNow()
	link = &models.Link{
		UUID:      uuid.New(),
		Slug:      slug,
		Title:     deriveTitle(targetURL),
		TargetURL: targetURL,
		IsManual:  false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := f.linkRepo.Save(ctx, link); err != nil {
		existing, lookupErr := f.linkRepo.ByTargetURL(ctx, targetURL)
		if lookupErr == nil && existing != nil {
			return existing, nil
		}
		return nil, NewBusinessError("LINK_CREATE_FAILED", "Failed to create link", err)
	}
	return link, nil
}

func (f *RedirectFlowImpl) track(ctx context.Context, link *models.Link, meta *ClientMetadata) (*RedirectResult, error) {
	ip := "unknown"
	var userAgent *string
	if meta != nil {
		if meta.IPAddress != "" {
			ip = meta.IPAddress
		}
		if meta.UserAgent != "" {
			userAgent = utils.ToPtr(meta.UserAgent)
		}
	}

	var country *string
	if f.geo != nil {
		country = f.geo.ResolveCountry(ctx, ip)
	}

	counted, err := f.recorder.Record(ctx, link.ID, ip, country, userAgent)
	if err != nil {
		return nil, err
	}

	return &RedirectResult{
		TargetURL: link.TargetURL,
		Counted:   counted,
		Country:   country,
	}, nil
}

// deriveTitle labels an auto-created link by its destination hostname
func deriveTitle(targetURL string) string {
	if u, err := url.Parse(targetURL); err == nil && u.Hostname() != "" {
		return u.Hostname()
	}
	return targetURL
}
