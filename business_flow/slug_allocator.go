package businessflow

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/outlinkhq/outlink/repository"
	"github.com/outlinkhq/outlink/utils"
)

// SlugAllocator assigns a unique URL-safe slug for a new tracked link
// Explicit slugs are validated against the reserved set and existing rows
// Derived slugs start from the title, fall back to the destination's
// hostname plus path, then the raw destination string, and probe numbered
// suffixes until a free slug is found or the attempt limit runs out
// Uniqueness is ultimately enforced by the database unique index; the probes
// only make collisions rare, callers must still treat a duplicate-key insert
// as ErrSlugTaken
type SlugAllocator interface {
	Allocate(ctx context.Context, title, targetURL, explicitSlug string) (string, error)
	AllocateForTarget(ctx context.Context, targetURL string) (string, error)
}

type SlugAllocatorImpl struct {
	linkRepo repository.LinkRepository
	reserved map[string]struct{}
}

func NewSlugAllocator(linkRepo repository.LinkRepository, reservedSlugs []string) SlugAllocator {
	reserved := make(map[string]struct{}, len(reservedSlugs))
	for _, s := range reservedSlugs {
		reserved[NormalizeSlug(s)] = struct{}{}
	}
	return &SlugAllocatorImpl{linkRepo: linkRepo, reserved: reserved}
}

func (a *SlugAllocatorImpl) Allocate(ctx context.Context, title, targetURL, explicitSlug string) (string, error) {
	if strings.TrimSpace(explicitSlug) != "" {
		return a.allocateExplicit(ctx, explicitSlug)
	}
	return a.allocateDerived(ctx, title, targetURL)
}

// AllocateForTarget derives a slug for a link auto-created on first redirect,
// where no title exists yet
func (a *SlugAllocatorImpl) AllocateForTarget(ctx context.Context, targetURL string) (string, error) {
	return a.allocateDerived(ctx, "", targetURL)
}

func (a *SlugAllocatorImpl) allocateExplicit(ctx context.Context, explicitSlug string) (string, error) {
	slug := NormalizeSlug(explicitSlug)
	if slug == "" {
		return "", ErrInvalidSlug
	}
	if _, ok := a.reserved[slug]; ok {
		return "", ErrReservedSlug
	}
	existing, err := a.linkRepo.BySlug(ctx, slug)
	if err != nil {
		return "", NewBusinessError("SLUG_LOOKUP_FAILED", "Failed to check slug availability", err)
	}
	if existing != nil {
		return "", ErrSlugTaken
	}
	return slug, nil
}

func (a *SlugAllocatorImpl) allocateDerived(ctx context.Context, title, targetURL string) (string, error) {
	base := NormalizeSlug(title)
	if base == "" {
		// Host plus path keeps distinct URLs on one host from colliding
		// into numbered suffixes
		if u, err := url.Parse(targetURL); err == nil {
			base = NormalizeSlug(u.Hostname() + u.Path)
		}
	}
	if base == "" {
		base = NormalizeSlug(targetURL)
	}
	if base == "" {
		return "", ErrInvalidSlug
	}

	for attempt := 0; attempt <= utils.SlugMaxAttempts; attempt++ {
		candidate := base
		if attempt > 0 {
			candidate = withSuffix(base, attempt)
		}
		if _, reserved := a.reserved[candidate]; reserved {
			continue
		}
		existing, err := a.linkRepo.BySlug(ctx, candidate)
		if err != nil {
			return "", NewBusinessError("SLUG_LOOKUP_FAILED", "Failed to check slug availability", err)
		}
		if existing == nil {
			return candidate, nil
		}
	}
	return "", ErrSlugAllocationExhausted
}

// NormalizeSlug lowercases the input, strips any URL scheme, collapses every
// run of non-alphanumeric characters into a single hyphen, trims leading and
// trailing hyphens, and caps the result at the maximum slug length
func NormalizeSlug(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}

	var b strings.Builder
	b.Grow(len(s))
	lastHyphen := false
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen && b.Len() > 0 {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	out := strings.Trim(b.String(), "-")
	if len(out) > utils.SlugMaxLength {
		out = strings.Trim(out[:utils.SlugMaxLength], "-")
	}
	return out
}

// withSuffix appends "-N", truncating the base so the result stays within the
// maximum slug length
func withSuffix(base string, n int) string {
	suffix := fmt.Sprintf("-%d", n)
	if len(base)+len(suffix) > utils.SlugMaxLength {
		base = strings.Trim(base[:utils.SlugMaxLength-len(suffix)], "-")
	}
	return base + suffix
}
