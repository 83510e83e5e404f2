package businessflow

import (
	"context"
	"time"

	"github.com/outlinkhq/outlink/app/dto"
	"github.com/outlinkhq/outlink/models"
	"github.com/outlinkhq/outlink/repository"
	"github.com/outlinkhq/outlink/utils"
)

// AnalyticsFlow builds the dashboard aggregate from the click-event audit log
// Totals come from the event rows, not the denormalized counters, so the
// summary stays truthful even if a counter has drifted
type AnalyticsFlow interface {
	Summary(ctx context.Context) (*dto.AnalyticsSummary, error)
}

type AnalyticsFlowImpl struct {
	linkRepo      repository.LinkRepository
	clickRepo     repository.LinkClickRepository
	publicBaseURL string
}

func NewAnalyticsFlow(linkRepo repository.LinkRepository, clickRepo repository.LinkClickRepository, publicBaseURL string) AnalyticsFlow {
	return &AnalyticsFlowImpl{
		linkRepo:      linkRepo,
		clickRepo:     clickRepo,
		publicBaseURL: publicBaseURL,
	}
}

func (f *AnalyticsFlowImpl) Summary(ctx context.Context) (*dto.AnalyticsSummary, error) {
	now := utils.UTCNow()

	totalClicks, err := f.clickRepo.Count(ctx, models.LinkClickFilter{})
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_FAILED", "Failed to count clicks", err)
	}
	totalLinks, err := f.linkRepo.Count(ctx, models.LinkFilter{})
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_FAILED", "Failed to count links", err)
	}

	today, err := f.clickRepo.CountSince(ctx, utils.StartOfDay(now))
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_FAILED", "Failed to count today's clicks", err)
	}
	week, err := f.clickRepo.CountSince(ctx, now.Add(-7*24*time.Hour))
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_FAILED", "Failed to count weekly clicks", err)
	}
	month, err := f.clickRepo.CountSince(ctx, utils.StartOfMonth(now))
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_FAILED", "Failed to count monthly clicks", err)
	}
	year, err := f.clickRepo.CountSince(ctx, utils.StartOfYear(now))
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_FAILED", "Failed to count yearly clicks", err)
	}

	daily, err := f.dailySeries(ctx, now)
	if err != nil {
		return nil, err
	}

	top, err := f.linkRepo.Top(ctx, utils.TopLinksLimit)
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_FAILED", "Failed to fetch top links", err)
	}
	recent, err := f.linkRepo.Recent(ctx, utils.RecentLinksLimit)
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_FAILED", "Failed to fetch recent links", err)
	}

	return &dto.AnalyticsSummary{
		TotalClicks: totalClicks,
		TotalLinks:  totalLinks,
		ClicksToday: today,
		ClicksWeek:  week,
		ClicksMonth: month,
		ClicksYear:  year,
		Daily:       daily,
		TopLinks:    ToLinkDTOs(top, f.publicBaseURL),
		RecentLinks: ToLinkDTOs(recent, f.publicBaseURL),
	}, nil
}

// dailySeries returns one point per UTC calendar day for the trailing window,
// oldest first, with empty days zero-filled
func (f *AnalyticsFlowImpl) dailySeries(ctx context.Context, now time.Time) ([]dto.DailyPoint, error) {
	from := utils.StartOfDay(now).AddDate(0, 0, -(utils.DailySeriesDays - 1))
	counts, err := f.clickRepo.CountByDay(ctx, from)
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_FAILED", "Failed to build daily series", err)
	}

	byDay := make(map[string]int64, len(counts))
	for _, c := range counts {
		byDay[c.Day] = c.Count
	}

	series := make([]dto.DailyPoint, 0, utils.DailySeriesDays)
	for i := 0; i < utils.DailySeriesDays; i++ {
		day := utils.DayBucket(from.AddDate(0, 0, i))
		series = append(series, dto.DailyPoint{Date: day, Clicks: byDay[day]})
	}
	return series, nil
}
