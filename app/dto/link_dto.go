package dto

// CreateLinkRequest represents the request to register a tracked link
type CreateLinkRequest struct {
	Title     string `json:"title" validate:"required,max=255"`
	TargetURL string `json:"targetUrl" validate:"required,url,max=2048"`
	Slug      string `json:"slug,omitempty" validate:"omitempty,max=64"`
}

// UpdateLinkRequest represents the request to edit a tracked link
// Slug is immutable once assigned and is intentionally absent here
type UpdateLinkRequest struct {
	Title     *string `json:"title,omitempty" validate:"omitempty,max=255"`
	TargetURL *string `json:"targetUrl,omitempty" validate:"omitempty,url,max=2048"`
}

// LinkDTO represents a tracked link in API responses
type LinkDTO struct {
	UUID      string `json:"id"`
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	TargetURL string `json:"targetUrl"`
	IsManual  bool   `json:"isManual"`
	Clicks    int64  `json:"clicks"`
	ShortURL  string `json:"shortUrl,omitempty"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// DailyPoint is one bucket of the 30-day click series
type DailyPoint struct {
	Date   string `json:"date"`
	Clicks int64  `json:"clicks"`
}

// AnalyticsSummary represents the dashboard aggregate
type AnalyticsSummary struct {
	TotalClicks int64        `json:"totalClicks"`
	TotalLinks  int64        `json:"totalLinks"`
	ClicksToday int64        `json:"todayClicks"`
	ClicksWeek  int64        `json:"weekClicks"`
	ClicksMonth int64        `json:"monthClicks"`
	ClicksYear  int64        `json:"yearClicks"`
	Daily       []DailyPoint `json:"seriesDaily"`
	TopLinks    []LinkDTO    `json:"topLinks"`
	RecentLinks []LinkDTO    `json:"recentLinks"`
}

// LinkListResponse represents the admin listing with its analytics summary
type LinkListResponse struct {
	Links   []LinkDTO         `json:"links"`
	Summary *AnalyticsSummary `json:"summary"`
}

// ResetStatisticsResponse reports the outcome of a bulk statistics reset
type ResetStatisticsResponse struct {
	Message       string `json:"message"`
	LinksAffected int64  `json:"linksAffected"`
}

// ReconcileResponse reports the outcome of a counter reconciliation pass
type ReconcileResponse struct {
	Checked  int `json:"checked"`
	Adjusted int `json:"adjusted"`
}
