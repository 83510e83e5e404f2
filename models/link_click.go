package models

import "time"

// LinkClick represents a single click event on a tracked link
// One row is written per redirect attempt, unconditionally; whether the click
// also incremented the link counter is decided separately (see ClickDedup)
// IP may be the literal "unknown" when no client address could be determined
type LinkClick struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	LinkID    uint      `gorm:"index:idx_link_clicks_link_id;not null" json:"link_id"`
	IP        string    `gorm:"size:64;not null" json:"ip"`
	Country   *string   `gorm:"size:8" json:"country,omitempty"`
	UserAgent *string   `gorm:"type:text" json:"user_agent,omitempty"`
	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_link_clicks_created_at" json:"created_at"`
}

// TableName returns the table name for LinkClick
func (LinkClick) TableName() string { return "link_clicks" }

// LinkClickFilter provides filter fields for repository queries
type LinkClickFilter struct {
	LinkID        *uint
	IP            *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
