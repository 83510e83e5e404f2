package models

import "time"

// ClickDedup marks that a (link, ip) pair has already been counted for a UTC
// calendar day. The composite unique index is what enforces the
// at-most-once-per-window counter rule: the row is inserted with
// ON CONFLICT DO NOTHING and the counter is bumped only when the insert
// actually happened, so concurrent clicks from the same visitor cannot
// double-count
type ClickDedup struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	LinkID    uint      `gorm:"not null;uniqueIndex:uk_link_click_dedups_link_ip_day" json:"link_id"`
	IP        string    `gorm:"size:64;not null;uniqueIndex:uk_link_click_dedups_link_ip_day" json:"ip"`
	DayBucket string    `gorm:"size:10;not null;uniqueIndex:uk_link_click_dedups_link_ip_day" json:"day_bucket"`
	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
}

// TableName returns the table name for ClickDedup
func (ClickDedup) TableName() string { return "link_click_dedups" }
