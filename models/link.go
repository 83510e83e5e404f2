package models

import (
	"time"

	"github.com/google/uuid"
)

// Link represents a tracked outbound destination
// Slug is the short URL-safe identifier, unique and immutable once assigned
// TargetURL is the current destination; redirects always re-read it from the row
// Clicks is a denormalized counter over deduplicated clicks; click events
// remain the source of truth for audit and analytics
// IsManual distinguishes explicitly created links from ones auto-created on
// first redirect through an unregistered destination
type Link struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UUID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_links_uuid" json:"uuid"`
	Slug      string    `gorm:"size:64;not null;uniqueIndex:uk_links_slug" json:"slug"`
	Title     string    `gorm:"type:text;not null" json:"title"`
	TargetURL string    `gorm:"type:text;not null;index:idx_links_target_url" json:"target_url"`
	IsManual  bool      `gorm:"not null;default:false" json:"is_manual"`
	Clicks    int64     `gorm:"not null;default:0" json:"clicks"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_links_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

// TableName returns the table name for Link
func (Link) TableName() string { return "links" }

// LinkFilter provides filter fields for repository queries
type LinkFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	Slug          *string
	TargetURL     *string
	IsManual      *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
