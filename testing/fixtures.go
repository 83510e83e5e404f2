// Package testing provides test utilities and database setup for testing the link tracking system
package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/outlinkhq/outlink/models"
	"github.com/outlinkhq/outlink/utils"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestLink creates an auto-registered tracked link with a random slug and target
func (tf *TestFixtures) CreateTestLink() (*models.Link, error) {
	n := rand.Intn(10000000)
	link := &models.Link{
		UUID:      uuid.New(),
		Slug:      fmt.Sprintf("example-com-%d", n),
		Title:     fmt.Sprintf("example.com %d", n),
		TargetURL: fmt.Sprintf("https://example.com/products/%d", n),
		IsManual:  false,
	}

	if err := tf.DB.DB.Create(link).Error; err != nil {
		return nil, fmt.Errorf("failed to create test link: %w", err)
	}

	return link, nil
}

// CreateManualLink creates a curated link with the given slug and target
func (tf *TestFixtures) CreateManualLink(slug, targetURL string) (*models.Link, error) {
	link := &models.Link{
		UUID:      uuid.New(),
		Slug:      slug,
		Title:     slug,
		TargetURL: targetURL,
		IsManual:  true,
	}

	if err := tf.DB.DB.Create(link).Error; err != nil {
		return nil, fmt.Errorf("failed to create manual link: %w", err)
	}

	return link, nil
}

// CreateTestClick records a click event for the link at the given time
func (tf *TestFixtures) CreateTestClick(linkID uint, ip string, at time.Time) (*models.LinkClick, error) {
	country := "US"
	click := &models.LinkClick{
		LinkID:    linkID,
		IP:        ip,
		Country:   &country,
		UserAgent: utils.ToPtr("Test User Agent"),
		CreatedAt: utils.TimeToUTC(at),
	}

	if err := tf.DB.DB.Create(click).Error; err != nil {
		return nil, fmt.Errorf("failed to create test click: %w", err)
	}

	return click, nil
}

// CreateTestDedup records a dedup marker for the link, IP, and day
func (tf *TestFixtures) CreateTestDedup(linkID uint, ip string, at time.Time) (*models.ClickDedup, error) {
	dedup := &models.ClickDedup{
		LinkID:    linkID,
		IP:        ip,
		DayBucket: utils.DayBucket(at),
	}

	if err := tf.DB.DB.Create(dedup).Error; err != nil {
		return nil, fmt.Errorf("failed to create test dedup marker: %w", err)
	}

	return dedup, nil
}

// CreateClickedLink creates a link that already carries the given number of
// counted clicks, with matching click rows and dedup markers
func (tf *TestFixtures) CreateClickedLink(clicks int) (*models.Link, error) {
	link, err := tf.CreateTestLink()
	if err != nil {
		return nil, err
	}

	now := utils.UTCNow()
	for i := 0; i < clicks; i++ {
		ip := fmt.Sprintf("203.0.113.%d", i+1)
		if _, err := tf.CreateTestClick(link.ID, ip, now); err != nil {
			return nil, err
		}
		if _, err := tf.CreateTestDedup(link.ID, ip, now); err != nil {
			return nil, err
		}
	}

	link.Clicks = int64(clicks)
	if err := tf.DB.DB.Save(link).Error; err != nil {
		return nil, fmt.Errorf("failed to update link clicks: %w", err)
	}

	return link, nil
}
