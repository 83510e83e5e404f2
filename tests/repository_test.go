// Package tests contains test cases for models and repository packages to avoid circular imports
package tests

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/outlinkhq/outlink/models"
	"github.com/outlinkhq/outlink/repository"
	testingutil "github.com/outlinkhq/outlink/testing"
	"github.com/outlinkhq/outlink/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewLinkRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("Save", func(t *testing.T) {
			link, err := fixtures.CreateTestLink()
			require.NoError(t, err)
			assert.NotZero(t, link.ID)
		})

		t.Run("ByID", func(t *testing.T) {
			original, err := fixtures.CreateTestLink()
			require.NoError(t, err)

			link, err := repo.ByID(ctx, original.ID)
			require.NoError(t, err)
			require.NotNil(t, link)
			assert.Equal(t, original.Slug, link.Slug)
			assert.Equal(t, original.TargetURL, link.TargetURL)
		})

		t.Run("ByIDNotFound", func(t *testing.T) {
			link, err := repo.ByID(ctx, 999999)
			assert.NoError(t, err)
			assert.Nil(t, link)
		})

		t.Run("BySlug", func(t *testing.T) {
			original, err := fixtures.CreateTestLink()
			require.NoError(t, err)

			link, err := repo.BySlug(ctx, original.Slug)
			require.NoError(t, err)
			require.NotNil(t, link)
			assert.Equal(t, original.ID, link.ID)
		})

		t.Run("BySlugNotFound", func(t *testing.T) {
			link, err := repo.BySlug(ctx, "no-such-slug")
			assert.NoError(t, err)
			assert.Nil(t, link)
		})

		t.Run("ByUUID", func(t *testing.T) {
			original, err := fixtures.CreateTestLink()
			require.NoError(t, err)

			link, err := repo.ByUUID(ctx, original.UUID)
			require.NoError(t, err)
			require.NotNil(t, link)
			assert.Equal(t, original.ID, link.ID)
		})

		t.Run("ByUUIDNotFound", func(t *testing.T) {
			link, err := repo.ByUUID(ctx, uuid.New())
			assert.NoError(t, err)
			assert.Nil(t, link)
		})

		t.Run("ByTargetURL", func(t *testing.T) {
			original, err := fixtures.CreateTestLink()
			require.NoError(t, err)

			link, err := repo.ByTargetURL(ctx, original.TargetURL)
			require.NoError(t, err)
			require.NotNil(t, link)
			assert.Equal(t, original.ID, link.ID)
		})

		t.Run("ByTargetURLNotFound", func(t *testing.T) {
			link, err := repo.ByTargetURL(ctx, "https://never-registered.example.org/")
			assert.NoError(t, err)
			assert.Nil(t, link)
		})

		t.Run("DuplicateSlugRejected", func(t *testing.T) {
			original, err := fixtures.CreateTestLink()
			require.NoError(t, err)

			dup := &models.Link{
				UUID:      uuid.New(),
				Slug:      original.Slug,
				Title:     "duplicate",
				TargetURL: "https://example.org/duplicate",
			}
			err = repo.Save(ctx, dup)
			assert.Error(t, err)
		})

		t.Run("IncrementClicks", func(t *testing.T) {
			link, err := fixtures.CreateTestLink()
			require.NoError(t, err)

			require.NoError(t, repo.IncrementClicks(ctx, link.ID))
			require.NoError(t, repo.IncrementClicks(ctx, link.ID))

			fresh, err := repo.ByID(ctx, link.ID)
			require.NoError(t, err)
			require.NotNil(t, fresh)
			assert.Equal(t, int64(2), fresh.Clicks)
		})

		t.Run("SetClicks", func(t *testing.T) {
			link, err := fixtures.CreateTestLink()
			require.NoError(t, err)

			require.NoError(t, repo.SetClicks(ctx, link.ID, 42))

			fresh, err := repo.ByID(ctx, link.ID)
			require.NoError(t, err)
			require.NotNil(t, fresh)
			assert.Equal(t, int64(42), fresh.Clicks)
		})

		t.Run("Update", func(t *testing.T) {
			link, err := fixtures.CreateTestLink()
			require.NoError(t, err)

			link.Title = "Updated Title"
			link.TargetURL = "https://example.net/updated"
			require.NoError(t, repo.Update(ctx, link))

			fresh, err := repo.ByID(ctx, link.ID)
			require.NoError(t, err)
			require.NotNil(t, fresh)
			assert.Equal(t, "Updated Title", fresh.Title)
			assert.Equal(t, "https://example.net/updated", fresh.TargetURL)
		})

		t.Run("Delete", func(t *testing.T) {
			link, err := fixtures.CreateTestLink()
			require.NoError(t, err)

			require.NoError(t, repo.Delete(ctx, link.ID))

			fresh, err := repo.ByID(ctx, link.ID)
			require.NoError(t, err)
			assert.Nil(t, fresh)
		})

		t.Run("TopOrdersByClicks", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			low, err := fixtures.CreateTestLink()
			require.NoError(t, err)
			high, err := fixtures.CreateTestLink()
			require.NoError(t, err)
			require.NoError(t, repo.SetClicks(ctx, low.ID, 1))
			require.NoError(t, repo.SetClicks(ctx, high.ID, 10))

			top, err := repo.Top(ctx, 5)
			require.NoError(t, err)
			require.Len(t, top, 2)
			assert.Equal(t, high.ID, top[0].ID)
			assert.Equal(t, low.ID, top[1].ID)
		})

		t.Run("RecentOrdersByCreation", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			first, err := fixtures.CreateTestLink()
			require.NoError(t, err)
			second, err := fixtures.CreateTestLink()
			require.NoError(t, err)

			recent, err := repo.Recent(ctx, 5)
			require.NoError(t, err)
			require.Len(t, recent, 2)
			// Same created_at timestamps fall back to id DESC
			assert.Equal(t, second.ID, recent[0].ID)
			assert.Equal(t, first.ID, recent[1].ID)
		})

		t.Run("SumClicks", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			a, err := fixtures.CreateTestLink()
			require.NoError(t, err)
			b, err := fixtures.CreateTestLink()
			require.NoError(t, err)
			require.NoError(t, repo.SetClicks(ctx, a.ID, 3))
			require.NoError(t, repo.SetClicks(ctx, b.ID, 4))

			sum, err := repo.SumClicks(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(7), sum)
		})

		t.Run("SumClicksEmpty", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			sum, err := repo.SumClicks(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(0), sum)
		})

		t.Run("ResetAllClicks", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			a, err := fixtures.CreateTestLink()
			require.NoError(t, err)
			require.NoError(t, repo.SetClicks(ctx, a.ID, 9))

			require.NoError(t, repo.ResetAllClicks(ctx))

			fresh, err := repo.ByID(ctx, a.ID)
			require.NoError(t, err)
			require.NotNil(t, fresh)
			assert.Equal(t, int64(0), fresh.Clicks)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestLinkClickRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewLinkClickRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("Save", func(t *testing.T) {
			link, err := fixtures.CreateTestLink()
			require.NoError(t, err)

			click, err := fixtures.CreateTestClick(link.ID, "198.51.100.7", utils.UTCNow())
			require.NoError(t, err)
			assert.NotZero(t, click.ID)
		})

		t.Run("ByFilter", func(t *testing.T) {
			link, err := fixtures.CreateTestLink()
			require.NoError(t, err)
			_, err = fixtures.CreateTestClick(link.ID, "198.51.100.8", utils.UTCNow())
			require.NoError(t, err)
			_, err = fixtures.CreateTestClick(link.ID, "198.51.100.9", utils.UTCNow())
			require.NoError(t, err)

			clicks, err := repo.ByFilter(ctx, models.LinkClickFilter{LinkID: &link.ID}, "id ASC", 0, 0)
			require.NoError(t, err)
			assert.Len(t, clicks, 2)
		})

		t.Run("CountSince", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())
			link, err := fixtures.CreateTestLink()
			require.NoError(t, err)

			now := utils.UTCNow()
			_, err = fixtures.CreateTestClick(link.ID, "198.51.100.10", now)
			require.NoError(t, err)
			_, err = fixtures.CreateTestClick(link.ID, "198.51.100.11", now.Add(-48*time.Hour))
			require.NoError(t, err)

			count, err := repo.CountSince(ctx, now.Add(-24*time.Hour))
			require.NoError(t, err)
			assert.Equal(t, int64(1), count)
		})

		t.Run("CountByDay", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())
			link, err := fixtures.CreateTestLink()
			require.NoError(t, err)

			now := utils.UTCNow()
			yesterday := now.AddDate(0, 0, -1)
			_, err = fixtures.CreateTestClick(link.ID, "198.51.100.12", now)
			require.NoError(t, err)
			_, err = fixtures.CreateTestClick(link.ID, "198.51.100.13", now)
			require.NoError(t, err)
			_, err = fixtures.CreateTestClick(link.ID, "198.51.100.14", yesterday)
			require.NoError(t, err)

			counts, err := repo.CountByDay(ctx, utils.StartOfDay(yesterday))
			require.NoError(t, err)
			require.Len(t, counts, 2)
			assert.Equal(t, utils.DayBucket(yesterday), counts[0].Day)
			assert.Equal(t, int64(1), counts[0].Count)
			assert.Equal(t, utils.DayBucket(now), counts[1].Day)
			assert.Equal(t, int64(2), counts[1].Count)
		})

		t.Run("ExistsForPair", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())
			link, err := fixtures.CreateTestLink()
			require.NoError(t, err)

			now := utils.UTCNow()
			_, err = fixtures.CreateTestClick(link.ID, "198.51.100.15", now)
			require.NoError(t, err)

			exists, err := repo.Exists(ctx, models.LinkClickFilter{LinkID: &link.ID, IP: utils.ToPtr("198.51.100.15")})
			require.NoError(t, err)
			assert.True(t, exists)

			exists, err = repo.Exists(ctx, models.LinkClickFilter{LinkID: &link.ID, IP: utils.ToPtr("198.51.100.99")})
			require.NoError(t, err)
			assert.False(t, exists)
		})

		t.Run("DeleteByLink", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())
			keep, err := fixtures.CreateTestLink()
			require.NoError(t, err)
			gone, err := fixtures.CreateTestLink()
			require.NoError(t, err)

			now := utils.UTCNow()
			_, err = fixtures.CreateTestClick(keep.ID, "198.51.100.16", now)
			require.NoError(t, err)
			_, err = fixtures.CreateTestClick(gone.ID, "198.51.100.17", now)
			require.NoError(t, err)

			require.NoError(t, repo.DeleteByLink(ctx, gone.ID))

			count, err := repo.Count(ctx, models.LinkClickFilter{})
			require.NoError(t, err)
			assert.Equal(t, int64(1), count)
		})

		t.Run("DeleteAll", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())
			link, err := fixtures.CreateTestLink()
			require.NoError(t, err)
			_, err = fixtures.CreateTestClick(link.ID, "198.51.100.18", utils.UTCNow())
			require.NoError(t, err)

			require.NoError(t, repo.DeleteAll(ctx))

			count, err := repo.Count(ctx, models.LinkClickFilter{})
			require.NoError(t, err)
			assert.Equal(t, int64(0), count)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestClickDedupRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewClickDedupRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("InsertIgnoreFirstInsertCounts", func(t *testing.T) {
			link, err := fixtures.CreateTestLink()
			require.NoError(t, err)

			inserted, err := repo.InsertIgnore(ctx, &models.ClickDedup{
				LinkID:    link.ID,
				IP:        "203.0.113.50",
				DayBucket: utils.DayBucket(utils.UTCNow()),
			})
			require.NoError(t, err)
			assert.True(t, inserted)
		})

		t.Run("InsertIgnoreDuplicateIsSilent", func(t *testing.T) {
			link, err := fixtures.CreateTestLink()
			require.NoError(t, err)

			day := utils.DayBucket(utils.UTCNow())
			inserted, err := repo.InsertIgnore(ctx, &models.ClickDedup{LinkID: link.ID, IP: "203.0.113.51", DayBucket: day})
			require.NoError(t, err)
			assert.True(t, inserted)

			inserted, err = repo.InsertIgnore(ctx, &models.ClickDedup{LinkID: link.ID, IP: "203.0.113.51", DayBucket: day})
			require.NoError(t, err)
			assert.False(t, inserted)
		})

		t.Run("DifferentDayCountsAgain", func(t *testing.T) {
			link, err := fixtures.CreateTestLink()
			require.NoError(t, err)

			now := utils.UTCNow()
			inserted, err := repo.InsertIgnore(ctx, &models.ClickDedup{LinkID: link.ID, IP: "203.0.113.52", DayBucket: utils.DayBucket(now)})
			require.NoError(t, err)
			assert.True(t, inserted)

			inserted, err = repo.InsertIgnore(ctx, &models.ClickDedup{LinkID: link.ID, IP: "203.0.113.52", DayBucket: utils.DayBucket(now.AddDate(0, 0, 1))})
			require.NoError(t, err)
			assert.True(t, inserted)
		})

		t.Run("CountPerLink", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			a, err := fixtures.CreateTestLink()
			require.NoError(t, err)
			b, err := fixtures.CreateTestLink()
			require.NoError(t, err)

			now := utils.UTCNow()
			_, err = fixtures.CreateTestDedup(a.ID, "203.0.113.53", now)
			require.NoError(t, err)
			_, err = fixtures.CreateTestDedup(a.ID, "203.0.113.54", now)
			require.NoError(t, err)
			_, err = fixtures.CreateTestDedup(b.ID, "203.0.113.55", now)
			require.NoError(t, err)

			counts, err := repo.CountPerLink(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(2), counts[a.ID])
			assert.Equal(t, int64(1), counts[b.ID])
		})

		t.Run("DeleteByLink", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			link, err := fixtures.CreateTestLink()
			require.NoError(t, err)
			_, err = fixtures.CreateTestDedup(link.ID, "203.0.113.56", utils.UTCNow())
			require.NoError(t, err)

			require.NoError(t, repo.DeleteByLink(ctx, link.ID))

			counts, err := repo.CountPerLink(ctx)
			require.NoError(t, err)
			assert.Zero(t, counts[link.ID])
		})

		t.Run("DeleteAll", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			link, err := fixtures.CreateTestLink()
			require.NoError(t, err)
			_, err = fixtures.CreateTestDedup(link.ID, "203.0.113.57", utils.UTCNow())
			require.NoError(t, err)

			require.NoError(t, repo.DeleteAll(ctx))

			counts, err := repo.CountPerLink(ctx)
			require.NoError(t, err)
			assert.Empty(t, counts)
		})

		return nil
	})
	require.NoError(t, err)
}
