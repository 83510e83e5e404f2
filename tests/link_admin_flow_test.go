package tests

import (
	"testing"

	"github.com/outlinkhq/outlink/app/dto"
	businessflow "github.com/outlinkhq/outlink/business_flow"
	"github.com/outlinkhq/outlink/models"
	"github.com/outlinkhq/outlink/repository"
	testingutil "github.com/outlinkhq/outlink/testing"
	"github.com/outlinkhq/outlink/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLinkAdminFlow(testDB *testingutil.TestDB) businessflow.LinkAdminFlow {
	linkRepo := repository.NewLinkRepository(testDB.DB)
	clickRepo := repository.NewLinkClickRepository(testDB.DB)
	dedupRepo := repository.NewClickDedupRepository(testDB.DB)
	allocator := businessflow.NewSlugAllocator(linkRepo, []string{"out", "api", "s"})
	analytics := businessflow.NewAnalyticsFlow(linkRepo, clickRepo, "https://go.example.com")
	return businessflow.NewLinkAdminFlow(testDB.DB, linkRepo, clickRepo, dedupRepo, allocator, analytics, "https://go.example.com")
}

func TestLinkAdminFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newLinkAdminFlow(testDB)
		linkRepo := repository.NewLinkRepository(testDB.DB)
		clickRepo := repository.NewLinkClickRepository(testDB.DB)
		dedupRepo := repository.NewClickDedupRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("CreateWithExplicitSlug", func(t *testing.T) {
			res, err := flow.Create(ctx, &dto.CreateLinkRequest{
				Title:     "Summer Sale",
				TargetURL: "https://shop.example.com/summer",
				Slug:      "summer",
			})
			require.NoError(t, err)
			assert.Equal(t, "summer", res.Slug)
			assert.True(t, res.IsManual)
			assert.Equal(t, int64(0), res.Clicks)
			assert.Equal(t, "https://go.example.com/s/summer", res.ShortURL)
		})

		t.Run("CreateDerivesSlugFromTitle", func(t *testing.T) {
			res, err := flow.Create(ctx, &dto.CreateLinkRequest{
				Title:     "Autumn Deals",
				TargetURL: "https://shop.example.com/autumn",
			})
			require.NoError(t, err)
			assert.Equal(t, "autumn-deals", res.Slug)
		})

		t.Run("CreateRejectsInvalidURL", func(t *testing.T) {
			_, err := flow.Create(ctx, &dto.CreateLinkRequest{
				Title:     "Bad",
				TargetURL: "javascript:alert(1)",
			})
			assert.True(t, businessflow.IsInvalidURL(err))
		})

		t.Run("CreateRejectsDuplicateSlug", func(t *testing.T) {
			_, err := flow.Create(ctx, &dto.CreateLinkRequest{
				Title:     "Other",
				TargetURL: "https://shop.example.com/other",
				Slug:      "summer",
			})
			assert.True(t, businessflow.IsSlugTaken(err))
		})

		t.Run("CreateRejectsReservedSlug", func(t *testing.T) {
			_, err := flow.Create(ctx, &dto.CreateLinkRequest{
				Title:     "Other",
				TargetURL: "https://shop.example.com/other",
				Slug:      "api",
			})
			assert.True(t, businessflow.IsReservedSlug(err))
		})

		t.Run("UpdateTitleAndTarget", func(t *testing.T) {
			link, err := fixtures.CreateManualLink("editable", "https://before.example.com/")
			require.NoError(t, err)

			res, err := flow.Update(ctx, link.UUID.String(), &dto.UpdateLinkRequest{
				Title:     utils.ToPtr("After"),
				TargetURL: utils.ToPtr("https://after.example.com/"),
			})
			require.NoError(t, err)
			assert.Equal(t, "After", res.Title)
			assert.Equal(t, "https://after.example.com/", res.TargetURL)
			// Slug is immutable
			assert.Equal(t, "editable", res.Slug)
		})

		t.Run("UpdateRequiresAField", func(t *testing.T) {
			link, err := fixtures.CreateManualLink("untouched", "https://untouched.example.com/")
			require.NoError(t, err)

			_, err = flow.Update(ctx, link.UUID.String(), &dto.UpdateLinkRequest{})
			assert.Error(t, err)
		})

		t.Run("UpdateUnknownLink", func(t *testing.T) {
			_, err := flow.Update(ctx, "b4a9f9a0-0000-0000-0000-000000000000", &dto.UpdateLinkRequest{
				Title: utils.ToPtr("Nope"),
			})
			assert.True(t, businessflow.IsLinkNotFound(err))
		})

		t.Run("UpdateMalformedUUID", func(t *testing.T) {
			_, err := flow.Update(ctx, "not-a-uuid", &dto.UpdateLinkRequest{
				Title: utils.ToPtr("Nope"),
			})
			assert.True(t, businessflow.IsLinkNotFound(err))
		})

		t.Run("DeleteCascades", func(t *testing.T) {
			link, err := fixtures.CreateClickedLink(3)
			require.NoError(t, err)

			require.NoError(t, flow.Delete(ctx, link.UUID.String()))

			fresh, err := linkRepo.ByID(ctx, link.ID)
			require.NoError(t, err)
			assert.Nil(t, fresh)

			clicks, err := clickRepo.Count(ctx, models.LinkClickFilter{LinkID: &link.ID})
			require.NoError(t, err)
			assert.Equal(t, int64(0), clicks)

			counts, err := dedupRepo.CountPerLink(ctx)
			require.NoError(t, err)
			assert.Zero(t, counts[link.ID])
		})

		t.Run("ResetStatistics", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			link, err := fixtures.CreateClickedLink(4)
			require.NoError(t, err)

			res, err := flow.ResetStatistics(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(1), res.LinksAffected)

			fresh, err := linkRepo.ByID(ctx, link.ID)
			require.NoError(t, err)
			require.NotNil(t, fresh)
			assert.Equal(t, int64(0), fresh.Clicks)

			clicks, err := clickRepo.Count(ctx, models.LinkClickFilter{})
			require.NoError(t, err)
			assert.Equal(t, int64(0), clicks)
		})

		t.Run("ReconcileHealsDrift", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			drifted, err := fixtures.CreateClickedLink(3)
			require.NoError(t, err)
			healthy, err := fixtures.CreateClickedLink(2)
			require.NoError(t, err)

			// Simulate counter drift
			require.NoError(t, linkRepo.SetClicks(ctx, drifted.ID, 100))

			res, err := flow.Reconcile(ctx)
			require.NoError(t, err)
			assert.Equal(t, 2, res.Checked)
			assert.Equal(t, 1, res.Adjusted)

			fresh, err := linkRepo.ByID(ctx, drifted.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(3), fresh.Clicks)

			fresh, err = linkRepo.ByID(ctx, healthy.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(2), fresh.Clicks)
		})

		t.Run("ListIncludesSummary", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			_, err := fixtures.CreateClickedLink(2)
			require.NoError(t, err)

			res, err := flow.List(ctx)
			require.NoError(t, err)
			require.Len(t, res.Links, 1)
			require.NotNil(t, res.Summary)
			assert.Equal(t, int64(2), res.Summary.TotalClicks)
			assert.Equal(t, int64(1), res.Summary.TotalLinks)
		})

		t.Run("ExportExcel", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			_, err := fixtures.CreateClickedLink(1)
			require.NoError(t, err)

			filename, data, err := flow.ExportExcel(ctx)
			require.NoError(t, err)
			assert.Contains(t, filename, "affiliate_links_")
			assert.Contains(t, filename, ".xlsx")
			assert.NotEmpty(t, data)
		})

		return nil
	})
	require.NoError(t, err)
}
