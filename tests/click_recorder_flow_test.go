package tests

import (
	"sync"
	"testing"

	businessflow "github.com/outlinkhq/outlink/business_flow"
	"github.com/outlinkhq/outlink/models"
	"github.com/outlinkhq/outlink/repository"
	testingutil "github.com/outlinkhq/outlink/testing"
	"github.com/outlinkhq/outlink/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClickRecorderFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		linkRepo := repository.NewLinkRepository(testDB.DB)
		clickRepo := repository.NewLinkClickRepository(testDB.DB)
		dedupRepo := repository.NewClickDedupRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		recorder := businessflow.NewClickRecorderFlow(testDB.DB, clickRepo, dedupRepo, linkRepo)
		ctx := testingutil.CreateTestContext()

		t.Run("FirstClickCounts", func(t *testing.T) {
			link, err := fixtures.CreateTestLink()
			require.NoError(t, err)

			counted, err := recorder.Record(ctx, link.ID, "198.51.100.1", nil, nil)
			require.NoError(t, err)
			assert.True(t, counted)

			fresh, err := linkRepo.ByID(ctx, link.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(1), fresh.Clicks)
		})

		t.Run("RepeatClicksWriteEventsButCountOnce", func(t *testing.T) {
			link, err := fixtures.CreateTestLink()
			require.NoError(t, err)

			for i := 0; i < 5; i++ {
				_, err := recorder.Record(ctx, link.ID, "198.51.100.2", nil, utils.ToPtr("curl/8.0"))
				require.NoError(t, err)
			}

			fresh, err := linkRepo.ByID(ctx, link.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(1), fresh.Clicks)

			events, err := clickRepo.Count(ctx, models.LinkClickFilter{LinkID: &link.ID})
			require.NoError(t, err)
			assert.Equal(t, int64(5), events)
		})

		t.Run("DistinctVisitorsEachCount", func(t *testing.T) {
			link, err := fixtures.CreateTestLink()
			require.NoError(t, err)

			counted, err := recorder.Record(ctx, link.ID, "198.51.100.3", nil, nil)
			require.NoError(t, err)
			assert.True(t, counted)

			counted, err = recorder.Record(ctx, link.ID, "198.51.100.4", nil, nil)
			require.NoError(t, err)
			assert.True(t, counted)

			fresh, err := linkRepo.ByID(ctx, link.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(2), fresh.Clicks)
		})

		t.Run("CountryStoredOnEvent", func(t *testing.T) {
			link, err := fixtures.CreateTestLink()
			require.NoError(t, err)

			_, err = recorder.Record(ctx, link.ID, "198.51.100.5", utils.ToPtr("DE"), nil)
			require.NoError(t, err)

			events, err := clickRepo.ByFilter(ctx, models.LinkClickFilter{LinkID: &link.ID}, "id ASC", 0, 0)
			require.NoError(t, err)
			require.Len(t, events, 1)
			require.NotNil(t, events[0].Country)
			assert.Equal(t, "DE", *events[0].Country)
		})

		t.Run("ConcurrentSameVisitorCountsOnce", func(t *testing.T) {
			link, err := fixtures.CreateTestLink()
			require.NoError(t, err)

			const workers = 10
			var wg sync.WaitGroup
			countedCh := make(chan bool, workers)
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					counted, err := recorder.Record(ctx, link.ID, "198.51.100.6", nil, nil)
					if err == nil {
						countedCh <- counted
					}
				}()
			}
			wg.Wait()
			close(countedCh)

			countedTotal := 0
			for counted := range countedCh {
				if counted {
					countedTotal++
				}
			}
			assert.Equal(t, 1, countedTotal)

			fresh, err := linkRepo.ByID(ctx, link.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(1), fresh.Clicks)
		})

		return nil
	})
	require.NoError(t, err)
}
