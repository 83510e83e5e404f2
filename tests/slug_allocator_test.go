package tests

import (
	"fmt"
	"strings"
	"testing"

	businessflow "github.com/outlinkhq/outlink/business_flow"
	"github.com/outlinkhq/outlink/repository"
	testingutil "github.com/outlinkhq/outlink/testing"
	"github.com/outlinkhq/outlink/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSlug(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{"Lowercases", "MyShop", "myshop"},
		{"CollapsesSeparators", "My  Cool__Shop!!", "my-cool-shop"},
		{"TrimsHyphens", "--hello--", "hello"},
		{"StripsScheme", "https://Example.com/deals?id=1", "example-com-deals-id-1"},
		{"Empty", "   ", ""},
		{"OnlySymbols", "!!!", ""},
		{"Unicode", "café deals", "caf-deals"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, businessflow.NormalizeSlug(tc.input))
		})
	}

	t.Run("CapsLength", func(t *testing.T) {
		long := strings.Repeat("a", 200)
		out := businessflow.NormalizeSlug(long)
		assert.Len(t, out, utils.SlugMaxLength)
	})
}

func TestSlugAllocator(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		linkRepo := repository.NewLinkRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		allocator := businessflow.NewSlugAllocator(linkRepo, []string{"out", "api", "admin"})
		ctx := testingutil.CreateTestContext()

		t.Run("ExplicitSlugNormalized", func(t *testing.T) {
			slug, err := allocator.Allocate(ctx, "Shop", "https://shop.example.com/", "My Shop!")
			require.NoError(t, err)
			assert.Equal(t, "my-shop", slug)
		})

		t.Run("ExplicitSlugReserved", func(t *testing.T) {
			_, err := allocator.Allocate(ctx, "Shop", "https://shop.example.com/", "Admin")
			assert.True(t, businessflow.IsReservedSlug(err))
		})

		t.Run("ExplicitSlugInvalid", func(t *testing.T) {
			_, err := allocator.Allocate(ctx, "Shop", "https://shop.example.com/", "!!!")
			assert.True(t, businessflow.IsInvalidSlug(err))
		})

		t.Run("ExplicitSlugTaken", func(t *testing.T) {
			_, err := fixtures.CreateManualLink("taken-slug", "https://taken.example.com/")
			require.NoError(t, err)

			_, err = allocator.Allocate(ctx, "Shop", "https://shop.example.com/", "taken-slug")
			assert.True(t, businessflow.IsSlugTaken(err))
		})

		t.Run("DerivedFromTitle", func(t *testing.T) {
			slug, err := allocator.Allocate(ctx, "Spring Deals 2026", "https://deals.example.com/spring", "")
			require.NoError(t, err)
			assert.Equal(t, "spring-deals-2026", slug)
		})

		t.Run("DerivedFromHostAndPathWhenNoTitle", func(t *testing.T) {
			slug, err := allocator.AllocateForTarget(ctx, "https://store.example.net/items/42")
			require.NoError(t, err)
			assert.Equal(t, "store-example-net-items-42", slug)
		})

		t.Run("DerivedPathsOnOneHostStayDistinct", func(t *testing.T) {
			first, err := allocator.AllocateForTarget(ctx, "https://catalog.example.net/shoes")
			require.NoError(t, err)
			second, err := allocator.AllocateForTarget(ctx, "https://catalog.example.net/hats")
			require.NoError(t, err)
			assert.Equal(t, "catalog-example-net-shoes", first)
			assert.Equal(t, "catalog-example-net-hats", second)
		})

		t.Run("DerivedBareHostHasNoPathResidue", func(t *testing.T) {
			slug, err := allocator.AllocateForTarget(ctx, "https://plain.example.net")
			require.NoError(t, err)
			assert.Equal(t, "plain-example-net", slug)
		})

		t.Run("DerivedProbesSuffixes", func(t *testing.T) {
			_, err := fixtures.CreateManualLink("winter-sale", "https://a.example.com/")
			require.NoError(t, err)
			_, err = fixtures.CreateManualLink("winter-sale-1", "https://b.example.com/")
			require.NoError(t, err)

			slug, err := allocator.Allocate(ctx, "Winter Sale", "https://c.example.com/", "")
			require.NoError(t, err)
			assert.Equal(t, "winter-sale-2", slug)
		})

		t.Run("DerivedSkipsReservedBase", func(t *testing.T) {
			slug, err := allocator.Allocate(ctx, "API", "https://api-docs.example.com/", "")
			require.NoError(t, err)
			assert.Equal(t, "api-1", slug)
		})

		t.Run("Exhaustion", func(t *testing.T) {
			_, err := fixtures.CreateManualLink("crowded", "https://crowded.example.com/0")
			require.NoError(t, err)
			for i := 1; i <= utils.SlugMaxAttempts; i++ {
				_, err := fixtures.CreateManualLink(fmt.Sprintf("crowded-%d", i), fmt.Sprintf("https://crowded.example.com/%d", i))
				require.NoError(t, err)
			}

			_, err = allocator.Allocate(ctx, "Crowded", "https://crowded.example.com/new", "")
			assert.True(t, businessflow.IsSlugAllocationExhausted(err))
		})

		return nil
	})
	require.NoError(t, err)
}
