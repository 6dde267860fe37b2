package businessflow_test

import (
	"testing"

	"github.com/ecotrace/ecotrace/app/dto"
	businessflow "github.com/ecotrace/ecotrace/business_flow"
	"github.com/ecotrace/ecotrace/models"
	"github.com/ecotrace/ecotrace/repository"
	testingutil "github.com/ecotrace/ecotrace/testing"
	"github.com/ecotrace/ecotrace/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withTestDB runs fn against a throwaway database, skipping when no
// PostgreSQL server is reachable
func withTestDB(t *testing.T, fn func(testDB *testingutil.TestDB)) {
	t.Helper()

	testDB, err := testingutil.SetupTestDB()
	if err != nil {
		t.Skipf("test database unavailable: %v", err)
	}
	defer func() {
		if cleanupErr := testDB.TeardownTestDB(); cleanupErr != nil {
			t.Logf("Warning: failed to cleanup test database: %v", cleanupErr)
		}
	}()

	fn(testDB)
}

func TestRecommendationFlowFilters(t *testing.T) {
	withTestDB(t, func(testDB *testingutil.TestDB) {
		flow := businessflow.NewRecommendationFlow(
			repository.NewRecommendationRepository(testDB.DB),
			repository.NewCarbonScoreRepository(testDB.DB),
			repository.NewUserRepository(testDB.DB),
			testDB.DB,
			nil,
		)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)

		_, err = fixtures.CreateTestRecommendation(models.RecommendationCategoryEnergy, models.RecommendationImpactHigh, 30)
		require.NoError(t, err)
		_, err = fixtures.CreateTestRecommendation(models.RecommendationCategoryTransport, models.RecommendationImpactMedium, 18)
		require.NoError(t, err)
		_, err = fixtures.CreateTestRecommendation(models.RecommendationCategoryWater, models.RecommendationImpactLow, 4)
		require.NoError(t, err)

		t.Run("Unfiltered", func(t *testing.T) {
			resp, err := flow.ListRecommendations(ctx, &dto.ListRecommendationsRequest{
				UserID: user.ID,
				Month:  utils.ToPtr("2025-03"),
			})
			require.NoError(t, err)
			assert.Len(t, resp.Items, 3)
		})

		t.Run("ByCategory", func(t *testing.T) {
			resp, err := flow.ListRecommendations(ctx, &dto.ListRecommendationsRequest{
				UserID:   user.ID,
				Month:    utils.ToPtr("2025-03"),
				Category: utils.ToPtr(models.RecommendationCategoryTransport),
			})
			require.NoError(t, err)
			require.Len(t, resp.Items, 1)
			assert.Equal(t, models.RecommendationCategoryTransport, resp.Items[0].Category)
		})

		t.Run("ByImpact", func(t *testing.T) {
			resp, err := flow.ListRecommendations(ctx, &dto.ListRecommendationsRequest{
				UserID: user.ID,
				Month:  utils.ToPtr("2025-03"),
				Impact: utils.ToPtr(models.RecommendationImpactLow),
			})
			require.NoError(t, err)
			require.Len(t, resp.Items, 1)
			assert.Equal(t, models.RecommendationImpactLow, resp.Items[0].Impact)
		})

		t.Run("FilterWithNoMatches", func(t *testing.T) {
			resp, err := flow.ListRecommendations(ctx, &dto.ListRecommendationsRequest{
				UserID:   user.ID,
				Month:    utils.ToPtr("2025-03"),
				Category: utils.ToPtr(models.RecommendationCategoryLifestyle),
			})
			require.NoError(t, err)
			assert.Empty(t, resp.Items)
		})
	})
}
