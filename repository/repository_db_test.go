package repository_test

import (
	"testing"

	"github.com/ecotrace/ecotrace/emission"
	"github.com/ecotrace/ecotrace/models"
	"github.com/ecotrace/ecotrace/repository"
	testingutil "github.com/ecotrace/ecotrace/testing"
	"github.com/ecotrace/ecotrace/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withTestDB runs fn against a throwaway database, skipping when no
// PostgreSQL server is reachable (set TEST_DB_HOST etc. to point at one)
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

func TestBillRepository(t *testing.T) {
	withTestDB(t, func(testDB *testingutil.TestDB) {
		repo := repository.NewBillRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)

		bill, err := fixtures.CreateTestBill(user.ID, emission.CategoryElectricity, 100, "2025-03")
		require.NoError(t, err)
		_, err = fixtures.CreateTestBill(user.ID, emission.CategoryPetrol, 10, "2025-03")
		require.NoError(t, err)
		_, err = fixtures.CreateTestBill(user.ID, emission.CategoryWater, 20, "2025-04")
		require.NoError(t, err)

		t.Run("ByUUIDAndUser", func(t *testing.T) {
			found, err := repo.ByUUIDAndUser(ctx, bill.UUID.String(), user.ID)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, emission.CategoryElectricity, found.Type)
			assert.InDelta(t, 82.0, found.EmissionKg, 0.001)
		})

		t.Run("ByUUIDAndUserWrongOwner", func(t *testing.T) {
			found, err := repo.ByUUIDAndUser(ctx, bill.UUID.String(), user.ID+1)
			assert.NoError(t, err)
			assert.Nil(t, found)
		})

		t.Run("ListByUserAndMonth", func(t *testing.T) {
			bills, err := repo.ListByUserAndMonth(ctx, user.ID, "2025-03")
			require.NoError(t, err)
			assert.Len(t, bills, 2)
		})

		t.Run("CountByFilter", func(t *testing.T) {
			count, err := repo.Count(ctx, models.BillFilter{
				UserID: &user.ID,
				Type:   utils.ToPtr(emission.CategoryWater),
			})
			require.NoError(t, err)
			assert.Equal(t, int64(1), count)
		})

		t.Run("Update", func(t *testing.T) {
			bill.Units = 200
			bill.EmissionKg = 164
			require.NoError(t, repo.Update(ctx, bill))

			found, err := repo.ByUUIDAndUser(ctx, bill.UUID.String(), user.ID)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.InDelta(t, 164.0, found.EmissionKg, 0.001)
		})

		t.Run("Delete", func(t *testing.T) {
			require.NoError(t, repo.Delete(ctx, bill.ID))

			bills, err := repo.ListByUserAndMonth(ctx, user.ID, "2025-03")
			require.NoError(t, err)
			assert.Len(t, bills, 1)
		})
	})
}

func TestCarbonScoreRepository(t *testing.T) {
	withTestDB(t, func(testDB *testingutil.TestDB) {
		repo := repository.NewCarbonScoreRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)

		_, err = fixtures.CreateTestScore(user.ID, "2025-02", 90)
		require.NoError(t, err)
		_, err = fixtures.CreateTestScore(user.ID, "2025-03", 60)
		require.NoError(t, err)

		t.Run("ByUserAndMonth", func(t *testing.T) {
			score, err := repo.ByUserAndMonth(ctx, user.ID, "2025-03")
			require.NoError(t, err)
			require.NotNil(t, score)
			assert.Equal(t, 80, score.Score)
			assert.Equal(t, "B", score.Grade)
		})

		t.Run("ByUserAndMonthMissing", func(t *testing.T) {
			score, err := repo.ByUserAndMonth(ctx, user.ID, "2024-01")
			assert.NoError(t, err)
			assert.Nil(t, score)
		})

		t.Run("UpsertReplacesRow", func(t *testing.T) {
			err := repo.Upsert(ctx, &models.CarbonScore{
				UserID:          user.ID,
				Month:           "2025-03",
				TotalEmission:   150,
				Score:           50,
				Grade:           "E",
				NationalAverage: emission.NationalAverageKg,
			})
			require.NoError(t, err)

			count, err := repo.Count(ctx, models.CarbonScoreFilter{
				UserID: &user.ID,
				Month:  utils.ToPtr("2025-03"),
			})
			require.NoError(t, err)
			assert.Equal(t, int64(1), count)

			score, err := repo.ByUserAndMonth(ctx, user.ID, "2025-03")
			require.NoError(t, err)
			require.NotNil(t, score)
			assert.Equal(t, 50, score.Score)
		})

		t.Run("ListByUserNewestFirst", func(t *testing.T) {
			scores, err := repo.ListByUser(ctx, user.ID, 0)
			require.NoError(t, err)
			require.Len(t, scores, 2)
			assert.Equal(t, "2025-03", scores[0].Month)
			assert.Equal(t, "2025-02", scores[1].Month)
		})
	})
}

func TestRecommendationRepositoryListGlobal(t *testing.T) {
	withTestDB(t, func(testDB *testingutil.TestDB) {
		repo := repository.NewRecommendationRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		_, err := fixtures.CreateTestRecommendation(models.RecommendationCategoryEnergy, models.RecommendationImpactHigh, 30)
		require.NoError(t, err)
		_, err = fixtures.CreateTestRecommendation(models.RecommendationCategoryEnergy, models.RecommendationImpactLow, 5)
		require.NoError(t, err)
		_, err = fixtures.CreateTestRecommendation(models.RecommendationCategoryWater, models.RecommendationImpactMedium, 12)
		require.NoError(t, err)

		t.Run("Unfiltered", func(t *testing.T) {
			recs, err := repo.ListGlobal(ctx, "", "", 0)
			require.NoError(t, err)
			require.Len(t, recs, 3)
			// Biggest saving first
			assert.InDelta(t, 30.0, recs[0].PotentialSaving, 0.001)
		})

		t.Run("ByCategory", func(t *testing.T) {
			recs, err := repo.ListGlobal(ctx, models.RecommendationCategoryEnergy, "", 0)
			require.NoError(t, err)
			require.Len(t, recs, 2)
			for _, rec := range recs {
				assert.Equal(t, models.RecommendationCategoryEnergy, rec.Category)
			}
		})

		t.Run("ByCategoryAndImpact", func(t *testing.T) {
			recs, err := repo.ListGlobal(ctx, models.RecommendationCategoryEnergy, models.RecommendationImpactLow, 0)
			require.NoError(t, err)
			require.Len(t, recs, 1)
			assert.InDelta(t, 5.0, recs[0].PotentialSaving, 0.001)
		})

		t.Run("Limit", func(t *testing.T) {
			recs, err := repo.ListGlobal(ctx, "", "", 2)
			require.NoError(t, err)
			assert.Len(t, recs, 2)
		})
	})
}
