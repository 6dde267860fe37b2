package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/ecotrace/ecotrace/emission"
	"github.com/ecotrace/ecotrace/models"
	"github.com/ecotrace/ecotrace/utils"
	"github.com/google/uuid"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestUser creates an active user in the default region
func (tf *TestFixtures) CreateTestUser() (*models.User, error) {
	suffix := rand.Intn(10000000)

	user := &models.User{
		UUID:     uuid.New(),
		Name:     "Jane Doe",
		Email:    fmt.Sprintf("jane.doe.%d@example.com", suffix),
		Region:   emission.DefaultRegion,
		IsActive: utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create test user: %w", err)
	}

	return user, nil
}

// CreateTestBill creates a bill for the given user and month. EmissionKg is
// derived from the shipped factor table so score assertions stay consistent.
func (tf *TestFixtures) CreateTestBill(userID uint, billType string, units float64, month string) (*models.Bill, error) {
	table := emission.DefaultFactorTable()

	date, err := time.Parse("2006-01", month)
	if err != nil {
		return nil, fmt.Errorf("invalid month %q: %w", month, err)
	}
	date = date.AddDate(0, 0, 14) // mid-month

	bill := &models.Bill{
		UUID:        uuid.New(),
		UserID:      userID,
		Type:        billType,
		Units:       units,
		UnitType:    emission.CanonicalUnit(table, billType),
		EmissionKg:  emission.CalculateOrZero(table, billType, units, emission.DefaultRegion),
		Date:        date,
		Month:       month,
		EntryMethod: models.EntryMethodManual,
	}

	if err := tf.DB.DB.Create(bill).Error; err != nil {
		return nil, fmt.Errorf("failed to create test bill: %w", err)
	}

	return bill, nil
}

// CreateTestScore creates a carbon score row directly, bypassing recomputation
func (tf *TestFixtures) CreateTestScore(userID uint, month string, totalKg float64) (*models.CarbonScore, error) {
	score := emission.Score(totalKg)

	record := &models.CarbonScore{
		UserID:          userID,
		Month:           month,
		TotalEmission:   totalKg,
		Score:           score,
		Grade:           emission.Grade(score),
		NationalAverage: emission.NationalAverageKg,
	}

	if err := tf.DB.DB.Create(record).Error; err != nil {
		return nil, fmt.Errorf("failed to create test score: %w", err)
	}

	return record, nil
}

// CreateTestBudget creates a monthly emission budget for the user
func (tf *TestFixtures) CreateTestBudget(userID uint, month string, targetKg float64) (*models.CarbonBudget, error) {
	budget := &models.CarbonBudget{
		UserID:         userID,
		Month:          month,
		TargetEmission: targetKg,
	}

	if err := tf.DB.DB.Create(budget).Error; err != nil {
		return nil, fmt.Errorf("failed to create test budget: %w", err)
	}

	return budget, nil
}

// CreateTestChallenge creates an active catalog challenge
func (tf *TestFixtures) CreateTestChallenge(category string, durationDays int) (*models.Challenge, error) {
	challenge := &models.Challenge{
		Title:        fmt.Sprintf("Test Challenge %d", rand.Intn(10000)),
		Description:  "A challenge used in tests",
		Category:     category,
		TargetSaving: 10,
		DurationDays: durationDays,
		Points:       50,
		IsActive:     utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(challenge).Error; err != nil {
		return nil, fmt.Errorf("failed to create test challenge: %w", err)
	}

	return challenge, nil
}

// CreateTestUserChallenge enrolls the user in the challenge with the given progress
func (tf *TestFixtures) CreateTestUserChallenge(userID, challengeID uint, progress int) (*models.UserChallenge, error) {
	status := models.UserChallengeStatusActive
	if progress >= 100 {
		status = models.UserChallengeStatusCompleted
	}

	uc := &models.UserChallenge{
		UserID:      userID,
		ChallengeID: challengeID,
		Status:      status,
		Progress:    progress,
		StartDate:   time.Now().UTC(),
		EndDate:     time.Now().UTC().AddDate(0, 0, 14),
	}

	if err := tf.DB.DB.Create(uc).Error; err != nil {
		return nil, fmt.Errorf("failed to create test user challenge: %w", err)
	}

	return uc, nil
}

// CreateTestRecommendation creates a global catalog recommendation
func (tf *TestFixtures) CreateTestRecommendation(category, impact string, savingKg float64) (*models.Recommendation, error) {
	rec := &models.Recommendation{
		Title:           fmt.Sprintf("Test Recommendation %d", rand.Intn(10000)),
		Description:     "A recommendation used in tests",
		Category:        category,
		Impact:          impact,
		PotentialSaving: savingKg,
		IsGlobal:        utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(rec).Error; err != nil {
		return nil, fmt.Errorf("failed to create test recommendation: %w", err)
	}

	return rec, nil
}

// CreateTestAuditLog creates a test audit log entry
func (tf *TestFixtures) CreateTestAuditLog(userID *uint, action string, success bool) (*models.AuditLog, error) {
	description := fmt.Sprintf("Test %s action", action)
	ipAddress := "127.0.0.1"
	userAgent := "Test User Agent"

	audit := &models.AuditLog{
		UserID:      userID,
		Action:      action,
		Description: &description,
		Success:     &success,
		IPAddress:   &ipAddress,
		UserAgent:   &userAgent,
	}

	if !success {
		errorMessage := "Test failed action"
		audit.ErrorMessage = &errorMessage
	}

	if err := tf.DB.DB.Create(audit).Error; err != nil {
		return nil, fmt.Errorf("failed to create test audit log: %w", err)
	}

	return audit, nil
}
