// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/ecotrace/ecotrace/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Delete(ctx context.Context, id uint) error
}

// UserRepository defines operations for users
type UserRepository interface {
	Repository[models.User, models.UserFilter]
	ByEmail(ctx context.Context, email string) (*models.User, error)
	ByUUID(ctx context.Context, uuid string) (*models.User, error)
}

// BillRepository defines operations for bills
type BillRepository interface {
	Repository[models.Bill, models.BillFilter]
	ByUUIDAndUser(ctx context.Context, uuid string, userID uint) (*models.Bill, error)
	ListByUserAndMonth(ctx context.Context, userID uint, month string) ([]*models.Bill, error)
	Update(ctx context.Context, bill *models.Bill) error
}

// CarbonScoreRepository defines operations for monthly carbon scores
type CarbonScoreRepository interface {
	Repository[models.CarbonScore, models.CarbonScoreFilter]
	ByUserAndMonth(ctx context.Context, userID uint, month string) (*models.CarbonScore, error)
	ListByUser(ctx context.Context, userID uint, limit int) ([]*models.CarbonScore, error)
	Upsert(ctx context.Context, score *models.CarbonScore) error
}

// CarbonBudgetRepository defines operations for monthly carbon budgets
type CarbonBudgetRepository interface {
	Repository[models.CarbonBudget, models.CarbonBudgetFilter]
	ByUserAndMonth(ctx context.Context, userID uint, month string) (*models.CarbonBudget, error)
	Upsert(ctx context.Context, budget *models.CarbonBudget) error
}

// ChallengeRepository defines operations for the challenge catalog
type ChallengeRepository interface {
	Repository[models.Challenge, models.ChallengeFilter]
	ListActive(ctx context.Context, category string) ([]*models.Challenge, error)
}

// UserChallengeRepository defines operations for user challenge participation
type UserChallengeRepository interface {
	Repository[models.UserChallenge, models.UserChallengeFilter]
	ByUserAndChallenge(ctx context.Context, userID, challengeID uint) (*models.UserChallenge, error)
	ListByUser(ctx context.Context, userID uint, status string) ([]*models.UserChallenge, error)
	Update(ctx context.Context, userChallenge *models.UserChallenge) error
}

// RecommendationRepository defines operations for the recommendation catalog
type RecommendationRepository interface {
	Repository[models.Recommendation, models.RecommendationFilter]
	ListGlobal(ctx context.Context, category, impact string, limit int) ([]*models.Recommendation, error)
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.AuditLog, error)
}
