package repository

import (
	"context"

	"github.com/ecotrace/ecotrace/models"
	"gorm.io/gorm"
)

// ChallengeRepositoryImpl implements ChallengeRepository interface
type ChallengeRepositoryImpl struct {
	*BaseRepository[models.Challenge, models.ChallengeFilter]
}

// NewChallengeRepository creates a new challenge repository
func NewChallengeRepository(db *gorm.DB) ChallengeRepository {
	return &ChallengeRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Challenge, models.ChallengeFilter](db),
	}
}

// ListActive retrieves active catalog challenges, hardest (most points) first
func (r *ChallengeRepositoryImpl) ListActive(ctx context.Context, category string) ([]*models.Challenge, error) {
	db := r.getDB(ctx)

	query := db.Model(&models.Challenge{}).Where("is_active = ?", true)
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var challenges []*models.Challenge
	err := query.Order("points DESC").Find(&challenges).Error
	if err != nil {
		return nil, err
	}
	return challenges, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *ChallengeRepositoryImpl) applyFilter(query *gorm.DB, filter models.ChallengeFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	return query
}

// ByFilter retrieves challenges based on filter criteria
func (r *ChallengeRepositoryImpl) ByFilter(ctx context.Context, filter models.ChallengeFilter, orderBy string, limit, offset int) ([]*models.Challenge, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Challenge{})

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "points DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var challenges []*models.Challenge
	err := query.Find(&challenges).Error
	if err != nil {
		return nil, err
	}
	return challenges, nil
}

// Count returns the number of challenges matching the filter
func (r *ChallengeRepositoryImpl) Count(ctx context.Context, filter models.ChallengeFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Challenge{})

	query = r.applyFilter(query, filter)

	var count int64
	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
