package repository

import (
	"context"

	"github.com/ecotrace/ecotrace/models"
	"gorm.io/gorm"
)

// RecommendationRepositoryImpl implements RecommendationRepository interface
type RecommendationRepositoryImpl struct {
	*BaseRepository[models.Recommendation, models.RecommendationFilter]
}

// NewRecommendationRepository creates a new recommendation repository
func NewRecommendationRepository(db *gorm.DB) RecommendationRepository {
	return &RecommendationRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Recommendation, models.RecommendationFilter](db),
	}
}

// ListGlobal retrieves catalog recommendations, biggest saving first
func (r *RecommendationRepositoryImpl) ListGlobal(ctx context.Context, category, impact string, limit int) ([]*models.Recommendation, error) {
	db := r.getDB(ctx)

	query := db.Model(&models.Recommendation{}).Where("is_global = ?", true)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if impact != "" {
		query = query.Where("impact = ?", impact)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var recs []*models.Recommendation
	err := query.Order("potential_saving DESC").Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *RecommendationRepositoryImpl) applyFilter(query *gorm.DB, filter models.RecommendationFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.Impact != nil {
		query = query.Where("impact = ?", *filter.Impact)
	}
	if filter.IsGlobal != nil {
		query = query.Where("is_global = ?", *filter.IsGlobal)
	}
	return query
}

// ByFilter retrieves recommendations based on filter criteria
func (r *RecommendationRepositoryImpl) ByFilter(ctx context.Context, filter models.RecommendationFilter, orderBy string, limit, offset int) ([]*models.Recommendation, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Recommendation{})

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "potential_saving DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var recs []*models.Recommendation
	err := query.Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// Count returns the number of recommendations matching the filter
func (r *RecommendationRepositoryImpl) Count(ctx context.Context, filter models.RecommendationFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Recommendation{})

	query = r.applyFilter(query, filter)

	var count int64
	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
