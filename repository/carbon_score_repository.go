package repository

import (
	"context"
	"errors"

	"github.com/ecotrace/ecotrace/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CarbonScoreRepositoryImpl implements CarbonScoreRepository interface
type CarbonScoreRepositoryImpl struct {
	*BaseRepository[models.CarbonScore, models.CarbonScoreFilter]
}

// NewCarbonScoreRepository creates a new carbon score repository
func NewCarbonScoreRepository(db *gorm.DB) CarbonScoreRepository {
	return &CarbonScoreRepositoryImpl{
		BaseRepository: NewBaseRepository[models.CarbonScore, models.CarbonScoreFilter](db),
	}
}

// ByUserAndMonth retrieves the score for one user-month
func (r *CarbonScoreRepositoryImpl) ByUserAndMonth(ctx context.Context, userID uint, month string) (*models.CarbonScore, error) {
	db := r.getDB(ctx)

	var score models.CarbonScore
	err := db.Where("user_id = ? AND month = ?", userID, month).Last(&score).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &score, nil
}

// ListByUser retrieves score history for a user, most recent month first
func (r *CarbonScoreRepositoryImpl) ListByUser(ctx context.Context, userID uint, limit int) ([]*models.CarbonScore, error) {
	db := r.getDB(ctx)

	query := db.Where("user_id = ?", userID).Order("month DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var scores []*models.CarbonScore
	err := query.Find(&scores).Error
	if err != nil {
		return nil, err
	}
	return scores, nil
}

// Upsert writes the score row keyed by (user_id, month), relying on the
// unique constraint for atomicity of the single statement.
func (r *CarbonScoreRepositoryImpl) Upsert(ctx context.Context, score *models.CarbonScore) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "month"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_emission", "score", "grade",
			"electricity_emission", "transport_emission", "gas_emission",
			"water_emission", "other_emission",
			"previous_month_change", "national_average", "updated_at",
		}),
	}).Create(score).Error
	return err
}

// applyFilter applies filter criteria to a GORM query
func (r *CarbonScoreRepositoryImpl) applyFilter(query *gorm.DB, filter models.CarbonScoreFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Month != nil {
		query = query.Where("month = ?", *filter.Month)
	}
	return query
}

// ByFilter retrieves carbon scores based on filter criteria
func (r *CarbonScoreRepositoryImpl) ByFilter(ctx context.Context, filter models.CarbonScoreFilter, orderBy string, limit, offset int) ([]*models.CarbonScore, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.CarbonScore{})

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "month DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var scores []*models.CarbonScore
	err := query.Find(&scores).Error
	if err != nil {
		return nil, err
	}
	return scores, nil
}

// Count returns the number of carbon scores matching the filter
func (r *CarbonScoreRepositoryImpl) Count(ctx context.Context, filter models.CarbonScoreFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.CarbonScore{})

	query = r.applyFilter(query, filter)

	var count int64
	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
