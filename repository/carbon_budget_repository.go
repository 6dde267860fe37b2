package repository

import (
	"context"
	"errors"

	"github.com/ecotrace/ecotrace/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CarbonBudgetRepositoryImpl implements CarbonBudgetRepository interface
type CarbonBudgetRepositoryImpl struct {
	*BaseRepository[models.CarbonBudget, models.CarbonBudgetFilter]
}

// NewCarbonBudgetRepository creates a new carbon budget repository
func NewCarbonBudgetRepository(db *gorm.DB) CarbonBudgetRepository {
	return &CarbonBudgetRepositoryImpl{
		BaseRepository: NewBaseRepository[models.CarbonBudget, models.CarbonBudgetFilter](db),
	}
}

// ByUserAndMonth retrieves the budget for one user-month
func (r *CarbonBudgetRepositoryImpl) ByUserAndMonth(ctx context.Context, userID uint, month string) (*models.CarbonBudget, error) {
	db := r.getDB(ctx)

	var budget models.CarbonBudget
	err := db.Where("user_id = ? AND month = ?", userID, month).Last(&budget).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &budget, nil
}

// Upsert writes the budget row keyed by (user_id, month)
func (r *CarbonBudgetRepositoryImpl) Upsert(ctx context.Context, budget *models.CarbonBudget) error {
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
			"target_emission", "electricity_budget", "transport_budget",
			"gas_budget", "updated_at",
		}),
	}).Create(budget).Error
	return err
}

// applyFilter applies filter criteria to a GORM query
func (r *CarbonBudgetRepositoryImpl) applyFilter(query *gorm.DB, filter models.CarbonBudgetFilter) *gorm.DB {
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

// ByFilter retrieves budgets based on filter criteria
func (r *CarbonBudgetRepositoryImpl) ByFilter(ctx context.Context, filter models.CarbonBudgetFilter, orderBy string, limit, offset int) ([]*models.CarbonBudget, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.CarbonBudget{})

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

	var budgets []*models.CarbonBudget
	err := query.Find(&budgets).Error
	if err != nil {
		return nil, err
	}
	return budgets, nil
}

// Count returns the number of budgets matching the filter
func (r *CarbonBudgetRepositoryImpl) Count(ctx context.Context, filter models.CarbonBudgetFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.CarbonBudget{})

	query = r.applyFilter(query, filter)

	var count int64
	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
