// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"

	"github.com/ecotrace/ecotrace/models"
	"gorm.io/gorm"
)

// BillRepositoryImpl implements BillRepository interface
type BillRepositoryImpl struct {
	*BaseRepository[models.Bill, models.BillFilter]
}

// NewBillRepository creates a new bill repository
func NewBillRepository(db *gorm.DB) BillRepository {
	return &BillRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Bill, models.BillFilter](db),
	}
}

// ByUUIDAndUser retrieves a bill by UUID scoped to its owner
func (r *BillRepositoryImpl) ByUUIDAndUser(ctx context.Context, uuid string, userID uint) (*models.Bill, error) {
	db := r.getDB(ctx)

	var bill models.Bill
	err := db.Where("uuid = ? AND user_id = ?", uuid, userID).Last(&bill).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bill, nil
}

// ListByUserAndMonth retrieves all bills for one user-month, the aggregation grain
func (r *BillRepositoryImpl) ListByUserAndMonth(ctx context.Context, userID uint, month string) ([]*models.Bill, error) {
	db := r.getDB(ctx)

	var bills []*models.Bill
	err := db.Where("user_id = ? AND month = ?", userID, month).Order("date ASC").Find(&bills).Error
	if err != nil {
		return nil, err
	}
	return bills, nil
}

// Update persists changes to an existing bill
func (r *BillRepositoryImpl) Update(ctx context.Context, bill *models.Bill) error {
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

	err = db.Save(bill).Error
	return err
}

// applyFilter applies filter criteria to a GORM query
func (r *BillRepositoryImpl) applyFilter(query *gorm.DB, filter models.BillFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.Month != nil {
		query = query.Where("month = ?", *filter.Month)
	}
	if filter.EntryMethod != nil {
		query = query.Where("entry_method = ?", *filter.EntryMethod)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves bills based on filter criteria
func (r *BillRepositoryImpl) ByFilter(ctx context.Context, filter models.BillFilter, orderBy string, limit, offset int) ([]*models.Bill, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Bill{})

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "date DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var bills []*models.Bill
	err := query.Find(&bills).Error
	if err != nil {
		return nil, err
	}
	return bills, nil
}

// Count returns the number of bills matching the filter
func (r *BillRepositoryImpl) Count(ctx context.Context, filter models.BillFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Bill{})

	query = r.applyFilter(query, filter)

	var count int64
	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
