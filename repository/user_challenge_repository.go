package repository

import (
	"context"
	"errors"

	"github.com/ecotrace/ecotrace/models"
	"gorm.io/gorm"
)

// UserChallengeRepositoryImpl implements UserChallengeRepository interface
type UserChallengeRepositoryImpl struct {
	*BaseRepository[models.UserChallenge, models.UserChallengeFilter]
}

// NewUserChallengeRepository creates a new user challenge repository
func NewUserChallengeRepository(db *gorm.DB) UserChallengeRepository {
	return &UserChallengeRepositoryImpl{
		BaseRepository: NewBaseRepository[models.UserChallenge, models.UserChallengeFilter](db),
	}
}

// ByUserAndChallenge retrieves one participation row by its composite key
func (r *UserChallengeRepositoryImpl) ByUserAndChallenge(ctx context.Context, userID, challengeID uint) (*models.UserChallenge, error) {
	db := r.getDB(ctx)

	var uc models.UserChallenge
	err := db.Where("user_id = ? AND challenge_id = ?", userID, challengeID).Last(&uc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &uc, nil
}

// ListByUser retrieves a user's challenges with the catalog entry preloaded
func (r *UserChallengeRepositoryImpl) ListByUser(ctx context.Context, userID uint, status string) ([]*models.UserChallenge, error) {
	db := r.getDB(ctx)

	query := db.Model(&models.UserChallenge{}).Preload("Challenge").Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var ucs []*models.UserChallenge
	err := query.Order("start_date DESC").Find(&ucs).Error
	if err != nil {
		return nil, err
	}
	return ucs, nil
}

// Update persists changes to a participation row
func (r *UserChallengeRepositoryImpl) Update(ctx context.Context, userChallenge *models.UserChallenge) error {
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

	err = db.Save(userChallenge).Error
	return err
}

// applyFilter applies filter criteria to a GORM query
func (r *UserChallengeRepositoryImpl) applyFilter(query *gorm.DB, filter models.UserChallengeFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.ChallengeID != nil {
		query = query.Where("challenge_id = ?", *filter.ChallengeID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	return query
}

// ByFilter retrieves user challenges based on filter criteria
func (r *UserChallengeRepositoryImpl) ByFilter(ctx context.Context, filter models.UserChallengeFilter, orderBy string, limit, offset int) ([]*models.UserChallenge, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.UserChallenge{})

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "start_date DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var ucs []*models.UserChallenge
	err := query.Find(&ucs).Error
	if err != nil {
		return nil, err
	}
	return ucs, nil
}

// Count returns the number of user challenges matching the filter
func (r *UserChallengeRepositoryImpl) Count(ctx context.Context, filter models.UserChallengeFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.UserChallenge{})

	query = r.applyFilter(query, filter)

	var count int64
	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
