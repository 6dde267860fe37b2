package models

import (
	"time"
)

// User challenge statuses
const (
	UserChallengeStatusActive    = "active"
	UserChallengeStatusCompleted = "completed"
	UserChallengeStatusAbandoned = "abandoned"
)

// UserChallenge tracks one user's participation in a challenge, uniquely
// keyed by (user_id, challenge_id).
type UserChallenge struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"not null;uniqueIndex:uk_user_challenges_user_challenge,priority:1" json:"user_id"`
	User        *User      `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	ChallengeID uint       `gorm:"not null;uniqueIndex:uk_user_challenges_user_challenge,priority:2" json:"challenge_id"`
	Challenge   *Challenge `gorm:"foreignKey:ChallengeID;references:ID" json:"challenge,omitempty"`

	Status      string  `gorm:"size:16;not null;default:'active';index:idx_user_challenges_status" json:"status"`
	Progress    int     `gorm:"not null;default:0" json:"progress"` // 0-100
	CarbonSaved float64 `gorm:"not null;default:0" json:"carbon_saved"`

	StartDate time.Time `gorm:"not null;default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"start_date"`
	EndDate   time.Time `gorm:"not null" json:"end_date"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (UserChallenge) TableName() string {
	return "user_challenges"
}

// IsCompleted reports whether the challenge has been finished
func (uc *UserChallenge) IsCompleted() bool {
	return uc.Status == UserChallengeStatusCompleted
}

// UserChallengeFilter represents filter criteria for user challenge queries
type UserChallengeFilter struct {
	ID          *uint   `json:"id,omitempty"`
	UserID      *uint   `json:"user_id,omitempty"`
	ChallengeID *uint   `json:"challenge_id,omitempty"`
	Status      *string `json:"status,omitempty"`
}
