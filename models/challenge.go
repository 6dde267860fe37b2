package models

import (
	"time"
)

// Challenge categories
const (
	ChallengeCategoryEnergy    = "energy"
	ChallengeCategoryTransport = "transport"
	ChallengeCategoryLifestyle = "lifestyle"
	ChallengeCategoryWater     = "water"
)

// Challenge is a global catalog entry users can join to reduce emissions.
type Challenge struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text;not null" json:"description"`
	Category    string `gorm:"size:32;not null;index:idx_challenges_category" json:"category"`

	// Expected saving over the challenge duration (kg CO2)
	TargetSaving float64 `gorm:"not null;default:0" json:"target_saving"`
	DurationDays int     `gorm:"not null" json:"duration_days"`
	Points       int     `gorm:"not null;default:0" json:"points"`

	IsActive *bool `gorm:"default:true;index:idx_challenges_is_active" json:"is_active"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`

	UserChallenges []UserChallenge `gorm:"foreignKey:ChallengeID" json:"-"`
}

func (Challenge) TableName() string {
	return "challenges"
}

// ChallengeFilter represents filter criteria for challenge queries
type ChallengeFilter struct {
	ID       *uint   `json:"id,omitempty"`
	Category *string `json:"category,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}
