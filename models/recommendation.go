package models

import (
	"time"
)

// Recommendation impact tiers
const (
	RecommendationImpactHigh   = "high"
	RecommendationImpactMedium = "medium"
	RecommendationImpactLow    = "low"
)

// Recommendation categories mirror the challenge catalog so both can be
// matched against a user's dominant emission group.
const (
	RecommendationCategoryEnergy    = "energy"
	RecommendationCategoryTransport = "transport"
	RecommendationCategoryLifestyle = "lifestyle"
	RecommendationCategoryWater     = "water"
)

// Recommendation is a global catalog entry describing an emission-reduction
// action, surfaced to users ordered by their dominant emission category.
type Recommendation struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text;not null" json:"description"`
	Category    string `gorm:"size:32;not null;index:idx_recommendations_category" json:"category"`
	Impact      string `gorm:"size:16;not null;index:idx_recommendations_impact" json:"impact"`

	// Estimated monthly saving if adopted (kg CO2)
	PotentialSaving float64 `gorm:"not null;default:0" json:"potential_saving"`

	IsGlobal *bool `gorm:"default:true;index:idx_recommendations_is_global" json:"is_global"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (Recommendation) TableName() string {
	return "recommendations"
}

// RecommendationFilter represents filter criteria for recommendation queries
type RecommendationFilter struct {
	ID       *uint   `json:"id,omitempty"`
	Category *string `json:"category,omitempty"`
	Impact   *string `json:"impact,omitempty"`
	IsGlobal *bool   `json:"is_global,omitempty"`
}
