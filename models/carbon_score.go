package models

import (
	"time"
)

// CarbonScore is the per user-month aggregate, uniquely keyed by
// (user_id, month). It is a pure function of the bills in that month and is
// fully recomputed on every bill mutation, never patched incrementally.
type CarbonScore struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID uint   `gorm:"not null;uniqueIndex:uk_carbon_scores_user_month,priority:1" json:"user_id"`
	User   *User  `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	Month  string `gorm:"size:7;not null;uniqueIndex:uk_carbon_scores_user_month,priority:2;index:idx_carbon_scores_month" json:"month"`

	TotalEmission float64 `gorm:"not null" json:"total_emission"`
	Score         int     `gorm:"not null" json:"score"`
	Grade         string  `gorm:"size:1;not null" json:"grade"`

	// Category-group subtotals (kg CO2)
	ElectricityEmission float64 `gorm:"not null;default:0" json:"electricity_emission"`
	TransportEmission   float64 `gorm:"not null;default:0" json:"transport_emission"`
	GasEmission         float64 `gorm:"not null;default:0" json:"gas_emission"`
	WaterEmission       float64 `gorm:"not null;default:0" json:"water_emission"`
	OtherEmission       float64 `gorm:"not null;default:0" json:"other_emission"`

	// Nil when no prior-month record exists
	PreviousMonthChange *float64 `json:"previous_month_change,omitempty"`

	// Reference value frozen at upsert time
	NationalAverage float64 `gorm:"not null" json:"national_average"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (CarbonScore) TableName() string {
	return "carbon_scores"
}

// CarbonScoreFilter represents filter criteria for carbon score queries
type CarbonScoreFilter struct {
	ID     *uint   `json:"id,omitempty"`
	UserID *uint   `json:"user_id,omitempty"`
	Month  *string `json:"month,omitempty"`
}
