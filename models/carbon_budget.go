package models

import (
	"time"
)

// CarbonBudget is a user-set monthly emission target, keyed by
// (user_id, month) like CarbonScore.
type CarbonBudget struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID uint   `gorm:"not null;uniqueIndex:uk_carbon_budgets_user_month,priority:1" json:"user_id"`
	User   *User  `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	Month  string `gorm:"size:7;not null;uniqueIndex:uk_carbon_budgets_user_month,priority:2" json:"month"`

	TargetEmission float64 `gorm:"not null" json:"target_emission"`

	// Optional per-group budgets (kg CO2)
	ElectricityBudget *float64 `json:"electricity_budget,omitempty"`
	TransportBudget   *float64 `json:"transport_budget,omitempty"`
	GasBudget         *float64 `json:"gas_budget,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (CarbonBudget) TableName() string {
	return "carbon_budgets"
}

// CarbonBudgetFilter represents filter criteria for budget queries
type CarbonBudgetFilter struct {
	ID     *uint   `json:"id,omitempty"`
	UserID *uint   `json:"user_id,omitempty"`
	Month  *string `json:"month,omitempty"`
}
