package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Bill entry methods
const (
	EntryMethodScanner = "scanner"
	EntryMethodManual  = "manual"
)

// Bill is one user-submitted consumption event. EmissionKg is always derived
// server-side from Units and the factor table at write time; a value supplied
// by the client is never trusted.
type Bill struct {
	ID     uint      `gorm:"primaryKey" json:"id"`
	UUID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_bills_uuid" json:"uuid"`
	UserID uint      `gorm:"not null;index:idx_bills_user_id;index:idx_bills_user_month,priority:1" json:"user_id"`
	User   *User     `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`

	Type       string  `gorm:"size:32;not null;index:idx_bills_type" json:"type"`
	Amount     float64 `gorm:"not null;default:0" json:"amount"` // currency total on the bill
	Units      float64 `gorm:"not null" json:"units"`            // quantity in the canonical unit
	UnitType   string  `gorm:"size:16;not null" json:"unit_type"`
	EmissionKg float64 `gorm:"not null" json:"emission_kg"`

	Date  time.Time `gorm:"not null;index:idx_bills_date" json:"date"`
	Month string    `gorm:"size:7;not null;index:idx_bills_user_month,priority:2" json:"month"` // YYYY-MM

	EntryMethod string  `gorm:"size:16;not null;default:'manual'" json:"entry_method"`
	Provider    *string `gorm:"size:255" json:"provider,omitempty"`
	Notes       *string `gorm:"type:text" json:"notes,omitempty"`

	// Raw extraction payload kept for audit/debug, never consumed by the calculator
	ExtractedData json.RawMessage `gorm:"type:jsonb" json:"extracted_data,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_bills_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (Bill) TableName() string {
	return "bills"
}

// BeforeCreate ensures UUID is set
func (b *Bill) BeforeCreate(tx *gorm.DB) error {
	if b.UUID == uuid.Nil {
		b.UUID = uuid.New()
	}
	return nil
}

// BillFilter represents filter criteria for bill queries
type BillFilter struct {
	ID            *uint      `json:"id,omitempty"`
	UUID          *uuid.UUID `json:"uuid,omitempty"`
	UserID        *uint      `json:"user_id,omitempty"`
	Type          *string    `json:"type,omitempty"`
	Month         *string    `json:"month,omitempty"`
	EntryMethod   *string    `json:"entry_method,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
}
