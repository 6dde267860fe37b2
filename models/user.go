// Package models contains domain entities and business models for the carbon tracker
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the owner of bills, scores, budgets, and challenge progress.
// Account provisioning and credential management live in a separate identity
// service; this backend only consumes the authenticated user ID.
type User struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_users_uuid" json:"uuid"`

	Name   string `gorm:"size:255;not null" json:"name"`
	Email  string `gorm:"size:255;not null;uniqueIndex:idx_users_email" json:"email"`
	Region string `gorm:"size:32;not null;default:'india'" json:"region"`

	IsActive *bool `gorm:"default:true;index:idx_users_is_active" json:"is_active"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_users_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`

	// Relations
	Bills          []Bill          `gorm:"foreignKey:UserID" json:"-"`
	CarbonScores   []CarbonScore   `gorm:"foreignKey:UserID" json:"-"`
	CarbonBudgets  []CarbonBudget  `gorm:"foreignKey:UserID" json:"-"`
	UserChallenges []UserChallenge `gorm:"foreignKey:UserID" json:"-"`
	AuditLogs      []AuditLog      `gorm:"foreignKey:UserID" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// BeforeCreate ensures UUID is set
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UUID == uuid.Nil {
		u.UUID = uuid.New()
	}
	return nil
}

// UserFilter represents filter criteria for user queries
type UserFilter struct {
	ID            *uint      `json:"id,omitempty"`
	UUID          *uuid.UUID `json:"uuid,omitempty"`
	Email         *string    `json:"email,omitempty"`
	Region        *string    `json:"region,omitempty"`
	IsActive      *bool      `json:"is_active,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
}
