package dto

import (
	"time"
)

// ListChallengesRequest represents filter criteria for the challenge catalog
type ListChallengesRequest struct {
	UserID   uint    `json:"-"`
	Category *string `json:"category,omitempty" validate:"omitempty,oneof=energy transport lifestyle water"`
}

// ChallengeDTO represents one catalog challenge
type ChallengeDTO struct {
	ID           uint    `json:"id"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Category     string  `json:"category"`
	TargetSaving float64 `json:"target_saving"`
	DurationDays int     `json:"duration_days"`
	Points       int     `json:"points"`
	Joined       bool    `json:"joined"`
}

// ListChallengesResponse represents the challenge catalog
type ListChallengesResponse struct {
	Items []ChallengeDTO `json:"items"`
}

// JoinChallengeRequest represents the request to join a challenge
type JoinChallengeRequest struct {
	UserID      uint `json:"-"`
	ChallengeID uint `json:"-"`
}

// UpdateChallengeProgressRequest represents manual progress reporting
type UpdateChallengeProgressRequest struct {
	UserID      uint     `json:"-"`
	ChallengeID uint     `json:"-"`
	Progress    int      `json:"progress" validate:"min=0,max=100"`
	CarbonSaved *float64 `json:"carbon_saved,omitempty" validate:"omitempty,gte=0"`
}

// LeaveChallengeRequest represents the request to abandon a challenge
type LeaveChallengeRequest struct {
	UserID      uint `json:"-"`
	ChallengeID uint `json:"-"`
}

// UserChallengeDTO represents one user's participation in a challenge
type UserChallengeDTO struct {
	ChallengeID uint       `json:"challenge_id"`
	Title       string     `json:"title"`
	Category    string     `json:"category"`
	Status      string     `json:"status"`
	Progress    int        `json:"progress"`
	CarbonSaved float64    `json:"carbon_saved"`
	Points      int        `json:"points"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     time.Time  `json:"end_date"`
	JoinedAt    time.Time  `json:"joined_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// UserChallengeResponse represents the response to a challenge mutation
type UserChallengeResponse struct {
	Message   string           `json:"message"`
	Challenge UserChallengeDTO `json:"challenge"`
}

// ListUserChallengesResponse represents the user's joined challenges
type ListUserChallengesResponse struct {
	Items       []UserChallengeDTO `json:"items"`
	TotalSaved  float64            `json:"total_saved"`
	TotalPoints int                `json:"total_points"`
}
