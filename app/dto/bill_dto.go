package dto

import (
	"encoding/json"
	"time"
)

// CreateBillRequest represents the request to record a new bill
type CreateBillRequest struct {
	UserID      uint     `json:"-"`
	Type        string   `json:"type" validate:"required,oneof=electricity petrol diesel lpg gas water"`
	Amount      *float64 `json:"amount,omitempty" validate:"omitempty,gte=0"`
	Units       *float64 `json:"units,omitempty" validate:"omitempty,gt=0"`
	Date        string   `json:"date" validate:"required,datetime=2006-01-02"`
	EntryMethod string   `json:"entry_method,omitempty" validate:"omitempty,oneof=scanner manual"`
	Provider    *string  `json:"provider,omitempty" validate:"omitempty,max=255"`
	Notes       *string  `json:"notes,omitempty" validate:"omitempty,max=2000"`

	// Raw extraction payload attached by the scanner path, never client-supplied
	ExtractedData json.RawMessage `json:"-"`
}

// UpdateBillRequest represents the request to update an existing bill
type UpdateBillRequest struct {
	UUID     string   `json:"-"`
	UserID   uint     `json:"-"`
	Type     *string  `json:"type,omitempty" validate:"omitempty,oneof=electricity petrol diesel lpg gas water"`
	Amount   *float64 `json:"amount,omitempty" validate:"omitempty,gte=0"`
	Units    *float64 `json:"units,omitempty" validate:"omitempty,gt=0"`
	Date     *string  `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Provider *string  `json:"provider,omitempty" validate:"omitempty,max=255"`
	Notes    *string  `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// GetBillRequest represents the request to fetch a single bill
type GetBillRequest struct {
	UUID   string `json:"-"`
	UserID uint   `json:"-"`
}

// DeleteBillRequest represents the request to delete a bill
type DeleteBillRequest struct {
	UUID   string `json:"-"`
	UserID uint   `json:"-"`
}

// ListBillsRequest represents filter criteria for listing bills
type ListBillsRequest struct {
	UserID   uint    `json:"-"`
	Month    *string `json:"month,omitempty" validate:"omitempty,len=7"`
	Type     *string `json:"type,omitempty" validate:"omitempty,oneof=electricity petrol diesel lpg gas water"`
	Page     int     `json:"page" validate:"omitempty,min=1"`
	PageSize int     `json:"page_size" validate:"omitempty,min=1,max=100"`
}

// BillResponse represents one bill in responses
type BillResponse struct {
	UUID          string          `json:"uuid"`
	Type          string          `json:"type"`
	Amount        float64         `json:"amount"`
	Units         float64         `json:"units"`
	UnitType      string          `json:"unit_type"`
	EmissionKg    float64         `json:"emission_kg"`
	Date          string          `json:"date"`
	Month         string          `json:"month"`
	EntryMethod   string          `json:"entry_method"`
	Provider      *string         `json:"provider,omitempty"`
	Notes         *string         `json:"notes,omitempty"`
	ExtractedData json.RawMessage `json:"extracted_data,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ListBillsResponse represents a paginated list of bills
type ListBillsResponse struct {
	Items    []BillResponse `json:"items"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// CreateBillResponse represents the outcome of recording a bill
type CreateBillResponse struct {
	Message string       `json:"message"`
	Bill    BillResponse `json:"bill"`
	Score   *ScoreDTO    `json:"score,omitempty"`
}
