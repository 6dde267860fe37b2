package dto

// GetScoreRequest represents the request to fetch the carbon score for a month
type GetScoreRequest struct {
	UserID uint   `json:"-"`
	Month  string `json:"-"`
}

// EmissionBreakdownDTO holds per-group emission subtotals in kg CO2
type EmissionBreakdownDTO struct {
	Electricity float64 `json:"electricity"`
	Transport   float64 `json:"transport"`
	Gas         float64 `json:"gas"`
	Water       float64 `json:"water"`
	Other       float64 `json:"other"`
}

// ImpactDTO expresses a monthly footprint in everyday equivalents
type ImpactDTO struct {
	Trees             float64 `json:"trees"`
	IceMeltedCm2      int     `json:"ice_melted_cm2"`
	DrivingKm         int     `json:"driving_km"`
	LightbulbHours    int     `json:"lightbulb_hours"`
	Balloons          int     `json:"balloons"`
	SmartphoneCharges int     `json:"smartphone_charges"`
}

// ScoreDTO represents one monthly carbon score
type ScoreDTO struct {
	Month               string               `json:"month"`
	TotalEmission       float64              `json:"total_emission"`
	Score               int                  `json:"score"`
	Grade               string               `json:"grade"`
	Breakdown           EmissionBreakdownDTO `json:"breakdown"`
	PreviousMonthChange *float64             `json:"previous_month_change,omitempty"`
	NationalAverage     float64              `json:"national_average"`
	Impact              ImpactDTO            `json:"impact"`
}

// GetScoreResponse represents the response to fetching a monthly score
type GetScoreResponse struct {
	Score ScoreDTO `json:"score"`
}

// ScoreHistoryRequest represents the request to list recent monthly scores
type ScoreHistoryRequest struct {
	UserID uint `json:"-"`
	Months int  `json:"-"`
}

// ScoreHistorySummaryDTO aggregates the returned history window
type ScoreHistorySummaryDTO struct {
	TotalEmission float64 `json:"total_emission"`
	AverageScore  float64 `json:"average_score"`
	MonthsTracked int     `json:"months_tracked"`
	CurrentMonth  string  `json:"current_month"`
}

// ScoreHistoryResponse represents a list of monthly scores, newest first
type ScoreHistoryResponse struct {
	Items   []ScoreDTO             `json:"items"`
	Summary ScoreHistorySummaryDTO `json:"summary"`
}

// UpsertBudgetRequest represents the request to set a monthly emission target
type UpsertBudgetRequest struct {
	UserID            uint     `json:"-"`
	Month             string   `json:"month" validate:"required,len=7"`
	TargetEmission    float64  `json:"target_emission" validate:"required,gt=0"`
	ElectricityBudget *float64 `json:"electricity_budget,omitempty" validate:"omitempty,gt=0"`
	TransportBudget   *float64 `json:"transport_budget,omitempty" validate:"omitempty,gt=0"`
	GasBudget         *float64 `json:"gas_budget,omitempty" validate:"omitempty,gt=0"`
}

// GetBudgetRequest represents the request to fetch the budget for a month
type GetBudgetRequest struct {
	UserID uint   `json:"-"`
	Month  string `json:"-"`
}

// BudgetDTO represents one monthly carbon budget with current standing
type BudgetDTO struct {
	Month             string   `json:"month"`
	TargetEmission    float64  `json:"target_emission"`
	CurrentEmission   float64  `json:"current_emission"`
	RemainingEmission float64  `json:"remaining_emission"`
	UsedPercent       float64  `json:"used_percent"`
	OnTrack           bool     `json:"on_track"`
	ElectricityBudget *float64 `json:"electricity_budget,omitempty"`
	TransportBudget   *float64 `json:"transport_budget,omitempty"`
	GasBudget         *float64 `json:"gas_budget,omitempty"`
}

// BudgetResponse represents the response to a budget fetch or upsert
type BudgetResponse struct {
	Message string    `json:"message,omitempty"`
	Budget  BudgetDTO `json:"budget"`
}
