// Package businessflow contains the business logic for the application.
package businessflow

import (
	"time"

	"github.com/ecotrace/ecotrace/app/dto"
	"github.com/ecotrace/ecotrace/emission"
	"github.com/ecotrace/ecotrace/models"
)

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds all client-related information for audit logging and session tracking
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	DeviceInfo map[string]string `json:"device_info,omitempty"`
	RequestID  string            `json:"request_id,omitempty"`
	SessionID  string            `json:"session_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		DeviceInfo: make(map[string]string),
		Additional: make(map[string]string),
	}
}

// AddDeviceInfo adds device information to the metadata
func (cm *ClientMetadata) AddDeviceInfo(key, value string) {
	if cm.DeviceInfo == nil {
		cm.DeviceInfo = make(map[string]string)
	}
	cm.DeviceInfo[key] = value
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// SetSessionID sets the session ID
func (cm *ClientMetadata) SetSessionID(sessionID string) {
	cm.SessionID = sessionID
}

// ToBillDTO converts a bill model to its response representation
func ToBillDTO(bill models.Bill) dto.BillResponse {
	return dto.BillResponse{
		UUID:          bill.UUID.String(),
		Type:          bill.Type,
		Amount:        bill.Amount,
		Units:         bill.Units,
		UnitType:      bill.UnitType,
		EmissionKg:    bill.EmissionKg,
		Date:          bill.Date.Format("2006-01-02"),
		Month:         bill.Month,
		EntryMethod:   bill.EntryMethod,
		Provider:      bill.Provider,
		Notes:         bill.Notes,
		ExtractedData: bill.ExtractedData,
		CreatedAt:     bill.CreatedAt,
		UpdatedAt:     bill.UpdatedAt,
	}
}

// ToScoreDTO converts a carbon score model to its response representation
func ToScoreDTO(score models.CarbonScore) dto.ScoreDTO {
	impact := emission.Impact(score.TotalEmission)
	return dto.ScoreDTO{
		Month:         score.Month,
		TotalEmission: score.TotalEmission,
		Score:         score.Score,
		Grade:         score.Grade,
		Breakdown: dto.EmissionBreakdownDTO{
			Electricity: score.ElectricityEmission,
			Transport:   score.TransportEmission,
			Gas:         score.GasEmission,
			Water:       score.WaterEmission,
			Other:       score.OtherEmission,
		},
		PreviousMonthChange: score.PreviousMonthChange,
		NationalAverage:     score.NationalAverage,
		Impact: dto.ImpactDTO{
			Trees:             impact.Trees,
			IceMeltedCm2:      impact.IceMeltedCm2,
			DrivingKm:         impact.DrivingKm,
			LightbulbHours:    impact.LightbulbHours,
			Balloons:          impact.Balloons,
			SmartphoneCharges: impact.SmartphoneCharges,
		},
	}
}

// ToBudgetDTO converts a budget model plus the month's current emission
// into its response representation
func ToBudgetDTO(budget models.CarbonBudget, currentEmission float64) dto.BudgetDTO {
	remaining := budget.TargetEmission - currentEmission
	usedPercent := 0.0
	if budget.TargetEmission > 0 {
		usedPercent = currentEmission / budget.TargetEmission * 100
	}
	return dto.BudgetDTO{
		Month:             budget.Month,
		TargetEmission:    budget.TargetEmission,
		CurrentEmission:   currentEmission,
		RemainingEmission: remaining,
		UsedPercent:       usedPercent,
		OnTrack:           currentEmission <= budget.TargetEmission,
		ElectricityBudget: budget.ElectricityBudget,
		TransportBudget:   budget.TransportBudget,
		GasBudget:         budget.GasBudget,
	}
}

// ToChallengeDTO converts a catalog challenge to its response representation
func ToChallengeDTO(challenge models.Challenge, joined bool) dto.ChallengeDTO {
	return dto.ChallengeDTO{
		ID:           challenge.ID,
		Title:        challenge.Title,
		Description:  challenge.Description,
		Category:     challenge.Category,
		TargetSaving: challenge.TargetSaving,
		DurationDays: challenge.DurationDays,
		Points:       challenge.Points,
		Joined:       joined,
	}
}

// ToUserChallengeDTO converts a participation record to its response representation.
// The Challenge relation must be preloaded.
func ToUserChallengeDTO(uc models.UserChallenge) dto.UserChallengeDTO {
	out := dto.UserChallengeDTO{
		ChallengeID: uc.ChallengeID,
		Status:      uc.Status,
		Progress:    uc.Progress,
		CarbonSaved: uc.CarbonSaved,
		StartDate:   uc.StartDate,
		EndDate:     uc.EndDate,
		JoinedAt:    uc.CreatedAt,
	}
	if uc.Challenge != nil {
		out.Title = uc.Challenge.Title
		out.Category = uc.Challenge.Category
		out.Points = uc.Challenge.Points
	}
	if uc.IsCompleted() {
		completedAt := uc.UpdatedAt
		out.CompletedAt = &completedAt
	}
	return out
}

// ToRecommendationDTO converts a catalog recommendation to its response representation
func ToRecommendationDTO(rec models.Recommendation) dto.RecommendationDTO {
	return dto.RecommendationDTO{
		ID:              rec.ID,
		Title:           rec.Title,
		Description:     rec.Description,
		Category:        rec.Category,
		Impact:          rec.Impact,
		PotentialSaving: rec.PotentialSaving,
	}
}

// parseBillDate parses the YYYY-MM-DD date carried by bill requests
func parseBillDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
