package emission

import (
	"fmt"
	"math"
	"time"
)

// NationalAverageKg is the reference monthly household emission (kg CO2)
// stored alongside every score for point-in-time comparison stability.
const NationalAverageKg = 167.0

// kgPerScorePoint calibrates the linear decay: every 3 kg of monthly
// emission costs one score point, so a ~300 kg month bottoms out at 0.
const kgPerScorePoint = 3.0

// BillEmission is the slice of a bill the aggregator consumes.
type BillEmission struct {
	Category   string
	EmissionKg float64
}

// MonthlyTotals is the result of folding one user-month of bills.
type MonthlyTotals struct {
	TotalKg       float64
	ElectricityKg float64
	TransportKg   float64
	GasKg         float64
	WaterKg       float64
	OtherKg       float64
	Score         int
	Grade         string
}

// Score maps a monthly emission total to the 0-100 index (higher is better).
// A month with no bills scores 100 by definition.
func Score(totalKg float64) int {
	s := int(math.Round(100 - totalKg/kgPerScorePoint))
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// Grade maps a score to its letter tier. F covers the entire 0-49 range.
func Grade(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	case score >= 50:
		return "E"
	default:
		return "F"
	}
}

// Aggregate folds all bills of one user-month into category-group subtotals,
// a total, a score, and a grade. It is a full recomputation; callers must not
// patch totals incrementally.
func Aggregate(bills []BillEmission) MonthlyTotals {
	var t MonthlyTotals
	for _, b := range bills {
		switch Group(b.Category) {
		case GroupElectricity:
			t.ElectricityKg += b.EmissionKg
		case GroupTransport:
			t.TransportKg += b.EmissionKg
		case GroupGas:
			t.GasKg += b.EmissionKg
		case GroupWater:
			t.WaterKg += b.EmissionKg
		default:
			t.OtherKg += b.EmissionKg
		}
	}
	t.TotalKg = t.ElectricityKg + t.TransportKg + t.GasKg + t.WaterKg + t.OtherKg
	t.Score = Score(t.TotalKg)
	t.Grade = Grade(t.Score)
	return t
}

// PercentChange returns the month-over-month change relative to the previous
// total, or nil when there is no prior record (callers must handle nil).
func PercentChange(currentKg float64, previousKg *float64) *float64 {
	if previousKg == nil || *previousKg == 0 {
		return nil
	}
	v := (currentKg - *previousKg) / *previousKg * 100
	return &v
}

// MonthKey derives the YYYY-MM billing month key from a bill date.
func MonthKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// PreviousMonthKey decrements a YYYY-MM key by one calendar month,
// rolling January back to December of the previous year.
func PreviousMonthKey(month string) (string, error) {
	var year, m int
	if _, err := fmt.Sscanf(month, "%4d-%2d", &year, &m); err != nil {
		return "", fmt.Errorf("invalid month key %q: %w", month, err)
	}
	if m < 1 || m > 12 {
		return "", fmt.Errorf("invalid month key %q: month out of range", month)
	}
	if m == 1 {
		return fmt.Sprintf("%04d-12", year-1), nil
	}
	return fmt.Sprintf("%04d-%02d", year, m-1), nil
}

// ImpactEquivalents expresses a kg CO2 value in visualization-friendly units.
type ImpactEquivalents struct {
	Trees             float64 `json:"trees"`
	IceMeltedCm2      int     `json:"ice_melted_cm2"`
	DrivingKm         int     `json:"driving_km"`
	LightbulbHours    int     `json:"lightbulb_hours"`
	Balloons          int     `json:"balloons"`
	SmartphoneCharges int     `json:"smartphone_charges"`
}

// Impact converts a kg CO2 value into everyday equivalents (one tree absorbs
// ~21 kg per year, one kg melts ~3 cm² of arctic ice, and so on).
func Impact(carbonKg float64) ImpactEquivalents {
	return ImpactEquivalents{
		Trees:             math.Round(carbonKg/21*100) / 100,
		IceMeltedCm2:      int(math.Round(carbonKg * 3)),
		DrivingKm:         int(math.Round(carbonKg * 4)),
		LightbulbHours:    int(math.Round(carbonKg * 10)),
		Balloons:          int(math.Round(carbonKg * 509)),
		SmartphoneCharges: int(math.Round(carbonKg * 122)),
	}
}
