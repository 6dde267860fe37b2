package businessflow

import (
	"testing"
	"time"

	"github.com/ecotrace/ecotrace/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthKeyPattern(t *testing.T) {
	valid := []string{"2025-01", "2025-12", "1999-06"}
	for _, m := range valid {
		assert.True(t, monthKeyPattern.MatchString(m), m)
	}

	invalid := []string{"2025-13", "2025-00", "2025-1", "25-01", "2025/01", "march", ""}
	for _, m := range invalid {
		assert.False(t, monthKeyPattern.MatchString(m), m)
	}
}

func TestParseBillDate(t *testing.T) {
	d, err := parseBillDate("2025-03-07")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.March, 7, 0, 0, 0, 0, time.UTC), d)

	_, err = parseBillDate("07/03/2025")
	assert.Error(t, err)
}

func TestToScoreDTO(t *testing.T) {
	change := -12.5
	score := models.CarbonScore{
		Month:               "2025-03",
		TotalEmission:       42,
		Score:               86,
		Grade:               "B",
		ElectricityEmission: 30,
		TransportEmission:   8,
		GasEmission:         4,
		PreviousMonthChange: &change,
		NationalAverage:     167,
	}

	out := ToScoreDTO(score)

	assert.Equal(t, "2025-03", out.Month)
	assert.Equal(t, 86, out.Score)
	assert.Equal(t, "B", out.Grade)
	assert.InDelta(t, 30, out.Breakdown.Electricity, 1e-9)
	assert.InDelta(t, 8, out.Breakdown.Transport, 1e-9)
	require.NotNil(t, out.PreviousMonthChange)
	assert.InDelta(t, -12.5, *out.PreviousMonthChange, 1e-9)
	assert.InDelta(t, 2.0, out.Impact.Trees, 1e-9)
	assert.Equal(t, 168, out.Impact.DrivingKm)
}

func TestToBudgetDTO(t *testing.T) {
	budget := models.CarbonBudget{
		Month:          "2025-03",
		TargetEmission: 100,
	}

	out := ToBudgetDTO(budget, 80)
	assert.InDelta(t, 20, out.RemainingEmission, 1e-9)
	assert.InDelta(t, 80, out.UsedPercent, 1e-9)
	assert.True(t, out.OnTrack)

	out = ToBudgetDTO(budget, 120)
	assert.InDelta(t, -20, out.RemainingEmission, 1e-9)
	assert.False(t, out.OnTrack)
}

func TestToBudgetDTO_ZeroTarget(t *testing.T) {
	out := ToBudgetDTO(models.CarbonBudget{Month: "2025-03"}, 50)
	assert.Zero(t, out.UsedPercent)
	assert.False(t, out.OnTrack)
}

func TestNewClientMetadata(t *testing.T) {
	cm := NewClientMetadata("10.0.0.1", "test-agent")
	cm.SetRequestID("req-123")
	cm.AddDeviceInfo("platform", "ios")

	assert.Equal(t, "10.0.0.1", cm.IPAddress)
	assert.Equal(t, "test-agent", cm.UserAgent)
	assert.Equal(t, "req-123", cm.RequestID)
	assert.Equal(t, "ios", cm.DeviceInfo["platform"])
}
