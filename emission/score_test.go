package emission

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	tests := []struct {
		totalKg float64
		want    int
	}{
		{0, 100},
		{3, 99},
		{150, 50},
		{300, 0},
		{450, 0},   // clamped at the bottom
		{-30, 100}, // clamped at the top
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Score(tt.totalKg), "totalKg=%v", tt.totalKg)
	}
}

func TestScore_RoundsToNearestPoint(t *testing.T) {
	// 100 - 4/3 = 98.67 rounds to 99
	assert.Equal(t, 99, Score(4))
	// 100 - 5/3 = 98.33 rounds to 98
	assert.Equal(t, 98, Score(5))
}

func TestGrade(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{100, "A"},
		{90, "A"},
		{89, "B"},
		{80, "B"},
		{79, "C"},
		{70, "C"},
		{69, "D"},
		{60, "D"},
		{59, "E"},
		{50, "E"},
		{49, "F"},
		{0, "F"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Grade(tt.score), "score=%d", tt.score)
	}
}

func TestAggregate(t *testing.T) {
	bills := []BillEmission{
		{Category: CategoryElectricity, EmissionKg: 82},
		{Category: CategoryPetrol, EmissionKg: 23.1},
		{Category: CategoryDiesel, EmissionKg: 26.8},
		{Category: CategoryLPG, EmissionKg: 21.4},
		{Category: CategoryWater, EmissionKg: 3.76},
		{Category: "firewood", EmissionKg: 5},
	}

	totals := Aggregate(bills)

	assert.InDelta(t, 82, totals.ElectricityKg, 1e-9)
	assert.InDelta(t, 49.9, totals.TransportKg, 1e-9)
	assert.InDelta(t, 21.4, totals.GasKg, 1e-9)
	assert.InDelta(t, 3.76, totals.WaterKg, 1e-9)
	assert.InDelta(t, 5, totals.OtherKg, 1e-9)
	assert.InDelta(t, 162.06, totals.TotalKg, 1e-9)
	assert.Equal(t, 46, totals.Score)
	assert.Equal(t, "F", totals.Grade)
}

func TestAggregate_EmptyMonthScoresPerfect(t *testing.T) {
	totals := Aggregate(nil)

	assert.Zero(t, totals.TotalKg)
	assert.Equal(t, 100, totals.Score)
	assert.Equal(t, "A", totals.Grade)
}

func TestPercentChange(t *testing.T) {
	prev := 100.0
	change := PercentChange(120, &prev)
	require.NotNil(t, change)
	assert.InDelta(t, 20.0, *change, 1e-9)

	change = PercentChange(80, &prev)
	require.NotNil(t, change)
	assert.InDelta(t, -20.0, *change, 1e-9)
}

func TestPercentChange_NoPriorMonth(t *testing.T) {
	assert.Nil(t, PercentChange(120, nil))

	zero := 0.0
	assert.Nil(t, PercentChange(120, &zero))
}

func TestMonthKey(t *testing.T) {
	d := time.Date(2025, time.March, 7, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-03", MonthKey(d))

	d = time.Date(2024, time.December, 31, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "2024-12", MonthKey(d))
}

func TestPreviousMonthKey(t *testing.T) {
	prev, err := PreviousMonthKey("2025-03")
	require.NoError(t, err)
	assert.Equal(t, "2025-02", prev)

	prev, err = PreviousMonthKey("2024-01")
	require.NoError(t, err)
	assert.Equal(t, "2023-12", prev)
}

func TestPreviousMonthKey_Invalid(t *testing.T) {
	_, err := PreviousMonthKey("march")
	assert.Error(t, err)

	_, err = PreviousMonthKey("2024-13")
	assert.Error(t, err)

	_, err = PreviousMonthKey("2024-00")
	assert.Error(t, err)
}

func TestImpact(t *testing.T) {
	eq := Impact(42)

	assert.InDelta(t, 2.0, eq.Trees, 1e-9)
	assert.Equal(t, 126, eq.IceMeltedCm2)
	assert.Equal(t, 168, eq.DrivingKm)
	assert.Equal(t, 420, eq.LightbulbHours)
	assert.Equal(t, 21378, eq.Balloons)
	assert.Equal(t, 5124, eq.SmartphoneCharges)
}
