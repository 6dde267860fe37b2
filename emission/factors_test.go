package emission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculate_ElectricityByRegion(t *testing.T) {
	table := DefaultFactorTable()

	kg, err := Calculate(table, CategoryElectricity, 100, "india")
	require.NoError(t, err)
	assert.InDelta(t, 82.0, kg, 1e-9)

	kg, err = Calculate(table, CategoryElectricity, 100, "uk")
	require.NoError(t, err)
	assert.InDelta(t, 23.0, kg, 1e-9)
}

func TestCalculate_UnknownRegionFallsBackToDefaultGrid(t *testing.T) {
	table := DefaultFactorTable()

	kg, err := Calculate(table, CategoryElectricity, 100, "atlantis")
	require.NoError(t, err)
	assert.InDelta(t, 50.0, kg, 1e-9)
}

func TestCalculate_Fuels(t *testing.T) {
	table := DefaultFactorTable()

	tests := []struct {
		category string
		quantity float64
		want     float64
	}{
		{CategoryPetrol, 10, 23.1},
		{CategoryDiesel, 10, 26.8},
		{CategoryGas, 5, 10.0},
		{CategoryWater, 20, 7.52},
	}

	for _, tt := range tests {
		kg, err := Calculate(table, tt.category, tt.quantity, DefaultRegion)
		require.NoError(t, err, tt.category)
		assert.InDelta(t, tt.want, kg, 1e-9, tt.category)
	}
}

func TestCalculate_LPGCylinder(t *testing.T) {
	table := DefaultFactorTable()

	// one standard domestic cylinder
	kg, err := Calculate(table, CategoryLPG, KgPerCylinder, DefaultRegion)
	require.NoError(t, err)
	assert.InDelta(t, 21.442, kg, 1e-3)
}

func TestCalculate_UnknownCategory(t *testing.T) {
	table := DefaultFactorTable()

	_, err := Calculate(table, "firewood", 10, DefaultRegion)
	assert.ErrorIs(t, err, ErrUnknownCategory)

	assert.Zero(t, CalculateOrZero(table, "firewood", 10, DefaultRegion))
}

func TestCanonicalUnit(t *testing.T) {
	table := DefaultFactorTable()

	assert.Equal(t, "kWh", CanonicalUnit(table, CategoryElectricity))
	assert.Equal(t, "L", CanonicalUnit(table, CategoryPetrol))
	assert.Equal(t, "kg", CanonicalUnit(table, CategoryGas))
	assert.Equal(t, "kL", CanonicalUnit(table, CategoryWater))
	assert.Equal(t, "units", CanonicalUnit(table, "firewood"))
}

func TestGroup(t *testing.T) {
	assert.Equal(t, GroupElectricity, Group(CategoryElectricity))
	assert.Equal(t, GroupTransport, Group(CategoryPetrol))
	assert.Equal(t, GroupTransport, Group(CategoryDiesel))
	assert.Equal(t, GroupGas, Group(CategoryLPG))
	assert.Equal(t, GroupGas, Group(CategoryGas))
	assert.Equal(t, GroupWater, Group(CategoryWater))
	assert.Equal(t, GroupOther, Group("firewood"))
}

func TestEstimateUnits(t *testing.T) {
	prices := DefaultPriceTable()

	assert.InDelta(t, 100.0, prices.EstimateUnits(CategoryElectricity, 750), 1e-9)
	assert.InDelta(t, 10.0, prices.EstimateUnits(CategoryPetrol, 1050), 1e-9)

	// unknown category falls back to the default rate
	assert.InDelta(t, 50.0, prices.EstimateUnits("firewood", 500), 1e-9)
}

func TestEstimateUnits_RoundsToOneDecimal(t *testing.T) {
	prices := DefaultPriceTable()

	assert.InDelta(t, 13.3, prices.EstimateUnits(CategoryElectricity, 100), 1e-9)
}
