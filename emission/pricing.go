package emission

import "math"

// PriceTable holds average market rates (rupees per canonical unit), used to
// estimate consumption when only a bill total is readable.
type PriceTable struct {
	PerUnit     map[string]float64
	DefaultRate float64
}

// DefaultPriceTable returns the shipped average rates: electricity ₹/kWh,
// fuels ₹/L, gas ₹/kg (≈₹900 per 14.2 kg cylinder), water ₹/kL.
func DefaultPriceTable() PriceTable {
	return PriceTable{
		PerUnit: map[string]float64{
			CategoryElectricity: 7.5,
			CategoryPetrol:      105,
			CategoryDiesel:      92,
			CategoryLPG:         63.4,
			CategoryGas:         63.4,
			CategoryWater:       50,
		},
		DefaultRate: 10,
	}
}

// EstimateUnits derives a consumption quantity from a monetary total, rounded
// to one decimal. The result is an estimate and must be flagged as such to
// the user.
func (p PriceTable) EstimateUnits(category string, totalAmount float64) float64 {
	rate, ok := p.PerUnit[category]
	if !ok || rate <= 0 {
		rate = p.DefaultRate
	}
	return math.Round(totalAmount/rate*10) / 10
}
