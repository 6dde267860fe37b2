// Package emission holds the deterministic core of the carbon tracker:
// the emission factor table, the bill-to-CO2 calculator, and the monthly
// score math. Everything here is pure; tables are passed in explicitly so
// tests can substitute fixtures.
package emission

import (
	"errors"
	"fmt"
)

// Bill categories supported by the factor table
const (
	CategoryElectricity = "electricity"
	CategoryPetrol      = "petrol"
	CategoryDiesel      = "diesel"
	CategoryLPG         = "lpg"
	CategoryGas         = "gas"
	CategoryWater       = "water"
	CategoryOther       = "other"
)

// Category groups used by the monthly aggregation
const (
	GroupElectricity = "electricity"
	GroupTransport   = "transport"
	GroupGas         = "gas"
	GroupWater       = "water"
	GroupOther       = "other"
)

// DefaultRegion is the only region the product currently ships for.
const DefaultRegion = "india"

// KgPerCylinder converts LPG cylinder counts to kg (standard domestic cylinder).
const KgPerCylinder = 14.2

var ErrUnknownCategory = errors.New("unknown bill category")

// Factor is a single conversion entry: kg CO2 per canonical unit.
type Factor struct {
	KgPerUnit float64
	Unit      string
}

// FactorTable maps a bill category to its conversion factor. Electricity is
// the only region-sensitive category; the rest are region-invariant.
type FactorTable struct {
	Electricity        map[string]float64 // region -> kg CO2 per kWh
	ElectricityDefault float64            // fallback for unknown regions
	Fuels              map[string]Factor  // petrol, diesel, lpg, gas, water
}

// DefaultFactorTable returns the shipped factor constants (kg CO2 per unit).
// Sources: national grid emission data and standard fuel combustion factors.
func DefaultFactorTable() FactorTable {
	return FactorTable{
		Electricity: map[string]float64{
			"india": 0.82,
			"usa":   0.42,
			"uk":    0.23,
			"eu":    0.28,
			"china": 0.58,
		},
		ElectricityDefault: 0.5,
		Fuels: map[string]Factor{
			CategoryPetrol: {KgPerUnit: 2.31, Unit: "L"},
			CategoryDiesel: {KgPerUnit: 2.68, Unit: "L"},
			CategoryLPG:    {KgPerUnit: 1.51, Unit: "L"},
			CategoryGas:    {KgPerUnit: 2.0, Unit: "kg"},
			CategoryWater:  {KgPerUnit: 0.376, Unit: "kL"},
		},
	}
}

// Lookup returns the conversion factor for (category, region).
// Unknown regions fall back to the default grid factor for electricity only.
func (t FactorTable) Lookup(category, region string) (Factor, error) {
	switch category {
	case CategoryElectricity:
		f, ok := t.Electricity[region]
		if !ok {
			f = t.ElectricityDefault
		}
		return Factor{KgPerUnit: f, Unit: "kWh"}, nil
	case CategoryPetrol, CategoryDiesel, CategoryLPG, CategoryGas, CategoryWater:
		return t.Fuels[category], nil
	default:
		return Factor{}, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
}

// Calculate converts a consumption quantity into kg CO2-equivalent.
// It propagates ErrUnknownCategory; callers that aggregate mixed input should
// use CalculateOrZero instead.
func Calculate(table FactorTable, category string, quantity float64, region string) (float64, error) {
	f, err := table.Lookup(category, region)
	if err != nil {
		return 0, err
	}
	return quantity * f.KgPerUnit, nil
}

// CalculateOrZero treats categories outside the factor table as "other" and
// returns 0 for them rather than erroring, so unusual uploads never block
// aggregation.
func CalculateOrZero(table FactorTable, category string, quantity float64, region string) float64 {
	kg, err := Calculate(table, category, quantity, region)
	if err != nil {
		return 0
	}
	return kg
}

// CanonicalUnit returns the unit label implied by the category ("units" for
// anything outside the table).
func CanonicalUnit(table FactorTable, category string) string {
	f, err := table.Lookup(category, DefaultRegion)
	if err != nil {
		return "units"
	}
	return f.Unit
}

// Group maps a bill category to its aggregation bucket. Transport groups the
// liquid vehicle fuels only; electricity is tracked separately.
func Group(category string) string {
	switch category {
	case CategoryElectricity:
		return GroupElectricity
	case CategoryPetrol, CategoryDiesel:
		return GroupTransport
	case CategoryLPG, CategoryGas:
		return GroupGas
	case CategoryWater:
		return GroupWater
	default:
		return GroupOther
	}
}
