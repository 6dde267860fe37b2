package businessflow

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ecotrace/ecotrace/app/dto"
	"github.com/ecotrace/ecotrace/emission"
)

// Pattern-based field extraction. This is the degraded path used when the
// vision service is unreachable or returns garbage; it only understands
// bills whose text layer spells out units and totals in common formats.

var (
	kwhPattern      = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(?:kwh|kw-?h)`)
	litersPattern   = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(?:liters?|litres?|ltrs?|l\b)`)
	kgPattern       = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(?:kgs?|kilograms?)`)
	cylinderPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*cylinders?`)
	klPattern       = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(?:kl|kilolit(?:er|re)s?)`)
	// Label-first forms ("Units consumed: 250", "Qty: 30") as a second chance
	// when no unit token follows the number
	labelQtyPattern = regexp.MustCompile(`(?i)(?:units?(?:\s+consumed)?|consumption|qty)\s*[:\-]?\s*(\d+(?:\.\d+)?)`)
	amountPattern   = regexp.MustCompile(`(?i)(?:total|amount|payable|rs\.?|inr|₹)\s*:?\s*(?:rs\.?|inr|₹)?\s*(\d+(?:,\d{3})*(?:\.\d+)?)`)
	datePattern     = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`)
)

// Category keyword hints, checked in order; first hit wins
var categoryHints = []struct {
	category string
	keywords []string
}{
	{emission.CategoryElectricity, []string{"electricity", "electric", "power supply", "kwh", "energy bill"}},
	{emission.CategoryPetrol, []string{"petrol", "gasoline"}},
	{emission.CategoryDiesel, []string{"diesel"}},
	{emission.CategoryLPG, []string{"lpg", "cylinder", "liquefied petroleum"}},
	{emission.CategoryGas, []string{"piped gas", "png", "natural gas", "gas bill"}},
	{emission.CategoryWater, []string{"water supply", "water bill", "water charges"}},
}

// parseBillText scans the text layer of a bill for category keywords, a
// consumed quantity, and a billed total. Returns ErrRequiresManualInput when
// there is not enough to build a bill from.
func parseBillText(text string, prices emission.PriceTable) (*dto.ExtractedFieldsDTO, error) {
	return parseBillFields(text, "", prices)
}

// parseBillFields is parseBillText with the category pinned by the caller.
// An empty category falls back to keyword detection.
func parseBillFields(text, category string, prices emission.PriceTable) (*dto.ExtractedFieldsDTO, error) {
	if category == "" {
		category = detectCategory(text)
	}
	if category == "" {
		return nil, ErrRequiresManualInput
	}

	units := matchQuantity(text, category)
	amount := matchFloat(amountPattern, text)

	fields := &dto.ExtractedFieldsDTO{
		Type:     category,
		Amount:   amount,
		UnitType: emission.CanonicalUnit(emission.DefaultFactorTable(), category),
	}

	switch {
	case units != nil && *units > 0:
		fields.Units = *units
	case amount != nil && *amount > 0:
		fields.Units = prices.EstimateUnits(category, *amount)
		fields.Estimated = true
	default:
		return nil, ErrRequiresManualInput
	}

	if m := datePattern.FindString(text); m != "" {
		fields.Date = &m
	}

	return fields, nil
}

// detectCategory finds the first category keyword in the text
func detectCategory(text string) string {
	lower := strings.ToLower(text)
	for _, hint := range categoryHints {
		for _, kw := range hint.keywords {
			if strings.Contains(lower, kw) {
				return hint.category
			}
		}
	}
	return ""
}

// matchQuantity picks the unit pattern appropriate for the category
func matchQuantity(text, category string) *float64 {
	switch category {
	case emission.CategoryElectricity:
		if v := matchFloat(kwhPattern, text); v != nil {
			return v
		}
		return matchFloat(labelQtyPattern, text)
	case emission.CategoryPetrol, emission.CategoryDiesel:
		if v := matchFloat(litersPattern, text); v != nil {
			return v
		}
		return matchFloat(labelQtyPattern, text)
	case emission.CategoryLPG, emission.CategoryGas:
		if v := matchFloat(kgPattern, text); v != nil {
			return v
		}
		// Count of refill cylinders, at the standard 14.2 kg each
		if v := matchFloat(cylinderPattern, text); v != nil {
			kg := *v * emission.KgPerCylinder
			return &kg
		}
		return matchFloat(litersPattern, text)
	case emission.CategoryWater:
		if v := matchFloat(klPattern, text); v != nil {
			return v
		}
		return matchFloat(labelQtyPattern, text)
	}
	return nil
}

func matchFloat(re *regexp.Regexp, text string) *float64 {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return nil
	}
	raw := strings.ReplaceAll(m[1], ",", "")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}
