package money

import "math"

// EvaluatePrice converts a nominal price into the unit price actually
// charged per ticket. A free-of-charge event always charges zero,
// whatever the other flags say. When VAT is not included in the nominal
// price it is added later at checkout, so the price passes through
// unchanged; otherwise the VAT fraction is stripped out.
func EvaluatePrice(priceCents int64, vat float64, vatIncluded, freeOfCharge bool) int64 {
	if freeOfCharge {
		return 0
	}
	if !vatIncluded {
		return priceCents
	}

	return RemoveVAT(priceCents, vat)
}

// RemoveVAT extracts the net price from a VAT-inclusive amount,
// rounded to the currency's minor unit.
func RemoveVAT(priceCents int64, vat float64) int64 {
	return int64(math.Round(float64(priceCents) * 100 / (100 + vat)))
}

// AddVAT applies the VAT percentage on top of a net amount.
func AddVAT(priceCents int64, vat float64) int64 {
	return int64(math.Round(float64(priceCents) * (100 + vat) / 100))
}
