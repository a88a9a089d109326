package pricing

import "github.com/shopspring/decimal"

// PriceDecimals matches the quote increment of the traded products (0.001).
const PriceDecimals = 3

var (
	hundred = decimal.NewFromInt(100)
	tick    = decimal.New(1, -PriceDecimals)
)

// ThresholdSet is derived from a single anchor price and replaced as a whole
// on every re-anchor. It is never mutated in place.
type ThresholdSet struct {
	Dip         decimal.Decimal
	UpwardTrend decimal.Decimal
	StopLoss    decimal.Decimal
	Profit      decimal.Decimal
}

// Calculator derives threshold prices from configured percentages.
type Calculator struct {
	DipPercent      decimal.Decimal
	UpTrendPercent  decimal.Decimal
	StopLossPercent decimal.Decimal
	ProfitPercent   decimal.Decimal
}

// FromAnchor computes the full threshold set for an anchor price. Each value
// is rounded once to PriceDecimals, half away from zero. A nonzero percent
// must keep the threshold strictly on its side of the anchor: when the anchor
// offset is smaller than half a price increment the rounded value would land
// on the anchor itself, so it is pushed one increment outward instead.
func (c Calculator) FromAnchor(anchor decimal.Decimal) ThresholdSet {
	return ThresholdSet{
		Dip:         below(anchor, c.DipPercent),
		UpwardTrend: above(anchor, c.UpTrendPercent),
		StopLoss:    below(anchor, c.StopLossPercent),
		Profit:      above(anchor, c.ProfitPercent),
	}
}

func above(anchor, percent decimal.Decimal) decimal.Decimal {
	result := anchor.Add(anchor.Mul(percent).Div(hundred)).Round(PriceDecimals)
	if percent.IsPositive() && result.LessThanOrEqual(anchor) {
		result = result.Add(tick)
	}
	return result
}

func below(anchor, percent decimal.Decimal) decimal.Decimal {
	result := anchor.Sub(anchor.Mul(percent).Div(hundred)).Round(PriceDecimals)
	if percent.IsPositive() && result.GreaterThanOrEqual(anchor) {
		result = result.Sub(tick)
	}
	return result
}

// InBand reports whether price falls inside the symmetric tolerance band
// around threshold: threshold-rng <= price <= threshold+rng.
func InBand(price, threshold, rng decimal.Decimal) bool {
	return price.GreaterThanOrEqual(threshold.Sub(rng)) &&
		price.LessThanOrEqual(threshold.Add(rng))
}
