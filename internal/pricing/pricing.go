// Package pricing is the valuation engine: deterministic, stateless
// arithmetic from device age, condition grade and defect penalty to a
// price range and a market-comparison signal.
package pricing

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Depreciation rate k per category code. Unknown codes fall back to
// defaultK / defaultVol.
var categoryK = map[string]float64{
	"mobile":   0.35,
	"tablet":   0.28,
	"computer": 0.20,
	"laptop":   0.22,
	"console":  0.18,
	"camera":   0.15,
	"wearable": 0.30,
	"audio":    0.30,
	"drone":    0.22,
}

// Baseline volatility per category code.
var categoryVol = map[string]float64{
	"mobile":   0.12,
	"tablet":   0.10,
	"computer": 0.10,
	"laptop":   0.10,
	"console":  0.09,
	"camera":   0.08,
	"wearable": 0.12,
	"audio":    0.12,
	"drone":    0.11,
}

const (
	defaultK   = 0.20
	defaultVol = 0.10
)

var (
	minPriceFloor    = decimal.NewFromInt(50)
	maxDefectPenalty = decimal.RequireFromString("0.65")
	volStep          = decimal.RequireFromString("0.08")
	volFloor         = decimal.RequireFromString("0.06")
	volCeil          = decimal.RequireFromString("0.25")
)

// Estimate is an immutable valuation snapshot. Monetary fields are
// rounded to 2 decimal places.
type Estimate struct {
	Min           decimal.Decimal
	Mid           decimal.Decimal
	Max           decimal.Decimal
	Volatility    float64
	AgeFactor     float64
	DefectPenalty float64
}

func clampDec(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}

// DefectPenalty maps a detected-defect count to its penalty tier.
// Caller-side policy applied before EstimateRange.
func DefectPenalty(defectCount int) decimal.Decimal {
	switch {
	case defectCount <= 0:
		return decimal.RequireFromString("0.02")
	case defectCount == 1:
		return decimal.RequireFromString("0.08")
	default:
		return decimal.RequireFromString("0.15")
	}
}

// EstimateRange prices a device. Age depreciates continuously
// (exp(-k*years): the first year loses the most), the grade factor and
// defect penalty scale linearly, and defects also widen the
// uncertainty band around the midpoint.
func EstimateRange(originalPrice decimal.Decimal, yearsUsed float64, gradeFactor, defectPenalty decimal.Decimal, categoryCode string) Estimate {
	k, ok := categoryK[categoryCode]
	if !ok {
		k = defaultK
	}
	baseVol, ok := categoryVol[categoryCode]
	if !ok {
		baseVol = defaultVol
	}

	ageFactor := decimal.NewFromFloat(math.Exp(-k * yearsUsed))
	defectPenalty = clampDec(defectPenalty, decimal.Zero, maxDefectPenalty)
	defectFactor := decimal.NewFromInt(1).Sub(defectPenalty)

	mid := originalPrice.Mul(gradeFactor).Mul(ageFactor).Mul(defectFactor)

	vol := decimal.NewFromFloat(baseVol).Add(volStep.Mul(defectPenalty))
	vol = clampDec(vol, volFloor, volCeil)

	minP := mid.Mul(decimal.NewFromInt(1).Sub(vol))
	maxP := mid.Mul(decimal.NewFromInt(1).Add(vol))

	// Floor protection: never quote below 50, and keep min<=mid<=max
	// even when the floor kicks in.
	if minP.LessThan(minPriceFloor) {
		minP = minPriceFloor
	}
	if maxP.LessThan(minP) {
		maxP = minP
	}
	if mid.LessThan(minP) {
		mid = minP
	}

	av, _ := ageFactor.Float64()
	dv, _ := defectPenalty.Float64()
	vv, _ := vol.Float64()
	return Estimate{
		Min:           minP.Round(2),
		Mid:           mid.Round(2),
		Max:           maxP.Round(2),
		Volatility:    vv,
		AgeFactor:     av,
		DefectPenalty: dv,
	}
}

// ComparePrice positions a seller's asking price against the estimated
// range. diffPct is positive above the range, negative below it and 0
// inside it.
func ComparePrice(sellingPrice, estimatedMin, estimatedMax decimal.Decimal) (float64, string) {
	hundred := decimal.NewFromInt(100)
	if sellingPrice.GreaterThan(estimatedMax) {
		diff, _ := sellingPrice.Sub(estimatedMax).Div(estimatedMax).Mul(hundred).Float64()
		return diff, fmt.Sprintf("above market by %.1f%%", diff)
	}
	if sellingPrice.LessThan(estimatedMin) {
		diff, _ := estimatedMin.Sub(sellingPrice).Div(estimatedMin).Mul(hundred).Float64()
		return -diff, fmt.Sprintf("below market by %.1f%%", diff)
	}
	return 0, "within reasonable range"
}

// ValueScore only penalizes overpricing; at-or-below-market listings
// all score 100.
func ValueScore(diffPct float64) float64 {
	score := 100.0 - math.Max(0, diffPct)
	return math.Max(0, math.Min(100, score))
}
