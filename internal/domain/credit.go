package domain

import "github.com/shopspring/decimal"

// ─── Credit Conversion ──────────────────────────────────────────────────────
// Virtual credits are an off-chain accounting unit awarded for verified burns.
// The base-units-per-credit ratio is external configuration, not a constant:
// 1 means one credit per base unit, 1000 means a thousand base units per credit.

// Converter translates on-chain burned base units into virtual credits.
type Converter struct {
	ratio decimal.Decimal
}

// NewConverter creates a converter with the given base-units-per-credit ratio.
// Ratios below 1 are clamped to 1.
func NewConverter(baseUnitsPerCredit int64) Converter {
	if baseUnitsPerCredit < 1 {
		baseUnitsPerCredit = 1
	}
	return Converter{ratio: decimal.NewFromInt(baseUnitsPerCredit)}
}

// Credits returns the virtual-credit value of raw burned base units.
func (c Converter) Credits(raw int64) decimal.Decimal {
	return decimal.NewFromInt(raw).Div(c.ratio)
}

// Ratio returns the configured base-units-per-credit ratio.
func (c Converter) Ratio() int64 {
	return c.ratio.IntPart()
}
