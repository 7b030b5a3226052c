package rowio

import (
	"math"

	"github.com/shopspring/decimal"
)

// ScaledToFloat64 converts an unscaled integer value with the given scale
// to a float64 using the identity spec.md §4.2 mandates: integer-part and
// fractional-part are divided separately so the integer part survives the
// conversion exactly, rather than doing a single float division of the raw
// unscaled value that would lose precision for large magnitudes first.
func ScaledToFloat64(unscaled int64, scale int32) float64 {
	if scale <= 0 {
		pow := int64(math.Pow10(int(-scale)))
		return float64(unscaled * pow)
	}
	pow := int64(math.Pow10(int(scale)))
	intPart := unscaled / pow
	fracPart := unscaled % pow
	return float64(intPart) + float64(fracPart)/float64(pow)
}

// DecimalToFloat64 applies the same scale-preserving conversion to a
// shopspring/decimal.Decimal, which is how SQLite NUMERIC/DECIMAL text
// representations are parsed before being handed to a row writer.
func DecimalToFloat64(d decimal.Decimal) float64 {
	return ScaledToFloat64(d.CoefficientInt64(), d.Exponent()*-1)
}
