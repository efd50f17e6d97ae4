package pricing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// ValidPercent el descuento debe ser un entero en [1,100].
func ValidPercent(percent int) bool {
	return percent >= 1 && percent <= 100
}

// ApplyPercent calcula round_half_up(base * (1 - percent/100), 2).
// Se multiplica antes de dividir para no perder precisión: base*(100-p)/100.
func ApplyPercent(base decimal.Decimal, percent int) decimal.Decimal {
	return Round2(base.Mul(decimal.NewFromInt(int64(100 - percent))).Div(hundred))
}

// Round2 redondea a 2 decimales, mitad hacia arriba (para montos no negativos).
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
