package order

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"pixrelay/api/internal/errs"
)

// Bounds applied before rounding. Rescaling a decimal with a huge exponent
// allocates a power of ten with that many digits.
const maxAmountExponent = 18

var maxAmount = decimal.New(1, 9)

// ParseAmount accepts JSON numbers and numeric strings ("49.90", "49,90").
// The result is rounded to centavos and must be positive.
func ParseAmount(v interface{}) (decimal.Decimal, error) {
	var (
		amount decimal.Decimal
		err    error
	)
	switch x := v.(type) {
	case nil:
		return decimal.Zero, errs.Validation("amount", "Nome do pagador e valor são obrigatórios")
	case bool:
		return decimal.Zero, errs.Validation("amount", "valor deve ser numérico")
	case string:
		s := strings.TrimSpace(x)
		if !strings.Contains(s, ".") {
			s = strings.Replace(s, ",", ".", 1)
		}
		amount, err = decimal.NewFromString(s)
	case json.Number:
		amount, err = decimal.NewFromString(x.String())
	default:
		var f float64
		f, err = cast.ToFloat64E(x)
		if err == nil {
			amount = decimal.NewFromFloat(f)
		}
	}
	if err != nil {
		return decimal.Zero, errs.Validation("amount", "valor deve ser numérico")
	}

	if e := amount.Exponent(); e > maxAmountExponent || e < -maxAmountExponent {
		return decimal.Zero, errs.Validation("amount", "valor fora do intervalo permitido")
	}
	if amount.GreaterThan(maxAmount) {
		return decimal.Zero, errs.Validation("amount", "valor fora do intervalo permitido")
	}

	amount = amount.Round(2)
	if !amount.IsPositive() {
		return decimal.Zero, errs.Validation("amount", "valor deve ser maior que zero")
	}
	return amount, nil
}
