package finance

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// TaxLine is the contribution of one tax to a quote.
type TaxLine struct {
	TaxID  string          `json:"taxId"`
	Name   string          `json:"name"`
	Code   string          `json:"code,omitempty"`
	Type   TaxType         `json:"type"`
	Rate   decimal.Decimal `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
}

// Quote is the result of applying taxes to a base amount.
type Quote struct {
	Base      decimal.Decimal `json:"baseAmount"`
	TaxAmount decimal.Decimal `json:"taxAmount"`
	Total     decimal.Decimal `json:"total"`
	Breakdown []TaxLine       `json:"breakdown"`
}

// contribution returns the unrounded amount the tax adds to base.
func contribution(base decimal.Decimal, tax Tax) decimal.Decimal {
	switch tax.Type {
	case TaxPercentage:
		return base.Mul(tax.Rate).Div(hundred)
	case TaxFixed:
		return tax.Rate
	default:
		return decimal.Zero
	}
}

// ComputeTotal applies taxes to base: percentage taxes add base*rate/100, fixed taxes add rate.
// Only the final figures are rounded, to 2 decimal places.
// The result does not depend on the order of taxes and the inputs are never modified.
func ComputeTotal(base decimal.Decimal, taxes []Tax) Quote {
	sum := decimal.Zero
	lines := make([]TaxLine, 0, len(taxes))
	for _, tax := range taxes {
		amount := contribution(base, tax)
		sum = sum.Add(amount)
		lines = append(lines, TaxLine{
			TaxID:  tax.ID,
			Name:   tax.Name,
			Code:   tax.Code,
			Type:   tax.Type,
			Rate:   tax.Rate,
			Amount: amount.Round(2),
		})
	}
	return Quote{
		Base:      base.Round(2),
		TaxAmount: sum.Round(2),
		Total:     base.Add(sum).Round(2),
		Breakdown: lines,
	}
}

// Applicable keeps the active taxes whose ApplicableOn is one of contexts.
func Applicable(taxes []Tax, contexts ...TaxContext) []Tax {
	res := make([]Tax, 0, len(taxes))
	for _, tax := range taxes {
		if !tax.Active() {
			continue
		}
		for _, ctx := range contexts {
			if tax.ApplicableOn == ctx {
				res = append(res, tax)
				break
			}
		}
	}
	return res
}

// ParseAmount reads a user supplied amount. Anything that is not a number is 0.
func ParseAmount(s string) decimal.Decimal {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseContext maps a context name to a set of tax contexts.
// "admission" (and the empty string) expands to AdmissionContexts.
func ParseContext(s string) ([]TaxContext, bool) {
	switch TaxContext(strings.ToLower(strings.TrimSpace(s))) {
	case "", ContextAdmission:
		return AdmissionContexts, true
	case ContextFee:
		return []TaxContext{ContextFee}, true
	case ContextExpenses:
		return []TaxContext{ContextExpenses}, true
	}
	return nil, false
}
