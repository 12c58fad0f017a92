package finance

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter renders amounts with grouping for a locale.
type Formatter struct {
	printer *message.Printer
}

func NewFormatter(tag language.Tag) *Formatter {
	return &Formatter{printer: message.NewPrinter(tag)}
}

// Amount renders d with 2 decimal places, e.g. 53,600.00.
func (f *Formatter) Amount(d decimal.Decimal) string {
	v, _ := d.Round(2).Float64()
	return f.printer.Sprint(number.Decimal(v, number.Scale(2)))
}

// Lines returns the quote as label/value rows, tax lines in between base and total.
func (f *Formatter) Lines(q Quote) [][2]string {
	rows := make([][2]string, 0, len(q.Breakdown)+3)
	rows = append(rows, [2]string{"Base amount", f.Amount(q.Base)})
	for _, line := range q.Breakdown {
		label := line.Name
		if line.Type == TaxPercentage {
			label = f.printer.Sprintf("%s (%s%%)", line.Name, line.Rate.String())
		}
		rows = append(rows, [2]string{label, f.Amount(line.Amount)})
	}
	rows = append(rows,
		[2]string{"Tax", f.Amount(q.TaxAmount)},
		[2]string{"Total", f.Amount(q.Total)},
	)
	return rows
}
