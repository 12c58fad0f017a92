package finance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func boolPtr(b bool) *bool { return &b }

var (
	gst = Tax{ID: "t1", Name: "GST", Code: "GST", Rate: dec("18"), Type: TaxPercentage, ApplicableOn: ContextAdmission}
	fee = Tax{ID: "t2", Name: "Processing", Code: "PRC", Rate: dec("500"), Type: TaxFixed, ApplicableOn: ContextFee}
)

func TestComputeTotal(t *testing.T) {
	tests := []struct {
		name      string
		base      string
		taxes     []Tax
		taxAmount string
		total     string
	}{
		{"no taxes", "1000", nil, "0", "1000"},
		{"percentage and fixed", "45000", []Tax{gst, fee}, "8600", "53600"},
		{"fixed only", "0", []Tax{fee}, "500", "500"},
		{"fractional percentage", "33.33", []Tax{{Type: TaxPercentage, Rate: dec("7.5")}}, "2.5", "35.83"},
		{"unknown type ignored", "100", []Tax{{Type: "weird", Rate: dec("10")}}, "0", "100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := ComputeTotal(dec(tt.base), tt.taxes)
			assert.True(t, q.TaxAmount.Equal(dec(tt.taxAmount)), "tax amount: %s", q.TaxAmount)
			assert.True(t, q.Total.Equal(dec(tt.total)), "total: %s", q.Total)
			assert.Len(t, q.Breakdown, len(tt.taxes))
		})
	}
}

func TestComputeTotal_OrderIndependent(t *testing.T) {
	extra := Tax{ID: "t3", Rate: dec("2.25"), Type: TaxPercentage}
	bases := []string{"0", "1", "99.99", "45000", "123456.78"}
	for _, b := range bases {
		base := dec(b)
		ab := ComputeTotal(base, []Tax{gst, fee, extra})
		ba := ComputeTotal(base, []Tax{extra, fee, gst})
		assert.True(t, ab.Total.Equal(ba.Total), "base %s", b)
		assert.True(t, ab.TaxAmount.Equal(ba.TaxAmount), "base %s", b)
	}
}

func TestComputeTotal_Idempotent(t *testing.T) {
	taxes := []Tax{gst, fee}
	first := ComputeTotal(dec("45000"), taxes)
	second := ComputeTotal(dec("45000"), taxes)
	assert.True(t, first.Total.Equal(second.Total))
	assert.Equal(t, []Tax{gst, fee}, taxes)

	// feeding a total back in stays stable at 2 decimals
	again := ComputeTotal(first.Total, nil)
	assert.True(t, again.Total.Equal(first.Total))
}

func TestApplicable(t *testing.T) {
	inactive := Tax{ID: "t4", Type: TaxFixed, Rate: dec("10"), ApplicableOn: ContextFee, IsActive: boolPtr(false)}
	active := Tax{ID: "t5", Type: TaxFixed, Rate: dec("10"), ApplicableOn: ContextFee, IsActive: boolPtr(true)}
	expense := Tax{ID: "t6", Type: TaxFixed, Rate: dec("10"), ApplicableOn: ContextExpenses}

	got := Applicable([]Tax{gst, fee, inactive, active, expense}, AdmissionContexts...)
	ids := make([]string, 0, len(got))
	for _, tax := range got {
		ids = append(ids, tax.ID)
	}
	assert.Equal(t, []string{"t1", "t2", "t5"}, ids)

	assert.Empty(t, Applicable([]Tax{gst, fee}))
	assert.Len(t, Applicable([]Tax{expense}, ContextExpenses), 1)
}

func TestParseAmount(t *testing.T) {
	tests := map[string]string{
		"":         "0",
		"abc":      "0",
		"NaN":      "0",
		" 45000 ":  "45000",
		"1,250.50": "1250.5",
		"-3":       "-3",
	}
	for in, want := range tests {
		assert.True(t, ParseAmount(in).Equal(dec(want)), "input %q", in)
	}
}

func TestParseContext(t *testing.T) {
	ctxs, ok := ParseContext("")
	assert.True(t, ok)
	assert.Equal(t, AdmissionContexts, ctxs)

	ctxs, ok = ParseContext("Expenses")
	assert.True(t, ok)
	assert.Equal(t, []TaxContext{ContextExpenses}, ctxs)

	_, ok = ParseContext("payroll")
	assert.False(t, ok)
}

func TestFeeStructuresFor(t *testing.T) {
	structures := []FeeStructure{
		{ID: "all"},
		{ID: "class", ApplicableClasses: []string{"c1"}},
		{ID: "course", ApplicableCourses: []string{"k1"}},
	}
	ids := func(fss []FeeStructure) []string {
		res := make([]string, 0, len(fss))
		for _, fs := range fss {
			res = append(res, fs.ID)
		}
		return res
	}
	assert.Equal(t, []string{"all", "class"}, ids(FeeStructuresFor(structures, "c1", "")))
	assert.Equal(t, []string{"all", "course"}, ids(FeeStructuresFor(structures, "", "k1")))
	assert.Equal(t, []string{"all"}, ids(FeeStructuresFor(structures, "c2", "k2")))
}

func TestFormatter(t *testing.T) {
	f := NewFormatter(language.English)
	assert.Equal(t, "53,600.00", f.Amount(dec("53600")))

	rows := f.Lines(ComputeTotal(dec("45000"), []Tax{gst, fee}))
	assert.Equal(t, [2]string{"Base amount", "45,000.00"}, rows[0])
	assert.Equal(t, [2]string{"GST (18%)", "8,100.00"}, rows[1])
	assert.Equal(t, [2]string{"Processing", "500.00"}, rows[2])
	assert.Equal(t, [2]string{"Total", "53,600.00"}, rows[len(rows)-1])
}
