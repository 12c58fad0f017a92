package finance

import (
	"github.com/shopspring/decimal"

	"github.com/trezcool/campusdesk/core"
)

// TaxType says how a tax rate is applied.
type TaxType string

const (
	TaxPercentage TaxType = "percentage"
	TaxFixed      TaxType = "fixed"
)

// TaxContext is the kind of monetary transaction a tax applies to.
type TaxContext string

const (
	ContextFee       TaxContext = "fee"
	ContextAdmission TaxContext = "admission"
	ContextExpenses  TaxContext = "expenses"
)

// AdmissionContexts are the tax contexts applied to an admission payment.
var AdmissionContexts = []TaxContext{ContextFee, ContextAdmission}

type Tax struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Code         string          `json:"code"`
	Rate         decimal.Decimal `json:"rate"`
	Type         TaxType         `json:"type"`
	ApplicableOn TaxContext      `json:"applicableOn"`
	IsActive     *bool           `json:"isActive,omitempty"` // absent means active
	BranchID     string          `json:"branchId,omitempty"`
}

func (t Tax) Key() string { return t.ID }

// Active reports whether the tax is not explicitly disabled.
func (t Tax) Active() bool {
	return t.IsActive == nil || *t.IsActive
}

type Installment struct {
	Name    string          `json:"name"`
	Amount  decimal.Decimal `json:"amount"`
	DueDate core.Date       `json:"dueDate"`
}

type FeeStructure struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	BranchID          string          `json:"branchId,omitempty"`
	AcademicYearID    string          `json:"academicYearId,omitempty"`
	TotalAmount       decimal.Decimal `json:"totalAmount"`
	Installments      []Installment   `json:"installments"`
	ApplicableClasses []string        `json:"applicableClasses"`
	ApplicableCourses []string        `json:"applicableCourses"`
}

func (fs FeeStructure) Key() string { return fs.ID }

type PaymentMethod string

const (
	MethodCash   PaymentMethod = "cash"
	MethodCard   PaymentMethod = "card"
	MethodBank   PaymentMethod = "bank_transfer"
	MethodCheque PaymentMethod = "cheque"
	MethodOnline PaymentMethod = "online"
)

// FeePayment is the payment record posted after an admission.
type FeePayment struct {
	ID             string          `json:"id,omitempty"`
	StudentID      string          `json:"studentId"`
	FeeStructureID string          `json:"feeStructureId"`
	Amount         decimal.Decimal `json:"amount"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
	Total          decimal.Decimal `json:"totalAmount"`
	Taxes          []TaxLine       `json:"taxes,omitempty"`
	Method         PaymentMethod   `json:"paymentMethod"`
	Reference      string          `json:"reference,omitempty"`
	PaidOn         core.Date       `json:"paymentDate"`
}

func (p FeePayment) Key() string { return p.ID }
