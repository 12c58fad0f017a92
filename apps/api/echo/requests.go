package echoapi

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/campusdesk/core"
	"github.com/trezcool/campusdesk/core/admission"
	"github.com/trezcool/campusdesk/core/finance"
)

type (
	StartWizardRequest struct {
		AcademicYearID string `json:"academic_year_id" validate:"omitempty,max=64"`
	}

	// amountParam accepts a JSON number or string; anything unparsable is 0.
	amountParam decimal.Decimal

	QuoteRequest struct {
		BaseAmount amountParam `json:"base_amount"`
		Context    string      `json:"context"`
	}

	QuoteResponse struct {
		finance.Quote
		Lines [][2]string `json:"lines"`
	}

	PolicyResponse struct {
		admission.Verdict
		Policy *admission.Policy `json:"policy"`
	}

	WizardResponse struct {
		ID        string            `json:"id"`
		Portal    core.Portal       `json:"portal"`
		BranchID  string            `json:"branch_id,omitempty"`
		Steps     []admission.Step  `json:"steps"`
		Step      admission.Step    `json:"step"`
		Index     int               `json:"index"`
		IsLast    bool              `json:"is_last"`
		Late      bool              `json:"late"`
		Policy    *admission.Policy `json:"policy"`
		Draft     admission.Draft   `json:"draft"`
		CreatedAt time.Time         `json:"created_at"`
		UpdatedAt time.Time         `json:"updated_at"`
	}

	SubmitResponse struct {
		admission.Outcome
		PaymentError string `json:"payment_error,omitempty"`
	}
)

func (a *amountParam) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	} else if s == "null" {
		s = ""
	}
	*a = amountParam(finance.ParseAmount(s))
	return nil
}

func (a amountParam) Decimal() decimal.Decimal {
	return decimal.Decimal(a)
}

func (r *StartWizardRequest) Validate(validate *validator.Validate) error {
	r.AcademicYearID = core.CleanString(r.AcademicYearID)
	return validate.Struct(r)
}

// Validate cleans the request and returns the tax contexts it asks for.
func (r *QuoteRequest) Validate() ([]finance.TaxContext, error) {
	r.Context = core.CleanString(r.Context, true)
	contexts, ok := finance.ParseContext(r.Context)
	if !ok {
		return nil, core.NewValidationError(
			errors.Errorf("unknown tax context %q", r.Context),
			core.FieldError{Field: "context", Error: "must be one of admission fee expenses"},
		)
	}
	if r.BaseAmount.Decimal().IsNegative() {
		return nil, core.NewValidationError(nil, core.FieldError{Field: "base_amount", Error: "cannot be negative"})
	}
	return contexts, nil
}

func newWizardResponse(w admission.Wizard) WizardResponse {
	return WizardResponse{
		ID:        w.ID,
		Portal:    w.Scope.Portal,
		BranchID:  w.Scope.BranchID,
		Steps:     w.Flow(),
		Step:      w.Step(),
		Index:     w.Index(),
		IsLast:    w.IsLast(),
		Late:      w.Late,
		Policy:    w.Policy,
		Draft:     w.Draft,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

var _ json.Unmarshaler = (*amountParam)(nil)
