package admission

import (
	"context"
	"fmt"
	"time"

	"github.com/trezcool/campusdesk/core"
)

const reasonDateLayout = "02 Jan 2006"

type (
	// Window is the period during which intake is permitted. Zero dates are unbounded.
	Window struct {
		IsOpen    *bool     `json:"isOpen,omitempty"`
		StartDate core.Date `json:"startDate"`
		EndDate   core.Date `json:"endDate"`
		AllowLate bool      `json:"allowLate"`
	}

	Workflow struct {
		RequireFee        bool     `json:"requireFee"`
		RequireDocs       bool     `json:"requireDocs"`
		RequiredDocuments []string `json:"requiredDocuments,omitempty"`
	}

	Policy struct {
		AcademicYearID string   `json:"academicYearId"`
		Window         *Window  `json:"window,omitempty"`
		Workflow       Workflow `json:"workflow"`
	}

	Verdict struct {
		Blocked bool   `json:"blocked"`
		Late    bool   `json:"late"`
		Reason  string `json:"reason,omitempty"`
	}

	// PolicySource fetches the admission policy of an academic year. A nil policy means none is set.
	PolicySource interface {
		GetPolicy(ctx context.Context, academicYearID string) (*Policy, error)
	}
)

// Evaluate decides whether intake is permitted on today's calendar day.
func Evaluate(policy *Policy, today time.Time) Verdict {
	if policy == nil || policy.Window == nil {
		return Verdict{}
	}
	w := policy.Window
	day := core.DateOf(today)

	if w.IsOpen != nil && !*w.IsOpen {
		return Verdict{Blocked: true, Reason: "Admissions are closed for this academic year."}
	}
	if w.StartDate.Valid() && day.Before(w.StartDate) {
		return Verdict{
			Blocked: true,
			Reason:  fmt.Sprintf("Admissions have not opened yet. The admission window opens on %s.", w.StartDate.Format(reasonDateLayout)),
		}
	}
	if w.EndDate.Valid() && day.After(w.EndDate) {
		if !w.AllowLate {
			return Verdict{
				Blocked: true,
				Reason:  fmt.Sprintf("The admission window closed on %s and late admissions are not allowed.", w.EndDate.Format(reasonDateLayout)),
			}
		}
		return Verdict{
			Late:   true,
			Reason: fmt.Sprintf("The admission window closed on %s. This is a late admission.", w.EndDate.Format(reasonDateLayout)),
		}
	}
	return Verdict{}
}

// RequiredDocuments lists the documents to collect, none when the workflow does not require them.
func (p *Policy) RequiredDocuments() []string {
	if p == nil || !p.Workflow.RequireDocs {
		return nil
	}
	return p.Workflow.RequiredDocuments
}

func (p *Policy) RequiresFee() bool {
	return p != nil && p.Workflow.RequireFee
}

// PolicyService evaluates policies against the school's calendar.
type PolicyService struct {
	source PolicySource
	loc    *time.Location
	now    func() time.Time
}

func NewPolicyService(source PolicySource, conf *core.Config) *PolicyService {
	loc := conf.Admission.Location
	if loc == nil {
		loc = time.UTC
	}
	return &PolicyService{source: source, loc: loc, now: time.Now}
}

// Today is the current time in the school's location.
func (svc *PolicyService) Today() time.Time {
	return svc.now().In(svc.loc)
}

// Check fetches the policy of the academic year and evaluates it for today.
func (svc *PolicyService) Check(ctx context.Context, academicYearID string) (Verdict, *Policy, error) {
	if academicYearID == "" {
		return Verdict{}, nil, nil
	}
	policy, err := svc.source.GetPolicy(ctx, academicYearID)
	if err != nil {
		return Verdict{}, nil, err
	}
	return Evaluate(policy, svc.Today()), policy, nil
}
