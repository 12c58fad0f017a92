package admission

import (
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/campusdesk/core"
)

type Step string

const (
	StepPersonal  Step = "personal"
	StepGuardian  Step = "guardian"
	StepAcademic  Step = "academic"
	StepLogistics Step = "logistics"
	StepDocuments Step = "documents"
	StepReview    Step = "review"
)

var (
	AdminFlow = []Step{StepPersonal, StepGuardian, StepAcademic, StepLogistics, StepDocuments, StepReview}
	StaffFlow = []Step{StepPersonal, StepGuardian, StepAcademic, StepLogistics, StepReview}

	ErrNotLastStep = errors.New("the admission can only be submitted from the last step")
)

// FlowFor returns the steps of the portal's intake form.
func FlowFor(portal core.Portal) []Step {
	if portal == core.PortalStaff {
		return StaffFlow
	}
	return AdminFlow
}

// StepInput carries the data of one step. Only the slice bound to the wizard's current step may be set.
type StepInput struct {
	Personal  *Personal         `json:"personal,omitempty"`
	Guardian  *Guardian         `json:"guardian,omitempty"`
	Placement *Placement        `json:"academic,omitempty"`
	Logistics *Logistics        `json:"logistics,omitempty"`
	Documents map[string]string `json:"documents,omitempty"`
	Fee       *FeeInput         `json:"fee,omitempty"`
	ClearFee  bool              `json:"clearFee,omitempty"`
}

// steps lists the steps the input has data for.
func (in StepInput) steps() []Step {
	res := make([]Step, 0, 1)
	if in.Personal != nil {
		res = append(res, StepPersonal)
	}
	if in.Guardian != nil {
		res = append(res, StepGuardian)
	}
	if in.Placement != nil {
		res = append(res, StepAcademic)
	}
	if in.Logistics != nil {
		res = append(res, StepLogistics)
	}
	if in.Documents != nil {
		res = append(res, StepDocuments)
	}
	if in.Fee != nil || in.ClearFee {
		res = append(res, StepReview)
	}
	return res
}

// Wizard is the intake state machine: a position in the portal's flow and the draft entered so far.
// Wizard is a value; every transition returns a new Wizard.
type Wizard struct {
	ID        string
	Owner     string
	Scope     core.Scope
	Policy    *Policy
	Late      bool
	Draft     Draft
	CreatedAt time.Time
	UpdatedAt time.Time

	index int // 1..len(flow)
}

func NewWizard(id, owner string, scope core.Scope, policy *Policy, now time.Time) Wizard {
	return Wizard{
		ID:        id,
		Owner:     owner,
		Scope:     scope,
		Policy:    policy,
		Draft:     Draft{Documents: make(map[string]string)},
		CreatedAt: now,
		UpdatedAt: now,
		index:     1,
	}
}

func (w Wizard) Flow() []Step { return FlowFor(w.Scope.Portal) }

// Index is the 1-based position of the current step.
func (w Wizard) Index() int {
	if w.index < 1 {
		return 1
	}
	return w.index
}

func (w Wizard) Len() int    { return len(w.Flow()) }
func (w Wizard) Step() Step   { return w.Flow()[w.Index()-1] }
func (w Wizard) IsLast() bool { return w.Index() == w.Len() }

// Apply edits the draft slice of the current step.
func (w Wizard) Apply(in StepInput, now time.Time) (Wizard, error) {
	current := w.Step()
	for _, step := range in.steps() {
		if step != current {
			return w, core.NewValidationError(
				errors.Errorf("the %s step cannot edit %s data", current, step),
				core.FieldError{Field: string(step), Error: "not editable from the " + string(current) + " step"},
			)
		}
	}

	d := w.Draft
	switch current {
	case StepPersonal:
		if in.Personal != nil {
			d = d.WithPersonal(*in.Personal)
		}
	case StepGuardian:
		if in.Guardian != nil {
			d = d.WithGuardian(*in.Guardian)
		}
	case StepAcademic:
		if in.Placement != nil {
			d = d.WithPlacement(*in.Placement)
		}
	case StepLogistics:
		if in.Logistics != nil {
			d = d.WithLogistics(*in.Logistics)
		}
	case StepDocuments:
		for name, ref := range in.Documents {
			d = d.WithDocument(name, core.CleanString(ref))
		}
	case StepReview:
		if in.ClearFee {
			d = d.WithFee(nil)
		} else if in.Fee != nil {
			d = d.WithFee(in.Fee)
		}
	}
	w.Draft = d
	w.UpdatedAt = now
	return w, nil
}

// Next validates the current step and moves forward. It stays on the last step.
func (w Wizard) Next(v *Validator, now time.Time) (Wizard, error) {
	if err := v.ValidateStep(w.Step(), w.Draft, w.Policy); err != nil {
		return w, err
	}
	if w.Index() < w.Len() {
		w.index = w.Index() + 1
	}
	w.UpdatedAt = now
	return w, nil
}

// Back moves to the previous step. It stays on the first step.
func (w Wizard) Back(now time.Time) Wizard {
	if w.Index() > 1 {
		w.index = w.Index() - 1
	}
	w.UpdatedAt = now
	return w
}

// ValidateForSubmit checks that the wizard is on its last step and every step of its flow is valid.
func (w Wizard) ValidateForSubmit(v *Validator) error {
	if !w.IsLast() {
		return ErrNotLastStep
	}
	return v.ValidateDraft(w.Flow(), w.Draft, w.Policy)
}
