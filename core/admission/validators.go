package admission

import (
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/campusdesk/core"
)

var (
	requiredTag = "required"

	positiveTag  = "positive"
	positiveText = "{0} must be greater than zero"

	documentTag  = "document"
	documentText = "this document is required"

	feeRequiredTag  = "feerequired"
	feeRequiredText = "the admission fee must be recorded"
)

// InitValidators registers the admission struct validations and their texts.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(guardianStructValidation, Guardian{})
	validate.RegisterStructValidation(placementStructValidation, Placement{})
	validate.RegisterStructValidation(logisticsStructValidation, Logistics{})
	validate.RegisterStructValidation(feeStructValidation, FeeInput{})

	core.RegisterCustomTranslation(validate, translator, positiveTag, positiveText)
	core.RegisterCustomTranslation(validate, translator, documentTag, documentText)
	core.RegisterCustomTranslation(validate, translator, feeRequiredTag, feeRequiredText)
}

// guardianStructValidation requires the data of the active mode only.
func guardianStructValidation(sl validator.StructLevel) {
	g := sl.Current().Interface().(Guardian)
	switch g.Mode {
	case GuardianLink:
		if strings.TrimSpace(g.ParentID) == "" {
			sl.ReportError(g.ParentID, "parentId", "ParentID", requiredTag, "")
		}
	case GuardianCreate:
		if strings.TrimSpace(g.New.Name) == "" {
			sl.ReportError(g.New.Name, "new.name", "Name", requiredTag, "")
		}
		if strings.TrimSpace(g.New.Phone) == "" {
			sl.ReportError(g.New.Phone, "new.phone", "Phone", requiredTag, "")
		}
		if g.New.Email != "" {
			if err := sl.Validator().Var(g.New.Email, "email"); err != nil {
				sl.ReportError(g.New.Email, "new.email", "Email", "email", "")
			}
		}
	}
}

// placementStructValidation requires class and section for school level, course for college level.
func placementStructValidation(sl validator.StructLevel) {
	p := sl.Current().Interface().(Placement)
	switch p.Level {
	case "school":
		if p.ClassID == "" {
			sl.ReportError(p.ClassID, "classId", "ClassID", requiredTag, "")
		}
		if p.SectionID == "" {
			sl.ReportError(p.SectionID, "sectionId", "SectionID", requiredTag, "")
		}
	case "college":
		if p.CourseID == "" {
			sl.ReportError(p.CourseID, "courseId", "CourseID", requiredTag, "")
		}
	}
}

func logisticsStructValidation(sl validator.StructLevel) {
	l := sl.Current().Interface().(Logistics)
	if l.Transport && l.TransportRouteID == "" {
		sl.ReportError(l.TransportRouteID, "transportRouteId", "TransportRouteID", requiredTag, "")
	}
	if l.Hostel && l.HostelID == "" {
		sl.ReportError(l.HostelID, "hostelId", "HostelID", requiredTag, "")
	}
}

func feeStructValidation(sl validator.StructLevel) {
	f := sl.Current().Interface().(FeeInput)
	if !f.Amount.IsPositive() {
		sl.ReportError(f.Amount, "amount", "Amount", positiveTag, "")
	}
}

// Validator runs the step-local checks of the intake form.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func NewValidator(validate *validator.Validate, translator ut.Translator) *Validator {
	return &Validator{validate: validate, translator: translator}
}

func (v *Validator) check(prefix string, s interface{}) []core.FieldError {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := errors.Cause(err).(validator.ValidationErrors)
	if !ok {
		return []core.FieldError{{Field: prefix, Error: err.Error()}}
	}
	fields := make([]core.FieldError, 0, len(verrs))
	for _, verr := range verrs {
		fields = append(fields, core.FieldError{
			Field: prefix + "." + verr.Field(),
			Error: verr.Translate(v.translator),
		})
	}
	return fields
}

func (v *Validator) stepFields(step Step, d Draft, policy *Policy) []core.FieldError {
	switch step {
	case StepPersonal:
		return v.check("personal", d.Personal)
	case StepGuardian:
		return v.check("guardian", d.Guardian)
	case StepAcademic:
		return v.check("academic", d.Placement)
	case StepLogistics:
		return v.check("logistics", d.Logistics)
	case StepDocuments:
		fields := make([]core.FieldError, 0)
		for _, name := range policy.RequiredDocuments() {
			if strings.TrimSpace(d.Documents[name]) == "" {
				fields = append(fields, core.FieldError{Field: "documents." + name, Error: v.text(documentTag, documentText)})
			}
		}
		return fields
	case StepReview:
		if d.Fee == nil {
			if policy.RequiresFee() {
				return []core.FieldError{{Field: "fee", Error: v.text(feeRequiredTag, feeRequiredText)}}
			}
			return nil
		}
		return v.check("fee", *d.Fee)
	}
	return nil
}

func (v *Validator) text(tag, fallback string) string {
	if s, err := v.translator.T(tag, ""); err == nil && s != "" {
		return s
	}
	return fallback
}

// ValidateStep checks the draft slice bound to step.
func (v *Validator) ValidateStep(step Step, d Draft, policy *Policy) error {
	if fields := v.stepFields(step, d, policy); len(fields) > 0 {
		return core.NewValidationError(errors.Errorf("%s step is invalid", step), fields...)
	}
	return nil
}

// ValidateDraft checks every step of flow.
func (v *Validator) ValidateDraft(flow []Step, d Draft, policy *Policy) error {
	fields := make([]core.FieldError, 0)
	for _, step := range flow {
		fields = append(fields, v.stepFields(step, d, policy)...)
	}
	if len(fields) > 0 {
		return core.NewValidationError(errors.New("the admission is incomplete"), fields...)
	}
	return nil
}
