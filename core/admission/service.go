package admission

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/campusdesk/core"
	"github.com/trezcool/campusdesk/core/finance"
	"github.com/trezcool/campusdesk/core/records"
)

var (
	// errors
	ErrDraftNotFound   = errors.New("admission draft not found")
	ErrDraftSubmitting = errors.New("admission draft is already being submitted")
)

type (
	// DraftRepository keeps the wizards in progress.
	DraftRepository interface {
		SaveWizard(ctx context.Context, w Wizard) error
		GetWizard(ctx context.Context, id string) (Wizard, error)
		// DeleteWizard drops the wizard and its claim.
		DeleteWizard(ctx context.Context, id string) error
		// ClaimWizard marks the wizard as being submitted.
		// It fails with ErrDraftSubmitting when another submission holds the claim.
		ClaimWizard(ctx context.Context, id string) error
		// ReleaseWizard ends the claim of a submission that did not admit the student.
		ReleaseWizard(ctx context.Context, id string) error
		// PurgeWizards drops the wizards not updated since before and returns how many were removed.
		PurgeWizards(ctx context.Context, before time.Time) (int, error)
	}

	AdmitRequest struct {
		Student   records.Student   `json:"student"`
		ParentID  string            `json:"parentId,omitempty"`
		Guardian  *NewGuardian      `json:"guardian,omitempty"`
		Documents map[string]string `json:"documents,omitempty"`
		Late      bool              `json:"lateAdmission"`
	}

	// Admissions is the backend side of a submission.
	Admissions interface {
		Admit(ctx context.Context, req AdmitRequest) (records.Student, error)
		RecordPayment(ctx context.Context, payment finance.FeePayment) (finance.FeePayment, error)
	}

	// TaxSource returns the taxes configured for a scope.
	TaxSource interface {
		Taxes(ctx context.Context, scope core.Scope) ([]finance.Tax, error)
	}

	// Outcome is the result of a submission. The student is always admitted;
	// Payment is nil when no fee was recorded, PaymentErr is set when recording it failed.
	Outcome struct {
		Student    records.Student     `json:"student"`
		Payment    *finance.FeePayment `json:"payment"`
		PaymentErr error               `json:"-"`
		Late       bool                `json:"late"`
	}

	// BlockedError is returned when the admission policy refuses intake.
	BlockedError struct {
		Verdict Verdict
	}
)

func (e *BlockedError) Error() string {
	return e.Verdict.Reason
}

// Partial reports whether the student was admitted but the fee payment failed.
func (o Outcome) Partial() bool {
	return o.PaymentErr != nil
}

type Service struct {
	drafts    DraftRepository
	policies  *PolicyService
	backend   Admissions
	taxes     TaxSource
	validator *Validator
	mailer    core.EmailService
	conf      *core.Config
	logger    core.Logger
	now       func() time.Time
}

func NewService(
	drafts DraftRepository,
	policies *PolicyService,
	backend Admissions,
	taxes TaxSource,
	validator *Validator,
	mailer core.EmailService,
	conf *core.Config,
	logger core.Logger,
) *Service {
	return &Service{
		drafts:    drafts,
		policies:  policies,
		backend:   backend,
		taxes:     taxes,
		validator: validator,
		mailer:    mailer,
		conf:      conf,
		logger:    logger,
		now:       time.Now,
	}
}

func (svc *Service) checkPolicy(ctx context.Context, academicYearID string) (Verdict, *Policy, error) {
	verdict, policy, err := svc.policies.Check(ctx, academicYearID)
	if err != nil {
		return verdict, nil, errors.Wrap(err, "checking admission policy")
	}
	if verdict.Blocked {
		return verdict, nil, &BlockedError{Verdict: verdict}
	}
	return verdict, policy, nil
}

// Start opens a wizard for owner. The policy of academicYearID gates it.
func (svc *Service) Start(ctx context.Context, scope core.Scope, owner, academicYearID string) (Wizard, error) {
	verdict, policy, err := svc.checkPolicy(ctx, academicYearID)
	if err != nil {
		return Wizard{}, err
	}
	w := NewWizard(uuid.NewString(), owner, scope, policy, svc.now().UTC())
	w.Late = verdict.Late
	if academicYearID != "" {
		w.Draft.Placement.BranchID = scope.BranchID
		w.Draft.Placement.AcademicYearID = academicYearID
	}
	if err := svc.drafts.SaveWizard(ctx, w); err != nil {
		return Wizard{}, errors.Wrap(err, "saving admission draft")
	}
	return w, nil
}

// Get returns the wizard of owner. Wizards of other users are reported as not found.
func (svc *Service) Get(ctx context.Context, id, owner string) (Wizard, error) {
	w, err := svc.drafts.GetWizard(ctx, id)
	if err != nil {
		return Wizard{}, err
	}
	if w.Owner != owner {
		return Wizard{}, ErrDraftNotFound
	}
	return w, nil
}

func (svc *Service) save(ctx context.Context, w Wizard) (Wizard, error) {
	if err := svc.drafts.SaveWizard(ctx, w); err != nil {
		return Wizard{}, errors.Wrap(err, "saving admission draft")
	}
	return w, nil
}

// Apply edits the current step of the wizard.
// Choosing another academic year re-checks the admission policy.
func (svc *Service) Apply(ctx context.Context, id, owner string, in StepInput) (Wizard, error) {
	w, err := svc.Get(ctx, id, owner)
	if err != nil {
		return Wizard{}, err
	}
	prevYear := w.Draft.Placement.AcademicYearID

	w, err = w.Apply(in, svc.now().UTC())
	if err != nil {
		return Wizard{}, err
	}
	if year := w.Draft.Placement.AcademicYearID; year != prevYear {
		verdict, policy, err := svc.checkPolicy(ctx, year)
		if err != nil {
			return Wizard{}, err
		}
		w.Policy = policy
		w.Late = verdict.Late
	}
	return svc.save(ctx, w)
}

// Next validates the current step and moves the wizard forward.
func (svc *Service) Next(ctx context.Context, id, owner string) (Wizard, error) {
	w, err := svc.Get(ctx, id, owner)
	if err != nil {
		return Wizard{}, err
	}
	if w, err = w.Next(svc.validator, svc.now().UTC()); err != nil {
		return Wizard{}, err
	}
	return svc.save(ctx, w)
}

func (svc *Service) Back(ctx context.Context, id, owner string) (Wizard, error) {
	w, err := svc.Get(ctx, id, owner)
	if err != nil {
		return Wizard{}, err
	}
	return svc.save(ctx, w.Back(svc.now().UTC()))
}

// Discard drops the wizard of owner.
func (svc *Service) Discard(ctx context.Context, id, owner string) error {
	if _, err := svc.Get(ctx, id, owner); err != nil {
		return err
	}
	return svc.drafts.DeleteWizard(ctx, id)
}

// Submit admits the student of the wizard, then records the admission fee when one was entered.
// The draft is claimed for the whole submission: a concurrent Submit of the same wizard fails
// with ErrDraftSubmitting.
// A failed payment does not undo the admission: the Outcome carries the error,
// which is logged and reported to the finance office.
func (svc *Service) Submit(ctx context.Context, id, owner string) (Outcome, error) {
	w, err := svc.Get(ctx, id, owner)
	if err != nil {
		return Outcome{}, err
	}
	if err := svc.drafts.ClaimWizard(ctx, w.ID); err != nil {
		return Outcome{}, err
	}
	admitted := false
	defer func() {
		if admitted {
			return
		}
		if err := svc.drafts.ReleaseWizard(context.WithoutCancel(ctx), w.ID); err != nil {
			svc.logger.Warn(errors.Wrapf(err, "releasing admission draft %s", w.ID).Error(), err)
		}
	}()

	if err := w.ValidateForSubmit(svc.validator); err != nil {
		return Outcome{}, err
	}
	d := w.Draft

	verdict, policy, err := svc.checkPolicy(ctx, d.Placement.AcademicYearID)
	if err != nil {
		return Outcome{}, err
	}
	if err := svc.validator.ValidateDraft(w.Flow(), d, policy); err != nil {
		return Outcome{}, err // the policy may have changed since the wizard started
	}

	var payment *finance.FeePayment
	if d.Fee != nil {
		taxes, err := svc.taxes.Taxes(ctx, w.Scope)
		if err != nil {
			return Outcome{}, err
		}
		quote := finance.ComputeTotal(d.Fee.Amount, finance.Applicable(taxes, finance.AdmissionContexts...))
		payment = &finance.FeePayment{
			FeeStructureID: d.Fee.FeeStructureID,
			Amount:         quote.Base,
			TaxAmount:      quote.TaxAmount,
			Total:          quote.Total,
			Taxes:          quote.Breakdown,
			Method:         d.Fee.Method,
			Reference:      d.Fee.Reference,
			PaidOn:         core.DateOf(svc.policies.Today()),
		}
	}

	student, err := svc.backend.Admit(ctx, svc.admitRequest(w, verdict.Late))
	if err != nil {
		return Outcome{}, errors.Wrap(err, "admitting student")
	}
	admitted = true
	out := Outcome{Student: student, Late: verdict.Late}

	// the student exists from here on: finish even when the caller is gone
	ctx = context.WithoutCancel(ctx)
	if err := svc.drafts.DeleteWizard(ctx, w.ID); err != nil {
		svc.logger.Warn(errors.Wrapf(err, "deleting admission draft %s", w.ID).Error(), err)
	}

	if payment != nil {
		payment.StudentID = student.ID
		paid, err := svc.backend.RecordPayment(ctx, *payment)
		if err != nil {
			out.PaymentErr = err
			svc.reportPaymentFailure(student, *payment, err)
		} else {
			out.Payment = &paid
		}
	}
	return out, nil
}

func (svc *Service) admitRequest(w Wizard, late bool) AdmitRequest {
	d := w.Draft
	p := d.Personal
	student := records.Student{
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		Gender:         p.Gender,
		DateOfBirth:    p.DateOfBirth,
		Email:          p.Email,
		Phone:          p.Phone,
		Address:        p.Address,
		BranchID:       d.Placement.BranchID,
		AcademicYearID: d.Placement.AcademicYearID,
		AdmissionDate:  core.DateOf(svc.policies.Today()),
	}
	switch d.Placement.Level {
	case "school":
		student.ClassID = d.Placement.ClassID
		student.SectionID = d.Placement.SectionID
	case "college":
		student.CourseID = d.Placement.CourseID
	}
	if d.Logistics.Transport {
		student.TransportRouteID = d.Logistics.TransportRouteID
	}
	if d.Logistics.Hostel {
		student.HostelID = d.Logistics.HostelID
	}

	req := AdmitRequest{Student: student, Late: late}
	switch d.Guardian.Mode {
	case GuardianLink:
		req.ParentID = d.Guardian.ParentID
	case GuardianCreate:
		g := d.Guardian.New
		req.Guardian = &g
	}
	if len(d.Documents) > 0 {
		req.Documents = make(map[string]string, len(d.Documents))
		for name, ref := range d.Documents {
			req.Documents[name] = ref
		}
	}
	return req
}

func (svc *Service) reportPaymentFailure(student records.Student, payment finance.FeePayment, err error) {
	svc.logger.Error(
		errors.Wrapf(err, "recording admission fee of student %s", student.ID).Error(),
		err,
		map[string]interface{}{
			"student_id":       student.ID,
			"fee_structure_id": payment.FeeStructureID,
			"total":            payment.Total.StringFixed(2),
		},
	)
	if svc.mailer == nil || svc.conf.Finance.NotifyEmail == "" {
		return
	}
	msg := &core.EmailMessage{
		To:           []mail.Address{{Address: svc.conf.Finance.NotifyEmail}},
		Subject:      fmt.Sprintf("Admission fee not recorded for %s", student.FullName()),
		TemplateName: "payment_failed",
		TemplateData: map[string]interface{}{
			"StudentName":    student.FullName(),
			"StudentID":      student.ID,
			"FeeStructureID": payment.FeeStructureID,
			"Total":          payment.Total.StringFixed(2),
			"Method":         payment.Method,
			"Reference":      payment.Reference,
			"Error":          err.Error(),
		},
	}
	// the payment as it was sent, for manual entry
	if data, jerr := json.MarshalIndent(payment, "", "  "); jerr == nil {
		if jerr = msg.Attach(bytes.NewReader(data), "payment-"+student.ID+".json", "application/json"); jerr != nil {
			svc.logger.Warn(errors.Wrap(jerr, "attaching fee payment").Error(), jerr)
		}
	}
	svc.mailer.SendMessages(msg)
}

// Sweep drops the drafts idle for longer than the configured TTL.
func (svc *Service) Sweep(ctx context.Context) (int, error) {
	n, err := svc.drafts.PurgeWizards(ctx, svc.now().UTC().Add(-svc.conf.Admission.DraftTTL))
	if err != nil {
		return 0, errors.Wrap(err, "purging admission drafts")
	}
	return n, nil
}
