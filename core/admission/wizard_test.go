package admission

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campusdesk/core"
	"github.com/trezcool/campusdesk/core/finance"
)

const branchID = "65a1b2c3d4e5f60718293a4b"

var (
	t0           = time.Date(2024, time.January, 10, 9, 0, 0, 0, time.UTC)
	adminScope   = core.Scope{Portal: core.PortalAdmin, BranchID: branchID}
	staffScope   = core.Scope{Portal: core.PortalStaff, BranchID: branchID}
	testValidate *Validator
)

func init() {
	validate, translator := core.NewValidator()
	InitValidators(validate, translator)
	testValidate = NewValidator(validate, translator)
}

func fieldMap(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *core.ValidationError
	require.True(t, errors.As(err, &verr), "expected a validation error, got %v", err)
	return verr.FieldMap()
}

func validPersonal() Personal {
	return Personal{FirstName: "Amani", LastName: "Kabila", Gender: "female"}
}

func validPlacement() Placement {
	return Placement{BranchID: branchID, AcademicYearID: "2024", Level: "school", ClassID: "c1", SectionID: "s1"}
}

// complete fills every step of w and leaves it on its last step.
func complete(t *testing.T, w Wizard) Wizard {
	t.Helper()
	var err error
	inputs := map[Step]StepInput{
		StepPersonal:  {Personal: &Personal{FirstName: "Amani", LastName: "Kabila"}},
		StepGuardian:  {Guardian: &Guardian{Mode: GuardianLink, ParentID: "p1"}},
		StepAcademic:  {Placement: &Placement{BranchID: branchID, AcademicYearID: "2024", Level: "school", ClassID: "c1", SectionID: "s1"}},
		StepLogistics: {Logistics: &Logistics{}},
		StepDocuments: {Documents: map[string]string{"birth_certificate": "upload://bc.pdf"}},
		StepReview:    {},
	}
	for !w.IsLast() {
		w, err = w.Apply(inputs[w.Step()], t0)
		require.NoError(t, err)
		w, err = w.Next(testValidate, t0)
		require.NoError(t, err, "step %s", w.Step())
	}
	return w
}

func TestFlowFor(t *testing.T) {
	assert.Len(t, FlowFor(core.PortalAdmin), 6)
	assert.Len(t, FlowFor(core.PortalStaff), 5)
	assert.NotContains(t, FlowFor(core.PortalStaff), StepDocuments)
	assert.Equal(t, StepReview, FlowFor(core.PortalStaff)[4])
}

func TestWizard_navigation(t *testing.T) {
	w := NewWizard("w1", "u1", adminScope, nil, t0)
	assert.Equal(t, 1, w.Index())
	assert.Equal(t, StepPersonal, w.Step())

	// back is clamped at the first step
	w = w.Back(t0)
	assert.Equal(t, 1, w.Index())

	w = complete(t, w)
	assert.Equal(t, 6, w.Index())
	assert.True(t, w.IsLast())

	// next is clamped at the last step
	w, err := w.Next(testValidate, t0)
	require.NoError(t, err)
	assert.Equal(t, 6, w.Index())

	w = w.Back(t0)
	assert.Equal(t, 5, w.Index())
	assert.Equal(t, StepDocuments, w.Step())
}

func TestWizard_isAValue(t *testing.T) {
	w := NewWizard("w1", "u1", adminScope, nil, t0)
	p := validPersonal()

	w2, err := w.Apply(StepInput{Personal: &p}, t0.Add(time.Minute))
	require.NoError(t, err)
	w3, err := w2.Next(testValidate, t0.Add(time.Minute))
	require.NoError(t, err)

	assert.Empty(t, w.Draft.Personal.FirstName)
	assert.Equal(t, "Amani", w2.Draft.Personal.FirstName)
	assert.Equal(t, 1, w2.Index())
	assert.Equal(t, 2, w3.Index())
	assert.Equal(t, t0, w.UpdatedAt)
}

func TestWizard_Apply_rejectsOtherSteps(t *testing.T) {
	w := NewWizard("w1", "u1", adminScope, nil, t0)
	pl := validPlacement()

	_, err := w.Apply(StepInput{Placement: &pl}, t0)
	fields := fieldMap(t, err)
	assert.Contains(t, fields, "academic")

	p := validPersonal()
	_, err = w.Apply(StepInput{Personal: &p, Logistics: &Logistics{}}, t0)
	assert.Contains(t, fieldMap(t, err), "logistics")
}

func TestWizard_Next_validatesCurrentStepOnly(t *testing.T) {
	w := NewWizard("w1", "u1", adminScope, nil, t0)

	_, err := w.Next(testValidate, t0)
	fields := fieldMap(t, err)
	assert.Equal(t, "this field is required", fields["personal.firstName"])
	assert.Contains(t, fields, "personal.lastName")
	for field := range fields {
		assert.Contains(t, field, "personal.")
	}

	blank := Personal{FirstName: "   ", LastName: "Kabila"}
	w, err = w.Apply(StepInput{Personal: &blank}, t0)
	require.NoError(t, err)
	next, err := w.Next(testValidate, t0)
	assert.Error(t, err)
	assert.Equal(t, 1, next.Index())
}

func TestWizard_guardian(t *testing.T) {
	tests := []struct {
		name     string
		inputs   []Guardian
		wantErrs []string
	}{
		{name: "no mode", inputs: []Guardian{{}}, wantErrs: []string{"guardian.mode"}},
		{name: "link without parent", inputs: []Guardian{{Mode: GuardianLink}}, wantErrs: []string{"guardian.parentId"}},
		{name: "link", inputs: []Guardian{{Mode: GuardianLink, ParentID: "p1"}}},
		{
			name:     "create without fields",
			inputs:   []Guardian{{Mode: GuardianCreate}},
			wantErrs: []string{"guardian.new.name", "guardian.new.phone"},
		},
		{
			name:     "create with bad email",
			inputs:   []Guardian{{Mode: GuardianCreate, New: NewGuardian{Name: "Jo", Phone: "1", Email: "nope"}}},
			wantErrs: []string{"guardian.new.email"},
		},
		{
			name: "switching modes keeps the other data",
			inputs: []Guardian{
				{Mode: GuardianCreate, New: NewGuardian{Name: "Jo", Phone: "1"}},
				{Mode: GuardianLink},
				{Mode: GuardianCreate},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := NewWizard("w1", "u1", adminScope, nil, t0)
			p := validPersonal()
			w, _ = w.Apply(StepInput{Personal: &p}, t0)
			w, err := w.Next(testValidate, t0)
			require.NoError(t, err)

			for _, g := range tc.inputs {
				g := g
				w, err = w.Apply(StepInput{Guardian: &g}, t0)
				require.NoError(t, err)
			}
			_, err = w.Next(testValidate, t0)
			if len(tc.wantErrs) == 0 {
				assert.NoError(t, err)
				return
			}
			fields := fieldMap(t, err)
			for _, f := range tc.wantErrs {
				assert.Contains(t, fields, f)
			}
		})
	}
}

func TestValidator_placement(t *testing.T) {
	tests := []struct {
		name      string
		placement Placement
		wantErrs  []string
	}{
		{name: "school", placement: validPlacement()},
		{name: "college", placement: Placement{BranchID: branchID, AcademicYearID: "2024", Level: "college", CourseID: "bsc"}},
		{
			name:      "uuid branch",
			placement: Placement{BranchID: "3f1c2a8e-9b7d-4e6f-8a5c-1d2e3f4a5b6c", AcademicYearID: "2024", Level: "college", CourseID: "bsc"},
		},
		{name: "missing branch", placement: Placement{AcademicYearID: "2024", Level: "college", CourseID: "bsc"}, wantErrs: []string{"academic.branchId"}},
		{name: "malformed branch", placement: Placement{BranchID: "main", AcademicYearID: "2024", Level: "college", CourseID: "bsc"}, wantErrs: []string{"academic.branchId"}},
		{name: "missing year", placement: Placement{BranchID: branchID, Level: "college", CourseID: "bsc"}, wantErrs: []string{"academic.academicYearId"}},
		{name: "school without class", placement: Placement{BranchID: branchID, AcademicYearID: "2024", Level: "school"}, wantErrs: []string{"academic.classId", "academic.sectionId"}},
		{name: "college without course", placement: Placement{BranchID: branchID, AcademicYearID: "2024", Level: "college", ClassID: "c1"}, wantErrs: []string{"academic.courseId"}},
		{name: "unknown level", placement: Placement{BranchID: branchID, AcademicYearID: "2024", Level: "nursery"}, wantErrs: []string{"academic.level"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := testValidate.ValidateStep(StepAcademic, Draft{Placement: tc.placement}, nil)
			if len(tc.wantErrs) == 0 {
				assert.NoError(t, err)
				return
			}
			fields := fieldMap(t, err)
			assert.Len(t, fields, len(tc.wantErrs))
			for _, f := range tc.wantErrs {
				assert.Contains(t, fields, f)
			}
		})
	}
}

func TestDraft_WithLogistics_clearsToggledOff(t *testing.T) {
	d := Draft{}.WithLogistics(Logistics{Transport: true, TransportRouteID: "r1", Hostel: true, HostelID: "h1"})
	assert.Equal(t, "r1", d.Logistics.TransportRouteID)

	d2 := d.WithLogistics(Logistics{Transport: false, TransportRouteID: "r1", Hostel: true, HostelID: "h1"})
	assert.Empty(t, d2.Logistics.TransportRouteID)
	assert.Equal(t, "h1", d2.Logistics.HostelID)
	assert.Equal(t, "r1", d.Logistics.TransportRouteID)

	err := testValidate.ValidateStep(StepLogistics, Draft{Logistics: Logistics{Hostel: true}}, nil)
	assert.Contains(t, fieldMap(t, err), "logistics.hostelId")
}

func TestValidator_documents(t *testing.T) {
	policy := &Policy{Workflow: Workflow{RequireDocs: true, RequiredDocuments: []string{"birth_certificate", "photo"}}}
	d := Draft{Documents: map[string]string{}}.WithDocument("photo", "upload://photo.jpg")

	err := testValidate.ValidateStep(StepDocuments, d, policy)
	fields := fieldMap(t, err)
	assert.Equal(t, map[string]string{"documents.birth_certificate": "this document is required"}, fields)

	// documents are optional unless the workflow requires them
	policy.Workflow.RequireDocs = false
	assert.NoError(t, testValidate.ValidateStep(StepDocuments, d, policy))

	assert.NotContains(t, d.WithDocument("photo", "").Documents, "photo")
	assert.Contains(t, d.Documents, "photo")
}

func TestValidator_fee(t *testing.T) {
	requireFee := &Policy{Workflow: Workflow{RequireFee: true}}

	err := testValidate.ValidateStep(StepReview, Draft{}, requireFee)
	assert.Contains(t, fieldMap(t, err), "fee")
	assert.NoError(t, testValidate.ValidateStep(StepReview, Draft{}, nil))

	fee := &FeeInput{FeeStructureID: "fs1", Amount: decimal.Zero, Method: finance.MethodCash}
	err = testValidate.ValidateStep(StepReview, Draft{}.WithFee(fee), requireFee)
	assert.Equal(t, "amount must be greater than zero", fieldMap(t, err)["fee.amount"])

	fee = &FeeInput{FeeStructureID: "fs1", Amount: decimal.NewFromInt(45000), Method: "barter"}
	err = testValidate.ValidateStep(StepReview, Draft{}.WithFee(fee), requireFee)
	assert.Contains(t, fieldMap(t, err), "fee.paymentMethod")

	fee.Method = finance.MethodBank
	assert.NoError(t, testValidate.ValidateStep(StepReview, Draft{}.WithFee(fee), requireFee))
}

func TestWizard_ValidateForSubmit(t *testing.T) {
	w := NewWizard("w1", "u1", staffScope, nil, t0)
	assert.Equal(t, ErrNotLastStep, w.ValidateForSubmit(testValidate))

	w = complete(t, w)
	assert.Equal(t, 5, w.Index())
	require.NoError(t, w.ValidateForSubmit(testValidate))

	// an earlier step made invalid after the fact is caught at submit
	w.Draft.Placement.SectionID = ""
	assert.Contains(t, fieldMap(t, w.ValidateForSubmit(testValidate)), "academic.sectionId")
}
