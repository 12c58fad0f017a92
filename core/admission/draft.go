package admission

import (
	"github.com/shopspring/decimal"

	"github.com/trezcool/campusdesk/core"
	"github.com/trezcool/campusdesk/core/finance"
)

type GuardianMode string

const (
	GuardianLink   GuardianMode = "link"
	GuardianCreate GuardianMode = "create"
)

type (
	Personal struct {
		FirstName      string    `json:"firstName" validate:"required,notblank"`
		LastName       string    `json:"lastName" validate:"required,notblank"`
		Gender         string    `json:"gender" validate:"omitempty,oneof=male female other"`
		DateOfBirth    core.Date `json:"dateOfBirth"`
		Email          string    `json:"email" validate:"omitempty,email"`
		Phone          string    `json:"phone"`
		Address        string    `json:"address"`
		PreviousSchool string    `json:"previousSchool"`
	}

	NewGuardian struct {
		Name       string `json:"name"`
		Relation   string `json:"relation"`
		Phone      string `json:"phone"`
		Email      string `json:"email"`
		Occupation string `json:"occupation"`
		Address    string `json:"address"`
	}

	// Guardian keeps the data of both modes; only Mode's data is validated and submitted.
	Guardian struct {
		Mode     GuardianMode `json:"mode" validate:"required,oneof=link create"`
		ParentID string       `json:"parentId"`
		New      NewGuardian  `json:"new"`
	}

	Placement struct {
		BranchID       string `json:"branchId" validate:"required,entityid"`
		AcademicYearID string `json:"academicYearId" validate:"required"`
		Level          string `json:"level" validate:"required,oneof=school college"`
		ClassID        string `json:"classId"`
		SectionID      string `json:"sectionId"`
		CourseID       string `json:"courseId"`
	}

	Logistics struct {
		Transport        bool   `json:"transport"`
		TransportRouteID string `json:"transportRouteId"`
		Hostel           bool   `json:"hostel"`
		HostelID         string `json:"hostelId"`
	}

	FeeInput struct {
		FeeStructureID string                `json:"feeStructureId" validate:"required"`
		Amount         decimal.Decimal       `json:"amount"`
		Method         finance.PaymentMethod `json:"paymentMethod" validate:"required,oneof=cash card bank_transfer cheque online"`
		Reference      string                `json:"reference"`
	}
)

// Draft is the admission being entered. It is a value: every With method returns a new Draft.
type Draft struct {
	Personal  Personal          `json:"personal"`
	Guardian  Guardian          `json:"guardian"`
	Placement Placement         `json:"academic"`
	Logistics Logistics         `json:"logistics"`
	Documents map[string]string `json:"documents"` // document name: uploaded file reference
	Fee       *FeeInput         `json:"fee"`
}

func (d Draft) clone() Draft {
	docs := make(map[string]string, len(d.Documents))
	for k, v := range d.Documents {
		docs[k] = v
	}
	d.Documents = docs
	if d.Fee != nil {
		fee := *d.Fee
		d.Fee = &fee
	}
	return d
}

func (d Draft) WithPersonal(p Personal) Draft {
	d = d.clone()
	p.FirstName = core.CleanString(p.FirstName)
	p.LastName = core.CleanString(p.LastName)
	p.Email = core.CleanString(p.Email, true /* lower */)
	d.Personal = p
	return d
}

// WithGuardian merges g into the guardian. Empty parts of g keep the previous data,
// so switching mode does not drop what was entered for the other mode.
func (d Draft) WithGuardian(g Guardian) Draft {
	d = d.clone()
	if g.Mode != "" {
		d.Guardian.Mode = g.Mode
	}
	if g.ParentID != "" {
		d.Guardian.ParentID = g.ParentID
	}
	if g.New != (NewGuardian{}) {
		g.New.Name = core.CleanString(g.New.Name)
		g.New.Email = core.CleanString(g.New.Email, true /* lower */)
		d.Guardian.New = g.New
	}
	return d
}

func (d Draft) WithPlacement(p Placement) Draft {
	d = d.clone()
	d.Placement = p
	return d
}

// WithLogistics clears the route or hostel of a section toggled off.
func (d Draft) WithLogistics(l Logistics) Draft {
	d = d.clone()
	if !l.Transport {
		l.TransportRouteID = ""
	}
	if !l.Hostel {
		l.HostelID = ""
	}
	d.Logistics = l
	return d
}

// WithDocument sets the file reference of a document, an empty ref removes it.
func (d Draft) WithDocument(name, ref string) Draft {
	d = d.clone()
	if ref == "" {
		delete(d.Documents, name)
	} else {
		d.Documents[name] = ref
	}
	return d
}

// WithFee sets the fee payment, nil removes it.
func (d Draft) WithFee(fee *FeeInput) Draft {
	d = d.clone()
	if fee == nil {
		d.Fee = nil
	} else {
		f := *fee
		d.Fee = &f
	}
	return d
}
