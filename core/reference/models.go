package reference

import (
	"github.com/shopspring/decimal"

	"github.com/trezcool/campusdesk/core/finance"
)

const (
	YearActive   = "active"
	YearInactive = "inactive"

	LevelSchool  = "school"
	LevelCollege = "college"
)

type Branch struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

func (b Branch) Key() string { return b.ID }

type AcademicYear struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	BranchID string `json:"branchId"`
}

func (y AcademicYear) Key() string { return y.ID }

type Class struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	BranchID       string `json:"branchId"`
	AcademicYearID string `json:"academicYearId,omitempty"`
	Level          string `json:"level,omitempty"`
}

func (c Class) Key() string { return c.ID }

type Section struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ClassID  string `json:"classId"`
	Capacity int    `json:"capacity,omitempty"`
}

func (s Section) Key() string { return s.ID }

type Course struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Code           string `json:"code,omitempty"`
	BranchID       string `json:"branchId"`
	DurationMonths int    `json:"durationMonths,omitempty"`
}

func (c Course) Key() string { return c.ID }

type Subject struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Code    string `json:"code,omitempty"`
	ClassID string `json:"classId,omitempty"`
}

func (s Subject) Key() string { return s.ID }

type TransportRoute struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Fare     decimal.Decimal `json:"fare"`
	BranchID string          `json:"branchId,omitempty"`
}

func (r TransportRoute) Key() string { return r.ID }

type Hostel struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Fee      decimal.Decimal `json:"fee"`
	Capacity int             `json:"capacity,omitempty"`
	BranchID string          `json:"branchId,omitempty"`
}

func (h Hostel) Key() string { return h.ID }

// Bundle is the whole reference data of a scope, as persisted and served.
type Bundle struct {
	AcademicYearID  string                 `json:"academicYearId"`
	Branches        []Branch               `json:"branches"`
	AcademicYears   []AcademicYear         `json:"academicYears"`
	Classes         []Class                `json:"classes"`
	Sections        []Section              `json:"sections"`
	Courses         []Course               `json:"courses"`
	Subjects        []Subject              `json:"subjects"`
	FeeStructures   []finance.FeeStructure `json:"feeStructures"`
	Taxes           []finance.Tax          `json:"taxes"`
	TransportRoutes []TransportRoute       `json:"transportRoutes"`
	Hostels         []Hostel               `json:"hostels"`
}

// DefaultYear returns the first active academic year of the branch.
func DefaultYear(years []AcademicYear, branchID string) (AcademicYear, bool) {
	for _, y := range years {
		if y.Status == YearActive && (branchID == "" || y.BranchID == branchID) {
			return y, true
		}
	}
	return AcademicYear{}, false
}
