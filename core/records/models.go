package records

import (
	"github.com/shopspring/decimal"

	"github.com/trezcool/campusdesk/core"
)

type Student struct {
	ID               string    `json:"id"`
	AdmissionNumber  string    `json:"admissionNumber,omitempty"`
	FirstName        string    `json:"firstName"`
	LastName         string    `json:"lastName"`
	Gender           string    `json:"gender,omitempty"`
	DateOfBirth      core.Date `json:"dateOfBirth,omitempty"`
	Email            string    `json:"email,omitempty"`
	Phone            string    `json:"phone,omitempty"`
	Address          string    `json:"address,omitempty"`
	BranchID         string    `json:"branchId"`
	AcademicYearID   string    `json:"academicYearId,omitempty"`
	ClassID          string    `json:"classId,omitempty"`
	SectionID        string    `json:"sectionId,omitempty"`
	CourseID         string    `json:"courseId,omitempty"`
	ParentID         string    `json:"parentId,omitempty"`
	TransportRouteID string    `json:"transportRouteId,omitempty"`
	HostelID         string    `json:"hostelId,omitempty"`
	Status           string    `json:"status,omitempty"`
	AdmissionDate    core.Date `json:"admissionDate,omitempty"`
}

func (s Student) Key() string { return s.ID }

func (s Student) FullName() string {
	return core.CleanString(s.FirstName + " " + s.LastName)
}

type Teacher struct {
	ID             string          `json:"id"`
	EmployeeNumber string          `json:"employeeNumber,omitempty"`
	FirstName      string          `json:"firstName"`
	LastName       string          `json:"lastName"`
	Email          string          `json:"email,omitempty"`
	Phone          string          `json:"phone,omitempty"`
	BranchID       string          `json:"branchId"`
	Qualification  string          `json:"qualification,omitempty"`
	SubjectIDs     []string        `json:"subjectIds,omitempty"`
	Salary         decimal.Decimal `json:"salary"`
	JoiningDate    core.Date       `json:"joiningDate,omitempty"`
	Status         string          `json:"status,omitempty"`
}

func (t Teacher) Key() string { return t.ID }

type Employee struct {
	ID             string          `json:"id"`
	EmployeeNumber string          `json:"employeeNumber,omitempty"`
	Name           string          `json:"name"`
	Email          string          `json:"email,omitempty"`
	Phone          string          `json:"phone,omitempty"`
	BranchID       string          `json:"branchId"`
	Department     string          `json:"department,omitempty"`
	Designation    string          `json:"designation,omitempty"`
	Salary         decimal.Decimal `json:"salary"`
	JoiningDate    core.Date       `json:"joiningDate,omitempty"`
	Status         string          `json:"status,omitempty"`
}

func (e Employee) Key() string { return e.ID }

type Parent struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Email      string   `json:"email,omitempty"`
	Phone      string   `json:"phone,omitempty"`
	Relation   string   `json:"relation,omitempty"`
	Occupation string   `json:"occupation,omitempty"`
	Address    string   `json:"address,omitempty"`
	BranchID   string   `json:"branchId,omitempty"`
	StudentIDs []string `json:"studentIds,omitempty"`
}

func (p Parent) Key() string { return p.ID }

type Asset struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Category      string          `json:"category,omitempty"`
	SerialNumber  string          `json:"serialNumber,omitempty"`
	BranchID      string          `json:"branchId"`
	Location      string          `json:"location,omitempty"`
	PurchaseDate  core.Date       `json:"purchaseDate,omitempty"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	Condition     string          `json:"condition,omitempty"`
	AssignedTo    string          `json:"assignedTo,omitempty"`
}

func (a Asset) Key() string { return a.ID }

type Vehicle struct {
	ID                 string    `json:"id"`
	RegistrationNumber string    `json:"registrationNumber"`
	Model              string    `json:"model,omitempty"`
	Capacity           int       `json:"capacity,omitempty"`
	BranchID           string    `json:"branchId"`
	RouteID            string    `json:"routeId,omitempty"`
	DriverID           string    `json:"driverId,omitempty"`
	InsuranceExpiry    core.Date `json:"insuranceExpiry,omitempty"`
	Status             string    `json:"status,omitempty"`
}

func (v Vehicle) Key() string { return v.ID }

type Driver struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Phone         string    `json:"phone,omitempty"`
	LicenseNumber string    `json:"licenseNumber"`
	LicenseExpiry core.Date `json:"licenseExpiry,omitempty"`
	BranchID      string    `json:"branchId"`
	VehicleID     string    `json:"vehicleId,omitempty"`
	Status        string    `json:"status,omitempty"`
}

func (d Driver) Key() string { return d.ID }

type Expense struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Category    string          `json:"category,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	TaxAmount   decimal.Decimal `json:"taxAmount"`
	Date        core.Date       `json:"date"`
	BranchID    string          `json:"branchId"`
	PaidTo      string          `json:"paidTo,omitempty"`
	Method      string          `json:"paymentMethod,omitempty"`
	Description string          `json:"description,omitempty"`
	Status      string          `json:"status,omitempty"`
}

func (e Expense) Key() string { return e.ID }

type Ticket struct {
	ID          string    `json:"id"`
	Subject     string    `json:"subject"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	Priority    string    `json:"priority,omitempty"`
	Status      string    `json:"status,omitempty"`
	RaisedBy    string    `json:"raisedBy,omitempty"`
	AssignedTo  string    `json:"assignedTo,omitempty"`
	BranchID    string    `json:"branchId"`
	CreatedOn   core.Date `json:"createdOn,omitempty"`
}

func (t Ticket) Key() string { return t.ID }

type Notice struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Audience    []string  `json:"audience,omitempty"`
	BranchID    string    `json:"branchId"`
	PublishDate core.Date `json:"publishDate,omitempty"`
	ExpiryDate  core.Date `json:"expiryDate,omitempty"`
	IsPinned    bool      `json:"isPinned"`
}

func (n Notice) Key() string { return n.ID }

type Payroll struct {
	ID          string          `json:"id"`
	EmployeeID  string          `json:"employeeId"`
	BranchID    string          `json:"branchId"`
	Month       int             `json:"month"`
	Year        int             `json:"year"`
	BasicSalary decimal.Decimal `json:"basicSalary"`
	Allowances  decimal.Decimal `json:"allowances"`
	Deductions  decimal.Decimal `json:"deductions"`
	NetSalary   decimal.Decimal `json:"netSalary"`
	Status      string          `json:"status,omitempty"`
	PaidOn      core.Date       `json:"paidOn,omitempty"`
}

func (p Payroll) Key() string { return p.ID }
