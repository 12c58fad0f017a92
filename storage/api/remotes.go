package api

import (
	"github.com/trezcool/campusdesk/core/finance"
	"github.com/trezcool/campusdesk/core/records"
	"github.com/trezcool/campusdesk/core/reference"
)

func NewReferenceRemotes(c *Client) reference.Remotes {
	return reference.Remotes{
		Branches:        NewResource[reference.Branch](c, "branches"),
		AcademicYears:   NewResource[reference.AcademicYear](c, "academic-years"),
		Classes:         NewResource[reference.Class](c, "classes"),
		Sections:        NewResource[reference.Section](c, "sections"),
		Courses:         NewResource[reference.Course](c, "courses"),
		Subjects:        NewResource[reference.Subject](c, "subjects"),
		FeeStructures:   NewResource[finance.FeeStructure](c, "fees/structures"),
		Taxes:           NewResource[finance.Tax](c, "taxes"),
		TransportRoutes: NewResource[reference.TransportRoute](c, "transport/routes"),
		Hostels:         NewResource[reference.Hostel](c, "hostels"),
	}
}

func NewRecordRemotes(c *Client) records.Remotes {
	return records.Remotes{
		Students:  NewResource[records.Student](c, "students"),
		Teachers:  NewResource[records.Teacher](c, "teachers"),
		Employees: NewResource[records.Employee](c, "employees"),
		Parents:   NewResource[records.Parent](c, "parents"),
		Assets:    NewResource[records.Asset](c, "assets"),
		Vehicles:  NewResource[records.Vehicle](c, "vehicles"),
		Drivers:   NewResource[records.Driver](c, "drivers"),
		Expenses:  NewResource[records.Expense](c, "expenses"),
		Tickets:   NewResource[records.Ticket](c, "tickets"),
		Notices:   NewResource[records.Notice](c, "notices"),
		Payroll:   NewResource[records.Payroll](c, "payroll"),
	}
}
