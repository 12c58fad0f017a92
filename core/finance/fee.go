package finance

import "github.com/shopspring/decimal"

// AppliesTo reports whether the structure covers the class or course.
// A structure with no class and no course restriction applies everywhere.
func (fs FeeStructure) AppliesTo(classID, courseID string) bool {
	if len(fs.ApplicableClasses) == 0 && len(fs.ApplicableCourses) == 0 {
		return true
	}
	if classID != "" && contains(fs.ApplicableClasses, classID) {
		return true
	}
	return courseID != "" && contains(fs.ApplicableCourses, courseID)
}

// InstallmentsTotal sums the installment amounts.
func (fs FeeStructure) InstallmentsTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, in := range fs.Installments {
		sum = sum.Add(in.Amount)
	}
	return sum
}

// FeeStructuresFor filters structures for a placement.
func FeeStructuresFor(structures []FeeStructure, classID, courseID string) []FeeStructure {
	res := make([]FeeStructure, 0, len(structures))
	for _, fs := range structures {
		if fs.AppliesTo(classID, courseID) {
			res = append(res, fs)
		}
	}
	return res
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
