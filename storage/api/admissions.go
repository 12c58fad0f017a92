package api

import (
	"context"
	"net/url"

	"github.com/trezcool/campusdesk/core"
	"github.com/trezcool/campusdesk/core/admission"
	"github.com/trezcool/campusdesk/core/finance"
	"github.com/trezcool/campusdesk/core/records"
)

// AdmissionBackend calls the admission endpoints of the backend.
type AdmissionBackend struct {
	client *Client
}

var (
	_ admission.PolicySource    = (*AdmissionBackend)(nil)
	_ admission.Admissions      = (*AdmissionBackend)(nil)
	_ admission.ParentDirectory = (*AdmissionBackend)(nil)
)

func NewAdmissionBackend(c *Client) *AdmissionBackend {
	return &AdmissionBackend{client: c}
}

// GetPolicy returns the policy of the academic year, nil when the year has none.
func (b *AdmissionBackend) GetPolicy(ctx context.Context, academicYearID string) (*admission.Policy, error) {
	var policy admission.Policy
	err := b.client.Get(ctx, "/admissions/policy", url.Values{"academicYearId": {academicYearID}}, &policy)
	if err != nil {
		if core.KindOf(err) == core.KindNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &policy, nil
}

func (b *AdmissionBackend) Admit(ctx context.Context, req admission.AdmitRequest) (records.Student, error) {
	var student records.Student
	err := b.client.Post(ctx, "/students/admit", req, &student)
	return student, err
}

func (b *AdmissionBackend) RecordPayment(ctx context.Context, payment finance.FeePayment) (finance.FeePayment, error) {
	var paid finance.FeePayment
	err := b.client.Post(ctx, "/fees/payments", payment, &paid)
	return paid, err
}

func (b *AdmissionBackend) SearchParents(ctx context.Context, scope core.Scope, query string) ([]records.Parent, error) {
	q := url.Values{"searchQuery": {query}}
	if scope.BranchID != "" {
		q.Set("branchId", scope.BranchID)
	}
	parents := make([]records.Parent, 0)
	if err := b.client.Get(ctx, "/parents", q, &parents); err != nil {
		return nil, err
	}
	return parents, nil
}
