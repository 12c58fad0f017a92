package admission

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campusdesk/core"
)

func boolPtr(b bool) *bool { return &b }

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 10, 30, 0, 0, time.UTC)
}

func TestEvaluate(t *testing.T) {
	january := func(allowLate bool) *Policy {
		return &Policy{Window: &Window{
			IsOpen:    boolPtr(true),
			StartDate: core.NewDate(2024, time.January, 1),
			EndDate:   core.NewDate(2024, time.January, 31),
			AllowLate: allowLate,
		}}
	}

	tests := []struct {
		name        string
		policy      *Policy
		today       time.Time
		wantBlocked bool
		wantLate    bool
		wantReason  string
	}{
		{name: "no policy", policy: nil, today: day(2024, time.February, 1)},
		{name: "no window", policy: &Policy{}, today: day(2024, time.February, 1)},
		{
			name:        "closed",
			policy:      &Policy{Window: &Window{IsOpen: boolPtr(false)}},
			today:       day(2024, time.January, 15),
			wantBlocked: true,
			wantReason:  "Admissions are closed for this academic year.",
		},
		{
			name:        "closed wins over dates",
			policy:      &Policy{Window: &Window{IsOpen: boolPtr(false), EndDate: core.NewDate(2030, time.January, 1)}},
			today:       day(2024, time.January, 15),
			wantBlocked: true,
			wantReason:  "Admissions are closed",
		},
		{
			name:        "not opened yet",
			policy:      january(false),
			today:       day(2023, time.December, 31),
			wantBlocked: true,
			wantReason:  "01 Jan 2024",
		},
		{name: "first day", policy: january(false), today: day(2024, time.January, 1)},
		{name: "last day", policy: january(false), today: day(2024, time.January, 31)},
		{
			name:        "after the window",
			policy:      january(false),
			today:       day(2024, time.February, 1),
			wantBlocked: true,
			wantReason:  "closed on 31 Jan 2024",
		},
		{
			name:       "late admission",
			policy:     january(true),
			today:      day(2024, time.February, 1),
			wantLate:   true,
			wantReason: "late admission",
		},
		{
			name:   "open without dates",
			policy: &Policy{Window: &Window{IsOpen: boolPtr(true)}},
			today:  day(2024, time.February, 1),
		},
		{
			name:   "missing isOpen",
			policy: &Policy{Window: &Window{}},
			today:  day(2024, time.February, 1),
		},
		{
			name:        "start date only",
			policy:      &Policy{Window: &Window{StartDate: core.NewDate(2024, time.March, 1)}},
			today:       day(2024, time.February, 1),
			wantBlocked: true,
			wantReason:  "01 Mar 2024",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := Evaluate(tc.policy, tc.today)
			assert.Equal(t, tc.wantBlocked, v.Blocked)
			assert.Equal(t, tc.wantLate, v.Late)
			if tc.wantReason != "" {
				assert.Contains(t, v.Reason, tc.wantReason)
			} else {
				assert.Empty(t, v.Reason)
			}
		})
	}
}

func TestEvaluate_isPure(t *testing.T) {
	p := &Policy{Window: &Window{EndDate: core.NewDate(2024, time.January, 31)}}
	today := day(2024, time.February, 1)
	assert.Equal(t, Evaluate(p, today), Evaluate(p, today))
	assert.Equal(t, core.NewDate(2024, time.January, 31), p.Window.EndDate)
}

type policySource map[string]*Policy

func (s policySource) GetPolicy(_ context.Context, yearID string) (*Policy, error) {
	return s[yearID], nil
}

func TestPolicyService_Check(t *testing.T) {
	conf := &core.Config{Admission: core.AdmissionConfig{Location: time.UTC}}
	svc := NewPolicyService(policySource{
		"2024": {AcademicYearID: "2024", Window: &Window{EndDate: core.NewDate(2024, time.January, 31)}},
	}, conf)
	svc.now = func() time.Time { return day(2024, time.February, 1) }

	v, p, err := svc.Check(context.Background(), "2024")
	require.NoError(t, err)
	assert.True(t, v.Blocked)
	assert.Contains(t, v.Reason, "closed")
	assert.Equal(t, "2024", p.AcademicYearID)

	v, p, err = svc.Check(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, v.Blocked)
	assert.Nil(t, p)

	v, p, err = svc.Check(context.Background(), "2025")
	require.NoError(t, err)
	assert.False(t, v.Blocked)
	assert.Nil(t, p)
}

func TestPolicyService_Today_usesLocation(t *testing.T) {
	kinshasa := time.FixedZone("WAT", 60*60)
	svc := NewPolicyService(policySource{}, &core.Config{Admission: core.AdmissionConfig{Location: kinshasa}})
	svc.now = func() time.Time { return time.Date(2024, time.January, 31, 23, 30, 0, 0, time.UTC) }

	// 23:30 UTC is already the next day in the school's zone
	assert.Equal(t, core.NewDate(2024, time.February, 1), core.DateOf(svc.Today()))

	v := Evaluate(&Policy{Window: &Window{EndDate: core.NewDate(2024, time.January, 31)}}, svc.Today())
	assert.True(t, v.Blocked)
}
