package catalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gymcrm/svc/catalog"
)

func monthly() catalog.Plan {
	return catalog.Plan{
		ID:           uuid.New(),
		Name:         "Monthly",
		Type:         catalog.PlanTypeMembership,
		DurationDays: 30,
		Price:        150000,
		IsActive:     true,
	}
}

func TestPlan_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, monthly().Validate())

	tests := []struct {
		name   string
		mutate func(p *catalog.Plan)
	}{
		{"missing id", func(p *catalog.Plan) { p.ID = uuid.Nil }},
		{"blank name", func(p *catalog.Plan) { p.Name = "  " }},
		{"zero duration", func(p *catalog.Plan) { p.DurationDays = 0 }},
		{"negative price", func(p *catalog.Plan) { p.Price = -1 }},
		{"unknown type", func(p *catalog.Plan) { p.Type = "yoga" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := monthly()
			tt.mutate(&p)
			assert.ErrorIs(t, p.Validate(), catalog.ErrInvalidPlan)
		})
	}
}

func TestMember_BMI(t *testing.T) {
	t.Parallel()

	h, w := 175.0, 70.0
	m := catalog.Member{HeightCm: &h, WeightKg: &w}
	require.NotNil(t, m.BMI())
	assert.InDelta(t, 22.86, *m.BMI(), 0.001)

	assert.Nil(t, catalog.Member{HeightCm: &h}.BMI())
}

func TestMemory_Plans(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	annual := monthly()
	annual.ID = uuid.New()
	annual.Name = "Annual"
	annual.DurationDays = 365
	retired := monthly()
	retired.ID = uuid.New()
	retired.Name = "Old Quarterly"
	retired.DurationDays = 90
	retired.IsActive = false
	m := monthly()

	mem := catalog.NewMemory().AddPlans(annual, retired, m)

	got, err := mem.GetPlan(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Monthly", got.Name)

	_, err = mem.GetPlan(ctx, uuid.New())
	assert.ErrorIs(t, err, catalog.ErrPlanNotFound)

	all, err := mem.ListPlans(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"Monthly", "Old Quarterly", "Annual"}, []string{all[0].Name, all[1].Name, all[2].Name})

	active, err := mem.ListPlans(ctx, true)
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestMemory_LookupMember(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	mem := catalog.NewMemory().
		PutMember(catalog.Member{ID: 1, FullName: "Asha Rao", PhoneNumber: "9876543210", Email: "asha@example.com", BiometricID: "0001", IsActive: true}).
		PutMember(catalog.Member{ID: 2, FullName: "Vikram Shah", PhoneNumber: "9123456780", BiometricID: "0002", IsActive: true})

	tests := []struct {
		name   string
		lookup catalog.Lookup
		want   int64
	}{
		{"by id", catalog.Lookup{ID: 2}, 2},
		{"by phone", catalog.Lookup{Phone: "9876543210"}, 1},
		{"by email ignores case", catalog.Lookup{Email: "ASHA@example.com"}, 1},
		{"by biometric id", catalog.Lookup{BiometricID: "0002"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := mem.LookupMember(ctx, tt.lookup)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.ID)
		})
	}

	_, err := mem.LookupMember(ctx, catalog.Lookup{Phone: "000"})
	assert.ErrorIs(t, err, catalog.ErrMemberNotFound)

	_, err = mem.LookupMember(ctx, catalog.Lookup{})
	assert.ErrorIs(t, err, catalog.ErrInvalidLookup)

	_, err = mem.LookupMember(ctx, catalog.Lookup{ID: 1, Phone: "9876543210"})
	assert.ErrorIs(t, err, catalog.ErrInvalidLookup)
}

func TestMemory_ListMembersJoinedSince(t *testing.T) {
	t.Parallel()

	day := func(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }
	mem := catalog.NewMemory().
		PutMember(catalog.Member{ID: 1, JoinDate: day(1)}).
		PutMember(catalog.Member{ID: 2, JoinDate: day(10)}).
		PutMember(catalog.Member{ID: 3, JoinDate: day(20)})

	since := day(10)
	got, err := mem.ListMembers(context.Background(), catalog.MemberFilter{JoinedSince: &since})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].ID)
	assert.Equal(t, int64(3), got[1].ID)
}
