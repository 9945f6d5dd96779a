package membership

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/gymcrm/pkg/clock"
	"github.com/dmitrymomot/gymcrm/svc/catalog"
)

// HistoryEntry is an immutable audit row holding the subscription as it was
// before a tracked change (or as inserted, for new rows).
type HistoryEntry struct {
	ID             uuid.UUID            `json:"id"`
	SubscriptionID uuid.UUID            `json:"subscription_id"`
	Snapshot       SubscriptionSnapshot `json:"snapshot"`
	MemberSnapshot MemberSnapshot       `json:"member_snapshot"`
	Note           string               `json:"note"`
	ChangedBy      string               `json:"changed_by,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
}

// PlanChange is an immutable record of one plan reassignment. Plan ids
// become nil when the referenced plan is deleted.
type PlanChange struct {
	ID             uuid.UUID  `json:"id"`
	SubscriptionID uuid.UUID  `json:"subscription_id"`
	OldPlanID      *uuid.UUID `json:"old_plan_id"`
	NewPlanID      *uuid.UUID `json:"new_plan_id"`
	ChangedBy      string     `json:"changed_by,omitempty"`
	ChangedAt      time.Time  `json:"changed_at"`
}

// SubscriptionSnapshot is the JSON document stored in history rows.
type SubscriptionSnapshot struct {
	SubscriptionID uuid.UUID `json:"subscription_id"`
	MemberID       int64     `json:"member_id"`
	PlanID         uuid.UUID `json:"plan_id"`
	PlanName       string    `json:"plan_name"`
	StartDate      string    `json:"start_date"`
	EndDate        string    `json:"end_date"`
	Status         Status    `json:"status"`
	IsRenewal      bool      `json:"is_renewal"`
	SignedByMember bool      `json:"signed_by_member"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// MemberSnapshot freezes the member's profile at a point in time.
type MemberSnapshot struct {
	ID             int64           `json:"id"`
	FullName       string          `json:"full_name"`
	Email          string          `json:"email,omitempty"`
	PhoneNumber    string          `json:"phone_number"`
	AlternatePhone string          `json:"alternate_phone,omitempty"`
	DOB            string          `json:"dob,omitempty"`
	Gender         string          `json:"gender,omitempty"`
	MaritalStatus  string          `json:"marital_status,omitempty"`
	Occupation     string          `json:"occupation,omitempty"`
	Profession     string          `json:"profession,omitempty"`
	ReferralSource string          `json:"referral_source,omitempty"`
	FirmName       string          `json:"firm_name,omitempty"`
	AreaOrLocality string          `json:"area_or_locality,omitempty"`
	Address        catalog.Address `json:"address"`
	HeightCm       *float64        `json:"height_cm,omitempty"`
	WeightKg       *float64        `json:"weight_kg,omitempty"`
	BMI            *float64        `json:"bmi,omitempty"`
	BiometricID    string          `json:"biometric_id,omitempty"`
	ProfilePhoto   string          `json:"profile_photo,omitempty"`
	JoinDate       string          `json:"join_date"`
	IsActive       bool            `json:"is_active"`
}

func snapshotSubscription(s Subscription, planName string) SubscriptionSnapshot {
	return SubscriptionSnapshot{
		SubscriptionID: s.ID,
		MemberID:       s.MemberID,
		PlanID:         s.PlanID,
		PlanName:       planName,
		StartDate:      s.StartDate.Format(clock.DateLayout),
		EndDate:        s.EndDate.Format(clock.DateLayout),
		Status:         s.Status,
		IsRenewal:      s.IsRenewal,
		SignedByMember: s.SignedByMember,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

func snapshotMember(m catalog.Member) MemberSnapshot {
	snap := MemberSnapshot{
		ID:             m.ID,
		FullName:       m.FullName,
		Email:          m.Email,
		PhoneNumber:    m.PhoneNumber,
		AlternatePhone: m.AlternatePhone,
		Gender:         m.Gender,
		MaritalStatus:  m.MaritalStatus,
		Occupation:     m.Occupation,
		Profession:     m.Profession,
		ReferralSource: m.ReferralSource,
		FirmName:       m.FirmName,
		AreaOrLocality: m.AreaOrLocality,
		Address:        m.Address,
		HeightCm:       m.HeightCm,
		WeightKg:       m.WeightKg,
		BMI:            m.BMI(),
		BiometricID:    m.BiometricID,
		ProfilePhoto:   m.ProfilePhoto,
		IsActive:       m.IsActive,
	}
	if m.DOB != nil {
		snap.DOB = m.DOB.Format(clock.DateLayout)
	}
	if !m.JoinDate.IsZero() {
		snap.JoinDate = m.JoinDate.Format(clock.DateLayout)
	}
	return snap
}

// newID returns a time-ordered id so rows sharing a timestamp still sort by
// creation.
func newID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}
