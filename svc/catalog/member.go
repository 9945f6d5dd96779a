package catalog

import (
	"math"
	"time"
)

// Address is the member's postal address.
type Address struct {
	Line1    string `json:"line1"`
	Line2    string `json:"line2,omitempty"`
	City     string `json:"city"`
	District string `json:"district"`
	State    string `json:"state"`
	PinCode  string `json:"pin_code"`
}

// Member is a gym member as seen by the subscription engine. Optional
// profile fields are empty strings or nil pointers when unknown.
type Member struct {
	ID             int64      `json:"id"`
	FullName       string     `json:"full_name"`
	Email          string     `json:"email,omitempty"`
	PhoneNumber    string     `json:"phone_number"`
	AlternatePhone string     `json:"alternate_phone,omitempty"`
	DOB            *time.Time `json:"dob,omitempty"`
	Gender         string     `json:"gender,omitempty"`
	MaritalStatus  string     `json:"marital_status,omitempty"`
	Occupation     string     `json:"occupation,omitempty"`
	Profession     string     `json:"profession,omitempty"`
	ReferralSource string     `json:"referral_source,omitempty"`
	FirmName       string     `json:"firm_name,omitempty"`
	AreaOrLocality string     `json:"area_or_locality,omitempty"`
	Address        Address    `json:"address"`
	HeightCm       *float64   `json:"height_cm,omitempty"`
	WeightKg       *float64   `json:"weight_kg,omitempty"`
	BiometricID    string     `json:"biometric_id,omitempty"`
	ProfilePhoto   string     `json:"profile_photo,omitempty"`
	JoinDate       time.Time  `json:"join_date"`
	IsActive       bool       `json:"is_active"`
}

// BMI is weight over height squared, rounded to two decimals. Nil unless
// both measurements are known.
func (m Member) BMI() *float64 {
	if m.HeightCm == nil || m.WeightKg == nil || *m.HeightCm <= 0 {
		return nil
	}
	h := *m.HeightCm / 100
	bmi := math.Round(*m.WeightKg/(h*h)*100) / 100
	return &bmi
}

// Lookup identifies a member by exactly one key.
type Lookup struct {
	ID          int64
	Phone       string
	Email       string
	BiometricID string
}

func (l Lookup) valid() bool {
	n := 0
	if l.ID != 0 {
		n++
	}
	if l.Phone != "" {
		n++
	}
	if l.Email != "" {
		n++
	}
	if l.BiometricID != "" {
		n++
	}
	return n == 1
}

// MemberFilter narrows ListMembers. Zero value lists everyone.
type MemberFilter struct {
	// JoinedSince keeps members whose join date is on or after the date.
	JoinedSince *time.Time
}
