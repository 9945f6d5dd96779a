package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/gymcrm/pkg/clock"
	"github.com/dmitrymomot/gymcrm/svc/membership"
)

// Dates travel as YYYY-MM-DD strings; the validator checks the layout
// before the handlers parse them.

type enrollRequest struct {
	MemberID       int64   `json:"member_id" validate:"required,gt=0"`
	PlanID         string  `json:"plan_id" validate:"required,uuid"`
	StartDate      *string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	Status         string  `json:"status" validate:"omitempty,oneof=pending active"`
	IsRenewal      bool    `json:"is_renewal"`
	SignedByMember bool    `json:"signed_by_member"`
	SignatureFile  *string `json:"signature_file" validate:"omitempty,max=512"`
}

func (req enrollRequest) params() (membership.EnrollParams, error) {
	planID, err := parseUUID("plan_id", req.PlanID)
	if err != nil {
		return membership.EnrollParams{}, err
	}
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return membership.EnrollParams{}, err
	}
	return membership.EnrollParams{
		MemberID:       req.MemberID,
		PlanID:         planID,
		StartDate:      start,
		Status:         membership.Status(req.Status),
		IsRenewal:      req.IsRenewal,
		SignedByMember: req.SignedByMember,
		SignatureFile:  req.SignatureFile,
	}, nil
}

type updateRequest struct {
	PlanID         *string `json:"plan_id" validate:"omitempty,uuid"`
	StartDate      *string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate        *string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	SignedByMember *bool   `json:"signed_by_member"`
	SignatureFile  *string `json:"signature_file" validate:"omitempty,max=512"`
}

func (req updateRequest) params() (membership.UpdateParams, error) {
	p := membership.UpdateParams{
		SignedByMember: req.SignedByMember,
		SignatureFile:  req.SignatureFile,
	}
	if req.PlanID != nil {
		id, err := parseUUID("plan_id", *req.PlanID)
		if err != nil {
			return p, err
		}
		p.PlanID = &id
	}
	var err error
	if p.StartDate, err = parseDate("start_date", req.StartDate); err != nil {
		return p, err
	}
	if p.EndDate, err = parseDate("end_date", req.EndDate); err != nil {
		return p, err
	}
	return p, nil
}

type changePlanRequest struct {
	PlanID string `json:"plan_id" validate:"required,uuid"`
}

type renewRequest struct {
	PlanID    *string `json:"plan_id" validate:"omitempty,uuid"`
	StartDate *string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
}

func (req renewRequest) params() (membership.RenewParams, error) {
	var p membership.RenewParams
	if req.PlanID != nil {
		id, err := parseUUID("plan_id", *req.PlanID)
		if err != nil {
			return p, err
		}
		p.NewPlanID = &id
	}
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return p, err
	}
	p.StartDate = start
	return p, nil
}

type listSubscriptionsQuery struct {
	MemberID int64  `json:"member_id" validate:"gte=0"`
	Status   string `json:"status" validate:"omitempty,oneof=pending active expired cancelled completed"`
	Query    string `json:"q" validate:"max=100"`
	Limit    int    `json:"limit" validate:"gte=0,lte=500"`
	Offset   int    `json:"offset" validate:"gte=0"`
}

type windowQuery struct {
	Days int `json:"days" validate:"gte=0,lte=366"`
}

// dashboardStats extends subscription counts with member buckets.
type dashboardStats struct {
	membership.Stats
	Members map[membership.Bucket]int `json:"members"`
}

func parseUUID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, invalidParam(field, "must be a valid UUID")
	}
	return id, nil
}

func parseDate(field string, raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	d, err := clock.ParseDate(*raw)
	if err != nil {
		return nil, invalidParam(field, "must be a date formatted as "+clock.DateLayout)
	}
	return &d, nil
}
