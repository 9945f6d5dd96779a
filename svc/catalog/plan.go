package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PlanType separates gym-floor memberships from personal training packages.
type PlanType string

const (
	PlanTypeMembership       PlanType = "membership"
	PlanTypePersonalTraining PlanType = "pt"
)

// Plan is a priced membership product. Price is in paise.
type Plan struct {
	ID           uuid.UUID `json:"id" yaml:"id"`
	Name         string    `json:"name" yaml:"name"`
	Type         PlanType  `json:"type" yaml:"type"`
	Description  string    `json:"description,omitempty" yaml:"description"`
	Features     []string  `json:"features,omitempty" yaml:"features"`
	DurationDays int       `json:"duration_days" yaml:"duration_days"`
	Price        int64     `json:"price" yaml:"-"`
	IsActive     bool      `json:"is_active" yaml:"-"`
	CreatedAt    time.Time `json:"created_at" yaml:"-"`
	UpdatedAt    time.Time `json:"updated_at" yaml:"-"`
}

// Validate checks the invariants every stored plan must satisfy.
func (p Plan) Validate() error {
	var errs []error
	if p.ID == uuid.Nil {
		errs = append(errs, errors.New("id is required"))
	}
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if p.DurationDays <= 0 {
		errs = append(errs, fmt.Errorf("duration_days must be positive, got %d", p.DurationDays))
	}
	if p.Price < 0 {
		errs = append(errs, fmt.Errorf("price must not be negative, got %d", p.Price))
	}
	switch p.Type {
	case PlanTypeMembership, PlanTypePersonalTraining:
	default:
		errs = append(errs, fmt.Errorf("unknown plan type %q", p.Type))
	}
	if len(errs) > 0 {
		return errors.Join(ErrInvalidPlan, fmt.Errorf("plan %q: %w", p.Name, errors.Join(errs...)))
	}
	return nil
}

func clonePlan(p Plan) Plan {
	if p.Features != nil {
		p.Features = append([]string(nil), p.Features...)
	}
	return p
}
