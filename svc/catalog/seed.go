package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// planNamespace derives stable ids for seeded plans that omit one, so
// reseeding the same file updates rows instead of duplicating them.
var planNamespace = uuid.MustParse("4b0d3a7e-6a53-4c1e-9d5f-3f1b8e2c7a10")

type planFile struct {
	Plans []planEntry `yaml:"plans"`
}

type planEntry struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Type         PlanType `yaml:"type"`
	Description  string   `yaml:"description"`
	Features     []string `yaml:"features"`
	DurationDays int      `yaml:"duration_days"`
	// Price in rupees, e.g. 1500 or 1499.50.
	Price  float64 `yaml:"price"`
	Active *bool   `yaml:"active"`
}

// LoadPlansYAML parses a plan seed file:
//
//	plans:
//	  - name: Monthly
//	    type: membership
//	    duration_days: 30
//	    price: 1500
//
// Type defaults to membership and active to true. Every plan is validated.
func LoadPlansYAML(r io.Reader) ([]Plan, error) {
	var f planFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	plans := make([]Plan, 0, len(f.Plans))
	seen := make(map[uuid.UUID]string, len(f.Plans))
	for _, e := range f.Plans {
		p, err := e.plan()
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[p.ID]; dup {
			return nil, errors.Join(ErrInvalidPlan, fmt.Errorf("plans %q and %q share id %s", prev, p.Name, p.ID))
		}
		seen[p.ID] = p.Name
		plans = append(plans, p)
	}
	return plans, nil
}

func (e planEntry) plan() (Plan, error) {
	p := Plan{
		Name:         strings.TrimSpace(e.Name),
		Type:         e.Type,
		Description:  e.Description,
		Features:     e.Features,
		DurationDays: e.DurationDays,
		Price:        int64(math.Round(e.Price * 100)),
		IsActive:     e.Active == nil || *e.Active,
	}
	if p.Type == "" {
		p.Type = PlanTypeMembership
	}
	if e.ID != "" {
		id, err := uuid.Parse(e.ID)
		if err != nil {
			return Plan{}, errors.Join(ErrInvalidPlan, fmt.Errorf("plan %q: %w", e.Name, err))
		}
		p.ID = id
	} else {
		p.ID = uuid.NewSHA1(planNamespace, []byte(strings.ToLower(p.Name)))
	}
	if err := p.Validate(); err != nil {
		return Plan{}, err
	}
	return p, nil
}

// Seed upserts plans in order and stops at the first failure.
func Seed(ctx context.Context, w PlanWriter, plans []Plan) error {
	for _, p := range plans {
		if err := w.UpsertPlan(ctx, p); err != nil {
			return errors.Join(ErrFailedToSeedPlans, err)
		}
	}
	return nil
}
