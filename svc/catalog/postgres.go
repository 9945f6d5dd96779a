package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/gymcrm/pkg/pg"
)

// Postgres reads plans and members from the plans and members tables.
// Built on a pgx.Tx it takes part in the caller's transaction.
type Postgres struct {
	db pg.DBTX
}

func NewPostgres(db pg.DBTX) *Postgres {
	if db == nil {
		panic("catalog: nil database handle")
	}
	return &Postgres{db: db}
}

const planColumns = `id, name, type, description, features, duration_days, price_paise, is_active, created_at, updated_at`

func (s *Postgres) GetPlan(ctx context.Context, id uuid.UUID) (Plan, error) {
	row := s.db.QueryRow(ctx, `SELECT `+planColumns+` FROM plans WHERE id = $1`, id)
	p, err := scanPlan(row)
	if pg.IsNotFoundError(err) {
		return Plan{}, ErrPlanNotFound
	}
	if err != nil {
		return Plan{}, fmt.Errorf("get plan %s: %w", id, err)
	}
	return p, nil
}

func (s *Postgres) ListPlans(ctx context.Context, activeOnly bool) ([]Plan, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+planColumns+` FROM plans WHERE ($1::bool IS FALSE OR is_active) ORDER BY duration_days, name`,
		activeOnly)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}
	defer rows.Close()

	var plans []Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, errors.Join(ErrFailedToLoadPlans, err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}
	return plans, nil
}

// UpsertPlan inserts p or updates every mutable column of an existing plan.
func (s *Postgres) UpsertPlan(ctx context.Context, p Plan) error {
	if err := p.Validate(); err != nil {
		return err
	}
	features := p.Features
	if features == nil {
		features = []string{}
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO plans (id, name, type, description, features, duration_days, price_paise, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			description = EXCLUDED.description,
			features = EXCLUDED.features,
			duration_days = EXCLUDED.duration_days,
			price_paise = EXCLUDED.price_paise,
			is_active = EXCLUDED.is_active,
			updated_at = now()`,
		p.ID, p.Name, string(p.Type), p.Description, features, p.DurationDays, p.Price, p.IsActive)
	if err != nil {
		return fmt.Errorf("upsert plan %s: %w", p.ID, err)
	}
	return nil
}

const memberColumns = `id, full_name, COALESCE(email, ''), phone_number, alternate_phone, dob, gender,
	COALESCE(marital_status, ''), occupation, profession, referral_source, COALESCE(firm_name, ''),
	COALESCE(area_or_locality, ''), address_line1, COALESCE(address_line2, ''), city, district, state,
	pin_code, height_cm, weight_kg, biometric_id, COALESCE(profile_photo, ''), join_date, is_active`

func (s *Postgres) GetMember(ctx context.Context, id int64) (Member, error) {
	return s.member(ctx, `SELECT `+memberColumns+` FROM members WHERE id = $1`, id)
}

// LockMember reads a member with SELECT ... FOR UPDATE. It must run inside a
// transaction; concurrent lifecycle operations for the same member queue
// behind the lock.
func (s *Postgres) LockMember(ctx context.Context, id int64) (Member, error) {
	return s.member(ctx, `SELECT `+memberColumns+` FROM members WHERE id = $1 FOR UPDATE`, id)
}

func (s *Postgres) LookupMember(ctx context.Context, l Lookup) (Member, error) {
	if !l.valid() {
		return Member{}, ErrInvalidLookup
	}
	switch {
	case l.ID != 0:
		return s.GetMember(ctx, l.ID)
	case l.Phone != "":
		return s.member(ctx, `SELECT `+memberColumns+` FROM members WHERE phone_number = $1 ORDER BY id LIMIT 1`, l.Phone)
	case l.Email != "":
		return s.member(ctx, `SELECT `+memberColumns+` FROM members WHERE lower(email) = $1 ORDER BY id LIMIT 1`, strings.ToLower(l.Email))
	default:
		return s.member(ctx, `SELECT `+memberColumns+` FROM members WHERE biometric_id = $1`, l.BiometricID)
	}
}

func (s *Postgres) ListMembers(ctx context.Context, f MemberFilter) ([]Member, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+memberColumns+` FROM members WHERE ($1::date IS NULL OR join_date >= $1) ORDER BY id`,
		f.JoinedSince)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("list members: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (s *Postgres) member(ctx context.Context, query string, arg any) (Member, error) {
	m, err := scanMember(s.db.QueryRow(ctx, query, arg))
	if pg.IsNotFoundError(err) {
		return Member{}, ErrMemberNotFound
	}
	if err != nil {
		return Member{}, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func scanPlan(row pgx.Row) (Plan, error) {
	var (
		p        Plan
		planType string
	)
	err := row.Scan(&p.ID, &p.Name, &planType, &p.Description, &p.Features, &p.DurationDays,
		&p.Price, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	p.Type = PlanType(planType)
	return p, err
}

func scanMember(row pgx.Row) (Member, error) {
	var m Member
	err := row.Scan(&m.ID, &m.FullName, &m.Email, &m.PhoneNumber, &m.AlternatePhone, &m.DOB, &m.Gender,
		&m.MaritalStatus, &m.Occupation, &m.Profession, &m.ReferralSource, &m.FirmName,
		&m.AreaOrLocality, &m.Address.Line1, &m.Address.Line2, &m.Address.City, &m.Address.District,
		&m.Address.State, &m.Address.PinCode, &m.HeightCm, &m.WeightKg, &m.BiometricID,
		&m.ProfilePhoto, &m.JoinDate, &m.IsActive)
	return m, err
}
