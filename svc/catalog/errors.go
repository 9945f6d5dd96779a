package catalog

import "errors"

var (
	ErrPlanNotFound      = errors.New("plan not found")
	ErrMemberNotFound    = errors.New("member not found")
	ErrInvalidPlan       = errors.New("invalid plan")
	ErrInvalidLookup     = errors.New("member lookup requires exactly one of id, phone, email or biometric_id")
	ErrFailedToLoadPlans = errors.New("failed to load plans")
	ErrFailedToSeedPlans = errors.New("failed to seed plans")
	ErrCacheBackend      = errors.New("unknown plan cache backend")
)
