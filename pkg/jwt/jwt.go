package jwt

import (
	"errors"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// StaffClaims identifies the front desk operator behind an API call.
type StaffClaims struct {
	Name string `json:"name,omitempty"`
	Role string `json:"role,omitempty"`
	gojwt.RegisteredClaims
}

// Actor returns the identity recorded in subscription history.
func (c StaffClaims) Actor() string {
	return "staff:" + c.Subject
}

// Service signs and verifies HS256 staff tokens.
type Service struct {
	key      []byte
	issuer   string
	audience string
	leeway   time.Duration
	ttl      time.Duration
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithIssuer requires tokens to carry the given "iss" claim.
func WithIssuer(issuer string) Option {
	return func(s *Service) { s.issuer = issuer }
}

// WithAudience requires tokens to carry the given "aud" claim.
func WithAudience(audience string) Option {
	return func(s *Service) { s.audience = audience }
}

// WithLeeway tolerates clock skew when validating time based claims.
func WithLeeway(d time.Duration) Option {
	return func(s *Service) { s.leeway = d }
}

// WithTTL sets the lifetime Generate applies when claims have no expiry.
func WithTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithTimeFunc overrides the clock used for signing and validation.
func WithTimeFunc(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Service using the HMAC signing key.
func New(signingKey []byte, opts ...Option) (*Service, error) {
	if len(signingKey) == 0 {
		return nil, ErrMissingSigningKey
	}

	s := &Service{
		key: signingKey,
		ttl: 12 * time.Hour,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewFromString is a convenience wrapper around New.
func NewFromString(signingKey string, opts ...Option) (*Service, error) {
	return New([]byte(signingKey), opts...)
}

// NewFromConfig builds a Service from environment configuration.
func NewFromConfig(cfg Config) (*Service, error) {
	opts := []Option{WithLeeway(cfg.Leeway), WithTTL(cfg.TTL)}
	if cfg.Issuer != "" {
		opts = append(opts, WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, WithAudience(cfg.Audience))
	}
	return NewFromString(cfg.SigningKey, opts...)
}

// Generate signs the claims, filling issuer, audience, issued-at and expiry
// when they are not set.
func (s *Service) Generate(claims StaffClaims) (string, error) {
	if claims.Subject == "" {
		return "", ErrInvalidClaims
	}

	now := s.now()
	if claims.Issuer == "" {
		claims.Issuer = s.issuer
	}
	if len(claims.Audience) == 0 && s.audience != "" {
		claims.Audience = gojwt.ClaimStrings{s.audience}
	}
	if claims.IssuedAt == nil {
		claims.IssuedAt = gojwt.NewNumericDate(now)
	}
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = gojwt.NewNumericDate(now.Add(s.ttl))
	}

	signed, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", errors.Join(ErrSignToken, err)
	}
	return signed, nil
}

// Parse verifies the token and returns its staff claims.
func (s *Service) Parse(token string) (StaffClaims, error) {
	if token == "" {
		return StaffClaims{}, ErrMissingToken
	}

	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithExpirationRequired(),
		gojwt.WithLeeway(s.leeway),
		gojwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, gojwt.WithIssuer(s.issuer))
	}
	if s.audience != "" {
		opts = append(opts, gojwt.WithAudience(s.audience))
	}

	var claims StaffClaims
	_, err := gojwt.ParseWithClaims(token, &claims, func(*gojwt.Token) (any, error) {
		return s.key, nil
	}, opts...)
	switch {
	case err == nil:
	case errors.Is(err, gojwt.ErrTokenExpired):
		return StaffClaims{}, errors.Join(ErrExpiredToken, err)
	case errors.Is(err, gojwt.ErrTokenSignatureInvalid):
		return StaffClaims{}, errors.Join(ErrInvalidSignature, err)
	default:
		return StaffClaims{}, errors.Join(ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return StaffClaims{}, ErrInvalidClaims
	}
	return claims, nil
}
