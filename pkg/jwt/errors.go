package jwt

import "errors"

var (
	ErrInvalidToken      = errors.New("jwt: invalid token")
	ErrExpiredToken      = errors.New("jwt: token is expired")
	ErrMissingSigningKey = errors.New("jwt: missing signing key")
	ErrInvalidClaims     = errors.New("jwt: invalid claims")
	ErrMissingToken      = errors.New("jwt: missing token")
	ErrInvalidSignature  = errors.New("jwt: invalid signature")
	ErrSignToken         = errors.New("jwt: failed to sign token")
)
