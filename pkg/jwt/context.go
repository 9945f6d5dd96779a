package jwt

import "context"

type contextKey struct{ name string }

func (c contextKey) String() string { return c.name }

var (
	tokenContextKey  = &contextKey{name: "jwt"}
	claimsContextKey = &contextKey{name: "jwt_claims"}
)

// SetToken stores the raw token string in the context.
func SetToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenContextKey, token)
}

// GetToken returns the raw token string from the context.
func GetToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenContextKey).(string)
	return token, ok
}

// SetClaims stores verified staff claims in the context.
func SetClaims(ctx context.Context, claims StaffClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// GetClaims returns the staff claims placed in the context by the middleware.
func GetClaims(ctx context.Context) (StaffClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(StaffClaims)
	return claims, ok
}
