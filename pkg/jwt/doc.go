// Package jwt authenticates front desk staff with HS256 JSON Web Tokens.
//
// Tokens are signed and verified with github.com/golang-jwt/jwt/v5. The
// StaffClaims type carries the registered claims plus the operator name and
// role; its Actor method yields the identity stored in subscription history.
//
// # Usage
//
//	svc, err := jwt.NewFromString("super-secret", jwt.WithIssuer("gymcrm"))
//	if err != nil {
//		// handle error
//	}
//
//	token, _ := svc.Generate(jwt.StaffClaims{Name: "Reception"})
//
//	r := chi.NewRouter()
//	r.Use(jwt.MiddlewareWithConfig(jwt.MiddlewareConfig{Service: svc}))
//	r.Get("/me", func(w http.ResponseWriter, r *http.Request) {
//		claims, _ := jwt.GetClaims(r.Context())
//		fmt.Fprint(w, claims.Actor())
//	})
//
// Generate requires a subject; set it through the embedded RegisteredClaims.
//
// # Errors
//
// Parse wraps failures in ErrExpiredToken, ErrInvalidSignature or
// ErrInvalidToken so callers can test them with errors.Is. The middleware
// delegates rejected requests to MiddlewareConfig.ErrorHandler.
package jwt
