package jwt_test

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gymcrm/pkg/jwt"
)

func staff(sub string) jwt.StaffClaims {
	return jwt.StaffClaims{
		Name:             "Reception",
		Role:             "front_desk",
		RegisteredClaims: gojwt.RegisteredClaims{Subject: sub},
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := jwt.New(nil)
	assert.ErrorIs(t, err, jwt.ErrMissingSigningKey)

	svc, err := jwt.NewFromString("secret")
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestGenerateAndParse(t *testing.T) {
	t.Parallel()

	svc, err := jwt.NewFromString("secret", jwt.WithIssuer("gymcrm"), jwt.WithAudience("desk"))
	require.NoError(t, err)

	token, err := svc.Generate(staff("priya"))
	require.NoError(t, err)

	claims, err := svc.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "priya", claims.Subject)
	assert.Equal(t, "Reception", claims.Name)
	assert.Equal(t, "front_desk", claims.Role)
	assert.Equal(t, "gymcrm", claims.Issuer)
	assert.Equal(t, "staff:priya", claims.Actor())
	require.NotNil(t, claims.ExpiresAt)
}

func TestGenerateRequiresSubject(t *testing.T) {
	t.Parallel()

	svc, err := jwt.NewFromString("secret")
	require.NoError(t, err)

	_, err = svc.Generate(jwt.StaffClaims{Name: "nobody"})
	assert.ErrorIs(t, err, jwt.ErrInvalidClaims)
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	clockAt := func(ts time.Time) func() time.Time { return func() time.Time { return ts } }

	signer, err := jwt.NewFromString("secret", jwt.WithIssuer("gymcrm"), jwt.WithTTL(time.Hour), jwt.WithTimeFunc(clockAt(now)))
	require.NoError(t, err)
	token, err := signer.Generate(staff("priya"))
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		t.Parallel()
		later, err := jwt.NewFromString("secret", jwt.WithIssuer("gymcrm"), jwt.WithTimeFunc(clockAt(now.Add(2*time.Hour))))
		require.NoError(t, err)
		_, err = later.Parse(token)
		assert.ErrorIs(t, err, jwt.ErrExpiredToken)
	})

	t.Run("leeway", func(t *testing.T) {
		t.Parallel()
		skewed, err := jwt.NewFromString("secret",
			jwt.WithIssuer("gymcrm"),
			jwt.WithLeeway(time.Minute),
			jwt.WithTimeFunc(clockAt(now.Add(time.Hour+30*time.Second))),
		)
		require.NoError(t, err)
		_, err = skewed.Parse(token)
		assert.NoError(t, err)
	})

	t.Run("wrong key", func(t *testing.T) {
		t.Parallel()
		other, err := jwt.NewFromString("other", jwt.WithIssuer("gymcrm"), jwt.WithTimeFunc(clockAt(now)))
		require.NoError(t, err)
		_, err = other.Parse(token)
		assert.ErrorIs(t, err, jwt.ErrInvalidSignature)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		t.Parallel()
		other, err := jwt.NewFromString("secret", jwt.WithIssuer("billing"), jwt.WithTimeFunc(clockAt(now)))
		require.NoError(t, err)
		_, err = other.Parse(token)
		assert.ErrorIs(t, err, jwt.ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		t.Parallel()
		_, err := signer.Parse("not.a.token")
		assert.ErrorIs(t, err, jwt.ErrInvalidToken)
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		_, err := signer.Parse("")
		assert.ErrorIs(t, err, jwt.ErrMissingToken)
	})

	t.Run("other algorithm", func(t *testing.T) {
		t.Parallel()
		unsigned, err := gojwt.NewWithClaims(gojwt.SigningMethodNone, staff("priya")).
			SignedString(gojwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = signer.Parse(unsigned)
		assert.ErrorIs(t, err, jwt.ErrInvalidSignature)
	})
}
