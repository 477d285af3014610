package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testProject = "https://project.supabase.co"
	testSecret  = "super-secret-jwt-token"
)

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, mutate func(c *supabaseClaims)) string {
	t.Helper()
	claims := &supabaseClaims{
		Email: "alice@example.com",
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			Issuer:    Issuer(testProject),
			Audience:  jwt.ClaimStrings{"authenticated"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	if mutate != nil {
		mutate(claims)
	}
	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestSupabaseVerifier(t *testing.T) {
	verifier := NewSupabaseVerifier(testProject+"/", testSecret, "authenticated")

	tests := []struct {
		name    string
		token   func(t *testing.T) string
		wantErr error
	}{
		{
			name:  "valid",
			token: func(t *testing.T) string { return signToken(t, jwt.SigningMethodHS256, []byte(testSecret), nil) },
		},
		{
			name:    "empty",
			token:   func(t *testing.T) string { return "" },
			wantErr: ErrMissingToken,
		},
		{
			name:    "garbage",
			token:   func(t *testing.T) string { return "not.a.jwt" },
			wantErr: ErrInvalidToken,
		},
		{
			name:    "wrong secret",
			token:   func(t *testing.T) string { return signToken(t, jwt.SigningMethodHS256, []byte("other"), nil) },
			wantErr: ErrInvalidToken,
		},
		{
			name:    "wrong algorithm",
			token:   func(t *testing.T) string { return signToken(t, jwt.SigningMethodHS512, []byte(testSecret), nil) },
			wantErr: ErrInvalidToken,
		},
		{
			name: "expired",
			token: func(t *testing.T) string {
				return signToken(t, jwt.SigningMethodHS256, []byte(testSecret), func(c *supabaseClaims) {
					c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
				})
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "no expiry",
			token: func(t *testing.T) string {
				return signToken(t, jwt.SigningMethodHS256, []byte(testSecret), func(c *supabaseClaims) {
					c.ExpiresAt = nil
				})
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "other issuer",
			token: func(t *testing.T) string {
				return signToken(t, jwt.SigningMethodHS256, []byte(testSecret), func(c *supabaseClaims) {
					c.Issuer = "https://evil.supabase.co/auth/v1"
				})
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "other audience",
			token: func(t *testing.T) string {
				return signToken(t, jwt.SigningMethodHS256, []byte(testSecret), func(c *supabaseClaims) {
					c.Audience = jwt.ClaimStrings{"anon"}
				})
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "no subject",
			token: func(t *testing.T) string {
				return signToken(t, jwt.SigningMethodHS256, []byte(testSecret), func(c *supabaseClaims) {
					c.Subject = ""
				})
			},
			wantErr: ErrMissingSubject,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, err := verifier.Verify(context.Background(), tt.token(t))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "user-123", identity.Subject)
			assert.Equal(t, "alice@example.com", identity.Email)
			assert.Equal(t, "authenticated", identity.Role)
			assert.False(t, identity.ExpiresAt.IsZero())
		})
	}
}

type countingVerifier struct {
	calls    int
	identity Identity
	err      error
}

func (c *countingVerifier) Verify(ctx context.Context, rawToken string) (Identity, error) {
	c.calls++
	return c.identity, c.err
}

func TestCachedVerifier_CachesSuccess(t *testing.T) {
	next := &countingVerifier{identity: Identity{Subject: "user-123", ExpiresAt: time.Now().Add(time.Hour)}}
	v := NewCachedVerifier(next, time.Minute, time.Minute)

	for i := 0; i < 3; i++ {
		identity, err := v.Verify(context.Background(), "token")
		require.NoError(t, err)
		assert.Equal(t, "user-123", identity.Subject)
	}
	assert.Equal(t, 1, next.calls)
}

func TestCachedVerifier_DoesNotCacheFailures(t *testing.T) {
	next := &countingVerifier{err: errors.New("bad token")}
	v := NewCachedVerifier(next, time.Minute, time.Minute)

	_, err := v.Verify(context.Background(), "token")
	assert.Error(t, err)
	_, err = v.Verify(context.Background(), "token")
	assert.Error(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestCachedVerifier_SkipsAlreadyExpired(t *testing.T) {
	next := &countingVerifier{identity: Identity{Subject: "user-123", ExpiresAt: time.Now().Add(-time.Second)}}
	v := NewCachedVerifier(next, time.Minute, time.Minute)

	_, _ = v.Verify(context.Background(), "token")
	_, _ = v.Verify(context.Background(), "token")
	assert.Equal(t, 2, next.calls)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", false},
		{"bearer abc", "abc", false},
		{"Basic dXNlcjpwYXNz", "", true},
		{"Bearer ", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := BearerToken(tt.header)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrMissingToken, tt.header)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
