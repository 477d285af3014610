package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken   = errors.New("missing bearer token")
	ErrInvalidToken   = errors.New("invalid token")
	ErrMissingSubject = errors.New("token has no subject")
)

// Identity is what a verified token says about the caller. Subject is used
// as the user id for every stored and retrieved record.
type Identity struct {
	Subject   string
	Email     string
	Role      string
	ExpiresAt time.Time
}

type Verifier interface {
	Verify(ctx context.Context, rawToken string) (Identity, error)
}

type supabaseClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// SupabaseVerifier checks HS256 access tokens signed with the project's JWT
// secret and issued by <project url>/auth/v1.
type SupabaseVerifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewSupabaseVerifier(projectURL string, secret string, audience string) *SupabaseVerifier {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer(projectURL)),
		jwt.WithExpirationRequired(),
	}
	if audience != "" {
		options = append(options, jwt.WithAudience(audience))
	}
	return &SupabaseVerifier{
		secret: []byte(secret),
		parser: jwt.NewParser(options...),
	}
}

func Issuer(projectURL string) string {
	return strings.TrimRight(projectURL, "/") + "/auth/v1"
}

func (v *SupabaseVerifier) Verify(_ context.Context, rawToken string) (Identity, error) {
	if rawToken == "" {
		return Identity{}, ErrMissingToken
	}

	claims := &supabaseClaims{}
	_, err := v.parser.ParseWithClaims(rawToken, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return Identity{}, ErrMissingSubject
	}

	identity := Identity{
		Subject: claims.Subject,
		Email:   claims.Email,
		Role:    claims.Role,
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}
	return identity, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrMissingToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}
