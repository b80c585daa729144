package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidSigningMethod is returned when the JWT signing method is not supported.
	ErrInvalidSigningMethod = errors.New("invalid JWT signing method")

	// ErrSigningKeyTooShort is returned when the HS512 signing key is less than 64 bytes.
	ErrSigningKeyTooShort = errors.New("HS512 signing key must be at least 64 bytes (512 bits)")

	// ErrTokenExpired is returned when the JWT token has expired.
	ErrTokenExpired = errors.New("JWT token has expired")

	// ErrInvalidToken is returned when the token is malformed or fails validation.
	ErrInvalidToken = errors.New("invalid token")

	// ErrInvalidTokenKind is returned when the typ claim does not match the expected kind.
	ErrInvalidTokenKind = errors.New("invalid token kind")
)

// Kind discriminates access tokens from refresh tokens via the typ claim.
type Kind string

const (
	// KindAccess marks a short-lived bearer token carrying identity and role.
	KindAccess Kind = "access"
	// KindRefresh marks a long-lived token redeemable once for a new pair.
	KindRefresh Kind = "refresh"
)

// JWT defines the operations needed by the app: mint and verify typed tokens.
type JWT interface {
	// GenerateAccess creates a signed access token for the user.
	GenerateAccess(uid int64, username, role string) (string, error)
	// GenerateRefresh creates a signed refresh token for the user.
	GenerateRefresh(uid int64) (string, error)
	// Verify parses and validates the token, requiring the given kind.
	Verify(tokenStr string, kind Kind) (Claims, error)
}

type clocker interface {
	Now() time.Time
}

type generator interface {
	Generate() string
}

type jwtContextKey struct{}

// Config defines the inputs for building a JWT implementation.
type Config struct {
	// Secret is the HMAC signing key.
	Secret []byte
	// Issuer is the token issuer value.
	Issuer string
	// Audiences are the accepted token audiences.
	Audiences []string
	// AccessTTL is the access-token time-to-live.
	AccessTTL time.Duration
	// RefreshTTL is the refresh-token time-to-live.
	RefreshTTL time.Duration
	// Clock provides the current time source.
	Clock clocker
	// UUID generates token IDs.
	UUID generator
}

// Claims is a helper for wrapping registered claims with a payload.
type Claims struct {
	// RegisteredClaims holds the standard JWT claims.
	jwt.RegisteredClaims
	// UserID is the authenticated user identifier.
	UserID int64 `json:"user_id,string"`
	// Username is the authenticated user handle.
	Username string `json:"username,omitempty"`
	// Role is the authenticated user role.
	Role string `json:"role,omitempty"`
	// TokenKind discriminates access from refresh tokens.
	TokenKind Kind `json:"typ"`
}

// GetAuth returns the JWT claims stored in the context, if any.
func GetAuth(ctx context.Context) *Claims {
	clm, ok := ctx.Value(jwtContextKey{}).(Claims)
	if !ok {
		return nil
	}

	return &clm
}

// SetAuth stores JWT claims in the context.
func SetAuth(ctx context.Context, clm Claims) context.Context {
	return context.WithValue(ctx, jwtContextKey{}, clm)
}
