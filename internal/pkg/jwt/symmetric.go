package jwt

import (
	"errors"
	"strconv"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
)

// Symmetric implements JWT signing and verification using an HMAC secret.
type Symmetric struct {
	secret     []byte
	issuer     string
	audiences  []string
	accessTTL  time.Duration
	refreshTTL time.Duration
	clock      clocker
	uuid       generator
}

// NewHS512 constructs a Symmetric JWT implementation using HS512.
func NewHS512(cfg Config) (*Symmetric, error) {
	if len(cfg.Secret) < 64 {
		return nil, ErrSigningKeyTooShort
	}

	return &Symmetric{
		secret:     cfg.Secret,
		issuer:     cfg.Issuer,
		audiences:  cfg.Audiences,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		clock:      cfg.Clock,
		uuid:       cfg.UUID,
	}, nil
}

// GenerateAccess creates a signed access token carrying identity and role.
func (s *Symmetric) GenerateAccess(uid int64, username, role string) (string, error) {
	return s.generate(Claims{
		UserID:    uid,
		Username:  username,
		Role:      role,
		TokenKind: KindAccess,
	}, s.accessTTL)
}

// GenerateRefresh creates a signed refresh token for the user.
func (s *Symmetric) GenerateRefresh(uid int64) (string, error) {
	return s.generate(Claims{UserID: uid, TokenKind: KindRefresh}, s.refreshTTL)
}

func (s *Symmetric) generate(clm Claims, ttl time.Duration) (string, error) {
	now := s.clock.Now()

	clm.RegisteredClaims = libJWT.RegisteredClaims{
		ID:        s.uuid.Generate(),
		Subject:   strconv.FormatInt(clm.UserID, 10),
		Issuer:    s.issuer,
		Audience:  s.audiences,
		IssuedAt:  libJWT.NewNumericDate(now),
		NotBefore: libJWT.NewNumericDate(now),
		ExpiresAt: libJWT.NewNumericDate(now.Add(ttl)),
	}

	return libJWT.
		NewWithClaims(libJWT.SigningMethodHS512, clm).
		SignedString(s.secret)
}

// Verify parses and validates a JWT string, requiring the given kind.
func (s *Symmetric) Verify(tokenStr string, kind Kind) (Claims, error) {
	var claims Claims

	token, err := libJWT.ParseWithClaims(tokenStr, &claims,
		func(t *libJWT.Token) (any, error) {
			if t.Method != libJWT.SigningMethodHS512 {
				return nil, ErrInvalidSigningMethod
			}
			return s.secret, nil
		},
		libJWT.WithIssuer(s.issuer),
		libJWT.WithAudience(s.audiences...),
		libJWT.WithValidMethods([]string{libJWT.SigningMethodHS512.Alg()}),
		libJWT.WithIssuedAt(),
		libJWT.WithExpirationRequired(),
		libJWT.WithTimeFunc(s.clock.Now),
	)

	if err != nil {
		if errors.Is(err, libJWT.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, err
	}

	if !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	if claims.TokenKind != kind {
		return Claims{}, ErrInvalidTokenKind
	}

	return claims, nil
}
