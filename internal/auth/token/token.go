// Package token manages the access/refresh token lifecycle: pair issuance,
// single-use rotation with reuse detection, and revocation.
package token

import (
	"context"
	"errors"
	"log/slog"

	"github.com/otpgate/otpgate/internal/auth/entity"
	"github.com/otpgate/otpgate/internal/pkg/clock"
	"github.com/otpgate/otpgate/internal/pkg/config"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
	"github.com/otpgate/otpgate/internal/pkg/hash"
	"github.com/otpgate/otpgate/internal/pkg/instrument"
	"github.com/otpgate/otpgate/internal/pkg/jwt"
	"github.com/otpgate/otpgate/internal/pkg/uid"
	"github.com/otpgate/otpgate/internal/pkg/valueobject"
	"go.opentelemetry.io/otel/trace"
)

// Store persists refresh-token records. Only digests are stored, never
// plaintext tokens.
type Store interface {
	CreateRefreshToken(ctx context.Context, rt entity.RefreshToken) error
	// GetUserRefreshToken returns the record joined with its owner.
	GetUserRefreshToken(ctx context.Context, tokenHash string) (*entity.UserRefreshToken, error)
	// RotateRefreshToken marks the old record revoked and inserts the new
	// one in a single transaction. The revoke is conditional on
	// revoked=false; it returns goerror.ErrNotFound when another rotation
	// won the race.
	RotateRefreshToken(ctx context.Context, ro entity.RotateRefreshToken) error
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllRefreshTokens(ctx context.Context, userID int64) error
}

// Pair is one issued access/refresh token pair.
type Pair struct {
	AccessToken  string
	RefreshToken string
}

// Manager owns token pair issuance, rotation, and revocation.
type Manager struct {
	store Store
	jwt   jwt.JWT
	hmac  hash.Hash
	uid   uid.NumberID
	clock clock.Clocker
	cfg   config.Config
	ins   instrument.Instrumentation
}

// Dependency lists the collaborators a Manager needs.
type Dependency struct {
	Store      Store
	JWT        jwt.JWT
	HMAC       hash.Hash
	UID        uid.NumberID
	Clock      clock.Clocker
	Config     config.Config
	Instrument instrument.Instrumentation
}

func New(dep Dependency) *Manager {
	return &Manager{
		store: dep.Store,
		jwt:   dep.JWT,
		hmac:  dep.HMAC,
		uid:   dep.UID,
		clock: dep.Clock,
		cfg:   dep.Config,
		ins:   dep.Instrument,
	}
}

func (m *Manager) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return m.ins.Tracer("auth.token").Start(ctx, name)
}

// IssuePair mints a signed access/refresh pair for the user and persists the
// refresh token's digest with delivery provenance.
func (m *Manager) IssuePair(ctx context.Context, user *entity.User, meta valueobject.JSONMap) (*Pair, error) {
	ctx, span := m.startSpan(ctx, "IssuePair")
	defer span.End()

	accessToken, err := m.jwt.GenerateAccess(user.ID, user.Username, string(user.Role))
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access token", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	refreshToken, err := m.jwt.GenerateRefresh(user.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate refresh token", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	refreshHash, err := m.hmac.Hash(refreshToken)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash refresh token", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := m.store.CreateRefreshToken(ctx, entity.RefreshToken{
		ID:        m.uid.Generate(),
		UserID:    user.ID,
		TokenHash: string(refreshHash),
		Metadata:  meta,
		ExpiresAt: m.clock.Now().Add(m.cfg.GetDay("modules.auth.jwt.refresh_token_day")),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to store refresh token record", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &Pair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Rotate redeems a presented refresh token for a fresh pair.
//
// A token rotates at most once: the stored record's revoked flag is flipped
// with a conditional update, so of two concurrent callers presenting the
// same token at most one wins. Presenting an already-rotated token is
// treated as reuse and revokes every session of the owner.
func (m *Manager) Rotate(ctx context.Context, presented string, meta valueobject.JSONMap) (*Pair, error) {
	ctx, span := m.startSpan(ctx, "Rotate")
	defer span.End()

	if _, err := m.jwt.Verify(presented, jwt.KindRefresh); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, goerror.NewBusiness("refresh token expired", goerror.CodeExpired)
		}
		slog.WarnContext(ctx, "presented refresh token failed verification", "error", err)
		return nil, goerror.NewBusiness("invalid refresh token", goerror.CodeUnauthorized)
	}

	presentedHash, err := m.hmac.Hash(presented)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash presented refresh token", "error", err)
		return nil, goerror.NewServer(err)
	}

	rt, err := m.store.GetUserRefreshToken(ctx, string(presentedHash))
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "presented refresh token is unknown")
		return nil, goerror.NewBusiness("refresh token revoked or unknown", goerror.CodeRevoked)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to load refresh token record", "error", err)
		return nil, goerror.NewServer(err)
	}

	if rt.RefreshRevoked {
		if rt.RefreshReplacedByTokenID != nil {
			// The token was already rotated once; a second presentation
			// means it leaked. Kill every session of this user.
			if err := m.store.RevokeAllRefreshTokens(ctx, rt.UserID); err != nil {
				slog.ErrorContext(ctx, "failed to revoke all refresh tokens", "user_id", rt.UserID, "error", err)
			}

			slog.WarnContext(ctx, "refresh token reuse detected", "user_id", rt.UserID)
			return nil, goerror.NewBusiness("token reuse detected, please log in again", goerror.CodeRevoked)
		}

		slog.WarnContext(ctx, "presented refresh token is revoked", "refresh_token_id", rt.RefreshID)
		return nil, goerror.NewBusiness("refresh token revoked or unknown", goerror.CodeRevoked)
	}

	if m.clock.Now().After(rt.RefreshExpiresAt) {
		slog.WarnContext(ctx, "presented refresh token record is expired", "refresh_token_id", rt.RefreshID)
		return nil, goerror.NewBusiness("refresh token expired", goerror.CodeExpired)
	}

	if err := ensureOwnerStatus(ctx, rt.UserID, rt.UserStatus); err != nil {
		return nil, err
	}

	owner := &entity.User{
		ID:       rt.UserID,
		Username: rt.Username,
		Role:     rt.UserRole,
	}

	accessToken, err := m.jwt.GenerateAccess(owner.ID, owner.Username, string(owner.Role))
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access token", "user_id", owner.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	refreshToken, err := m.jwt.GenerateRefresh(owner.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate refresh token", "user_id", owner.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	newHash, err := m.hmac.Hash(refreshToken)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash new refresh token", "error", err)
		return nil, goerror.NewServer(err)
	}

	err = m.store.RotateRefreshToken(ctx, entity.RotateRefreshToken{
		NewID:        m.uid.Generate(),
		OldID:        rt.RefreshID,
		UserID:       owner.ID,
		NewTokenHash: string(newHash),
		NewExpiresAt: m.clock.Now().Add(m.cfg.GetDay("modules.auth.jwt.refresh_token_day")),
		NewMetadata:  meta,
	})
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "refresh token lost rotation race", "refresh_token_id", rt.RefreshID)
		return nil, goerror.NewBusiness("refresh token revoked or unknown", goerror.CodeRevoked)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to rotate refresh token", "error", err)
		return nil, goerror.NewServer(err)
	}

	return &Pair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Revoke marks the presented token's record revoked for logout. It is
// idempotent: unknown or already-revoked tokens are not an error.
func (m *Manager) Revoke(ctx context.Context, presented string) error {
	ctx, span := m.startSpan(ctx, "Revoke")
	defer span.End()

	tokenHash, err := m.hmac.Hash(presented)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash refresh token", "error", err)
		return goerror.NewServer(err)
	}

	if err := m.store.RevokeRefreshToken(ctx, string(tokenHash)); err != nil {
		slog.ErrorContext(ctx, "failed to revoke refresh token", "error", err)
		return goerror.NewServer(err)
	}

	return nil
}

// RevokeAll revokes every live refresh token of the user.
func (m *Manager) RevokeAll(ctx context.Context, userID int64) error {
	ctx, span := m.startSpan(ctx, "RevokeAll")
	defer span.End()

	if err := m.store.RevokeAllRefreshTokens(ctx, userID); err != nil {
		slog.ErrorContext(ctx, "failed to revoke all refresh tokens", "user_id", userID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}

// DecodeAccess verifies signature, expiry, and the access type discriminator.
func (m *Manager) DecodeAccess(tokenStr string) (*jwt.Claims, error) {
	clm, err := m.jwt.Verify(tokenStr, jwt.KindAccess)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, goerror.NewBusiness("access token expired", goerror.CodeExpired)
		}
		return nil, goerror.NewBusiness("invalid access token", goerror.CodeUnauthorized)
	}

	return &clm, nil
}

func ensureOwnerStatus(ctx context.Context, userID int64, status entity.UserStatus) error {
	switch status.Ensure() {
	case entity.UserStatusActive:
		return nil
	case entity.UserStatusUnverified:
		slog.WarnContext(ctx, "refresh token owner is unverified", "user_id", userID)
		return goerror.NewBusiness("account not verified", goerror.CodeForbidden)
	case entity.UserStatusBanned:
		slog.WarnContext(ctx, "refresh token owner is banned", "user_id", userID)
		return goerror.NewBusiness("account is banned", goerror.CodeForbidden)
	default:
		slog.WarnContext(ctx, "refresh token owner status is unrecognized", "user_id", userID)
		return goerror.NewBusiness("account status is unrecognized", goerror.CodeForbidden)
	}
}
