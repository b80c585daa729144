package db

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/otpgate/otpgate/internal/auth/entity"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
)

func (s *DB) CreateRefreshToken(ctx context.Context, rt entity.RefreshToken) (err error) {
	ctx, span := s.startSpan(ctx, "CreateRefreshToken")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		INSERT INTO auth_refresh_tokens (id, user_id, token_hash, metadata, expires_at)
		VALUES ($1, $2, $3, $4, $5)`,
		rt.ID, rt.UserID, rt.TokenHash, rt.Metadata, rt.ExpiresAt,
	)

	err = s.mapError(err)
	return err
}

func (s *DB) GetUserRefreshToken(ctx context.Context, tokenHash string) (_ *entity.UserRefreshToken, err error) {
	ctx, span := s.startSpan(ctx, "GetUserRefreshToken")
	defer func() { s.endSpan(span, err) }()

	var urt entity.UserRefreshToken
	err = s.conn.QueryRow(ctx, `
		SELECT u.id, u.username, u.role, u.status,
			t.id, t.revoked, t.replaced_by_token_id, t.expires_at
		FROM auth_refresh_tokens t
		JOIN auth_users u ON u.id = t.user_id
		WHERE t.token_hash = $1`,
		tokenHash,
	).Scan(
		&urt.UserID,
		&urt.Username,
		&urt.UserRole,
		&urt.UserStatus,
		&urt.RefreshID,
		&urt.RefreshRevoked,
		&urt.RefreshReplacedByTokenID,
		&urt.RefreshExpiresAt,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &urt, nil
}

// RotateRefreshToken revokes the old record and inserts its replacement in
// one transaction. The revoke is conditional on revoked = false, so of two
// racing rotations for the same token exactly one commits; the loser gets
// goerror.ErrNotFound.
func (s *DB) RotateRefreshToken(ctx context.Context, ro entity.RotateRefreshToken) (err error) {
	ctx, span := s.startSpan(ctx, "RotateRefreshToken")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback", "error", rErr)
		}
	}()

	tag, err := tx.Exec(ctx, `
		UPDATE auth_refresh_tokens
		SET revoked = true, replaced_by_token_id = $1
		WHERE id = $2 AND revoked = false`,
		ro.NewID, ro.OldID,
	)
	if err != nil {
		err = s.mapError(err)
		return err
	}

	if tag.RowsAffected() == 0 {
		err = goerror.ErrNotFound
		return err
	}

	if _, err = tx.Exec(ctx, `
		INSERT INTO auth_refresh_tokens (id, user_id, token_hash, metadata, expires_at)
		VALUES ($1, $2, $3, $4, $5)`,
		ro.NewID, ro.UserID, ro.NewTokenHash, ro.NewMetadata, ro.NewExpiresAt,
	); err != nil {
		err = s.mapError(err)
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		err = s.mapError(err)
		return err
	}

	return nil
}

// RevokeRefreshToken is idempotent: revoking an unknown or already-revoked
// token is not an error.
func (s *DB) RevokeRefreshToken(ctx context.Context, tokenHash string) (err error) {
	ctx, span := s.startSpan(ctx, "RevokeRefreshToken")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		UPDATE auth_refresh_tokens SET revoked = true
		WHERE token_hash = $1 AND revoked = false`,
		tokenHash,
	)

	err = s.mapError(err)
	return err
}

func (s *DB) RevokeAllRefreshTokens(ctx context.Context, userID int64) (err error) {
	ctx, span := s.startSpan(ctx, "RevokeAllRefreshTokens")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		UPDATE auth_refresh_tokens SET revoked = true
		WHERE user_id = $1 AND revoked = false`,
		userID,
	)

	err = s.mapError(err)
	return err
}

// DeleteStaleRefreshTokens sweeps rows that can never rotate again: tokens
// expired before expiredBefore, and revoked tokens created before
// revokedBefore. Revoked rows get the later cutoff because a rotated row's
// replaced_by_token_id is what marks a replayed token as reuse rather than
// an unknown one; deleting it too early downgrades reuse to a plain reject.
func (s *DB) DeleteStaleRefreshTokens(ctx context.Context, expiredBefore, revokedBefore time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "DeleteStaleRefreshTokens")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		DELETE FROM auth_refresh_tokens
		WHERE expires_at < $1 OR (revoked AND created_at < $2)`,
		expiredBefore, revokedBefore,
	)
	if err != nil {
		err = s.mapError(err)
		return 0, err
	}

	return tag.RowsAffected(), nil
}
