package db

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/otpgate/otpgate/internal/auth/entity"
)

// ReplaceChallenge deletes any live challenge for the same (target, purpose)
// and inserts the new one in one transaction, so at most one challenge is
// live per pair.
func (s *DB) ReplaceChallenge(ctx context.Context, ch entity.OtpChallenge) (err error) {
	ctx, span := s.startSpan(ctx, "ReplaceChallenge")
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

	if _, err = tx.Exec(ctx,
		`DELETE FROM auth_otp_challenges WHERE target = $1 AND purpose = $2`,
		ch.Target, ch.Purpose,
	); err != nil {
		err = s.mapError(err)
		return err
	}

	if _, err = tx.Exec(ctx, `
		INSERT INTO auth_otp_challenges (id, target, purpose, code_hash, attempts, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ch.ID, ch.Target, ch.Purpose, ch.CodeHash, ch.Attempts, ch.CreatedAt, ch.ExpiresAt,
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

func (s *DB) GetChallenge(ctx context.Context, target string, purpose entity.OtpPurpose) (_ *entity.OtpChallenge, err error) {
	ctx, span := s.startSpan(ctx, "GetChallenge")
	defer func() { s.endSpan(span, err) }()

	var ch entity.OtpChallenge
	err = s.conn.QueryRow(ctx, `
		SELECT id, target, purpose, code_hash, attempts, created_at, expires_at
		FROM auth_otp_challenges
		WHERE target = $1 AND purpose = $2`,
		target, purpose,
	).Scan(&ch.ID, &ch.Target, &ch.Purpose, &ch.CodeHash, &ch.Attempts, &ch.CreatedAt, &ch.ExpiresAt)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &ch, nil
}

func (s *DB) DeleteChallenge(ctx context.Context, id int64) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteChallenge")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `DELETE FROM auth_otp_challenges WHERE id = $1`, id)

	err = s.mapError(err)
	return err
}

func (s *DB) IncrementChallengeAttempts(ctx context.Context, id int64) (err error) {
	ctx, span := s.startSpan(ctx, "IncrementChallengeAttempts")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx,
		`UPDATE auth_otp_challenges SET attempts = attempts + 1 WHERE id = $1`, id)

	err = s.mapError(err)
	return err
}

// DeleteExpiredChallenges sweeps challenges whose expiry passed before cutoff
// and reports how many rows went away.
func (s *DB) DeleteExpiredChallenges(ctx context.Context, cutoff time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "DeleteExpiredChallenges")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx,
		`DELETE FROM auth_otp_challenges WHERE expires_at < $1`, cutoff)
	if err != nil {
		err = s.mapError(err)
		return 0, err
	}

	return tag.RowsAffected(), nil
}
