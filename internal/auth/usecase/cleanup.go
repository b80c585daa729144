package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
)

// Cleanup sweeps rows that expired on their own: dead OTP challenges, spent
// or expired refresh tokens, and unverified accounts past the signup grace
// period. Expiry is enforced inline on every read, so the sweep only
// reclaims storage; it never changes observable behavior. Revoked refresh
// tokens are kept for the grace window, replaying one inside it must still
// read as reuse and revoke the owner's other sessions.
func (s *Usecase) Cleanup(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "Cleanup")
	defer span.End()

	now := s.clock.Now()

	grace := s.cfg.GetHour("modules.auth.cleanup.grace_hour")
	if grace <= 0 {
		grace = 24 * time.Hour
	}

	backoff := retry.WithMaxRetries(3, retry.NewExponential(time.Second))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		challenges, err := s.repoDB.DeleteExpiredChallenges(ctx, now)
		if err != nil {
			return retry.RetryableError(err)
		}

		tokens, err := s.repoDB.DeleteStaleRefreshTokens(ctx, now, now.Add(-grace))
		if err != nil {
			return retry.RetryableError(err)
		}

		accounts, err := s.repoDB.DeleteUnverifiedUsersBefore(ctx, now.Add(-grace))
		if err != nil {
			return retry.RetryableError(err)
		}

		if challenges > 0 || tokens > 0 || accounts > 0 {
			slog.InfoContext(ctx, "cleanup sweep finished",
				"challenges", challenges, "refresh_tokens", tokens, "unverified_accounts", accounts)
		}

		return nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "cleanup sweep failed", "error", err)
		return err
	}

	return nil
}
