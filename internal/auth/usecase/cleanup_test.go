package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanup(t *testing.T) {
	t.Run("SweepsAllThreeTables", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		var challengeCutoff, tokenExpiredCutoff, tokenRevokedCutoff, accountCutoff time.Time
		fx.repo.deleteExpiredChallenges = func(_ context.Context, cutoff time.Time) (int64, error) {
			challengeCutoff = cutoff
			return 3, nil
		}
		fx.repo.deleteStaleRefreshTokens = func(_ context.Context, expiredBefore, revokedBefore time.Time) (int64, error) {
			tokenExpiredCutoff = expiredBefore
			tokenRevokedCutoff = revokedBefore
			return 2, nil
		}
		fx.repo.deleteUnverifiedUsersBefore = func(_ context.Context, cutoff time.Time) (int64, error) {
			accountCutoff = cutoff
			return 1, nil
		}

		// Act
		err := fx.uc.Cleanup(context.Background())

		// Assert
		require.NoError(t, err)
		assert.Equal(t, fx.clock.now, challengeCutoff)
		assert.Equal(t, fx.clock.now, tokenExpiredCutoff)
		assert.Equal(t, fx.clock.now.Add(-24*time.Hour), tokenRevokedCutoff)
		assert.Equal(t, fx.clock.now.Add(-24*time.Hour), accountCutoff)
	})

	t.Run("RetainsFreshRevokedTokens", func(t *testing.T) {
		// Arrange: a token rotated just before the sweep. Its revoked row is
		// the reuse-detection evidence, so the sweep must not claim it yet.
		fx := newFixture(t)
		revokedAt := fx.clock.now.Add(-time.Minute)
		var revokedBefore time.Time
		fx.repo.deleteStaleRefreshTokens = func(_ context.Context, _, cutoff time.Time) (int64, error) {
			revokedBefore = cutoff
			return 0, nil
		}

		// Act
		err := fx.uc.Cleanup(context.Background())

		// Assert
		require.NoError(t, err)
		assert.True(t, revokedAt.After(revokedBefore),
			"a just-revoked row must fall outside the revoked-leg cutoff")
	})

	t.Run("RetriesTransientFailure", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		calls := 0
		fx.repo.deleteExpiredChallenges = func(_ context.Context, _ time.Time) (int64, error) {
			calls++
			if calls == 1 {
				return 0, errors.New("connection reset")
			}
			return 0, nil
		}

		// Act
		err := fx.uc.Cleanup(context.Background())

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("GivesUpWhenContextCancelled", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		ctx, cancel := context.WithCancel(context.Background())
		fx.repo.deleteExpiredChallenges = func(_ context.Context, _ time.Time) (int64, error) {
			cancel()
			return 0, errors.New("connection reset")
		}

		// Act
		err := fx.uc.Cleanup(ctx)

		// Assert
		assert.Error(t, err)
	})
}
