package usecase

import (
	"context"
	"log/slog"

	"github.com/otpgate/otpgate/internal/auth/entity"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
)

// AdminStats reports account and session counts for operators.
func (s *Usecase) AdminStats(ctx context.Context) (*entity.UserStats, error) {
	ctx, span := s.startSpan(ctx, "AdminStats")
	defer span.End()

	if _, err := s.authenticatedAdmin(ctx); err != nil {
		return nil, err
	}

	stats, err := s.repoDB.GetUserStats(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user stats", "error", err)
		return nil, goerror.NewServer(err)
	}

	return stats, nil
}
