package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/otpgate/otpgate/internal/auth/entity"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
)

type WhoamiOutput struct {
	ID        int64
	Username  string
	Email     string
	Phone     string
	Role      entity.Role
	Status    entity.UserStatus
	CreatedAt time.Time
}

// Whoami returns the profile of the access token's subject.
func (s *Usecase) Whoami(ctx context.Context) (*WhoamiOutput, error) {
	ctx, span := s.startSpan(ctx, "Whoami")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	userID, err := strconv.ParseInt(clm.Subject, 10, 64)
	if err != nil {
		slog.WarnContext(ctx, "access token subject is not numeric", "error", err)
		return nil, goerror.NewBusiness("invalid access token", goerror.CodeUnauthorized)
	}

	user, err := s.repoDB.GetUserByID(ctx, userID)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusiness("account not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &WhoamiOutput{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Phone:     user.Phone,
		Role:      user.Role,
		Status:    user.Status,
		CreatedAt: user.CreatedAt,
	}, nil
}
