package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/otpgate/otpgate/internal/auth/entity"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
)

type SignupVerifyInput struct {
	Target string `validate:"required"`
	Code   string `validate:"required,len=6,numeric"`
}

type SignupVerifyOutput struct {
	UserID int64
}

// SignupVerify consumes the signup code and activates the account.
func (s *Usecase) SignupVerify(ctx context.Context, in SignupVerifyInput) (*SignupVerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "SignupVerify")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	target := strings.TrimSpace(in.Target)

	if err := s.otp.Verify(ctx, target, in.Code, entity.OtpPurposeSignup); err != nil {
		return nil, err
	}

	user, err := s.resolveUserByTarget(ctx, target)
	if err != nil {
		return nil, err
	}

	if user.Status.Ensure() == entity.UserStatusActive {
		// Already verified; consuming the code again is harmless.
		return &SignupVerifyOutput{UserID: user.ID}, nil
	}

	err = s.repoDB.UpdateUserStatus(ctx, user.ID, entity.UserStatusUnverified, entity.UserStatusActive)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user left unverified state during verification", "user_id", user.ID)
		return nil, goerror.NewBusiness("account cannot be verified", goerror.CodeForbidden)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo update user status", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &SignupVerifyOutput{UserID: user.ID}, nil
}

// resolveUserByTarget finds the account a delivery target belongs to.
func (s *Usecase) resolveUserByTarget(ctx context.Context, target string) (*entity.User, error) {
	user, err := s.repoDB.GetUserByIdentifier(ctx, target)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "no account matches otp target")
		return nil, goerror.NewBusiness("account not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by identifier", "error", err)
		return nil, goerror.NewServer(err)
	}

	return user, nil
}
