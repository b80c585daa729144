package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/otpgate/otpgate/internal/auth/entity"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
)

type LoginInput struct {
	Identifier string `validate:"required"`
	Password   string `validate:"required"`
	ClientIP   string
}

type LoginOutput struct {
	OtpRequired bool
	OtpTarget   string
}

// Login is the password step. A correct password never yields tokens
// directly; it sends a login code that LoginVerifyOtp exchanges for a pair.
func (s *Usecase) Login(ctx context.Context, in LoginInput) (*LoginOutput, error) {
	ctx, span := s.startSpan(ctx, "Login")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if err := s.rateLimit(ctx, "login", in.ClientIP); err != nil {
		return nil, err
	}

	identifier := strings.TrimSpace(in.Identifier)
	user, err := s.repoDB.GetUserByIdentifier(ctx, identifier)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user account not found for login")
		return nil, goerror.NewBusiness("invalid credentials", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by identifier", "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.ensureUserStatusAllowed(ctx, user.ID, user.Status); err != nil {
		return nil, err
	}

	if !s.bcrypt.Verify(user.Password, in.Password) {
		slog.WarnContext(ctx, "password does not match", "user_id", user.ID)
		return nil, goerror.NewBusiness("invalid credentials", goerror.CodeUnauthorized)
	}

	target := user.PreferredOtpTarget()
	if err := s.otp.Issue(ctx, target, entity.OtpPurposeLogin); err != nil {
		return nil, err
	}

	return &LoginOutput{OtpRequired: true, OtpTarget: target}, nil
}
