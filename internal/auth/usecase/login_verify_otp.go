package usecase

import (
	"context"
	"strings"

	"github.com/otpgate/otpgate/internal/auth/entity"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
)

type LoginVerifyOtpInput struct {
	Target    string `validate:"required"`
	Code      string `validate:"required,len=6,numeric"`
	ClientIP  string
	UserAgent string
}

type LoginVerifyOtpOutput struct {
	AccessToken  string
	RefreshToken string
}

// LoginVerifyOtp consumes the login code and mints the session's token pair.
func (s *Usecase) LoginVerifyOtp(ctx context.Context, in LoginVerifyOtpInput) (*LoginVerifyOtpOutput, error) {
	ctx, span := s.startSpan(ctx, "LoginVerifyOtp")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	target := strings.TrimSpace(in.Target)

	if err := s.otp.Verify(ctx, target, in.Code, entity.OtpPurposeLogin); err != nil {
		return nil, err
	}

	user, err := s.resolveUserByTarget(ctx, target)
	if err != nil {
		return nil, err
	}

	if err := s.ensureUserStatusAllowed(ctx, user.ID, user.Status); err != nil {
		return nil, err
	}

	pair, err := s.token.IssuePair(ctx, user, clientMeta(in.ClientIP, in.UserAgent))
	if err != nil {
		return nil, err
	}

	return &LoginVerifyOtpOutput{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}
