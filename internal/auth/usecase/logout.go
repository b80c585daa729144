package usecase

import (
	"context"

	"github.com/otpgate/otpgate/internal/pkg/goerror"
)

type LogoutInput struct {
	RefreshToken string `validate:"required"`
}

// Logout revokes the presented refresh token for the authenticated caller.
// Logging out twice, or with a token that was never issued, succeeds.
func (s *Usecase) Logout(ctx context.Context, in LogoutInput) error {
	ctx, span := s.startSpan(ctx, "Logout")
	defer span.End()

	if _, err := s.authenticated(ctx); err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	return s.token.Revoke(ctx, in.RefreshToken)
}
