package usecase

import (
	"context"

	"github.com/otpgate/otpgate/internal/pkg/goerror"
)

type RefreshTokenInput struct {
	RefreshToken string `validate:"required"`
	ClientIP     string
	UserAgent    string
}

type RefreshTokenOutput struct {
	AccessToken  string
	RefreshToken string
}

// RefreshToken exchanges a live refresh token for a fresh pair. The
// presented token is spent whether or not the exchange succeeds.
func (s *Usecase) RefreshToken(ctx context.Context, in RefreshTokenInput) (*RefreshTokenOutput, error) {
	ctx, span := s.startSpan(ctx, "RefreshToken")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	pair, err := s.token.Rotate(ctx, in.RefreshToken, clientMeta(in.ClientIP, in.UserAgent))
	if err != nil {
		return nil, err
	}

	return &RefreshTokenOutput{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}
