package usecase

import (
	"context"
	"testing"

	"github.com/otpgate/otpgate/internal/auth/entity"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginVerifyOtp(t *testing.T) {
	validInput := LoginVerifyOtpInput{
		Target:    "jo@example.com",
		Code:      "123456",
		ClientIP:  "10.0.0.1",
		UserAgent: "curl/8.0",
	}

	t.Run("SuccessMintsPair", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		fx.repo.getUserByIdentifier = func(_ context.Context, _ string) (*entity.User, error) {
			return &entity.User{ID: 7, Username: "josie", Status: entity.UserStatusActive}, nil
		}

		// Act
		out, err := fx.uc.LoginVerifyOtp(context.Background(), validInput)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "fake-access", out.AccessToken)
		assert.Equal(t, "fake-refresh", out.RefreshToken)
		assert.Equal(t, []entity.OtpPurpose{entity.OtpPurposeLogin}, fx.otp.verifiedPurposes)

		require.Len(t, fx.token.issuedMeta, 1)
		assert.Equal(t, "10.0.0.1", fx.token.issuedMeta[0].GetString("ip"))
		assert.Equal(t, "curl/8.0", fx.token.issuedMeta[0].GetString("user_agent"))
	})

	t.Run("WrongCode", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		fx.otp.verifyErr = goerror.NewBusiness("invalid verification code, 1 attempts remaining", goerror.CodeUnauthorized)

		// Act
		_, err := fx.uc.LoginVerifyOtp(context.Background(), validInput)

		// Assert
		assert.Equal(t, goerror.CodeUnauthorized, errCode(t, err))
		assert.Empty(t, fx.token.issuedFor)
	})

	t.Run("NoAccountForTarget", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)

		// Act
		_, err := fx.uc.LoginVerifyOtp(context.Background(), validInput)

		// Assert
		assert.Equal(t, goerror.CodeNotFound, errCode(t, err))
	})

	t.Run("AccountBannedBetweenSteps", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		fx.repo.getUserByIdentifier = func(_ context.Context, _ string) (*entity.User, error) {
			return &entity.User{ID: 7, Status: entity.UserStatusBanned}, nil
		}

		// Act
		_, err := fx.uc.LoginVerifyOtp(context.Background(), validInput)

		// Assert
		assert.Equal(t, goerror.CodeForbidden, errCode(t, err))
		assert.Empty(t, fx.token.issuedFor)
	})

	t.Run("ValidationFailure", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)

		// Act
		_, err := fx.uc.LoginVerifyOtp(context.Background(), LoginVerifyOtpInput{Target: "jo@example.com", Code: "12"})

		// Assert
		assert.Equal(t, goerror.CodeInvalidInput, errCode(t, err))
		assert.Empty(t, fx.otp.verifiedCodes)
	})
}
