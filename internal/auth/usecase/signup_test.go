package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/otpgate/otpgate/internal/auth/entity"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignup(t *testing.T) {
	validInput := func() SignupInput {
		return SignupInput{
			Username: "josie",
			Email:    "jo@example.com",
			Password: "Secret123!",
			ClientIP: "10.0.0.1",
		}
	}

	t.Run("Success", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)

		// Act
		out, err := fx.uc.Signup(context.Background(), validInput())

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "jo@example.com", out.OtpTarget)

		require.Len(t, fx.repo.createdUsers, 1)
		created := fx.repo.createdUsers[0]
		assert.Equal(t, out.UserID, created.ID)
		assert.Equal(t, entity.RoleUser, created.Role)
		assert.Equal(t, entity.UserStatusUnverified, created.Status)
		assert.NotEqual(t, "Secret123!", created.Password)
		assert.True(t, fx.bcrypt.Verify(created.Password, "Secret123!"))

		assert.Equal(t, []string{"jo@example.com"}, fx.otp.issuedTargets)
		assert.Equal(t, []entity.OtpPurpose{entity.OtpPurposeSignup}, fx.otp.issuedPurposes)
	})

	t.Run("NormalizesEmail", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		in := validInput()
		in.Email = "JO@Example.COM"

		// Act
		out, err := fx.uc.Signup(context.Background(), in)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "jo@example.com", out.OtpTarget)
		assert.Equal(t, "jo@example.com", fx.repo.createdUsers[0].Email)
	})

	t.Run("ValidationFailure", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(*SignupInput)
		}{
			{"ShortUsername", func(in *SignupInput) { in.Username = "ab" }},
			{"NonAlnumUsername", func(in *SignupInput) { in.Username = "jo sie!" }},
			{"BadEmail", func(in *SignupInput) { in.Email = "not-an-email" }},
			{"BadPhone", func(in *SignupInput) { in.Phone = "08123" }},
			{"ShortPassword", func(in *SignupInput) { in.Password = "short" }},
			{"MissingPassword", func(in *SignupInput) { in.Password = "" }},
		}

		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				// Arrange
				fx := newFixture(t)
				in := validInput()
				tc.mutate(&in)

				// Act
				_, err := fx.uc.Signup(context.Background(), in)

				// Assert
				assert.Equal(t, goerror.CodeInvalidInput, errCode(t, err))
				assert.Empty(t, fx.repo.createdUsers)
			})
		}
	})

	t.Run("RateLimited", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		fx.limiter.denyKeys["signup:10.0.0.1"] = true

		// Act
		_, err := fx.uc.Signup(context.Background(), validInput())

		// Assert
		assert.Equal(t, goerror.CodeTooManyRequest, errCode(t, err))
		assert.Empty(t, fx.repo.createdUsers)
	})

	t.Run("UsernameTaken", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		fx.repo.getUserByUsername = func(_ context.Context, _ string) (*entity.User, error) {
			return &entity.User{ID: 1}, nil
		}

		// Act
		_, err := fx.uc.Signup(context.Background(), validInput())

		// Assert
		assert.Equal(t, goerror.CodeConflict, errCode(t, err))
		assert.EqualError(t, err, "username already taken")
	})

	t.Run("EmailTaken", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		fx.repo.getUserByEmail = func(_ context.Context, _ string) (*entity.User, error) {
			return &entity.User{ID: 1}, nil
		}

		// Act
		_, err := fx.uc.Signup(context.Background(), validInput())

		// Assert
		assert.Equal(t, goerror.CodeConflict, errCode(t, err))
		assert.EqualError(t, err, "email already registered")
	})

	t.Run("PhoneTaken", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		fx.repo.getUserByPhone = func(_ context.Context, _ string) (*entity.User, error) {
			return &entity.User{ID: 1}, nil
		}
		in := validInput()
		in.Phone = "+628111111111"

		// Act
		_, err := fx.uc.Signup(context.Background(), in)

		// Assert
		assert.Equal(t, goerror.CodeConflict, errCode(t, err))
		assert.EqualError(t, err, "phone already registered")
	})

	t.Run("InsertLosesUniquenessRace", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		fx.repo.createUser = func(_ context.Context, _ entity.NewUser) error {
			return goerror.ErrConflict
		}

		// Act
		_, err := fx.uc.Signup(context.Background(), validInput())

		// Assert
		assert.Equal(t, goerror.CodeConflict, errCode(t, err))
	})

	t.Run("DeliveryFailureRollsBackAccount", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		fx.otp.issueErr = goerror.NewDependency(errors.New("smtp unreachable"), "failed to deliver verification code")

		// Act
		_, err := fx.uc.Signup(context.Background(), validInput())

		// Assert
		assert.Equal(t, goerror.CodeDependency, errCode(t, err))
		require.Len(t, fx.repo.createdUsers, 1)
		assert.Equal(t, []int64{fx.repo.createdUsers[0].ID}, fx.repo.deletedUsers)
	})

	t.Run("PhoneOnlySignupTargetsPhone", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		in := SignupInput{
			Username: "josie",
			Phone:    "+628111111111",
			Password: "Secret123!",
			ClientIP: "10.0.0.1",
		}

		// Act
		out, err := fx.uc.Signup(context.Background(), in)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "+628111111111", out.OtpTarget)
	})
}
