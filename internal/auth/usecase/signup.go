package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/otpgate/otpgate/internal/auth/entity"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
)

type SignupInput struct {
	Username string `validate:"required,min=3,max=32,alphanum"`
	Email    string `validate:"omitempty,email"`
	Phone    string `validate:"omitempty,e164"`
	Password string `validate:"required,password"`
	ClientIP string
}

type SignupOutput struct {
	UserID    int64
	OtpTarget string
}

// Signup creates an unverified account and sends a signup code to the
// preferred contact channel. The account only becomes usable after
// SignupVerify.
func (s *Usecase) Signup(ctx context.Context, in SignupInput) (*SignupOutput, error) {
	ctx, span := s.startSpan(ctx, "Signup")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if err := s.rateLimit(ctx, "signup", in.ClientIP); err != nil {
		return nil, err
	}

	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	phone := strings.TrimSpace(in.Phone)

	if _, err := s.repoDB.GetUserByUsername(ctx, username); err == nil {
		return nil, goerror.NewBusiness("username already taken", goerror.CodeConflict)
	} else if !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get user by username", "error", err)
		return nil, goerror.NewServer(err)
	}

	if email != "" {
		if _, err := s.repoDB.GetUserByEmail(ctx, email); err == nil {
			return nil, goerror.NewBusiness("email already registered", goerror.CodeConflict)
		} else if !errors.Is(err, goerror.ErrNotFound) {
			slog.ErrorContext(ctx, "failed to repo get user by email", "error", err)
			return nil, goerror.NewServer(err)
		}
	}

	if phone != "" {
		if _, err := s.repoDB.GetUserByPhone(ctx, phone); err == nil {
			return nil, goerror.NewBusiness("phone already registered", goerror.CodeConflict)
		} else if !errors.Is(err, goerror.ErrNotFound) {
			slog.ErrorContext(ctx, "failed to repo get user by phone", "error", err)
			return nil, goerror.NewServer(err)
		}
	}

	passwordHash, err := s.bcrypt.Hash(in.Password)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash password", "error", err)
		return nil, goerror.NewServer(err)
	}

	user := entity.NewUser{
		ID:       s.uid.Generate(),
		Username: username,
		Email:    email,
		Phone:    phone,
		Password: string(passwordHash),
		Role:     entity.RoleUser,
		Status:   entity.UserStatusUnverified,
	}

	if err := s.repoDB.CreateUser(ctx, user); err != nil {
		if errors.Is(err, goerror.ErrConflict) {
			return nil, goerror.NewBusiness("account already registered", goerror.CodeConflict)
		}
		slog.ErrorContext(ctx, "failed to repo create user", "error", err)
		return nil, goerror.NewServer(err)
	}

	target := (&entity.User{Username: username, Email: email, Phone: phone}).PreferredOtpTarget()

	if err := s.otp.Issue(ctx, target, entity.OtpPurposeSignup); err != nil {
		// The account is unusable without its code, so undo the insert
		// rather than leaving a stranded unverified row.
		if dErr := s.repoDB.DeleteUser(ctx, user.ID); dErr != nil {
			slog.ErrorContext(ctx, "failed to roll back user after otp issue failure", "user_id", user.ID, "error", dErr)
		}
		return nil, err
	}

	return &SignupOutput{UserID: user.ID, OtpTarget: target}, nil
}
