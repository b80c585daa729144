package inbound

import (
	"context"
	"time"

	"github.com/otpgate/otpgate/internal/auth/entity"
	"github.com/otpgate/otpgate/internal/auth/usecase"
	"github.com/otpgate/otpgate/internal/pkg/config"
	"github.com/otpgate/otpgate/internal/pkg/router"
)

type uc interface {
	Signup(ctx context.Context, in usecase.SignupInput) (*usecase.SignupOutput, error)
	SignupVerify(ctx context.Context, in usecase.SignupVerifyInput) (*usecase.SignupVerifyOutput, error)

	Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error)
	LoginVerifyOtp(ctx context.Context, in usecase.LoginVerifyOtpInput) (*usecase.LoginVerifyOtpOutput, error)

	RefreshToken(ctx context.Context, in usecase.RefreshTokenInput) (*usecase.RefreshTokenOutput, error)
	Logout(ctx context.Context, in usecase.LogoutInput) error

	Whoami(ctx context.Context) (*usecase.WhoamiOutput, error)

	AdminUsers(ctx context.Context, in usecase.AdminUsersInput) (*usecase.AdminUsersOutput, error)
	AdminStats(ctx context.Context) (*entity.UserStats, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc, cfg config.Config) {
	end := &HTTPEndpoint{
		uc: uc,
		refreshTTL: func() time.Duration {
			return cfg.GetDay("modules.auth.jwt.refresh_token_day")
		},
	}

	// Signup & verification
	r.POST("/api/v1/auth/signup", end.Signup)
	r.POST("/api/v1/auth/signup/verify", end.SignupVerify)

	// Two-step login
	r.POST("/api/v1/auth/login", end.Login)
	r.POST("/api/v1/auth/login/verify-otp", end.LoginVerifyOtp)

	// Session lifecycle
	r.POST("/api/v1/auth/refresh", end.RefreshToken)
	r.POST("/api/v1/auth/logout", end.Logout) // need authenticated

	// Profile (need authenticated)
	r.GET("/api/v1/auth/me", end.Whoami)

	// Operator surface (need authenticated & admin role)
	r.GET("/api/v1/admin/users", end.AdminUsers)
	r.GET("/api/v1/admin/stats", end.AdminStats)
}
