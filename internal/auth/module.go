// Package auth wires the OTP-gated authentication module: two-step login,
// signup verification, refresh-token rotation, and the admin surface.
package auth

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/otpgate/otpgate/internal/auth/inbound"
	"github.com/otpgate/otpgate/internal/auth/otp"
	"github.com/otpgate/otpgate/internal/auth/outbound/db"
	"github.com/otpgate/otpgate/internal/auth/outbound/notify"
	"github.com/otpgate/otpgate/internal/auth/token"
	"github.com/otpgate/otpgate/internal/auth/usecase"
	"github.com/otpgate/otpgate/internal/pkg/clock"
	"github.com/otpgate/otpgate/internal/pkg/config"
	"github.com/otpgate/otpgate/internal/pkg/goroutine"
	"github.com/otpgate/otpgate/internal/pkg/hash"
	"github.com/otpgate/otpgate/internal/pkg/instrument"
	"github.com/otpgate/otpgate/internal/pkg/jwt"
	"github.com/otpgate/otpgate/internal/pkg/mail"
	"github.com/otpgate/otpgate/internal/pkg/messaging"
	"github.com/otpgate/otpgate/internal/pkg/ratelimit"
	"github.com/otpgate/otpgate/internal/pkg/router"
	"github.com/otpgate/otpgate/internal/pkg/uid"
	"github.com/otpgate/otpgate/internal/pkg/validator"
)

type Dependency struct {
	Ctx        context.Context
	DBConn     *pgxpool.Pool              `validate:"required"`
	Limiter    ratelimit.Limiter          `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Mail       mail.Mail                  `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	HMAC       hash.Hash                  `validate:"required"`
	Bcrypt     hash.Hash                  `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	JWT        jwt.JWT                    `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	dbAuth := db.NewDB(dep.DBConn, dep.Instrument)
	notifier := notify.NewNotify(dep.Mail, dep.Messaging, dep.Instrument)

	otpManager := otp.New(otp.Dependency{
		Store:      dbAuth,
		Notifier:   notifier,
		HMAC:       dep.HMAC,
		UID:        dep.UID,
		Clock:      dep.Clock,
		Config:     dep.Config,
		Instrument: dep.Instrument,
	})

	tokenManager := token.New(token.Dependency{
		Store:      dbAuth,
		JWT:        dep.JWT,
		HMAC:       dep.HMAC,
		UID:        dep.UID,
		Clock:      dep.Clock,
		Config:     dep.Config,
		Instrument: dep.Instrument,
	})

	uc := usecase.New(usecase.Dependency{
		RepoDB:     dbAuth,
		Otp:        otpManager,
		Token:      tokenManager,
		Limiter:    dep.Limiter,
		Validator:  dep.Validator,
		Bcrypt:     dep.Bcrypt,
		UID:        dep.UID,
		Clock:      dep.Clock,
		Config:     dep.Config,
		Instrument: dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc, dep.Config)
	if dep.Ctx != nil {
		startJanitor(dep.Ctx, dep.Config, dep.Goroutine, uc)
	}

	return nil
}

// startJanitor runs the periodic storage sweep until the context is done.
func startJanitor(ctx context.Context, cfg config.Config, routine *goroutine.Manager, uc *usecase.Usecase) {
	interval := cfg.GetMinute("modules.auth.cleanup.interval_minute")
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	routine.Go(ctx, func(ctx context.Context) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				_ = uc.Cleanup(ctx)
			}
		}
	})
}
