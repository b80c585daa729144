package app

import (
	"log/slog"
	"os"

	"github.com/otpgate/otpgate/internal/auth"
)

// initModules mounts each enabled feature module onto the shared router.
// Only auth exists today; the config flag keeps the wiring uniform for
// the next one.
func (a *App) initModules() {
	if !a.config.GetBool("modules.auth.enabled") {
		return
	}

	err := auth.New(auth.Dependency{
		Ctx:        a.ctx,
		Config:     a.config,
		Instrument: a.ins,
		UID:        a.uid,
		Bcrypt:     a.bcrypt,
		HMAC:       a.hmac,
		Clock:      a.clock,
		Validator:  a.validator,
		Router:     a.router,
		DBConn:     a.dbConn,
		Limiter:    a.limiter,
		Messaging:  a.messaging,
		Mail:       a.mail,
		Goroutine:  a.goroutine,
		JWT:        a.jwt,
	})
	if err != nil {
		slog.Error("failed to init module auth", "error", err)
		os.Exit(1)
	}
}
