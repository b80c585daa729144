// Package app assembles the process: configuration, telemetry, shared
// libraries, backing resources, the HTTP server, and the feature modules
// that hang off it. Construction is eager and fail-fast; a broken
// dependency kills the process before it ever accepts a request.
package app

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
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
	"github.com/redis/go-redis/v9"
)

// closer is one resource teardown step, run in registration order on Stop.
type closer struct {
	name string
	fn   func(context.Context) error
}

// App owns every long-lived dependency and the lifecycle around them.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	config config.Config
	ins    instrument.Instrumentation

	// shared libraries, stateless or cheap
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	hmac      hash.Hash
	bcrypt    hash.Hash
	uid       uid.NumberID
	uuid      uid.StringID
	jwt       jwt.JWT

	// backing resources with connections to tear down
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	limiter   ratelimit.Limiter
	mail      mail.Mail
	messaging messaging.Messaging

	router     *router.Router
	httpServer *http.Server

	closers []closer
}

// New builds a fully wired App. Each init step either succeeds or exits
// the process; the order matters, later steps consume earlier ones.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	a := &App{ctx: ctx, cancel: cancel}

	a.initConfig()
	a.initInstrument()
	a.initLibraries()
	a.initJWT()
	a.initDatabase()
	a.initCache()
	a.initMail()
	a.initMessaging()
	a.initHTTPServer()
	a.initModules()
	a.initClosers()

	return a
}
