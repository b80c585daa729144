package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/otpgate/otpgate/internal/auth/entity"
	"github.com/otpgate/otpgate/internal/auth/token"
	"github.com/otpgate/otpgate/internal/pkg/clock"
	"github.com/otpgate/otpgate/internal/pkg/config"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
	"github.com/otpgate/otpgate/internal/pkg/hash"
	"github.com/otpgate/otpgate/internal/pkg/instrument"
	"github.com/otpgate/otpgate/internal/pkg/jwt"
	"github.com/otpgate/otpgate/internal/pkg/ratelimit"
	"github.com/otpgate/otpgate/internal/pkg/uid"
	"github.com/otpgate/otpgate/internal/pkg/validator"
	"github.com/otpgate/otpgate/internal/pkg/valueobject"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	CreateUser(ctx context.Context, user entity.NewUser) error
	GetUserByID(ctx context.Context, id int64) (*entity.User, error)
	GetUserByUsername(ctx context.Context, username string) (*entity.User, error)
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	GetUserByPhone(ctx context.Context, phone string) (*entity.User, error)
	GetUserByIdentifier(ctx context.Context, identifier string) (*entity.User, error)
	GetUserList(ctx context.Context, filter entity.UserListFilter) ([]entity.User, int64, error)
	GetUserStats(ctx context.Context) (*entity.UserStats, error)
	DeleteUser(ctx context.Context, id int64) error
	UpdateUserStatus(ctx context.Context, id int64, oldStatus, newStatus entity.UserStatus) error

	DeleteExpiredChallenges(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteStaleRefreshTokens(ctx context.Context, expiredBefore, revokedBefore time.Time) (int64, error)
	DeleteUnverifiedUsersBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type otpManager interface {
	Issue(ctx context.Context, target string, purpose entity.OtpPurpose) error
	Verify(ctx context.Context, target, code string, purpose entity.OtpPurpose) error
}

type tokenManager interface {
	IssuePair(ctx context.Context, user *entity.User, meta valueobject.JSONMap) (*token.Pair, error)
	Rotate(ctx context.Context, presented string, meta valueobject.JSONMap) (*token.Pair, error)
	Revoke(ctx context.Context, presented string) error
	RevokeAll(ctx context.Context, userID int64) error
}

type Usecase struct {
	repoDB    repoDB
	otp       otpManager
	token     tokenManager
	limiter   ratelimit.Limiter
	validator validator.Validator
	bcrypt    hash.Hash
	uid       uid.NumberID
	clock     clock.Clocker
	cfg       config.Config
	ins       instrument.Instrumentation
}

type Dependency struct {
	RepoDB     repoDB
	Otp        otpManager
	Token      tokenManager
	Limiter    ratelimit.Limiter
	Validator  validator.Validator
	Bcrypt     hash.Hash
	UID        uid.NumberID
	Clock      clock.Clocker
	Config     config.Config
	Instrument instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:    dep.RepoDB,
		otp:       dep.Otp,
		token:     dep.Token,
		limiter:   dep.Limiter,
		validator: dep.Validator,
		bcrypt:    dep.Bcrypt,
		uid:       dep.UID,
		clock:     dep.Clock,
		cfg:       dep.Config,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("auth.usecase").Start(ctx, name)
}

// rateLimit counts a hit for "{op}:{ip}" against the operation's configured
// fixed window. A zero or missing limit disables limiting for the operation.
func (s *Usecase) rateLimit(ctx context.Context, op, ip string) error {
	limit := s.cfg.GetInt64("modules.auth.ratelimit." + op + ".limit")
	if limit <= 0 {
		return nil
	}

	window := s.cfg.GetMinute("modules.auth.ratelimit." + op + ".window_minute")
	if window <= 0 {
		window = time.Hour
	}

	allowed, remaining := s.limiter.Check(ctx, op+":"+ip, limit, window)
	if !allowed {
		slog.WarnContext(ctx, "rate limit exceeded", "operation", op)
		return goerror.NewBusiness("too many requests, try again later", goerror.CodeTooManyRequest)
	}

	slog.DebugContext(ctx, "rate limit check passed", "operation", op, "remaining", remaining)
	return nil
}

func (s *Usecase) ensureUserStatusAllowed(ctx context.Context, userID int64, status entity.UserStatus) error {
	switch status.Ensure() {
	case entity.UserStatusUnverified:
		slog.WarnContext(ctx, "user account is unverified", "user_id", userID)
		return goerror.NewBusiness("account not verified", goerror.CodeForbidden)

	case entity.UserStatusBanned:
		slog.WarnContext(ctx, "user account is banned", "user_id", userID)
		return goerror.NewBusiness("account is banned", goerror.CodeForbidden)

	case entity.UserStatusActive:
		return nil

	default:
		slog.WarnContext(ctx, "user account status is unrecognized", "user_id", userID)
		return goerror.NewBusiness("account status is unrecognized", goerror.CodeForbidden)
	}
}

func (s *Usecase) authenticated(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}
	return clm, nil
}

func (s *Usecase) authenticatedAdmin(ctx context.Context) (*jwt.Claims, error) {
	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	if entity.Role(clm.Role) != entity.RoleAdmin {
		return nil, goerror.NewBusiness("Account not allowed", goerror.CodeForbidden)
	}

	return clm, nil
}

func clientMeta(ip, userAgent string) valueobject.JSONMap {
	meta := valueobject.JSONMap{}
	if ip != "" {
		meta.Set("ip", ip)
	}
	if userAgent != "" {
		meta.Set("user_agent", userAgent)
	}
	return meta
}
