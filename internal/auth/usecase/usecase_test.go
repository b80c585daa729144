package usecase

import (
	"context"
	"testing"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
	"github.com/otpgate/otpgate/internal/auth/entity"
	"github.com/otpgate/otpgate/internal/auth/token"
	"github.com/otpgate/otpgate/internal/pkg/config"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
	"github.com/otpgate/otpgate/internal/pkg/hash"
	"github.com/otpgate/otpgate/internal/pkg/instrument"
	"github.com/otpgate/otpgate/internal/pkg/jwt"
	"github.com/otpgate/otpgate/internal/pkg/validator"
	"github.com/otpgate/otpgate/internal/pkg/valueobject"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	return f.now
}

type fakeNumberID struct {
	last int64
}

func (f *fakeNumberID) Generate() int64 {
	f.last++
	return f.last
}

// fakeRepoDB lets each test arrange only the calls it cares about. Getters
// default to not-found, mutators to success.
type fakeRepoDB struct {
	createUser          func(ctx context.Context, user entity.NewUser) error
	getUserByID         func(ctx context.Context, id int64) (*entity.User, error)
	getUserByUsername   func(ctx context.Context, username string) (*entity.User, error)
	getUserByEmail      func(ctx context.Context, email string) (*entity.User, error)
	getUserByPhone      func(ctx context.Context, phone string) (*entity.User, error)
	getUserByIdentifier func(ctx context.Context, identifier string) (*entity.User, error)
	getUserList         func(ctx context.Context, filter entity.UserListFilter) ([]entity.User, int64, error)
	getUserStats        func(ctx context.Context) (*entity.UserStats, error)
	deleteUser          func(ctx context.Context, id int64) error
	updateUserStatus    func(ctx context.Context, id int64, oldStatus, newStatus entity.UserStatus) error

	deleteExpiredChallenges     func(ctx context.Context, cutoff time.Time) (int64, error)
	deleteStaleRefreshTokens    func(ctx context.Context, expiredBefore, revokedBefore time.Time) (int64, error)
	deleteUnverifiedUsersBefore func(ctx context.Context, cutoff time.Time) (int64, error)

	createdUsers []entity.NewUser
	deletedUsers []int64
}

func (f *fakeRepoDB) CreateUser(ctx context.Context, user entity.NewUser) error {
	f.createdUsers = append(f.createdUsers, user)
	if f.createUser != nil {
		return f.createUser(ctx, user)
	}
	return nil
}

func (f *fakeRepoDB) GetUserByID(ctx context.Context, id int64) (*entity.User, error) {
	if f.getUserByID != nil {
		return f.getUserByID(ctx, id)
	}
	return nil, goerror.ErrNotFound
}

func (f *fakeRepoDB) GetUserByUsername(ctx context.Context, username string) (*entity.User, error) {
	if f.getUserByUsername != nil {
		return f.getUserByUsername(ctx, username)
	}
	return nil, goerror.ErrNotFound
}

func (f *fakeRepoDB) GetUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	if f.getUserByEmail != nil {
		return f.getUserByEmail(ctx, email)
	}
	return nil, goerror.ErrNotFound
}

func (f *fakeRepoDB) GetUserByPhone(ctx context.Context, phone string) (*entity.User, error) {
	if f.getUserByPhone != nil {
		return f.getUserByPhone(ctx, phone)
	}
	return nil, goerror.ErrNotFound
}

func (f *fakeRepoDB) GetUserByIdentifier(ctx context.Context, identifier string) (*entity.User, error) {
	if f.getUserByIdentifier != nil {
		return f.getUserByIdentifier(ctx, identifier)
	}
	return nil, goerror.ErrNotFound
}

func (f *fakeRepoDB) GetUserList(ctx context.Context, filter entity.UserListFilter) ([]entity.User, int64, error) {
	if f.getUserList != nil {
		return f.getUserList(ctx, filter)
	}
	return nil, 0, nil
}

func (f *fakeRepoDB) GetUserStats(ctx context.Context) (*entity.UserStats, error) {
	if f.getUserStats != nil {
		return f.getUserStats(ctx)
	}
	return &entity.UserStats{}, nil
}

func (f *fakeRepoDB) DeleteUser(ctx context.Context, id int64) error {
	f.deletedUsers = append(f.deletedUsers, id)
	if f.deleteUser != nil {
		return f.deleteUser(ctx, id)
	}
	return nil
}

func (f *fakeRepoDB) UpdateUserStatus(ctx context.Context, id int64, oldStatus, newStatus entity.UserStatus) error {
	if f.updateUserStatus != nil {
		return f.updateUserStatus(ctx, id, oldStatus, newStatus)
	}
	return nil
}

func (f *fakeRepoDB) DeleteExpiredChallenges(ctx context.Context, cutoff time.Time) (int64, error) {
	if f.deleteExpiredChallenges != nil {
		return f.deleteExpiredChallenges(ctx, cutoff)
	}
	return 0, nil
}

func (f *fakeRepoDB) DeleteStaleRefreshTokens(ctx context.Context, expiredBefore, revokedBefore time.Time) (int64, error) {
	if f.deleteStaleRefreshTokens != nil {
		return f.deleteStaleRefreshTokens(ctx, expiredBefore, revokedBefore)
	}
	return 0, nil
}

func (f *fakeRepoDB) DeleteUnverifiedUsersBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if f.deleteUnverifiedUsersBefore != nil {
		return f.deleteUnverifiedUsersBefore(ctx, cutoff)
	}
	return 0, nil
}

type fakeOtpManager struct {
	issueErr  error
	verifyErr error

	issuedTargets  []string
	issuedPurposes []entity.OtpPurpose

	verifiedTargets  []string
	verifiedCodes    []string
	verifiedPurposes []entity.OtpPurpose
}

func (f *fakeOtpManager) Issue(_ context.Context, target string, purpose entity.OtpPurpose) error {
	if f.issueErr != nil {
		return f.issueErr
	}
	f.issuedTargets = append(f.issuedTargets, target)
	f.issuedPurposes = append(f.issuedPurposes, purpose)
	return nil
}

func (f *fakeOtpManager) Verify(_ context.Context, target, code string, purpose entity.OtpPurpose) error {
	if f.verifyErr != nil {
		return f.verifyErr
	}
	f.verifiedTargets = append(f.verifiedTargets, target)
	f.verifiedCodes = append(f.verifiedCodes, code)
	f.verifiedPurposes = append(f.verifiedPurposes, purpose)
	return nil
}

type fakeTokenManager struct {
	pair      *token.Pair
	issueErr  error
	rotateErr error
	revokeErr error

	issuedFor     []int64
	issuedMeta    []valueobject.JSONMap
	rotatedTokens []string
	revokedTokens []string
	revokedAll    []int64
}

func (f *fakeTokenManager) IssuePair(_ context.Context, user *entity.User, meta valueobject.JSONMap) (*token.Pair, error) {
	if f.issueErr != nil {
		return nil, f.issueErr
	}
	f.issuedFor = append(f.issuedFor, user.ID)
	f.issuedMeta = append(f.issuedMeta, meta)
	return f.pairOrDefault(), nil
}

func (f *fakeTokenManager) Rotate(_ context.Context, presented string, _ valueobject.JSONMap) (*token.Pair, error) {
	if f.rotateErr != nil {
		return nil, f.rotateErr
	}
	f.rotatedTokens = append(f.rotatedTokens, presented)
	return f.pairOrDefault(), nil
}

func (f *fakeTokenManager) Revoke(_ context.Context, presented string) error {
	if f.revokeErr != nil {
		return f.revokeErr
	}
	f.revokedTokens = append(f.revokedTokens, presented)
	return nil
}

func (f *fakeTokenManager) RevokeAll(_ context.Context, userID int64) error {
	f.revokedAll = append(f.revokedAll, userID)
	return nil
}

func (f *fakeTokenManager) pairOrDefault() *token.Pair {
	if f.pair != nil {
		return f.pair
	}
	return &token.Pair{AccessToken: "fake-access", RefreshToken: "fake-refresh"}
}

type fakeLimiter struct {
	denyKeys map[string]bool

	checkedKeys []string
}

func (f *fakeLimiter) Check(_ context.Context, key string, limit int64, _ time.Duration) (bool, int64) {
	f.checkedKeys = append(f.checkedKeys, key)
	if f.denyKeys[key] {
		return false, 0
	}
	return true, limit
}

const usecaseTestConfig = `
modules:
  auth:
    ratelimit:
      signup:
        limit: 5
        window_minute: 60
      login:
        limit: 10
        window_minute: 60
    cleanup:
      grace_hour: 24
`

type fixture struct {
	uc      *Usecase
	repo    *fakeRepoDB
	otp     *fakeOtpManager
	token   *fakeTokenManager
	limiter *fakeLimiter
	bcrypt  hash.Hash
	clock   *fakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(usecaseTestConfig))
	require.NoError(t, err)

	v10, err := validator.NewV10Validator()
	require.NoError(t, err)

	repo := &fakeRepoDB{}
	otpMgr := &fakeOtpManager{}
	tokenMgr := &fakeTokenManager{}
	limiter := &fakeLimiter{denyKeys: map[string]bool{}}
	bcryptHash := hash.NewBcrypt(bcrypt.MinCost, "")
	clk := &fakeClock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}

	return &fixture{
		uc: New(Dependency{
			RepoDB:     repo,
			Otp:        otpMgr,
			Token:      tokenMgr,
			Limiter:    limiter,
			Validator:  v10,
			Bcrypt:     bcryptHash,
			UID:        &fakeNumberID{},
			Clock:      clk,
			Config:     cfg,
			Instrument: instrument.NewNoop(),
		}),
		repo:    repo,
		otp:     otpMgr,
		token:   tokenMgr,
		limiter: limiter,
		bcrypt:  bcryptHash,
		clock:   clk,
	}
}

func (fx *fixture) hashPassword(t *testing.T, plaintext string) string {
	t.Helper()

	hashed, err := fx.bcrypt.Hash(plaintext)
	require.NoError(t, err)
	return string(hashed)
}

func errCode(t *testing.T, err error) goerror.Code {
	t.Helper()

	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	return gerr.Code()
}

func authCtx(userID, role string) context.Context {
	return jwt.SetAuth(context.Background(), jwt.Claims{
		RegisteredClaims: libJWT.RegisteredClaims{Subject: userID},
		Role:             role,
	})
}
