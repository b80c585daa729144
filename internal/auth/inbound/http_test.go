package inbound

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/otpgate/otpgate/internal/auth/entity"
	"github.com/otpgate/otpgate/internal/auth/usecase"
	"github.com/otpgate/otpgate/internal/pkg/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUc struct {
	signup         func(ctx context.Context, in usecase.SignupInput) (*usecase.SignupOutput, error)
	signupVerify   func(ctx context.Context, in usecase.SignupVerifyInput) (*usecase.SignupVerifyOutput, error)
	login          func(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error)
	loginVerifyOtp func(ctx context.Context, in usecase.LoginVerifyOtpInput) (*usecase.LoginVerifyOtpOutput, error)
	refreshToken   func(ctx context.Context, in usecase.RefreshTokenInput) (*usecase.RefreshTokenOutput, error)
	logout         func(ctx context.Context, in usecase.LogoutInput) error
	whoami         func(ctx context.Context) (*usecase.WhoamiOutput, error)
	adminUsers     func(ctx context.Context, in usecase.AdminUsersInput) (*usecase.AdminUsersOutput, error)
	adminStats     func(ctx context.Context) (*entity.UserStats, error)
}

func (f *fakeUc) Signup(ctx context.Context, in usecase.SignupInput) (*usecase.SignupOutput, error) {
	return f.signup(ctx, in)
}

func (f *fakeUc) SignupVerify(ctx context.Context, in usecase.SignupVerifyInput) (*usecase.SignupVerifyOutput, error) {
	return f.signupVerify(ctx, in)
}

func (f *fakeUc) Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error) {
	return f.login(ctx, in)
}

func (f *fakeUc) LoginVerifyOtp(ctx context.Context, in usecase.LoginVerifyOtpInput) (*usecase.LoginVerifyOtpOutput, error) {
	return f.loginVerifyOtp(ctx, in)
}

func (f *fakeUc) RefreshToken(ctx context.Context, in usecase.RefreshTokenInput) (*usecase.RefreshTokenOutput, error) {
	return f.refreshToken(ctx, in)
}

func (f *fakeUc) Logout(ctx context.Context, in usecase.LogoutInput) error {
	return f.logout(ctx, in)
}

func (f *fakeUc) Whoami(ctx context.Context) (*usecase.WhoamiOutput, error) {
	return f.whoami(ctx)
}

func (f *fakeUc) AdminUsers(ctx context.Context, in usecase.AdminUsersInput) (*usecase.AdminUsersOutput, error) {
	return f.adminUsers(ctx, in)
}

func (f *fakeUc) AdminStats(ctx context.Context) (*entity.UserStats, error) {
	return f.adminStats(ctx)
}

func newEndpoint(uc *fakeUc) *HTTPEndpoint {
	return &HTTPEndpoint{
		uc:         uc,
		refreshTTL: func() time.Duration { return 30 * 24 * time.Hour },
	}
}

func jsonRequest(method, target, body string) *router.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	return &router.Request{Request: req}
}

func TestHTTPEndpointRefreshToken(t *testing.T) {
	t.Run("TokenFromBody", func(t *testing.T) {
		// Arrange
		var gotToken string
		end := newEndpoint(&fakeUc{
			refreshToken: func(_ context.Context, in usecase.RefreshTokenInput) (*usecase.RefreshTokenOutput, error) {
				gotToken = in.RefreshToken
				return &usecase.RefreshTokenOutput{AccessToken: "new-access", RefreshToken: "new-refresh"}, nil
			},
		})
		req := jsonRequest(http.MethodPost, "/api/v1/auth/refresh", `{"refresh_token":"body-token"}`)

		// Act
		resp, err := end.RefreshToken(req)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "body-token", gotToken)

		pair, ok := resp.(TokenPairResponse)
		require.True(t, ok)
		assert.Equal(t, "new-access", pair.AccessToken)

		cookies := pair.Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "refresh_token", cookies[0].Name)
		assert.Equal(t, "new-refresh", cookies[0].Value)
		assert.Equal(t, int((30 * 24 * time.Hour).Seconds()), cookies[0].MaxAge)
		assert.True(t, cookies[0].HttpOnly)
	})

	t.Run("TokenFromCookieWhenBodyEmpty", func(t *testing.T) {
		// Arrange
		var gotToken string
		end := newEndpoint(&fakeUc{
			refreshToken: func(_ context.Context, in usecase.RefreshTokenInput) (*usecase.RefreshTokenOutput, error) {
				gotToken = in.RefreshToken
				return &usecase.RefreshTokenOutput{AccessToken: "new-access", RefreshToken: "new-refresh"}, nil
			},
		})
		req := jsonRequest(http.MethodPost, "/api/v1/auth/refresh", "")
		req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "cookie-token"})

		// Act
		_, err := end.RefreshToken(req)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "cookie-token", gotToken)
	})

	t.Run("BodyTokenWinsOverCookie", func(t *testing.T) {
		// Arrange
		var gotToken string
		end := newEndpoint(&fakeUc{
			refreshToken: func(_ context.Context, in usecase.RefreshTokenInput) (*usecase.RefreshTokenOutput, error) {
				gotToken = in.RefreshToken
				return &usecase.RefreshTokenOutput{}, nil
			},
		})
		req := jsonRequest(http.MethodPost, "/api/v1/auth/refresh", `{"refresh_token":"body-token"}`)
		req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "cookie-token"})

		// Act
		_, err := end.RefreshToken(req)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "body-token", gotToken)
	})

	t.Run("EmptyBodyAndNoCookieFails", func(t *testing.T) {
		// Arrange
		end := newEndpoint(&fakeUc{})
		req := jsonRequest(http.MethodPost, "/api/v1/auth/refresh", "")

		// Act
		_, err := end.RefreshToken(req)

		// Assert
		assert.Error(t, err)
	})
}

func TestHTTPEndpointLogout(t *testing.T) {
	t.Run("ClearsCookie", func(t *testing.T) {
		// Arrange
		end := newEndpoint(&fakeUc{
			logout: func(_ context.Context, _ usecase.LogoutInput) error { return nil },
		})
		req := jsonRequest(http.MethodPost, "/api/v1/auth/logout", `{"refresh_token":"live-refresh"}`)

		// Act
		resp, err := end.Logout(req)

		// Assert
		require.NoError(t, err)
		out, ok := resp.(LogoutResponse)
		require.True(t, ok)

		cookies := out.Cookies()
		require.Len(t, cookies, 1)
		assert.Empty(t, cookies[0].Value)
		assert.Equal(t, -1, cookies[0].MaxAge)
	})

	t.Run("TokenFromCookie", func(t *testing.T) {
		// Arrange
		var gotToken string
		end := newEndpoint(&fakeUc{
			logout: func(_ context.Context, in usecase.LogoutInput) error {
				gotToken = in.RefreshToken
				return nil
			},
		})
		req := jsonRequest(http.MethodPost, "/api/v1/auth/logout", "")
		req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "cookie-token"})

		// Act
		_, err := end.Logout(req)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "cookie-token", gotToken)
	})
}

func TestHTTPEndpointLoginVerifyOtp(t *testing.T) {
	// Arrange
	var gotInput usecase.LoginVerifyOtpInput
	end := newEndpoint(&fakeUc{
		loginVerifyOtp: func(_ context.Context, in usecase.LoginVerifyOtpInput) (*usecase.LoginVerifyOtpOutput, error) {
			gotInput = in
			return &usecase.LoginVerifyOtpOutput{AccessToken: "access", RefreshToken: "refresh"}, nil
		},
	})
	req := jsonRequest(http.MethodPost, "/api/v1/auth/login/verify-otp", `{"target":"jo@example.com","code":"123456"}`)
	req.Header.Set("User-Agent", "curl/8.0")

	// Act
	resp, err := end.LoginVerifyOtp(req)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "jo@example.com", gotInput.Target)
	assert.Equal(t, "123456", gotInput.Code)
	assert.Equal(t, "curl/8.0", gotInput.UserAgent)

	pair, ok := resp.(TokenPairResponse)
	require.True(t, ok)
	require.Len(t, pair.Cookies(), 1)
	assert.Equal(t, "refresh", pair.Cookies()[0].Value)
}

func TestHTTPEndpointAdminUsers(t *testing.T) {
	// Arrange
	var gotInput usecase.AdminUsersInput
	end := newEndpoint(&fakeUc{
		adminUsers: func(_ context.Context, in usecase.AdminUsersInput) (*usecase.AdminUsersOutput, error) {
			gotInput = in
			return &usecase.AdminUsersOutput{Total: 1, Page: 2, Size: 10}, nil
		},
	})
	req := jsonRequest(http.MethodGet, "/api/v1/admin/users?search=jos&status=1&status=2&size=10&page=2", "")

	// Act
	resp, err := end.AdminUsers(req)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "jos", gotInput.Search)
	assert.Equal(t, []string{"1", "2"}, gotInput.Statuses)
	assert.Equal(t, int32(10), gotInput.Size)
	assert.Equal(t, int32(2), gotInput.Page)

	out, ok := resp.(AdminUsersResponse)
	require.True(t, ok)
	meta := out.Meta()
	assert.Equal(t, int64(1), meta["total"])
}
