package inbound

import (
	"net/http"
	"time"

	"github.com/otpgate/otpgate/internal/auth/usecase"
	"github.com/otpgate/otpgate/internal/pkg/router"
)

const refreshCookieName = "refresh_token"

// HTTPEndpoint exposes HTTP handlers for the authentication flow.
type HTTPEndpoint struct {
	uc         uc
	refreshTTL func() time.Duration
}

func (h *HTTPEndpoint) refreshCookie(value string) *http.Cookie {
	c := &http.Cookie{
		Name:     refreshCookieName,
		Value:    value,
		Path:     "/api/v1/auth",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
	if value == "" {
		c.MaxAge = -1
	} else {
		c.MaxAge = int(h.refreshTTL().Seconds())
	}
	return c
}

// Signup creates an unverified account and sends the signup code.
func (h *HTTPEndpoint) Signup(r *router.Request) (any, error) {
	var req SignupRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Signup(r.Context(), usecase.SignupInput{
		Username: req.Username,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
		ClientIP: r.ClientIP(),
	})
	if err != nil {
		return nil, err
	}

	return SignupResponse{OtpTarget: resp.OtpTarget}, nil
}

// SignupVerify consumes the signup code and activates the account.
func (h *HTTPEndpoint) SignupVerify(r *router.Request) (any, error) {
	var req SignupVerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if _, err := h.uc.SignupVerify(r.Context(), usecase.SignupVerifyInput{
		Target: req.Target,
		Code:   req.Code,
	}); err != nil {
		return nil, err
	}

	return SignupVerifyResponse{}, nil
}

// Login checks the password and sends the login code. Tokens are only
// issued by LoginVerifyOtp.
func (h *HTTPEndpoint) Login(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Login(r.Context(), usecase.LoginInput{
		Identifier: req.Identifier,
		Password:   req.Password,
		ClientIP:   r.ClientIP(),
	})
	if err != nil {
		return nil, err
	}

	return LoginResponse{OtpRequired: resp.OtpRequired, OtpTarget: resp.OtpTarget}, nil
}

// LoginVerifyOtp exchanges the login code for a token pair.
func (h *HTTPEndpoint) LoginVerifyOtp(r *router.Request) (any, error) {
	var req LoginVerifyOtpRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.LoginVerifyOtp(r.Context(), usecase.LoginVerifyOtpInput{
		Target:    req.Target,
		Code:      req.Code,
		ClientIP:  r.ClientIP(),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		return nil, err
	}

	return TokenPairResponse{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		cookie:       h.refreshCookie(resp.RefreshToken),
	}, nil
}

// RefreshToken rotates the refresh token from the body or the cookie.
func (h *HTTPEndpoint) RefreshToken(r *router.Request) (any, error) {
	var req RefreshTokenRequest
	if err := r.DecodeBody(&req); err != nil && r.GetCookie(refreshCookieName) == "" {
		return nil, err
	}

	if req.RefreshToken == "" {
		req.RefreshToken = r.GetCookie(refreshCookieName)
	}

	resp, err := h.uc.RefreshToken(r.Context(), usecase.RefreshTokenInput{
		RefreshToken: req.RefreshToken,
		ClientIP:     r.ClientIP(),
		UserAgent:    r.UserAgent(),
	})
	if err != nil {
		return nil, err
	}

	return TokenPairResponse{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		cookie:       h.refreshCookie(resp.RefreshToken),
	}, nil
}

// Logout revokes the presented refresh token and clears the cookie.
func (h *HTTPEndpoint) Logout(r *router.Request) (any, error) {
	var req LogoutRequest
	if err := r.DecodeBody(&req); err != nil && r.GetCookie(refreshCookieName) == "" {
		return nil, err
	}

	if req.RefreshToken == "" {
		req.RefreshToken = r.GetCookie(refreshCookieName)
	}

	if err := h.uc.Logout(r.Context(), usecase.LogoutInput{RefreshToken: req.RefreshToken}); err != nil {
		return nil, err
	}

	return LogoutResponse{cookie: h.refreshCookie("")}, nil
}

// Whoami returns the authenticated caller's profile.
func (h *HTTPEndpoint) Whoami(r *router.Request) (any, error) {
	resp, err := h.uc.Whoami(r.Context())
	if err != nil {
		return nil, err
	}

	return WhoamiResponse{
		ID:        resp.ID,
		Username:  resp.Username,
		Email:     resp.Email,
		Phone:     resp.Phone,
		Role:      string(resp.Role),
		Status:    resp.Status.String(),
		CreatedAt: resp.CreatedAt,
	}, nil
}

// AdminUsers lists accounts for operators.
func (h *HTTPEndpoint) AdminUsers(r *router.Request) (any, error) {
	size, err := r.GetQueryInt32("size")
	if err != nil {
		return nil, err
	}

	page, err := r.GetQueryInt32("page")
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.AdminUsers(r.Context(), usecase.AdminUsersInput{
		Search:   r.GetQuery("search"),
		Statuses: r.GetQueries("status"),
		Size:     size,
		Page:     page,
	})
	if err != nil {
		return nil, err
	}

	users := make([]AdminUserResponse, 0, len(resp.Users))
	for _, item := range resp.Users {
		users = append(users, AdminUserResponse{
			ID:        item.ID,
			Username:  item.Username,
			Email:     item.Email,
			Phone:     item.Phone,
			Role:      string(item.Role),
			Status:    item.Status,
			CreatedAt: item.CreatedAt,
		})
	}

	return AdminUsersResponse{
		Users: users,
		total: resp.Total,
		size:  resp.Size,
		page:  resp.Page,
	}, nil
}

// AdminStats reports account and session counts for operators.
func (h *HTTPEndpoint) AdminStats(r *router.Request) (any, error) {
	resp, err := h.uc.AdminStats(r.Context())
	if err != nil {
		return nil, err
	}

	return AdminStatsResponse{
		TotalUsers:        resp.TotalUsers,
		VerifiedUsers:     resp.VerifiedUsers,
		UnverifiedUsers:   resp.UnverifiedUsers,
		LiveOtpChallenges: resp.LiveOtpChallenges,
		ActiveSessions:    resp.ActiveSessions,
	}, nil
}
