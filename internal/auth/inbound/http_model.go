package inbound

import (
	"net/http"
	"time"
)

type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type SignupResponse struct {
	OtpTarget string `json:"otp_target"`
}

func (SignupResponse) Message() string {
	return "Account created. Enter the verification code we sent you to activate it."
}

type SignupVerifyRequest struct {
	Target string `json:"target"`
	Code   string `json:"code"`
}

type SignupVerifyResponse struct{}

func (SignupVerifyResponse) Message() string {
	return "Account verified. You can now log in."
}

type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type LoginResponse struct {
	OtpRequired bool   `json:"otp_required"`
	OtpTarget   string `json:"otp_target"`
}

func (LoginResponse) Message() string {
	return "Enter the verification code we sent you to finish logging in."
}

type LoginVerifyOtpRequest struct {
	Target string `json:"target"`
	Code   string `json:"code"`
}

type TokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`

	cookie *http.Cookie
}

func (r TokenPairResponse) Cookies() []*http.Cookie {
	if r.cookie == nil {
		return nil
	}
	return []*http.Cookie{r.cookie}
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutResponse struct {
	cookie *http.Cookie
}

func (LogoutResponse) Message() string {
	return "Logged out."
}

func (r LogoutResponse) Cookies() []*http.Cookie {
	if r.cookie == nil {
		return nil
	}
	return []*http.Cookie{r.cookie}
}

type WhoamiResponse struct {
	ID        int64     `json:"id,string"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type AdminUserResponse struct {
	ID        int64     `json:"id,string"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type AdminUsersResponse struct {
	Users []AdminUserResponse `json:"users"`

	total int64
	size  int32
	page  int32
}

func (r AdminUsersResponse) Meta() map[string]any {
	return map[string]any{
		"total": r.total,
		"size":  r.size,
		"page":  r.page,
	}
}

type AdminStatsResponse struct {
	TotalUsers        int64 `json:"total_users"`
	VerifiedUsers     int64 `json:"verified_users"`
	UnverifiedUsers   int64 `json:"unverified_users"`
	LiveOtpChallenges int64 `json:"live_otp_challenges"`
	ActiveSessions    int64 `json:"active_sessions"`
}
