package entity

import (
	"time"

	"github.com/otpgate/otpgate/internal/pkg/valueobject"
)

type User struct {
	ID        int64
	Username  string
	Email     string
	Phone     string
	Password  string // hashed
	Role      Role
	Status    UserStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PreferredOtpTarget returns the address an OTP should be delivered to,
// preferring a real channel over the opaque username fallback.
func (u *User) PreferredOtpTarget() string {
	if u.Email != "" {
		return u.Email
	}
	if u.Phone != "" {
		return u.Phone
	}
	return u.Username
}

type NewUser struct {
	ID       int64
	Username string
	Email    string
	Phone    string
	Password string // hashed
	Role     Role
	Status   UserStatus
}

// OtpChallenge is a live one-time code for a (target, purpose) pair.
// The plaintext code is never stored, only its digest.
type OtpChallenge struct {
	ID        int64
	Target    string
	Purpose   OtpPurpose
	CodeHash  string
	Attempts  int16
	CreatedAt time.Time
	ExpiresAt time.Time
}

type RefreshToken struct {
	ID                int64
	UserID            int64
	TokenHash         string
	Revoked           bool
	ReplacedByTokenID int64
	Metadata          valueobject.JSONMap
	CreatedAt         time.Time
	ExpiresAt         time.Time
}

type RotateRefreshToken struct {
	NewID        int64
	OldID        int64
	UserID       int64
	NewTokenHash string
	NewExpiresAt time.Time
	NewMetadata  valueobject.JSONMap
}

// UserRefreshToken joins a refresh-token row with its owner for rotation.
type UserRefreshToken struct {
	UserID                   int64
	Username                 string
	UserRole                 Role
	UserStatus               UserStatus
	RefreshID                int64
	RefreshRevoked           bool
	RefreshReplacedByTokenID *int64
	RefreshExpiresAt         time.Time
}

type UserListFilter struct {
	IsFilterBySearch bool
	IsFilterByStatus bool
	Search           string
	Statuses         []int16
	Size             int32
	Page             int32
}

type UserStats struct {
	TotalUsers        int64
	VerifiedUsers     int64
	UnverifiedUsers   int64
	LiveOtpChallenges int64
	ActiveSessions    int64
}
