package entity

import (
	"strconv"
	"strings"
)

type UserStatus int16

const (
	// UserStatusUnknown is mean status is not known / not set.
	UserStatusUnknown UserStatus = 0

	// UserStatusUnverified mean user exists but has not completed signup verification.
	UserStatusUnverified UserStatus = 1

	// UserStatusActive mean user is verified and allowed to authenticate.
	UserStatusActive UserStatus = 2

	// UserStatusBanned mean user is blocked from authenticating (policy/abuse/etc).
	UserStatusBanned UserStatus = 3
)

func (us UserStatus) String() string {
	switch us {
	case UserStatusUnverified:
		return "Unverified"
	case UserStatusActive:
		return "Active"
	case UserStatusBanned:
		return "Banned"
	default:
		return "Unknown"
	}
}

func (us UserStatus) IsUnknown() bool {
	switch us {
	case UserStatusUnverified, UserStatusActive, UserStatusBanned:
		return false
	default:
		return true
	}
}

func (us UserStatus) Ensure() UserStatus {
	switch us {
	case UserStatusUnverified:
		return UserStatusUnverified
	case UserStatusActive:
		return UserStatusActive
	case UserStatusBanned:
		return UserStatusBanned
	default:
		return UserStatusUnknown
	}
}

func ParseSafeUserStatuses(raws []string) []UserStatus {
	out := make([]UserStatus, 0)
	seen := map[UserStatus]struct{}{}

	for _, v := range raws {
		n, err := strconv.ParseInt(v, 10, 16)
		if err != nil {
			continue
		}

		s := UserStatus(n)
		if s.IsUnknown() {
			continue
		}

		if _, ok := seen[s]; ok {
			continue
		}

		seen[s] = struct{}{}
		out = append(out, s)
	}

	return out
}

func ToInt16Slice(sts []UserStatus) []int16 {
	out := make([]int16, len(sts))
	for i, s := range sts {
		out[i] = int16(s)
	}
	return out
}

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Ensure() Role {
	if r == RoleAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// OtpPurpose scopes a one-time code to the action it may verify.
type OtpPurpose int16

const (
	OtpPurposeUnknown OtpPurpose = 0
	OtpPurposeSignup  OtpPurpose = 1
	OtpPurposeLogin   OtpPurpose = 2
	OtpPurposeReset   OtpPurpose = 3
)

func (p OtpPurpose) String() string {
	switch p {
	case OtpPurposeSignup:
		return "signup"
	case OtpPurposeLogin:
		return "login"
	case OtpPurposeReset:
		return "reset"
	default:
		return "unknown"
	}
}

// TargetKind classifies how an OTP target can be reached.
type TargetKind int16

const (
	TargetKindOpaque TargetKind = 0
	TargetKindEmail  TargetKind = 1
	TargetKindPhone  TargetKind = 2
)

func (k TargetKind) String() string {
	switch k {
	case TargetKindEmail:
		return "email"
	case TargetKindPhone:
		return "phone"
	default:
		return "opaque"
	}
}

// InferTargetKind guesses the delivery channel from the target's shape.
// Callers that already know the channel should not rely on this heuristic.
func InferTargetKind(target string) TargetKind {
	switch {
	case strings.Contains(target, "@"):
		return TargetKindEmail
	case strings.HasPrefix(target, "+"):
		return TargetKindPhone
	default:
		return TargetKindOpaque
	}
}
