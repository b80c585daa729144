package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserStatus(t *testing.T) {
	t.Run("String", func(t *testing.T) {
		assert.Equal(t, "Unverified", UserStatusUnverified.String())
		assert.Equal(t, "Active", UserStatusActive.String())
		assert.Equal(t, "Banned", UserStatusBanned.String())
		assert.Equal(t, "Unknown", UserStatus(99).String())
	})

	t.Run("Ensure", func(t *testing.T) {
		assert.Equal(t, UserStatusActive, UserStatusActive.Ensure())
		assert.Equal(t, UserStatusUnknown, UserStatus(99).Ensure())
	})

	t.Run("IsUnknown", func(t *testing.T) {
		assert.False(t, UserStatusActive.IsUnknown())
		assert.True(t, UserStatusUnknown.IsUnknown())
		assert.True(t, UserStatus(99).IsUnknown())
	})
}

func TestParseSafeUserStatuses(t *testing.T) {
	tests := []struct {
		name string
		raws []string
		want []UserStatus
	}{
		{
			name: "ValidValues",
			raws: []string{"1", "2", "3"},
			want: []UserStatus{UserStatusUnverified, UserStatusActive, UserStatusBanned},
		},
		{
			name: "SkipsUnknownAndGarbage",
			raws: []string{"0", "99", "abc", ""},
			want: []UserStatus{},
		},
		{
			name: "Deduplicates",
			raws: []string{"2", "2", "2"},
			want: []UserStatus{UserStatusActive},
		},
		{
			name: "Empty",
			raws: nil,
			want: []UserStatus{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseSafeUserStatuses(tc.raws))
		})
	}
}

func TestRoleEnsure(t *testing.T) {
	assert.Equal(t, RoleAdmin, RoleAdmin.Ensure())
	assert.Equal(t, RoleUser, RoleUser.Ensure())
	assert.Equal(t, RoleUser, Role("superuser").Ensure())
}

func TestInferTargetKind(t *testing.T) {
	tests := []struct {
		target string
		want   TargetKind
	}{
		{"jo@example.com", TargetKindEmail},
		{"+628111111111", TargetKindPhone},
		{"josie", TargetKindOpaque},
		{"", TargetKindOpaque},
	}

	for _, tc := range tests {
		t.Run(tc.want.String(), func(t *testing.T) {
			assert.Equal(t, tc.want, InferTargetKind(tc.target))
		})
	}
}

func TestUserPreferredOtpTarget(t *testing.T) {
	t.Run("PrefersEmail", func(t *testing.T) {
		u := &User{Username: "josie", Email: "jo@example.com", Phone: "+628111111111"}
		assert.Equal(t, "jo@example.com", u.PreferredOtpTarget())
	})

	t.Run("FallsBackToPhone", func(t *testing.T) {
		u := &User{Username: "josie", Phone: "+628111111111"}
		assert.Equal(t, "+628111111111", u.PreferredOtpTarget())
	})

	t.Run("FallsBackToUsername", func(t *testing.T) {
		u := &User{Username: "josie"}
		assert.Equal(t, "josie", u.PreferredOtpTarget())
	})
}
