package tests

import (
	"net/http"
	"testing"
)

func TestAdminUsers(t *testing.T) {

	t.Run("WithoutAuthentication", func(t *testing.T) {

		// Act
		status, _ := doJSON(t, http.MethodGet, "/api/v1/admin/users", nil, "")

		// Assert
		if status != http.StatusUnauthorized {
			t.Fatalf("expected unauthorized, got status=%d", status)
		}
	})

	t.Run("List", func(t *testing.T) {

		// Arrange
		token := adminToken(t)
		signup(t, uniqueUsername("realadminls"), uniqueEmail("real-admin-ls"))

		// Act
		status, body := doJSON(t, http.MethodGet, "/api/v1/admin/users?size=5&page=1", nil, token)

		// Assert
		if status != http.StatusOK {
			errEnv := decodeError(t, body)
			t.Fatalf("admin users failed: status=%d message=%q", status, errEnv.Message)
		}

		var data struct {
			Users []struct {
				ID       string `json:"id"`
				Username string `json:"username"`
				Status   string `json:"status"`
			} `json:"users"`
		}
		env := decodeSuccess(t, body, &data)
		if len(data.Users) == 0 {
			t.Fatal("expected at least one user")
		}
		if env.Meta["total"] == nil {
			t.Fatal("expected total in meta")
		}
	})

	t.Run("FilterByStatus", func(t *testing.T) {

		// Arrange
		token := adminToken(t)
		signup(t, uniqueUsername("realadminfl"), uniqueEmail("real-admin-fl"))

		// Act: status 1 is unverified.
		status, body := doJSON(t, http.MethodGet, "/api/v1/admin/users?status=1&size=5&page=1", nil, token)

		// Assert
		if status != http.StatusOK {
			errEnv := decodeError(t, body)
			t.Fatalf("admin users failed: status=%d message=%q", status, errEnv.Message)
		}

		var data struct {
			Users []struct {
				Status string `json:"status"`
			} `json:"users"`
		}
		decodeSuccess(t, body, &data)
		for _, u := range data.Users {
			if u.Status != "Unverified" {
				t.Fatalf("expected only unverified users, got %q", u.Status)
			}
		}
	})
}

func TestAdminStats(t *testing.T) {

	t.Run("WithoutAuthentication", func(t *testing.T) {

		// Act
		status, _ := doJSON(t, http.MethodGet, "/api/v1/admin/stats", nil, "")

		// Assert
		if status != http.StatusUnauthorized {
			t.Fatalf("expected unauthorized, got status=%d", status)
		}
	})

	t.Run("Counts", func(t *testing.T) {

		// Arrange
		token := adminToken(t)

		// Act
		status, body := doJSON(t, http.MethodGet, "/api/v1/admin/stats", nil, token)

		// Assert
		if status != http.StatusOK {
			errEnv := decodeError(t, body)
			t.Fatalf("admin stats failed: status=%d message=%q", status, errEnv.Message)
		}

		var data struct {
			TotalUsers      int64 `json:"total_users"`
			VerifiedUsers   int64 `json:"verified_users"`
			UnverifiedUsers int64 `json:"unverified_users"`
		}
		decodeSuccess(t, body, &data)
		if data.TotalUsers < data.VerifiedUsers+data.UnverifiedUsers {
			t.Fatalf("inconsistent stats: total=%d verified=%d unverified=%d",
				data.TotalUsers, data.VerifiedUsers, data.UnverifiedUsers)
		}
	})
}
