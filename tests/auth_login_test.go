package tests

import (
	"net/http"
	"testing"
)

func TestLogin(t *testing.T) {

	t.Run("UnknownIdentifier", func(t *testing.T) {

		// Arrange
		payload := map[string]string{
			"identifier": uniqueUsername("realghost"),
			"password":   signupPassword,
		}

		// Act
		status, body := doJSON(t, http.MethodPost, "/api/v1/auth/login", payload, "")

		// Assert
		if status != http.StatusUnauthorized {
			t.Fatalf("expected unauthorized, got status=%d", status)
		}
		errEnv := decodeError(t, body)
		if errEnv.Message != "invalid credentials" {
			t.Fatalf("unexpected message %q", errEnv.Message)
		}
	})

	t.Run("UnverifiedAccount", func(t *testing.T) {

		// Arrange
		username := uniqueUsername("realpending")
		signup(t, username, uniqueEmail("real-pending"))

		payload := map[string]string{
			"identifier": username,
			"password":   signupPassword,
		}

		// Act
		status, body := doJSON(t, http.MethodPost, "/api/v1/auth/login", payload, "")

		// Assert
		if status != http.StatusForbidden {
			t.Fatalf("expected forbidden, got status=%d", status)
		}
		errEnv := decodeError(t, body)
		if errEnv.Message != "account not verified" {
			t.Fatalf("unexpected message %q", errEnv.Message)
		}
	})

	t.Run("MissingPassword", func(t *testing.T) {

		// Arrange
		payload := map[string]string{"identifier": "someone"}

		// Act
		status, _ := doJSON(t, http.MethodPost, "/api/v1/auth/login", payload, "")

		// Assert
		if status != http.StatusUnprocessableEntity {
			t.Fatalf("expected validation error, got status=%d", status)
		}
	})

	t.Run("VerifyOtpWithoutChallenge", func(t *testing.T) {

		// Arrange
		payload := map[string]string{
			"target": uniqueEmail("real-nochallenge"),
			"code":   "123456",
		}

		// Act
		status, _ := doJSON(t, http.MethodPost, "/api/v1/auth/login/verify-otp", payload, "")

		// Assert
		if status != http.StatusNotFound {
			t.Fatalf("expected not found, got status=%d", status)
		}
	})
}
