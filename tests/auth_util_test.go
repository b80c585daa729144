package tests

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

const signupPassword = "Secret123!"

func adminToken(t *testing.T) string {
	t.Helper()

	token := strings.TrimSpace(os.Getenv("OTPGATE_ADMIN_ACCESS_TOKEN"))
	if token == "" {
		t.Skip("set OTPGATE_ADMIN_ACCESS_TOKEN to run authenticated tests")
	}

	return token
}

func uniqueUsername(prefix string) string {
	return fmt.Sprintf("%s%d", prefix, time.Now().UnixNano())
}

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, time.Now().UnixNano())
}

type signupData struct {
	OtpTarget string `json:"otp_target"`
}

func signup(t *testing.T, username, email string) signupData {
	t.Helper()

	payload := map[string]string{
		"username": username,
		"email":    email,
		"password": signupPassword,
	}

	status, body := doJSON(t, http.MethodPost, "/api/v1/auth/signup", payload, "")
	if status != http.StatusOK {
		errEnv := decodeError(t, body)
		t.Fatalf("signup failed: status=%d message=%q", status, errEnv.Message)
	}

	var data signupData
	decodeSuccess(t, body, &data)

	return data
}
