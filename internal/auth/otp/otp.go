// Package otp manages the one-time-passcode lifecycle: generation, hashed
// storage, delivery, expiry, and bounded-retry verification.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/otpgate/otpgate/internal/auth/entity"
	"github.com/otpgate/otpgate/internal/pkg/clock"
	"github.com/otpgate/otpgate/internal/pkg/config"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
	"github.com/otpgate/otpgate/internal/pkg/hash"
	"github.com/otpgate/otpgate/internal/pkg/instrument"
	"github.com/otpgate/otpgate/internal/pkg/uid"
	"go.opentelemetry.io/otel/trace"
)

const codeSpace = 1000000 // 6 digits, 000000-999999

// Store persists OTP challenges. At most one live challenge exists per
// (target, purpose) at any instant.
type Store interface {
	// ReplaceChallenge atomically deletes any existing challenge for the
	// same (target, purpose) and inserts the new one.
	ReplaceChallenge(ctx context.Context, ch entity.OtpChallenge) error
	GetChallenge(ctx context.Context, target string, purpose entity.OtpPurpose) (*entity.OtpChallenge, error)
	DeleteChallenge(ctx context.Context, id int64) error
	IncrementChallengeAttempts(ctx context.Context, id int64) error
}

// Notifier delivers a plaintext code to the target over the channel the
// target kind implies.
type Notifier interface {
	Notify(ctx context.Context, target string, kind entity.TargetKind, code string, purpose entity.OtpPurpose) error
}

// Manager owns OTP issuance and verification.
type Manager struct {
	store    Store
	notifier Notifier
	hmac     hash.Hash
	uid      uid.NumberID
	clock    clock.Clocker
	cfg      config.Config
	ins      instrument.Instrumentation
}

// Dependency lists the collaborators a Manager needs.
type Dependency struct {
	Store      Store
	Notifier   Notifier
	HMAC       hash.Hash
	UID        uid.NumberID
	Clock      clock.Clocker
	Config     config.Config
	Instrument instrument.Instrumentation
}

func New(dep Dependency) *Manager {
	return &Manager{
		store:    dep.Store,
		notifier: dep.Notifier,
		hmac:     dep.HMAC,
		uid:      dep.UID,
		clock:    dep.Clock,
		cfg:      dep.Config,
		ins:      dep.Instrument,
	}
}

func (m *Manager) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return m.ins.Tracer("auth.otp").Start(ctx, name)
}

func (m *Manager) maxAttempts() int16 {
	if v := m.cfg.GetInt("modules.auth.otp.max_attempts"); v > 0 {
		return int16(v)
	}
	return 3
}

// Issue generates a fresh code for (target, purpose), superseding any live
// one, and hands the plaintext to the delivery channel. Storage succeeds
// before delivery is attempted; a delivery failure is surfaced so the caller
// can run its own compensating rollback.
func (m *Manager) Issue(ctx context.Context, target string, purpose entity.OtpPurpose) error {
	ctx, span := m.startSpan(ctx, "Issue")
	defer span.End()

	code, err := GenerateCode()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp code", "error", err)
		return goerror.NewServer(err)
	}

	codeHash, err := m.hmac.Hash(code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash otp code", "error", err)
		return goerror.NewServer(err)
	}

	now := m.clock.Now()
	ch := entity.OtpChallenge{
		ID:        m.uid.Generate(),
		Target:    target,
		Purpose:   purpose,
		CodeHash:  string(codeHash),
		Attempts:  0,
		CreatedAt: now,
		ExpiresAt: now.Add(m.cfg.GetMinute("modules.auth.otp.expire_minute")),
	}

	if err := m.store.ReplaceChallenge(ctx, ch); err != nil {
		slog.ErrorContext(ctx, "failed to store otp challenge", "purpose", purpose.String(), "error", err)
		return goerror.NewServer(err)
	}

	kind := entity.InferTargetKind(target)
	if err := m.notifier.Notify(ctx, target, kind, code, purpose); err != nil {
		slog.ErrorContext(ctx, "failed to deliver otp code", "purpose", purpose.String(), "channel", kind.String(), "error", err)
		return goerror.NewDependency(err, "failed to deliver verification code")
	}

	return nil
}

// Verify checks code against the live challenge for (target, purpose).
//
// Terminal transitions per call are exactly one of: delete (success, expiry,
// attempts exhausted) or attempts increment (mismatch).
func (m *Manager) Verify(ctx context.Context, target, code string, purpose entity.OtpPurpose) error {
	ctx, span := m.startSpan(ctx, "Verify")
	defer span.End()

	ch, err := m.store.GetChallenge(ctx, target, purpose)
	if errors.Is(err, goerror.ErrNotFound) {
		return goerror.NewBusiness("no verification code found, request a new one", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to load otp challenge", "purpose", purpose.String(), "error", err)
		return goerror.NewServer(err)
	}

	if m.clock.Now().After(ch.ExpiresAt) {
		if err := m.store.DeleteChallenge(ctx, ch.ID); err != nil {
			slog.ErrorContext(ctx, "failed to delete expired otp challenge", "challenge_id", ch.ID, "error", err)
			return goerror.NewServer(err)
		}
		return goerror.NewBusiness("verification code expired, request a new one", goerror.CodeExpired)
	}

	maxAttempts := m.maxAttempts()
	if ch.Attempts >= maxAttempts {
		if err := m.store.DeleteChallenge(ctx, ch.ID); err != nil {
			slog.ErrorContext(ctx, "failed to delete exhausted otp challenge", "challenge_id", ch.ID, "error", err)
			return goerror.NewServer(err)
		}
		return goerror.NewBusiness("maximum verification attempts exceeded, request a new code", goerror.CodeAttemptsExhausted)
	}

	if !m.hmac.Verify(ch.CodeHash, code) {
		if err := m.store.IncrementChallengeAttempts(ctx, ch.ID); err != nil {
			slog.ErrorContext(ctx, "failed to increment otp attempts", "challenge_id", ch.ID, "error", err)
			return goerror.NewServer(err)
		}

		remaining := maxAttempts - (ch.Attempts + 1)
		return goerror.NewBusiness(
			fmt.Sprintf("invalid verification code, %d attempts remaining", remaining),
			goerror.CodeUnauthorized,
		)
	}

	if err := m.store.DeleteChallenge(ctx, ch.ID); err != nil {
		slog.ErrorContext(ctx, "failed to delete verified otp challenge", "challenge_id", ch.ID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}

// GenerateCode returns a cryptographically random 6-digit code, uniform over
// 000000-999999 with leading zeros preserved.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpace))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
