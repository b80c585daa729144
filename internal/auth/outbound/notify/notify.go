// Package notify delivers one-time codes over the channel a target implies:
// SMTP for email addresses, the SMS broker topic for phone numbers.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/otpgate/otpgate/internal/auth/entity"
	"github.com/otpgate/otpgate/internal/pkg/instrument"
	"github.com/otpgate/otpgate/internal/pkg/mail"
	"github.com/otpgate/otpgate/internal/pkg/messaging"
	"go.opentelemetry.io/otel/codes"
)

const (
	keyOfCorrelationID = "cID"

	// OtpSmsDestination is the broker topic the SMS gateway consumes.
	OtpSmsDestination = "auth.otp.sms"
)

// OtpSmsMessage is the payload published for phone delivery.
type OtpSmsMessage struct {
	Phone   string `json:"phone"`
	Code    string `json:"code"`
	Purpose string `json:"purpose"`
}

type Notify struct {
	mailer mail.Mail
	broker messaging.Publisher
	ins    instrument.Instrumentation
}

func NewNotify(mailer mail.Mail, broker messaging.Publisher, ins instrument.Instrumentation) *Notify {
	return &Notify{mailer: mailer, broker: broker, ins: ins}
}

// Notify routes the plaintext code by target kind. Opaque targets have no
// reachable channel; the code is logged at debug level so local setups can
// still complete flows.
func (n *Notify) Notify(ctx context.Context, target string, kind entity.TargetKind, code string, purpose entity.OtpPurpose) error {
	ctx, span := n.ins.Tracer("auth.outbound.notify").Start(ctx, "Notify")
	defer span.End()

	var err error
	switch kind {
	case entity.TargetKindEmail:
		err = n.sendEmail(ctx, target, code, purpose)
	case entity.TargetKindPhone:
		err = n.publishSms(ctx, target, code, purpose)
	default:
		slog.DebugContext(ctx, "otp target has no delivery channel", "purpose", purpose.String(), "code", code)
		return nil
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (n *Notify) sendEmail(ctx context.Context, target, code string, purpose entity.OtpPurpose) error {
	subject := "Your verification code"
	if purpose == entity.OtpPurposeLogin {
		subject = "Your login code"
	}

	return n.mailer.Send(ctx, mail.Message{
		To:      []string{target},
		Subject: subject,
		TextBody: fmt.Sprintf(
			"Your one-time code is %s. It expires in a few minutes. If you did not request it, ignore this message.",
			code,
		),
	})
}

func (n *Notify) publishSms(ctx context.Context, target, code string, purpose entity.OtpPurpose) error {
	body, err := json.Marshal(OtpSmsMessage{
		Phone:   target,
		Code:    code,
		Purpose: purpose.String(),
	})
	if err != nil {
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	_, err = n.broker.Publish(ctx, OtpSmsDestination, messaging.OutgoingMessage{
		Body:    body,
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	})
	return err
}
