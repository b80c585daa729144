// Package mail sends email without tying callers to a delivery mechanism.
// The module's only sender today is plain SMTP; code upstream depends on the
// Mail interface so that can change per environment.
package mail

import (
	"context"
	"io"
)

// Message is one outbound email.
type Message struct {
	// From overrides the configured default sender when set.
	From string
	// To, Cc, Bcc list recipients; at least one address overall is required.
	To  []string
	Cc  []string
	Bcc []string
	// Subject is the subject line.
	Subject string
	// TextBody and HTMLBody are alternatives: both set yields a multipart
	// message, one set sends just that part.
	TextBody string
	HTMLBody string
}

// Mail delivers messages. Close releases whatever the transport holds open.
type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}
