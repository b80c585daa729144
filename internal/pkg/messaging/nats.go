package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
)

var (
	// ErrNATSURLRequired is returned when no server URL is configured.
	ErrNATSURLRequired = errors.New("messaging: nats url is required")
	// ErrNATSSubjectRequired is returned when Publish is called with an empty subject.
	ErrNATSSubjectRequired = errors.New("messaging: nats subject is required")
	// ErrNATSClosed is returned after Close.
	ErrNATSClosed = errors.New("messaging: nats client is closed")
)

// NATSConfig configures the NATS backend.
type NATSConfig struct {
	// URL is the server address, e.g. nats://127.0.0.1:4222.
	URL string

	// Options are handed to nats.Connect unchanged; the app fills them from
	// its messaging.nats.* config keys.
	Options []nats.Option
}

// NATS publishes over a single core-NATS connection.
type NATS struct {
	conn *nats.Conn

	mu     sync.Mutex
	closed bool
}

// NewNATS connects to the server. With RetryOnFailedConnect in the options
// this returns immediately and the client reconnects in the background.
func NewNATS(cfg NATSConfig) (*NATS, error) {
	if cfg.URL == "" {
		return nil, ErrNATSURLRequired
	}

	conn, err := nats.Connect(cfg.URL, cfg.Options...)
	if err != nil {
		return nil, fmt.Errorf("messaging: nats connect: %w", err)
	}

	return &NATS{conn: conn}, nil
}

// Publish sends one message to the subject. Core NATS is fire-and-forget;
// an error here means the client-side buffer rejected the message, not that
// no consumer saw it.
func (n *NATS) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrNATSSubjectRequired
	}

	n.mu.Lock()
	closed := n.closed
	n.mu.Unlock()
	if closed {
		return PublishResult{}, ErrNATSClosed
	}

	out := nats.NewMsg(destination)
	out.Data = msg.Body
	for _, h := range msg.Headers {
		if h.Key == "" {
			continue
		}
		out.Header.Add(h.Key, string(h.Value))
	}

	if err := n.conn.PublishMsg(out); err != nil {
		return PublishResult{}, err
	}

	return PublishResult{}, nil
}

// Close drains the connection so buffered publishes flush before shutdown.
func (n *NATS) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	n.mu.Unlock()

	err := n.conn.Drain()
	n.conn.Close()

	return err
}
