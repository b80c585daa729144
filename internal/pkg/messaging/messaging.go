// Package messaging publishes outbound events to a broker selected by
// configuration. The module uses it for one thing: handing phone-bound
// one-time codes to the external SMS gateway, which consumes the topic on
// its own schedule.
package messaging

import (
	"context"
	"io"
)

// Messaging is a broker client the app owns for its whole lifetime. Closing
// it flushes pending publishes and releases connections.
type Messaging interface {
	io.Closer
	Publisher
}

// Publisher sends a message to a destination, a Kafka topic or NATS subject
// depending on the configured driver.
type Publisher interface {
	Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error)
}

// OutgoingMessage is the broker-neutral shape of a published message.
type OutgoingMessage struct {
	// Body is the serialized payload.
	Body []byte

	// Key selects the Kafka partition. NATS ignores it.
	Key []byte

	// Headers travel with the message; the correlation id rides here so the
	// consumer side can join its logs with ours.
	Headers []Header
}

// Header is one message header entry.
type Header struct {
	Key   string
	Value []byte
}

// PublishResult reports what the broker assigned, when it assigns anything.
type PublishResult struct {
	// MessageID is set by brokers that generate one. Kafka does not.
	MessageID string

	// Partition and Offset are Kafka placement details, zero elsewhere.
	Partition int
	Offset    int64
}
