package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	// DriverKafka selects the kafka-go backend.
	DriverKafka = "kafka"
	// DriverNATS selects the nats.go backend.
	DriverNATS = "nats"
)

// ErrUnknownDriver indicates the configured messaging driver has no backend.
var ErrUnknownDriver = errors.New("messaging: unknown driver")

// FactoryOptions carries per-backend configuration; only the section for the
// selected driver is read.
type FactoryOptions struct {
	Kafka KafkaConfig
	NATS  NATSConfig
}

// NewFromDriver builds the broker client named by driver.
func NewFromDriver(_ context.Context, driver string, opts FactoryOptions) (Messaging, error) {
	switch strings.TrimSpace(driver) {
	case DriverKafka:
		return NewKafka(opts.Kafka)
	case DriverNATS:
		return NewNATS(opts.NATS)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
