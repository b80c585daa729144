package messaging

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

var (
	// ErrKafkaBrokersRequired is returned when no broker address is configured.
	ErrKafkaBrokersRequired = errors.New("messaging: kafka brokers are required")
	// ErrKafkaTopicRequired is returned when Publish is called with an empty topic.
	ErrKafkaTopicRequired = errors.New("messaging: kafka topic is required")
	// ErrKafkaClosed is returned after Close.
	ErrKafkaClosed = errors.New("messaging: kafka client is closed")
)

// KafkaConfig configures the Kafka backend.
type KafkaConfig struct {
	// Brokers lists bootstrap broker addresses.
	Brokers []string

	// BatchTimeout caps how long the writer buffers before flushing.
	// Zero keeps kafka-go's default, which trades latency for throughput;
	// OTP codes want the opposite, so the app sets this low.
	BatchTimeout time.Duration
}

// Kafka publishes through one lazily-created writer per topic. Writers are
// safe for concurrent use, so the map is the only guarded state.
type Kafka struct {
	brokers      []string
	batchTimeout time.Duration

	mu      sync.Mutex
	writers map[string]*kafka.Writer
	closed  bool
}

// NewKafka validates the config and returns a client. No connection is made
// until the first Publish.
func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrKafkaBrokersRequired
	}

	return &Kafka{
		brokers:      append([]string(nil), cfg.Brokers...),
		batchTimeout: cfg.BatchTimeout,
		writers:      map[string]*kafka.Writer{},
	}, nil
}

// Publish writes one message to the topic and waits for broker acknowledgment.
func (k *Kafka) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if destination == "" {
		return PublishResult{}, ErrKafkaTopicRequired
	}

	writer, err := k.writer(destination)
	if err != nil {
		return PublishResult{}, err
	}

	out := kafka.Message{
		Key:   msg.Key,
		Value: msg.Body,
		Time:  time.Now(),
	}
	for _, h := range msg.Headers {
		if h.Key == "" {
			continue
		}
		out.Headers = append(out.Headers, kafka.Header{Key: h.Key, Value: h.Value})
	}

	if err := writer.WriteMessages(ctx, out); err != nil {
		return PublishResult{}, err
	}

	// kafka-go does not report placement for async-free writes; callers that
	// care subscribe to delivery reports out of band.
	return PublishResult{}, nil
}

func (k *Kafka) writer(topic string) (*kafka.Writer, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.closed {
		return nil, ErrKafkaClosed
	}
	if w, ok := k.writers[topic]; ok {
		return w, nil
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(k.brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: k.batchTimeout,
	}
	k.writers[topic] = w

	return w, nil
}

// Close flushes and closes every writer. Subsequent publishes fail with
// ErrKafkaClosed.
func (k *Kafka) Close() error {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return nil
	}
	k.closed = true
	writers := k.writers
	k.writers = nil
	k.mu.Unlock()

	var errs error
	for _, w := range writers {
		errs = errors.Join(errs, w.Close())
	}

	return errs
}
