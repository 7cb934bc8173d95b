package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	queueSize    = 256
	writeTimeout = 5 * time.Second
)

// KafkaConfig configures the Kafka publisher.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher queues events and writes them from a single background
// goroutine so flushes never block on the broker. Events are keyed by form
// id to keep one form's history on one partition.
type KafkaPublisher struct {
	writer messageWriter
	log    *zap.Logger
	now    func() time.Time

	queue     chan kafka.Message
	done      chan struct{}
	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

// NewKafkaPublisher builds a publisher writing to cfg.Topic.
func NewKafkaPublisher(cfg KafkaConfig, log *zap.Logger) (*KafkaPublisher, error) {
	var brokers []string
	for _, b := range cfg.Brokers {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	if len(brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, errors.New("topic must not be empty")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: false,
		WriteTimeout:           writeTimeout,
	}
	return newKafkaPublisher(w, log), nil
}

func newKafkaPublisher(w messageWriter, log *zap.Logger) *KafkaPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	p := &KafkaPublisher{
		writer: w,
		log:    log.With(zap.String("component", "events")),
		now:    time.Now,
		queue:  make(chan kafka.Message, queueSize),
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *KafkaPublisher) run() {
	defer close(p.done)
	for msg := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := p.writer.WriteMessages(ctx, msg)
		cancel()
		if err != nil {
			p.log.Warn("publish failed", zap.String("form", string(msg.Key)), zap.Error(err))
		}
	}
}

// Publish queues ev. It fails when the queue is full or the publisher is
// closed.
func (p *KafkaPublisher) Publish(ev FormFlushed) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	msg := kafka.Message{
		Key:     []byte(ev.FormID),
		Value:   value,
		Headers: []kafka.Header{{Key: "type", Value: []byte(ev.Type)}},
		Time:    ev.FlushedAt,
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return errors.New("publisher closed")
	}
	select {
	case p.queue <- msg:
		return nil
	default:
		return errors.New("event queue full")
	}
}

// Flushed publishes a FormFlushed event.
func (p *KafkaPublisher) Flushed(_ context.Context, formID string, records int, fingerprint uint64, took time.Duration) {
	if err := p.Publish(NewFormFlushed(formID, records, fingerprint, took, p.now())); err != nil {
		p.log.Warn("event dropped", zap.String("form", formID), zap.Error(err))
	}
}

// FlushSkipped is a no-op; unchanged collections produce no event.
func (p *KafkaPublisher) FlushSkipped(string) {}

// FlushFailed is a no-op; failures are reported through logs and metrics.
func (p *KafkaPublisher) FlushFailed(string, error) {}

// Close drains the queue and closes the writer.
func (p *KafkaPublisher) Close(ctx context.Context) error {
	var err error
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.queue)
		p.mu.Unlock()
		select {
		case <-p.done:
		case <-ctx.Done():
			err = ctx.Err()
		}
		if cerr := p.writer.Close(); cerr != nil && err == nil {
			err = cerr
		}
	})
	return err
}
