// Package events publishes form change notifications to Kafka.
package events

import (
	"context"
	"strconv"
	"time"
)

// Event types.
const (
	TypeFormFlushed = "form.flushed"
)

// FormFlushed is emitted after a collection has been written to the
// document store.
type FormFlushed struct {
	Type        string    `json:"type"`
	FormID      string    `json:"formId"`
	Records     int       `json:"records"`
	Fingerprint string    `json:"fingerprint"`
	TookMillis  int64     `json:"tookMs"`
	FlushedAt   time.Time `json:"flushedAt"`
}

// NewFormFlushed builds the event for a flush outcome.
func NewFormFlushed(formID string, records int, fingerprint uint64, took time.Duration, at time.Time) FormFlushed {
	return FormFlushed{
		Type:        TypeFormFlushed,
		FormID:      formID,
		Records:     records,
		Fingerprint: strconv.FormatUint(fingerprint, 16),
		TookMillis:  took.Milliseconds(),
		FlushedAt:   at.UTC(),
	}
}

// Publisher delivers events. Implementations also act as a session flush
// observer.
type Publisher interface {
	Flushed(ctx context.Context, formID string, records int, fingerprint uint64, took time.Duration)
	FlushSkipped(formID string)
	FlushFailed(formID string, err error)
	Close(ctx context.Context) error
}

// Noop discards every event. It is used when no brokers are configured.
type Noop struct{}

func (Noop) Flushed(context.Context, string, int, uint64, time.Duration) {}
func (Noop) FlushSkipped(string)                                         {}
func (Noop) FlushFailed(string, error)                                   {}
func (Noop) Close(context.Context) error                                 { return nil }
