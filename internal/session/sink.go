package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"eicrcore/pkg/domain"
)

// Sink receives form field updates. It is the "save form field" collaborator:
// the session calls it with the field name and the new value.
type Sink interface {
	Update(ctx context.Context, field string, value any) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, field string, value any) error

// Update implements Sink.
func (f SinkFunc) Update(ctx context.Context, field string, value any) error {
	return f(ctx, field, value)
}

// DocumentSink writes updates into a document store under one form.
type DocumentSink struct {
	Store  domain.DocumentStore
	FormID string
}

// Update encodes value as JSON and saves it.
func (s DocumentSink) Update(ctx context.Context, field string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", field, err)
	}
	if err := s.Store.Save(ctx, s.FormID, field, payload); err != nil {
		return fmt.Errorf("save %s/%s: %w", s.FormID, field, err)
	}
	return nil
}

// Observer is notified of flush outcomes.
type Observer interface {
	Flushed(ctx context.Context, formID string, records int, fingerprint uint64, took time.Duration)
	FlushSkipped(formID string)
	FlushFailed(formID string, err error)
}

type noopObserver struct{}

func (noopObserver) Flushed(context.Context, string, int, uint64, time.Duration) {}
func (noopObserver) FlushSkipped(string)                                        {}
func (noopObserver) FlushFailed(string, error)                                  {}

// Observers fans out to several observers.
type Observers []Observer

// Flushed implements Observer.
func (o Observers) Flushed(ctx context.Context, formID string, records int, fingerprint uint64, took time.Duration) {
	for _, ob := range o {
		ob.Flushed(ctx, formID, records, fingerprint, took)
	}
}

// FlushSkipped implements Observer.
func (o Observers) FlushSkipped(formID string) {
	for _, ob := range o {
		ob.FlushSkipped(formID)
	}
}

// FlushFailed implements Observer.
func (o Observers) FlushFailed(formID string, err error) {
	for _, ob := range o {
		ob.FlushFailed(formID, err)
	}
}
