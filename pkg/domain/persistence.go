package domain

import (
	"context"
	"encoding/json"
	"errors"
)

// FieldTestResults is the form field that holds a form's circuit collection.
const FieldTestResults = "testResults"

// ErrFieldNotFound is returned by DocumentStore.Load when a form has never
// saved the requested field.
var ErrFieldNotFound = errors.New("form field not found")

// DocumentStore is the external key-value document store behind every form.
// Values are opaque JSON documents addressed by (form id, field name).
type DocumentStore interface {
	Load(ctx context.Context, formID, field string) (json.RawMessage, error)
	Save(ctx context.Context, formID, field string, value json.RawMessage) error
	Fields(ctx context.Context, formID string) ([]string, error)
	Forms(ctx context.Context) ([]string, error)
	Close() error
}

// LoadTestResults reads and decodes the circuit collection of a form. A form
// that never saved one yields an empty collection.
func LoadTestResults(ctx context.Context, store DocumentStore, formID string) ([]TestResult, error) {
	raw, err := store.Load(ctx, formID, FieldTestResults)
	if errors.Is(err, ErrFieldNotFound) {
		return []TestResult{}, nil
	}
	if err != nil {
		return nil, err
	}
	var records []TestResult
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, err
		}
	}
	if records == nil {
		records = []TestResult{}
	}
	return records, nil
}
