// Package memory provides an in-memory document store used for tests,
// ephemeral environments, and as the cache behind the SQL-backed stores.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"eicrcore/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain interface.
var _ domain.DocumentStore = (*Store)(nil)

// Snapshot is the full store contents: form id -> field -> JSON document.
type Snapshot map[string]map[string]json.RawMessage

// Store keeps form documents in process memory.
type Store struct {
	mu    sync.RWMutex
	forms Snapshot
}

// NewStore constructs an empty in-memory store.
func NewStore() *Store {
	return &Store{forms: make(Snapshot)}
}

// Load returns the stored document or domain.ErrFieldNotFound.
func (s *Store) Load(ctx context.Context, formID, field string) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.forms[formID][field]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", domain.ErrFieldNotFound, formID, field)
	}
	return cloneRaw(doc), nil
}

// Save stores a copy of value. The value must be valid JSON.
func (s *Store) Save(ctx context.Context, formID, field string, value json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if formID == "" || field == "" {
		return fmt.Errorf("save: form id and field are required")
	}
	if !json.Valid(value) {
		return fmt.Errorf("save %s/%s: payload is not valid JSON", formID, field)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fields, ok := s.forms[formID]
	if !ok {
		fields = make(map[string]json.RawMessage)
		s.forms[formID] = fields
	}
	fields[field] = cloneRaw(value)
	return nil
}

// Fields lists the saved fields of a form in sorted order.
func (s *Store) Fields(ctx context.Context, formID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.forms[formID]))
	for f := range s.forms[formID] {
		out = append(out, f)
	}
	sort.Strings(out)
	return out, nil
}

// Forms lists every form id in sorted order.
func (s *Store) Forms(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.forms))
	for id := range s.forms {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// ExportState returns a deep copy of the store contents.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(Snapshot, len(s.forms))
	for id, fields := range s.forms {
		cp := make(map[string]json.RawMessage, len(fields))
		for f, doc := range fields {
			cp[f] = cloneRaw(doc)
		}
		out[id] = cp
	}
	return out
}

// ImportState replaces the store contents with a copy of snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	next := make(Snapshot, len(snapshot))
	for id, fields := range snapshot {
		cp := make(map[string]json.RawMessage, len(fields))
		for f, doc := range fields {
			cp[f] = cloneRaw(doc)
		}
		next[id] = cp
	}
	s.mu.Lock()
	s.forms = next
	s.mu.Unlock()
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out
}
