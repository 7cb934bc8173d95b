// Package session owns one form's circuit collection while it is being
// edited. Every mutation replaces the collection and schedules a debounced
// flush to the form's persistence sink.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"eicrcore/internal/builder"
	"eicrcore/pkg/domain"
)

// DefaultDebounce is the quiescence window before a flush.
const DefaultDebounce = time.Second

var (
	// ErrCircuitNotFound is returned when no record has the requested id or number.
	ErrCircuitNotFound = errors.New("circuit not found")
	// ErrNothingToUndo is returned by Undo when no deletion is pending.
	ErrNothingToUndo = errors.New("nothing to undo")
	// ErrConfirmationRequired is returned by RemoveAll without confirmation.
	ErrConfirmationRequired = errors.New("confirmation required")
	// ErrClosed is returned for mutations after Close.
	ErrClosed = errors.New("session closed")
)

type deletion struct {
	record domain.TestResult
	index  int
}

// Session is safe for concurrent use. Concurrent writers resolve
// last-write-wins.
type Session struct {
	formID   string
	sink     Sink
	logger   *zap.Logger
	observer Observer
	debounce time.Duration

	mu       sync.Mutex
	records  []domain.TestResult
	undo     *deletion
	lastFP   uint64
	closed   bool
	modified time.Time

	flushMu sync.Mutex
	deb     *debouncer
}

// Option configures a Session.
type Option func(*Session)

// WithDebounce sets the quiescence window.
func WithDebounce(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// WithLogger injects a logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithObserver registers a flush observer.
func WithObserver(o Observer) Option {
	return func(s *Session) {
		if o != nil {
			s.observer = o
		}
	}
}

// New opens a session over records, which are taken to be the state
// already persisted.
func New(formID string, records []domain.TestResult, sink Sink, opts ...Option) *Session {
	s := &Session{
		formID:   formID,
		sink:     sink,
		logger:   zap.NewNop(),
		observer: noopObserver{},
		debounce: DefaultDebounce,
		records:  domain.CloneCollection(records),
	}
	if s.records == nil {
		s.records = []domain.TestResult{}
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("form", formID))
	s.lastFP = Fingerprint(s.records)
	s.deb = newDebouncer(s.debounce, func() {
		if err := s.flush(context.Background()); err != nil {
			s.logger.Warn("debounced flush failed", zap.Error(err))
		}
	})
	return s
}

// FormID returns the form the session edits.
func (s *Session) FormID() string { return s.formID }

// Records returns a copy of the collection.
func (s *Session) Records() []domain.TestResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CloneCollection(s.records)
}

// Len returns the number of records.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// LastModified returns the time of the last mutation, zero if none.
func (s *Session) LastModified() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modified
}

// Get returns the record with the given id.
func (s *Session) Get(id string) (domain.TestResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := domain.IndexByID(s.records, id)
	if i < 0 {
		return domain.TestResult{}, fmt.Errorf("%w: %s", ErrCircuitNotFound, id)
	}
	return s.records[i], nil
}

// Find returns the record with the given circuit number ("3" or "C3").
func (s *Session) Find(number string) (domain.TestResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := domain.IndexByNumber(s.records, number)
	if i < 0 {
		return domain.TestResult{}, fmt.Errorf("%w: %s", ErrCircuitNotFound, number)
	}
	return s.records[i], nil
}

// Mutate replaces the collection with fn's result. fn receives a copy and
// must not retain it. When fn fails nothing changes.
func (s *Session) Mutate(fn func([]domain.TestResult) ([]domain.TestResult, error)) error {
	return s.mutate(fn, nil)
}

// mutate runs fn and, on success, commit under the same lock as the swap so
// the undo slot always matches the collection it refers to.
func (s *Session) mutate(fn func([]domain.TestResult) ([]domain.TestResult, error), commit func()) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	next, err := fn(domain.CloneCollection(s.records))
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if next == nil {
		next = []domain.TestResult{}
	}
	s.records = next
	s.modified = time.Now()
	if commit != nil {
		commit()
	}
	s.mu.Unlock()
	s.deb.trigger()
	return nil
}

// Update is a manual edit of one field. It clears autoFilled unless the
// field written is autoFilled itself.
func (s *Session) Update(id string, field domain.Field, value string) (domain.TestResult, error) {
	var updated domain.TestResult
	err := s.Mutate(func(records []domain.TestResult) ([]domain.TestResult, error) {
		i := domain.IndexByID(records, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrCircuitNotFound, id)
		}
		rec := records[i]
		if _, err := rec.Set(field, value); err != nil {
			return nil, err
		}
		if field != domain.FieldAutoFilled {
			rec.AutoFilled = false
		}
		records[i] = rec
		updated = rec
		return records, nil
	})
	return updated, err
}

// Add appends a new empty circuit numbered after the current maximum.
func (s *Session) Add(description string) (domain.TestResult, error) {
	var added domain.TestResult
	err := s.Mutate(func(records []domain.TestResult) ([]domain.TestResult, error) {
		added = domain.NewTestResult(builder.NextCircuitNumber(records))
		added.CircuitDescription = description
		return append(records, added), nil
	})
	return added, err
}

// Insert places built records into the collection.
func (s *Session) Insert(incoming []domain.TestResult, mode builder.Mode) (builder.InsertReport, error) {
	var report builder.InsertReport
	err := s.Mutate(func(records []domain.TestResult) ([]domain.TestResult, error) {
		var out []domain.TestResult
		out, report = builder.Insert(records, incoming, mode)
		return out, nil
	})
	return report, err
}

// Delete removes a record and keeps it in the single undo slot, replacing
// whatever deletion was pending.
func (s *Session) Delete(id string) (domain.TestResult, error) {
	var removed deletion
	err := s.mutate(func(records []domain.TestResult) ([]domain.TestResult, error) {
		i := domain.IndexByID(records, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrCircuitNotFound, id)
		}
		removed = deletion{record: records[i], index: i}
		return append(records[:i], records[i+1:]...), nil
	}, func() {
		s.undo = &removed
	})
	if err != nil {
		return domain.TestResult{}, err
	}
	return removed.record, nil
}

// Undo restores the last deleted record at its old position.
func (s *Session) Undo() (domain.TestResult, error) {
	var restored domain.TestResult
	err := s.mutate(func(records []domain.TestResult) ([]domain.TestResult, error) {
		// s.mu is held while fn runs.
		pending := s.undo
		if pending == nil {
			return nil, ErrNothingToUndo
		}
		restored = pending.record
		i := pending.index
		if i > len(records) {
			i = len(records)
		}
		out := make([]domain.TestResult, 0, len(records)+1)
		out = append(out, records[:i]...)
		out = append(out, pending.record)
		return append(out, records[i:]...), nil
	}, func() {
		s.undo = nil
	})
	if err != nil {
		return domain.TestResult{}, err
	}
	return restored, nil
}

// RemoveAll clears the collection. It requires confirm and cannot be undone;
// any pending single deletion is discarded too.
func (s *Session) RemoveAll(confirm bool) (int, error) {
	if !confirm {
		return 0, ErrConfirmationRequired
	}
	removed := 0
	err := s.mutate(func(records []domain.TestResult) ([]domain.TestResult, error) {
		removed = len(records)
		return []domain.TestResult{}, nil
	}, func() {
		s.undo = nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// CanUndo reports whether a deletion is pending.
func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.undo != nil
}

// Pending reports whether a debounced flush is scheduled.
func (s *Session) Pending() bool {
	return s.deb.pending()
}

// Flush cancels any scheduled flush and writes now.
func (s *Session) Flush(ctx context.Context) error {
	s.deb.cancel()
	return s.flush(ctx)
}

// Close stops the scheduler and force-flushes. Later mutations fail with
// ErrClosed; Close is idempotent.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	s.deb.cancel()
	return s.flush(ctx)
}

func (s *Session) flush(ctx context.Context) error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.mu.Lock()
	snapshot := domain.CloneCollection(s.records)
	fp := Fingerprint(snapshot)
	unchanged := fp == s.lastFP
	s.mu.Unlock()

	if unchanged {
		s.observer.FlushSkipped(s.formID)
		return nil
	}
	start := time.Now()
	if err := s.sink.Update(ctx, domain.FieldTestResults, snapshot); err != nil {
		s.logger.Error("flush failed", zap.Error(err))
		s.observer.FlushFailed(s.formID, err)
		return fmt.Errorf("flush form %s: %w", s.formID, err)
	}
	s.mu.Lock()
	s.lastFP = fp
	s.mu.Unlock()
	took := time.Since(start)
	s.logger.Debug("flushed", zap.Int("records", len(snapshot)), zap.Duration("took", took))
	s.observer.Flushed(ctx, s.formID, len(snapshot), fp, took)
	return nil
}
