// Package core is the application shell: it opens one session per form,
// routes extraction payloads through the builder, and evaluates the
// compliance rules over a form's schedule.
package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"eicrcore/internal/archive"
	"eicrcore/internal/builder"
	"eicrcore/internal/presets"
	"eicrcore/internal/session"
	"eicrcore/internal/voice"
	"eicrcore/pkg/domain"
)

// DefaultIdleTTL is how long an untouched session stays open.
const DefaultIdleTTL = 30 * time.Minute

// Service exposes form operations over a document store.
type Service struct {
	store    domain.DocumentStore
	engine   *RulesEngine
	builder  *builder.Builder
	presets  *presets.Catalog
	voice    *voice.Registry
	archiver *archive.Archiver

	observers session.Observers
	metrics   MetricsRecorder
	tracer    Tracer
	logger    *zap.Logger
	debounce  time.Duration
	idleTTL   time.Duration

	openMu   sync.Mutex
	sessions *cache.Cache
	closed   bool
}

// Option configures a Service.
type Option func(*Service)

// WithRulesEngine replaces the default compliance rules.
func WithRulesEngine(e *RulesEngine) Option {
	return func(s *Service) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithBuilder replaces the record builder.
func WithBuilder(b *builder.Builder) Option {
	return func(s *Service) {
		if b != nil {
			s.builder = b
		}
	}
}

// WithPresets replaces the preset catalog.
func WithPresets(c *presets.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.presets = c
		}
	}
}

// WithArchiver enables scan archiving and schedule export.
func WithArchiver(a *archive.Archiver) Option {
	return func(s *Service) { s.archiver = a }
}

// WithObserver adds a flush observer to every session.
func WithObserver(o session.Observer) Option {
	return func(s *Service) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

// WithMetrics installs an operation recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithTracer installs a tracer.
func WithTracer(t Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithLogger injects a logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDebounce sets the session flush window.
func WithDebounce(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// WithIdleTTL sets how long an idle session stays open.
func WithIdleTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.idleTTL = d
		}
	}
}

// NewService constructs a service over store.
func NewService(store domain.DocumentStore, opts ...Option) *Service {
	s := &Service{
		store:    store,
		engine:   NewDefaultRulesEngine(),
		builder:  builder.New(),
		presets:  presets.Defaults(),
		metrics:  noopMetrics{},
		tracer:   noopTracer{},
		logger:   zap.NewNop(),
		debounce: session.DefaultDebounce,
		idleTTL:  DefaultIdleTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.voice = voice.NewRegistry(
		voice.WithBuilder(s.builder),
		voice.WithPresets(s.presets),
		voice.WithLogger(s.logger.Named("voice")),
	)
	s.sessions = cache.New(s.idleTTL, s.idleTTL/2)
	s.sessions.OnEvicted(s.evicted)
	return s
}

// NewInMemoryService creates a service over a fresh in-memory store.
func NewInMemoryService(opts ...Option) *Service {
	store, _ := OpenDocumentStore(context.Background(), StorageConfig{Driver: string(StorageMemory)})
	return NewService(store, opts...)
}

// Store returns the underlying document store.
func (s *Service) Store() domain.DocumentStore { return s.store }

// Engine returns the compliance rules engine.
func (s *Service) Engine() *RulesEngine { return s.engine }

// Presets returns the preset catalog.
func (s *Service) Presets() *presets.Catalog { return s.presets }

// Builder returns the record builder.
func (s *Service) Builder() *builder.Builder { return s.builder }

// Voice returns the command registry.
func (s *Service) Voice() *voice.Registry { return s.voice }

// run wraps an operation with tracing and metrics.
func (s *Service) run(ctx context.Context, op string, fn func(context.Context) error) error {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, op)
	err := fn(ctx)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, time.Since(start))
	return err
}

// Session returns the open session for formID, loading the stored
// collection on first use. Access renews the idle timer.
func (s *Service) Session(ctx context.Context, formID string) (*session.Session, error) {
	if formID == "" {
		return nil, ErrNotFound{Entity: domain.EntityForm, ID: formID}
	}
	s.openMu.Lock()
	defer s.openMu.Unlock()
	if s.closed {
		return nil, ErrServiceClosed
	}
	if v, ok := s.sessions.Get(formID); ok {
		sess := v.(*session.Session)
		s.sessions.SetDefault(formID, sess)
		return sess, nil
	}
	// Expired entries linger until the janitor runs; close them first so
	// their pending edits reach the store before it is read again.
	s.sessions.DeleteExpired()
	records, err := domain.LoadTestResults(ctx, s.store, formID)
	if err != nil {
		return nil, fmt.Errorf("load form %s: %w", formID, err)
	}
	opts := []session.Option{
		session.WithDebounce(s.debounce),
		session.WithLogger(s.logger.Named("session")),
	}
	if len(s.observers) > 0 {
		opts = append(opts, session.WithObserver(s.observers))
	}
	sess := session.New(formID, records, session.DocumentSink{Store: s.store, FormID: formID}, opts...)
	s.sessions.SetDefault(formID, sess)
	s.publishActive()
	s.logger.Debug("session opened", zap.String("form", formID), zap.Int("records", len(records)))
	return sess, nil
}

func (s *Service) evicted(formID string, v any) {
	sess, ok := v.(*session.Session)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := sess.Close(ctx); err != nil {
		s.logger.Error("close evicted session", zap.String("form", formID), zap.Error(err))
	}
	s.publishActive()
}

func (s *Service) publishActive() {
	if g, ok := s.metrics.(interface{ SetActiveSessions(int) }); ok {
		g.SetActiveSessions(s.sessions.ItemCount())
	}
}

func (s *Service) recordBuilt(source builder.Source, n int) {
	if r, ok := s.metrics.(interface{ RecordsBuilt(string, int) }); ok {
		r.RecordsBuilt(string(source), n)
	}
}

// withSession runs fn against the form's session, reopening once if the
// session was evicted concurrently.
func (s *Service) withSession(ctx context.Context, formID string, fn func(*session.Session) error) error {
	for attempt := 0; ; attempt++ {
		sess, err := s.Session(ctx, formID)
		if err != nil {
			return err
		}
		err = fn(sess)
		if errors.Is(err, session.ErrClosed) && attempt == 0 {
			continue
		}
		return err
	}
}

// ActiveSessions returns the number of open sessions.
func (s *Service) ActiveSessions() int { return s.sessions.ItemCount() }

// CloseSession flushes and closes one form's session.
func (s *Service) CloseSession(ctx context.Context, formID string) error {
	return s.run(ctx, "close_session", func(ctx context.Context) error {
		v, ok := s.sessions.Get(formID)
		if !ok {
			return nil
		}
		err := v.(*session.Session).Close(ctx)
		s.sessions.Delete(formID)
		return err
	})
}

// Close flushes and closes every open session. Further calls fail with
// ErrServiceClosed.
func (s *Service) Close(ctx context.Context) error {
	s.openMu.Lock()
	if s.closed {
		s.openMu.Unlock()
		return nil
	}
	s.closed = true
	s.sessions.DeleteExpired()
	items := s.sessions.Items()
	s.openMu.Unlock()

	var errs []error
	for formID, item := range items {
		if err := item.Object.(*session.Session).Close(ctx); err != nil {
			errs = append(errs, err)
		}
		s.sessions.Delete(formID)
	}
	return errors.Join(errs...)
}

// Forms lists the forms known to the store.
func (s *Service) Forms(ctx context.Context) ([]string, error) {
	return s.store.Forms(ctx)
}
