// Package voice dispatches named commands from the voice assistant to the
// session, builder and bulk operations. Handlers never fail: they return a
// short acknowledgement or one of the guard messages below.
package voice

import (
	"context"
	"errors"
	"sort"
	"sync"

	"go.uber.org/zap"

	"eicrcore/internal/builder"
	"eicrcore/internal/presets"
	"eicrcore/internal/session"
)

// Guard messages returned instead of acknowledgements.
const (
	MsgCircuitNotFound = "Circuit not found"
	MsgNoCircuits      = "No circuits to update. Add a circuit first."
	MsgMissingArgs     = "Missing field or value"
	MsgUnknownAction   = "Unknown action"
	MsgSessionClosed   = "Session closed"
)

// Handler executes one command against a session.
type Handler func(ctx context.Context, s *session.Session, p Params) string

// Registry maps action names to handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	builder  *builder.Builder
	presets  *presets.Catalog
	logger   *zap.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger injects a logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithPresets replaces the preset catalog.
func WithPresets(c *presets.Catalog) Option {
	return func(r *Registry) {
		if c != nil {
			r.presets = c
		}
	}
}

// WithBuilder replaces the record builder.
func WithBuilder(b *builder.Builder) Option {
	return func(r *Registry) {
		if b != nil {
			r.builder = b
		}
	}
}

// NewRegistry returns a registry with the built-in actions.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		handlers: make(map[string]Handler),
		builder:  builder.New(),
		presets:  presets.Defaults(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.Register("add_circuit", r.addCircuit)
	r.Register("update_field", r.updateField)
	r.Register("bulk_fill_circuits", r.bulkFill)
	r.Register("fill_empty_circuits", r.fillEmpty)
	r.Register("fill_board_circuits", r.fillBoard)
	r.Register("apply_preset", r.applyPreset)
	r.Register("delete_circuit", r.deleteCircuit)
	r.Register("undo_delete", r.undoDelete)
	r.Register("remove_all_circuits", r.removeAll)
	r.Register("get_circuit", r.getCircuit)
	r.Register("get_status", r.getStatus)
	return r
}

// Register adds or replaces an action.
func (r *Registry) Register(name string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = h
}

// Actions lists registered action names in sorted order.
func (r *Registry) Actions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Dispatch runs the named action.
func (r *Registry) Dispatch(ctx context.Context, s *session.Session, action string, p Params) string {
	r.mu.RLock()
	h, ok := r.handlers[action]
	r.mu.RUnlock()
	if !ok {
		r.logger.Debug("unknown voice action", zap.String("action", action))
		return MsgUnknownAction
	}
	if p == nil {
		p = Params{}
	}
	reply := h(ctx, s, p)
	r.logger.Debug("voice action", zap.String("action", action), zap.String("form", s.FormID()), zap.String("reply", reply))
	return reply
}

func failure(err error) string {
	switch {
	case errors.Is(err, session.ErrCircuitNotFound):
		return MsgCircuitNotFound
	case errors.Is(err, session.ErrClosed):
		return MsgSessionClosed
	}
	return "Error: " + err.Error()
}
