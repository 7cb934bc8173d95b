package core

import (
	"context"
	"strings"

	"eicrcore/internal/bulk"
	"eicrcore/internal/session"
	"eicrcore/internal/voice"
	"eicrcore/pkg/domain"
)

// Records returns a form's collection.
func (s *Service) Records(ctx context.Context, formID string) ([]TestResult, error) {
	var out []TestResult
	err := s.run(ctx, "list_circuits", func(ctx context.Context) error {
		sess, err := s.Session(ctx, formID)
		if err != nil {
			return err
		}
		out = sess.Records()
		return nil
	})
	return out, err
}

// AddCircuit appends an empty circuit numbered after the current maximum.
func (s *Service) AddCircuit(ctx context.Context, formID, description string) (TestResult, error) {
	var added TestResult
	err := s.run(ctx, "add_circuit", func(ctx context.Context) error {
		return s.withSession(ctx, formID, func(sess *session.Session) error {
			var err error
			added, err = sess.Add(strings.TrimSpace(description))
			return err
		})
	})
	return added, err
}

// UpdateField is a manual edit of one field by its JSON name.
func (s *Service) UpdateField(ctx context.Context, formID, circuitID, field, value string) (TestResult, error) {
	var updated TestResult
	err := s.run(ctx, "update_field", func(ctx context.Context) error {
		f, err := domain.ParseField(field)
		if err != nil {
			return err
		}
		return s.withSession(ctx, formID, func(sess *session.Session) error {
			var err error
			updated, err = sess.Update(circuitID, f, value)
			return err
		})
	})
	return updated, err
}

// DeleteCircuit removes one circuit, keeping it for Undo.
func (s *Service) DeleteCircuit(ctx context.Context, formID, circuitID string) (TestResult, error) {
	var removed TestResult
	err := s.run(ctx, "delete_circuit", func(ctx context.Context) error {
		return s.withSession(ctx, formID, func(sess *session.Session) error {
			var err error
			removed, err = sess.Delete(circuitID)
			return err
		})
	})
	return removed, err
}

// Undo restores the last deleted circuit.
func (s *Service) Undo(ctx context.Context, formID string) (TestResult, error) {
	var restored TestResult
	err := s.run(ctx, "undo_delete", func(ctx context.Context) error {
		return s.withSession(ctx, formID, func(sess *session.Session) error {
			var err error
			restored, err = sess.Undo()
			return err
		})
	})
	return restored, err
}

// RemoveAll clears a form. confirm must be true.
func (s *Service) RemoveAll(ctx context.Context, formID string, confirm bool) (int, error) {
	var n int
	err := s.run(ctx, "remove_all_circuits", func(ctx context.Context) error {
		return s.withSession(ctx, formID, func(sess *session.Session) error {
			var err error
			n, err = sess.RemoveAll(confirm)
			return err
		})
	})
	return n, err
}

// Flush writes a form's pending changes now.
func (s *Service) Flush(ctx context.Context, formID string) error {
	return s.run(ctx, "flush", func(ctx context.Context) error {
		sess, err := s.Session(ctx, formID)
		if err != nil {
			return err
		}
		return sess.Flush(ctx)
	})
}

// BulkOp names a bulk mutation.
type BulkOp string

const (
	BulkFillAll   BulkOp = "fill_all"
	BulkFillEmpty BulkOp = "fill_empty"
	BulkFillBoard BulkOp = "fill_board"
	BulkPreset    BulkOp = "apply_preset"
)

// BulkRequest describes one bulk mutation. Field and Value drive the fill
// operations; Preset and IDs drive apply_preset, where no IDs means every
// circuit.
type BulkRequest struct {
	Op     BulkOp   `json:"op"`
	Field  string   `json:"field,omitempty"`
	Value  string   `json:"value,omitempty"`
	Board  string   `json:"board,omitempty"`
	Preset string   `json:"preset,omitempty"`
	IDs    []string `json:"ids,omitempty"`
}

// Bulk applies req and returns the number of records that changed.
func (s *Service) Bulk(ctx context.Context, formID string, req BulkRequest) (int, error) {
	var count int
	err := s.run(ctx, "bulk_"+string(req.Op), func(ctx context.Context) error {
		apply, err := s.bulkFunc(req)
		if err != nil {
			return err
		}
		return s.withSession(ctx, formID, func(sess *session.Session) error {
			return sess.Mutate(func(records []TestResult) ([]TestResult, error) {
				out, n, err := apply(records)
				if err != nil {
					return nil, err
				}
				count = n
				return out, nil
			})
		})
	})
	return count, err
}

func (s *Service) bulkFunc(req BulkRequest) (func([]TestResult) ([]TestResult, int, error), error) {
	if req.Op == BulkPreset {
		preset, err := s.presets.Get(req.Preset)
		if err != nil {
			return nil, err
		}
		set, err := preset.Assignments()
		if err != nil {
			return nil, err
		}
		return func(records []TestResult) ([]TestResult, int, error) {
			ids := req.IDs
			if len(ids) == 0 {
				ids = make([]string, 0, len(records))
				for _, r := range records {
					ids = append(ids, r.ID)
				}
			}
			return bulk.ApplyPreset(records, set, ids)
		}, nil
	}
	field, err := domain.ParseField(req.Field)
	if err != nil {
		return nil, err
	}
	switch req.Op {
	case BulkFillAll:
		return func(r []TestResult) ([]TestResult, int, error) { return bulk.FillAll(r, field, req.Value) }, nil
	case BulkFillEmpty:
		return func(r []TestResult) ([]TestResult, int, error) { return bulk.FillEmpty(r, field, req.Value) }, nil
	case BulkFillBoard:
		return func(r []TestResult) ([]TestResult, int, error) {
			return bulk.FillBoard(r, field, req.Value, req.Board)
		}, nil
	}
	return nil, ErrUnknownBulkOp
}

// Command dispatches a voice action against a form and returns its reply.
func (s *Service) Command(ctx context.Context, formID, action string, params voice.Params) (string, error) {
	var reply string
	err := s.run(ctx, "command", func(ctx context.Context) error {
		sess, err := s.Session(ctx, formID)
		if err != nil {
			return err
		}
		reply = s.voice.Dispatch(ctx, sess, action, params)
		return nil
	})
	return reply, err
}

// Compliance evaluates the rules engine over a form's collection.
func (s *Service) Compliance(ctx context.Context, formID string) (Result, error) {
	var res Result
	err := s.run(ctx, "compliance", func(ctx context.Context) error {
		sess, err := s.Session(ctx, formID)
		if err != nil {
			return err
		}
		res, err = s.engine.Evaluate(ctx, domain.CollectionView{Form: formID, Records: sess.Records()})
		return err
	})
	if res.Violations == nil {
		res.Violations = []Violation{}
	}
	return res, err
}
