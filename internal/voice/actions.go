package voice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"eicrcore/internal/builder"
	"eicrcore/internal/bulk"
	"eicrcore/internal/session"
	"eicrcore/pkg/domain"
)

func (r *Registry) addCircuit(_ context.Context, s *session.Session, p Params) string {
	values := map[domain.Field]string{
		domain.FieldCircuitDescription:     p.String("description", "label", "name"),
		domain.FieldCircuitType:            p.String("circuit_type", "type"),
		domain.FieldProtectiveDeviceType:   p.String("device", "device_type"),
		domain.FieldProtectiveDeviceRating: p.String("rating"),
		domain.FieldProtectiveDeviceCurve:  p.String("curve"),
		domain.FieldLiveSize:               p.String("cable_size", "live_size"),
	}
	rec := r.builder.Build(builder.RawCircuit{Source: builder.SourceManual, Values: values})
	report, err := s.Insert([]domain.TestResult{rec}, builder.ModeFillBlank)
	if err != nil {
		return failure(err)
	}
	id := rec.ID
	if len(report.Filled) > 0 {
		id = report.Filled[0]
	}
	placed, err := s.Get(id)
	if err != nil {
		return failure(err)
	}
	if placed.CircuitDescription == "" {
		return "Added " + placed.CircuitDesignation
	}
	return fmt.Sprintf("Added %s: %s", placed.CircuitDesignation, placed.CircuitDescription)
}

func (r *Registry) updateField(_ context.Context, s *session.Session, p Params) string {
	ref, name, value := p.String("circuit", "circuit_number", "id"), p.String("field"), p.String("value")
	if name == "" || value == "" {
		return MsgMissingArgs
	}
	field, err := domain.ParseField(name)
	if err != nil {
		return "Unknown field: " + name
	}
	rec, err := lookup(s, ref)
	if err != nil {
		return failure(err)
	}
	updated, err := s.Update(rec.ID, field, value)
	if err != nil {
		if errors.Is(err, domain.ErrImmutableField) {
			return "Field cannot be changed: " + name
		}
		return failure(err)
	}
	return fmt.Sprintf("Updated %s on %s to %s", field, updated.CircuitDesignation, updated.Get(field))
}

type fillFunc func([]domain.TestResult) ([]domain.TestResult, int, error)

func (r *Registry) fill(s *session.Session, p Params, fn func(domain.Field, string) fillFunc, describe func(domain.Field, string, int) string) string {
	name, value := p.String("field"), p.String("value")
	if name == "" || value == "" {
		return MsgMissingArgs
	}
	field, err := domain.ParseField(name)
	if err != nil {
		return "Unknown field: " + name
	}
	if s.Len() == 0 {
		return MsgNoCircuits
	}
	count := 0
	err = s.Mutate(func(records []domain.TestResult) ([]domain.TestResult, error) {
		out, n, err := fn(field, value)(records)
		count = n
		return out, err
	})
	if err != nil {
		if errors.Is(err, domain.ErrImmutableField) {
			return "Field cannot be changed: " + name
		}
		return failure(err)
	}
	return describe(field, value, count)
}

func (r *Registry) bulkFill(_ context.Context, s *session.Session, p Params) string {
	return r.fill(s, p, func(f domain.Field, v string) fillFunc {
		return func(c []domain.TestResult) ([]domain.TestResult, int, error) { return bulk.FillAll(c, f, v) }
	}, func(f domain.Field, v string, n int) string {
		return fmt.Sprintf("Set %s to %s on %s", f, v, plural(n, "circuit"))
	})
}

func (r *Registry) fillEmpty(_ context.Context, s *session.Session, p Params) string {
	return r.fill(s, p, func(f domain.Field, v string) fillFunc {
		return func(c []domain.TestResult) ([]domain.TestResult, int, error) { return bulk.FillEmpty(c, f, v) }
	}, func(f domain.Field, v string, n int) string {
		return fmt.Sprintf("Filled %s with %s on %s", f, v, plural(n, "empty circuit"))
	})
}

func (r *Registry) fillBoard(_ context.Context, s *session.Session, p Params) string {
	board := p.String("board", "board_name")
	if board == "" {
		return "Missing board name"
	}
	return r.fill(s, p, func(f domain.Field, v string) fillFunc {
		return func(c []domain.TestResult) ([]domain.TestResult, int, error) { return bulk.FillBoard(c, f, v, board) }
	}, func(f domain.Field, v string, n int) string {
		return fmt.Sprintf("Set %s to %s on %s on %s", f, v, plural(n, "circuit"), board)
	})
}

func (r *Registry) applyPreset(_ context.Context, s *session.Session, p Params) string {
	name := p.String("preset", "name")
	if name == "" {
		return "Missing preset name"
	}
	preset, err := r.presets.Get(name)
	if err != nil {
		return "Preset not found: " + name
	}
	set, err := preset.Assignments()
	if err != nil {
		return failure(err)
	}
	records := s.Records()
	if len(records) == 0 {
		return MsgNoCircuits
	}
	var ids []string
	if refs := p.Strings("circuits"); len(refs) > 0 {
		for _, ref := range refs {
			i := domain.IndexByNumber(records, ref)
			if i < 0 {
				i = domain.IndexByID(records, ref)
			}
			if i < 0 {
				return MsgCircuitNotFound
			}
			ids = append(ids, records[i].ID)
		}
	} else {
		for _, rec := range records {
			ids = append(ids, rec.ID)
		}
	}
	count := 0
	err = s.Mutate(func(c []domain.TestResult) ([]domain.TestResult, error) {
		out, n, err := bulk.ApplyPreset(c, set, ids)
		count = n
		return out, err
	})
	if err != nil {
		return failure(err)
	}
	return fmt.Sprintf("Applied %s to %s", preset.Name, plural(count, "circuit"))
}

func (r *Registry) deleteCircuit(_ context.Context, s *session.Session, p Params) string {
	rec, err := lookup(s, p.String("circuit", "circuit_number", "id"))
	if err != nil {
		return failure(err)
	}
	if _, err := s.Delete(rec.ID); err != nil {
		return failure(err)
	}
	return "Deleted " + rec.CircuitDesignation
}

func (r *Registry) undoDelete(_ context.Context, s *session.Session, _ Params) string {
	rec, err := s.Undo()
	if errors.Is(err, session.ErrNothingToUndo) {
		return "Nothing to undo"
	}
	if err != nil {
		return failure(err)
	}
	return "Restored " + rec.CircuitDesignation
}

func (r *Registry) removeAll(_ context.Context, s *session.Session, p Params) string {
	n, err := s.RemoveAll(p.Bool("confirm"))
	if errors.Is(err, session.ErrConfirmationRequired) {
		return "Please confirm removing all circuits"
	}
	if err != nil {
		return failure(err)
	}
	return "Removed " + plural(n, "circuit")
}

func (r *Registry) getCircuit(_ context.Context, s *session.Session, p Params) string {
	rec, err := lookup(s, p.String("circuit", "circuit_number", "id"))
	if err != nil {
		return failure(err)
	}
	return Summary(rec)
}

func (r *Registry) getStatus(_ context.Context, s *session.Session, _ Params) string {
	records := s.Records()
	if len(records) == 0 {
		return "No circuits yet"
	}
	review, tested := 0, 0
	for _, rec := range records {
		if rec.AutoFilled {
			review++
		}
		if strings.TrimSpace(rec.Zs) != "" {
			tested++
		}
	}
	return fmt.Sprintf("%s, %d awaiting review, %d with Zs recorded", plural(len(records), "circuit"), review, tested)
}

// Summary reads a record back in one line.
func Summary(rec domain.TestResult) string {
	var b strings.Builder
	b.WriteString(rec.CircuitDesignation)
	if rec.CircuitDescription != "" {
		b.WriteString(" " + rec.CircuitDescription)
	}
	var parts []string
	if rec.ProtectiveDeviceRating != "" || rec.ProtectiveDeviceType != "" {
		parts = append(parts, strings.TrimSpace(rec.ProtectiveDeviceCurve+rec.ProtectiveDeviceRating+" "+rec.ProtectiveDeviceType))
	}
	if rec.LiveSize != "" {
		parts = append(parts, rec.LiveSize+"/"+rec.CPCSize+"mm")
	}
	if rec.Zs != "" {
		zs := "Zs " + rec.Zs
		if rec.MaxZs != "" {
			zs += " (max " + rec.MaxZs + ")"
		}
		parts = append(parts, zs)
	}
	if len(parts) > 0 {
		b.WriteString(": " + strings.Join(parts, ", "))
	}
	return b.String()
}

func lookup(s *session.Session, ref string) (domain.TestResult, error) {
	if ref == "" {
		return domain.TestResult{}, session.ErrCircuitNotFound
	}
	if rec, err := s.Find(ref); err == nil {
		return rec, nil
	}
	return s.Get(ref)
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
