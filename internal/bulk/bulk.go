// Package bulk applies one field value, or a set of them, across a circuit
// collection. Every operation returns a new collection and the number of
// records that changed; the input is never modified.
package bulk

import (
	"fmt"
	"strings"

	"eicrcore/pkg/domain"
)

// Assignment is one field:value pair of a preset.
type Assignment struct {
	Field domain.Field `yaml:"field" json:"field"`
	Value string       `yaml:"value" json:"value"`
}

func validate(f domain.Field) error {
	if f == domain.FieldID {
		return domain.ErrImmutableField
	}
	if !f.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownField, string(f))
	}
	return nil
}

func apply(collection []domain.TestResult, match func(domain.TestResult) bool, set []Assignment) ([]domain.TestResult, int, error) {
	for _, a := range set {
		if err := validate(a.Field); err != nil {
			return nil, 0, err
		}
	}
	out := domain.CloneCollection(collection)
	count := 0
	for i, rec := range out {
		if !match(rec) {
			continue
		}
		changed := false
		for _, a := range set {
			c, err := rec.Set(a.Field, a.Value)
			if err != nil {
				return nil, 0, err
			}
			changed = changed || c
		}
		if changed {
			out[i] = rec
			count++
		}
	}
	return out, count, nil
}

// FillAll sets field to value on every record.
func FillAll(collection []domain.TestResult, field domain.Field, value string) ([]domain.TestResult, int, error) {
	return apply(collection, func(domain.TestResult) bool { return true }, []Assignment{{field, value}})
}

// FillEmpty sets field to value only where it is empty or whitespace.
func FillEmpty(collection []domain.TestResult, field domain.Field, value string) ([]domain.TestResult, int, error) {
	return apply(collection, func(r domain.TestResult) bool {
		return strings.TrimSpace(r.Get(field)) == ""
	}, []Assignment{{field, value}})
}

// FillBoard sets field to value on records whose device location or notes
// mention board, ignoring case. An empty board name matches nothing.
func FillBoard(collection []domain.TestResult, field domain.Field, value, board string) ([]domain.TestResult, int, error) {
	needle := strings.ToLower(strings.TrimSpace(board))
	return apply(collection, func(r domain.TestResult) bool {
		return needle != "" && OnBoard(r, needle)
	}, []Assignment{{field, value}})
}

// OnBoard reports whether the record belongs to the named board.
func OnBoard(r domain.TestResult, board string) bool {
	board = strings.ToLower(strings.TrimSpace(board))
	return strings.Contains(strings.ToLower(r.ProtectiveDeviceLocation), board) ||
		strings.Contains(strings.ToLower(r.Notes), board)
}

// ApplyPreset writes every assignment to the records whose id is in ids.
func ApplyPreset(collection []domain.TestResult, preset []Assignment, ids []string) ([]domain.TestResult, int, error) {
	targets := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		targets[id] = struct{}{}
	}
	return apply(collection, func(r domain.TestResult) bool {
		_, ok := targets[r.ID]
		return ok
	}, preset)
}
