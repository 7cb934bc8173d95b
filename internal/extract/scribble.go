package extract

import (
	"bytes"
	"encoding/json"
	"fmt"

	"eicrcore/internal/builder"
	"eicrcore/pkg/domain"
)

// ParseScribble decodes the free-text parser's output: an array of partial
// records keyed by field name, or an object wrapping it under "circuits".
// Unknown keys are dropped.
func ParseScribble(data []byte) ([]builder.RawCircuit, error) {
	data = bytes.TrimSpace(data)
	var items []map[string]Text
	var defaultConfidence string
	if len(data) > 0 && data[0] == '{' {
		var wrapped struct {
			Circuits   []map[string]Text `json:"circuits"`
			Confidence Text              `json:"confidence"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("%w: scribble: %w", ErrMalformed, err)
		}
		items = wrapped.Circuits
		defaultConfidence = wrapped.Confidence.String()
	} else if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: scribble: %w", ErrMalformed, err)
	}
	out := make([]builder.RawCircuit, 0, len(items))
	for _, item := range items {
		values := make(map[domain.Field]string, len(item))
		confidence := defaultConfidence
		for k, v := range item {
			if k == "confidence" {
				if v.String() != "" {
					confidence = v.String()
				}
				continue
			}
			f, err := domain.ParseField(k)
			if err != nil || f == domain.FieldID || f == domain.FieldAutoFilled {
				continue
			}
			values[f] = v.String()
		}
		out = append(out, builder.RawCircuit{Source: builder.SourceScribble, Confidence: confidence, Values: values})
	}
	return out, nil
}
