package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// ErrMalformed wraps every payload decoding failure.
var ErrMalformed = errors.New("malformed extraction payload")

// Text is a JSON scalar read as a string. Extraction payloads are loose about
// types: a rating may arrive as 32, "32" or "32A".
type Text string

// UnmarshalJSON accepts strings, numbers, booleans and null.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*t = ""
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(strings.TrimSpace(s))
		return nil
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*t = Text(data)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*t = Text(n.String())
	return nil
}

// String returns the trimmed value.
func (t Text) String() string { return strings.TrimSpace(string(t)) }
