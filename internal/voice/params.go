package voice

import (
	"strconv"
	"strings"
)

// Params is the loosely typed argument bag of a command, usually decoded
// from JSON.
type Params map[string]any

// String returns the named value as text; numbers print without trailing zeros.
func (p Params) String(keys ...string) string {
	for _, k := range keys {
		switch v := p[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			return strconv.Itoa(v)
		case bool:
			return strconv.FormatBool(v)
		}
	}
	return ""
}

// Bool reads a flag; "yes" and "true" strings count.
func (p Params) Bool(key string) bool {
	switch v := p[key].(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "y", "1":
			return true
		}
	}
	return false
}

// Strings reads a list, accepting a single value or a comma-separated string.
func (p Params) Strings(key string) []string {
	var out []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	switch v := p[key].(type) {
	case []any:
		for _, item := range v {
			add(Params{"v": item}.String("v"))
		}
	case []string:
		for _, item := range v {
			add(item)
		}
	case string:
		for _, item := range strings.Split(v, ",") {
			add(item)
		}
	case float64, int:
		add(p.String(key))
	}
	return out
}
