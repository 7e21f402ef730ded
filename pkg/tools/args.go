package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Args holds decoded invocation arguments keyed by param name. Values
// arrive as JSON-decoded types (float64, string, bool) but callers may
// also pass Go ints.
type Args map[string]any

// ParseArgs decodes a JSON object into Args. Empty input yields empty Args.
func ParseArgs(raw string) (Args, error) {
	args := Args{}
	if strings.TrimSpace(raw) == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("tools: parse args: %w", err)
	}
	return args, nil
}

// Has reports whether name was supplied with a non-nil value.
func (a Args) Has(name string) bool {
	v, ok := a[name]
	return ok && v != nil
}

// String returns the argument as a string, or "" when absent.
func (a Args) String(name string) string {
	return a.StringOr(name, "")
}

// StringOr returns the argument as a string, or def when absent.
func (a Args) StringOr(name, def string) string {
	v, ok := a[name]
	if !ok || v == nil {
		return def
	}
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprint(s)
	}
}

// Bool returns the argument as a bool, or def when absent or unparsable.
func (a Args) Bool(name string, def bool) bool {
	switch v := a[name].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	case float64:
		return v != 0
	case int:
		return v != 0
	}
	return def
}

// Float returns the argument as a float64, or def when absent or unparsable.
func (a Args) Float(name string, def float64) float64 {
	if f, ok := a.number(name); ok {
		return f
	}
	return def
}

// Int returns the argument as an int, or def when absent or unparsable.
func (a Args) Int(name string, def int) int {
	if f, ok := a.number(name); ok {
		return int(math.Round(f))
	}
	return def
}

// IntPtr returns a pointer to the argument as an int, or nil when absent.
func (a Args) IntPtr(name string) *int {
	f, ok := a.number(name)
	if !ok {
		return nil
	}
	n := int(math.Round(f))
	return &n
}

func (a Args) number(name string) (float64, bool) {
	switch v := a[name].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

// withDefaults returns a copy of a with missing params filled from d.
func (a Args) withDefaults(d Descriptor) Args {
	out := make(Args, len(a)+len(d.Params))
	for k, v := range a {
		out[k] = v
	}
	for _, p := range d.Params {
		if _, ok := out[p.Name]; !ok && p.Default != nil {
			out[p.Name] = p.Default
		}
	}
	return out
}
