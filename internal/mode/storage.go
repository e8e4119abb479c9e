package mode

import (
	"encoding/json"
	"sort"

	"github.com/spf13/cast"
)

// Storage maps mode names to values a mode keeps for one session. Values
// must be JSON encodable so storage can be cached next to the content.
type Storage struct {
	values map[string]any
}

// NewStorage creates storage with an empty map for each mode.
func NewStorage(modes ...string) *Storage {
	s := &Storage{values: make(map[string]any, len(modes))}
	for _, m := range modes {
		s.values[m] = map[string]any{}
	}

	return s
}

// Has reports whether mode has a storage slot.
func (s *Storage) Has(mode string) bool {
	_, ok := s.values[mode]

	return ok
}

// Get returns the value stored for mode.
func (s *Storage) Get(mode string) (any, bool) {
	v, ok := s.values[mode]

	return v, ok
}

// Set replaces the value stored for mode.
func (s *Storage) Set(mode string, v any) {
	s.values[mode] = v
}

// Delete removes the slot for mode.
func (s *Storage) Delete(mode string) {
	delete(s.values, mode)
}

// Modes returns the slot names in sorted order.
func (s *Storage) Modes() []string {
	out := make([]string, 0, len(s.values))
	for k := range s.values {
		out = append(out, k)
	}
	sort.Strings(out)

	return out
}

// StringMap returns the slot for mode as a string map, creating it when
// missing. Values decoded from a cache are converted in place.
func (s *Storage) StringMap(mode string) map[string]string {
	v, ok := s.values[mode]
	if m, isMap := v.(map[string]string); ok && isMap {
		return m
	}
	m := cast.ToStringMapString(v)
	if m == nil {
		m = map[string]string{}
	}
	s.values[mode] = m

	return m
}

// NestedStringMap returns the slot for mode as a map of string maps.
func (s *Storage) NestedStringMap(mode string) map[string]map[string]string {
	v, ok := s.values[mode]
	if m, isMap := v.(map[string]map[string]string); ok && isMap {
		return m
	}
	out := map[string]map[string]string{}
	for k, inner := range cast.ToStringMap(v) {
		out[k] = cast.ToStringMapString(inner)
	}
	s.values[mode] = out

	return out
}

// Clone returns an independent deep copy.
func (s *Storage) Clone() *Storage {
	out := &Storage{values: make(map[string]any, len(s.values))}
	for k, v := range s.values {
		out.values[k] = cloneValue(v)
	}

	return out
}

// MarshalJSON encodes the storage slots.
func (s *Storage) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.values)
}

// UnmarshalJSON decodes storage slots.
func (s *Storage) UnmarshalJSON(data []byte) error {
	values := map[string]any{}
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	s.values = values

	return nil
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]string:
		out := make(map[string]string, len(t))
		for k, x := range t {
			out[k] = x
		}
		return out
	case map[string]map[string]string:
		out := make(map[string]map[string]string, len(t))
		for k, x := range t {
			out[k] = cloneValue(x).(map[string]string)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[k] = cloneValue(x)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = cloneValue(x)
		}
		return out
	default:
		return v
	}
}

// Frames is the stack of argument bindings of nested function calls.
type Frames struct {
	stack []map[string]string
}

// Push enters a function call.
func (f *Frames) Push(bindings map[string]string) {
	f.stack = append(f.stack, bindings)
}

// Pop leaves the innermost function call.
func (f *Frames) Pop() {
	if len(f.stack) > 0 {
		f.stack = f.stack[:len(f.stack)-1]
	}
}

// Depth returns the number of active calls.
func (f *Frames) Depth() int {
	return len(f.stack)
}

// Lookup returns the innermost binding for key. active is false when no
// call is in progress.
func (f *Frames) Lookup(key string) (value string, found, active bool) {
	if len(f.stack) == 0 {
		return "", false, false
	}
	value, found = f.stack[len(f.stack)-1][key]

	return value, found, true
}
