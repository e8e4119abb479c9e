package view

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/conneroisu/sigil/internal/errors"
	"github.com/conneroisu/sigil/internal/mode"
)

// arrowSeparator marks a path segment that is itself resolved as a path
// before being spliced into the outer path.
const arrowSeparator = "->"

// Variable describes the most recent variable access.
type Variable struct {
	Path   string
	Exists bool
}

// LastVariable returns the expanded path of the last access and whether
// it resolved.
func (s *Session) LastVariable() Variable {
	return s.lastVariable
}

// Lookup implements mode.Host with the dot separator.
func (s *Session) Lookup(path string) any {
	return s.AccessVariable(path, ".")
}

// AccessVariable resolves path against the data root. Keys are split on
// sep. Each arrow segment is resolved first and appended to the path as
// one more key, so `rows->col.name` reads rows[<value of col.name>].
// Missing keys resolve to nil.
func (s *Session) AccessVariable(path, sep string) any {
	if sep == "" {
		sep = "."
	}

	segments := strings.Split(path, arrowSeparator)
	expanded := segments[0]
	for _, seg := range segments[1:] {
		value, _ := s.resolve(seg, sep)
		expanded += sep + mode.Stringify(value)
	}
	expanded = strings.TrimSpace(expanded)

	value, ok := s.resolve(expanded, sep)
	s.lastVariable = Variable{Path: expanded, Exists: ok}

	return value
}

func (s *Session) resolve(path, sep string) (any, bool) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, false
	}

	var cur any = s.data
	for _, key := range strings.Split(path, sep) {
		next, ok := child(cur, key)
		if !ok {
			return nil, false
		}
		cur = next
	}

	return cur, true
}

func child(v any, key string) (any, bool) {
	switch t := v.(type) {
	case map[string]any:
		x, ok := t[key]
		return x, ok
	case map[string]string:
		x, ok := t[key]
		return x, ok
	case []any:
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= len(t) {
			return nil, false
		}
		return t[i], true
	case []string:
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= len(t) {
			return nil, false
		}
		return t[i], true
	case nil:
		return nil, false
	default:
		m, err := cast.ToStringMapE(v)
		if err != nil {
			return nil, false
		}
		x, ok := m[key]
		return x, ok
	}
}

// AddVariable stores value at a dotted path, creating intermediate maps.
func (s *Session) AddVariable(path string, value any) error {
	keys := strings.Split(path, ".")
	cur := s.data
	for _, key := range keys[:len(keys)-1] {
		next, ok := cur[key]
		if !ok || next == nil {
			m := map[string]any{}
			cur[key] = m
			cur = m
			continue
		}
		m, ok := next.(map[string]any)
		if !ok {
			return errors.NewRangeError(errors.ErrCodeOutOfRange,
				fmt.Sprintf("cannot add `%s`: `%s` holds a %T", path, key, next))
		}
		cur = m
	}
	cur[keys[len(keys)-1]] = value

	return nil
}

// RemoveVariable deletes a top-level key from the data root.
func (s *Session) RemoveVariable(key string) {
	delete(s.data, key)
}
