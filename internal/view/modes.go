package view

import (
	"context"
	"fmt"

	"github.com/conneroisu/sigil/internal/errors"
	"github.com/conneroisu/sigil/internal/mode"
)

// ModeInfo describes a bound mode name.
type ModeInfo struct {
	Name        string `json:"name" yaml:"name"`
	ContextFree bool   `json:"context_free" yaml:"context_free"`
	Builtin     bool   `json:"builtin" yaml:"builtin"`
}

// RegisterMode binds name to m and gives it a storage slot.
func (s *Session) RegisterMode(name string, m mode.Mode, contextFree bool) error {
	if err := s.registry.Register(name, m, contextFree); err != nil {
		return err
	}
	key := mode.Normalize(name)
	if !s.storage.Has(key) {
		s.storage.Set(key, map[string]any{})
	}
	s.logger.Debug(context.Background(), "Registered mode", "mode", key, "context_free", contextFree)

	return nil
}

// UnregisterModes removes the bindings and storage of names.
func (s *Session) UnregisterModes(names ...string) {
	s.registry.Unregister(names...)
	for _, name := range names {
		s.storage.Delete(mode.Normalize(name))
	}
}

// Modes lists the bound mode names.
func (s *Session) Modes() []ModeInfo {
	names := s.registry.Names()
	out := make([]ModeInfo, 0, len(names))
	for _, name := range names {
		out = append(out, ModeInfo{
			Name:        name,
			ContextFree: s.registry.ContextFree(name),
			Builtin:     !s.registry.IsExtension(name),
		})
	}

	return out
}

func (s *Session) storageSlot(name string) (string, error) {
	key := mode.Normalize(name)
	if !s.storage.Has(key) {
		return "", errors.NewRangeError(errors.ErrCodeUnknownMode,
			fmt.Sprintf("`%s` has no mode storage", name)).WithSuggestions(errors.Suggest(key, s.storage.Modes())...)
	}

	return key, nil
}

// ModeStorage returns the storage value of a mode.
func (s *Session) ModeStorage(name string) (any, error) {
	key, err := s.storageSlot(name)
	if err != nil {
		return nil, err
	}
	v, _ := s.storage.Get(key)

	return v, nil
}

// StoreModeStorage replaces the storage value of a mode.
func (s *Session) StoreModeStorage(name string, v any) error {
	key, err := s.storageSlot(name)
	if err != nil {
		return err
	}
	s.storage.Set(key, v)

	return nil
}

// ClearModeStorage resets the storage value of a mode to an empty map.
func (s *Session) ClearModeStorage(name string) error {
	return s.StoreModeStorage(name, map[string]any{})
}
