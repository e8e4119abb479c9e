// Package cache stores tokenized template snapshots keyed by template name.
package cache

import (
	"strings"
	"unicode"
)

// Cache is a key-value store for encoded snapshots.
type Cache interface {
	Add(key string, value []byte) error
	Get(key string) ([]byte, bool)
	Delete(key string) error
	Exists(key string) bool
	Clear() error
}

// FriendlyName turns prefix+name into a key made only of letters, digits
// and underscores.
func FriendlyName(prefix, name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, prefix+name)
}

// Nop is a cache that never stores anything.
type Nop struct{}

// Add discards value.
func (Nop) Add(string, []byte) error { return nil }

// Get always misses.
func (Nop) Get(string) ([]byte, bool) { return nil, false }

// Delete does nothing.
func (Nop) Delete(string) error { return nil }

// Exists always reports false.
func (Nop) Exists(string) bool { return false }

// Clear does nothing.
func (Nop) Clear() error { return nil }
