package mode

import (
	"fmt"
	"sort"

	"golang.org/x/text/cases"

	"github.com/conneroisu/sigil/internal/errors"
)

// Builtin enumerates the modes every session starts with.
type Builtin int

const (
	BuiltinNone Builtin = iota
	BuiltinChar
	BuiltinVar
	BuiltinBlock
	BuiltinUse
	BuiltinFunc
	BuiltinArg
	BuiltinImport
	BuiltinInherit
)

// String returns the canonical name of the builtin.
func (b Builtin) String() string {
	switch b {
	case BuiltinChar:
		return "char"
	case BuiltinVar:
		return "var"
	case BuiltinBlock:
		return "block"
	case BuiltinUse:
		return "use"
	case BuiltinFunc:
		return "func"
	case BuiltinArg:
		return "arg"
	case BuiltinImport:
		return "import"
	case BuiltinInherit:
		return "inherit"
	default:
		return "none"
	}
}

// reserved binds every reserved tag name to its builtin.
var reserved = map[string]Builtin{
	"char":      BuiltinChar,
	"character": BuiltinChar,
	"v":         BuiltinVar,
	"_v":        BuiltinVar,
	"var":       BuiltinVar,
	"b":         BuiltinBlock,
	"block":     BuiltinBlock,
	"use":       BuiltinUse,
	"_use":      BuiltinUse,
	"usec":      BuiltinUse,
	"_usec":     BuiltinUse,
	"func":      BuiltinFunc,
	"function":  BuiltinFunc,
	"proc":      BuiltinFunc,
	"procedure": BuiltinFunc,
	"arg":       BuiltinArg,
	"import":    BuiltinImport,
	"inherit":   BuiltinInherit,
}

// StorageModes are the builtin modes that own a storage slot.
var StorageModes = []string{"var", "block", "use", "import", "inherit", "func"}

// Normalize folds a tag name for lookup.
func Normalize(name string) string {
	return cases.Fold().String(name)
}

// IsReserved reports whether name belongs to a builtin.
func IsReserved(name string) bool {
	_, ok := reserved[Normalize(name)]

	return ok
}

// Classify returns the builtin a name is reserved for.
func Classify(name string) Builtin {
	return reserved[Normalize(name)]
}

type binding struct {
	mode        Mode
	contextFree bool
}

// Registry maps tag names to modes.
type Registry struct {
	builtins   map[Builtin]Mode
	disabled   map[string]bool
	extensions map[string]binding
}

// NewRegistry creates a registry with the builtin modes bound.
func NewRegistry() *Registry {
	return &Registry{
		builtins: map[Builtin]Mode{
			BuiltinChar:    Character{},
			BuiltinVar:     Variable{},
			BuiltinBlock:   Block{},
			BuiltinUse:     Use{},
			BuiltinFunc:    Function{},
			BuiltinArg:     Function{},
			BuiltinImport:  Import{},
			BuiltinInherit: Inherit{},
		},
		disabled:   make(map[string]bool),
		extensions: make(map[string]binding),
	}
}

// Register binds name to m. Reserved names that are still bound cannot be
// taken.
func (r *Registry) Register(name string, m Mode, contextFree bool) error {
	key := Normalize(name)
	if key == "" {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig, "mode name cannot be empty")
	}
	if m == nil {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig, fmt.Sprintf("mode `%s` has no handler", key))
	}
	if _, ok := reserved[key]; ok && !r.disabled[key] {
		return errors.NewConfigError(errors.ErrCodeReservedMode,
			fmt.Sprintf("`%s` is a reserved mode name", key))
	}
	r.extensions[key] = binding{mode: m, contextFree: contextFree}

	return nil
}

// Unregister removes the bindings for names. Unknown names are ignored.
func (r *Registry) Unregister(names ...string) {
	for _, name := range names {
		key := Normalize(name)
		delete(r.extensions, key)
		if _, ok := reserved[key]; ok {
			r.disabled[key] = true
		}
	}
}

// Lookup returns the mode bound to name.
func (r *Registry) Lookup(name string) (Mode, bool) {
	key := Normalize(name)
	if b, ok := r.extensions[key]; ok {
		return b.mode, true
	}
	if builtin, ok := reserved[key]; ok && !r.disabled[key] {
		m, bound := r.builtins[builtin]
		return m, bound
	}

	return nil, false
}

// Has reports whether name is bound.
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)

	return ok
}

// IsExtension reports whether name is bound to a registered mode rather
// than a builtin.
func (r *Registry) IsExtension(name string) bool {
	_, ok := r.extensions[Normalize(name)]

	return ok
}

// ContextFree reports the static context-free flag of name. Only inherit
// among the builtins is context bound; unknown names are context bound.
func (r *Registry) ContextFree(name string) bool {
	key := Normalize(name)
	if b, ok := r.extensions[key]; ok {
		return b.contextFree
	}
	builtin, ok := reserved[key]
	if !ok || r.disabled[key] {
		return false
	}

	return builtin != BuiltinInherit
}

// Names returns every bound name in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(reserved)+len(r.extensions))
	for name := range reserved {
		if !r.disabled[name] {
			if _, overridden := r.extensions[name]; !overridden {
				names = append(names, name)
			}
		}
	}
	for name := range r.extensions {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Clone returns a registry with the same bindings.
func (r *Registry) Clone() *Registry {
	out := &Registry{
		builtins:   make(map[Builtin]Mode, len(r.builtins)),
		disabled:   make(map[string]bool, len(r.disabled)),
		extensions: make(map[string]binding, len(r.extensions)),
	}
	for k, v := range r.builtins {
		out.builtins[k] = v
	}
	for k, v := range r.disabled {
		out.disabled[k] = v
	}
	for k, v := range r.extensions {
		out.extensions[k] = v
	}

	return out
}
