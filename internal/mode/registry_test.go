package mode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/sigil/internal/errors"
)

func TestRegistryAliases(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name string
		want Builtin
	}{
		{"char", BuiltinChar},
		{"Character", BuiltinChar},
		{"v", BuiltinVar},
		{"_V", BuiltinVar},
		{"b", BuiltinBlock},
		{"_usec", BuiltinUse},
		{"procedure", BuiltinFunc},
		{"arg", BuiltinArg},
		{"IMPORT", BuiltinImport},
		{"inherit", BuiltinInherit},
		{"nope", BuiltinNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.name))
			assert.Equal(t, tt.want != BuiltinNone, r.Has(tt.name))
		})
	}
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()

	err := r.Register("use", Func{}, true)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeReservedMode))

	assert.True(t, errors.IsKind(r.Register("", Func{}, true), errors.KindConfiguration))
	assert.True(t, errors.IsKind(r.Register("x", nil, true), errors.KindConfiguration))

	require.NoError(t, r.Register("Upper", Func{}, false))
	assert.True(t, r.Has("upper"))
	assert.False(t, r.ContextFree("upper"))
	assert.Contains(t, r.Names(), "upper")

	r.Unregister("use")
	assert.False(t, r.Has("use"))
	assert.True(t, r.Has("_use"), "only the named alias is removed")
	require.NoError(t, r.Register("use", Func{}, true), "an unbound reserved name can be taken")
	assert.True(t, r.Has("use"))
}

func TestRegistryContextFree(t *testing.T) {
	r := NewRegistry()

	assert.True(t, r.ContextFree("b"))
	assert.True(t, r.ContextFree("v"))
	assert.False(t, r.ContextFree("inherit"))
	assert.False(t, r.ContextFree("unknown"))
}

func TestRegistryClone(t *testing.T) {
	r := NewRegistry()
	clone := r.Clone()
	clone.Unregister("v")
	require.NoError(t, clone.Register("extra", Func{}, true))

	assert.True(t, r.Has("v"))
	assert.False(t, r.Has("extra"))
}

func TestRegistryIsExtension(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("x", Func{}, true))

	assert.True(t, r.IsExtension("X"))
	assert.False(t, r.IsExtension("v"))
}
