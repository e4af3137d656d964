package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/compkit/internal/feature"
	"github.com/vk/compkit/internal/globals"
	"github.com/vk/compkit/internal/registry"
)

func TestFrom(t *testing.T) {
	t.Parallel()

	ns := globals.NewNamespace()
	h := New(ns, globals.New(ns, feature.Native()), nil)

	got, ok := From(h)
	require.True(t, ok)
	assert.Same(t, h, got)
	assert.NotNil(t, got.Logger)

	_, ok = From("not a host")
	assert.False(t, ok)
	_, ok = From((*Host)(nil))
	assert.False(t, ok)
}

func TestHost_ReachesCallbacks(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	ns := globals.NewNamespace()
	h := New(ns, globals.New(ns, feature.Native()), nil)
	r := registry.New(registry.WithEnvironment(h))
	var got *Host

	// --- Act ---
	r.RegisterComponent("a", func(*registry.Handle) error { return nil })
	r.WhenReady("a", func(_ *registry.Handle, env registry.Environment) { got, _ = From(env) })

	// --- Assert ---
	assert.Same(t, h, got)
}
