package boot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/compkit/internal/feature"
	"github.com/vk/compkit/internal/future"
	"github.com/vk/compkit/internal/registry"
	"github.com/vk/compkit/internal/stub"
)

func TestFramework_CapturesWhilePending(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	fw := New()
	fired := false

	// --- Act ---
	fw.WhenReady("a", func(*registry.Handle, registry.Environment) { fired = true }).
		RegisterComponent("a", func(*registry.Handle) error { return nil })
	h, ok := fw.Component("a")

	// --- Assert ---
	assert.Equal(t, PhasePending, fw.Phase())
	assert.False(t, fired)
	assert.False(t, ok)
	assert.Nil(t, h)
	assert.False(t, fw.Enabled())
	assert.Nil(t, fw.Describe())
	assert.Empty(t, fw.Settings("a"))
	captured := fw.Captured()
	assert.Len(t, captured[stub.MethodWhenReady], 1)
	assert.Len(t, captured[stub.MethodRegisterComponent], 1)
	assert.Len(t, captured[stub.MethodComponent], 1)
}

func TestFramework_InstallReplaysInOrder(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	fw := New()
	var order []string
	gate := future.Signal()
	fw.WhenReady("a", func(h *registry.Handle, _ registry.Environment) { order = append(order, "ready:"+h.Name()) })
	fw.Delay([]string{"b"}, gate)
	fw.RegisterComponent("a", func(*registry.Handle) error {
		order = append(order, "ctor:a")
		return nil
	})
	fw.RegisterComponent("b", func(*registry.Handle) error {
		order = append(order, "ctor:b")
		return nil
	})

	// --- Act ---
	err := fw.Install(registry.New())

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, PhaseReady, fw.Phase())
	assert.True(t, fw.Enabled())
	assert.Equal(t, []string{"ctor:a", "ready:a"}, order, "b must stay gated after replay")

	_, ok := fw.Component("b")
	assert.False(t, ok)
	gate.Resolve(struct{}{})
	require.Eventually(t, func() bool {
		_, ok := fw.Component("b")
		return ok
	}, timeout, tick)
}

func TestFramework_ForwardsAfterInstall(t *testing.T) {
	t.Parallel()

	fw := New()
	require.NoError(t, fw.Install(registry.New()))
	var got string

	fw.RegisterComponent("a", func(h *registry.Handle) error {
		h.SetValue("value")
		return nil
	}).WhenReady("a", func(h *registry.Handle, _ registry.Environment) { got = h.Value().(string) })

	assert.Equal(t, "value", got)
	assert.Empty(t, fw.Captured())
	core, ok := fw.Core()
	require.True(t, ok)
	assert.Len(t, core.Describe(), 1)
}

func TestFramework_CallsMadeDuringReplayAreReplayedAfter(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	fw := New()
	var order []string
	fw.RegisterComponent("a", func(*registry.Handle) error {
		order = append(order, "ctor:a")
		fw.WhenReady("a", func(*registry.Handle, registry.Environment) { order = append(order, "nested") })
		return nil
	})
	fw.WhenReady("a", func(*registry.Handle, registry.Environment) { order = append(order, "outer") })

	// --- Act ---
	require.NoError(t, fw.Install(registry.New()))

	// --- Assert ---
	assert.Equal(t, []string{"ctor:a", "outer", "nested"}, order)
}

func TestFramework_InstallTwice(t *testing.T) {
	t.Parallel()

	fw := New()
	require.NoError(t, fw.Install(registry.New()))

	assert.ErrorIs(t, fw.Install(registry.New()), ErrAlreadyInstalled)
	assert.ErrorIs(t, New().Install(nil), ErrNilCore)
}

func TestFramework_InstallDegradedCore(t *testing.T) {
	t.Parallel()

	fw := New()
	fired := false
	fw.RegisterComponent("a", func(*registry.Handle) error { return nil }).
		WhenReady("a", func(*registry.Handle, registry.Environment) { fired = true })

	require.NoError(t, fw.Install(registry.Open(feature.Env{})))

	assert.Equal(t, PhaseReady, fw.Phase())
	assert.False(t, fw.Enabled())
	assert.False(t, fired)
}

func TestReplay_RejectsMalformedCalls(t *testing.T) {
	t.Parallel()

	core := registry.New()
	testCases := []struct {
		name string
		call stub.Call
	}{
		{name: "unknown method", call: stub.Call{Method: "bogus"}},
		{name: "register without name", call: stub.Call{Method: stub.MethodRegisterComponent, Args: []any{42}}},
		{name: "whenAllReady without list", call: stub.Call{Method: stub.MethodWhenAllReady, Args: []any{"a"}}},
		{name: "delay with bad list", call: stub.Call{Method: stub.MethodDelay, Args: []any{7}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Error(t, replay(core, tc.call))
		})
	}
}

func TestDefault(t *testing.T) {
	// Not parallel: mutates the process-wide handle.
	ResetDefault()
	t.Cleanup(ResetDefault)

	first := Default()
	assert.Same(t, first, Default())

	replacement := New()
	prev := SetDefault(replacement)
	assert.Same(t, first, prev)
	assert.Same(t, replacement, Default())

	ResetDefault()
	assert.NotSame(t, replacement, Default())
}

const (
	timeout = time.Second
	tick    = time.Millisecond
)
