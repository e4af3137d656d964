package globals

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/compkit/internal/feature"
	"github.com/vk/compkit/internal/scriptsource"
)

func newTestWatcher(t *testing.T) (*Namespace, Watcher) {
	t.Helper()
	ns := NewNamespace()
	return ns, New(ns, feature.Native())
}

func TestWatcher_FiresSynchronouslyWhenResolvable(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	ns, w := newTestWatcher(t)
	require.NoError(t, ns.Define("jQuery", "lib"))
	var got any

	// --- Act ---
	w.WhenGlobalReady("jQuery", func(v any) { got = v })

	// --- Assert ---
	assert.Equal(t, "lib", got)
	assert.Empty(t, w.Outstanding())
}

func TestWatcher_ScriptLoadedResolvesInOrder(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	ns, w := newTestWatcher(t)
	var order []string
	w.WhenGlobalReady("jQuery.fn.once", func(any) { order = append(order, "first") })
	w.WhenGlobalReady("jQuery.fn.once", func(any) { order = append(order, "second") })
	w.WhenGlobalReady("other", func(any) { order = append(order, "other") })
	require.Equal(t, map[string]int{"jQuery.fn.once": 2, "other": 1}, w.Outstanding())

	// --- Act ---
	require.NoError(t, ns.Define("jQuery.fn.once", true))
	assert.Empty(t, order, "resolution must wait for a script load")
	resolved := w.ScriptLoaded("jquery.once.js")

	// --- Assert ---
	assert.Equal(t, 1, resolved)
	assert.Equal(t, []string{"first", "second"}, order)
	assert.Equal(t, map[string]int{"other": 1}, w.Outstanding())
}

func TestWatcher_CallbackFiresOnce(t *testing.T) {
	t.Parallel()

	ns, w := newTestWatcher(t)
	calls := 0
	w.WhenGlobalReady("lib", func(any) { calls++ })
	require.NoError(t, ns.Define("lib", 1))

	w.ScriptLoaded("a.js")
	w.ScriptLoaded("b.js")

	assert.Equal(t, 1, calls)
}

func TestWatcher_ScriptLoadedWithoutChangeLeavesWaits(t *testing.T) {
	t.Parallel()

	_, w := newTestWatcher(t)
	calls := 0
	w.WhenGlobalReady("missing", func(any) { calls++ })

	assert.Equal(t, 0, w.ScriptLoaded("unrelated.js"))
	assert.Equal(t, 0, calls)
	assert.Equal(t, map[string]int{"missing": 1}, w.Outstanding())
}

func TestWatcher_ContextCancelDropsWait(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	ns, w := newTestWatcher(t)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	w.WhenGlobalReadyContext(ctx, "lib", func(any) { calls++ })

	// --- Act ---
	cancel()
	require.Eventually(t, func() bool { return len(w.Outstanding()) == 0 }, time.Second, time.Millisecond)
	require.NoError(t, ns.Define("lib", 1))
	w.ScriptLoaded("lib.js")

	// --- Assert ---
	assert.Equal(t, 0, calls)
}

func TestWatcher_CanceledContextNeverQueues(t *testing.T) {
	t.Parallel()

	_, w := newTestWatcher(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w.WhenGlobalReadyContext(ctx, "lib", func(any) {})

	assert.Empty(t, w.Outstanding())
}

func TestWatcher_WhenAllGlobalsReady(t *testing.T) {
	t.Parallel()

	t.Run("values follow request order", func(t *testing.T) {
		t.Parallel()
		ns, w := newTestWatcher(t)
		require.NoError(t, ns.Define("b", "B"))
		done := make(chan []any, 1)

		w.WhenAllGlobalsReady([]string{"a", "b"}, func(v []any) { done <- v })
		require.NoError(t, ns.Define("a", "A"))
		w.ScriptLoaded("a.js")

		select {
		case got := <-done:
			assert.Equal(t, []any{"A", "B"}, got)
		case <-time.After(time.Second):
			t.Fatal("callback did not fire")
		}
	})

	t.Run("empty list fires synchronously", func(t *testing.T) {
		t.Parallel()
		_, w := newTestWatcher(t)
		var got []any
		w.WhenAllGlobalsReady(nil, func(v []any) { got = v })
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("single path behaves like WhenGlobalReady", func(t *testing.T) {
		t.Parallel()
		ns, w := newTestWatcher(t)
		require.NoError(t, ns.Define("a", 1))
		var got []any
		w.WhenAllGlobalsReady([]string{"a"}, func(v []any) { got = v })
		assert.Equal(t, []any{1}, got)
	})
}

func TestWatcher_Observe(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	_, w := newTestWatcher(t)
	src := make(scriptsource.Chan, 1)
	fired := make(chan any, 1)
	w.WhenGlobalReady("Drupal.behaviors", func(v any) { fired <- v })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- w.Observe(ctx, src) }()

	// --- Act ---
	src <- scriptsource.Event{
		Src:     "drupal.js",
		Globals: map[string]any{"Drupal": map[string]any{"behaviors": "ok"}},
	}

	// --- Assert ---
	select {
	case v := <-fired:
		assert.Equal(t, "ok", v)
	case <-time.After(time.Second):
		t.Fatal("observe did not resolve the wait")
	}
	cancel()
	assert.NoError(t, <-errc)
}

func TestWatcher_PanickingCallbackDoesNotStopOthers(t *testing.T) {
	t.Parallel()

	ns, w := newTestWatcher(t)
	var ran bool
	w.WhenGlobalReady("lib", func(any) { panic("boom") })
	w.WhenGlobalReady("lib", func(any) { ran = true })
	require.NoError(t, ns.Define("lib", 1))

	assert.NotPanics(t, func() { w.ScriptLoaded("lib.js") })
	assert.True(t, ran)
}

// lockedBuffer is a bytes.Buffer safe for concurrent log writes.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatcher_PanickingMultiCallbackIsRecovered(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	logs := &lockedBuffer{}
	ns := NewNamespace()
	w := New(ns, feature.Native(), WithLogger(slog.New(slog.NewTextHandler(logs, nil))))
	w.WhenAllGlobalsReady([]string{"A", "B"}, func([]any) { panic("boom") })
	after := make(chan []any, 1)
	w.WhenAllGlobalsReady([]string{"A", "B"}, func(vs []any) { after <- vs })

	// --- Act ---
	ns.Merge(map[string]any{"A": 1, "B": 2})
	w.ScriptLoaded("ab.js")

	// --- Assert ---
	select {
	case vs := <-after:
		assert.Equal(t, []any{1, 2}, vs)
	case <-time.After(time.Second):
		t.Fatal("second multi-callback never fired")
	}
	assert.Eventually(t, func() bool {
		return strings.Contains(logs.String(), "Global callback panicked.")
	}, time.Second, 5*time.Millisecond)

	assert.NotPanics(t, func() {
		w.WhenAllGlobalsReady(nil, func([]any) { panic("empty") })
		w.WhenAllGlobalsReady([]string{"A"}, func([]any) { panic("single") })
	})
}

func TestWatcher_Reentrant(t *testing.T) {
	t.Parallel()

	ns, w := newTestWatcher(t)
	var inner any
	w.WhenGlobalReady("a", func(any) {
		w.WhenGlobalReady("a", func(v any) { inner = v })
	})
	require.NoError(t, ns.Define("a", 7))
	w.ScriptLoaded("a.js")

	assert.Equal(t, 7, inner)
}

func TestWatcher_ConcurrentRegistration(t *testing.T) {
	t.Parallel()

	ns, w := newTestWatcher(t)
	var mu sync.Mutex
	count := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.WhenGlobalReady("lib", func(any) {
				mu.Lock()
				count++
				mu.Unlock()
			})
		}()
	}
	wg.Wait()
	require.NoError(t, ns.Define("lib", 1))
	w.ScriptLoaded("lib.js")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 50, count)
}

func TestNew_DegradedHostReturnsNoop(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	ns := NewNamespace()
	require.NoError(t, ns.Define("lib", 1))
	env := feature.Native()
	env.SubtreeObserver = false

	// --- Act ---
	w := New(ns, env)
	called := false
	w.WhenGlobalReady("lib", func(any) { called = true })

	// --- Assert ---
	assert.False(t, w.Enabled())
	assert.False(t, called)
	assert.Equal(t, 0, w.ScriptLoaded("x.js"))
	assert.Empty(t, w.Outstanding())
}
