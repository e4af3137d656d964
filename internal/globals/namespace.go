package globals

import (
	"errors"
	"maps"
	"strings"
	"sync"
)

// ErrInvalidPath is returned for empty paths or paths with empty segments.
var ErrInvalidPath = errors.New("globals: invalid symbol path")

// Namespace is the shared global symbol tree scripts populate. Nested
// objects are map[string]any values. Maps reachable from the namespace are
// never mutated in place: every write copies the maps along its path, so
// values returned by Resolve stay stable.
type Namespace struct {
	mu   sync.RWMutex
	root map[string]any
}

// NewNamespace returns an empty namespace.
func NewNamespace() *Namespace {
	return &Namespace{root: make(map[string]any)}
}

func splitPath(path string) ([]string, error) {
	if path == "" {
		return nil, ErrInvalidPath
	}
	segs := strings.Split(path, ".")
	for _, s := range segs {
		if s == "" {
			return nil, ErrInvalidPath
		}
	}
	return segs, nil
}

// Resolve walks a dotted path such as "jQuery.fn.once". A nil value counts
// as unreachable.
func (n *Namespace) Resolve(path string) (any, bool) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, false
	}
	n.mu.RLock()
	defer n.mu.RUnlock()

	var cur any = n.root
	for _, s := range segs {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := m[s]
		if !ok || v == nil {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

// Define sets the value at path, creating intermediate objects. A
// non-object value in the way is replaced.
func (n *Namespace) Define(path string, v any) error {
	segs, err := splitPath(path)
	if err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.root = setPath(n.root, segs, v)
	return nil
}

// Merge deep-merges values into the namespace. Objects present on both
// sides are merged key by key; everything else is replaced.
func (n *Namespace) Merge(values map[string]any) {
	if len(values) == 0 {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.root = mergeMaps(n.root, values)
}

// Snapshot returns a deep copy of the namespace. Changes to it do not
// reach the namespace.
func (n *Namespace) Snapshot() map[string]any {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return cloneTree(n.root)
}

func cloneTree(m map[string]any) map[string]any {
	out := maps.Clone(m)
	if out == nil {
		return make(map[string]any)
	}
	for k, v := range out {
		if child, ok := v.(map[string]any); ok {
			out[k] = cloneTree(child)
		}
	}
	return out
}

func setPath(m map[string]any, segs []string, v any) map[string]any {
	out := maps.Clone(m)
	if out == nil {
		out = make(map[string]any)
	}
	if len(segs) == 1 {
		out[segs[0]] = v
		return out
	}
	child, _ := out[segs[0]].(map[string]any)
	out[segs[0]] = setPath(child, segs[1:], v)
	return out
}

func mergeMaps(dst, src map[string]any) map[string]any {
	out := maps.Clone(dst)
	if out == nil {
		out = make(map[string]any, len(src))
	}
	for k, v := range src {
		srcMap, srcIsMap := v.(map[string]any)
		if !srcIsMap {
			out[k] = v
			continue
		}
		dstMap, _ := out[k].(map[string]any)
		out[k] = mergeMaps(dstMap, srcMap)
	}
	return out
}
