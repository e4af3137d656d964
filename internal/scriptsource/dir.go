package scriptsource

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/vk/compkit/internal/ctxlog"
	"gopkg.in/yaml.v3"
)

// DefaultPatterns are the manifest files a Dir source reacts to.
var DefaultPatterns = []string{"**/*.json", "**/*.yaml", "**/*.yml"}

// Dir treats every manifest file written under Root as a loaded script.
// A manifest is a JSON or YAML object whose top-level keys are the globals
// the script defines. Existing manifests are emitted once at startup, in
// lexical order.
type Dir struct {
	Root     string
	Patterns []string
}

func (d Dir) patterns() []string {
	if len(d.Patterns) == 0 {
		return DefaultPatterns
	}
	return d.Patterns
}

func (d Dir) matches(rel string) bool {
	normalized := filepath.ToSlash(rel)
	for _, pat := range d.patterns() {
		if ok, err := doublestar.Match(pat, normalized); err == nil && ok {
			return true
		}
	}
	return false
}

// Run watches Root until ctx is done.
func (d Dir) Run(ctx context.Context, emit func(Event)) error {
	ctx, logger := ctxlog.With(ctx, "source", "dir", "root", d.Root)

	root, err := filepath.Abs(d.Root)
	if err != nil {
		return fmt.Errorf("scriptsource: resolve root %q: %w", d.Root, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("scriptsource: create watcher: %w", err)
	}
	defer func() {
		if closeErr := fsw.Close(); closeErr != nil {
			logger.Warn("Failed to close watcher.", "error", closeErr)
		}
	}()

	if err := addDirectories(fsw, root); err != nil {
		return err
	}

	initial, err := d.scan(root)
	if err != nil {
		return err
	}
	for _, rel := range initial {
		d.load(ctx, root, rel, emit)
	}
	logger.Debug("Initial manifests loaded.", "count", len(initial))

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-fsw.Events:
			if !ok {
				return fmt.Errorf("scriptsource: event channel closed unexpectedly")
			}
			if evt.Has(fsnotify.Create) {
				if info, statErr := os.Stat(evt.Name); statErr == nil && info.IsDir() {
					if addErr := fsw.Add(evt.Name); addErr != nil {
						logger.Warn("Failed to watch new directory.", "dir", evt.Name, "error", addErr)
					}
					continue
				}
			}
			if !evt.Has(fsnotify.Create) && !evt.Has(fsnotify.Write) {
				continue
			}
			rel, relErr := filepath.Rel(root, evt.Name)
			if relErr != nil || !d.matches(rel) {
				continue
			}
			d.load(ctx, root, rel, emit)
		case err, ok := <-fsw.Errors:
			if !ok {
				return fmt.Errorf("scriptsource: error channel closed unexpectedly")
			}
			logger.Warn("Watcher error.", "error", err)
		}
	}
}

func (d Dir) scan(root string) ([]string, error) {
	fsys := os.DirFS(root)
	seen := make(map[string]struct{})
	for _, pat := range d.patterns() {
		found, err := doublestar.Glob(fsys, pat)
		if err != nil {
			return nil, fmt.Errorf("scriptsource: glob %q: %w", pat, err)
		}
		for _, f := range found {
			seen[f] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}
	slices.Sort(out)
	return out, nil
}

func (d Dir) load(ctx context.Context, root, rel string, emit func(Event)) {
	logger := ctxlog.FromContext(ctx)
	globals, err := ReadManifest(filepath.Join(root, rel))
	if err != nil {
		logger.Warn("Skipping unreadable manifest.", "file", rel, "error", err)
		return
	}
	emit(Event{Src: filepath.ToSlash(rel), Globals: globals})
}

// ReadManifest decodes a JSON or YAML manifest file into a globals map.
// An empty file yields an empty map.
func ReadManifest(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	globals := make(map[string]any)
	if len(strings.TrimSpace(string(data))) == 0 {
		return globals, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &globals)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &globals)
	default:
		return nil, fmt.Errorf("unsupported manifest extension %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return globals, nil
}

func addDirectories(fsw *fsnotify.Watcher, root string) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil //nolint:nilerr // skip inaccessible paths
		}
		if !d.IsDir() {
			return nil
		}
		if addErr := fsw.Add(path); addErr != nil {
			return fmt.Errorf("scriptsource: watch %q: %w", path, addErr)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scriptsource: walk %q: %w", root, err)
	}
	return nil
}
