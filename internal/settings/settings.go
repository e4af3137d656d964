// Package settings loads per-component settings from YAML, TOML or JSON
// files and layers settings providers.
//
// A settings file maps component names to objects:
//
//	tabs:
//	  style: pills
//	map:
//	  zoom: 4
package settings

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/vk/compkit/internal/registry"
	"gopkg.in/yaml.v3"
)

// LoadFile reads a settings file, choosing the decoder by extension.
func LoadFile(path string) (registry.StaticSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("settings: read %s: %w", path, err)
	}

	raw := make(map[string]any)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	case ".toml":
		err = toml.Unmarshal(data, &raw)
	case ".json":
		err = json.Unmarshal(data, &raw)
	default:
		return nil, fmt.Errorf("settings: unsupported file type %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("settings: decode %s: %w", path, err)
	}

	out := make(registry.StaticSettings, len(raw))
	for name, v := range raw {
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("settings: %s: component %q must map to an object, got %T", path, name, v)
		}
		out[name] = registry.Settings(obj)
	}
	return out, nil
}

// LoadFiles loads each file in order and layers them, later files winning.
func LoadFiles(paths ...string) (registry.SettingsProvider, error) {
	providers := make([]registry.SettingsProvider, 0, len(paths))
	for _, p := range paths {
		s, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		providers = append(providers, s)
	}
	return Layered(providers), nil
}

// Layered merges providers key by key. Later providers override earlier
// ones.
type Layered []registry.SettingsProvider

// Settings implements registry.SettingsProvider.
func (l Layered) Settings(component string) registry.Settings {
	var out registry.Settings
	for _, p := range l {
		if p == nil {
			continue
		}
		s := p.Settings(component)
		if s == nil {
			continue
		}
		if out == nil {
			out = make(registry.Settings, len(s))
		}
		maps.Copy(out, s)
	}
	return out
}
