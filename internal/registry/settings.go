package registry

import "fmt"

// Settings is the plain key/value configuration of one component.
type Settings map[string]any

// String returns the value at key formatted as a string, or def when absent.
func (s Settings) String(key, def string) string {
	v, ok := s[key]
	if !ok || v == nil {
		return def
	}
	if str, ok := v.(string); ok {
		return str
	}
	return fmt.Sprint(v)
}

// Bool returns the boolean at key, or def when absent or not a bool.
func (s Settings) Bool(key string, def bool) bool {
	if b, ok := s[key].(bool); ok {
		return b
	}
	return def
}

// SettingsProvider supplies per-component settings, typically rendered by
// the server into the page.
type SettingsProvider interface {
	Settings(component string) Settings
}

// StaticSettings is a SettingsProvider backed by an in-memory map.
type StaticSettings map[string]Settings

// Settings implements SettingsProvider.
func (s StaticSettings) Settings(component string) Settings {
	return s[component]
}
