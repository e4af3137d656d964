package registry

import "github.com/vk/compkit/internal/future"

// noopCore stands in for the registry on hosts that fail the feature gate.
type noopCore struct{}

func (n noopCore) RegisterComponent(string, Constructor) Registration {
	return Registration{Core: n, Status: StatusDisabled}
}

func (n noopCore) AddComponent(string, Constructor) Registration {
	return Registration{Core: n, Status: StatusDisabled}
}

func (n noopCore) WhenReady(string, Callback) Core          { return n }
func (n noopCore) WhenAllReady([]string, MultiCallback) Core { return n }
func (n noopCore) Delay([]string, future.Waiter) Core        { return n }
func (n noopCore) Settings(string) Settings                  { return Settings{} }
func (n noopCore) Component(string) (*Handle, bool)          { return nil, false }
func (n noopCore) Enabled() bool                             { return false }
func (n noopCore) Describe() []Descriptor                    { return nil }
