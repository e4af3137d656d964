package env_vars

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/compkit/internal/boot"
	"github.com/vk/compkit/internal/feature"
	"github.com/vk/compkit/internal/globals"
	"github.com/vk/compkit/internal/host"
	"github.com/vk/compkit/internal/registry"
)

func TestEnvVars_PublishesIntoNamespace(t *testing.T) {
	t.Setenv("COMPKIT_TEST_REGION", "eu")

	// --- Arrange ---
	ns := globals.NewNamespace()
	w := globals.New(ns, feature.Native())
	hst := host.New(ns, w, nil)

	var region any
	w.WhenGlobalReady("env.REGION", func(v any) { region = v })

	fw := boot.New()
	(&Module{}).Register(fw)
	settings := registry.StaticSettings{Name: {"prefix": "COMPKIT_TEST_", "strip_prefix": true}}

	// --- Act ---
	require.NoError(t, fw.Install(registry.New(
		registry.WithSettings(settings),
		registry.WithEnvironment(hst),
	)))

	// --- Assert ---
	assert.Equal(t, "eu", region)
	v, ok := ns.Resolve("env.REGION")
	require.True(t, ok)
	assert.Equal(t, "eu", v)
	_, leaked := ns.Resolve("env.PATH")
	assert.False(t, leaked)
}

func TestCollect_WithoutPrefixKeepsFullNames(t *testing.T) {
	t.Setenv("COMPKIT_TEST_KEEP", "1")

	vars := collect(registry.Settings{})

	assert.Equal(t, "1", vars["COMPKIT_TEST_KEEP"])
}
