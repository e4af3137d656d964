package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/compkit/internal/app"
	"github.com/vk/compkit/internal/boot"
	"github.com/vk/compkit/internal/hcl"
)

// HarnessResult holds the outcomes of an integration test setup.
type HarnessResult struct {
	LogOutput *SafeBuffer
	Err       error
	App       *app.App
	Dir       string
}

// WriteFiles lays files out under a fresh temp dir, creating
// subdirectories as needed, and returns the dir.
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return dir
}

// NewTestApp writes files to a temp dir and builds an App with the HCL
// loader pointed at it. cfg may be nil; its ManifestPaths are replaced.
func NewTestApp(t *testing.T, files map[string]string, cfg *app.Config, modules ...app.Module) *HarnessResult {
	t.Helper()

	dir := WriteFiles(t, files)
	if cfg == nil {
		cfg = &app.Config{}
	}
	cfg.ManifestPaths = []string{dir}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}

	logBuffer := &SafeBuffer{}
	testApp, err := app.NewApp(logBuffer, cfg, hcl.NewLoader(), modules...)
	if testApp != nil {
		t.Cleanup(func() { _ = testApp.Close() })
	}

	t.Cleanup(func() {
		if os.Getenv("COMPKIT_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return &HarnessResult{
		LogOutput: logBuffer,
		Err:       err,
		App:       testApp,
		Dir:       dir,
	}
}

// ModuleFunc adapts a function to app.Module.
type ModuleFunc func(fw *boot.Framework)

// Register implements app.Module.
func (f ModuleFunc) Register(fw *boot.Framework) { f(fw) }
