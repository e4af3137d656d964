package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/compkit/internal/cli"
)

func writeManifest(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.hcl")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600), "failed to set up test file")
	return path
}

func TestRun_LoadError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	path := writeManifest(t, `
		component "print" {
			settings {
		// Missing closing brace here
	`)
	out, logs := &bytes.Buffer{}, &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, logs, []string{path})

	// --- Assert ---
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load manifest")
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}

	err := run(context.Background(), out, &bytes.Buffer{}, []string{"-h"})

	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{"--this-is-not-a-valid-flag"})

	require.Error(t, err)
	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
	assert.Contains(t, err.Error(), "unknown flag: --this-is-not-a-valid-flag")
}

func TestRun_Describe(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	path := writeManifest(t, `
		component "print" {
			settings {
				greeting = "hello"
			}
		}
		gate "later" {
			components = ["env_vars"]
		}
	`)
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, &bytes.Buffer{}, []string{"describe", path})

	// --- Assert ---
	require.NoError(t, err)
	var body struct {
		Enabled    bool `json:"enabled"`
		Components []struct {
			Name       string `json:"name"`
			Registered bool   `json:"registered"`
		} `json:"components"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &body))
	assert.True(t, body.Enabled)

	registered := map[string]bool{}
	for _, c := range body.Components {
		registered[c.Name] = c.Registered
	}
	assert.Equal(t, map[string]bool{"env_vars": false, "print": true}, registered)
}

func TestRun_Manifest(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, `
		expect "jQuery.fn.once" {}
	`)
	out := &bytes.Buffer{}

	err := run(context.Background(), out, &bytes.Buffer{}, []string{"manifest", path})

	require.NoError(t, err)
	assert.Contains(t, out.String(), `expect "jQuery.fn.once"`)
	assert.Contains(t, out.String(), "host {")
}

func TestRun_StopsOnCancel(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, `component "print" {}`)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(50*time.Millisecond, cancel)

	err := run(ctx, &bytes.Buffer{}, &bytes.Buffer{}, []string{"--log-level=debug", path})

	require.NoError(t, err)
}
