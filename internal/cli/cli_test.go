package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/compkit/internal/app"
)

func TestParse(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name           string
		args           []string
		expectExit     bool
		expectErr      string
		expectedMode   Mode
		expectedConfig *app.Config
		checkOutput    func(t *testing.T, output string)
	}{
		{
			name: "Happy Path with all flags",
			args: []string{
				"-m", "/test/main.hcl",
				"--settings=/test/settings.yaml",
				"--script-dir", "/test/scripts",
				"--socket-url", "http://localhost:3000/socket.io/",
				"--socket-event", "loaded",
				"--status-port=8080",
				"--gate-timeout=30s",
				"--stall-report=1m",
				"--log-level=debug",
				"--log-format=pretty",
				"--log-file=/tmp/compkit.log",
			},
			expectedMode: ModeRun,
			expectedConfig: &app.Config{
				ManifestPaths: []string{"/test/main.hcl"},
				SettingsFiles: []string{"/test/settings.yaml"},
				ScriptDirs:    []string{"/test/scripts"},
				SocketURL:     "http://localhost:3000/socket.io/",
				SocketEvent:   "loaded",
				StatusPort:    8080,
				GateTimeout:   30 * time.Second,
				StallReport:   time.Minute,
				LogFormat:     "pretty",
				LogLevel:      "debug",
				LogFile:       "/tmp/compkit.log",
			},
		},
		{
			name:         "Positional paths and defaults",
			args:         []string{"/a.hcl", "/b"},
			expectedMode: ModeRun,
			expectedConfig: &app.Config{
				ManifestPaths: []string{"/a.hcl", "/b"},
				LogFormat:     "json",
				LogLevel:      "info",
			},
		},
		{
			name:         "Describe subcommand",
			args:         []string{"describe", "--log-level=warn", "/a.hcl"},
			expectedMode: ModeDescribe,
			expectedConfig: &app.Config{
				ManifestPaths: []string{"/a.hcl"},
				LogFormat:     "json",
				LogLevel:      "warn",
			},
		},
		{
			name:         "Manifest subcommand",
			args:         []string{"manifest", "-m", "/a.hcl"},
			expectedMode: ModeManifest,
			expectedConfig: &app.Config{
				ManifestPaths: []string{"/a.hcl"},
				LogFormat:     "json",
				LogLevel:      "info",
			},
		},
		{
			name:       "Help flag triggers clean exit",
			args:       []string{"-h"},
			expectExit: true,
			checkOutput: func(t *testing.T, output string) {
				assert.Contains(t, output, "Usage:")
			},
		},
		{
			name:       "No path prints usage",
			args:       []string{},
			expectExit: true,
			checkOutput: func(t *testing.T, output string) {
				assert.Contains(t, output, "compkit [flags] [MANIFEST_PATH...]")
			},
		},
		{name: "Unknown flag", args: []string{"--nope"}, expectErr: "unknown flag: --nope"},
		{name: "Invalid log format", args: []string{"--log-format=xml", "/a"}, expectErr: "invalid log-format"},
		{name: "Invalid log level", args: []string{"--log-level=loud", "/a"}, expectErr: "invalid log-level"},
		{name: "Invalid port", args: []string{"--status-port=99999", "/a"}, expectErr: "status port"},
		{name: "Missing config file", args: []string{"--config=/does/not/exist.yaml", "/a"}, expectErr: "failed to read config file"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			out := &bytes.Buffer{}

			inv, shouldExit, err := Parse(tc.args, out)

			if tc.expectErr != "" {
				require.Error(t, err)
				var exitErr *ExitError
				require.ErrorAs(t, err, &exitErr)
				assert.Equal(t, 2, exitErr.Code)
				assert.Contains(t, err.Error(), tc.expectErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectExit, shouldExit)
			if tc.checkOutput != nil {
				tc.checkOutput(t, out.String())
			}
			if tc.expectedConfig == nil {
				assert.Nil(t, inv)
				return
			}
			require.NotNil(t, inv)
			assert.Equal(t, tc.expectedMode, inv.Mode)
			if diff := cmp.Diff(tc.expectedConfig, inv.Config, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_EnvAndConfigFile(t *testing.T) {
	t.Setenv("COMPKIT_LOG_LEVEL", "error")
	t.Setenv("COMPKIT_STATUS_PORT", "9090")

	cfgFile := filepath.Join(t.TempDir(), "compkit.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("log-format: text\ngate-timeout: 5s\n"), 0o600))

	inv, shouldExit, err := Parse([]string{"--config", cfgFile, "/a.hcl"}, &bytes.Buffer{})

	require.NoError(t, err)
	require.False(t, shouldExit)
	assert.Equal(t, "error", inv.Config.LogLevel)
	assert.Equal(t, 9090, inv.Config.StatusPort)
	assert.Equal(t, "text", inv.Config.LogFormat)
	assert.Equal(t, 5*time.Second, inv.Config.GateTimeout)
}
