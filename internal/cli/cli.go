package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vk/compkit/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Mode selects what the process does with the parsed configuration.
type Mode int

const (
	// ModeRun builds the app and runs it until interrupted.
	ModeRun Mode = iota
	// ModeDescribe builds the app and prints the component descriptors.
	ModeDescribe
	// ModeManifest prints the merged manifest as HCL.
	ModeManifest
)

// Invocation is the result of a successful Parse.
type Invocation struct {
	Mode   Mode
	Config *app.Config
}

// EnvPrefix prefixes every environment variable the CLI reads.
const EnvPrefix = "COMPKIT"

const usageHeader = `compkit - lazy, dependency-gated component registry host.

Manifests are .hcl files (or directories of them) declaring components,
delay gates, expected globals and script sources. Every flag can also be
set through a COMPKIT_* environment variable (e.g. COMPKIT_LOG_LEVEL) or
a config file given with --config.
`

// Parse processes command-line arguments. It returns the invocation, a
// boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*Invocation, bool, error) {
	slog.Debug("CLI parser started.")

	var result *Invocation
	v := viper.New()

	capture := func(mode Mode) func(cmd *cobra.Command, args []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(v, args)
			if err != nil {
				return err
			}
			if cfg == nil {
				slog.Debug("No manifest path provided, printing usage and exiting.")
				return cmd.Usage()
			}
			result = &Invocation{Mode: mode, Config: cfg}
			return nil
		}
	}

	root := &cobra.Command{
		Use:           "compkit [flags] [MANIFEST_PATH...]",
		Short:         "Run the component registry host",
		Long:          usageHeader,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE:          capture(ModeRun),
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "describe [MANIFEST_PATH...]",
			Short: "Build the registry and print every component descriptor as JSON",
			RunE:  capture(ModeDescribe),
		},
		&cobra.Command{
			Use:   "manifest [MANIFEST_PATH...]",
			Short: "Print the merged manifest as HCL",
			RunE:  capture(ModeManifest),
		},
	)

	flags := root.PersistentFlags()
	flags.String("config", "", "Config file (yaml, toml or json) supplying flag values.")
	flags.StringSliceP("manifest", "m", nil, "Path to a manifest file or directory. Repeatable.")
	flags.StringSlice("settings", nil, "Component settings file (yaml, toml or json). Repeatable.")
	flags.StringSlice("script-dir", nil, "Directory of script manifests to observe. Repeatable.")
	flags.String("socket-url", "", "Socket.IO endpoint pushing script load events.")
	flags.String("socket-event", "", "Socket.IO event name (default \"script:loaded\").")
	flags.Int("status-port", 0, "Port for the HTTP status server. 0 is disabled.")
	flags.Duration("gate-timeout", 0, "Release gated components after this long. 0 waits forever.")
	flags.Duration("stall-report", 0, "Warn about components still gated after this long. 0 is disabled.")
	flags.String("log-format", "json", "Log output format. Options: 'text', 'json' or 'pretty'.")
	flags.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flags.String("log-file", "", "Also write logs to this size-rotated file.")

	if err := v.BindPFlags(flags); err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root.SetArgs(args)
	root.SetOut(output)
	root.SetErr(output)

	if err := root.Execute(); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return nil, false, exitErr
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	if result == nil {
		return nil, true, nil
	}
	slog.Debug("CLI parser finished successfully.", "config", result.Config)
	return result, false, nil
}

// buildConfig reads the bound values and validates them. It returns a nil
// config when no manifest path was given.
func buildConfig(v *viper.Viper, args []string) (*app.Config, error) {
	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, &ExitError{Code: 2, Message: fmt.Sprintf("failed to read config file: %v", err)}
		}
	}

	paths := append(v.GetStringSlice("manifest"), args...)
	if len(paths) == 0 {
		return nil, nil
	}

	logFormat := strings.ToLower(v.GetString("log-format"))
	switch logFormat {
	case "text", "json", "pretty":
		// valid
	default:
		return nil, &ExitError{Code: 2, Message: "invalid log-format: must be 'text', 'json' or 'pretty'"}
	}

	logLevel := strings.ToLower(v.GetString("log-level"))
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	cfg, err := app.NewConfig(app.Config{
		ManifestPaths: paths,
		SettingsFiles: v.GetStringSlice("settings"),
		ScriptDirs:    v.GetStringSlice("script-dir"),
		SocketURL:     v.GetString("socket-url"),
		SocketEvent:   v.GetString("socket-event"),
		StatusPort:    v.GetInt("status-port"),
		GateTimeout:   v.GetDuration("gate-timeout"),
		StallReport:   v.GetDuration("stall-report"),
		LogFormat:     logFormat,
		LogLevel:      logLevel,
		LogFile:       v.GetString("log-file"),
	})
	if err != nil {
		return nil, &ExitError{Code: 2, Message: err.Error()}
	}
	return cfg, nil
}
