// Package cli turns process arguments, COMPKIT_* environment variables and
// an optional config file into an Invocation. Usage errors surface as
// ExitError so main can pick the exit code.
package cli
