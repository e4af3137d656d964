// Package app contains the core application logic. It wires the manifest,
// the component registry, the global watcher and the script sources into
// an App and runs its lifecycle, decoupled from any specific entrypoint
// like a CLI or server.
package app
