// Package config defines the format-agnostic manifest model for the
// application and the Loader interface that concrete formats implement.
//
// A manifest describes the host capabilities, per-component settings,
// named delay gates, expected global symbols and the script sources the
// global watcher observes. The HCL implementation lives in package hcl.
package config
