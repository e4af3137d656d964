// Package hcl provides the concrete HCL implementation of config.Loader.
// It is responsible for file discovery, parsing, HCL-to-model translation
// and CTY-to-Go conversion of component settings, plus rendering a model
// back to HCL.
package hcl
