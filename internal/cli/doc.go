// Package cli implements the mashup command line: argument parsing, settings
// overlay, validation and styled progress output.
package cli
