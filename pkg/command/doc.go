// Package command decodes editor commands from JSON or YAML and applies them.
//
// It is the shared entry point of the HTTP API, the MCP tools and the
// "canopy apply" command, so every surface speaks the same command set.
package command
