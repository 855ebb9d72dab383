// Package charter is a conversational company-formation assistant: a
// session-based state machine that walks a caller through incorporation
// (state, entity type, name, registered agent, shareholders, certificate)
// and is exposed over MCP, REST, and an interactive CLI.
package charter

// Version is the release version, overridable at build time via
// -ldflags "-X github.com/aretw0/charter.Version=...".
var Version = "0.1.0"
