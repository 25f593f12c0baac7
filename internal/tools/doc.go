// Package tools provides the tool registry and dispatch boundary for tufesa-mcp.
//
// # Overview
//
// Tools are named, schema-validated callables exposed to MCP clients. The
// registry holds the full tool set; registration happens once at startup and
// the set is immutable afterwards. Duplicate names fail registration, which
// is treated as process-fatal by the caller.
//
// # Dispatch Contract
//
// Dispatch is the single failure boundary for tool execution:
//
//  1. Arguments are validated against the tool's JSON schema. A validation
//     failure produces a descriptive text Result (IsError), never a protocol
//     error, so calling agents can self-correct.
//  2. The handler is invoked exactly once. Handler errors and panics are
//     caught here and converted to text Results; they never propagate to the
//     transport layer.
//
// The only error Dispatch itself returns is ErrToolNotFound, which the
// protocol layer maps to a JSON-RPC invalid-params error.
//
// Dispatch enforces no timeout of its own; outbound timeout policy belongs
// to the clients handlers use (see internal/tracking).
//
// # Schemas
//
// Input schemas use github.com/google/jsonschema-go and are resolved at
// registration time so dispatch-time validation cannot fail on a malformed
// schema.
package tools
