// Package builtins provides the built-in tools shipped with tufesa-mcp.
//
// # Overview
//
// Built-in tools execute in-process and are registered once at startup.
// The basic set (ping, hola, sumar) exists mostly so agent clients can
// verify connectivity and schema validation before touching the tracking
// tool; the tracking tool itself lives in internal/tracking because it
// carries the upstream client wiring.
//
// # Usage
//
// Register the basic set on a registry:
//
//	if err := registry.RegisterAll(builtins.Basic()); err != nil {
//	    log.Fatal(err)
//	}
package builtins
