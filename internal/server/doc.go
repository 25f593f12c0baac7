// Package server assembles the running service: configuration in, one HTTP
// listener out, with the MCP transports, the tracking tool and its optional
// cache and journal, and the health endpoints all mounted on a single mux.
//
// The Server owns component lifecycles. Run blocks until the context is
// canceled, then shuts the HTTP server down gracefully and closes the cache
// sweeper and the journal database.
package server
