// Package config handles configuration loading for tufesa-mcp.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults. The server starts
// with a fully defaulted configuration when no file is present; in particular
// a missing upstream base URL falls back to DefaultUpstreamBaseURL instead of
// aborting startup.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from TUFESA_MCP_CONFIG environment variable
//  2. ~/.config/tufesa-mcp/config.yaml (XDG_CONFIG_HOME respected)
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	upstream:
//	  api_key: "${TUFESA_API_KEY}"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	upstream:
//	  timeout: "10s"
//	cache:
//	  ttl: "2m"
//
// Supported units: ns, us, ms, s, m, h
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8080"
//
// Upstream carrier API:
//
//	upstream:
//	  base_url: "https://api.tufesa.com.mx/rastreo"
//	  api_key: "${TUFESA_API_KEY}"
//	  timeout: "10s"
//
// Tracking response cache:
//
//	cache:
//	  enabled: true
//	  ttl: "2m"
//	  max_size: 1024
//
// Lookup journal (optional; empty path disables it):
//
//	database:
//	  path: "/var/lib/tufesa-mcp/lookups.db"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
package config
