// Package mcp implements the Model Context Protocol server for external tool access.
//
// # Overview
//
// MCP (Model Context Protocol) is a standard for AI tool integration. This
// package exposes the registered tools to external AI clients (like Claude
// Desktop, other LLMs, or custom applications) over two transport families.
//
// # Transports
//
// Streamable HTTP: a single /mcp endpoint. POST carries JSON-RPC 2.0
// messages; initialize creates a session announced via the Mcp-Session-Id
// response header, every later request must echo that header, and DELETE
// terminates the session.
//
// SSE: GET /sse opens a long-lived event stream for a fresh session. The
// first event (type "endpoint") tells the client where to POST messages,
// including its sessionId query parameter. POST /messages acknowledges with
// 202 and streams the JSON-RPC response back as a "message" event.
//
// # Sessions
//
// Sessions are in-memory only and owned by the Manager. A session is
// removed when its connection closes or the client terminates it; there is
// no idle timeout. Both transports share one session map, so the stats
// surface sees a single count.
//
// # Methods
//
// initialize, ping, tools/list and tools/call are supported. Notifications
// (requests without an id) are acknowledged with HTTP 202 and otherwise
// ignored. Tool failures surface as tool results with isError set, not as
// JSON-RPC errors; only an unknown tool name is a protocol-level error.
package mcp
