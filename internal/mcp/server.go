// ABOUTME: MCP-compatible HTTP server for external agents like Claude Code.
// ABOUTME: Implements Streamable HTTP transport with session management.

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tufesa-labs/tufesa-mcp/internal/tools"
)

// Supported MCP protocol versions
var supportedProtocolVersions = map[string]bool{
	"2024-11-05": true,
	"2025-03-26": true,
	"2025-11-25": true,
}

// latestProtocolVersion is the version we advertise in initialize responses
const latestProtocolVersion = "2025-03-26"

// MaxRequestBodySize is the maximum allowed size for request bodies (1MB).
const MaxRequestBodySize = 1 << 20

// ServerName and ServerVersion identify this server in initialize responses.
const (
	ServerName    = "tufesa-mcp"
	ServerVersion = "1.0.0"
)

// JSON-RPC 2.0 types

// JSONRPCRequest represents a JSON-RPC 2.0 request.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse represents a JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *JSONRPCError   `json:"error,omitempty"`
}

// JSONRPCError represents a JSON-RPC 2.0 error object.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Standard JSON-RPC error codes
const (
	JSONRPCParseError     = -32700
	JSONRPCInvalidRequest = -32600
	JSONRPCMethodNotFound = -32601
	JSONRPCInvalidParams  = -32602
	JSONRPCInternalError  = -32603
)

// MCP-specific types

// MCPToolInfo represents an MCP tool definition.
type MCPToolInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// MCPListToolsResult is the result for tools/list.
type MCPListToolsResult struct {
	Tools []MCPToolInfo `json:"tools"`
}

// MCPCallToolParams are the params for tools/call.
type MCPCallToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// MCPCallToolResult is the result for tools/call.
type MCPCallToolResult struct {
	Content           []MCPContent `json:"content"`
	StructuredContent any          `json:"structuredContent,omitempty"`
	IsError           bool         `json:"isError,omitempty"`
}

// MCPContent represents content in a tool result.
type MCPContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Config holds configuration for the MCP server.
type Config struct {
	Registry *tools.Registry
	Logger   *slog.Logger
}

// defaultPushTimeout bounds how long a /messages POST waits for room on a
// backlogged session stream before giving up.
const defaultPushTimeout = 5 * time.Second

// Server exposes the tool registry over both MCP HTTP transports: the
// streamable endpoint at /mcp and the SSE pair at /sse and /messages.
type Server struct {
	registry    *tools.Registry
	logger      *slog.Logger
	sessions    *Manager
	pushTimeout time.Duration
}

// NewServer creates a new MCP server with the given configuration.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Registry == nil {
		return nil, errors.New("registry is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		registry:    cfg.Registry,
		logger:      logger,
		sessions:    NewManager(logger),
		pushTimeout: defaultPushTimeout,
	}, nil
}

// Sessions exposes the session manager, mainly for the stats endpoint.
func (s *Server) Sessions() *Manager {
	return s.sessions
}

// RegisterRoutes registers both transport families on the given ServeMux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/mcp", s.handleMCP)
	mux.HandleFunc("/sse", s.handleSSE)
	mux.HandleFunc("/messages", s.handleMessages)
}

// handleMCP is the single streamable endpoint supporting POST and DELETE.
func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handlePost(w, r)
	case http.MethodGet:
		// We don't support server-initiated SSE streams on this endpoint
		w.Header().Set("Allow", "POST, DELETE")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	case http.MethodDelete:
		s.handleDelete(w, r)
	default:
		w.Header().Set("Allow", "POST, DELETE")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

// handleDelete terminates a session at the client's request.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get("Mcp-Session-Id")
	if sessionID == "" {
		http.Error(w, "Bad Request: missing Mcp-Session-Id", http.StatusBadRequest)
		return
	}

	if !s.sessions.Remove(sessionID) {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	s.logger.Info("MCP session terminated", "session_id", sessionID)
	w.WriteHeader(http.StatusNoContent)
}

// handlePost processes JSON-RPC messages sent via HTTP POST.
func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get("Mcp-Session-Id")
	protoVersion := r.Header.Get("Mcp-Protocol-Version")

	req, ok := s.readRequest(w, r)
	if !ok {
		return
	}

	isInitialize := req.Method == "initialize"
	isNotification := len(req.ID) == 0 || string(req.ID) == "null"

	// Validate protocol version header (not required on initialize).
	// Absence means the pre-header protocol revision; accept it.
	if !isInitialize && protoVersion != "" {
		if !supportedProtocolVersions[protoVersion] {
			http.Error(w, "Bad Request: unsupported MCP-Protocol-Version", http.StatusBadRequest)
			return
		}
	}

	if isInitialize {
		// Resolve rather than always-create: a retried initialize with a
		// still-live session id must not leak a second session.
		sess, created := s.sessions.Resolve(sessionID)
		if created {
			s.logger.Info("MCP session created",
				"session_id", sess.ID,
				"transport", "streamable",
			)
		}
		w.Header().Set("Mcp-Session-Id", sess.ID)
	} else {
		// Non-initialize requests require a valid session
		if sessionID == "" {
			http.Error(w, "Bad Request: missing Mcp-Session-Id", http.StatusBadRequest)
			return
		}
		if _, ok := s.sessions.Get(sessionID); !ok {
			// Session terminated or never existed - client must re-initialize
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
	}

	s.logger.Debug("MCP request",
		"method", req.Method,
		"is_notification", isNotification,
		"session_id", sessionID,
	)

	// Handle notifications: accept and return HTTP 202 with no body
	if isNotification {
		if strings.HasPrefix(req.Method, "notifications/") {
			s.logger.Debug("accepted MCP notification", "method", req.Method)
		} else {
			s.logger.Warn("received notification for non-notification method", "method", req.Method)
		}
		w.WriteHeader(http.StatusAccepted)
		return
	}

	resp := s.dispatch(r.Context(), req)
	s.writeResponse(w, resp)
}

// readRequest reads and decodes one JSON-RPC request, answering protocol
// errors itself. The second return reports whether dispatch should proceed.
func (s *Server) readRequest(w http.ResponseWriter, r *http.Request) (JSONRPCRequest, bool) {
	var req JSONRPCRequest

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBodySize+1))
	if err != nil {
		s.writeResponse(w, errorResponse(nil, JSONRPCParseError, "failed to read request body"))
		return req, false
	}
	if int64(len(body)) > MaxRequestBodySize {
		s.writeResponse(w, errorResponse(nil, JSONRPCInvalidRequest, "request body too large"))
		return req, false
	}

	if err := json.Unmarshal(body, &req); err != nil {
		s.writeResponse(w, errorResponse(nil, JSONRPCParseError, "invalid JSON"))
		return req, false
	}

	if req.JSONRPC != "2.0" {
		s.writeResponse(w, errorResponse(req.ID, JSONRPCInvalidRequest, "invalid JSON-RPC version"))
		return req, false
	}

	return req, true
}

// dispatch routes one JSON-RPC request to its handler and builds the
// response. Both transports funnel through here; initialize side effects
// (session creation) stay in the transport handlers.
func (s *Server) dispatch(ctx context.Context, req JSONRPCRequest) *JSONRPCResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "ping":
		return resultResponse(req.ID, map[string]any{})
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	default:
		return errorResponse(req.ID, JSONRPCMethodNotFound, "method not found")
	}
}

// handleInitialize answers the MCP initialize handshake.
func (s *Server) handleInitialize(req JSONRPCRequest) *JSONRPCResponse {
	result := map[string]any{
		"protocolVersion": latestProtocolVersion,
		"capabilities": map[string]any{
			"tools": map[string]any{},
		},
		"serverInfo": map[string]any{
			"name":    ServerName,
			"version": ServerVersion,
		},
	}
	return resultResponse(req.ID, result)
}

// handleToolsList handles tools/list requests.
func (s *Server) handleToolsList(req JSONRPCRequest) *JSONRPCResponse {
	defs := s.registry.List()

	result := MCPListToolsResult{
		Tools: make([]MCPToolInfo, len(defs)),
	}

	for i, def := range defs {
		schema, err := json.Marshal(def.InputSchema)
		if err != nil {
			s.logger.Warn("failed to encode tool schema", "tool_name", def.Name, "error", err)
			schema = []byte(`{"type":"object"}`)
		}
		result.Tools[i] = MCPToolInfo{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: schema,
		}
	}

	s.logger.Debug("tools/list", "count", len(defs))

	return resultResponse(req.ID, result)
}

// handleToolsCall handles tools/call requests.
func (s *Server) handleToolsCall(ctx context.Context, req JSONRPCRequest) *JSONRPCResponse {
	var params MCPCallToolParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errorResponse(req.ID, JSONRPCInvalidParams, "invalid params")
		}
	}

	if params.Name == "" {
		return errorResponse(req.ID, JSONRPCInvalidParams, "tool name is required")
	}

	s.logger.Debug("tools/call", "tool_name", params.Name)

	res, err := s.registry.Dispatch(ctx, params.Name, params.Arguments)
	if err != nil {
		if errors.Is(err, tools.ErrToolNotFound) {
			return errorResponse(req.ID, JSONRPCInvalidParams, "tool not found")
		}
		s.logger.Warn("tool dispatch failed", "tool_name", params.Name, "error", err)
		return errorResponse(req.ID, JSONRPCInternalError, "tool execution failed")
	}

	result := MCPCallToolResult{
		Content:           make([]MCPContent, len(res.Content)),
		StructuredContent: res.StructuredContent,
		IsError:           res.IsError,
	}
	for i, c := range res.Content {
		result.Content[i] = MCPContent{Type: c.Type, Text: c.Text}
	}

	s.logger.Debug("tools/call complete",
		"tool_name", params.Name,
		"is_error", result.IsError,
	)

	return resultResponse(req.ID, result)
}

func resultResponse(id json.RawMessage, result any) *JSONRPCResponse {
	return &JSONRPCResponse{JSONRPC: "2.0", ID: id, Result: result}
}

func errorResponse(id json.RawMessage, code int, message string) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &JSONRPCError{Code: code, Message: message},
	}
}

// writeResponse sends a JSON-RPC response over the HTTP connection.
func (s *Server) writeResponse(w http.ResponseWriter, resp *JSONRPCResponse) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Warn("failed to encode JSON-RPC response", "error", err)
	}
}
