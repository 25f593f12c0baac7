// ABOUTME: Tests for the streamable HTTP transport including session flow.
// ABOUTME: Validates the initialize handshake, tool listing, and dispatch.

package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/tufesa-labs/tufesa-mcp/internal/tools"
)

// setupTestRegistry creates a registry with test tools.
func setupTestRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	registry := tools.NewRegistry(slog.Default())

	defs := []*tools.Definition{
		{
			Name:        "eco",
			Description: "Echoes the given text",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"texto": {Type: "string"},
				},
				Required: []string{"texto"},
			},
			Handler: func(_ context.Context, input json.RawMessage) (*tools.Result, error) {
				var args struct {
					Texto string `json:"texto"`
				}
				if err := json.Unmarshal(input, &args); err != nil {
					return nil, err
				}
				return tools.TextResult(args.Texto), nil
			},
		},
		{
			Name:        "fallar",
			Description: "Always fails",
			InputSchema: &jsonschema.Schema{Type: "object"},
			Handler: func(context.Context, json.RawMessage) (*tools.Result, error) {
				return tools.ErrorResult("algo salió mal"), nil
			},
		},
	}

	if err := registry.RegisterAll(defs); err != nil {
		t.Fatalf("failed to register test tools: %v", err)
	}
	return registry
}

func setupTestServer(t *testing.T) (*Server, *http.ServeMux) {
	t.Helper()
	server, err := NewServer(Config{
		Registry: setupTestRegistry(t),
		Logger:   slog.Default(),
	})
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	mux := http.NewServeMux()
	server.RegisterRoutes(mux)
	return server, mux
}

// postJSONRPC sends a JSON-RPC request to /mcp and returns the recorder.
func postJSONRPC(t *testing.T, mux *http.ServeMux, sessionID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set("Mcp-Session-Id", sessionID)
	}
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

// initialize performs the handshake and returns the assigned session id.
func initialize(t *testing.T, mux *http.ServeMux) string {
	t.Helper()
	rr := postJSONRPC(t, mux, "", `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("initialize: expected status %d, got %d", http.StatusOK, rr.Code)
	}
	sessionID := rr.Header().Get("Mcp-Session-Id")
	if sessionID == "" {
		t.Fatal("initialize: missing Mcp-Session-Id header")
	}
	return sessionID
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) JSONRPCResponse {
	t.Helper()
	var resp JSONRPCResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func TestHandleInitialize(t *testing.T) {
	t.Run("creates a session and returns server info", func(t *testing.T) {
		server, mux := setupTestServer(t)

		rr := postJSONRPC(t, mux, "", `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
		}
		if rr.Header().Get("Mcp-Session-Id") == "" {
			t.Error("expected Mcp-Session-Id header")
		}
		if server.Sessions().Len() != 1 {
			t.Errorf("expected 1 session, got %d", server.Sessions().Len())
		}

		resp := decodeResponse(t, rr)
		if resp.Error != nil {
			t.Fatalf("unexpected error: %+v", resp.Error)
		}
		result, ok := resp.Result.(map[string]any)
		if !ok {
			t.Fatalf("unexpected result type %T", resp.Result)
		}
		info, _ := result["serverInfo"].(map[string]any)
		if info["name"] != ServerName {
			t.Errorf("expected server name %q, got %v", ServerName, info["name"])
		}
	})

	t.Run("initialize after termination gets a fresh session id", func(t *testing.T) {
		server, mux := setupTestServer(t)
		sessionID := initialize(t, mux)

		del := httptest.NewRequest(http.MethodDelete, "/mcp", nil)
		del.Header.Set("Mcp-Session-Id", sessionID)
		mux.ServeHTTP(httptest.NewRecorder(), del)

		rr := postJSONRPC(t, mux, sessionID, `{"jsonrpc":"2.0","id":2,"method":"initialize","params":{}}`)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
		}
		newID := rr.Header().Get("Mcp-Session-Id")
		if newID == "" || newID == sessionID {
			t.Errorf("expected a fresh session id, got %q", newID)
		}
		if _, ok := server.Sessions().Get(sessionID); ok {
			t.Errorf("terminated session %s is resolvable again", sessionID)
		}
	})

	t.Run("retried initialize with a live id reuses the session", func(t *testing.T) {
		server, mux := setupTestServer(t)

		sessionID := initialize(t, mux)
		rr := postJSONRPC(t, mux, sessionID, `{"jsonrpc":"2.0","id":2,"method":"initialize","params":{}}`)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
		}
		if got := rr.Header().Get("Mcp-Session-Id"); got != sessionID {
			t.Errorf("expected session id %s, got %s", sessionID, got)
		}
		if server.Sessions().Len() != 1 {
			t.Errorf("expected 1 session, got %d", server.Sessions().Len())
		}
	})
}

func TestHandlePostSessionValidation(t *testing.T) {
	t.Run("missing session id on non-initialize returns 400", func(t *testing.T) {
		_, mux := setupTestServer(t)

		rr := postJSONRPC(t, mux, "", `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
		}
	})

	t.Run("unknown session id returns 404", func(t *testing.T) {
		_, mux := setupTestServer(t)

		rr := postJSONRPC(t, mux, "no-such-session", `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
		if rr.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rr.Code)
		}
	})

	t.Run("unsupported protocol version returns 400", func(t *testing.T) {
		_, mux := setupTestServer(t)
		sessionID := initialize(t, mux)

		req := httptest.NewRequest(http.MethodPost, "/mcp",
			bytes.NewBufferString(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
		req.Header.Set("Mcp-Session-Id", sessionID)
		req.Header.Set("Mcp-Protocol-Version", "1999-01-01")
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
		}
	})
}

func TestHandlePostMalformed(t *testing.T) {
	t.Run("invalid JSON returns parse error", func(t *testing.T) {
		_, mux := setupTestServer(t)

		rr := postJSONRPC(t, mux, "", `{not json`)
		resp := decodeResponse(t, rr)
		if resp.Error == nil || resp.Error.Code != JSONRPCParseError {
			t.Errorf("expected parse error, got %+v", resp.Error)
		}
	})

	t.Run("wrong JSON-RPC version is rejected", func(t *testing.T) {
		_, mux := setupTestServer(t)

		rr := postJSONRPC(t, mux, "", `{"jsonrpc":"1.0","id":1,"method":"initialize"}`)
		resp := decodeResponse(t, rr)
		if resp.Error == nil || resp.Error.Code != JSONRPCInvalidRequest {
			t.Errorf("expected invalid request error, got %+v", resp.Error)
		}
	})

	t.Run("oversized body is rejected", func(t *testing.T) {
		_, mux := setupTestServer(t)

		big := strings.Repeat("x", MaxRequestBodySize+1)
		rr := postJSONRPC(t, mux, "", big)
		resp := decodeResponse(t, rr)
		if resp.Error == nil || resp.Error.Code != JSONRPCInvalidRequest {
			t.Errorf("expected invalid request error, got %+v", resp.Error)
		}
	})
}

func TestHandleNotifications(t *testing.T) {
	_, mux := setupTestServer(t)
	sessionID := initialize(t, mux)

	rr := postJSONRPC(t, mux, sessionID, `{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	if rr.Code != http.StatusAccepted {
		t.Errorf("expected status %d, got %d", http.StatusAccepted, rr.Code)
	}
	if rr.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", rr.Body.String())
	}
}

func TestHandleToolsList(t *testing.T) {
	_, mux := setupTestServer(t)
	sessionID := initialize(t, mux)

	rr := postJSONRPC(t, mux, sessionID, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	resp := decodeResponse(t, rr)
	raw, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("failed to re-encode result: %v", err)
	}
	var result MCPListToolsResult
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}

	if len(result.Tools) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(result.Tools))
	}
	// List is sorted by name.
	if result.Tools[0].Name != "eco" || result.Tools[1].Name != "fallar" {
		t.Errorf("unexpected tool order: %s, %s", result.Tools[0].Name, result.Tools[1].Name)
	}
	if !bytes.Contains(result.Tools[0].InputSchema, []byte("texto")) {
		t.Errorf("expected schema to mention texto, got %s", result.Tools[0].InputSchema)
	}
}

func TestHandleToolsCall(t *testing.T) {
	t.Run("executes a tool and returns its text", func(t *testing.T) {
		_, mux := setupTestServer(t)
		sessionID := initialize(t, mux)

		rr := postJSONRPC(t, mux, sessionID,
			`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"eco","arguments":{"texto":"hola"}}}`)
		resp := decodeResponse(t, rr)
		if resp.Error != nil {
			t.Fatalf("unexpected error: %+v", resp.Error)
		}

		raw, _ := json.Marshal(resp.Result)
		var result MCPCallToolResult
		if err := json.Unmarshal(raw, &result); err != nil {
			t.Fatalf("failed to decode result: %v", err)
		}
		if result.IsError {
			t.Error("expected isError=false")
		}
		if len(result.Content) != 1 || result.Content[0].Text != "hola" {
			t.Errorf("unexpected content: %+v", result.Content)
		}
	})

	t.Run("invalid arguments become a tool-level failure", func(t *testing.T) {
		_, mux := setupTestServer(t)
		sessionID := initialize(t, mux)

		rr := postJSONRPC(t, mux, sessionID,
			`{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"eco","arguments":{"texto":7}}}`)
		resp := decodeResponse(t, rr)
		if resp.Error != nil {
			t.Fatalf("expected tool-level failure, got protocol error: %+v", resp.Error)
		}

		raw, _ := json.Marshal(resp.Result)
		var result MCPCallToolResult
		if err := json.Unmarshal(raw, &result); err != nil {
			t.Fatalf("failed to decode result: %v", err)
		}
		if !result.IsError {
			t.Error("expected isError=true")
		}
	})

	t.Run("unknown tool is a protocol error", func(t *testing.T) {
		_, mux := setupTestServer(t)
		sessionID := initialize(t, mux)

		rr := postJSONRPC(t, mux, sessionID,
			`{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"name":"nope"}}`)
		resp := decodeResponse(t, rr)
		if resp.Error == nil || resp.Error.Code != JSONRPCInvalidParams {
			t.Errorf("expected invalid params error, got %+v", resp.Error)
		}
	})

	t.Run("missing tool name is rejected", func(t *testing.T) {
		_, mux := setupTestServer(t)
		sessionID := initialize(t, mux)

		rr := postJSONRPC(t, mux, sessionID,
			`{"jsonrpc":"2.0","id":6,"method":"tools/call","params":{}}`)
		resp := decodeResponse(t, rr)
		if resp.Error == nil || resp.Error.Code != JSONRPCInvalidParams {
			t.Errorf("expected invalid params error, got %+v", resp.Error)
		}
	})
}

func TestHandleUnknownMethod(t *testing.T) {
	_, mux := setupTestServer(t)
	sessionID := initialize(t, mux)

	rr := postJSONRPC(t, mux, sessionID, `{"jsonrpc":"2.0","id":7,"method":"resources/list"}`)
	resp := decodeResponse(t, rr)
	if resp.Error == nil || resp.Error.Code != JSONRPCMethodNotFound {
		t.Errorf("expected method not found, got %+v", resp.Error)
	}
}

func TestHandleDelete(t *testing.T) {
	t.Run("terminates the session", func(t *testing.T) {
		server, mux := setupTestServer(t)
		sessionID := initialize(t, mux)

		req := httptest.NewRequest(http.MethodDelete, "/mcp", nil)
		req.Header.Set("Mcp-Session-Id", sessionID)
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, req)

		if rr.Code != http.StatusNoContent {
			t.Errorf("expected status %d, got %d", http.StatusNoContent, rr.Code)
		}
		if server.Sessions().Len() != 0 {
			t.Errorf("expected 0 sessions, got %d", server.Sessions().Len())
		}

		// Follow-up requests on the dead session must fail.
		post := postJSONRPC(t, mux, sessionID, `{"jsonrpc":"2.0","id":8,"method":"tools/list"}`)
		if post.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, post.Code)
		}
	})

	t.Run("missing session id returns 400", func(t *testing.T) {
		_, mux := setupTestServer(t)

		req := httptest.NewRequest(http.MethodDelete, "/mcp", nil)
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
		}
	})

	t.Run("unknown session id returns 404", func(t *testing.T) {
		_, mux := setupTestServer(t)

		req := httptest.NewRequest(http.MethodDelete, "/mcp", nil)
		req.Header.Set("Mcp-Session-Id", "no-such-session")
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, req)

		if rr.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rr.Code)
		}
	})
}

func TestHandleGet(t *testing.T) {
	_, mux := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rr.Code)
	}
}
