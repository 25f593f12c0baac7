// ABOUTME: SSE transport family: GET /sse opens the event stream and POST
// ABOUTME: /messages dispatches JSON-RPC, replies streamed over the channel.

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// handleSSE opens the long-lived event stream for a new session. The first
// event announces the message endpoint the client must POST to; every
// JSON-RPC response for the session follows as a message event. The session
// lives exactly as long as this connection.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	sess, _ := s.sessions.Resolve("")
	defer s.sessions.Remove(sess.ID)

	s.logger.Info("MCP session created",
		"session_id", sess.ID,
		"transport", "sse",
	)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: endpoint\ndata: /messages?sessionId=%s\n\n", sess.ID)
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("SSE connection closed", "session_id", sess.ID)
			return
		case <-sess.Done():
			// Terminated from elsewhere; close the stream.
			return
		case payload := <-sess.Events():
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

// handleMessages accepts JSON-RPC messages for an SSE session. The HTTP
// response only acknowledges receipt; the JSON-RPC response travels back
// over the session's event stream.
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		http.Error(w, "Bad Request: missing sessionId", http.StatusBadRequest)
		return
	}

	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	req, ok := s.readRequest(w, r)
	if !ok {
		return
	}

	isNotification := len(req.ID) == 0 || string(req.ID) == "null"
	if isNotification {
		if !strings.HasPrefix(req.Method, "notifications/") {
			s.logger.Warn("received notification for non-notification method", "method", req.Method)
		}
		w.WriteHeader(http.StatusAccepted)
		return
	}

	resp := s.dispatch(r.Context(), req)

	payload, err := json.Marshal(resp)
	if err != nil {
		s.logger.Warn("failed to encode JSON-RPC response", "session_id", sessionID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	// Bound the wait so a stalled stream reader answers as backpressure,
	// not as a dead session.
	pushCtx, cancel := context.WithTimeout(r.Context(), s.pushTimeout)
	defer cancel()

	if err := sess.Push(pushCtx, payload); err != nil {
		s.logger.Warn("failed to deliver response to session stream",
			"session_id", sessionID,
			"error", err,
		)
		if errors.Is(err, ErrSessionClosed) {
			http.Error(w, "Gone", http.StatusGone)
		} else {
			http.Error(w, "Service Unavailable: session stream backlogged", http.StatusServiceUnavailable)
		}
		return
	}

	w.WriteHeader(http.StatusAccepted)
}
