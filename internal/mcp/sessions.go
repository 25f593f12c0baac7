// ABOUTME: In-memory MCP session tracking shared by both transports.
// ABOUTME: Sessions live exactly as long as their connection; no timers.

package mcp

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSessionClosed is returned when pushing to a terminated session.
var ErrSessionClosed = errors.New("session closed")

// sessionBuffer bounds the outbound event queue of an SSE session.
const sessionBuffer = 16

// Session is one live MCP client session. Streamable HTTP clients reply on
// the request connection and never touch the event queue; SSE clients drain
// it from their long-lived GET stream.
type Session struct {
	ID        string
	CreatedAt time.Time

	events    chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newSession(id string) *Session {
	return &Session{
		ID:        id,
		CreatedAt: time.Now(),
		events:    make(chan []byte, sessionBuffer),
		done:      make(chan struct{}),
	}
}

// Push queues an outbound payload for the session's event stream.
func (s *Session) Push(ctx context.Context, payload []byte) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}
	select {
	case s.events <- payload:
		return nil
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events exposes the outbound queue for the stream writer.
func (s *Session) Events() <-chan []byte {
	return s.events
}

// Done is closed when the session has been removed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Manager owns the session map. All lifecycle transitions happen here:
// sessions are created by Resolve and removed only when their connection
// closes or the client terminates them explicitly. Removed ids are kept in
// a tombstone set so an identifier is never handed out twice.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	removed  map[string]struct{}
	logger   *slog.Logger
}

// NewManager creates an empty session manager.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		removed:  make(map[string]struct{}),
		logger:   logger,
	}
}

// Resolve returns the live session for id, creating and registering a new
// one when id is empty or unknown. Check and insert happen under a single
// lock hold, so concurrent calls with the same id observe exactly one
// session. An id that belonged to a removed session is never reused; the
// caller gets a session under a fresh id instead. The second return
// reports whether this call created the session.
func (m *Manager) Resolve(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id != "" {
		if sess, ok := m.sessions[id]; ok {
			return sess, false
		}
		if _, dead := m.removed[id]; dead {
			id = uuid.New().String()
		}
	} else {
		id = uuid.New().String()
	}

	sess := newSession(id)
	m.sessions[id] = sess
	m.logger.Debug("session created", "session_id", id)
	return sess, true
}

// Get looks up a live session without creating one.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	m.mu.Unlock()
	return sess, ok
}

// Remove deletes the session and signals its stream writer to stop.
// The id is tombstoned so it cannot come back. It reports whether the
// session existed.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
		m.removed[id] = struct{}{}
	}
	m.mu.Unlock()

	if ok {
		sess.close()
		m.logger.Debug("session removed", "session_id", id)
	}
	return ok
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
