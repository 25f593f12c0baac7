// ABOUTME: Tests for the session manager lifecycle.
// ABOUTME: Covers get-or-create semantics, removal, and concurrent resolves.

package mcp

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
)

func TestManagerResolve(t *testing.T) {
	t.Run("empty id allocates a new session", func(t *testing.T) {
		m := NewManager(slog.Default())

		sess, created := m.Resolve("")
		if !created {
			t.Error("expected created=true for empty id")
		}
		if sess.ID == "" {
			t.Error("expected a generated session id")
		}
		if m.Len() != 1 {
			t.Errorf("expected 1 session, got %d", m.Len())
		}
	})

	t.Run("live id returns the same session", func(t *testing.T) {
		m := NewManager(slog.Default())

		first, _ := m.Resolve("")
		second, created := m.Resolve(first.ID)
		if created {
			t.Error("expected created=false for a live id")
		}
		if second != first {
			t.Error("expected the same session instance")
		}
		if m.Len() != 1 {
			t.Errorf("expected 1 session, got %d", m.Len())
		}
	})

	t.Run("unknown id registers under that id", func(t *testing.T) {
		m := NewManager(slog.Default())

		sess, created := m.Resolve("client-chosen")
		if !created {
			t.Error("expected created=true for unknown id")
		}
		if sess.ID != "client-chosen" {
			t.Errorf("expected session id client-chosen, got %s", sess.ID)
		}
	})

	t.Run("removed id is never handed out again", func(t *testing.T) {
		m := NewManager(slog.Default())

		old, _ := m.Resolve("")
		m.Remove(old.ID)

		sess, created := m.Resolve(old.ID)
		if !created {
			t.Error("expected created=true after removal")
		}
		if sess.ID == old.ID {
			t.Errorf("removed id %s was registered again", old.ID)
		}
		if _, ok := m.Get(old.ID); ok {
			t.Errorf("removed id %s is resolvable again", old.ID)
		}
	})

	t.Run("explicitly removed client id stays dead", func(t *testing.T) {
		m := NewManager(slog.Default())

		m.Resolve("client-chosen")
		m.Remove("client-chosen")

		sess, created := m.Resolve("client-chosen")
		if !created {
			t.Error("expected created=true after removal")
		}
		if sess.ID == "client-chosen" {
			t.Error("removed client-chosen id was registered again")
		}
	})
}

func TestManagerResolveConcurrent(t *testing.T) {
	m := NewManager(slog.Default())

	const goroutines = 50
	var createdCount atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, created := m.Resolve("shared-id"); created {
				createdCount.Add(1)
			}
		}()
	}

	close(start)
	wg.Wait()

	if got := createdCount.Load(); got != 1 {
		t.Errorf("expected exactly 1 creation, got %d", got)
	}
	if m.Len() != 1 {
		t.Errorf("expected 1 session, got %d", m.Len())
	}
}

func TestManagerRemove(t *testing.T) {
	m := NewManager(slog.Default())

	sess, _ := m.Resolve("")
	if !m.Remove(sess.ID) {
		t.Error("expected Remove to report the session existed")
	}
	if m.Remove(sess.ID) {
		t.Error("expected second Remove to report absence")
	}
	if m.Len() != 0 {
		t.Errorf("expected 0 sessions, got %d", m.Len())
	}

	select {
	case <-sess.Done():
	default:
		t.Error("expected removed session to be marked done")
	}
}

func TestSessionPush(t *testing.T) {
	t.Run("queued payload is readable from Events", func(t *testing.T) {
		m := NewManager(slog.Default())
		sess, _ := m.Resolve("")

		if err := sess.Push(context.Background(), []byte(`{"ok":true}`)); err != nil {
			t.Fatalf("unexpected push error: %v", err)
		}

		select {
		case got := <-sess.Events():
			if string(got) != `{"ok":true}` {
				t.Errorf("unexpected payload: %s", got)
			}
		default:
			t.Fatal("expected a queued payload")
		}
	})

	t.Run("push after removal fails", func(t *testing.T) {
		m := NewManager(slog.Default())
		sess, _ := m.Resolve("")
		m.Remove(sess.ID)

		err := sess.Push(context.Background(), []byte("late"))
		if !errors.Is(err, ErrSessionClosed) {
			t.Errorf("expected ErrSessionClosed, got %v", err)
		}
	})
}
