package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is one live stream's cancellation handle, owned by the Registry.
type Session struct {
	Key       string
	StartedAt time.Time
	cancel    context.CancelFunc
}

// Registry tracks the cancellation handle of every in-flight stream, keyed
// by stream key. It is an explicit object rather than package state so
// concurrent sessions (and tests) get deterministic, isolated lifecycles.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Register installs a session under key and returns its handle. If a live
// session already holds the key, it is aborted first: a reused key means the
// caller considers the old stream superseded, and overwriting silently would
// leave it running with no way to stop it.
func (r *Registry) Register(key string, cancel context.CancelFunc) *Session {
	s := &Session{Key: key, StartedAt: time.Now(), cancel: cancel}
	r.mu.Lock()
	prev := r.sessions[key]
	r.sessions[key] = s
	r.mu.Unlock()
	if prev != nil {
		prev.cancel()
	}
	return s
}

// Cancel aborts the stream under key and removes it. Unknown keys are a
// no-op; it reports whether a stream was actually cancelled.
func (r *Registry) Cancel(key string) bool {
	r.mu.Lock()
	s, ok := r.sessions[key]
	if ok {
		delete(r.sessions, key)
	}
	r.mu.Unlock()
	if !ok {
		return false
	}
	s.cancel()
	return true
}

// CancelAll aborts every in-flight stream and returns how many there were.
func (r *Registry) CancelAll() int {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()
	for _, s := range sessions {
		s.cancel()
	}
	return len(sessions)
}

// Len reports the number of in-flight streams.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// release removes key only if it still maps to this exact session, so a
// finished stream's cleanup cannot evict a successor registered under the
// same key. Idempotent; this is the unconditional terminal cleanup step.
func (r *Registry) release(s *Session) {
	r.mu.Lock()
	if cur, ok := r.sessions[s.Key]; ok && cur == s {
		delete(r.sessions, s.Key)
	}
	r.mu.Unlock()
}

// NewStreamKey generates a key unique across concurrent tabs of one chat
// session.
func NewStreamKey(sessionID int64) string {
	return fmt.Sprintf("session:%d:%d:%s", sessionID, time.Now().UnixMilli(), uuid.NewString()[:8])
}
