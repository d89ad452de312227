package session

import (
	"context"
	"sync"
	"time"

	"go-vision-console/internal/logger"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Registry holds the live page sessions. Each page load creates a new one,
// so staged images and results never outlive the page.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	deps     Dependencies
	idleTTL  time.Duration
	now      func() time.Time
}

func NewRegistry(deps Dependencies, idleTTL time.Duration) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		deps:     deps,
		idleTTL:  idleTTL,
		now:      time.Now,
	}
}

// Create starts a fresh session
func (r *Registry) Create() *Session {
	s := newSession(uuid.NewString(), r.deps, r.now())

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	logger.WithField("session_id", s.ID).Debug("Session created")
	return s
}

// Get returns the session for id and marks it as used
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		s.Touch(r.now())
	}
	return s, ok
}

// Remove closes and forgets the session for id
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		s.Close()
	}
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Reap closes sessions idle for longer than the TTL and returns how many it removed
func (r *Registry) Reap() int {
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	var idle []*Session
	for id, s := range r.sessions {
		if s.LastSeen().Before(cutoff) {
			idle = append(idle, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range idle {
		s.Close()
	}
	if len(idle) > 0 {
		logger.WithFields(logrus.Fields{
			"reaped":    len(idle),
			"remaining": r.Len(),
		}).Info("Reaped idle sessions")
	}
	return len(idle)
}

// StartReaper reaps idle sessions every interval until ctx is done
func (r *Registry) StartReaper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Reap()
			}
		}
	}()
}

// Close closes every session
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
