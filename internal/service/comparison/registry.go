package comparison

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/pricecheck/internal/domain/models"
	"github.com/mamadbah2/pricecheck/internal/repository/memory"
	"github.com/mamadbah2/pricecheck/internal/service/ranking"
)

// Registry keeps the live sessions. Sessions are ephemeral: nothing survives
// a sweep or a restart.
type Registry struct {
	sessions map[string]*Session
	mu       sync.RWMutex
	engine   *ranking.Engine
	opts     Options
	logger   *zap.Logger
}

// NewRegistry creates an empty registry whose sessions share engine and opts.
func NewRegistry(engine *ranking.Engine, opts Options) *Registry {
	opts = opts.withDefaults()
	return &Registry{
		sessions: make(map[string]*Session),
		engine:   engine,
		opts:     opts,
		logger:   opts.Logger,
	}
}

// Create starts a session under a fresh random id.
func (r *Registry) Create() *Session {
	id := uuid.NewString()
	session := r.newSession(id)

	r.mu.Lock()
	r.sessions[id] = session
	r.mu.Unlock()

	r.logger.Info("session created", zap.String("session_id", id))
	return session
}

// GetOrCreate returns the session stored under id, creating it when missing.
// Messaging surfaces use it to key sessions by sender.
func (r *Registry) GetOrCreate(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session, ok := r.sessions[id]; ok {
		return session
	}
	session := r.newSession(id)
	r.sessions[id] = session
	r.logger.Info("session created", zap.String("session_id", id))
	return session
}

// Get returns the session stored under id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	return session, nil
}

// Delete closes and forgets the session.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	session, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return models.ErrSessionNotFound
	}
	session.Close()
	return nil
}

// SweepIdle closes sessions whose last event is older than ttl and returns
// how many were removed.
func (r *Registry) SweepIdle(ttl time.Duration) int {
	cutoff := r.opts.Clock.Now().Add(-ttl)

	r.mu.Lock()
	var expired []*Session
	for id, session := range r.sessions {
		if session.LastActive().Before(cutoff) {
			expired = append(expired, session)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, session := range expired {
		session.Close()
	}
	return len(expired)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Close closes every session.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, session := range sessions {
		session.Close()
	}
}

func (r *Registry) newSession(id string) *Session {
	return NewSession(id, memory.NewStore(), r.engine, r.opts)
}
