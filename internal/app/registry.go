package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/loungefm/loungefm/internal/core"
	"github.com/loungefm/loungefm/internal/domain"
)

type sessionEntry struct {
	User *domain.User
	// LoungeID is the session's single current channel subscription,
	// empty when not subscribed anywhere.
	LoungeID domain.LoungeID
	Cancel   context.CancelFunc
}

// Registry tracks live sessions. The identity is bound once, at
// handshake; nothing here mutates it afterwards.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[core.SessionID]*sessionEntry)}
}

func (r *Registry) Bind(sid core.SessionID, user *domain.User, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &sessionEntry{User: user, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("user", string(user.ID)).Msg("bound session")
}

func (r *Registry) Unbind(sid core.SessionID) {
	r.mu.Lock()
	entry, ok := r.sessions[sid]
	delete(r.sessions, sid)
	r.mu.Unlock()
	if ok && entry.Cancel != nil {
		entry.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbound session")
}

func (r *Registry) User(sid core.SessionID) (*domain.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.User, true
	}
	return nil, false
}

// SetLounge records the session's channel subscription, returning the
// lounge it was subscribed to before, if any.
func (r *Registry) SetLounge(sid core.SessionID, id domain.LoungeID) (domain.LoungeID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return "", false
	}
	prev := e.LoungeID
	e.LoungeID = id
	return prev, prev != ""
}

func (r *Registry) ClearLounge(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[sid]; ok {
		e.LoungeID = ""
	}
}

func (r *Registry) LoungeOf(sid core.SessionID) (domain.LoungeID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok || e.LoungeID == "" {
		return "", false
	}
	return e.LoungeID, true
}
