package app

import (
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/loungefm/loungefm/internal/core"
	"github.com/loungefm/loungefm/internal/domain"
)

// maxCodeAttempts bounds collision retries. The code space is 31^6; if we
// ever run out of attempts something else is badly wrong.
const maxCodeAttempts = 32

// listLimit caps the public lounge listing.
const listLimit = 50

// LoungeManager owns the code registry and the id -> service mapping.
// A code stays reserved while its lounge record exists, active or not;
// only Purge frees it for reuse.
type LoungeManager struct {
	mu     sync.RWMutex
	byID   map[domain.LoungeID]core.LoungeService
	byCode map[domain.LoungeCode]domain.LoungeID
	broker core.Broker
}

func NewLoungeManager(broker core.Broker) *LoungeManager {
	return &LoungeManager{
		byID:   make(map[domain.LoungeID]core.LoungeService),
		byCode: make(map[domain.LoungeCode]domain.LoungeID),
		broker: broker,
	}
}

// Create builds a lounge with a collision-free code. Validation errors come
// from domain.NewLounge; ErrCodeExhausted is an internal fault.
func (m *LoungeManager) Create(name string, creatorID domain.UserID, capacity int) (core.LoungeService, error) {
	lounge, err := domain.NewLounge(name, creatorID, capacity)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	assigned := false
	for i := 0; i < maxCodeAttempts; i++ {
		code := domain.GenerateCode()
		if _, taken := m.byCode[code]; !taken {
			lounge.Code = code
			assigned = true
			break
		}
	}
	if !assigned {
		log.Error().Str("module", "app.manager").Msg("lounge code space exhausted")
		return nil, domain.ErrCodeExhausted
	}

	svc := core.NewLoungeService(lounge, m.broker)
	m.byID[lounge.ID] = svc
	m.byCode[lounge.Code] = lounge.ID
	log.Info().Str("module", "app.manager").Str("lounge", string(lounge.ID)).Str("code", string(lounge.Code)).Msg("lounge created")
	return svc, nil
}

func (m *LoungeManager) Get(id domain.LoungeID) (core.LoungeService, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	svc, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrLoungeNotFound
	}
	return svc, nil
}

// FindByCode canonicalizes before lookup and only returns active lounges.
func (m *LoungeManager) FindByCode(raw string) (core.LoungeService, error) {
	code := domain.NormalizeCode(raw)
	m.mu.RLock()
	id, ok := m.byCode[code]
	svc := m.byID[id]
	m.mu.RUnlock()
	if !ok || svc == nil || !svc.Active() {
		return nil, domain.ErrLoungeNotFound
	}
	return svc, nil
}

// ListActive returns up to listLimit active lounges, newest first.
func (m *LoungeManager) ListActive() []core.LoungeService {
	out := m.collect(func(svc core.LoungeService) bool {
		return svc.Active()
	})
	if len(out) > listLimit {
		out = out[:listLimit]
	}
	return out
}

// ListForUser returns the active lounges the user is a member of.
func (m *LoungeManager) ListForUser(userID domain.UserID) []core.LoungeService {
	return m.collect(func(svc core.LoungeService) bool {
		return svc.IsMember(userID)
	})
}

func (m *LoungeManager) collect(keep func(core.LoungeService) bool) []core.LoungeService {
	m.mu.RLock()
	all := make([]core.LoungeService, 0, len(m.byID))
	for _, svc := range m.byID {
		all = append(all, svc)
	}
	m.mu.RUnlock()

	out := all[:0]
	for _, svc := range all {
		if keep(svc) {
			out = append(out, svc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Snapshot().CreatedAt.After(out[j].Snapshot().CreatedAt)
	})
	return out
}

// Purge drops a deactivated lounge record and frees its code. Active
// lounges are never purged.
func (m *LoungeManager) Purge(id domain.LoungeID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	svc, ok := m.byID[id]
	if !ok || svc.Active() {
		return
	}
	delete(m.byCode, svc.Code())
	delete(m.byID, id)
	log.Info().Str("module", "app.manager").Str("lounge", string(id)).Msg("lounge purged")
}
