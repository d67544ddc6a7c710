package api

import (
	"sync"
	"time"

	"github.com/studiofoundry/intake/internal/services"
)

// funnelTTL is how long an idle funnel survives before it is swept. There
// is deliberately no persistence or resume token: abandoning the wizard
// discards its state, same as closing the original browser tab.
const funnelTTL = 30 * time.Minute

type funnelSession struct {
	funnel   *services.Funnel
	lastSeen time.Time
}

// funnelRegistry holds live funnel sessions keyed by an opaque id. Expired
// sessions are swept lazily on access; with one session per active
// recipient the map stays small.
type funnelRegistry struct {
	mu       sync.Mutex
	sessions map[string]*funnelSession
	ttl      time.Duration
	now      func() time.Time
	idGen    func() string
}

func newFunnelRegistry() *funnelRegistry {
	return &funnelRegistry{
		sessions: map[string]*funnelSession{},
		ttl:      funnelTTL,
		now:      func() time.Time { return time.Now().UTC() },
		idGen:    func() string { return services.NewSessionID() },
	}
}

func (r *funnelRegistry) create(f *services.Funnel) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()
	id := r.idGen()
	r.sessions[id] = &funnelSession{funnel: f, lastSeen: r.now()}
	return id
}

func (r *funnelRegistry) get(id string) (*services.Funnel, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()
	s, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	s.lastSeen = r.now()
	return s.funnel, true
}

func (r *funnelRegistry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

func (r *funnelRegistry) sweepLocked() {
	cutoff := r.now().Add(-r.ttl)
	for id, s := range r.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
		}
	}
}
