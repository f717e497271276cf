// Package session holds in-progress mail compositions. Sessions are
// ephemeral: they live in memory, expire a fixed TTL after creation
// (activity does not refresh them), and at most one exists per owner.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oumaimaa/mailvault/pkg/types"
)

// Session is one owner's draft in progress. The draft's recipient, sender,
// and body are set at creation; attachments mutate while composing.
type Session struct {
	OwnerID   string
	Draft     *types.Mail
	CreatedAt time.Time
}

// Registry is the keyed session cache. All operations take one lock, so a
// sweep and a concurrent create for the same owner serialize: the fresh
// session is never removed because its age is below the TTL.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
	logger   *logrus.Logger
}

// NewRegistry creates a registry with the given time-to-live.
func NewRegistry(ttl time.Duration, logger *logrus.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
}

// SetClock overrides the registry's clock, for tests.
func (r *Registry) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// Create starts a session for ownerID, replacing any existing one.
func (r *Registry) Create(ownerID string, draft *types.Mail) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &Session{
		OwnerID:   ownerID,
		Draft:     draft,
		CreatedAt: r.now(),
	}
	r.sessions[ownerID] = s
	return s
}

// Get returns the owner's session, lazily evicting it when its age
// exceeds the TTL.
func (r *Registry) Get(ownerID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[ownerID]
	if !ok {
		return nil
	}
	if r.expired(s) {
		delete(r.sessions, ownerID)
		return nil
	}
	return s
}

// Remove destroys the owner's session, typically on confirm or cancel.
func (r *Registry) Remove(ownerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, ownerID)
}

// SweepExpired removes every session past its TTL and returns the count.
func (r *Registry) SweepExpired() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	swept := 0
	for owner, s := range r.sessions {
		if r.expired(s) {
			delete(r.sessions, owner)
			swept++
		}
	}
	return swept
}

// Len returns the number of live sessions, counting ones not yet swept.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Run sweeps expired sessions on a fixed interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if swept := r.SweepExpired(); swept > 0 {
				r.logger.WithField("swept", swept).Debug("Expired mail sessions")
			}
		}
	}
}

// expired must be called with the lock held.
func (r *Registry) expired(s *Session) bool {
	return r.now().Sub(s.CreatedAt) > r.ttl
}
