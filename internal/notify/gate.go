// Package notify debounces connect-time unread-mail checks. Rapid
// reconnects and duplicate join events for the same actor must not fan
// out into duplicate notifications.
package notify

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/oumaimaa/mailvault/internal/metrics"
)

// UnreadCounter fetches an actor's unread mail count.
type UnreadCounter interface {
	UnreadCount(ctx context.Context, actorID string) (int64, error)
}

// Notifier receives the unread notification. Implementations belong to
// the presentation layer (chat message, sound, inbox auto-open).
type Notifier interface {
	NotifyUnread(actorID string, count int64)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(actorID string, count int64)

func (f NotifierFunc) NotifyUnread(actorID string, count int64) {
	f(actorID, count)
}

// Gate tracks actors whose unread check is in flight and drops duplicate
// connect events for them.
type Gate struct {
	mu       sync.Mutex
	inflight map[string]struct{}

	counter  UnreadCounter
	notifier Notifier
	logger   *logrus.Logger
	metrics  *metrics.Metrics
}

// NewGate creates a notification gate.
func NewGate(counter UnreadCounter, notifier Notifier, logger *logrus.Logger, m *metrics.Metrics) *Gate {
	return &Gate{
		inflight: make(map[string]struct{}),
		counter:  counter,
		notifier: notifier,
		logger:   logger,
		metrics:  m,
	}
}

// OnConnect runs the unread check for a connecting actor. If a check for
// the same actor is already in flight the event is dropped and OnConnect
// returns false. The actor leaves the in-flight set when the check
// completes, success or failure, and the notifier fires at most once per
// accepted event. Callers that must not block invoke it from a goroutine.
func (g *Gate) OnConnect(ctx context.Context, actorID string) bool {
	g.mu.Lock()
	if _, busy := g.inflight[actorID]; busy {
		g.mu.Unlock()
		return false
	}
	g.inflight[actorID] = struct{}{}
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		delete(g.inflight, actorID)
		g.mu.Unlock()
	}()

	g.metrics.UnreadCheck()

	count, err := g.counter.UnreadCount(ctx, actorID)
	if err != nil {
		g.logger.WithField("actor", actorID).WithError(err).Error("Failed to check unread mail")
		return true
	}
	if count > 0 {
		g.notifier.NotifyUnread(actorID, count)
	}
	return true
}
