package mailbox

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Directory resolves whether an actor id refers to a known recipient. An
// actor is resolvable if it has been seen before or is currently online;
// the host application decides what "seen" and "online" mean.
type Directory interface {
	Resolvable(ctx context.Context, actorID string) (bool, error)
}

// DirectoryFunc adapts a function to the Directory interface.
type DirectoryFunc func(ctx context.Context, actorID string) (bool, error)

func (f DirectoryFunc) Resolvable(ctx context.Context, actorID string) (bool, error) {
	return f(ctx, actorID)
}

// CachedDirectory wraps a Directory with an LRU cache. Only positive
// results are cached: a never-seen actor can become resolvable at any
// moment by coming online.
type CachedDirectory struct {
	inner Directory
	cache *lru.Cache[string, struct{}]
}

// NewCachedDirectory builds a caching wrapper of the given size.
func NewCachedDirectory(inner Directory, size int) (*CachedDirectory, error) {
	cache, err := lru.New[string, struct{}](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory cache: %w", err)
	}
	return &CachedDirectory{inner: inner, cache: cache}, nil
}

func (d *CachedDirectory) Resolvable(ctx context.Context, actorID string) (bool, error) {
	if _, ok := d.cache.Get(actorID); ok {
		return true, nil
	}
	ok, err := d.inner.Resolvable(ctx, actorID)
	if err != nil {
		return false, err
	}
	if ok {
		d.cache.Add(actorID, struct{}{})
	}
	return ok, nil
}

// HistoryDirectory resolves actors from mail history: anyone who has ever
// sent or received mail is considered seen. Standalone deployments use it
// composed with a presence check; embedded hosts usually supply their own
// Directory instead.
type HistoryDirectory struct {
	repo *Repository

	// Online reports current reachability; nil means nobody is online.
	Online func(actorID string) bool
}

// NewHistoryDirectory builds a mail-history directory over repo.
func NewHistoryDirectory(repo *Repository) *HistoryDirectory {
	return &HistoryDirectory{repo: repo}
}

func (d *HistoryDirectory) Resolvable(ctx context.Context, actorID string) (bool, error) {
	if d.Online != nil && d.Online(actorID) {
		return true, nil
	}
	received, err := d.repo.CountReceived(ctx, actorID)
	if err != nil {
		return false, err
	}
	if received > 0 {
		return true, nil
	}
	sent, err := d.repo.CountSent(ctx, actorID)
	if err != nil {
		return false, err
	}
	return sent > 0, nil
}
