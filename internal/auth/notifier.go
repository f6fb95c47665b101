package auth

import (
	"context"
	"sync"
	"time"

	"github.com/mmeshcher/shortlink/internal/models"
)

// Notifier fans out session changes to subscribers.
type Notifier interface {
	Publish(ctx context.Context, event models.AuthEvent) error
	Subscribe(fn func(models.AuthEvent)) (unsubscribe func())
	Close() error
}

// RevocationList remembers signed-out session ids until their expiry.
type RevocationList interface {
	Revoke(ctx context.Context, sessionID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

// LocalNotifier delivers events synchronously inside the process.
type LocalNotifier struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(models.AuthEvent)
}

func NewLocalNotifier() *LocalNotifier {
	return &LocalNotifier{subs: make(map[int]func(models.AuthEvent))}
}

func (n *LocalNotifier) Publish(_ context.Context, event models.AuthEvent) error {
	n.mu.RLock()
	subs := make([]func(models.AuthEvent), 0, len(n.subs))
	for _, fn := range n.subs {
		subs = append(subs, fn)
	}
	n.mu.RUnlock()

	for _, fn := range subs {
		fn(event)
	}
	return nil
}

func (n *LocalNotifier) Subscribe(fn func(models.AuthEvent)) func() {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.subs[id] = fn
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs, id)
			n.mu.Unlock()
		})
	}
}

func (n *LocalNotifier) Close() error {
	n.mu.Lock()
	n.subs = make(map[int]func(models.AuthEvent))
	n.mu.Unlock()
	return nil
}

type MemoryRevocations struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewMemoryRevocations() *MemoryRevocations {
	return &MemoryRevocations{
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (r *MemoryRevocations) Revoke(_ context.Context, sessionID string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for id, until := range r.revoked {
		if now.After(until) {
			delete(r.revoked, id)
		}
	}
	r.revoked[sessionID] = now.Add(ttl)
	return nil
}

func (r *MemoryRevocations) IsRevoked(_ context.Context, sessionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	until, ok := r.revoked[sessionID]
	return ok && !r.now().After(until), nil
}
