package backend

import (
	"context"
	"log/slog"
	"sync"

	"taskfin/internal/store"
)

// Notifier publishes and delivers change notifications.
type Notifier interface {
	store.Subscriber
	Publish(ctx context.Context, ch store.Change) error
	Close() error
}

// LocalBus delivers changes to subscribers of the same process. Each
// subscriber gets its own goroutine and buffer so a slow handler never
// blocks a write; when a buffer is full the oldest pending change is
// dropped, which is safe because changes carry no payload.
type LocalBus struct {
	mu     sync.Mutex
	subs   map[int]*subscription
	nextID int
	closed bool
}

type subscription struct {
	userID string
	ch     chan store.Change
}

const busBuffer = 64

func NewLocalBus() *LocalBus {
	return &LocalBus{subs: make(map[int]*subscription)}
}

func (b *LocalBus) Subscribe(ctx context.Context, userID string, fn func(store.Change)) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return context.Canceled
	}
	id := b.nextID
	b.nextID++
	sub := &subscription{userID: userID, ch: make(chan store.Change, busBuffer)}
	b.subs[id] = sub
	b.mu.Unlock()

	go func() {
		defer func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case ch, ok := <-sub.ch:
				if !ok {
					return
				}
				fn(ch)
			}
		}
	}()
	return nil
}

func (b *LocalBus) Publish(ctx context.Context, ch store.Change) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	for _, sub := range b.subs {
		if sub.userID != ch.UserID {
			continue
		}
		select {
		case sub.ch <- ch:
		default:
			select {
			case <-sub.ch:
			default:
			}
			sub.ch <- ch
			slog.DebugContext(ctx, "Change buffer full, dropped oldest notification", "table", ch.Table)
		}
	}
	return nil
}

func (b *LocalBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for id, sub := range b.subs {
		close(sub.ch)
		delete(b.subs, id)
	}
	return nil
}
