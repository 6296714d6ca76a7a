package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/linanwx/therachat/logger"
)

// KindAll subscribes a handler to every kind.
const KindAll Kind = ""

// Handler is a function that handles notices.
type Handler func(ctx context.Context, n *Notice)

// Subscription represents a subscription to notices.
type Subscription struct {
	ID      string
	Kind    Kind
	Handler Handler
}

// Bus fans notices out to subscribers on its own goroutine. Publish never
// blocks: when the buffer is full the notice is dropped.
type Bus struct {
	mu            sync.RWMutex
	subscriptions map[string]*Subscription
	subCounter    int64

	noticeChan chan *Notice
	done       chan struct{}
	stopped    chan struct{}
	closeOnce  sync.Once
	wg         sync.WaitGroup
}

// NewBus creates a new notice bus.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = 64
	}

	b := &Bus{
		subscriptions: make(map[string]*Subscription),
		noticeChan:    make(chan *Notice, bufferSize),
		done:          make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	b.wg.Add(1)
	go b.processNotices()

	return b
}

// Subscribe registers a handler for a kind, or for every kind with KindAll.
// Handlers run one at a time in publish order.
func (b *Bus) Subscribe(kind Kind, handler Handler) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subCounter++
	id := fmt.Sprintf("sub-%d", b.subCounter)

	b.subscriptions[id] = &Subscription{
		ID:      id,
		Kind:    kind,
		Handler: handler,
	}

	logger.Debug("subscription added", "id", id, "kind", kind)
	return id
}

// Unsubscribe removes a subscription.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	delete(b.subscriptions, id)
	b.mu.Unlock()
}

// Publish queues a notice for delivery.
func (b *Bus) Publish(n *Notice) {
	if b == nil || n == nil {
		return
	}
	select {
	case <-b.done:
		logger.Debug("bus closed, notice dropped", "kind", n.Kind)
		return
	default:
	}

	select {
	case b.noticeChan <- n:
		logger.Debug("notice published", "kind", n.Kind, "level", n.Level)
	default:
		logger.Warn("notice buffer full, notice dropped", "kind", n.Kind)
	}
}

// Notify is shorthand for Publish(NewNotice(kind, level, text)).
func (b *Bus) Notify(kind Kind, level Level, text string) {
	b.Publish(NewNotice(kind, level, text))
}

// Flush waits until every notice published before it has been delivered.
func (b *Bus) Flush(ctx context.Context) error {
	if b == nil {
		return nil
	}
	select {
	case <-b.done:
		return nil
	default:
	}

	barrier := &Notice{flushed: make(chan struct{})}
	select {
	case b.noticeChan <- barrier:
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-barrier.flushed:
		return nil
	case <-b.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close delivers what is queued and stops the bus. Safe to call twice.
func (b *Bus) Close() {
	b.closeOnce.Do(func() { close(b.done) })
	b.wg.Wait()
}

func (b *Bus) processNotices() {
	defer b.wg.Done()
	defer close(b.stopped)

	for {
		select {
		case n := <-b.noticeChan:
			b.dispatch(n)
		case <-b.done:
			for {
				select {
				case n := <-b.noticeChan:
					b.dispatch(n)
				default:
					return
				}
			}
		}
	}
}

func (b *Bus) dispatch(n *Notice) {
	if n.flushed != nil {
		close(n.flushed)
		return
	}

	b.mu.RLock()
	subs := make([]*Subscription, 0, len(b.subscriptions))
	for _, sub := range b.subscriptions {
		if sub.Kind == KindAll || sub.Kind == n.Kind {
			subs = append(subs, sub)
		}
	}
	b.mu.RUnlock()

	ctx := context.Background()
	for _, sub := range subs {
		b.call(ctx, sub, n)
	}
}

func (b *Bus) call(ctx context.Context, s *Subscription, n *Notice) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("handler panic", "subscription", s.ID, "panic", r)
		}
	}()
	s.Handler(ctx, n)
}
