package events

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type Subscriber struct {
	Ch     chan Event
	types  map[Type]struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

// Done is closed once the subscription ends, either by unsubscribing, by
// closing the bus or by cancelling the context passed to Subscribe.
func (s *Subscriber) Done() <-chan struct{} {
	return s.ctx.Done()
}

func (s *Subscriber) wants(t Type) bool {
	if len(s.types) == 0 {
		return true
	}
	_, ok := s.types[t]
	return ok
}

// Bus fans lifecycle events out to subscribers. Publish never blocks: events
// for a subscriber whose buffer is full are dropped.
type Bus struct {
	mu      sync.RWMutex
	subs    map[*Subscriber]struct{}
	bufSize int
	closed  bool
}

func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = 16
	}
	return &Bus{
		subs:    make(map[*Subscriber]struct{}),
		bufSize: bufferSize,
	}
}

// Subscribe registers for the given types, or for everything when none are
// given. The returned func unsubscribes and closes the channel; cancelling ctx
// does the same.
func (b *Bus) Subscribe(ctx context.Context, types ...Type) (*Subscriber, func()) {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscriber{
		Ch:     make(chan Event, b.bufSize),
		types:  make(map[Type]struct{}, len(types)),
		ctx:    ctx,
		cancel: cancel,
	}
	for _, t := range types {
		sub.types[t] = struct{}{}
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		cancel()
		close(sub.Ch)
		return sub, func() {}
	}
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			sub.cancel()
			if _, ok := b.subs[sub]; ok {
				delete(b.subs, sub)
				close(sub.Ch)
			}
		})
	}
	context.AfterFunc(sub.ctx, unsub)
	return sub, unsub
}

func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	for sub := range b.subs {
		if !sub.wants(e.Type) {
			continue
		}
		select {
		case sub.Ch <- e:
		default:
			logrus.WithField("event", e.Type).Debug("slow analytics subscriber, event dropped")
		}
	}
}

func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for sub := range b.subs {
		sub.cancel()
		close(sub.Ch)
	}
	b.subs = nil
}

// Sink consumes events delivered by Serve.
type Sink interface {
	Handle(ctx context.Context, e Event) error
}

type SinkFunc func(ctx context.Context, e Event) error

func (f SinkFunc) Handle(ctx context.Context, e Event) error {
	return f(ctx, e)
}

// Serve pumps every event into each sink until ctx is done or the bus closes.
// The first sink error stops all pumps and is returned.
func (b *Bus) Serve(ctx context.Context, sinks ...Sink) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, sink := range sinks {
		sink := sink
		sub, unsub := b.Subscribe(ctx)
		g.Go(func() error {
			defer unsub()
			for {
				select {
				case <-sub.Done():
					return nil
				case e, ok := <-sub.Ch:
					if !ok {
						return nil
					}
					if err := sink.Handle(ctx, e); err != nil {
						return err
					}
				}
			}
		})
	}
	return g.Wait()
}
