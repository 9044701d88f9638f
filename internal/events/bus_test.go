package events

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPublishFiltersByType(t *testing.T) {
	bus := NewBus(4)
	defer bus.Close()

	sub, unsub := bus.Subscribe(context.Background(), StoryComplete)
	defer unsub()

	bus.Publish(Event{Type: StoryStart})
	bus.Publish(Event{Type: StoryComplete, Params: map[string]any{"total_slides": 7}})

	select {
	case e := <-sub.Ch:
		if e.Type != StoryComplete {
			t.Fatalf("got %s, want %s", e.Type, StoryComplete)
		}
		if e.Params["total_slides"] != 7 {
			t.Fatalf("params lost: %v", e.Params)
		}
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}

	select {
	case e := <-sub.Ch:
		t.Fatalf("unexpected extra event %s", e.Type)
	default:
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	bus := NewBus(1)
	defer bus.Close()
	_, unsub := bus.Subscribe(context.Background())
	defer unsub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			bus.Publish(Event{Type: StoryProgress})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus(1)
	sub, unsub := bus.Subscribe(context.Background())
	unsub()
	unsub()
	if _, ok := <-sub.Ch; ok {
		t.Fatal("channel should be closed")
	}
	bus.Publish(Event{Type: AudioPlay})
	bus.Close()
}

func TestCancelledContextEndsSubscription(t *testing.T) {
	bus := NewBus(1)
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())
	sub, _ := bus.Subscribe(ctx)
	cancel()

	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("subscription still live after cancel")
	}
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-sub.Ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after cancel")
		}
	}
}

func TestServeDeliversToEverySink(t *testing.T) {
	bus := NewBus(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Type, 2)
	sink := SinkFunc(func(ctx context.Context, e Event) error {
		got <- e.Type
		return nil
	})

	errc := make(chan error, 1)
	go func() { errc <- bus.Serve(ctx, sink, sink) }()

	// Serve subscribes asynchronously relative to this goroutine.
	deadline := time.After(time.Second)
	for {
		bus.mu.RLock()
		n := len(bus.subs)
		bus.mu.RUnlock()
		if n == 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("sinks never subscribed")
		case <-time.After(5 * time.Millisecond):
		}
	}

	bus.Publish(Event{Type: ImageGenerate})
	for i := 0; i < 2; i++ {
		select {
		case ty := <-got:
			if ty != ImageGenerate {
				t.Fatalf("got %s", ty)
			}
		case <-time.After(time.Second):
			t.Fatal("sink did not receive event")
		}
	}

	cancel()
	if err := <-errc; err != nil {
		t.Fatalf("serve: %v", err)
	}
}

func TestServeStopsOnSinkError(t *testing.T) {
	bus := NewBus(8)
	boom := errors.New("boom")
	subscribed := make(chan struct{})
	errc := make(chan error, 1)
	go func() {
		errc <- bus.Serve(context.Background(), SinkFunc(func(context.Context, Event) error { return boom }))
	}()
	go func() {
		for {
			bus.mu.RLock()
			n := len(bus.subs)
			bus.mu.RUnlock()
			if n == 1 {
				close(subscribed)
				return
			}
			time.Sleep(time.Millisecond)
		}
	}()
	select {
	case <-subscribed:
	case <-time.After(time.Second):
		t.Fatal("sink never subscribed")
	}
	bus.Publish(Event{Type: QuestionAsked})
	select {
	case err := <-errc:
		if !errors.Is(err, boom) {
			t.Fatalf("got %v, want boom", err)
		}
	case <-time.After(time.Second):
		t.Fatal("serve did not stop")
	}
}
