package events

import (
	"testing"
	"time"
)

type change struct {
	Phase string
	Gen   uint64
}

func TestBroadcasterSubscribeUnsubscribe(t *testing.T) {
	b := NewBroadcaster[change](0)

	ch1 := b.Subscribe()
	ch2 := b.Subscribe()

	if b.Count() != 2 {
		t.Fatalf("expected 2 subscribers, got %d", b.Count())
	}

	b.Unsubscribe(ch1)
	if b.Count() != 1 {
		t.Fatalf("expected 1 subscriber after unsubscribe, got %d", b.Count())
	}
	if _, ok := <-ch1; ok {
		t.Error("expected unsubscribed channel to be closed")
	}

	b.Unsubscribe(ch2)
	b.Unsubscribe(ch2)
	if b.Count() != 0 {
		t.Fatalf("expected 0 subscribers, got %d", b.Count())
	}
}

func TestBroadcasterPublishOrder(t *testing.T) {
	b := NewBroadcaster[change](8)
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(change{Phase: "loading", Gen: 1})
	b.Publish(change{Phase: "settled", Gen: 1})

	for _, want := range []string{"loading", "settled"} {
		select {
		case got := <-ch:
			if got.Phase != want {
				t.Errorf("expected %s, got %s", want, got.Phase)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestBroadcasterMultipleSubscribers(t *testing.T) {
	b := NewBroadcaster[change](0)
	ch1 := b.Subscribe()
	ch2 := b.Subscribe()
	defer b.Close()

	b.Publish(change{Phase: "settled", Gen: 3})

	for i, ch := range []<-chan change{ch1, ch2} {
		select {
		case received := <-ch:
			if received.Gen != 3 {
				t.Errorf("subscriber %d: expected gen 3, got %d", i, received.Gen)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d: timed out", i)
		}
	}
}

func TestBroadcasterDropsForSlowConsumer(t *testing.T) {
	b := NewBroadcaster[change](4)
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for i := 0; i < 10; i++ {
		b.Publish(change{Gen: uint64(i)})
	}

	count := 0
	for len(ch) > 0 {
		<-ch
		count++
	}
	if count != 4 {
		t.Errorf("expected 4 buffered events, got %d", count)
	}
}

func TestBroadcasterClose(t *testing.T) {
	b := NewBroadcaster[change](0)
	ch := b.Subscribe()
	b.Close()

	if b.Count() != 0 {
		t.Fatalf("expected 0 subscribers, got %d", b.Count())
	}
	if _, ok := <-ch; ok {
		t.Error("expected channel closed")
	}
}
