package bus

import (
	"context"
	"testing"
	"time"
)

func recv(t *testing.T, ch <-chan *Notice) *Notice {
	t.Helper()
	select {
	case n := <-ch:
		return n
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notice")
		return nil
	}
}

func TestPublishDeliversToMatchingKind(t *testing.T) {
	b := NewBus(8)
	defer b.Close()

	rejected := make(chan *Notice, 4)
	all := make(chan *Notice, 4)
	b.Subscribe(KindSendRejected, func(_ context.Context, n *Notice) { rejected <- n })
	b.Subscribe(KindAll, func(_ context.Context, n *Notice) { all <- n })

	b.Notify(KindConnectionOpened, LevelSuccess, "Connection opened")
	b.Notify(KindSendRejected, LevelWarning, "Not connected")

	if n := recv(t, all); n.Kind != KindConnectionOpened {
		t.Fatalf("first notice kind = %q", n.Kind)
	}
	if n := recv(t, all); n.Kind != KindSendRejected {
		t.Fatalf("second notice kind = %q", n.Kind)
	}
	n := recv(t, rejected)
	if n.Text != "Not connected" || n.Level != LevelWarning {
		t.Fatalf("notice = %+v", n)
	}
	select {
	case extra := <-rejected:
		t.Fatalf("unexpected notice %+v", extra)
	default:
	}
}

func TestUnsubscribe(t *testing.T) {
	b := NewBus(8)
	got := make(chan *Notice, 4)
	id := b.Subscribe(KindAll, func(_ context.Context, n *Notice) { got <- n })
	b.Unsubscribe(id)
	b.Notify(KindTransportError, LevelError, "boom")
	b.Close()

	if len(got) != 0 {
		t.Fatalf("got %d notices after unsubscribe", len(got))
	}
}

func TestCloseDrainsQueue(t *testing.T) {
	b := NewBus(8)
	release := make(chan struct{})
	var seen []string
	b.Subscribe(KindAll, func(_ context.Context, n *Notice) {
		<-release
		seen = append(seen, n.Text)
	})

	b.Notify(KindTransportError, LevelError, "a")
	b.Notify(KindTransportError, LevelError, "b")
	close(release)
	b.Close()

	if len(seen) != 2 || seen[0] != "a" || seen[1] != "b" {
		t.Fatalf("seen = %v, want [a b]", seen)
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	b := NewBus(1)
	block := make(chan struct{})
	b.Subscribe(KindAll, func(context.Context, *Notice) { <-block })

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			b.Notify(KindTransportError, LevelError, "x")
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full buffer")
	}
	close(block)
	b.Close()
}

func TestPublishAfterCloseIsDropped(t *testing.T) {
	b := NewBus(4)
	b.Close()
	b.Close()
	b.Notify(KindTransportError, LevelError, "late")

	var nilBus *Bus
	nilBus.Notify(KindTransportError, LevelError, "ignored")
}

func TestHandlerPanicDoesNotStopBus(t *testing.T) {
	b := NewBus(4)
	defer b.Close()

	got := make(chan *Notice, 2)
	b.Subscribe(KindAll, func(_ context.Context, n *Notice) {
		if n.Text == "panic" {
			panic("handler failure")
		}
		got <- n
	})

	b.Notify(KindTransportError, LevelError, "panic")
	b.Notify(KindTransportError, LevelError, "after")
	if n := recv(t, got); n.Text != "after" {
		t.Fatalf("notice = %+v", n)
	}
}

func TestLevelString(t *testing.T) {
	if LevelSuccess.String() != "success" || LevelError.String() != "error" || Level(42).String() != "info" {
		t.Fatal("unexpected level names")
	}
}

func TestFlushWaitsForQueuedNotices(t *testing.T) {
	b := NewBus(8)
	defer b.Close()

	release := make(chan struct{})
	var seen []string
	b.Subscribe(KindAll, func(_ context.Context, n *Notice) {
		<-release
		seen = append(seen, n.Text)
	})
	b.Notify(KindTransportError, LevelError, "one")
	b.Notify(KindTransportError, LevelError, "two")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	if err := b.Flush(ctx); err == nil {
		t.Fatal("Flush should time out while a handler is blocked")
	}
	cancel()

	close(release)
	ctx, cancel = context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := b.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if len(seen) != 2 || seen[0] != "one" || seen[1] != "two" {
		t.Fatalf("seen = %v", seen)
	}
}

func TestFlushOnClosedOrNilBus(t *testing.T) {
	var nilBus *Bus
	if err := nilBus.Flush(context.Background()); err != nil {
		t.Fatalf("nil bus Flush: %v", err)
	}
	b := NewBus(1)
	b.Close()
	if err := b.Flush(context.Background()); err != nil {
		t.Fatalf("closed bus Flush: %v", err)
	}
}
