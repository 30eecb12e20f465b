package eventbus

import (
	"testing"
	"time"

	"github.com/chargeq/chargeq/core/store"
)

func TestFeed_PublishSubscribe(t *testing.T) {
	f := New()
	defer f.Close()
	sub := f.Subscribe()
	f.Publish(store.RecordChange{Kind: store.KindSession, Action: store.ActionCreate, RecordID: "s1"})
	select {
	case c := <-sub:
		if c.RecordID != "s1" || c.Kind != store.KindSession {
			t.Fatalf("unexpected change: %#v", c)
		}
	case <-time.After(time.Second):
		t.Fatal("no change delivered")
	}
}

func TestFeed_UnsubscribeClosesChannel(t *testing.T) {
	f := New()
	defer f.Close()
	sub := f.Subscribe()
	f.Unsubscribe(sub)
	if _, ok := <-sub; ok {
		t.Fatal("channel still open after unsubscribe")
	}
}

func TestFeed_FullSubscriberDoesNotBlock(t *testing.T) {
	f := New()
	defer f.Close()
	f.Subscribe() // never drained
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			f.Publish(store.RecordChange{RecordID: "x"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on slow subscriber")
	}
}

func TestFeed_PublishAfterClose(t *testing.T) {
	f := New()
	sub := f.Subscribe()
	f.Close()
	f.Publish(store.RecordChange{RecordID: "late"})
	if _, ok := <-sub; ok {
		t.Fatal("received event after close")
	}
}
