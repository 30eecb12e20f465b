package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chargeq/chargeq/core/model"
	"github.com/chargeq/chargeq/core/store"
	"github.com/chargeq/chargeq/internal/eventbus"
)

type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeRedis() *fakeRedis { return &fakeRedis{data: make(map[string]string)} }

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = string(value.([]byte))
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func TestBoardCacheRoundTrip(t *testing.T) {
	c := newBoardCache(newFakeRedis(), time.Minute, nil)
	ctx := context.Background()

	if _, ok, err := c.Get(ctx); err != nil || ok {
		t.Fatalf("expected miss on empty cache: %v %v", ok, err)
	}

	board := Board{
		Slots: []model.Slot{
			{ID: 1, Name: "Charger A", Occupied: true, Session: &model.Session{ID: "s1", SlotID: 1}},
			{ID: 2, Name: "Charger B"},
		},
		Queue:       []model.QueueEntry{{ID: "q1", Position: 1}},
		GeneratedAt: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
	}
	if err := c.Save(ctx, board); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := c.Get(ctx)
	if err != nil || !ok {
		t.Fatalf("get: %v %v", ok, err)
	}
	if len(got.Slots) != 2 || len(got.Queue) != 1 {
		t.Fatalf("board shape: %+v", got)
	}
	if !got.Slots[0].Occupied || got.Slots[0].Session == nil || got.Slots[0].Session.ID != "s1" {
		t.Errorf("slot 1: %+v", got.Slots[0])
	}
	if !got.GeneratedAt.Equal(board.GeneratedAt) {
		t.Errorf("generated at: %v", got.GeneratedAt)
	}
}

type staticSource struct {
	mu    sync.Mutex
	calls int
	board Board
}

func (s *staticSource) CurrentBoard(ctx context.Context) (Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.board, nil
}

func (s *staticSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestRefresherRebuildsOnChange(t *testing.T) {
	fake := newFakeRedis()
	c := newBoardCache(fake, time.Minute, nil)
	src := &staticSource{board: Board{Slots: []model.Slot{{ID: 1, Name: "A"}}}}
	feed := eventbus.New()
	r := NewRefresher(c, src, feed, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	// Run primes the cache before entering the subscription loop.
	deadline := time.After(2 * time.Second)
	for src.callCount() < 1 {
		select {
		case <-deadline:
			t.Fatal("cache never primed")
		case <-time.After(5 * time.Millisecond):
		}
	}

	feed.Publish(store.RecordChange{Kind: store.KindSession, Action: store.ActionCreate})
	for src.callCount() < 2 {
		select {
		case <-deadline:
			t.Fatal("change did not trigger a rebuild")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if _, ok, err := c.Get(context.Background()); err != nil || !ok {
		t.Fatalf("board not cached: %v %v", ok, err)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("refresher did not stop on cancel")
	}
}
