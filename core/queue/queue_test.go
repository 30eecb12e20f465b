package queue_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/chargeq/chargeq/core/model"
	"github.com/chargeq/chargeq/core/queue"
	"github.com/chargeq/chargeq/core/store"
	"github.com/chargeq/chargeq/infra/store/memstore"
)

func entry(id string) model.QueueEntry {
	return model.QueueEntry{Requester: model.Requester{ID: id, DisplayName: id}, StartPercent: 20, TargetPercent: 80}
}

func TestQueue_AppendAssignsNextPosition(t *testing.T) {
	q := queue.New(memstore.New(nil))
	ctx := context.Background()
	for i, id := range []string{"a", "b", "c"} {
		e, err := q.Append(ctx, entry(id))
		if err != nil {
			t.Fatalf("append %s: %v", id, err)
		}
		if e.Position != i+1 {
			t.Errorf("append %s: position %d want %d", id, e.Position, i+1)
		}
	}
}

func TestQueue_AppendRejectsDuplicate(t *testing.T) {
	q := queue.New(memstore.New(nil))
	ctx := context.Background()
	if _, err := q.Append(ctx, entry("a")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := q.Append(ctx, entry("a")); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("duplicate append: got %v want ErrConflict", err)
	}
}

func TestQueue_RemoveKeepsPositionsDense(t *testing.T) {
	q := queue.New(memstore.New(nil))
	ctx := context.Background()
	ids := []string{"a", "b", "c", "d", "e"}
	for _, id := range ids {
		if _, err := q.Append(ctx, entry(id)); err != nil {
			t.Fatalf("append %s: %v", id, err)
		}
	}
	if _, ok, err := q.Remove(ctx, "c"); err != nil || !ok {
		t.Fatalf("remove c: %v %v", err, ok)
	}
	entries, err := q.Entries(ctx)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	want := []string{"a", "b", "d", "e"}
	for i, e := range entries {
		if e.Position != i+1 {
			t.Errorf("position gap at index %d: %d", i, e.Position)
		}
		if e.Requester.ID != want[i] {
			t.Errorf("relative order broken at %d: %s want %s", i, e.Requester.ID, want[i])
		}
	}
}

func TestQueue_RemoveAbsentIsNoop(t *testing.T) {
	q := queue.New(memstore.New(nil))
	if _, ok, err := q.Remove(context.Background(), "ghost"); err != nil || ok {
		t.Fatalf("absent remove: %v %v", err, ok)
	}
}

func TestQueue_PeekFirst(t *testing.T) {
	q := queue.New(memstore.New(nil))
	ctx := context.Background()
	if _, ok, err := q.PeekFirst(ctx); err != nil || ok {
		t.Fatalf("peek on empty queue: %v %v", err, ok)
	}
	for _, id := range []string{"a", "b"} {
		if _, err := q.Append(ctx, entry(id)); err != nil {
			t.Fatalf("append %s: %v", id, err)
		}
	}
	head, ok, err := q.PeekFirst(ctx)
	if err != nil || !ok || head.Requester.ID != "a" {
		t.Fatalf("peek: %v %v %q", err, ok, head.Requester.ID)
	}
}

func TestQueue_PositionInvariantUnderRandomOps(t *testing.T) {
	q := queue.New(memstore.New(nil))
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	present := map[string]bool{}
	names := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	for i := 0; i < 200; i++ {
		id := names[rng.Intn(len(names))]
		if rng.Intn(2) == 0 && !present[id] {
			if _, err := q.Append(ctx, entry(id)); err != nil {
				t.Fatalf("append %s: %v", id, err)
			}
			present[id] = true
		} else {
			if _, _, err := q.Remove(ctx, id); err != nil {
				t.Fatalf("remove %s: %v", id, err)
			}
			delete(present, id)
		}
		entries, err := q.Entries(ctx)
		if err != nil {
			t.Fatalf("entries: %v", err)
		}
		if len(entries) != len(present) {
			t.Fatalf("entry count %d want %d", len(entries), len(present))
		}
		for j, e := range entries {
			if e.Position != j+1 {
				t.Fatalf("positions not 1..N after op %d: %#v", i, entries)
			}
		}
	}
}
