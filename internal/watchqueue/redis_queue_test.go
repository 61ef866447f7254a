package watchqueue

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestQueue(t *testing.T) *Queue {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewWithClient(client, time.Minute)
}

func TestRegisterImmediateIsDequeued(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)

	if err := q.Register(ctx, "train-abc", "training", time.Time{}); err != nil {
		t.Fatalf("register: %v", err)
	}

	name, err := q.DequeueWithLease(ctx)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if name != "train-abc" {
		t.Fatalf("expected train-abc, got %q", name)
	}

	inflight, err := q.InFlight(ctx)
	if err != nil {
		t.Fatalf("inflight: %v", err)
	}
	if inflight != 1 {
		t.Fatalf("expected 1 in-flight watch, got %d", inflight)
	}

	// Nothing else is ready.
	name, err = q.DequeueWithLease(ctx)
	if err != nil {
		t.Fatalf("second dequeue: %v", err)
	}
	if name != "" {
		t.Fatalf("expected empty dequeue, got %q", name)
	}
}

func TestRegisterFutureWaitsForPromotion(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)

	pollAt := time.Now().Add(time.Hour)
	if err := q.Register(ctx, "train-later", "training", pollAt); err != nil {
		t.Fatalf("register: %v", err)
	}

	name, err := q.DequeueWithLease(ctx)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if name != "" {
		t.Fatalf("scheduled watch dequeued early: %q", name)
	}

	n, err := q.PromoteDue(ctx, pollAt.Add(time.Second), 10)
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 promoted, got %d", n)
	}

	name, err = q.DequeueWithLease(ctx)
	if err != nil {
		t.Fatalf("dequeue after promote: %v", err)
	}
	if name != "train-later" {
		t.Fatalf("expected train-later, got %q", name)
	}
}

func TestRescheduleReleasesLease(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)

	if err := q.Register(ctx, "tune-1", "tuning", time.Time{}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := q.DequeueWithLease(ctx); err != nil {
		t.Fatalf("dequeue: %v", err)
	}

	next := time.Now().Add(30 * time.Second)
	if err := q.Reschedule(ctx, "tune-1", next); err != nil {
		t.Fatalf("reschedule: %v", err)
	}

	inflight, err := q.InFlight(ctx)
	if err != nil {
		t.Fatalf("inflight: %v", err)
	}
	if inflight != 0 {
		t.Fatalf("expected lease released, inflight=%d", inflight)
	}

	depth, err := q.Depth(ctx)
	if err != nil {
		t.Fatalf("depth: %v", err)
	}
	if depth != 1 {
		t.Fatalf("expected depth 1, got %d", depth)
	}
}

func TestRequeueExpiredReclaimsLease(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)

	if err := q.Register(ctx, "proc-1", "processing", time.Time{}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := q.DequeueWithLease(ctx); err != nil {
		t.Fatalf("dequeue: %v", err)
	}

	// The lease deadline is a minute out; a reclaim before then finds nothing.
	names, err := q.RequeueExpired(ctx, time.Now(), 10)
	if err != nil {
		t.Fatalf("requeue: %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("unexpired lease reclaimed: %v", names)
	}

	names, err = q.RequeueExpired(ctx, time.Now().Add(2*time.Minute), 10)
	if err != nil {
		t.Fatalf("requeue: %v", err)
	}
	if len(names) != 1 || names[0] != "proc-1" {
		t.Fatalf("expected proc-1 reclaimed, got %v", names)
	}

	name, err := q.DequeueWithLease(ctx)
	if err != nil {
		t.Fatalf("dequeue after reclaim: %v", err)
	}
	if name != "proc-1" {
		t.Fatalf("expected proc-1 ready again, got %q", name)
	}
}

func TestRetireRemovesAllState(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)

	if err := q.Register(ctx, "train-done", "training", time.Time{}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := q.DequeueWithLease(ctx); err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if err := q.Retire(ctx, "train-done"); err != nil {
		t.Fatalf("retire: %v", err)
	}

	depth, _ := q.Depth(ctx)
	inflight, _ := q.InFlight(ctx)
	if depth != 0 || inflight != 0 {
		t.Fatalf("expected empty queue after retire, depth=%d inflight=%d", depth, inflight)
	}
	if _, err := q.Kind(ctx, "train-done"); err == nil {
		t.Fatalf("expected kind lookup to fail after retire")
	}
}

func TestKindRoundTrip(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)

	if err := q.Register(ctx, "auto-1", "automl", time.Time{}); err != nil {
		t.Fatalf("register: %v", err)
	}
	kind, err := q.Kind(ctx, "auto-1")
	if err != nil {
		t.Fatalf("kind: %v", err)
	}
	if kind != "automl" {
		t.Fatalf("expected automl, got %q", kind)
	}
}
