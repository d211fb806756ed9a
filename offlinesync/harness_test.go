package offlinesync

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type harness struct {
	clock     *fakeClock
	queue     *MemoryQueueStore
	bills     *MemoryEntityStore
	customers *MemoryEntityStore
	products  *MemoryEntityStore
	payments  *MemoryEntityStore
	executor  *Executor
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	h := &harness{
		clock:     clock,
		queue:     NewMemoryQueueStore(clock.Now),
		bills:     NewMemoryEntityStore(clock.Now),
		customers: NewMemoryEntityStore(clock.Now),
		products:  NewMemoryEntityStore(clock.Now),
		payments:  NewMemoryEntityStore(clock.Now),
	}
	h.executor = NewExecutor(h.stores(), nil)
	return h
}

func (h *harness) stores() EntityStores {
	return EntityStores{
		Bills:     h.bills,
		Customers: h.customers,
		Products:  h.products,
		Payments:  h.payments,
	}
}

func (h *harness) service(opts ...Option) *Service {
	base := []Option{WithLogger(quietLogger()), WithClock(h.clock.Now)}
	return NewService(h.queue, h.executor, append(base, opts...)...)
}

func mustEnqueue(t *testing.T, svc *Service, scope Scope, in NewOperation) int {
	t.Helper()
	id, err := svc.Enqueue(context.Background(), scope, in)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	return id
}

func mustGetOp(t *testing.T, q QueueStore, id int) *Operation {
	t.Helper()
	op, err := q.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get op %d: %v", id, err)
	}
	return op
}
