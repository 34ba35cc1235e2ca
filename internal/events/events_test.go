package events

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/videticket/videticket/internal/domain"
	"github.com/videticket/videticket/internal/id"
)

func TestEmitDeliversToAllSubscribers(t *testing.T) {
	bus := New(nil)
	var count int32
	var wg sync.WaitGroup
	wg.Add(3)
	for i := 0; i < 3; i++ {
		bus.Subscribe(func(ev Event) error {
			defer wg.Done()
			atomic.AddInt32(&count, 1)
			return nil
		})
	}

	bus.Emit(Created{Ticket: domain.NewTicket("202501010900-fix-login", "Fix login", domain.PriorityHigh)})
	wg.Wait()

	if atomic.LoadInt32(&count) != 3 {
		t.Fatalf("expected 3 deliveries, got %d", count)
	}
}

func TestEmitBlocksUntilAllSubscribersReturn(t *testing.T) {
	bus := New(nil)
	var done int32
	bus.Subscribe(func(ev Event) error {
		atomic.StoreInt32(&done, 1)
		return nil
	})

	bus.Emit(StatusChanged{ID: id.NewTicketID(), Old: domain.StatusTodo, New: domain.StatusDoing})

	if atomic.LoadInt32(&done) != 1 {
		t.Fatalf("expected Emit to block until the subscriber finished")
	}
}

func TestSubscriberErrorDoesNotPropagate(t *testing.T) {
	bus := New(nil)
	bus.Subscribe(func(ev Event) error {
		return errors.New("boom")
	})

	// Emit must not panic or otherwise surface the subscriber's error.
	bus.Emit(TaskCompleted{TicketID: id.NewTicketID(), TaskID: id.NewTaskID()})
}

func TestSubscriberPanicDoesNotCrashEmit(t *testing.T) {
	bus := New(nil)
	bus.Subscribe(func(ev Event) error {
		panic("subscriber exploded")
	})
	var called int32
	bus.Subscribe(func(ev Event) error {
		atomic.AddInt32(&called, 1)
		return nil
	})

	bus.Emit(TaskRemoved{TicketID: id.NewTicketID(), TaskID: id.NewTaskID()})

	if atomic.LoadInt32(&called) != 1 {
		t.Fatalf("expected the second subscriber to still run")
	}
}
