package events

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"

	"clinic_marketing_backend/platform/logger"
)

type testEvent struct {
	BaseEvent
}

func (testEvent) EventName() string { return "test.event" }

func TestPublishSyncRunsHandlersAndJoinsErrors(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))
	var calls int32

	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}))
	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("mail down")
	}))

	err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent()})
	if err == nil {
		t.Fatalf("expected joined handler error")
	}
	if calls != 2 {
		t.Fatalf("expected 2 handler calls, got %d", calls)
	}
}

func TestPublishRecoversPanics(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))
	var calls int32

	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error {
		panic("boom")
	}))
	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	bus.Publish(ctx, testEvent{BaseEvent: NewBaseEvent()})
	cancel()
	bus.Wait()

	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected surviving handler to run once, got %d", calls)
	}
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	bus := NewInMemoryBus(nil)
	bus.Publish(context.Background(), testEvent{BaseEvent: NewBaseEvent()})
	bus.Wait()
	if err := bus.PublishSync(context.Background(), testEvent{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestNewBaseEventStampsDistinctIDs(t *testing.T) {
	a, b := NewBaseEvent(), NewBaseEvent()
	if a.ID == uuid.Nil || a.ID == b.ID {
		t.Fatalf("expected distinct ids, got %s and %s", a.ID, b.ID)
	}
	if a.OccurredAt().Location().String() != "UTC" {
		t.Fatalf("expected UTC timestamp, got %v", a.OccurredAt())
	}
}

func TestPublishLogsFailedHandlerWithEventID(t *testing.T) {
	var buf bytes.Buffer
	bus := NewInMemoryBus(logger.NewWithWriter("production", &buf))
	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error {
		return errors.New("smtp refused")
	}))

	event := testEvent{BaseEvent: NewBaseEvent()}
	bus.Publish(context.Background(), event)
	bus.Wait()

	out := buf.String()
	if !strings.Contains(out, "event handler failed") || !strings.Contains(out, event.ID.String()) {
		t.Fatalf("expected failure logged with event id, got %q", out)
	}
}
