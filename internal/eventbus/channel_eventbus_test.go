package eventbus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestChannelEventBus_PublishAndSubscribe(t *testing.T) {
	eb := NewChannelEventBus(
		WithBufferSize(1),
		WithWorkerCount(1),
		WithRetries(1, 10*time.Millisecond),
	)
	defer eb.Close()

	received := make(chan string, 1)
	handler := func(ctx context.Context, event Event) error {
		received <- string(event.Type())
		return nil
	}
	_, err := eb.Subscribe([]EventType{EventToolCallSuccess}, handler)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	evt := NewEvent(EventToolCallSuccess, nil, "test", nil)
	if err := eb.Publish(context.Background(), evt); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case typ := <-received:
		if typ != string(EventToolCallSuccess) {
			t.Errorf("expected event type %v, got %v", EventToolCallSuccess, typ)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("timeout waiting for event handler")
	}
}

func TestChannelEventBus_HandlerRetry(t *testing.T) {
	eb := NewChannelEventBus(
		WithBufferSize(1),
		WithWorkerCount(1),
		WithRetries(2, 10*time.Millisecond),
	)
	defer eb.Close()

	var mu sync.Mutex
	calls := 0
	done := make(chan struct{})
	handler := func(ctx context.Context, event Event) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}
	if _, err := eb.SubscribeAll(handler); err != nil {
		t.Fatalf("SubscribeAll failed: %v", err)
	}

	if err := eb.Publish(context.Background(), NewEvent(EventRunStarted, nil, "test", nil)); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("handler was not retried")
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 2 {
		t.Errorf("handler calls = %d, want 2", calls)
	}
}

func TestChannelEventBus_TypeFiltering(t *testing.T) {
	eb := NewChannelEventBus(WithBufferSize(4), WithWorkerCount(1))
	defer eb.Close()

	received := make(chan EventType, 4)
	_, err := eb.Subscribe([]EventType{EventDecisionFinal}, func(ctx context.Context, event Event) error {
		received <- event.Type()
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	ctx := context.Background()
	_ = eb.Publish(ctx, NewEvent(EventToolCallStarted, nil, "test", nil))
	_ = eb.Publish(ctx, NewEvent(EventDecisionFinal, nil, "test", nil))

	select {
	case typ := <-received:
		if typ != EventDecisionFinal {
			t.Errorf("received %v, want %v", typ, EventDecisionFinal)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("timeout waiting for filtered event")
	}
	select {
	case typ := <-received:
		t.Errorf("unexpected extra event %v", typ)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestChannelEventBus_Unsubscribe(t *testing.T) {
	eb := NewChannelEventBus(WithBufferSize(1), WithWorkerCount(1))
	defer eb.Close()

	received := make(chan struct{}, 1)
	id, err := eb.SubscribeAll(func(ctx context.Context, event Event) error {
		received <- struct{}{}
		return nil
	})
	if err != nil {
		t.Fatalf("SubscribeAll failed: %v", err)
	}
	if err := eb.Unsubscribe(id); err != nil {
		t.Fatalf("Unsubscribe failed: %v", err)
	}

	if err := eb.Publish(context.Background(), NewEvent(EventRunSuccess, nil, "test", nil)); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case <-received:
		t.Error("unsubscribed handler was invoked")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestChannelEventBus_ClosedBusRejectsPublish(t *testing.T) {
	eb := NewChannelEventBus(WithBufferSize(1), WithWorkerCount(1))
	if err := eb.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := eb.Publish(context.Background(), NewEvent(EventRunStarted, nil, "test", nil)); err == nil {
		t.Error("publish on a closed bus should fail")
	}
}

func TestChannelEventBus_ConcurrentPublishAndClose(t *testing.T) {
	eb := NewChannelEventBus(WithBufferSize(4), WithWorkerCount(2))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				// Either delivered or rejected as closed; never a panic on a
				// closed channel.
				_ = eb.Publish(context.Background(), NewEvent(EventRunStarted, nil, "test", nil))
			}
		}()
	}

	if err := eb.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	wg.Wait()
}

func TestBaseEvent_Metadata(t *testing.T) {
	evt := NewEvent(EventToolCallSuccess, "payload", "gateway", nil).
		WithMetadata("tool", "search_engine")
	if evt.Metadata()["tool"] != "search_engine" {
		t.Errorf("metadata = %v", evt.Metadata())
	}
	if evt.Source() != "gateway" {
		t.Errorf("source = %v", evt.Source())
	}
	if evt.Payload() != "payload" {
		t.Errorf("payload = %v", evt.Payload())
	}
}
