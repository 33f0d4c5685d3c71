package audit

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

func TestAwaitDeliverySuccess(t *testing.T) {
	ch := make(chan kafka.Event, 1)
	ch <- &kafka.Message{}

	if err := awaitDelivery(context.Background(), ch); err != nil {
		t.Fatalf("expected nil for acknowledged delivery, got %v", err)
	}
}

func TestAwaitDeliveryBrokerError(t *testing.T) {
	ch := make(chan kafka.Event, 1)
	msg := &kafka.Message{}
	msg.TopicPartition.Error = errors.New("leader not available")
	ch <- msg

	err := awaitDelivery(context.Background(), ch)
	if err == nil || !strings.Contains(err.Error(), "delivery failed") {
		t.Fatalf("expected delivery failure, got %v", err)
	}
}

func TestAwaitDeliveryTimeoutLeavesChannelOpen(t *testing.T) {
	ch := make(chan kafka.Event, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := awaitDelivery(ctx, ch); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	// the poller delivers the report after the caller gave up; the buffered
	// channel must absorb it instead of panicking on a closed channel
	done := make(chan struct{})
	go func() {
		defer close(done)
		ch <- &kafka.Message{}
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("late delivery report blocked; channel buffer not available")
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func TestRecorderNilSafe(t *testing.T) {
	var r *Recorder
	r.Record("noop", "1", "", nil)
	NewRecorder(nil).Record("noop", "1", "", nil)
}

func TestRecorderDispatches(t *testing.T) {
	pub := &recordingPublisher{}
	r := NewRecorder(pub)

	r.Record("dress_created", "42", "admin", map[string]any{"sku": "DRESS000042"})

	deadline := time.Now().Add(2 * time.Second)
	for {
		pub.mu.Lock()
		n := len(pub.events)
		pub.mu.Unlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("event never published")
		}
		time.Sleep(5 * time.Millisecond)
	}

	e := pub.events[0]
	if e.EventType != "dress_created" || e.EntityID != "42" || e.Service == "" {
		t.Fatalf("unexpected event %+v", e)
	}
}
