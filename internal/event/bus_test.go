package event

import "testing"

func TestBroadcaster_PublishReachesSubscriber(t *testing.T) {
	b := New()
	ch := b.Subscribe()
	b.Publish(KindStarted, Started{JobID: "job-1"})

	select {
	case evt := <-ch:
		if evt.Kind != KindStarted {
			t.Errorf("expected KindStarted, got %v", evt.Kind)
		}
	default:
		t.Fatal("expected event to be delivered")
	}
}

func TestBroadcaster_PublishNeverBlocksOnFullSubscriber(t *testing.T) {
	b := New()
	ch := b.Subscribe()

	for i := 0; i < defaultBufferSize+10; i++ {
		b.Publish(KindChunkStarted, ChunkStarted{ChunkIndex: i})
	}

	if len(ch) != defaultBufferSize {
		t.Errorf("expected buffer to be full at %d, got %d", defaultBufferSize, len(ch))
	}
}

func TestBroadcaster_PublishDropsOldestOnOverflow(t *testing.T) {
	b := New()
	ch := b.Subscribe()

	for i := 0; i < defaultBufferSize+1; i++ {
		b.Publish(KindChunkStarted, ChunkStarted{ChunkIndex: i})
	}

	first := <-ch
	payload, ok := first.Payload.(ChunkStarted)
	if !ok {
		t.Fatalf("expected ChunkStarted payload, got %T", first.Payload)
	}
	if payload.ChunkIndex != 1 {
		t.Errorf("expected oldest event (index 0) to have been evicted, first remaining index is %d", payload.ChunkIndex)
	}
}

func TestBroadcaster_UnsubscribeStopsDelivery(t *testing.T) {
	b := New()
	ch := b.Subscribe()
	b.Unsubscribe(ch)

	b.Publish(KindCompleted, Completed{JobID: "job-2"})

	if _, ok := <-ch; ok {
		t.Fatal("expected channel to be closed after unsubscribe")
	}
}

func TestBroadcaster_MultipleSubscribersAllReceive(t *testing.T) {
	b := New()
	a := b.Subscribe()
	c := b.Subscribe()

	b.Publish(KindError, Error{Stage: "seed", Message: "boom"})

	if len(a) != 1 || len(c) != 1 {
		t.Fatalf("expected both subscribers to receive the event, got %d and %d", len(a), len(c))
	}
}
