package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"petbook-access/internal/platform/logger"
)

func TestMemoryBus_PublishReachesAllSubscribers(t *testing.T) {
	bus := NewMemoryBus(logger.Nop())
	ctx := context.Background()

	sub1, err := bus.Subscribe(ctx, "pet:1:access-requests")
	require.NoError(t, err)
	defer sub1.Close()

	sub2, err := bus.Subscribe(ctx, "pet:1:access-requests")
	require.NoError(t, err)
	defer sub2.Close()

	ev := Event{Type: EventAccessRequested, Data: map[string]string{"request_id": "r1"}}
	require.NoError(t, bus.Publish(ctx, "pet:1:access-requests", ev))

	for _, sub := range []*Subscription{sub1, sub2} {
		select {
		case got := <-sub.C:
			require.Equal(t, EventAccessRequested, got.Type)
			require.Equal(t, "r1", got.Data["request_id"])
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestMemoryBus_TopicsAreIsolated(t *testing.T) {
	bus := NewMemoryBus(logger.Nop())
	ctx := context.Background()

	sub, err := bus.Subscribe(ctx, TopicRequest("r1"))
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, bus.Publish(ctx, TopicRequest("r2"), Event{Type: EventAccessResolved}))

	select {
	case ev := <-sub.C:
		t.Fatalf("unexpected event on other topic: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryBus_SlowSubscriberDoesNotBlockPublish(t *testing.T) {
	bus := NewMemoryBus(logger.Nop())
	ctx := context.Background()

	sub, err := bus.Subscribe(ctx, "t")
	require.NoError(t, err)
	defer sub.Close()

	// Llenar el buffer y seguir publicando: Publish nunca bloquea,
	// los eventos extra se caen (contrato at-least-once sin backpressure).
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*3; i++ {
			_ = bus.Publish(ctx, "t", Event{Type: "e"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on slow subscriber")
	}
}

func TestMemoryBus_CloseIsIdempotent(t *testing.T) {
	bus := NewMemoryBus(logger.Nop())

	sub, err := bus.Subscribe(context.Background(), "t")
	require.NoError(t, err)

	sub.Close()
	sub.Close() // segunda vez no panickea

	_, open := <-sub.C
	require.False(t, open)

	// Publicar después del close no rompe.
	require.NoError(t, bus.Publish(context.Background(), "t", Event{Type: "e"}))
}

func TestMemoryBus_CtxCancelClosesSubscription(t *testing.T) {
	bus := NewMemoryBus(logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := bus.Subscribe(ctx, "t")
	require.NoError(t, err)

	cancel()

	select {
	case _, open := <-sub.C:
		require.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("subscription not closed after ctx cancel")
	}
}

func TestTopics(t *testing.T) {
	require.Equal(t, "pet:p1:access-requests", TopicPetAccessRequests("p1"))
	require.Equal(t, "request:r1", TopicRequest("r1"))
	require.Equal(t, "pet:p1:pending-records", TopicPetPendingRecords("p1"))
}
