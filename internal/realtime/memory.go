package realtime

import (
	"context"
	"sync"

	"petbook-access/internal/platform/logger"
)

const subscriberBuffer = 16

// MemoryBus es el backend in-process: fan-out por topic sobre channels.
// Sirve para dev y tests; en despliegues multi-instancia usar RedisBus.
type MemoryBus struct {
	mu     sync.RWMutex
	topics map[string]map[int]chan Event
	nextID int
	log    logger.Logger
}

func NewMemoryBus(log logger.Logger) *MemoryBus {
	return &MemoryBus{
		topics: make(map[string]map[int]chan Event),
		log:    log,
	}
}

func (b *MemoryBus) Publish(ctx context.Context, topic string, ev Event) error {
	// El send es non-blocking, así que podemos hacerlo bajo RLock;
	// eso evita la carrera contra Close (que cierra el channel bajo Lock).
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.topics[topic] {
		select {
		case ch <- ev:
		default:
			// Subscriber lento con buffer lleno: se le cae el evento.
			// El contrato ya es "puede perder eventos si no consume";
			// el consumer debe resincronizar leyendo estado actual.
			b.log.Warn().Str("topic", topic).Str("event", ev.Type).
				Msg("realtime: dropping event for slow subscriber")
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(ctx context.Context, topic string) (*Subscription, error) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	if b.topics[topic] == nil {
		b.topics[topic] = make(map[int]chan Event)
	}
	id := b.nextID
	b.nextID++
	b.topics[topic][id] = ch
	b.mu.Unlock()

	var once sync.Once
	closeFn := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.topics[topic], id)
			if len(b.topics[topic]) == 0 {
				delete(b.topics, topic)
			}
			b.mu.Unlock()
			close(ch)
		})
	}

	// Si el ctx muere, limpiamos la suscripción sola.
	if ctx != nil && ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			closeFn()
		}()
	}

	return &Subscription{C: ch, closeFn: closeFn}, nil
}
