package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"

	"petbook-access/internal/platform/logger"
)

// RedisBus implementa Bus sobre Redis pub/sub para correr varias instancias
// del API detrás de un balanceador (la sesión del guardian y la del profesional
// pueden caer en procesos distintos).
//
// Redis pub/sub no tiene replay: misma semántica que MemoryBus.
type RedisBus struct {
	client *redis.Client
	log    logger.Logger
}

func NewRedisBus(client *redis.Client, log logger.Logger) *RedisBus {
	return &RedisBus{client: client, log: log}
}

// OpenRedis conecta y verifica el broker (URL estilo redis://...).
func OpenRedis(ctx context.Context, url string, log logger.Logger) (*RedisBus, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return NewRedisBus(client, log), nil
}

func (b *RedisBus) Publish(ctx context.Context, topic string, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, topic, payload).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context, topic string) (*Subscription, error) {
	ps := b.client.Subscribe(ctx, topic)

	// Forzamos el handshake de SUBSCRIBE para detectar errores acá
	// y no recién en el primer Receive.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	ch := make(chan Event, subscriberBuffer)

	var once sync.Once
	closeFn := func() {
		once.Do(func() {
			_ = ps.Close()
		})
	}

	go func() {
		defer close(ch)
		for msg := range ps.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.log.Warn().Err(err).Str("topic", topic).
					Msg("realtime: invalid event payload, skipping")
				continue
			}
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	if ctx != nil && ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			closeFn()
		}()
	}

	return &Subscription{C: ch, closeFn: closeFn}, nil
}

func (b *RedisBus) Close() error {
	return b.client.Close()
}
