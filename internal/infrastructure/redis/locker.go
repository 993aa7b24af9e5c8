// Package redis lock distribuido por intento de factura sobre Redis (SET NX PX + liberación por token).
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Gym-api/internal/application/einvoicing"
	"github.com/jhoicas/Gym-api/pkg/config"
)

var _ einvoicing.InvoiceLocker = (*Locker)(nil)

// releaseScript borra la clave sólo si sigue siendo del dueño del token.
var releaseScript = goredis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// NewClient crea el cliente y verifica la conexión.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("conectar a Redis %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// Locker un escritor por clave entre todas las instancias del servicio.
// El TTL acota cuánto sobrevive el lock a un proceso caído.
type Locker struct {
	client    *goredis.Client
	keyPrefix string
	ttl       time.Duration
	log       zerolog.Logger
}

// NewLocker construye el locker; ttl <= 0 usa 30 s.
func NewLocker(client *goredis.Client, keyPrefix string, ttl time.Duration, log zerolog.Logger) *Locker {
	if keyPrefix == "" {
		keyPrefix = "gym:lock:"
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Locker{client: client, keyPrefix: keyPrefix, ttl: ttl, log: log}
}

// Lock espera con backoff hasta obtener la clave o hasta que ctx se cancele.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	k := l.keyPrefix + key
	token := uuid.NewString()

	wait := backoff.NewExponentialBackOff()
	wait.InitialInterval = 10 * time.Millisecond
	wait.MaxInterval = 250 * time.Millisecond
	wait.MaxElapsedTime = 0
	wait.Reset()

	for {
		ok, err := l.client.SetNX(ctx, k, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait.NextBackOff()):
		}
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		relCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(relCtx, l.client, []string{k}, token).Err(); err != nil && !errors.Is(err, goredis.Nil) {
			l.log.Warn().Err(err).Str("key", k).Msg("no se pudo liberar el lock; expirará por TTL")
		}
	}, nil
}
