// Package idempotency guarda en Redis la respuesta de una operación del ledger bajo su
// Idempotency-Key para devolverla de nuevo si el cliente reintenta.
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
)

const (
	keyPrefix  = "idem:resp:"
	lockPrefix = "idem:lock:"
)

// Response respuesta HTTP almacenada. BodyHash es el sha256 del cuerpo de la petición que la
// produjo; una repetición con otro cuerpo no debe recibirla.
type Response struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
	BodyHash    string `json:"body_hash,omitempty"`
}

// Store respuestas por clave con TTL más un candado por clave mientras la primera
// petición está en curso.
type Store struct {
	client  *redis.Client
	locker  *redislock.Client
	ttl     time.Duration
	lockTTL time.Duration
}

// NewStore ttl es la retención de la respuesta; lockTTL acota cuánto puede quedar tomada
// una clave si el proceso muere a mitad de la operación.
func NewStore(client *redis.Client, ttl, lockTTL time.Duration) *Store {
	return &Store{
		client:  client,
		locker:  redislock.New(client),
		ttl:     ttl,
		lockTTL: lockTTL,
	}
}

// Get respuesta guardada; ok=false si no existe.
func (s *Store) Get(ctx context.Context, key string) (*Response, bool, error) {
	raw, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, domain.NewStorageError("idempotency get", err)
	}
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, false, fmt.Errorf("idempotency: respuesta corrupta para %q: %w", key, err)
	}
	return &resp, true, nil
}

// Acquire toma la clave. Si otra petición la tiene devuelve domain.ErrIdempotencyInFlight.
// La función devuelta libera el candado.
func (s *Store) Acquire(ctx context.Context, key string) (func(), error) {
	lock, err := s.locker.Obtain(ctx, lockPrefix+key, s.lockTTL, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, domain.ErrIdempotencyInFlight
	}
	if err != nil {
		return nil, domain.NewStorageError("idempotency lock", err)
	}
	return func() {
		// contexto propio: el de la petición puede estar cancelado al liberar
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = lock.Release(ctx)
	}, nil
}

// Save guarda la respuesta durante el TTL configurado.
func (s *Store) Save(ctx context.Context, key string, resp Response) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, keyPrefix+key, raw, s.ttl).Err(); err != nil {
		return domain.NewStorageError("idempotency save", err)
	}
	return nil
}

// Ping comprueba la conexión al arrancar.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
