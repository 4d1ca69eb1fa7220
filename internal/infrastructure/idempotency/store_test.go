package idempotency

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, time.Hour, 30*time.Second), mr
}

func TestStore_GuardaYDevuelve(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "co-1:k1")
	require.NoError(t, err)
	assert.False(t, ok)

	want := Response{Status: 201, ContentType: "application/json", Body: []byte(`{"transfer_id":"t-1"}`), BodyHash: "ab12"}
	require.NoError(t, s.Save(ctx, "co-1:k1", want))

	got, ok, err := s.Get(ctx, "co-1:k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, *got)

	mr.FastForward(2 * time.Hour)
	_, ok, err = s.Get(ctx, "co-1:k1")
	require.NoError(t, err)
	assert.False(t, ok, "vence con el TTL")
}

func TestStore_CandadoEnCurso(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	release, err := s.Acquire(ctx, "co-1:k2")
	require.NoError(t, err)

	_, err = s.Acquire(ctx, "co-1:k2")
	assert.ErrorIs(t, err, domain.ErrIdempotencyInFlight)

	other, err := s.Acquire(ctx, "co-1:k3")
	require.NoError(t, err, "claves distintas no se bloquean")
	other()

	release()
	again, err := s.Acquire(ctx, "co-1:k2")
	require.NoError(t, err)
	again()
}

func TestStore_RedisCaido(t *testing.T) {
	s, mr := newTestStore(t)
	mr.Close()

	_, _, err := s.Get(context.Background(), "k")
	assert.ErrorIs(t, err, domain.ErrStorage)
}
