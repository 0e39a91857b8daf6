package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/cache"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocker(t *testing.T) (*cache.RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return cache.NewRedisLocker(rdb, 5*time.Second, zerolog.Nop()), mr
}

func TestRedisLocker_LockYRelease(t *testing.T) {
	l, mr := newLocker(t)
	ctx := context.Background()

	release, err := l.Lock(ctx, "receipt:r1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("stock-ledger:lock:receipt:r1"))

	release()
	assert.False(t, mr.Exists("stock-ledger:lock:receipt:r1"))

	// Tras liberar se puede volver a tomar.
	release, err = l.Lock(ctx, "receipt:r1")
	require.NoError(t, err)
	release()
}

func TestRedisLocker_Ocupado_RetornaConflicto(t *testing.T) {
	l, _ := newLocker(t)
	ctx := context.Background()

	release, err := l.Lock(ctx, "delivery:d1")
	require.NoError(t, err)
	defer release()

	_, err = l.Lock(ctx, "delivery:d1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)

	// Otra clave no se ve afectada.
	other, err := l.Lock(ctx, "delivery:d2")
	require.NoError(t, err)
	other()
}

func TestRedisLocker_Expira(t *testing.T) {
	l, mr := newLocker(t)
	ctx := context.Background()

	release, err := l.Lock(ctx, "receipt:r2")
	require.NoError(t, err)
	mr.FastForward(6 * time.Second)

	next, err := l.Lock(ctx, "receipt:r2")
	require.NoError(t, err, "un lock vencido no debe bloquear")
	next()
	release() // liberar un lock ajeno no falla
}
