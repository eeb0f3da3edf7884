package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEventStore(t *testing.T) (*EventStore, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewEventStore(client), s
}

func TestEventStore_MarkProcessed_FirstDelivery(t *testing.T) {
	store, s := newTestEventStore(t)

	ok, err := store.MarkProcessed(context.Background(), "stripe", "evt_1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok, "first delivery should return true")
	assert.True(t, s.Exists("webhook:event:stripe:evt_1"))
	assert.Equal(t, time.Hour, s.TTL("webhook:event:stripe:evt_1"))
}

func TestEventStore_MarkProcessed_Redelivery(t *testing.T) {
	store, _ := newTestEventStore(t)
	ctx := context.Background()

	ok, err := store.MarkProcessed(ctx, "stripe", "evt_2", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.MarkProcessed(ctx, "stripe", "evt_2", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok, "redelivered event should return false")
}

func TestEventStore_MarkProcessed_ProvidersAreSeparate(t *testing.T) {
	store, _ := newTestEventStore(t)
	ctx := context.Background()

	ok1, err := store.MarkProcessed(ctx, "stripe", "evt_3", time.Hour)
	require.NoError(t, err)
	ok2, err := store.MarkProcessed(ctx, "culqi", "evt_3", time.Hour)
	require.NoError(t, err)

	assert.True(t, ok1)
	assert.True(t, ok2)
}

func TestEventStore_MarkProcessed_Expired(t *testing.T) {
	store, s := newTestEventStore(t)
	ctx := context.Background()

	ok, err := store.MarkProcessed(ctx, "stripe", "evt_4", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	s.FastForward(2 * time.Second)

	ok, err = store.MarkProcessed(ctx, "stripe", "evt_4", time.Second)
	require.NoError(t, err)
	assert.True(t, ok, "expired event id should be accepted again")
}
