package idempotency

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilStoreIsPassThrough(t *testing.T) {
	var store *Store
	ctx := context.Background()

	assert.False(t, store.Enabled())
	claim, err := store.Begin(ctx, 1, "abc")
	require.NoError(t, err)
	assert.Equal(t, StateAcquired, claim.State)
	assert.NoError(t, store.Complete(ctx, claim, 42, time.Hour))
	assert.NoError(t, store.Release(ctx, claim))
}

func TestNewStoreWithoutClient(t *testing.T) {
	assert.Nil(t, NewStore(nil))
}

func TestValidateKey(t *testing.T) {
	key, err := ValidateKey("  order-123  ")
	require.NoError(t, err)
	assert.Equal(t, "order-123", key)

	_, err = ValidateKey("   ")
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = ValidateKey(strings.Repeat("k", maxKeyLength+1))
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestParseValue(t *testing.T) {
	claim := parseValue("done:1790000000000000001")
	assert.Equal(t, StateCompleted, claim.State)
	assert.Equal(t, snowflake.ID(1790000000000000001), claim.InvoiceID)

	assert.Equal(t, StateInFlight, parseValue("pending:abc").State)
	assert.Equal(t, StateInFlight, parseValue("done:not-a-number").State)
	assert.Equal(t, StateInFlight, parseValue("").State)
}

// GSTBOOK_TEST_REDIS_ADDR points at a disposable redis, for example localhost:6379.
const redisAddrEnv = "GSTBOOK_TEST_REDIS_ADDR"

func newRedisStore(t *testing.T) *Store {
	t.Helper()
	addr := os.Getenv(redisAddrEnv)
	if addr == "" {
		t.Skipf("%s not set", redisAddrEnv)
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())
	return NewStore(client)
}

func TestBeginCompleteReplays(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()
	key := uuid.NewString()
	t.Cleanup(func() { store.client.Del(ctx, fmt.Sprintf(keyInvoiceCreate, "7", key)) })

	claim, err := store.Begin(ctx, 7, key)
	require.NoError(t, err)
	require.Equal(t, StateAcquired, claim.State)

	second, err := store.Begin(ctx, 7, key)
	require.NoError(t, err)
	assert.Equal(t, StateInFlight, second.State)

	// Another business may reuse the same key.
	other, err := store.Begin(ctx, 8, key)
	require.NoError(t, err)
	assert.Equal(t, StateAcquired, other.State)
	require.NoError(t, store.Release(ctx, other))

	require.NoError(t, store.Complete(ctx, claim, 1790000000000000001, time.Hour))

	replay, err := store.Begin(ctx, 7, key)
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, replay.State)
	assert.Equal(t, snowflake.ID(1790000000000000001), replay.InvoiceID)

	ttl, err := store.client.PTTL(ctx, claim.key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Minute)
}

func TestReleaseFreesKey(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()
	key := uuid.NewString()

	claim, err := store.Begin(ctx, 7, key)
	require.NoError(t, err)
	require.Equal(t, StateAcquired, claim.State)
	require.NoError(t, store.Release(ctx, claim))

	retry, err := store.Begin(ctx, 7, key)
	require.NoError(t, err)
	assert.Equal(t, StateAcquired, retry.State)
	require.NoError(t, store.Release(ctx, retry))

	exists, err := store.client.Exists(ctx, claim.key).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}

func TestStaleClaimCannotOverwrite(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()
	key := uuid.NewString()

	stale, err := store.Begin(ctx, 7, key)
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, stale))

	current, err := store.Begin(ctx, 7, key)
	require.NoError(t, err)
	require.Equal(t, StateAcquired, current.State)
	t.Cleanup(func() { store.client.Del(ctx, current.key) })

	// The stale token no longer matches, so neither script touches the key.
	require.NoError(t, store.Complete(ctx, stale, 1790000000000000009, time.Hour))
	require.NoError(t, store.Release(ctx, stale))

	value, err := store.client.Get(ctx, current.key).Result()
	require.NoError(t, err)
	assert.Equal(t, current.token, value)

	_, err = store.Begin(ctx, 7, "   ")
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.Error(t, store.Complete(ctx, current, 1, 0))
}
