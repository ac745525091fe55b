package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/donorline/pkg/adapters/redis"
	"github.com/aretw0/donorline/pkg/domain"
	"github.com/aretw0/donorline/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	return mr, backend.NewClient(&backend.Options{Addr: mr.Addr()})
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunSessionStoreContract(t, redis.NewFromClient(client))
}

func TestRedisJobIndex_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunJobIndexContract(t, redis.NewFromClient(client))
}

func TestRedisStore_KeysAndTTL(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client)
	ctx := context.Background()

	s := domain.NewSession(time.Now())
	s.Step = domain.StepTaxID
	require.NoError(t, store.Save(ctx, "+12125551234", s, 0))
	require.NoError(t, store.SetJob(ctx, "+12125551234", "msg_1", 10*time.Minute))

	assert.True(t, mr.Exists("session:+12125551234"))
	assert.True(t, mr.Exists("qjob:+12125551234"))
	assert.Equal(t, 24*time.Hour, mr.TTL("session:+12125551234"))
	assert.Equal(t, 10*time.Minute, mr.TTL("qjob:+12125551234"))

	raw, err := mr.Get("session:+12125551234")
	require.NoError(t, err)
	assert.Contains(t, raw, `"step":"tax_id"`, "steps are stored by name")

	mr.FastForward(25 * time.Hour)
	_, err = store.Load(ctx, "+12125551234")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestRedisStore_Check(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client)
	assert.NoError(t, store.Check(context.Background()))

	mr.Close()
	assert.Error(t, store.Check(context.Background()))
}

func TestRedisStore_NewFromURL(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := redis.New("redis://" + mr.Addr() + "/0")
	require.NoError(t, err)
	defer store.Close()
	assert.NoError(t, store.Check(context.Background()))

	_, err = redis.New("://bad")
	assert.Error(t, err)
}
