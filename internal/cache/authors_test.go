package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/social-feed/internal/model"
	"github.com/d60-Lab/social-feed/internal/repository"
	"github.com/d60-Lab/social-feed/internal/testutil"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestAuthorCacheReadThrough(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "alice", false)
	testutil.CreateUser(t, db, "bob", true)
	users := repository.NewUserRepository(db)

	mr, rdb := newRedis(t)
	c := NewAuthorCache(rdb, time.Minute)
	ctx := context.Background()

	got, err := c.Users(ctx, users, []model.AccountID{"alice", "bob", "alice", "ghost"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.True(t, got["bob"].IsPrivate)
	assert.Equal(t, int64(1), c.DBLoads())
	assert.True(t, mr.Exists("user:alice"))
	assert.False(t, mr.Exists("user:ghost"))

	// 第二次全部命中
	got, err = c.Users(ctx, users, []model.AccountID{"alice", "bob"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, int64(1), c.DBLoads())

	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists("user:alice"))
}

func TestAuthorCacheInvalidate(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "alice", false)
	users := repository.NewUserRepository(db)

	_, rdb := newRedis(t)
	c := NewAuthorCache(rdb, time.Minute)
	ctx := context.Background()

	_, err := c.Users(ctx, users, []model.AccountID{"alice"})
	require.NoError(t, err)

	require.NoError(t, users.SetPrivacy(ctx, "alice", true))
	got, err := c.Users(ctx, users, []model.AccountID{"alice"})
	require.NoError(t, err)
	assert.False(t, got["alice"].IsPrivate, "stale until invalidated")

	require.NoError(t, c.Invalidate(ctx, "alice"))
	got, err = c.Users(ctx, users, []model.AccountID{"alice"})
	require.NoError(t, err)
	assert.True(t, got["alice"].IsPrivate)
	assert.Equal(t, int64(2), c.DBLoads())
}

// racingLoader 在回源读到旧数据之后、返回之前完成一次隐私变更与失效
type racingLoader struct {
	UserLoader
	onLoad func()
}

func (l racingLoader) GetByIDs(ctx context.Context, ids []model.AccountID) ([]*model.User, error) {
	users, err := l.UserLoader.GetByIDs(ctx, ids)
	if l.onLoad != nil {
		l.onLoad()
	}
	return users, err
}

func TestAuthorCacheInvalidateBeatsInflightFill(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "alice", false)
	users := repository.NewUserRepository(db)

	mr, rdb := newRedis(t)
	c := NewAuthorCache(rdb, time.Minute)
	ctx := context.Background()

	loader := racingLoader{UserLoader: users, onLoad: func() {
		require.NoError(t, users.SetPrivacy(ctx, "alice", true))
		require.NoError(t, c.Invalidate(ctx, "alice"))
	}}
	got, err := c.Users(ctx, loader, []model.AccountID{"alice"})
	require.NoError(t, err)
	assert.False(t, got["alice"].IsPrivate)

	// 旧数据没有写回
	val, err := mr.Get("user:alice")
	require.NoError(t, err)
	assert.Equal(t, tombstone, val)

	got, err = c.Users(ctx, users, []model.AccountID{"alice"})
	require.NoError(t, err)
	assert.True(t, got["alice"].IsPrivate)

	mr.FastForward(tombstoneTTL + time.Second)
	got, err = c.Users(ctx, users, []model.AccountID{"alice"})
	require.NoError(t, err)
	assert.True(t, got["alice"].IsPrivate)
	val, err = mr.Get("user:alice")
	require.NoError(t, err)
	assert.Contains(t, val, `"isPrivate":true`)
}

func TestAuthorCacheRedisDown(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "alice", false)
	users := repository.NewUserRepository(db)

	mr, rdb := newRedis(t)
	mr.Close()
	c := NewAuthorCache(rdb, time.Minute)

	got, err := c.Users(context.Background(), users, []model.AccountID{"alice"})
	require.NoError(t, err)
	assert.Equal(t, "alice", got["alice"].Username)

	noRedis := NewAuthorCache(nil, time.Minute)
	got, err = noRedis.Users(context.Background(), users, []model.AccountID{"alice"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.NoError(t, noRedis.Invalidate(context.Background(), "alice"))
}
