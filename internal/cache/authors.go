// Package cache 作者信息的 Redis 读穿缓存。
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/social-feed/internal/model"
	"github.com/d60-Lab/social-feed/pkg/logger"
	"github.com/d60-Lab/social-feed/pkg/metrics"
)

// UserLoader 批量回源
type UserLoader interface {
	GetByIDs(ctx context.Context, ids []model.AccountID) ([]*model.User, error)
}

// tombstone 失效标记：存活期间读请求一律回源且不回填，
// 避免失效前读到的旧数据在失效之后写回缓存
const (
	tombstone    = "-"
	tombstoneTTL = 30 * time.Second
)

// AuthorCache 按 user:{id} 缓存 UserView。
// 只用于展示；可见性判断始终走数据库。
type AuthorCache struct {
	rdb *redis.Client
	ttl time.Duration

	dbLoads atomic.Int64
}

// NewAuthorCache rdb 为 nil 时每次都回源
func NewAuthorCache(rdb *redis.Client, ttl time.Duration) *AuthorCache {
	return &AuthorCache{rdb: rdb, ttl: ttl}
}

func key(id model.AccountID) string { return fmt.Sprintf("user:%s", id) }

// Users 返回 ids 对应的作者，已删除的账号不在结果中
func (c *AuthorCache) Users(ctx context.Context, loader UserLoader, ids []model.AccountID) (map[model.AccountID]model.UserView, error) {
	out := make(map[model.AccountID]model.UserView, len(ids))
	ids = dedup(ids)
	if len(ids) == 0 {
		return out, nil
	}

	if c.rdb != nil {
		keys := make([]string, len(ids))
		for i, id := range ids {
			keys[i] = key(id)
		}
		vals, err := c.rdb.MGet(ctx, keys...).Result()
		if err != nil {
			// 缓存不可用时直接回源
			logger.Warn("author cache mget failed", zap.Error(err))
		}
		for i, v := range vals {
			str, ok := v.(string)
			if !ok || str == tombstone {
				continue
			}
			var view model.UserView
			if json.Unmarshal([]byte(str), &view) == nil {
				out[ids[i]] = view
			}
		}
	}

	missing := make([]model.AccountID, 0, len(ids))
	for _, id := range ids {
		if _, ok := out[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return out, nil
	}

	c.dbLoads.Add(1)
	metrics.AuthorCacheLoads.Inc()
	users, err := loader.GetByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	var pipe redis.Pipeliner
	if c.rdb != nil {
		pipe = c.rdb.Pipeline()
	}
	for _, u := range users {
		view := u.View()
		out[u.ID] = view
		if pipe == nil {
			continue
		}
		if payload, err := json.Marshal(view); err == nil {
			pipe.SetNX(ctx, key(u.ID), payload, c.ttl)
		}
	}
	if pipe != nil {
		if _, err := pipe.Exec(ctx); err != nil {
			logger.Warn("author cache fill failed", zap.Error(err))
		}
	}
	return out, nil
}

// Invalidate 账号资料或隐私设置提交后调用，写入 tombstone 覆盖旧值
func (c *AuthorCache) Invalidate(ctx context.Context, ids ...model.AccountID) error {
	if c.rdb == nil || len(ids) == 0 {
		return nil
	}
	pipe := c.rdb.Pipeline()
	for _, id := range ids {
		pipe.Set(ctx, key(id), tombstone, tombstoneTTL)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// DBLoads 回源次数
func (c *AuthorCache) DBLoads() int64 { return c.dbLoads.Load() }

func dedup(ids []model.AccountID) []model.AccountID {
	seen := make(map[model.AccountID]struct{}, len(ids))
	out := make([]model.AccountID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
