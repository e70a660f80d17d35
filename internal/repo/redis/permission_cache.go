/**
 * 缓存层:用户有效权限(Redis存储)
 * @author: sun977
 * @date: 2025.10.15
 * @description: 多实例部署使用，快照以 JSON 存储，键为 {prefix}{userID}
 * @func: Get, Set, Delete
 */
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"accesscore/internal/model"

	"github.com/go-redis/redis/v8"
)

// PermissionCacheStore Redis权限缓存
type PermissionCacheStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewPermissionCacheStore 创建Redis权限缓存
func NewPermissionCacheStore(client *redis.Client, prefix string, ttl time.Duration) *PermissionCacheStore {
	return &PermissionCacheStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *PermissionCacheStore) key(userID uint64) string {
	return s.prefix + strconv.FormatUint(userID, 10)
}

// Get 读取快照，未命中返回 ok=false
func (s *PermissionCacheStore) Get(ctx context.Context, userID uint64) (*model.EffectivePermissions, bool, error) {
	data, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get permission cache: %w", err)
	}

	var snap model.EffectivePermissions
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal permission cache: %w", err)
	}
	return &snap, true, nil
}

// Set 写入快照
func (s *PermissionCacheStore) Set(ctx context.Context, snap *model.EffectivePermissions) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal permission cache: %w", err)
	}
	if err := s.client.Set(ctx, s.key(snap.UserID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store permission cache: %w", err)
	}
	return nil
}

// Delete 删除快照
func (s *PermissionCacheStore) Delete(ctx context.Context, userID uint64) error {
	if err := s.client.Del(ctx, s.key(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete permission cache: %w", err)
	}
	return nil
}
