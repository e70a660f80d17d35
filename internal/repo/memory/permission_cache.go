/**
 * 缓存层:用户有效权限(内存存储)
 * @author: sun977
 * @date: 2025.10.15
 * @description: 单实例部署使用；容量与有效期固定，过期条目由 LRU 自行清理
 * @func: Get, Set, Delete, Len
 */
package memory

import (
	"context"
	"time"

	"accesscore/internal/model"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// PermissionCacheStore 内存权限缓存
type PermissionCacheStore struct {
	lru *expirable.LRU[uint64, *model.EffectivePermissions]
}

// NewPermissionCacheStore size 为最大条目数，ttl 为条目有效期
func NewPermissionCacheStore(size int, ttl time.Duration) *PermissionCacheStore {
	return &PermissionCacheStore{
		lru: expirable.NewLRU[uint64, *model.EffectivePermissions](size, nil, ttl),
	}
}

// Get 读取快照
func (s *PermissionCacheStore) Get(_ context.Context, userID uint64) (*model.EffectivePermissions, bool, error) {
	snap, ok := s.lru.Get(userID)
	return snap, ok, nil
}

// Set 写入快照
func (s *PermissionCacheStore) Set(_ context.Context, snap *model.EffectivePermissions) error {
	s.lru.Add(snap.UserID, snap)
	return nil
}

// Delete 删除快照
func (s *PermissionCacheStore) Delete(_ context.Context, userID uint64) error {
	s.lru.Remove(userID)
	return nil
}

// Len 当前条目数
func (s *PermissionCacheStore) Len() int {
	return s.lru.Len()
}
