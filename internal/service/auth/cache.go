/**
 * 服务层:用户有效权限缓存
 * @author: sun977
 * @date: 2025.10.15
 * @description: 按用户缓存有效权限快照。未命中时经 singleflight 合并并发解析；解析失败不缓存、不回退旧值。
 *               失效只能按用户逐个进行，没有全量清空。
 * @func: Get, Invalidate
 */
package auth

import (
	"context"
	"strconv"
	"sync/atomic"

	"accesscore/internal/model"
	"accesscore/internal/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// CacheStore 快照存储，实现需支持并发读写
type CacheStore interface {
	Get(ctx context.Context, userID uint64) (*model.EffectivePermissions, bool, error)
	Set(ctx context.Context, snap *model.EffectivePermissions) error
	Delete(ctx context.Context, userID uint64) error
}

// CacheMetrics 缓存指标
type CacheMetrics struct {
	Hits          prometheus.Counter
	Misses        prometheus.Counter
	Invalidations prometheus.Counter
	Errors        prometheus.Counter
}

// NewCacheMetrics reg 为 nil 时只创建不注册
func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	m := &CacheMetrics{
		Hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "accesscore", Subsystem: "permission_cache", Name: "hits_total",
			Help: "Permission snapshot cache hits.",
		}),
		Misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "accesscore", Subsystem: "permission_cache", Name: "misses_total",
			Help: "Permission snapshot cache misses.",
		}),
		Invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "accesscore", Subsystem: "permission_cache", Name: "invalidations_total",
			Help: "Per-user permission snapshot invalidations.",
		}),
		Errors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "accesscore", Subsystem: "permission_cache", Name: "errors_total",
			Help: "Resolver or store failures seen by the permission cache.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Hits, m.Misses, m.Invalidations, m.Errors)
	}
	return m
}

// PermissionCache 有效权限缓存
type PermissionCache struct {
	resolver *Resolver
	store    CacheStore
	metrics  *CacheMetrics
	group    singleflight.Group
	// generation 每次失效递增；解析期间发生过失效的结果不写回
	generation atomic.Uint64
}

// NewPermissionCache metrics 为 nil 时使用未注册的指标
func NewPermissionCache(resolver *Resolver, store CacheStore, metrics *CacheMetrics) *PermissionCache {
	if metrics == nil {
		metrics = NewCacheMetrics(nil)
	}
	return &PermissionCache{resolver: resolver, store: store, metrics: metrics}
}

// Resolver 底层解析器
func (c *PermissionCache) Resolver() *Resolver {
	return c.resolver
}

// Get 读取快照，未命中时解析并写回
func (c *PermissionCache) Get(ctx context.Context, userID uint64) (*model.EffectivePermissions, error) {
	snap, ok, err := c.store.Get(ctx, userID)
	if err != nil {
		c.metrics.Errors.Inc()
		logger.WithFields(logrus.Fields{
			"type":    logger.ErrorLog,
			"user_id": userID,
			"error":   err.Error(),
		}).Warn("permission cache read failed, resolving fresh")
	} else if ok {
		c.metrics.Hits.Inc()
		return snap, nil
	}
	c.metrics.Misses.Inc()

	key := strconv.FormatUint(userID, 10)
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		gen := c.generation.Load()
		fresh, err := c.resolver.Resolve(ctx, userID)
		if err != nil {
			return nil, err
		}
		if c.generation.Load() == gen {
			if err := c.store.Set(ctx, fresh); err != nil {
				c.metrics.Errors.Inc()
				logger.WithFields(logrus.Fields{
					"type":    logger.ErrorLog,
					"user_id": userID,
					"error":   err.Error(),
				}).Warn("permission cache write failed")
			}
		}
		return fresh, nil
	})
	if err != nil {
		c.metrics.Errors.Inc()
		return nil, err
	}
	return v.(*model.EffectivePermissions), nil
}

// Invalidate 逐个删除用户快照；删除失败的用户会在错误中体现
func (c *PermissionCache) Invalidate(ctx context.Context, userIDs ...uint64) error {
	if len(userIDs) == 0 {
		return nil
	}
	c.generation.Add(1)
	var firstErr error
	for _, id := range userIDs {
		c.group.Forget(strconv.FormatUint(id, 10))
		if err := c.store.Delete(ctx, id); err != nil {
			c.metrics.Errors.Inc()
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		c.metrics.Invalidations.Inc()
	}
	return firstErr
}
