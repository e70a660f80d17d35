package memory

import (
	"context"
	"testing"
	"time"

	"accesscore/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissionCacheStore(t *testing.T) {
	ctx := context.Background()
	s := NewPermissionCacheStore(2, time.Minute)

	_, ok, err := s.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, &model.EffectivePermissions{UserID: 1, RoleIDs: []uint64{3}}))
	snap, ok, err := s.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []uint64{3}, snap.RoleIDs)

	require.NoError(t, s.Delete(ctx, 1))
	_, ok, _ = s.Get(ctx, 1)
	assert.False(t, ok)
}

func TestPermissionCacheStoreEvictsOldest(t *testing.T) {
	ctx := context.Background()
	s := NewPermissionCacheStore(2, time.Minute)
	for id := uint64(1); id <= 3; id++ {
		require.NoError(t, s.Set(ctx, &model.EffectivePermissions{UserID: id}))
	}
	assert.Equal(t, 2, s.Len())
	_, ok, _ := s.Get(ctx, 1)
	assert.False(t, ok)
}

func TestPermissionCacheStoreExpires(t *testing.T) {
	ctx := context.Background()
	s := NewPermissionCacheStore(10, 20*time.Millisecond)
	require.NoError(t, s.Set(ctx, &model.EffectivePermissions{UserID: 7}))
	assert.Eventually(t, func() bool {
		_, ok, _ := s.Get(ctx, 7)
		return !ok
	}, time.Second, 10*time.Millisecond)
}
