package cluster

import (
	"testing"

	"github.com/lguibr/bollywood"
	"github.com/stretchr/testify/assert"
)

func TestPidCache_SetGetRemove(t *testing.T) {
	cache := NewPidCache(10)
	identity := ClusterIdentity{Kind: "player", Identity: "u-1"}
	pid := bollywood.NewPID("local", "$1")

	_, ok := cache.Get(identity)
	assert.False(t, ok)

	cache.Set(identity, pid)
	got, ok := cache.Get(identity)
	assert.True(t, ok)
	assert.True(t, got.Equal(pid))

	cache.Remove(identity)
	_, ok = cache.Get(identity)
	assert.False(t, ok)
}

func TestPidCache_Purge(t *testing.T) {
	cache := NewPidCache(10)
	id1 := ClusterIdentity{Kind: "player", Identity: "u-1"}
	id2 := ClusterIdentity{Kind: "player", Identity: "u-2"}
	cache.Set(id1, bollywood.NewPID("local", "$1"))
	cache.Set(id2, bollywood.NewPID("local", "$2"))

	cache.Purge()

	_, ok1 := cache.Get(id1)
	_, ok2 := cache.Get(id2)
	assert.False(t, ok1)
	assert.False(t, ok2)
}

func TestPidCache_EvictsLeastRecentlyUsedBeyondSize(t *testing.T) {
	cache := NewPidCache(1)
	id1 := ClusterIdentity{Kind: "player", Identity: "u-1"}
	id2 := ClusterIdentity{Kind: "player", Identity: "u-2"}

	cache.Set(id1, bollywood.NewPID("local", "$1"))
	cache.Set(id2, bollywood.NewPID("local", "$2"))

	_, ok1 := cache.Get(id1)
	_, ok2 := cache.Get(id2)
	assert.False(t, ok1, "oldest entry should be evicted once capacity is exceeded")
	assert.True(t, ok2)
}

func TestNewPidCache_DefaultsSizeWhenNonPositive(t *testing.T) {
	cache := NewPidCache(0)
	assert.NotNil(t, cache.cache)
}
