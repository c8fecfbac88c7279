package cache

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type CacheKey string

// Cache keeps rendered listings per user. Owner entries hold what a user
// owns, grant entries what was shared with them; each side is invalidated
// on its own.
//
// Every invalidation bumps the user's generation. A reader takes the
// generation before loading from the database and passes it to Set, which
// drops the value when an invalidation happened in between.
type Cache interface {
	OwnerGeneration(ctx context.Context, userID uuid.UUID) uint64
	SetOwner(ctx context.Context, userID uuid.UUID, gen uint64, key CacheKey, value []byte)
	GetOwner(ctx context.Context, userID uuid.UUID, key CacheKey) ([]byte, bool)
	InvalidateOwner(ctx context.Context, userID uuid.UUID)
	GrantGeneration(ctx context.Context, grantee uuid.UUID) uint64
	SetGrant(ctx context.Context, grantee uuid.UUID, gen uint64, key CacheKey, value []byte)
	GetGrant(ctx context.Context, grantee uuid.UUID, key CacheKey) ([]byte, bool)
	InvalidateGrant(ctx context.Context, grantees []uuid.UUID)
}

type StructuredCache struct {
	mu sync.RWMutex

	ownerDocs map[uuid.UUID]map[CacheKey][]byte
	grantDocs map[uuid.UUID]map[CacheKey][]byte
	ownerGen  map[uuid.UUID]uint64
	grantGen  map[uuid.UUID]uint64
}

func NewStructuredCache() *StructuredCache {
	return &StructuredCache{
		ownerDocs: make(map[uuid.UUID]map[CacheKey][]byte),
		grantDocs: make(map[uuid.UUID]map[CacheKey][]byte),
		ownerGen:  make(map[uuid.UUID]uint64),
		grantGen:  make(map[uuid.UUID]uint64),
	}
}

func (c *StructuredCache) OwnerGeneration(_ context.Context, userID uuid.UUID) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ownerGen[userID]
}

func (c *StructuredCache) SetOwner(_ context.Context, userID uuid.UUID, gen uint64, key CacheKey, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ownerGen[userID] != gen {
		return
	}
	set(c.ownerDocs, userID, key, value)
}

func (c *StructuredCache) GetOwner(_ context.Context, userID uuid.UUID, key CacheKey) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return get(c.ownerDocs, userID, key)
}

func (c *StructuredCache) InvalidateOwner(_ context.Context, userID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ownerGen[userID]++
	delete(c.ownerDocs, userID)
}

func (c *StructuredCache) GrantGeneration(_ context.Context, grantee uuid.UUID) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.grantGen[grantee]
}

func (c *StructuredCache) SetGrant(_ context.Context, grantee uuid.UUID, gen uint64, key CacheKey, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.grantGen[grantee] != gen {
		return
	}
	set(c.grantDocs, grantee, key, value)
}

func (c *StructuredCache) GetGrant(_ context.Context, grantee uuid.UUID, key CacheKey) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return get(c.grantDocs, grantee, key)
}

func (c *StructuredCache) InvalidateGrant(_ context.Context, grantees []uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, grantee := range grantees {
		c.grantGen[grantee]++
		delete(c.grantDocs, grantee)
	}
}

func set(m map[uuid.UUID]map[CacheKey][]byte, id uuid.UUID, key CacheKey, value []byte) {
	if m[id] == nil {
		m[id] = make(map[CacheKey][]byte)
	}
	m[id][key] = value
}

func get(m map[uuid.UUID]map[CacheKey][]byte, id uuid.UUID, key CacheKey) ([]byte, bool) {
	entries, ok := m[id]
	if !ok {
		return nil, false
	}
	v, ok := entries[key]
	return v, ok
}
