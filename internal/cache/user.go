// Package cache holds the read-through user credential cache used by the
// login flow.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/partyplanner/backend/internal/model"
)

const (
	DefaultUserCacheSize = 100
	DefaultUserCacheTTL  = 5 * time.Minute
)

// UserCache maps email to the last fetched credential record. Entries expire
// a fixed TTL after insertion and the least recently used entry is evicted
// once the size bound is exceeded. There is no explicit invalidation, so a
// credential change may be invisible for up to one TTL.
type UserCache struct {
	entries *expirable.LRU[string, model.User]
}

func NewUserCache(size int, ttl time.Duration) *UserCache {
	if size <= 0 {
		size = DefaultUserCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultUserCacheTTL
	}
	return &UserCache{
		entries: expirable.NewLRU[string, model.User](size, nil, ttl),
	}
}

// Get returns a copy of the cached record. Expired entries are reported as a
// miss even if they have not been purged yet.
func (c *UserCache) Get(email string) (*model.User, bool) {
	user, ok := c.entries.Get(email)
	if !ok {
		return nil, false
	}
	return &user, true
}

// Put stores a snapshot of user under email, replacing any previous entry and
// restarting its TTL.
func (c *UserCache) Put(email string, user *model.User) {
	if user == nil {
		return
	}
	snapshot := *user
	if user.Image != nil {
		image := *user.Image
		snapshot.Image = &image
	}
	c.entries.Add(email, snapshot)
}

func (c *UserCache) Len() int {
	return c.entries.Len()
}
