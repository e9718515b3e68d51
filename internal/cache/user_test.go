package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partyplanner/backend/internal/model"
)

func testUser(email string) *model.User {
	return &model.User{ID: "id-" + email, Email: email, PasswordHash: "hash", Name: "name"}
}

func TestUserCache_PutGet(t *testing.T) {
	c := NewUserCache(10, time.Minute)

	_, ok := c.Get("user@example.com")
	assert.False(t, ok, "empty cache should miss")

	c.Put("user@example.com", testUser("user@example.com"))
	got, ok := c.Get("user@example.com")
	require.True(t, ok)
	assert.Equal(t, "id-user@example.com", got.ID)
}

func TestUserCache_KeysAreCaseSensitive(t *testing.T) {
	c := NewUserCache(10, time.Minute)
	c.Put("User@Example.com", testUser("User@Example.com"))

	_, ok := c.Get("user@example.com")
	assert.False(t, ok)
}

func TestUserCache_PutOverwrites(t *testing.T) {
	c := NewUserCache(10, time.Minute)
	c.Put("user@example.com", &model.User{ID: "old", Email: "user@example.com", PasswordHash: "h1"})
	c.Put("user@example.com", &model.User{ID: "new", Email: "user@example.com", PasswordHash: "h2"})

	got, ok := c.Get("user@example.com")
	require.True(t, ok)
	assert.Equal(t, "new", got.ID)
	assert.Equal(t, 1, c.Len())
}

func TestUserCache_StoresSnapshot(t *testing.T) {
	c := NewUserCache(10, time.Minute)
	image := "a.png"
	u := &model.User{ID: "1", Email: "user@example.com", PasswordHash: "h", Image: &image}
	c.Put(u.Email, u)

	u.PasswordHash = "mutated"
	image = "b.png"

	got, ok := c.Get(u.Email)
	require.True(t, ok)
	assert.Equal(t, "h", got.PasswordHash)
	assert.Equal(t, "a.png", *got.Image)

	got.Name = "changed by caller"
	again, _ := c.Get(u.Email)
	assert.NotEqual(t, "changed by caller", again.Name)
}

func TestUserCache_Expiry(t *testing.T) {
	ttl := 50 * time.Millisecond
	c := NewUserCache(10, ttl)
	c.Put("user@example.com", testUser("user@example.com"))

	_, ok := c.Get("user@example.com")
	require.True(t, ok, "fresh entry should hit")

	assert.Eventually(t, func() bool {
		_, ok := c.Get("user@example.com")
		return !ok
	}, time.Second, 5*time.Millisecond, "entry older than TTL should miss")
}

func TestUserCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewUserCache(100, time.Minute)
	for i := 0; i < 100; i++ {
		email := fmt.Sprintf("user%d@example.com", i)
		c.Put(email, testUser(email))
	}

	// Touch the oldest entry so user1 becomes the least recently used.
	_, ok := c.Get("user0@example.com")
	require.True(t, ok)

	c.Put("user100@example.com", testUser("user100@example.com"))

	_, ok = c.Get("user1@example.com")
	assert.False(t, ok, "least recently used entry should be evicted")
	_, ok = c.Get("user0@example.com")
	assert.True(t, ok)
	_, ok = c.Get("user100@example.com")
	assert.True(t, ok)
	assert.Equal(t, 100, c.Len())
}

func TestNewUserCache_Defaults(t *testing.T) {
	c := NewUserCache(0, 0)
	for i := 0; i < DefaultUserCacheSize+5; i++ {
		email := fmt.Sprintf("user%d@example.com", i)
		c.Put(email, testUser(email))
	}
	assert.Equal(t, DefaultUserCacheSize, c.Len())
}
