package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache(t *testing.T) {
	c := NewCache(time.Minute, time.Minute)
	t.Cleanup(c.Flush)

	c.Set(CacheKeyTagByName("go"), 7)

	v, ok := c.Get(CacheKeyTagByName("go"))
	assert.True(t, ok)
	assert.Equal(t, 7, v)

	c.Set(CacheKeyTags(), []string{"go"}, time.Nanosecond)
	time.Sleep(5 * time.Millisecond)
	_, ok = c.Get(CacheKeyTags())
	assert.False(t, ok, "expected entry with custom expiration to expire")

	c.Flush()
	_, ok = c.Get(CacheKeyTagByName("go"))
	assert.False(t, ok, "expected cache to be flushed")
}
