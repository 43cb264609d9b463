package application

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// principalCache remembers recently validated session tokens so that every
// request does not hit the session and user tables. Entries live for at most
// ttl and are dropped explicitly on logout.
type principalCache struct {
	lru *expirable.LRU[string, cachedPrincipal]
}

type cachedPrincipal struct {
	principal Principal
	expiresAt time.Time
}

func newPrincipalCache(size int, ttl time.Duration) *principalCache {
	if size <= 0 || ttl <= 0 {
		return nil
	}
	return &principalCache{lru: expirable.NewLRU[string, cachedPrincipal](size, nil, ttl)}
}

// get returns the cached principal unless the session itself expired meanwhile.
func (c *principalCache) get(token string, now time.Time) (Principal, bool) {
	if c == nil {
		return Principal{}, false
	}
	entry, ok := c.lru.Get(token)
	if !ok {
		return Principal{}, false
	}
	if !entry.expiresAt.After(now) {
		c.lru.Remove(token)
		return Principal{}, false
	}
	return entry.principal, true
}

func (c *principalCache) put(token string, p Principal, sessionExpiry time.Time) {
	if c == nil {
		return
	}
	c.lru.Add(token, cachedPrincipal{principal: p, expiresAt: sessionExpiry})
}

func (c *principalCache) remove(token string) {
	if c == nil {
		return
	}
	c.lru.Remove(token)
}
