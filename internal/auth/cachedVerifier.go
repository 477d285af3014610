package auth

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// CachedVerifier remembers successful verifications until the token expires
// or ttl passes, whichever comes first. Failures are never cached.
type CachedVerifier struct {
	next  Verifier
	cache *cache.Cache
	ttl   time.Duration
	now   func() time.Time
}

func NewCachedVerifier(next Verifier, ttl time.Duration, sweep time.Duration) *CachedVerifier {
	return &CachedVerifier{
		next:  next,
		cache: cache.New(ttl, sweep),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (c *CachedVerifier) Verify(ctx context.Context, rawToken string) (Identity, error) {
	if x, found := c.cache.Get(rawToken); found {
		return x.(Identity), nil
	}

	identity, err := c.next.Verify(ctx, rawToken)
	if err != nil {
		return Identity{}, err
	}

	ttl := c.ttl
	if !identity.ExpiresAt.IsZero() {
		if left := identity.ExpiresAt.Sub(c.now()); left < ttl {
			ttl = left
		}
	}
	if ttl > 0 {
		c.cache.Set(rawToken, identity, ttl)
	}
	return identity, nil
}
