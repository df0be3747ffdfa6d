package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/dmitrijs2005/clipher/internal/workerpool"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// decryptCache memoizes RSA password decryption so that a login followed
// by its TFA check, or a retried request, decrypts once. Concurrent
// decryptions of the same ciphertext share one pool job. Cached slices are
// never mutated; every reader gets its own copy.
type decryptCache struct {
	crypto Crypto
	pool   *workerpool.Pool
	lru    *expirable.LRU[string, []byte]
	group  singleflight.Group
}

func newDecryptCache(crypto Crypto, pool *workerpool.Pool, size int, ttl time.Duration) *decryptCache {
	c := &decryptCache{crypto: crypto, pool: pool}
	if size > 0 && ttl > 0 {
		c.lru = expirable.NewLRU[string, []byte](size, nil, ttl)
	}
	return c
}

func cacheKey(cipherHex, privatePEM string) string {
	sum := sha256.Sum256([]byte(privatePEM))
	return hex.EncodeToString(sum[:8]) + ":" + cipherHex
}

// Decrypt returns a fresh copy of the plaintext; the caller owns and
// should wipe it.
func (c *decryptCache) Decrypt(ctx context.Context, cipherHex, privatePEM string) ([]byte, error) {
	key := cacheKey(cipherHex, privatePEM)

	if c.lru != nil {
		if v, ok := c.lru.Get(key); ok {
			return bytes.Clone(v), nil
		}
	}

	// The shared job must not die with whichever caller started it.
	jobCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		plain, err := workerpool.Do(jobCtx, c.pool, func() ([]byte, error) {
			return c.crypto.AsymmetricDecrypt(cipherHex, privatePEM)
		})
		if err != nil {
			return nil, err
		}
		if c.lru != nil {
			c.lru.Add(key, bytes.Clone(plain))
		}
		return plain, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return bytes.Clone(res.Val.([]byte)), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Evict drops the memoized plaintext for the pair.
func (c *decryptCache) Evict(cipherHex, privatePEM string) {
	if c.lru != nil {
		c.lru.Remove(cacheKey(cipherHex, privatePEM))
	}
}

func (c *decryptCache) Len() int {
	if c.lru == nil {
		return 0
	}
	return c.lru.Len()
}
