package cache

import (
	"context"
	"time"

	"github.com/krisalay/tiered-cache/keys"
)

/*
Memoize returns the cached result of tool for args, computing it with fn on a miss.

The key is derived from the tool name and the canonical form of args, so
argument maps built in a different order share one entry.

BEHAVIOR:
---------
1. Local or remote hit → returned without calling fn
2. Miss → fn runs once per key, however many goroutines ask at the same time
3. A successful result is stored for ttl
4. An error from fn is returned as is and nothing is cached
5. fn gets a context that keeps ctx's values but not its cancellation, so one
   caller giving up never fails the others waiting on the same key
6. A caller whose ctx ends stops waiting and gets ctx.Err(); fn keeps running
   for the rest
*/
func (c *TTLCache) Memoize(
	ctx context.Context,
	tool string,
	args any,
	ttl time.Duration,
	fn func(context.Context) (any, error),
) (any, error) {
	key := keys.ForTool(tool, args)

	if r := c.GetAsync(ctx, key); r.Hit {
		return r.Value, nil
	}

	/*
		singleflight ensures that:
		- If 100 goroutines miss the same key,
		  only ONE of them runs fn.
		- Others wait for its result.
	*/
	shared := context.WithoutCancel(ctx)
	ch := c.sf.DoChan(key, func() (any, error) {
		// a flight that just finished may have stored the value already
		if v, ok := c.peek(key); ok {
			return v, nil
		}

		v, err := fn(shared)
		if err != nil {
			return nil, err
		}
		c.Set(key, v, ttl)
		return v, nil
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
