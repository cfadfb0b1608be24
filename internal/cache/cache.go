package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

//go:generate mockgen -source internal/cache/cache.go -destination=internal/cache/cache_mock_test.go -package=cache

type repo interface {
	ListSubscriberIDs(ctx context.Context) ([]int64, error)
}

// Cache remembers recently seen subscriber ids so repeated /start commands
// skip the store round trip. It is only a hint: a miss falls through to the
// store.
type Cache struct {
	size int
	lru  *lru.Cache[int64, struct{}]
}

func New(size int) (*Cache, error) {
	c, err := lru.New[int64, struct{}](size)
	if err != nil {
		return nil, err
	}
	return &Cache{
		size: size,
		lru:  c,
	}, nil
}

// Warm loads up to size known subscribers. On error the cache is left as is.
func (c *Cache) Warm(ctx context.Context, repo repo) (int, error) {
	ids, err := repo.ListSubscriberIDs(ctx)
	if err != nil {
		return 0, err
	}
	if len(ids) > c.size {
		ids = ids[:c.size]
	}
	for _, id := range ids {
		c.Add(id)
	}
	return len(ids), nil
}

func (c *Cache) Has(id int64) bool {
	return c.lru.Contains(id)
}

func (c *Cache) Add(id int64) {
	c.lru.Add(id, struct{}{})
}

func (c *Cache) Len() int { return c.lru.Len() }
