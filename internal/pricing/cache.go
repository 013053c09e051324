package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/ElisioMassango/chelevi-sub000/pkg/logger"
	"github.com/ElisioMassango/chelevi-sub000/pkg/redis"
	"github.com/ElisioMassango/chelevi-sub000/pkg/types"
)

// Cache keeps resolved prices in redis for a short TTL so rendering the same
// product grid twice does not hit the commerce API twice. A nil client makes
// every operation a no-op; cache failures degrade to direct resolution.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logg   *logger.Logger
}

// NewCache builds the price cache. client may be nil.
func NewCache(client *redis.Client, ttl time.Duration, logg *logger.Logger) *Cache {
	return &Cache{client: client, ttl: ttl, logg: logg}
}

// Get returns the cached price for the product within the given scope.
func (c *Cache) Get(ctx context.Context, scope, productID string) (types.VariantPriceInfo, bool) {
	var info types.VariantPriceInfo
	if c == nil || c.client == nil {
		return info, false
	}
	raw, err := c.client.Get(ctx, c.client.PriceKey(scope, productID))
	if err != nil {
		if !errors.Is(err, redis.Nil) && c.logg != nil {
			c.logg.Warn(ctx, "price cache read failed")
		}
		return info, false
	}
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return info, false
	}
	return info, true
}

// Put stores the resolved price.
func (c *Cache) Put(ctx context.Context, scope, productID string, info types.VariantPriceInfo) {
	if c == nil || c.client == nil {
		return
	}
	encoded, err := json.Marshal(info)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.client.PriceKey(scope, productID), string(encoded), c.ttl); err != nil && c.logg != nil {
		c.logg.Warn(ctx, "price cache write failed")
	}
}
