package trip

import (
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewModule builds the catalog, caching listings in Redis when a client is
// given.
func NewModule(api Backend, client *goredis.Client, ttl time.Duration, logger *zap.Logger) *Catalog {
	var cache Cache = NopCache{}
	if client != nil {
		cache = NewRedisCache(client, logger)
	}
	return NewCatalog(api, cache, ttl, logger)
}
