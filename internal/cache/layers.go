// Package cache serves the static boundary layer files with a redis
// read-through cache. Redis is optional; without it every read hits disk.
package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrUnknownLayer covers both a bad layer name and a missing file.
var ErrUnknownLayer = errors.New("unknown geo layer")

var layerNameRe = regexp.MustCompile(`^[a-z0-9_-]+$`)

type LayerCache struct {
	rdb  *redis.Client // nil disables redis
	dir  string
	ttl  time.Duration
	logr *zap.Logger
}

func NewLayerCache(rdb *redis.Client, dir string, ttl time.Duration, logr *zap.Logger) *LayerCache {
	if logr == nil {
		logr = zap.NewNop()
	}
	return &LayerCache{rdb: rdb, dir: dir, ttl: ttl, logr: logr}
}

// Get returns the raw GeoJSON bytes of the named layer file.
func (c *LayerCache) Get(ctx context.Context, name string) ([]byte, error) {
	if !layerNameRe.MatchString(name) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLayer, name)
	}

	key := "geo:layer:" + name
	if c.rdb != nil {
		data, err := c.rdb.Get(ctx, key).Bytes()
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, redis.Nil) {
			c.logr.Warn("redis read failed, falling back to disk",
				zap.String("layer", name), zap.Error(err))
		}
	}

	data, err := os.ReadFile(filepath.Join(c.dir, name+".geojson"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownLayer, name)
		}
		return nil, err
	}

	if c.rdb != nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logr.Warn("redis write failed", zap.String("layer", name), zap.Error(err))
		}
	}
	return data, nil
}
