package gallery

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Oxyrus/gallery/internal/storage"
)

var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gallery_cache_hits_total",
		Help: "Album snapshot lookups served from the cache.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gallery_cache_misses_total",
		Help: "Album snapshot lookups that went to the database.",
	})
)

// entry is what the cache keeps per album: its images, the assets they wrap
// and the meta image row, if any. Album settings are not cached; callers
// always pass the current row. override is filled in on every read, after
// checking that the meta image file is still on disk.
type entry struct {
	images   []storage.Image
	assets   map[int64]storage.Asset
	metaFor  int64
	meta     *storage.Asset
	override *storage.Asset
}

type snapshotCache struct {
	lru *expirable.LRU[int64, entry]
}

func newSnapshotCache(size int, ttl time.Duration) *snapshotCache {
	return &snapshotCache{lru: expirable.NewLRU[int64, entry](size, nil, ttl)}
}

func (c *snapshotCache) get(albumID int64) (entry, bool) {
	e, ok := c.lru.Get(albumID)
	if ok {
		cacheHitsTotal.Inc()
		return e, true
	}
	cacheMissesTotal.Inc()
	return entry{}, false
}

func (c *snapshotCache) set(albumID int64, e entry) {
	c.lru.Add(albumID, e)
}

func (c *snapshotCache) remove(albumID int64) {
	c.lru.Remove(albumID)
}
