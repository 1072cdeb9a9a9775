package http

import (
	"strconv"
	"time"

	"financas/internal/cache"
	"financas/internal/chart"
	"financas/internal/core"
)

const (
	chartCacheSize = 16
	chartCacheTTL  = 10 * time.Minute
)

// chartCache memoizes shaped charts per view, day and ledger revision, so
// any in-memory change misses the cache even when it failed to persist.
type chartCache struct {
	lru *cache.LRUCache[chart.Result]
}

func newChartCache(now func() time.Time) *chartCache {
	return &chartCache{lru: cache.NewLRUCache[chart.Result](chartCacheSize, chartCacheTTL).WithClock(now)}
}

// Windows are relative to today, so the day is part of the key.
func chartKey(m chart.Mode, now time.Time, rev uint64) string {
	return string(m) + "|" + core.DateOf(now).String() + "|" + strconv.FormatUint(rev, 10)
}

func (c *chartCache) get(m chart.Mode, now time.Time, rev uint64) (chart.Result, bool) {
	return c.lru.Get(chartKey(m, now, rev))
}

func (c *chartCache) set(m chart.Mode, now time.Time, rev uint64, r chart.Result) {
	c.lru.Set(chartKey(m, now, rev), r)
}
