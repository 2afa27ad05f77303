package handler

import (
	"sync"
	"time"

	"github.com/attendsure/attendance-authority/internal/attendance/service"
)

// reportCacheTTL bounds how stale a get-payroll-report answer can be:
// a read-mostly endpoint hit repeatedly for the same month during a
// review session.
const reportCacheTTL = 5 * time.Minute

type reportCacheEntry struct {
	report   []*service.PayrollReportEntry
	storedAt time.Time
}

// reportCache is a small in-process TTL cache for get-payroll-report,
// keyed by month. It is invalidated wholesale on any payroll or
// attendance mutation rather than tracking per-month dependencies,
// since payroll generation/unlock/delete are already infrequent,
// admin-gated actions.
type reportCache struct {
	mu      sync.Mutex
	entries map[string]reportCacheEntry
}

func newReportCache() *reportCache {
	return &reportCache{entries: make(map[string]reportCacheEntry)}
}

func (c *reportCache) get(month string) ([]*service.PayrollReportEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[month]
	if !ok || time.Since(entry.storedAt) > reportCacheTTL {
		return nil, false
	}
	return entry.report, true
}

func (c *reportCache) set(month string, report []*service.PayrollReportEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[month] = reportCacheEntry{report: report, storedAt: time.Now()}
}

func (c *reportCache) invalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]reportCacheEntry)
}
