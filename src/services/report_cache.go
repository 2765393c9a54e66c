package services

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	ckSummaryCurrent   = "inst_%s|summary|current"
	ckSummaryAt        = "inst_%s|summary|at|%s"
	ckTransferSummary  = "inst_%s|transfers|%s"
	ckInstitutionScope = "inst_%s|"
)

// ReportCache holds computed reports per institution. A nil *ReportCache is
// valid and caches nothing.
//
// Every institution carries a generation that InvalidateInstitution bumps.
// A report is stored only if the generation read before computing it is
// still current, so a report built from reads that raced a write is dropped.
type ReportCache struct {
	c *cache.Cache

	mu          sync.Mutex
	generations map[string]uint64
}

func NewReportCache(ttl, cleanup time.Duration) *ReportCache {
	return &ReportCache{
		c:           cache.New(ttl, cleanup),
		generations: make(map[string]uint64),
	}
}

func (rc *ReportCache) get(key string) (any, bool) {
	if rc == nil {
		return nil, false
	}
	return rc.c.Get(key)
}

// generation must be read before the reads a report is built from.
func (rc *ReportCache) generation(institutionID string) uint64 {
	if rc == nil {
		return 0
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.generations[institutionID]
}

func (rc *ReportCache) set(institutionID string, gen uint64, key string, v any) {
	if rc == nil {
		return
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.generations[institutionID] != gen {
		return
	}
	rc.c.SetDefault(key, v)
}

// InvalidateInstitution drops every cached report of the institution and
// discards reports still being computed from earlier reads.
func (rc *ReportCache) InvalidateInstitution(institutionID string) {
	if rc == nil {
		return
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.generations[institutionID]++
	prefix := fmt.Sprintf(ckInstitutionScope, institutionID)
	for key := range rc.c.Items() {
		if strings.HasPrefix(key, prefix) {
			rc.c.Delete(key)
		}
	}
}
