package alloc

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	CoreStatsName = "xalloc/pool"
)

// Snapshot is a point in time copy of the core counters. All zero if the
// stats are disabled.
type Snapshot struct {
	Recycled         int64 // single element allocations served by a retired block
	Fallback         int64 // single element allocations served by the heap
	Bulk             int64 // multi-element allocations
	Retired          int64 // single element deallocations
	BulkReleased     int64 // multi-element deallocations
	Refills          int64 // local pools refilled from the shared pool
	HandBacks        int64 // local remainders handed back after an allocation
	Teardowns        int64 // local pools closed with blocks in them
	TeardownHandOffs int64 // teardowns finished by a single CAS
}

func (s Snapshot) Allocations() int64 {
	return s.Recycled + s.Fallback + s.Bulk
}

type coreStats struct {
	recycled         atomic.Int64
	fallback         atomic.Int64
	bulk             atomic.Int64
	retired          atomic.Int64
	bulkReleased     atomic.Int64
	refills          atomic.Int64
	handBacks        atomic.Int64
	teardowns        atomic.Int64
	teardownHandOffs atomic.Int64

	allocations      metric.Int64Counter
	deallocations    metric.Int64Counter
	transfers        metric.Int64Counter
	teardownBlocks   metric.Int64Counter
	recycledAttrs    metric.AddOption
	fallbackAttrs    metric.AddOption
	bulkAttrs        metric.AddOption
	retiredAttrs     metric.AddOption
	bulkFreeAttrs    metric.AddOption
	refillAttrs      metric.AddOption
	handBackAttrs    metric.AddOption
	handOffAttrs     metric.AddOption
	drainAttrs       metric.AddOption
}

func (stats *coreStats) recordRecycled() {
	if stats == nil {
		return
	}
	stats.recycled.Add(1)
	stats.allocations.Add(context.Background(), 1, stats.recycledAttrs)
}

func (stats *coreStats) recordFallback() {
	if stats == nil {
		return
	}
	stats.fallback.Add(1)
	stats.allocations.Add(context.Background(), 1, stats.fallbackAttrs)
}

func (stats *coreStats) recordBulk() {
	if stats == nil {
		return
	}
	stats.bulk.Add(1)
	stats.allocations.Add(context.Background(), 1, stats.bulkAttrs)
}

func (stats *coreStats) recordRetired() {
	if stats == nil {
		return
	}
	stats.retired.Add(1)
	stats.deallocations.Add(context.Background(), 1, stats.retiredAttrs)
}

func (stats *coreStats) recordBulkReleased() {
	if stats == nil {
		return
	}
	stats.bulkReleased.Add(1)
	stats.deallocations.Add(context.Background(), 1, stats.bulkFreeAttrs)
}

func (stats *coreStats) recordRefill() {
	if stats == nil {
		return
	}
	stats.refills.Add(1)
	stats.transfers.Add(context.Background(), 1, stats.refillAttrs)
}

func (stats *coreStats) recordHandBack() {
	if stats == nil {
		return
	}
	stats.handBacks.Add(1)
	stats.transfers.Add(context.Background(), 1, stats.handBackAttrs)
}

func (stats *coreStats) recordTeardown(handedOff bool, blocks int) {
	if stats == nil {
		return
	}
	stats.teardowns.Add(1)
	attrs := stats.drainAttrs
	if handedOff {
		stats.teardownHandOffs.Add(1)
		attrs = stats.handOffAttrs
	}
	stats.teardownBlocks.Add(context.Background(), int64(blocks), attrs)
}

func (stats *coreStats) snapshot() Snapshot {
	if stats == nil {
		return Snapshot{}
	}
	return Snapshot{
		Recycled:         stats.recycled.Load(),
		Fallback:         stats.fallback.Load(),
		Bulk:             stats.bulk.Load(),
		Retired:          stats.retired.Load(),
		BulkReleased:     stats.bulkReleased.Load(),
		Refills:          stats.refills.Load(),
		HandBacks:        stats.handBacks.Load(),
		Teardowns:        stats.teardowns.Load(),
		TeardownHandOffs: stats.teardownHandOffs.Load(),
	}
}

func attrsOf(pool, key, value string) metric.AddOption {
	return metric.WithAttributeSet(attribute.NewSet(
		attribute.String("xalloc.pool", pool),
		attribute.String(key, value),
	))
}

func newCoreStats(name string, mp metric.MeterProvider) *coreStats {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(fmt.Sprintf("%s/%s", CoreStatsName, name))
	return &coreStats{
		allocations: lo.Must[metric.Int64Counter](meter.Int64Counter(
			"xalloc.allocations",
			metric.WithDescription("The number of allocate calls by the source serving them."),
		)),
		deallocations: lo.Must[metric.Int64Counter](meter.Int64Counter(
			"xalloc.deallocations",
			metric.WithDescription("The number of deallocate calls by the release path."),
		)),
		transfers: lo.Must[metric.Int64Counter](meter.Int64Counter(
			"xalloc.transfers",
			metric.WithDescription("The number of whole list transfers between the local and the shared pool."),
		)),
		teardownBlocks: lo.Must[metric.Int64Counter](meter.Int64Counter(
			"xalloc.teardown.blocks",
			metric.WithDescription("The number of blocks returned to the shared pool by closed local pools."),
		)),
		recycledAttrs: attrsOf(name, "xalloc.alloc.source", "recycled"),
		fallbackAttrs: attrsOf(name, "xalloc.alloc.source", "fallback"),
		bulkAttrs:     attrsOf(name, "xalloc.alloc.source", "bulk"),
		retiredAttrs:  attrsOf(name, "xalloc.release.path", "retired"),
		bulkFreeAttrs: attrsOf(name, "xalloc.release.path", "bulk"),
		refillAttrs:   attrsOf(name, "xalloc.transfer", "refill"),
		handBackAttrs: attrsOf(name, "xalloc.transfer", "handback"),
		handOffAttrs:  attrsOf(name, "xalloc.teardown", "handoff"),
		drainAttrs:    attrsOf(name, "xalloc.teardown", "drain"),
	}
}
