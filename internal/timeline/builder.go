// Package timeline groups a block's swap events into per-pool execution-ordered
// timelines.
package timeline

import (
	"sort"

	"solana-sandwich-watch/internal/domain"
)

// Build groups events by pool and orders each group by exact execution order:
// transaction position, then intra-transaction position. This ordering is the
// ground truth the matcher relies on and is never re-sorted by any other key.
// Timelines are block-scoped; pools are returned in deterministic address order.
func Build(slot uint64, events []*domain.SwapEvent) []*domain.PoolTimeline {
	byPool := make(map[string][]*domain.SwapEvent)
	for _, ev := range events {
		byPool[ev.Pool] = append(byPool[ev.Pool], ev)
	}

	pools := make([]string, 0, len(byPool))
	for pool := range byPool {
		pools = append(pools, pool)
	}
	sort.Strings(pools)

	timelines := make([]*domain.PoolTimeline, 0, len(pools))
	for _, pool := range pools {
		evs := byPool[pool]
		sort.SliceStable(evs, func(i, j int) bool {
			return evs[i].Position.Less(evs[j].Position)
		})
		timelines = append(timelines, &domain.PoolTimeline{
			Pool:   pool,
			Slot:   slot,
			Events: evs,
		})
	}
	return timelines
}
