// Package matcher scans pool timelines for attacker/victim/attacker triplets.
package matcher

import (
	"solana-sandwich-watch/internal/domain"
)

// Match runs a single left-to-right pass over one pool timeline and returns
// the non-overlapping sandwich candidates found in it.
//
// The pass keeps one "open front" per trader, always the most recent unclosed
// one. When a later event by the same trader arrives in the opposite direction,
// the events strictly between them trading in the front's direction (and not
// already claimed by an earlier match) become the victim set. An empty victim
// set does not close the front; the closing event replaces it as the canonical
// front instead, bounding lookback. Every index that participates in an
// emitted candidate is consumed and excluded from all later matches, so no
// swap event is ever attributed to two sandwiches within one timeline.
func Match(tl *domain.PoolTimeline) []*domain.SandwichCandidate {
	events := tl.Events
	if len(events) < 3 {
		return nil
	}

	consumed := make([]bool, len(events))
	open := make(map[string]int) // trader -> index of most recent unclosed front
	var out []*domain.SandwichCandidate

	for k, ek := range events {
		trader := ek.Trader

		front, hasOpen := open[trader]
		if hasOpen && consumed[front] {
			// The front was claimed as a victim of another attacker since it
			// was recorded; it can no longer anchor a sandwich.
			delete(open, trader)
			hasOpen = false
		}

		if !hasOpen {
			open[trader] = k
			continue
		}

		fe := events[front]
		if ek.Direction == fe.Direction {
			// Same-direction repeat: the nearer front is canonical.
			open[trader] = k
			continue
		}

		victimIdx := collectVictims(events, consumed, front, k, fe.Direction, trader)
		if len(victimIdx) == 0 {
			// Back-to-back attacker trades with nothing in between are not a
			// sandwich; restart from the closing event.
			open[trader] = k
			continue
		}

		victims := make([]*domain.SwapEvent, len(victimIdx))
		for i, j := range victimIdx {
			victims[i] = events[j]
			consumed[j] = true
		}
		consumed[front] = true
		consumed[k] = true
		delete(open, trader)

		out = append(out, &domain.SandwichCandidate{
			Pool:     tl.Pool,
			Attacker: trader,
			Front:    fe,
			Back:     ek,
			Victims:  victims,
		})
	}

	return out
}

// collectVictims gathers indices of unconsumed events strictly between front
// and back that trade in the front's direction and belong to someone other
// than the attacker.
func collectVictims(events []*domain.SwapEvent, consumed []bool, front, back int, direction, attacker string) []int {
	var idx []int
	for j := front + 1; j < back; j++ {
		if consumed[j] {
			continue
		}
		ev := events[j]
		if ev.Trader == attacker || ev.Direction != direction {
			continue
		}
		idx = append(idx, j)
	}
	return idx
}
