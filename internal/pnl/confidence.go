package pnl

import (
	"solana-sandwich-watch/internal/domain"
)

// ScoreFunc assigns a bounded [0, 1] confidence to a matched candidate. The
// formula is a tunable heuristic, injected so it can be iterated on without
// touching the matching invariants.
type ScoreFunc func(c *domain.SandwichCandidate) float64

// DefaultScore blends timing proximity and price-impact consistency.
//
// Proximity: the fewer transactions sit between front and back that are not
// victims, the more likely the bracketing was intentional. Impact: the back
// leg selling into a better price than the front leg paid is the signature of
// a profitable squeeze.
func DefaultScore(c *domain.SandwichCandidate) float64 {
	span := c.Back.Position.TxIndex - c.Front.Position.TxIndex - 1
	unrelated := span - distinctVictimTxs(c.Victims)
	if unrelated < 0 {
		unrelated = 0
	}
	proximity := 1.0 / float64(1+unrelated)

	impact := 0.0
	if c.Front.AmountOut > 0 && c.Back.AmountIn > 0 {
		frontPrice := float64(c.Front.AmountIn) / float64(c.Front.AmountOut)
		backPrice := float64(c.Back.AmountOut) / float64(c.Back.AmountIn)
		if backPrice > frontPrice {
			impact = 1.0
		}
	}

	score := 0.35 + 0.40*proximity + 0.25*impact
	return clamp01(score)
}

func distinctVictimTxs(victims []*domain.SwapEvent) int {
	seen := make(map[int]struct{}, len(victims))
	for _, v := range victims {
		seen[v.Position.TxIndex] = struct{}{}
	}
	return len(seen)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
