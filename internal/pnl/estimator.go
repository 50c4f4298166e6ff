// Package pnl converts matched sandwich candidates into monetary profit and
// loss figures using a reference-price lookup.
package pnl

import (
	"solana-sandwich-watch/internal/domain"
	"solana-sandwich-watch/internal/pricing"
)

// lamportsPerSOL converts lamport fee fields into SOL.
const lamportsPerSOL = 1e9

// Estimator computes attacker profit and aggregate victim loss for candidates.
// All inputs (candidate, prices) are resolved before estimation; the
// computation itself never blocks on I/O.
type Estimator struct {
	prices pricing.Source
	score  ScoreFunc
}

// New creates an Estimator. A nil score falls back to DefaultScore.
func New(prices pricing.Source, score ScoreFunc) *Estimator {
	if score == nil {
		score = DefaultScore
	}
	return &Estimator{prices: prices, score: score}
}

// Estimate computes the PnL and confidence for one candidate matched at slot.
// Fields whose reference price is unavailable come back nil ("unknown"); they
// are never defaulted to zero.
func (e *Estimator) Estimate(c *domain.SandwichCandidate, slot uint64) (domain.PnL, float64) {
	var out domain.PnL

	if gross, ok := e.grossProfit(c, slot); ok {
		out.GrossProfit = &gross
		net := gross - feesSOL(c.Front) - feesSOL(c.Back)
		out.NetProfit = &net
	}
	if loss, ok := e.victimLoss(c, slot); ok {
		out.VictimLoss = &loss
	}

	return out, e.score(c)
}

// grossProfit values the attacker's round trip: what the back leg returned
// minus what the front leg put in, both in SOL-equivalent at the block's slot.
func (e *Estimator) grossProfit(c *domain.SandwichCandidate, slot uint64) (float64, bool) {
	inPrice, ok := e.prices.Price(c.Front.TokenIn, slot)
	if !ok {
		return 0, false
	}
	outPrice, ok := e.prices.Price(c.Back.TokenOut, slot)
	if !ok {
		return 0, false
	}
	spent := float64(c.Front.AmountIn) * inPrice
	received := float64(c.Back.AmountOut) * outPrice
	return received - spent, true
}

// victimLoss sums each victim's overpayment against the counterfactual fair
// price, approximated by the price the front event was quoted before its own
// impact: front.AmountIn / front.AmountOut in TokenIn per TokenOut.
func (e *Estimator) victimLoss(c *domain.SandwichCandidate, slot uint64) (float64, bool) {
	if c.Front.AmountOut == 0 {
		return 0, false
	}
	fairPrice := float64(c.Front.AmountIn) / float64(c.Front.AmountOut)

	var total float64
	for _, v := range c.Victims {
		if v.AmountOut == 0 {
			// No execution price exists for a zero-output fill, so the
			// aggregate loss is unknowable, not merely smaller.
			return 0, false
		}
		tokenPrice, ok := e.prices.Price(v.TokenIn, slot)
		if !ok {
			return 0, false
		}
		execPrice := float64(v.AmountIn) / float64(v.AmountOut)
		// Overpayment in TokenIn units, valued in SOL-equivalent.
		total += (execPrice - fairPrice) * float64(v.AmountOut) * tokenPrice
	}
	return total, true
}

// feesSOL converts one leg's ordering costs to SOL.
func feesSOL(ev *domain.SwapEvent) float64 {
	return (float64(ev.PriorityFee) + float64(ev.BundleTip)) / lamportsPerSOL
}
