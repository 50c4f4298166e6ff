// Package pipeline runs block-level sandwich detection with bounded worker
// concurrency and slot-ordered emission.
package pipeline

import (
	"solana-sandwich-watch/internal/domain"
	"solana-sandwich-watch/internal/emitter"
	"solana-sandwich-watch/internal/extractor"
	"solana-sandwich-watch/internal/matcher"
	"solana-sandwich-watch/internal/pnl"
	"solana-sandwich-watch/internal/timeline"
)

// BlockResult holds everything detection produced for one block. Skipped is
// set for slots that held no block; the sequence still advances through them.
// FetchErr records a slot whose block exists but could not be acquired, so
// the run can report the gap instead of passing it off as skipped.
type BlockResult struct {
	Slot            uint64
	BlockTime       int64
	Skipped         bool
	FetchErr        error
	Attacks         []*domain.SandwichAttack
	Swaps           int
	UnknownPrograms int
	DecodeErrors    map[string]int
}

// Detector performs the per-block detection pass. It is stateless across
// blocks, so a single Detector is safe to share between workers.
type Detector struct {
	extractor *extractor.Extractor
	estimator *pnl.Estimator
}

// NewDetector creates a Detector over the given extractor and estimator.
func NewDetector(ex *extractor.Extractor, est *pnl.Estimator) *Detector {
	return &Detector{extractor: ex, estimator: est}
}

// ProcessBlock extracts swaps from every transaction in the block, builds
// per-pool timelines, matches sandwich candidates and assembles attack
// records. The pass is deterministic for a given block.
func (d *Detector) ProcessBlock(block *domain.Block) *BlockResult {
	res := &BlockResult{Slot: block.Slot, BlockTime: block.BlockTime}

	var events []*domain.SwapEvent
	for _, tx := range block.Transactions {
		txRes := d.extractor.Extract(tx)
		events = append(events, txRes.Events...)
		res.UnknownPrograms += txRes.UnknownPrograms
		for _, decErr := range txRes.DecodeErrors {
			if res.DecodeErrors == nil {
				res.DecodeErrors = make(map[string]int)
			}
			res.DecodeErrors[decErr.Program]++
		}
	}
	res.Swaps = len(events)

	for _, tl := range timeline.Build(block.Slot, events) {
		for _, c := range matcher.Match(tl) {
			est, confidence := d.estimator.Estimate(c, block.Slot)
			res.Attacks = append(res.Attacks, emitter.Assemble(c, est, confidence, block.Slot, block.BlockTime))
		}
	}
	return res
}
