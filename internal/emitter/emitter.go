// Package emitter assembles final attack records and hands them to the sink.
package emitter

import (
	"context"
	"fmt"

	"solana-sandwich-watch/internal/domain"
	"solana-sandwich-watch/internal/idhash"
	"solana-sandwich-watch/internal/storage"
)

// AlgorithmVersion tags every emitted record so stored results remain
// attributable to the matcher revision that produced them.
const AlgorithmVersion = "sandwich-v1"

// Emitter builds immutable SandwichAttack records and upserts them to a sink.
type Emitter struct {
	sink storage.AttackStore
}

// New creates an Emitter over sink.
func New(sink storage.AttackStore) *Emitter {
	return &Emitter{sink: sink}
}

// Assemble combines a candidate, its PnL and block metadata into the output
// record. Pure; no I/O.
func Assemble(c *domain.SandwichCandidate, pnl domain.PnL, confidence float64, slot uint64, blockTime int64) *domain.SandwichAttack {
	victims := make([]string, 0, len(c.Victims))
	lastSig := ""
	for _, v := range c.Victims {
		// One transaction can hold several victim events; record it once.
		if v.TxSignature == lastSig {
			continue
		}
		victims = append(victims, v.TxSignature)
		lastSig = v.TxSignature
	}

	return &domain.SandwichAttack{
		AttackID:           idhash.ComputeAttackID(slot, c.Pool, c.Attacker, c.Front.TxSignature, c.Back.TxSignature),
		Slot:               slot,
		Pool:               c.Pool,
		Attacker:           c.Attacker,
		FrontTxSignature:   c.Front.TxSignature,
		BackTxSignature:    c.Back.TxSignature,
		VictimTxSignatures: victims,
		GrossProfit:        pnl.GrossProfit,
		NetProfit:          pnl.NetProfit,
		VictimLoss:         pnl.VictimLoss,
		Confidence:         confidence,
		AlgorithmVersion:   AlgorithmVersion,
		BlockTime:          blockTime,
	}
}

// Emit upserts one attack record. Emission is append-only and idempotent per
// attack id.
func (e *Emitter) Emit(ctx context.Context, a *domain.SandwichAttack) error {
	if err := e.sink.Upsert(ctx, a); err != nil {
		return fmt.Errorf("upsert attack %s: %w", a.AttackID, err)
	}
	return nil
}
