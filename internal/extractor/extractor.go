// Package extractor flattens a transaction's instruction tree into the ordered
// swap event list the timeline builder consumes.
package extractor

import (
	"errors"

	"solana-sandwich-watch/internal/decoder"
	"solana-sandwich-watch/internal/domain"
)

// MaxDepth bounds the CPI traversal. Deeper nesting than this is treated as
// malformed and ignored rather than recursed into.
const MaxDepth = 8

// Extractor walks transactions and decodes swaps through the adapter registry.
type Extractor struct {
	registry *decoder.Registry
}

// New creates an Extractor over the given registry.
func New(registry *decoder.Registry) *Extractor {
	return &Extractor{registry: registry}
}

// Result reports the outcome of extracting one transaction. Extraction never
// fails outright: anomalies are counted and the rest of the transaction is
// still processed.
type Result struct {
	Events          []*domain.SwapEvent
	UnknownPrograms int
	DecodeErrors    []*decoder.DecodeError
}

// Extract walks tx's instructions depth-first in execution order and returns
// every decodable swap, tagged with the transaction's block position. Failed
// transactions yield no events.
func (e *Extractor) Extract(tx *domain.Transaction) Result {
	var res Result
	if tx.Failed {
		return res
	}

	ctx := decoder.Context{FeePayer: tx.FeePayer}
	for outer, ix := range tx.Instructions {
		inner := 0
		e.walk(tx, ix, outer, &inner, 0, ctx, &res)
	}
	return res
}

// walk visits one instruction and then its inner instructions depth-first.
// inner is the running flattened index within the outer instruction.
func (e *Extractor) walk(tx *domain.Transaction, ix *domain.Instruction, outer int, inner *int, depth int, ctx decoder.Context, res *Result) {
	if depth > MaxDepth {
		return
	}

	pos := domain.Position{TxIndex: tx.Position, OuterIndex: outer, InnerIndex: *inner}
	*inner++

	ctx.Accounts = ix.Accounts
	ops, err := e.registry.Decode(ix.ProgramID, ix.Data, ctx)
	switch {
	case err == nil:
		for _, op := range ops {
			res.Events = append(res.Events, &domain.SwapEvent{
				Pool:        op.Pool,
				Trader:      tx.FeePayer,
				Direction:   op.Direction,
				TokenIn:     op.TokenIn,
				TokenOut:    op.TokenOut,
				AmountIn:    op.AmountIn,
				AmountOut:   op.AmountOut,
				TxSignature: tx.Signature,
				Position:    pos,
				PriorityFee: tx.PriorityFee,
				BundleTip:   tx.BundleTip,
			})
		}
	case errors.Is(err, decoder.ErrUnknownProgram):
		res.UnknownPrograms++
	default:
		var de *decoder.DecodeError
		if errors.As(err, &de) {
			res.DecodeErrors = append(res.DecodeErrors, de)
		} else {
			res.DecodeErrors = append(res.DecodeErrors, &decoder.DecodeError{Program: ix.ProgramID, Reason: err.Error()})
		}
	}

	for _, child := range ix.Inner {
		e.walk(tx, child, outer, inner, depth+1, ctx, res)
	}
}
