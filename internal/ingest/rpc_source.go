package ingest

import (
	"context"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"

	"solana-sandwich-watch/internal/domain"
	"solana-sandwich-watch/internal/solana"
)

// lamports charged per signature regardless of compute budget.
const baseFeePerSignature = 5000

// RPCBlockSource fetches blocks over HTTP JSON-RPC and converts them to the
// domain model. Transactions whose fee payer is not a valid ed25519 public
// key are dropped; program-derived addresses cannot sign.
type RPCBlockSource struct {
	rpc solana.RPCClient
}

// NewRPCBlockSource creates a new RPC-backed block source.
func NewRPCBlockSource(rpc solana.RPCClient) *RPCBlockSource {
	return &RPCBlockSource{rpc: rpc}
}

var _ BlockSource = (*RPCBlockSource)(nil)

// Fetch retrieves and converts the block at slot.
func (s *RPCBlockSource) Fetch(ctx context.Context, slot uint64) (*domain.Block, error) {
	raw, err := s.rpc.GetBlock(ctx, slot)
	if err != nil {
		return nil, fmt.Errorf("get block %d: %w", slot, err)
	}
	return ConvertBlock(raw), nil
}

// ConvertBlock maps a wire-level block onto the domain model. Position,
// depth and CPI nesting are reconstructed from the transaction meta.
func ConvertBlock(raw *solana.Block) *domain.Block {
	block := &domain.Block{Slot: raw.Slot}
	if raw.BlockTime != nil {
		block.BlockTime = *raw.BlockTime
	}

	for txIndex, wtx := range raw.Transactions {
		tx := convertTransaction(&wtx, txIndex)
		if tx == nil {
			continue
		}
		block.Transactions = append(block.Transactions, tx)
	}
	return block
}

func convertTransaction(wtx *solana.BlockTransaction, txIndex int) *domain.Transaction {
	if len(wtx.Signatures) == 0 || len(wtx.Message.AccountKeys) == 0 {
		return nil
	}

	feePayer := wtx.Message.AccountKeys[0]
	if !isOnCurve(feePayer) {
		return nil
	}

	keys := wtx.Message.AccountKeys
	if wtx.Meta != nil {
		// Lookup-table addresses extend the static keys: writable, then readonly
		keys = append(append(append([]string{}, keys...),
			wtx.Meta.LoadedAddresses.Writable...),
			wtx.Meta.LoadedAddresses.Readonly...)
	}

	tx := &domain.Transaction{
		Signature: wtx.Signatures[0],
		FeePayer:  feePayer,
		Position:  txIndex,
	}

	if wtx.Meta != nil {
		tx.Failed = wtx.Meta.Err != nil
		tx.PriorityFee = priorityFee(wtx.Meta.Fee, len(wtx.Signatures))
	}

	inner := make(map[int][]solana.CompiledInstruction)
	if wtx.Meta != nil {
		for _, set := range wtx.Meta.InnerInstructions {
			inner[set.Index] = set.Instructions
		}
	}

	for i, ix := range wtx.Message.Instructions {
		node := convertInstruction(ix, keys, 0)
		node.Inner = buildInnerTree(inner[i], keys)
		tx.Instructions = append(tx.Instructions, node)
	}

	return tx
}

// buildInnerTree reconstructs CPI nesting from the flat inner instruction
// list using stack heights. Height 2 is the first CPI level; a missing
// height is treated as height 2 for pre-1.15 node responses.
func buildInnerTree(flat []solana.CompiledInstruction, keys []string) []*domain.Instruction {
	var roots []*domain.Instruction
	var stack []*domain.Instruction

	for _, ix := range flat {
		depth := 1
		if ix.StackHeight != nil && *ix.StackHeight > 1 {
			depth = *ix.StackHeight - 1
		}

		node := convertInstruction(ix, keys, depth)

		if depth > len(stack) {
			depth = len(stack) + 1
			node.Depth = depth
		}
		stack = stack[:depth-1]

		if len(stack) == 0 {
			roots = append(roots, node)
		} else {
			parent := stack[len(stack)-1]
			parent.Inner = append(parent.Inner, node)
		}
		stack = append(stack, node)
	}
	return roots
}

func convertInstruction(ix solana.CompiledInstruction, keys []string, depth int) *domain.Instruction {
	node := &domain.Instruction{Depth: depth}

	if ix.ProgramIDIndex >= 0 && ix.ProgramIDIndex < len(keys) {
		node.ProgramID = keys[ix.ProgramIDIndex]
	}
	for _, idx := range ix.Accounts {
		if idx >= 0 && idx < len(keys) {
			node.Accounts = append(node.Accounts, keys[idx])
		}
	}

	// Malformed base58 leaves nil data; the decoder reports it downstream
	if data, err := base58.Decode(ix.Data); err == nil {
		node.Data = data
	}

	return node
}

func priorityFee(totalFee uint64, numSignatures int) uint64 {
	base := uint64(numSignatures) * baseFeePerSignature
	if totalFee <= base {
		return 0
	}
	return totalFee - base
}

func isOnCurve(pubkey string) bool {
	raw, err := base58.Decode(pubkey)
	if err != nil || len(raw) != 32 {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(raw)
	return err == nil
}
