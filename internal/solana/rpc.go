// Package solana provides thin JSON-RPC and WebSocket clients for Solana
// nodes. It exposes raw wire-level block structures; conversion to domain
// types lives in the ingest layer.
package solana

import (
	"context"
	"errors"
)

// ErrSlotSkipped is returned by GetBlock for slots with no block. Skipped
// slots are normal on Solana and must not abort a range scan.
var ErrSlotSkipped = errors.New("slot was skipped or missing")

// RPCClient defines the Solana RPC HTTP interface.
type RPCClient interface {
	// GetBlock retrieves a block with full transaction detail by slot number.
	GetBlock(ctx context.Context, slot uint64) (*Block, error)

	// GetBlocks lists confirmed slots in [from, to] inclusive.
	GetBlocks(ctx context.Context, from, to uint64) ([]uint64, error)

	// GetSlot retrieves the current confirmed slot.
	GetSlot(ctx context.Context) (uint64, error)
}

// Block is the wire-level getBlock result.
type Block struct {
	Slot         uint64
	BlockTime    *int64
	Blockhash    string
	ParentSlot   uint64
	Transactions []BlockTransaction
}

// BlockTransaction is one transaction inside a block, with its execution meta.
type BlockTransaction struct {
	Signatures []string
	Message    Message
	Meta       *TransactionMeta
}

// Message is the compiled transaction message.
type Message struct {
	AccountKeys  []string
	Instructions []CompiledInstruction
}

// CompiledInstruction references accounts by index into the message keys.
type CompiledInstruction struct {
	ProgramIDIndex int
	Accounts       []int
	Data           string // base58
	StackHeight    *int
}

// TransactionMeta carries the execution outcome and CPI trace.
type TransactionMeta struct {
	Err               interface{}
	Fee               uint64
	InnerInstructions []InnerInstructionSet
	LoadedAddresses   LoadedAddresses
	LogMessages       []string
}

// InnerInstructionSet groups CPI instructions under one top-level index.
type InnerInstructionSet struct {
	Index        int
	Instructions []CompiledInstruction
}

// LoadedAddresses lists addresses resolved from lookup tables. They extend
// the message account keys: writable first, then readonly.
type LoadedAddresses struct {
	Writable []string
	Readonly []string
}
