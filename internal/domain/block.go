// Package domain holds the core data model shared across the detection pipeline.
package domain

// Block is one ingested ledger block. Transactions are kept in execution order;
// the block is never mutated after ingestion.
type Block struct {
	Slot         uint64 // Solana slot number, strictly increasing across delivered blocks
	BlockTime    int64  // Unix timestamp in seconds (0 if the ledger omitted it)
	Transactions []*Transaction
}

// Transaction is one transaction inside a Block.
type Transaction struct {
	Signature   string // first signature, unique transaction id
	FeePayer    string // fee payer address, used for trader attribution
	Position    int    // index within the owning block (execution order)
	PriorityFee uint64 // lamports paid above the base fee
	BundleTip   uint64 // Jito bundle tip in lamports, 0 if none
	Failed      bool   // meta.err was set; failed transactions produce no swap events

	// Instructions holds the outer instructions. Inner (CPI) instructions hang off
	// their parent via Inner, tagged with stack depth.
	Instructions []*Instruction
}

// Instruction is a single instruction, outer or inner.
type Instruction struct {
	ProgramID string   // program address
	Accounts  []string // account addresses in instruction order
	Data      []byte   // raw operand bytes
	Depth     int      // 0 for outer instructions, >0 for CPI
	Inner     []*Instruction
}

// Position identifies a swap event's place inside a block. Ordering is
// lexicographic: transaction index, then outer instruction index, then the
// flattened inner index from the depth-first walk.
type Position struct {
	TxIndex    int
	OuterIndex int
	InnerIndex int
}

// Less reports whether p executes strictly before q.
func (p Position) Less(q Position) bool {
	if p.TxIndex != q.TxIndex {
		return p.TxIndex < q.TxIndex
	}
	if p.OuterIndex != q.OuterIndex {
		return p.OuterIndex < q.OuterIndex
	}
	return p.InnerIndex < q.InnerIndex
}
