package domain

// Trade direction over the pool's canonical base/quote pair.
const (
	DirectionBuy  = "buy"  // quote in, base out
	DirectionSell = "sell" // base in, quote out
)

// OppositeDirection returns the reverse of a direction.
func OppositeDirection(d string) string {
	if d == DirectionBuy {
		return DirectionSell
	}
	return DirectionBuy
}

// SwapEvent is one decoded swap, flattened out of a transaction and tagged with
// its exact execution position. Events are derived per block and never stored
// on their own.
type SwapEvent struct {
	Pool        string // pool / venue address
	Trader      string // fee payer of the owning transaction
	Direction   string // DirectionBuy or DirectionSell
	TokenIn     string // mint paid in
	TokenOut    string // mint received
	AmountIn    uint64 // raw amount of TokenIn
	AmountOut   uint64 // raw amount of TokenOut
	TxSignature string
	Position    Position

	// Attacker cost accounting, copied from the owning transaction.
	PriorityFee uint64
	BundleTip   uint64
}

// PoolTimeline is the execution-ordered swap events of one pool within one
// block. It is rebuilt for every block and discarded after matching.
type PoolTimeline struct {
	Pool   string
	Slot   uint64
	Events []*SwapEvent
}
