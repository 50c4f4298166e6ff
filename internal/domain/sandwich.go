package domain

// SandwichCandidate is a matched attacker/victim/attacker triplet on one pool
// timeline, before profit estimation.
//
// Invariants maintained by the matcher:
//   - Front.Trader == Back.Trader (the attacker), and no victim shares it
//   - Front.Direction is opposite to Back.Direction
//   - every victim's direction equals Front.Direction
//   - len(Victims) >= 1, all strictly between Front and Back in execution order
type SandwichCandidate struct {
	Pool     string
	Attacker string
	Front    *SwapEvent
	Back     *SwapEvent
	Victims  []*SwapEvent // execution order
}

// PnL holds the estimated profit and loss of a candidate. Nil fields mean the
// reference price for some leg was unavailable; they are never defaulted to zero.
type PnL struct {
	GrossProfit *float64 // SOL-equivalent
	NetProfit   *float64 // gross minus priority fees and bundle tips
	VictimLoss  *float64 // aggregate over all victims
}

// SandwichAttack is the immutable output record of the pipeline.
type SandwichAttack struct {
	AttackID           string // deterministic hash of the idempotency key
	Slot               uint64
	Pool               string
	Attacker           string
	FrontTxSignature   string
	BackTxSignature    string
	VictimTxSignatures []string // execution order
	GrossProfit        *float64 // nil = unknown
	NetProfit          *float64 // nil = unknown
	VictimLoss         *float64 // nil = unknown
	Confidence         float64  // [0, 1]
	AlgorithmVersion   string
	BlockTime          int64
}
