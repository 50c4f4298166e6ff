// Package decoder turns raw instruction bytes into normalized swap operations.
// Decoding is pure: the same program id and bytes always yield the same result.
package decoder

import (
	"errors"
	"fmt"
	"sync"

	"solana-sandwich-watch/internal/domain"
)

// WSOL is the Wrapped SOL mint address.
const WSOL = "So11111111111111111111111111111111111111112"

// ErrUnknownProgram reports an instruction whose program is not registered.
// Not a failure: the instruction is simply skipped and counted.
var ErrUnknownProgram = errors.New("unknown program")

// DecodeError reports malformed operand bytes for a recognized program. The
// owning instruction is skipped; the rest of the transaction still processes.
type DecodeError struct {
	Program string
	Reason  string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %s", e.Program, e.Reason)
}

// SwapOperation is one normalized swap decoded from a single instruction.
type SwapOperation struct {
	Pool      string
	Direction string // domain.DirectionBuy / domain.DirectionSell
	TokenIn   string
	TokenOut  string
	AmountIn  uint64
	AmountOut uint64
}

// Context carries per-transaction data an adapter may need beyond the operand
// bytes: the instruction's account list and the transaction fee payer.
type Context struct {
	Accounts []string
	FeePayer string
}

// Adapter decodes instructions of one DEX program family.
// Implementations must be pure and safe for concurrent use.
type Adapter interface {
	// Program returns the program address this adapter handles.
	Program() string

	// Decode returns zero or more swaps from one instruction's operand bytes.
	// A recognized program with a non-swap discriminator returns (nil, nil).
	// Malformed bytes return a *DecodeError.
	Decode(data []byte, ctx Context) ([]SwapOperation, error)
}

// Registry maps program addresses to adapters. Reads are concurrent; mutation
// happens only during startup or extension.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry creates a registry with the default adapters registered.
func NewRegistry() *Registry {
	r := &Registry{adapters: make(map[string]Adapter)}
	r.Register(NewRaydiumAdapter())
	r.Register(NewPumpFunAdapter())
	r.Register(NewWhirlpoolAdapter())
	return r
}

// NewEmptyRegistry creates a registry with no adapters.
func NewEmptyRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter, replacing any previous one for the same program.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Program()] = a
}

// Decode dispatches to the adapter registered for programID.
// Returns ErrUnknownProgram when no adapter is registered.
func (r *Registry) Decode(programID string, data []byte, ctx Context) ([]SwapOperation, error) {
	r.mu.RLock()
	a, ok := r.adapters[programID]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrUnknownProgram
	}
	return a.Decode(data, ctx)
}

// Programs returns the registered program addresses.
func (r *Registry) Programs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.adapters))
	for p := range r.adapters {
		out = append(out, p)
	}
	return out
}

// canonicalPair picks the base/quote orientation for a token pair. WSOL is
// always the quote; for pairs without WSOL the lexicographically larger mint
// serves as quote so that orientation never depends on trade direction.
func canonicalPair(a, b string) (base, quote string) {
	switch {
	case a == WSOL:
		return b, a
	case b == WSOL:
		return a, b
	case a < b:
		return a, b
	default:
		return b, a
	}
}

// directionFor classifies a swap: paying the quote token to receive base is a
// buy, the reverse is a sell.
func directionFor(tokenIn, tokenOut string) string {
	_, quote := canonicalPair(tokenIn, tokenOut)
	if tokenIn == quote {
		return domain.DirectionBuy
	}
	return domain.DirectionSell
}
