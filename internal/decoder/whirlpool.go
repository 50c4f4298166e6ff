package decoder

import (
	"bytes"
	"encoding/binary"
)

// OrcaWhirlpool is the Orca Whirlpool program ID.
const OrcaWhirlpool = "whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc"

// whirlpoolSwapDisc is the anchor discriminator of the swap instruction.
var whirlpoolSwapDisc = []byte{248, 198, 158, 145, 225, 117, 135, 200}

// Whirlpool swap argument layout:
//
//	discriminator(8) | amount(8 LE) | otherAmountThreshold(8 LE) |
//	sqrtPriceLimit(16 LE) | amountSpecifiedIsInput(1) | aToB(1)
const whirlpoolSwapLen = 8 + 8 + 8 + 16 + 1 + 1

// Account indices the adapter relies on. The ingest layer normalizes the swap
// account list to [tokenProgram, tokenAuthority, whirlpool, mintA, vaultA, mintB, vaultB, ...].
const (
	whirlpoolPoolIndex  = 2
	whirlpoolMintAIndex = 3
	whirlpoolMintBIndex = 5
)

// WhirlpoolAdapter decodes Orca Whirlpool swap instructions. Unlike Raydium's
// ray_log payload, the whirlpool arguments carry no addresses, so the pool and
// mints come from the instruction account list in the Context.
type WhirlpoolAdapter struct{}

// NewWhirlpoolAdapter creates an Orca Whirlpool adapter.
func NewWhirlpoolAdapter() *WhirlpoolAdapter {
	return &WhirlpoolAdapter{}
}

var _ Adapter = (*WhirlpoolAdapter)(nil)

// Program returns the Orca Whirlpool program ID.
func (a *WhirlpoolAdapter) Program() string { return OrcaWhirlpool }

// Decode parses one swap from whirlpool instruction arguments and accounts.
func (a *WhirlpoolAdapter) Decode(data []byte, ctx Context) ([]SwapOperation, error) {
	if len(data) < 8 {
		return nil, &DecodeError{Program: OrcaWhirlpool, Reason: "payload shorter than discriminator"}
	}
	if !bytes.Equal(data[:8], whirlpoolSwapDisc) {
		return nil, nil
	}
	if len(data) < whirlpoolSwapLen {
		return nil, &DecodeError{Program: OrcaWhirlpool, Reason: "swap payload truncated"}
	}
	if len(ctx.Accounts) <= whirlpoolMintBIndex {
		return nil, &DecodeError{Program: OrcaWhirlpool, Reason: "swap account list truncated"}
	}

	amount := binary.LittleEndian.Uint64(data[8:16])
	otherAmount := binary.LittleEndian.Uint64(data[16:24])
	amountIsInput := data[40] != 0
	aToB := data[41] != 0

	pool := ctx.Accounts[whirlpoolPoolIndex]
	mintA := ctx.Accounts[whirlpoolMintAIndex]
	mintB := ctx.Accounts[whirlpoolMintBIndex]
	if mintA == mintB {
		return nil, &DecodeError{Program: OrcaWhirlpool, Reason: "identical pool mints"}
	}

	op := SwapOperation{Pool: pool}
	if aToB {
		op.TokenIn, op.TokenOut = mintA, mintB
	} else {
		op.TokenIn, op.TokenOut = mintB, mintA
	}
	if amountIsInput {
		op.AmountIn, op.AmountOut = amount, otherAmount
	} else {
		op.AmountIn, op.AmountOut = otherAmount, amount
	}
	if op.AmountIn == 0 || op.AmountOut == 0 {
		return nil, &DecodeError{Program: OrcaWhirlpool, Reason: "zero swap amount"}
	}
	op.Direction = directionFor(op.TokenIn, op.TokenOut)

	return []SwapOperation{op}, nil
}
