package decoder

import (
	"encoding/binary"

	"github.com/mr-tron/base58"
)

// RaydiumAMMV4 is the Raydium AMM v4 program ID.
const RaydiumAMMV4 = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"

// Raydium swap discriminators (first operand byte).
const (
	raydiumSwapBaseIn  = 0x09
	raydiumSwapBaseOut = 0x0b
)

// Raydium swap payload layout (ray_log format):
//
//	discriminator(1) | ammId(32) | inputMint(32) | outputMint(32) | amountIn(8 LE) | amountOut(8 LE)
const raydiumSwapLen = 1 + 32 + 32 + 32 + 8 + 8

// RaydiumAdapter decodes Raydium AMM v4 swap instructions.
type RaydiumAdapter struct{}

// NewRaydiumAdapter creates a Raydium AMM v4 adapter.
func NewRaydiumAdapter() *RaydiumAdapter {
	return &RaydiumAdapter{}
}

var _ Adapter = (*RaydiumAdapter)(nil)

// Program returns the Raydium AMM v4 program ID.
func (a *RaydiumAdapter) Program() string { return RaydiumAMMV4 }

// Decode parses one swap from a Raydium instruction payload. Non-swap
// discriminators (deposit, withdraw, initialize) yield no operations.
func (a *RaydiumAdapter) Decode(data []byte, _ Context) ([]SwapOperation, error) {
	if len(data) == 0 {
		return nil, &DecodeError{Program: RaydiumAMMV4, Reason: "empty payload"}
	}
	disc := data[0]
	if disc != raydiumSwapBaseIn && disc != raydiumSwapBaseOut {
		return nil, nil
	}
	if len(data) < raydiumSwapLen {
		return nil, &DecodeError{Program: RaydiumAMMV4, Reason: "swap payload truncated"}
	}

	pool := base58.Encode(data[1:33])
	tokenIn := base58.Encode(data[33:65])
	tokenOut := base58.Encode(data[65:97])
	amountIn := binary.LittleEndian.Uint64(data[97:105])
	amountOut := binary.LittleEndian.Uint64(data[105:113])

	if tokenIn == tokenOut {
		return nil, &DecodeError{Program: RaydiumAMMV4, Reason: "input and output mint identical"}
	}
	if amountIn == 0 || amountOut == 0 {
		return nil, &DecodeError{Program: RaydiumAMMV4, Reason: "zero swap amount"}
	}

	return []SwapOperation{{
		Pool:      pool,
		Direction: directionFor(tokenIn, tokenOut),
		TokenIn:   tokenIn,
		TokenOut:  tokenOut,
		AmountIn:  amountIn,
		AmountOut: amountOut,
	}}, nil
}
