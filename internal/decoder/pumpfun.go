package decoder

import (
	"bytes"
	"encoding/binary"

	"github.com/mr-tron/base58"
)

// PumpFun is the pump.fun bonding curve program ID.
const PumpFun = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"

// pump.fun anchor discriminators (first 8 operand bytes).
var (
	pumpFunBuyDisc  = []byte{102, 6, 61, 18, 1, 218, 235, 234}
	pumpFunSellDisc = []byte{51, 230, 133, 164, 1, 127, 131, 173}
)

// pump.fun trade payload layout:
//
//	discriminator(8) | mint(32) | solAmount(8 LE) | tokenAmount(8 LE)
const pumpFunTradeLen = 8 + 32 + 8 + 8

// PumpFunAdapter decodes pump.fun buy/sell instructions. The bonding curve is
// the venue, so the traded mint doubles as the pool address.
type PumpFunAdapter struct{}

// NewPumpFunAdapter creates a pump.fun adapter.
func NewPumpFunAdapter() *PumpFunAdapter {
	return &PumpFunAdapter{}
}

var _ Adapter = (*PumpFunAdapter)(nil)

// Program returns the pump.fun program ID.
func (a *PumpFunAdapter) Program() string { return PumpFun }

// Decode parses one buy or sell from a pump.fun instruction payload.
func (a *PumpFunAdapter) Decode(data []byte, _ Context) ([]SwapOperation, error) {
	if len(data) < 8 {
		return nil, &DecodeError{Program: PumpFun, Reason: "payload shorter than discriminator"}
	}

	disc := data[:8]
	isBuy := bytes.Equal(disc, pumpFunBuyDisc)
	isSell := bytes.Equal(disc, pumpFunSellDisc)
	if !isBuy && !isSell {
		return nil, nil
	}
	if len(data) < pumpFunTradeLen {
		return nil, &DecodeError{Program: PumpFun, Reason: "trade payload truncated"}
	}

	mint := base58.Encode(data[8:40])
	solAmount := binary.LittleEndian.Uint64(data[40:48])
	tokenAmount := binary.LittleEndian.Uint64(data[48:56])
	if solAmount == 0 || tokenAmount == 0 {
		return nil, &DecodeError{Program: PumpFun, Reason: "zero trade amount"}
	}

	op := SwapOperation{Pool: mint}
	if isBuy {
		op.TokenIn, op.TokenOut = WSOL, mint
		op.AmountIn, op.AmountOut = solAmount, tokenAmount
	} else {
		op.TokenIn, op.TokenOut = mint, WSOL
		op.AmountIn, op.AmountOut = tokenAmount, solAmount
	}
	op.Direction = directionFor(op.TokenIn, op.TokenOut)

	return []SwapOperation{op}, nil
}
