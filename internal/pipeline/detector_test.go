package pipeline

import (
	"bytes"
	"encoding/binary"
	"reflect"
	"testing"

	"github.com/mr-tron/base58"

	"solana-sandwich-watch/internal/decoder"
	"solana-sandwich-watch/internal/domain"
	"solana-sandwich-watch/internal/extractor"
	"solana-sandwich-watch/internal/pnl"
	"solana-sandwich-watch/internal/pricing"
)

var (
	testPool = bytes.Repeat([]byte{0x11}, 32)
	testMint = bytes.Repeat([]byte{0x22}, 32)
	testWSOL = mustDecode(decoder.WSOL)
)

func mustDecode(s string) []byte {
	raw, err := base58.Decode(s)
	if err != nil {
		panic(err)
	}
	return raw
}

func newTestDetector() *Detector {
	prices := pricing.NewStaticSource(map[string]float64{decoder.WSOL: 1e-9})
	return NewDetector(
		extractor.New(decoder.NewRegistry()),
		pnl.New(prices, pnl.DefaultScore),
	)
}

// buyIx swaps WSOL into the test mint, sellIx the reverse.
func buyIx(amountIn, amountOut uint64) *domain.Instruction {
	return raydiumIx(testWSOL, testMint, amountIn, amountOut)
}

func sellIx(amountIn, amountOut uint64) *domain.Instruction {
	return raydiumIx(testMint, testWSOL, amountIn, amountOut)
}

func raydiumIx(inMint, outMint []byte, amountIn, amountOut uint64) *domain.Instruction {
	data := []byte{0x09}
	data = append(data, testPool...)
	data = append(data, inMint...)
	data = append(data, outMint...)
	data = binary.LittleEndian.AppendUint64(data, amountIn)
	data = binary.LittleEndian.AppendUint64(data, amountOut)
	return &domain.Instruction{ProgramID: decoder.RaydiumAMMV4, Data: data}
}

func swapTx(sig, feePayer string, position int, ixs ...*domain.Instruction) *domain.Transaction {
	return &domain.Transaction{
		Signature:    sig,
		FeePayer:     feePayer,
		Position:     position,
		Instructions: ixs,
	}
}

// sandwichBlock holds an attacker buy, a victim buy and an attacker sell on
// the same pool, in that execution order.
func sandwichBlock(slot uint64) *domain.Block {
	return &domain.Block{
		Slot:      slot,
		BlockTime: 1700000000,
		Transactions: []*domain.Transaction{
			swapTx("front-sig", "attacker", 0, buyIx(1000, 500)),
			swapTx("victim-sig", "victim", 1, buyIx(300, 100)),
			swapTx("back-sig", "attacker", 2, sellIx(500, 1500)),
		},
	}
}

func TestProcessBlock_DetectsSandwich(t *testing.T) {
	d := newTestDetector()

	res := d.ProcessBlock(sandwichBlock(100))
	if res.Slot != 100 {
		t.Errorf("Slot = %d, want 100", res.Slot)
	}
	if res.Swaps != 3 {
		t.Errorf("Swaps = %d, want 3", res.Swaps)
	}
	if len(res.Attacks) != 1 {
		t.Fatalf("Expected 1 attack, got %d", len(res.Attacks))
	}

	attack := res.Attacks[0]
	if attack.Attacker != "attacker" {
		t.Errorf("Attacker = %s, want attacker", attack.Attacker)
	}
	if attack.FrontTxSignature != "front-sig" || attack.BackTxSignature != "back-sig" {
		t.Errorf("Bracket = %s / %s, want front-sig / back-sig",
			attack.FrontTxSignature, attack.BackTxSignature)
	}
	if !reflect.DeepEqual(attack.VictimTxSignatures, []string{"victim-sig"}) {
		t.Errorf("Victims = %v, want [victim-sig]", attack.VictimTxSignatures)
	}
	if attack.GrossProfit == nil || *attack.GrossProfit <= 0 {
		t.Errorf("GrossProfit = %v, want positive", attack.GrossProfit)
	}
	if attack.BlockTime != 1700000000 {
		t.Errorf("BlockTime = %d, want 1700000000", attack.BlockTime)
	}
}

func TestProcessBlock_Deterministic(t *testing.T) {
	d := newTestDetector()

	first := d.ProcessBlock(sandwichBlock(100))
	for i := 0; i < 10; i++ {
		again := d.ProcessBlock(sandwichBlock(100))
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("Run %d diverged from the first result", i)
		}
	}
}

func TestProcessBlock_FailedTransactionsExcluded(t *testing.T) {
	d := newTestDetector()

	block := sandwichBlock(100)
	block.Transactions[2].Failed = true

	res := d.ProcessBlock(block)
	if res.Swaps != 2 {
		t.Errorf("Swaps = %d, want 2 with the back run failed", res.Swaps)
	}
	if len(res.Attacks) != 0 {
		t.Errorf("No attack without a back run, got %d", len(res.Attacks))
	}
}

func TestProcessBlock_UnknownProgramsAndDecodeErrorsCounted(t *testing.T) {
	d := newTestDetector()

	block := sandwichBlock(100)
	block.Transactions = append(block.Transactions,
		swapTx("other-sig", "other", 3,
			&domain.Instruction{ProgramID: "Unknown1111111111111111111111111111111111111"},
			&domain.Instruction{ProgramID: decoder.RaydiumAMMV4, Data: []byte{0x09, 0x01}},
		),
	)

	res := d.ProcessBlock(block)
	if res.UnknownPrograms != 1 {
		t.Errorf("UnknownPrograms = %d, want 1", res.UnknownPrograms)
	}
	if res.DecodeErrors[decoder.RaydiumAMMV4] != 1 {
		t.Errorf("DecodeErrors = %v, want one for %s", res.DecodeErrors, decoder.RaydiumAMMV4)
	}
	if len(res.Attacks) != 1 {
		t.Errorf("Noise transactions must not suppress detection, got %d attacks", len(res.Attacks))
	}
}

func TestProcessBlock_EmptyBlock(t *testing.T) {
	d := newTestDetector()

	res := d.ProcessBlock(&domain.Block{Slot: 42})
	if res.Swaps != 0 || len(res.Attacks) != 0 {
		t.Errorf("Empty block produced swaps=%d attacks=%d", res.Swaps, len(res.Attacks))
	}
}

func TestProcessBlock_PoolsIsolated(t *testing.T) {
	d := newTestDetector()

	// Front and back bracket the victim positionally, but the victim trades
	// a different pool. No attack may be reported on either pool.
	otherPool := bytes.Repeat([]byte{0x44}, 32)
	victimIx := &domain.Instruction{
		ProgramID: decoder.RaydiumAMMV4,
		Data: func() []byte {
			data := []byte{0x09}
			data = append(data, otherPool...)
			data = append(data, testWSOL...)
			data = append(data, testMint...)
			data = binary.LittleEndian.AppendUint64(data, 300)
			data = binary.LittleEndian.AppendUint64(data, 100)
			return data
		}(),
	}

	block := &domain.Block{
		Slot: 100,
		Transactions: []*domain.Transaction{
			swapTx("front-sig", "attacker", 0, buyIx(1000, 500)),
			swapTx("victim-sig", "victim", 1, victimIx),
			swapTx("back-sig", "attacker", 2, sellIx(500, 1500)),
		},
	}

	res := d.ProcessBlock(block)
	if len(res.Attacks) != 0 {
		t.Fatalf("Victim on another pool must not form a sandwich, got %d attacks", len(res.Attacks))
	}
}

func TestProcessBlock_AttackIDVariesWithSlot(t *testing.T) {
	d := newTestDetector()

	a := d.ProcessBlock(sandwichBlock(100)).Attacks[0]
	b := d.ProcessBlock(sandwichBlock(101)).Attacks[0]
	if a.AttackID == b.AttackID {
		t.Errorf("Same attack id %s across slots", a.AttackID)
	}
	for _, attack := range []*domain.SandwichAttack{a, b} {
		if len(attack.AttackID) != 64 {
			t.Errorf("AttackID %q is not a sha256 hex digest", attack.AttackID)
		}
	}
}
