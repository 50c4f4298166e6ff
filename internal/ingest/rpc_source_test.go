package ingest

import (
	"testing"

	"github.com/mr-tron/base58"

	"solana-sandwich-watch/internal/solana"
)

// systemProgram is 32 zero bytes, a valid curve point usable as a fee payer.
const systemProgram = "11111111111111111111111111111111"

var (
	tokenProgram = base58.Encode(append(make([]byte, 31), 1))
	swapData     = base58.Encode([]byte{0x09, 0x01, 0x02})
)

func intPtr(v int) *int { return &v }

func wireTx(fee uint64, failed bool) solana.BlockTransaction {
	var txErr any
	if failed {
		txErr = map[string]any{"InstructionError": []any{0, "Custom"}}
	}
	return solana.BlockTransaction{
		Signatures: []string{"sig-1"},
		Message: solana.Message{
			AccountKeys: []string{systemProgram, tokenProgram},
			Instructions: []solana.CompiledInstruction{
				{ProgramIDIndex: 1, Accounts: []int{0}, Data: swapData},
			},
		},
		Meta: &solana.TransactionMeta{Err: txErr, Fee: fee},
	}
}

func TestConvertBlock_Basics(t *testing.T) {
	blockTime := int64(1700000000)
	raw := &solana.Block{
		Slot:         250000000,
		BlockTime:    &blockTime,
		Transactions: []solana.BlockTransaction{wireTx(5000, false), wireTx(9000, true)},
	}

	block := ConvertBlock(raw)
	if block.Slot != 250000000 {
		t.Errorf("Slot = %d, want 250000000", block.Slot)
	}
	if block.BlockTime != blockTime {
		t.Errorf("BlockTime = %d, want %d", block.BlockTime, blockTime)
	}
	if len(block.Transactions) != 2 {
		t.Fatalf("Expected 2 transactions, got %d", len(block.Transactions))
	}

	first := block.Transactions[0]
	if first.FeePayer != systemProgram {
		t.Errorf("FeePayer = %s, want first account key", first.FeePayer)
	}
	if first.Position != 0 || block.Transactions[1].Position != 1 {
		t.Errorf("Positions = %d, %d, want 0, 1",
			first.Position, block.Transactions[1].Position)
	}
	if first.Failed {
		t.Error("Successful transaction marked failed")
	}
	if !block.Transactions[1].Failed {
		t.Error("Transaction with meta err not marked failed")
	}
}

func TestConvertBlock_PriorityFee(t *testing.T) {
	cases := []struct {
		name string
		fee  uint64
		want uint64
	}{
		{"base fee only", 5000, 0},
		{"below base", 4000, 0},
		{"with priority", 12000, 7000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := &solana.Block{Transactions: []solana.BlockTransaction{wireTx(tc.fee, false)}}
			block := ConvertBlock(raw)
			if got := block.Transactions[0].PriorityFee; got != tc.want {
				t.Errorf("PriorityFee = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestConvertBlock_DropsInvalidFeePayer(t *testing.T) {
	offCurve := base58.Encode(make([]byte, 20)) // wrong length, cannot be a pubkey

	raw := &solana.Block{Transactions: []solana.BlockTransaction{
		{
			Signatures: []string{"sig-bad"},
			Message:    solana.Message{AccountKeys: []string{offCurve}},
			Meta:       &solana.TransactionMeta{Fee: 5000},
		},
		{Signatures: nil, Message: solana.Message{AccountKeys: []string{systemProgram}}},
		wireTx(5000, false),
	}}

	block := ConvertBlock(raw)
	if len(block.Transactions) != 1 {
		t.Fatalf("Expected only the valid transaction, got %d", len(block.Transactions))
	}
	if block.Transactions[0].Signature != "sig-1" {
		t.Errorf("Kept %s, want sig-1", block.Transactions[0].Signature)
	}
}

func TestConvertBlock_LoadedAddressesExtendKeys(t *testing.T) {
	loadedWritable := base58.Encode(append(make([]byte, 31), 2))
	loadedReadonly := base58.Encode(append(make([]byte, 31), 3))

	wtx := wireTx(5000, false)
	wtx.Meta.LoadedAddresses = solana.LoadedAddresses{
		Writable: []string{loadedWritable},
		Readonly: []string{loadedReadonly},
	}
	// Static keys are 0..1; loaded writable is 2, readonly is 3.
	wtx.Message.Instructions = []solana.CompiledInstruction{
		{ProgramIDIndex: 3, Accounts: []int{2, 0}, Data: swapData},
	}

	block := ConvertBlock(&solana.Block{Transactions: []solana.BlockTransaction{wtx}})
	ix := block.Transactions[0].Instructions[0]
	if ix.ProgramID != loadedReadonly {
		t.Errorf("ProgramID = %s, want loaded readonly key", ix.ProgramID)
	}
	if len(ix.Accounts) != 2 || ix.Accounts[0] != loadedWritable || ix.Accounts[1] != systemProgram {
		t.Errorf("Accounts = %v, want [%s %s]", ix.Accounts, loadedWritable, systemProgram)
	}
}

func TestConvertBlock_InnerTreeFromStackHeights(t *testing.T) {
	wtx := wireTx(5000, false)
	wtx.Meta.InnerInstructions = []solana.InnerInstructionSet{
		{
			Index: 0,
			Instructions: []solana.CompiledInstruction{
				{ProgramIDIndex: 1, Data: swapData, StackHeight: intPtr(2)},
				{ProgramIDIndex: 1, Data: swapData, StackHeight: intPtr(3)},
				{ProgramIDIndex: 1, Data: swapData, StackHeight: intPtr(2)},
			},
		},
	}

	block := ConvertBlock(&solana.Block{Transactions: []solana.BlockTransaction{wtx}})
	outer := block.Transactions[0].Instructions[0]

	if len(outer.Inner) != 2 {
		t.Fatalf("Expected 2 direct CPI children, got %d", len(outer.Inner))
	}
	if len(outer.Inner[0].Inner) != 1 {
		t.Fatalf("Expected nested CPI under the first child, got %d", len(outer.Inner[0].Inner))
	}
	if outer.Inner[0].Depth != 1 || outer.Inner[0].Inner[0].Depth != 2 || outer.Inner[1].Depth != 1 {
		t.Errorf("Depths = %d/%d/%d, want 1/2/1",
			outer.Inner[0].Depth, outer.Inner[0].Inner[0].Depth, outer.Inner[1].Depth)
	}
}

func TestConvertBlock_MissingStackHeightIsFirstLevel(t *testing.T) {
	wtx := wireTx(5000, false)
	wtx.Meta.InnerInstructions = []solana.InnerInstructionSet{
		{
			Index: 0,
			Instructions: []solana.CompiledInstruction{
				{ProgramIDIndex: 1, Data: swapData},
				{ProgramIDIndex: 1, Data: swapData},
			},
		},
	}

	block := ConvertBlock(&solana.Block{Transactions: []solana.BlockTransaction{wtx}})
	outer := block.Transactions[0].Instructions[0]
	if len(outer.Inner) != 2 {
		t.Fatalf("Expected 2 first-level CPI children, got %d", len(outer.Inner))
	}
}

func TestConvertBlock_SkippedStackLevelClamped(t *testing.T) {
	wtx := wireTx(5000, false)
	// Height jumps straight to 4 with no intermediate parents.
	wtx.Meta.InnerInstructions = []solana.InnerInstructionSet{
		{
			Index: 0,
			Instructions: []solana.CompiledInstruction{
				{ProgramIDIndex: 1, Data: swapData, StackHeight: intPtr(4)},
			},
		},
	}

	block := ConvertBlock(&solana.Block{Transactions: []solana.BlockTransaction{wtx}})
	outer := block.Transactions[0].Instructions[0]
	if len(outer.Inner) != 1 {
		t.Fatalf("Expected the orphan to attach at the first level, got %d children", len(outer.Inner))
	}
	if outer.Inner[0].Depth != 1 {
		t.Errorf("Depth = %d, want clamped to 1", outer.Inner[0].Depth)
	}
}

func TestConvertBlock_MalformedInstructionData(t *testing.T) {
	wtx := wireTx(5000, false)
	wtx.Message.Instructions[0].Data = "not!valid!base58!0OIl"

	block := ConvertBlock(&solana.Block{Transactions: []solana.BlockTransaction{wtx}})
	if data := block.Transactions[0].Instructions[0].Data; data != nil {
		t.Errorf("Malformed data should decode to nil, got %v", data)
	}
}

func TestConvertBlock_OutOfRangeIndexes(t *testing.T) {
	wtx := wireTx(5000, false)
	wtx.Message.Instructions = []solana.CompiledInstruction{
		{ProgramIDIndex: 99, Accounts: []int{0, 50, -1}, Data: swapData},
	}

	block := ConvertBlock(&solana.Block{Transactions: []solana.BlockTransaction{wtx}})
	ix := block.Transactions[0].Instructions[0]
	if ix.ProgramID != "" {
		t.Errorf("ProgramID = %q, want empty for out-of-range index", ix.ProgramID)
	}
	if len(ix.Accounts) != 1 || ix.Accounts[0] != systemProgram {
		t.Errorf("Accounts = %v, want only the in-range key", ix.Accounts)
	}
}

func TestIsOnCurve(t *testing.T) {
	if !isOnCurve(systemProgram) {
		t.Error("System program key should be on curve")
	}
	if isOnCurve(base58.Encode(make([]byte, 20))) {
		t.Error("20-byte value accepted as pubkey")
	}
	if isOnCurve("") {
		t.Error("Empty string accepted as pubkey")
	}
}
