// Package ingest turns raw Solana RPC blocks into the domain block model
// consumed by the detection pipeline.
package ingest

import (
	"context"

	"solana-sandwich-watch/internal/domain"
)

// BlockSource fetches one block per slot. Implementations return
// solana.ErrSlotSkipped (wrapped) for slots that hold no block.
type BlockSource interface {
	Fetch(ctx context.Context, slot uint64) (*domain.Block, error)
}

// SlotStream announces newly confirmed slots for live processing.
type SlotStream interface {
	Slots(ctx context.Context) (<-chan uint64, error)
}
