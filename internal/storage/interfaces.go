package storage

import (
	"context"

	"solana-sandwich-watch/internal/domain"
)

// AttackStore is the storage sink for detected sandwich attacks.
type AttackStore interface {
	// Upsert inserts the attack or replaces the record with the same attack id.
	// Re-emitting the same (slot, pool, attacker, front tx, back tx) key is
	// idempotent, supporting safe reprocessing and backfill.
	Upsert(ctx context.Context, a *domain.SandwichAttack) error

	// GetByID retrieves an attack by attack id. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, attackID string) (*domain.SandwichAttack, error)

	// GetBySlotRange retrieves attacks with slot in [from, to] (inclusive),
	// ordered by (slot, pool, attack id).
	GetBySlotRange(ctx context.Context, from, to uint64) ([]*domain.SandwichAttack, error)
}

// AttackerProfit is an aggregate row of total attacker net profit.
type AttackerProfit struct {
	Attacker    string
	AttackCount int64
	TotalProfit float64 // SOL-equivalent; unknown-profit attacks excluded
}

// PoolAttackCount is an aggregate row of attacks per pool.
type PoolAttackCount struct {
	Pool        string
	AttackCount int64
	VictimCount int64
}

// AttackStatsStore exposes aggregate queries over stored attacks. Implemented
// by the SQL-backed stores; the memory store implements it for tests.
type AttackStatsStore interface {
	// TopAttackers returns attackers ordered by total net profit, descending.
	TopAttackers(ctx context.Context, limit int) ([]AttackerProfit, error)

	// MostTargetedPools returns pools ordered by attack count, descending.
	MostTargetedPools(ctx context.Context, limit int) ([]PoolAttackCount, error)
}
